package config

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

/*
Validate checks the settings that can be wrong before any classification is attempted.
Missing credentials are deliberately not checked here: they are surfaced as a
configuration error on the first classification attempt instead of refusing to start.
*/
func (c *Config) Validate() error {
	// Logging
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level %q is not a valid level: %w", c.Log.Level, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json', got %q", c.Log.Format)
	}

	// Classification
	switch c.Classification.Provider {
	case "gemini", "openai":
	case "":
		return errors.New("classification.provider is required")
	default:
		return fmt.Errorf("classification.provider must be 'gemini' or 'openai', got %q", c.Classification.Provider)
	}
	if c.Classification.Temperature < 0 || c.Classification.Temperature > 2 {
		return fmt.Errorf("classification.temperature (%v) must be between 0 and 2", c.Classification.Temperature)
	}
	if c.Classification.Timeout < 0 {
		return errors.New("classification.timeout must not be negative")
	}
	if c.Classification.Retry.MaxRetries < 0 {
		return errors.New("classification.retry.max_retries must not be negative")
	}
	if c.Classification.Retry.MaxRetries > 0 && c.Classification.Retry.BaseDelayMs <= 0 {
		return errors.New("classification.retry.base_delay_ms must be positive when retries are enabled")
	}

	// Session seed
	for i, l := range c.Session.Labels {
		if strings.TrimSpace(l) == "" {
			return fmt.Errorf("session.labels[%d] is empty", i)
		}
	}
	for i, ex := range c.Session.Examples {
		if strings.TrimSpace(ex.Text) == "" {
			return fmt.Errorf("session.examples[%d].text is empty", i)
		}
		if !contains(c.Session.Labels, ex.Label) {
			return fmt.Errorf("session.examples[%d].label %q is not one of session.labels", i, ex.Label)
		}
	}

	// Pricing config (optional, but if present, must be valid)
	for provider, models := range c.Pricing {
		if provider == "" {
			return errors.New("pricing contains an empty provider name")
		}
		for model, price := range models {
			if model == "" {
				return fmt.Errorf("pricing for provider '%s' contains an empty model name", provider)
			}
			if price.InputPerToken < 0 || price.OutputPerToken < 0 {
				return fmt.Errorf("pricing for provider '%s', model '%s' has negative token cost", provider, model)
			}
		}
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.TrimSpace(v) == s {
			return true
		}
	}
	return false
}
