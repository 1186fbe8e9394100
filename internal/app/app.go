package app

import (
	"fmt"

	"polyclassify/internal/config"
	"polyclassify/internal/costtracker"
	"polyclassify/internal/models"
	"polyclassify/internal/services"
	"polyclassify/internal/store/memory"
	"polyclassify/pkg/classifier"

	log "github.com/sirupsen/logrus"
)

type App struct {
	Config *config.Config

	Store       *memory.SessionStore
	CostTracker costtracker.CostTracker
	Provider    classifier.Provider

	// --- Initialized Services ---
	SessionService        *services.SessionService
	ClassificationService *services.ClassificationService
}

// NewApp builds the provider selected by cfg and wires the session around it.
func NewApp(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg, CostTracker: costtracker.New()}

	if err := app.initProvider(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		app.Close()
		return nil, err
	}

	log.Debugf("Application initialization complete (provider=%s, model=%s)", app.Provider.Name(), app.Provider.ModelName())
	return app, nil
}

// NewAppWithProvider wires the session around an already constructed provider.
func NewAppWithProvider(cfg *config.Config, provider classifier.Provider) (*App, error) {
	app := &App{Config: cfg, CostTracker: costtracker.New(), Provider: provider}
	if err := app.initServices(); err != nil {
		return nil, err
	}
	return app, nil
}

// --- Private Helper Methods ---

func (a *App) initProvider() error {
	cfg := a.Config

	prompt, err := a.loadPrompt()
	if err != nil {
		return err
	}

	switch cfg.Classification.Provider {
	case "gemini", "":
		a.Provider = classifier.NewGeminiClassifier(classifier.GeminiOptions{
			APIKey:      cfg.Provider.Gemini.APIKey,
			Model:       cfg.Classification.Model,
			Temperature: cfg.Classification.Temperature,
			Prompt:      prompt,
			CostTracker: a.CostTracker,
			Pricing:     cfg.Pricing["gemini"],
		})
	case "openai":
		a.Provider = classifier.NewOpenAIClassifier(classifier.OpenAIOptions{
			APIKey:      cfg.Provider.OpenAI.APIKey,
			BaseURL:     cfg.Provider.OpenAI.BaseURL,
			Model:       cfg.Classification.Model,
			Temperature: cfg.Classification.Temperature,
			Prompt:      prompt,
			CostTracker: a.CostTracker,
			Pricing:     cfg.Pricing["openai"],
		})
	default:
		return fmt.Errorf("unknown or unsupported classification provider configured: %s", cfg.Classification.Provider)
	}
	return nil
}

// loadPrompt returns nil when no template is configured, which selects the built-in instruction.
func (a *App) loadPrompt() (*classifier.PromptBuilder, error) {
	content, err := config.LoadPromptContent(a.Config.Classification.PromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("load classification prompt: %w", err)
	}
	if content == "" {
		return nil, nil
	}
	builder, err := classifier.NewPromptBuilder(content)
	if err != nil {
		return nil, fmt.Errorf("invalid classification prompt %s: %w", a.Config.Classification.PromptTemplate, err)
	}
	return builder, nil
}

func (a *App) initServices() error {
	cfg := a.Config
	if a.Provider == nil {
		return fmt.Errorf("init services: no classification provider")
	}

	a.Store = memory.NewSessionStore()
	a.SessionService = services.NewSessionService(a.Store, services.WhatlangDetector{})
	a.seedSession()

	var c classifier.Classifier = a.Provider
	if cfg.Classification.Retry.MaxRetries > 0 {
		c = classifier.WithRetry(c, &classifier.SimpleRetryStrategy{
			MaxRetries:  cfg.Classification.Retry.MaxRetries,
			BaseDelayMs: cfg.Classification.Retry.BaseDelayMs,
		})
	}
	a.ClassificationService = services.NewClassificationService(c, a.Store, services.ClassificationOptions{
		Timeout:      cfg.Classification.Timeout,
		StrictLabels: cfg.Classification.StrictLabels,
	})
	return nil
}

func (a *App) seedSession() {
	examples := make([]models.Example, 0, len(a.Config.Session.Examples))
	for _, ex := range a.Config.Session.Examples {
		examples = append(examples, models.Example{Text: ex.Text, Label: ex.Label, Language: ex.Language})
	}
	a.SessionService.Seed(a.Config.Session.Labels, examples)
	log.Debugf("Session seeded with %d labels and %d examples", len(a.Store.Labels()), len(a.Store.Examples()))
}

// Close releases the provider's SDK client, if one was created.
func (a *App) Close() {
	if a.Provider == nil {
		return
	}
	if err := a.Provider.Close(); err != nil {
		log.Printf("Error closing classification provider: %v", err)
	}
}
