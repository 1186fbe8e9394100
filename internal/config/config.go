package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PricingInfo holds cost details per token for a specific model.
type PricingInfo struct {
	InputPerToken  float64 `mapstructure:"input_per_token"`
	OutputPerToken float64 `mapstructure:"output_per_token"`
}

// ExampleSeed is a few-shot example declared in the config file.
type ExampleSeed struct {
	Text     string `mapstructure:"text"`
	Label    string `mapstructure:"label"`
	Language string `mapstructure:"language"`
}

type Config struct {
	Log struct {
		Level  string `mapstructure:"level"`  // logrus level name
		Format string `mapstructure:"format"` // "text" or "json"
	} `mapstructure:"log"`

	Server struct {
		Addr string `mapstructure:"addr"`
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`

	Classification struct {
		Provider       string        `mapstructure:"provider"`        // "gemini" or "openai"
		Model          string        `mapstructure:"model"`           // Model name for the provider, empty means provider default
		PromptTemplate string        `mapstructure:"prompt_template"` // Path to an instruction template file
		Temperature    float32       `mapstructure:"temperature"`
		Timeout        time.Duration `mapstructure:"timeout"`       // 0 leaves the SDK default in place
		StrictLabels   bool          `mapstructure:"strict_labels"` // Reject answers whose label is not in the label set
		Retry          struct {
			MaxRetries  int   `mapstructure:"max_retries"` // Retries after the first call; 0 disables
			BaseDelayMs int64 `mapstructure:"base_delay_ms"`
		} `mapstructure:"retry"`
	} `mapstructure:"classification"`

	Provider struct {
		Gemini struct {
			APIKey string `mapstructure:"api_key"`
		} `mapstructure:"gemini"`
		OpenAI struct {
			APIKey  string `mapstructure:"api_key"`
			BaseURL string `mapstructure:"base_url"`
		} `mapstructure:"openai"`
	} `mapstructure:"provider"`

	// Session seeds the in-memory configuration store at startup.
	Session struct {
		Labels   []string      `mapstructure:"labels"`
		Examples []ExampleSeed `mapstructure:"examples"`
	} `mapstructure:"session"`

	// Pricing: map[provider][model] = struct{input_per_token, output_per_token}
	Pricing map[string]map[string]PricingInfo `mapstructure:"pricing"`
}

// Default labels and examples, used when the config file does not declare a session.
var (
	DefaultLabels   = []string{"Positive", "Negative", "Neutral"}
	DefaultExamples = []ExampleSeed{
		{Text: "This product is amazing!", Label: "Positive"},
		{Text: "No me gusta nada esto.", Label: "Negative"},
		{Text: "La livraison est arrivée à 14h.", Label: "Neutral"},
	}
)

// LoadConfig reads config.yaml from the current directory and the environment.
func LoadConfig() (*Config, error) {
	return load(viper.New(), ".")
}

// LoadConfigFrom reads config.yaml from the given directories, in order.
func LoadConfigFrom(paths ...string) (*Config, error) {
	return load(viper.New(), paths...)
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("POLYCLASSIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // classification.model -> POLYCLASSIFY_CLASSIFICATION_MODEL
	v.AutomaticEnv()
	// GEMINI_API_KEY, API_KEY and OPENAI_API_KEY are not bound here: providers
	// read them on every call so a key exported after startup is picked up.
	// --- End Environment Variable Binding ---

	if err := v.ReadInConfig(); err != nil {
		// It's okay if the config file doesn't exist, we rely on defaults/env vars then
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	if !v.IsSet("session.labels") && !v.IsSet("session.examples") {
		config.Session.Labels = append([]string(nil), DefaultLabels...)
		config.Session.Examples = append([]ExampleSeed(nil), DefaultExamples...)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.addr", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("classification.provider", "gemini")
	v.SetDefault("provider.gemini.api_key", "")
	v.SetDefault("provider.openai.api_key", "")
	v.SetDefault("classification.temperature", 0.0)
	v.SetDefault("classification.timeout", "0s")
	v.SetDefault("classification.strict_labels", false)
	v.SetDefault("classification.retry.max_retries", 0)
	v.SetDefault("classification.retry.base_delay_ms", 500)
}
