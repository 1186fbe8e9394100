package classifier

import (
	"context"
	"os"
	"strings"
	"sync"

	"polyclassify/internal/config"
	"polyclassify/internal/costtracker"
	"polyclassify/internal/models"
	"polyclassify/internal/store"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.GPT4oMini

// ChatCompletionCreator is the minimal interface for OpenAI chat completions.
type ChatCompletionCreator interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIOptions configures an OpenAIClassifier.
type OpenAIOptions struct {
	APIKey      string // Empty means read OPENAI_API_KEY at call time
	BaseURL     string // Optional, for OpenAI-compatible endpoints
	Model       string
	Temperature float32
	Prompt      *PromptBuilder
	CostTracker costtracker.CostTracker
	Pricing     map[string]config.PricingInfo
}

// OpenAIClassifier classifies text with an OpenAI-compatible chat completion API,
// asking for a strict JSON-schema response.
type OpenAIClassifier struct {
	mu          sync.Mutex
	client      ChatCompletionCreator
	apiKey      string
	baseURL     string
	model       string
	temperature float32
	prompt      *PromptBuilder
	usage       usageRecorder

	newClient func(apiKey, baseURL string) ChatCompletionCreator
	getenv    func(string) string
}

// NewOpenAIClassifier creates an OpenAI classification provider.
func NewOpenAIClassifier(opts OpenAIOptions) *OpenAIClassifier {
	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	prompt := opts.Prompt
	if prompt == nil {
		prompt = DefaultPromptBuilder()
	}
	return &OpenAIClassifier{
		apiKey:      opts.APIKey,
		baseURL:     opts.BaseURL,
		model:       model,
		temperature: opts.Temperature,
		prompt:      prompt,
		usage:       usageRecorder{provider: "openai", costTracker: opts.CostTracker, pricing: opts.Pricing},
		newClient:   newOpenAIClient,
		getenv:      os.Getenv,
	}
}

func newOpenAIClient(apiKey, baseURL string) ChatCompletionCreator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func (c *OpenAIClassifier) Name() string      { return "openai" }
func (c *OpenAIClassifier) ModelName() string { return c.model }

func (c *OpenAIClassifier) Classify(ctx context.Context, req Request) (models.ClassificationResult, error) {
	if err := CheckRequest(req); err != nil {
		return models.ClassificationResult{}, err
	}

	client, err := c.connect()
	if err != nil {
		return models.ClassificationResult{}, err
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.prompt.Build(req.Labels, req.Examples)},
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "classification_result",
				Schema: OpenAIResponseSchema(),
				Strict: true,
			},
		},
	})
	if err != nil {
		log.Errorf("OpenAI classification error: %v", err)
		return models.ClassificationResult{}, models.NewTransportError(err)
	}

	c.usage.record(ctx, c.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return models.ClassificationResult{}, models.NewContractError("no choices returned from OpenAI", nil)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		if refusal := resp.Choices[0].Message.Refusal; refusal != "" {
			return models.ClassificationResult{}, models.NewContractError("model refused to classify: "+refusal, nil)
		}
		return models.ClassificationResult{}, models.NewContractError("No response received from OpenAI.", nil)
	}
	return ParseResult(content)
}

func (c *OpenAIClassifier) connect() (ChatCompletionCreator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	apiKey := c.credential()
	if apiKey == "" {
		return nil, models.NewConfigurationError(missingKeyMessage)
	}
	c.client = c.newClient(apiKey, c.baseURL)
	log.Infof("OpenAI provider initialized with model %s", c.model)
	return c.client, nil
}

func (c *OpenAIClassifier) credential() string {
	if c.apiKey != "" {
		return c.apiKey
	}
	return c.getenv("OPENAI_API_KEY")
}

func (c *OpenAIClassifier) Status() store.ProviderStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return store.ProviderStatusActive
	}
	if c.credential() != "" {
		return store.ProviderStatusInactive
	}
	return store.ProviderStatusDisabled
}

// Close drops the client; the OpenAI SDK holds no resources that need releasing.
func (c *OpenAIClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = nil
	return nil
}

var _ Provider = (*OpenAIClassifier)(nil)
