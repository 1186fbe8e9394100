package classifier

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"polyclassify/internal/config"
	"polyclassify/internal/costtracker"
	"polyclassify/internal/models"
	"polyclassify/internal/store"

	"github.com/google/generative-ai-go/genai"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

const missingKeyMessage = "API Key is missing. Please ensure the environment is configured correctly."

// geminiCall is everything one generateContent round trip needs.
type geminiCall struct {
	Model       string
	Instruction string
	Text        string
	Schema      *genai.Schema
	Temperature float32
}

// geminiBackend is the narrow part of the SDK the classifier depends on.
type geminiBackend interface {
	GenerateContent(ctx context.Context, call geminiCall) (*genai.GenerateContentResponse, error)
	Close() error
}

type sdkGeminiBackend struct {
	client *genai.Client
}

func (b *sdkGeminiBackend) GenerateContent(ctx context.Context, call geminiCall) (*genai.GenerateContentResponse, error) {
	m := b.client.GenerativeModel(call.Model)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(call.Instruction)}}
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = call.Schema
	m.SetTemperature(call.Temperature)
	return m.GenerateContent(ctx, genai.Text(call.Text))
}

func (b *sdkGeminiBackend) Close() error { return b.client.Close() }

func dialGemini(ctx context.Context, apiKey string) (geminiBackend, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &sdkGeminiBackend{client: client}, nil
}

// GeminiOptions configures a GeminiClassifier.
type GeminiOptions struct {
	APIKey      string // Empty means read GEMINI_API_KEY / API_KEY at call time
	Model       string
	Temperature float32
	Prompt      *PromptBuilder
	CostTracker costtracker.CostTracker
	Pricing     map[string]config.PricingInfo
}

// GeminiClassifier classifies text with the Google Gemini API.
// The SDK client is created lazily on the first attempt that has a credential.
type GeminiClassifier struct {
	mu          sync.Mutex
	backend     geminiBackend
	apiKey      string
	model       string
	temperature float32
	prompt      *PromptBuilder
	usage       usageRecorder

	dial   func(ctx context.Context, apiKey string) (geminiBackend, error)
	getenv func(string) string
}

// NewGeminiClassifier creates a Gemini classification provider.
func NewGeminiClassifier(opts GeminiOptions) *GeminiClassifier {
	model := opts.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	prompt := opts.Prompt
	if prompt == nil {
		prompt = DefaultPromptBuilder()
	}
	return &GeminiClassifier{
		apiKey:      opts.APIKey,
		model:       model,
		temperature: opts.Temperature,
		prompt:      prompt,
		usage:       usageRecorder{provider: "gemini", costTracker: opts.CostTracker, pricing: opts.Pricing},
		dial:        dialGemini,
		getenv:      os.Getenv,
	}
}

// Name returns the provider name.
func (c *GeminiClassifier) Name() string { return "gemini" }

// ModelName returns the specific model identifier.
func (c *GeminiClassifier) ModelName() string { return c.model }

func (c *GeminiClassifier) Classify(ctx context.Context, req Request) (models.ClassificationResult, error) {
	if err := CheckRequest(req); err != nil {
		return models.ClassificationResult{}, err
	}

	backend, err := c.connect(ctx)
	if err != nil {
		return models.ClassificationResult{}, err
	}

	call := geminiCall{
		Model:       c.model,
		Instruction: c.prompt.Build(req.Labels, req.Examples),
		Text:        req.Text,
		Schema:      GeminiResponseSchema(),
		Temperature: c.temperature,
	}
	log.Debugf("Sending classification request to Gemini (model=%s, labels=%d, examples=%d)", c.model, len(req.Labels), len(req.Examples))

	resp, err := backend.GenerateContent(ctx, call)
	if err != nil {
		log.Errorf("Gemini classification error: %v", err)
		return models.ClassificationResult{}, models.NewTransportError(err)
	}

	if resp != nil && resp.UsageMetadata != nil {
		c.usage.record(ctx, c.model, int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount))
	}

	text := responseText(resp)
	if text == "" {
		return models.ClassificationResult{}, models.NewContractError("No response received from Gemini.", nil)
	}
	return ParseResult(text)
}

// connect returns the backend, dialing it on first use.
func (c *GeminiClassifier) connect(ctx context.Context) (geminiBackend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil {
		return c.backend, nil
	}
	apiKey := c.credential()
	if apiKey == "" {
		return nil, models.NewConfigurationError(missingKeyMessage)
	}
	backend, err := c.dial(ctx, apiKey)
	if err != nil {
		return nil, models.NewTransportError(err)
	}
	log.Infof("Gemini provider initialized with model %s", c.model)
	c.backend = backend
	return backend, nil
}

func (c *GeminiClassifier) credential() string {
	if c.apiKey != "" {
		return c.apiKey
	}
	if key := c.getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return c.getenv("API_KEY")
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}

// Status returns the operational status of the provider.
func (c *GeminiClassifier) Status() store.ProviderStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil {
		return store.ProviderStatusActive
	}
	if c.credential() != "" {
		return store.ProviderStatusInactive
	}
	return store.ProviderStatusDisabled
}

// Close cleans up the Gemini client resources.
func (c *GeminiClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend == nil {
		return nil
	}
	err := c.backend.Close()
	c.backend = nil
	return err
}

// Ensure GeminiClassifier implements the interface at compile time.
var _ Provider = (*GeminiClassifier)(nil)
