package classifier

import (
	"context"
	"errors"
	"testing"

	"polyclassify/internal/config"
	"polyclassify/internal/costtracker"
	"polyclassify/internal/models"
	"polyclassify/internal/store"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fake Gemini backend ---
type fakeGeminiBackend struct {
	resp   *genai.GenerateContentResponse
	err    error
	calls  []geminiCall
	closed bool
}

func (f *fakeGeminiBackend) GenerateContent(ctx context.Context, call geminiCall) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, call)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeGeminiBackend) Close() error {
	f.closed = true
	return nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(text)}}},
		},
	}
}

// newTestGemini wires a classifier to backend; dials counts how often a client was created.
func newTestGemini(backend *fakeGeminiBackend, apiKey string, env map[string]string, dials *int) *GeminiClassifier {
	c := NewGeminiClassifier(GeminiOptions{APIKey: apiKey})
	c.getenv = func(k string) string { return env[k] }
	c.dial = func(ctx context.Context, key string) (geminiBackend, error) {
		*dials++
		return backend, nil
	}
	return c
}

var sampleRequest = Request{
	Text:     "This is great!",
	Labels:   []string{"Positive", "Negative", "Neutral"},
	Examples: multilingualExamples,
}

func TestGeminiClassifier_Success(t *testing.T) {
	backend := &fakeGeminiBackend{resp: textResponse(`{"label":"Positive","confidence":0.92,"reasoning":"...","detectedLanguage":"English"}`)}
	dials := 0
	c := newTestGemini(backend, "test-key", nil, &dials)

	res, err := c.Classify(context.Background(), sampleRequest)
	require.NoError(t, err)
	assert.Equal(t, models.ClassificationResult{Label: "Positive", Confidence: 0.92, Reasoning: "...", DetectedLanguage: "English"}, res)

	require.Len(t, backend.calls, 1)
	call := backend.calls[0]
	assert.Equal(t, DefaultGeminiModel, call.Model)
	assert.Equal(t, "This is great!", call.Text)
	assert.Contains(t, call.Instruction, "Positive, Negative, Neutral")
	assert.Contains(t, call.Instruction, "Example 3:")
	assert.Equal(t, RequiredFields, call.Schema.Required)
	assert.Equal(t, store.ProviderStatusActive, c.Status())

	// The client is reused across attempts.
	_, err = c.Classify(context.Background(), sampleRequest)
	require.NoError(t, err)
	assert.Equal(t, 1, dials)
}

func TestGeminiClassifier_MissingCredential(t *testing.T) {
	backend := &fakeGeminiBackend{}
	dials := 0
	c := newTestGemini(backend, "", map[string]string{}, &dials)

	assert.Equal(t, store.ProviderStatusDisabled, c.Status())

	_, err := c.Classify(context.Background(), sampleRequest)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfiguration)
	assert.Equal(t, missingKeyMessage, err.Error())
	assert.Equal(t, 0, dials, "no client may be created without a credential")
	assert.Empty(t, backend.calls)
}

func TestGeminiClassifier_CredentialFromEnvironmentAtCallTime(t *testing.T) {
	backend := &fakeGeminiBackend{resp: textResponse(`{"label":"A","confidence":0.5,"reasoning":"r","detectedLanguage":"English"}`)}
	dials := 0
	env := map[string]string{}
	c := newTestGemini(backend, "", env, &dials)

	_, err := c.Classify(context.Background(), Request{Text: "x", Labels: []string{"A"}})
	require.ErrorIs(t, err, models.ErrConfiguration)

	env["API_KEY"] = "late-key"
	assert.Equal(t, store.ProviderStatusInactive, c.Status())
	_, err = c.Classify(context.Background(), Request{Text: "x", Labels: []string{"A"}})
	require.NoError(t, err)
	assert.Equal(t, 1, dials)
}

func TestGeminiClassifier_NoLabelsFailsFast(t *testing.T) {
	backend := &fakeGeminiBackend{}
	dials := 0
	c := newTestGemini(backend, "test-key", nil, &dials)

	_, err := c.Classify(context.Background(), Request{Text: "hello"})
	require.ErrorIs(t, err, models.ErrConfiguration)
	assert.Equal(t, 0, dials)
	assert.Empty(t, backend.calls)
}

func TestGeminiClassifier_TransportError(t *testing.T) {
	backend := &fakeGeminiBackend{err: errors.New("timeout")}
	dials := 0
	c := newTestGemini(backend, "test-key", nil, &dials)

	_, err := c.Classify(context.Background(), sampleRequest)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTransport)
	assert.ErrorIs(t, err, backend.err)
	assert.Equal(t, "timeout", err.Error())
}

func TestGeminiClassifier_ContractErrors(t *testing.T) {
	testCases := []struct {
		name     string
		resp     *genai.GenerateContentResponse
		contains string
	}{
		{"Nil Response", nil, "No response received from Gemini."},
		{"No Candidates", &genai.GenerateContentResponse{}, "No response received from Gemini."},
		{"Nil Content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}, "No response received from Gemini."},
		{"Invalid JSON", textResponse("Positive!"), "not valid JSON"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dials := 0
			c := newTestGemini(&fakeGeminiBackend{resp: tc.resp}, "test-key", nil, &dials)
			_, err := c.Classify(context.Background(), sampleRequest)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrContract)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestGeminiClassifier_RecordsUsage(t *testing.T) {
	resp := textResponse(`{"label":"A","confidence":0.5,"reasoning":"r","detectedLanguage":"English"}`)
	resp.UsageMetadata = &genai.UsageMetadata{PromptTokenCount: 100, CandidatesTokenCount: 20, TotalTokenCount: 120}

	tracker := costtracker.New()
	c := NewGeminiClassifier(GeminiOptions{
		APIKey:      "test-key",
		Model:       "gemini-test",
		CostTracker: tracker,
		Pricing:     map[string]config.PricingInfo{"gemini-test": {InputPerToken: 0.001, OutputPerToken: 0.002}},
	})
	c.dial = func(ctx context.Context, key string) (geminiBackend, error) {
		return &fakeGeminiBackend{resp: resp}, nil
	}

	_, err := c.Classify(context.Background(), Request{Text: "x", Labels: []string{"A"}})
	require.NoError(t, err)

	summary, err := tracker.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Calls)
	assert.Equal(t, 100, summary.InputTokens)
	assert.Equal(t, 20, summary.OutputTokens)
	assert.InDelta(t, 0.14, summary.TotalCostUSD, 1e-9)
}

func TestGeminiClassifier_Close(t *testing.T) {
	backend := &fakeGeminiBackend{resp: textResponse(`{"label":"A","confidence":0.5,"reasoning":"r","detectedLanguage":"English"}`)}
	dials := 0
	c := newTestGemini(backend, "test-key", nil, &dials)

	require.NoError(t, c.Close(), "closing an unused provider is a no-op")
	_, err := c.Classify(context.Background(), Request{Text: "x", Labels: []string{"A"}})
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.True(t, backend.closed)
	assert.Equal(t, store.ProviderStatusInactive, c.Status())
}
