package classifier

import (
	"context"
	"errors"
	"testing"

	"polyclassify/internal/costtracker"
	"polyclassify/internal/models"
	"polyclassify/internal/store"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock OpenAI Client ---
type mockOpenAIClient struct {
	mockResponse openai.ChatCompletionResponse
	mockError    error
	requests     []openai.ChatCompletionRequest
}

func (m *mockOpenAIClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.requests = append(m.requests, req)
	if m.mockError != nil {
		return openai.ChatCompletionResponse{}, m.mockError
	}
	return m.mockResponse, nil
}

// --- End Mock OpenAI Client ---

func contentResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
		Usage: openai.Usage{PromptTokens: 50, CompletionTokens: 10, TotalTokens: 60},
	}
}

func newTestOpenAI(client *mockOpenAIClient, apiKey string) *OpenAIClassifier {
	c := NewOpenAIClassifier(OpenAIOptions{APIKey: apiKey, Model: "gpt-test", CostTracker: costtracker.New()})
	c.getenv = func(string) string { return "" }
	c.newClient = func(key, baseURL string) ChatCompletionCreator { return client }
	return c
}

func TestOpenAIClassifier_Success(t *testing.T) {
	client := &mockOpenAIClient{mockResponse: contentResponse(`{"label":"Negative","confidence":0.81,"reasoning":"Dislike expressed.","detectedLanguage":"Spanish"}`)}
	c := newTestOpenAI(client, "sk-test")

	res, err := c.Classify(context.Background(), Request{Text: "No me gusta", Labels: []string{"Positive", "Negative"}})
	require.NoError(t, err)
	assert.Equal(t, "Negative", res.Label)
	assert.Equal(t, 0.81, res.Confidence)
	assert.Equal(t, "Spanish", res.DetectedLanguage)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "gpt-test", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "Positive, Negative")
	assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[1].Role)
	assert.Equal(t, "No me gusta", req.Messages[1].Content)
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONSchema, req.ResponseFormat.Type)
	require.NotNil(t, req.ResponseFormat.JSONSchema)
	assert.True(t, req.ResponseFormat.JSONSchema.Strict)
	assert.Equal(t, store.ProviderStatusActive, c.Status())
}

func TestOpenAIClassifier_InvalidJSON(t *testing.T) {
	invalid := `This is just plain text, not JSON.`
	c := newTestOpenAI(&mockOpenAIClient{mockResponse: contentResponse(invalid)}, "sk-test")

	_, err := c.Classify(context.Background(), Request{Text: "x", Labels: []string{"A"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrContract)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestOpenAIClassifier_APIError(t *testing.T) {
	mockErr := errors.New("simulated API error 429 Too Many Requests")
	c := newTestOpenAI(&mockOpenAIClient{mockError: mockErr}, "sk-test")

	_, err := c.Classify(context.Background(), Request{Text: "x", Labels: []string{"A"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, mockErr, "Returned error should wrap the original API error")
	assert.ErrorIs(t, err, models.ErrTransport)
	assert.Equal(t, mockErr.Error(), err.Error())
}

func TestOpenAIClassifier_EmptyResponse(t *testing.T) {
	testCases := []struct {
		name     string
		resp     openai.ChatCompletionResponse
		contains string
	}{
		{"No Choices", openai.ChatCompletionResponse{}, "no choices returned from OpenAI"},
		{"Empty Content", contentResponse("  "), "No response received from OpenAI."},
		{"Refusal", openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Refusal: "I can't help with that."}},
		}}, "model refused to classify"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestOpenAI(&mockOpenAIClient{mockResponse: tc.resp}, "sk-test")
			_, err := c.Classify(context.Background(), Request{Text: "x", Labels: []string{"A"}})
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrContract)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestOpenAIClassifier_MissingCredential(t *testing.T) {
	client := &mockOpenAIClient{}
	c := newTestOpenAI(client, "")

	assert.Equal(t, store.ProviderStatusDisabled, c.Status())
	_, err := c.Classify(context.Background(), Request{Text: "x", Labels: []string{"A"}})
	require.ErrorIs(t, err, models.ErrConfiguration)
	assert.Empty(t, client.requests)
}

func TestOpenAIClassifier_RecordsUsageWithoutPricing(t *testing.T) {
	tracker := costtracker.New()
	client := &mockOpenAIClient{mockResponse: contentResponse(`{"label":"A","confidence":1,"reasoning":"r","detectedLanguage":"English"}`)}
	c := NewOpenAIClassifier(OpenAIOptions{APIKey: "sk-test", CostTracker: tracker})
	c.newClient = func(key, baseURL string) ChatCompletionCreator { return client }

	_, err := c.Classify(context.Background(), Request{Text: "x", Labels: []string{"A"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, client.requests[0].Model)

	summary, err := tracker.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Calls)
	assert.Equal(t, 50, summary.InputTokens)
	assert.Zero(t, summary.TotalCostUSD)
}
