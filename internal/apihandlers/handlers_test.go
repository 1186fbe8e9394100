package apihandlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"polyclassify/internal/app"
	"polyclassify/internal/config"
	"polyclassify/internal/costtracker"
	"polyclassify/internal/models"
	"polyclassify/internal/store"
	"polyclassify/pkg/classifier"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider returns result/err for every call.
type scriptedProvider struct {
	result models.ClassificationResult
	err    error
	calls  int
	ctxErr error
}

func (p *scriptedProvider) Classify(ctx context.Context, req classifier.Request) (models.ClassificationResult, error) {
	p.calls++
	p.ctxErr = ctx.Err()
	return p.result, p.err
}
func (p *scriptedProvider) Name() string { return "scripted" }
func (p *scriptedProvider) ModelName() string { return "scripted-1" }
func (p *scriptedProvider) Status() store.ProviderStatus { return store.ProviderStatusActive }
func (p *scriptedProvider) Close() error { return nil }

func setupRouter(t *testing.T, p *scriptedProvider) (*gin.Engine, *app.App) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Classification.Provider = "gemini"
	cfg.Session.Labels = append([]string(nil), config.DefaultLabels...)
	cfg.Session.Examples = append([]config.ExampleSeed(nil), config.DefaultExamples...)

	a, err := app.NewAppWithProvider(cfg, p)
	require.NoError(t, err)

	router := gin.New()
	NewAPIHandler(a).RegisterRoutes(router)
	return router, a
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestLabelsEndpoints(t *testing.T) {
	router, _ := setupRouter(t, &scriptedProvider{})

	w := doJSON(router, http.MethodGet, "/api/v1/labels", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, []string{"Positive", "Negative", "Neutral"}, list.Data)

	w = doJSON(router, http.MethodPost, "/api/v1/labels", AddLabelRequest{Name: " Urgent "})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"data":"Urgent"}`, w.Body.String())

	w = doJSON(router, http.MethodPost, "/api/v1/labels", AddLabelRequest{Name: "Urgent"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decodeError(t, w).Code)

	w = doJSON(router, http.MethodPost, "/api/v1/labels", AddLabelRequest{Name: "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/v1/labels/Urgent", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/v1/labels/Urgent", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Code)
}

func TestExamplesEndpoints(t *testing.T) {
	router, a := setupRouter(t, &scriptedProvider{})

	w := doJSON(router, http.MethodPost, "/api/v1/examples", AddExampleRequest{Text: "Meh.", Label: "Neutral", Language: "English"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data models.Example `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEqual(t, uuid.Nil, created.Data.ID)
	assert.Equal(t, "Neutral", created.Data.Label)
	assert.Len(t, a.SessionService.Examples(), 4)

	w = doJSON(router, http.MethodPost, "/api/v1/examples", AddExampleRequest{Text: "x", Label: "Unknown"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, a.SessionService.Examples(), 4)

	w = doJSON(router, http.MethodGet, "/api/v1/examples", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []models.Example `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 4)
	assert.Equal(t, created.Data.ID, list.Data[3].ID)

	w = doJSON(router, http.MethodDelete, "/api/v1/examples/"+created.Data.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, a.SessionService.Examples(), 3)

	w = doJSON(router, http.MethodDelete, "/api/v1/examples/"+created.Data.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/v1/examples/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassifyEndpoint_Success(t *testing.T) {
	p := &scriptedProvider{result: models.ClassificationResult{
		Label: "Positive", Confidence: 0.92, Reasoning: "...", DetectedLanguage: "English",
	}}
	router, _ := setupRouter(t, p)

	w := doJSON(router, http.MethodPost, "/api/v1/classify", ClassifyRequest{Text: "This is great!"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"status":"success","result":{"label":"Positive","confidence":0.92,"reasoning":"...","detectedLanguage":"English"}}}`, w.Body.String())

	w = doJSON(router, http.MethodGet, "/api/v1/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"success"`)
}

func TestClassifyEndpoint_OutlivesRequest(t *testing.T) {
	p := &scriptedProvider{result: models.ClassificationResult{
		Label: "Neutral", Confidence: 0.7, Reasoning: "...", DetectedLanguage: "French",
	}}
	router, a := setupRouter(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", bytes.NewBufferString(`{"text":"La livraison est arrivée."}`))
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, p.calls)
	assert.NoError(t, p.ctxErr)
	assert.Equal(t, models.StatusSuccess, a.ClassificationService.State().Status)
}

func TestClassifyEndpoint_ErrorMapping(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"Transport", models.NewTransportError(errors.New("timeout")), http.StatusBadGateway, "upstream_error", "timeout"},
		{"Contract", models.NewContractError("response is not valid JSON", nil), http.StatusUnprocessableEntity, "unprocessable", "contract violation: response is not valid JSON"},
		{"Configuration", models.NewConfigurationError("API Key is missing."), http.StatusUnprocessableEntity, "unprocessable", "API Key is missing."},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error", "boom"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router, a := setupRouter(t, &scriptedProvider{err: tc.err})

			w := doJSON(router, http.MethodPost, "/api/v1/classify", ClassifyRequest{Text: "hello"})
			assert.Equal(t, tc.wantStatus, w.Code)
			apiErr := decodeError(t, w)
			assert.Equal(t, tc.wantCode, apiErr.Code)
			assert.Equal(t, tc.wantMsg, apiErr.Message)
			assert.Equal(t, models.StatusError, a.ClassificationService.State().Status)
		})
	}
}

func TestClassifyEndpoint_NoLabels(t *testing.T) {
	p := &scriptedProvider{}
	router, _ := setupRouter(t, p)
	for _, l := range []string{"Positive", "Negative", "Neutral"} {
		require.Equal(t, http.StatusNoContent, doJSON(router, http.MethodDelete, "/api/v1/labels/"+l, nil).Code)
	}

	w := doJSON(router, http.MethodPost, "/api/v1/classify", ClassifyRequest{Text: "hello"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "System Error: No classification labels defined.", decodeError(t, w).Message)
	assert.Zero(t, p.calls)
}

func TestClassifyEndpoint_BlankText(t *testing.T) {
	p := &scriptedProvider{}
	router, a := setupRouter(t, p)

	w := doJSON(router, http.MethodPost, "/api/v1/classify", ClassifyRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, p.calls)
	assert.Equal(t, models.StatusIdle, a.ClassificationService.State().Status)
}

func TestUsageAndHealthEndpoints(t *testing.T) {
	router, a := setupRouter(t, &scriptedProvider{})
	require.NoError(t, a.CostTracker.RecordCost(context.Background(), costtracker.CostEvent{
		Operation: models.ServiceTypeClassification, ProviderName: "scripted", ModelName: "scripted-1",
		InputTokens: 120, OutputTokens: 30, AmountUSD: 0.001,
	}))

	w := doJSON(router, http.MethodGet, "/api/v1/usage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var usage struct {
		Summary costtracker.Summary  `json:"summary"`
		Records []models.UsageRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &usage))
	assert.Equal(t, 1, usage.Summary.Calls)
	assert.Equal(t, 120, usage.Summary.InputTokens)
	require.Len(t, usage.Records, 1)
	assert.Equal(t, "scripted-1", usage.Records[0].ModelName)

	w = doJSON(router, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","provider":"scripted","model":"scripted-1","provider_status":"active"}`, w.Body.String())
}
