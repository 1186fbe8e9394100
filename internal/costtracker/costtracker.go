package costtracker

import (
	"context"
	"sync"
	"time"

	"polyclassify/internal/models"

	"github.com/google/uuid"
)

// CostEvent represents a single AI usage event and its cost.
type CostEvent struct {
	Operation    string // e.g., "classification"
	ProviderName string
	ModelName    string
	InputTokens  int
	OutputTokens int
	AmountUSD    float64
}

// Summary aggregates all recorded events.
type Summary struct {
	Calls        int     `json:"calls"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

// CostTracker provides methods to record and report costs.
type CostTracker interface {
	RecordCost(ctx context.Context, event CostEvent) error
	Summary(ctx context.Context) (Summary, error)
	Records(ctx context.Context) ([]models.UsageRecord, error)
}

// New returns a tracker that keeps usage for the lifetime of the session only.
func New() CostTracker {
	return &memoryCostTracker{now: time.Now}
}

type memoryCostTracker struct {
	mu      sync.Mutex
	records []models.UsageRecord
	now     func() time.Time
}

func (m *memoryCostTracker) RecordCost(ctx context.Context, event CostEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, models.UsageRecord{
		ID:           uuid.New(),
		Timestamp:    m.now().UTC(),
		ProviderName: event.ProviderName,
		ServiceType:  event.Operation,
		ModelName:    event.ModelName,
		InputTokens:  event.InputTokens,
		OutputTokens: event.OutputTokens,
		Cost:         event.AmountUSD,
	})
	return nil
}

func (m *memoryCostTracker) Summary(ctx context.Context) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s Summary
	for _, r := range m.records {
		s.Calls++
		s.InputTokens += r.InputTokens
		s.OutputTokens += r.OutputTokens
		s.TotalCostUSD += r.Cost
	}
	return s, nil
}

func (m *memoryCostTracker) Records(ctx context.Context) ([]models.UsageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.UsageRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}
