package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageRecord represents a record of AI API usage for cost tracking.
type UsageRecord struct {
	ID           uuid.UUID `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	ProviderName string    `json:"provider_name"`
	ServiceType  string    `json:"service_type"` // e.g., "classification"
	ModelName    string    `json:"model_name"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Cost         float64   `json:"cost"`
}

// Example is a labeled few-shot pair used to steer the classifier.
type Example struct {
	ID       uuid.UUID `json:"id"`
	Text     string    `json:"text"`
	Label    string    `json:"label"`
	Language string    `json:"language,omitempty"` // Optional metadata, detected locally when not supplied
}

// ClassificationResult is the all-or-nothing answer of one classification attempt.
type ClassificationResult struct {
	Label            string  `json:"label"`
	Confidence       float64 `json:"confidence"`
	Reasoning        string  `json:"reasoning"`
	DetectedLanguage string  `json:"detectedLanguage"`
}

// ClassificationState is the tagged state of the latest attempt.
// Result is only set when Status is StatusSuccess, Error only when Status is StatusError.
type ClassificationState struct {
	Status ClassificationStatus  `json:"status"`
	Result *ClassificationResult `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
}
