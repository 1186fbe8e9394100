package classifier

import (
	"context"

	"polyclassify/internal/models"
	"polyclassify/internal/store"
)

// Request holds the input text plus the session configuration it is classified against.
type Request struct {
	Text     string
	Labels   []string
	Examples []models.Example
}

// Classifier performs one classification attempt against an external model.
// Implementations return errors tagged with models.ErrConfiguration,
// models.ErrTransport or models.ErrContract.
type Classifier interface {
	Classify(ctx context.Context, req Request) (models.ClassificationResult, error)
}

// Provider is a Classifier backed by a named hosted model.
type Provider interface {
	Classifier
	Name() string      // Provider name (e.g., "gemini", "openai")
	ModelName() string // Specific model used
	Status() store.ProviderStatus
	Close() error
}
