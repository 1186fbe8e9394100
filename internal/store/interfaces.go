package store

import (
	"polyclassify/internal/models"

	"github.com/google/uuid"
)

// --- Provider Status (Defined here to avoid an import cycle between services and classifier) ---

type ProviderStatus int

const (
	ProviderStatusUnknown  ProviderStatus = iota // Default zero value
	ProviderStatusActive                         // Provider has a credential and a client
	ProviderStatusInactive                       // Provider has a credential but no client yet (lazy init)
	ProviderStatusDisabled                       // Provider is not configured (no credential)
)

func (s ProviderStatus) String() string {
	switch s {
	case ProviderStatusActive:
		return "active"
	case ProviderStatusInactive:
		return "inactive"
	case ProviderStatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// --- Label Store ---

// LabelStore holds the ordered, duplicate-free label set.
// All operations are total: invalid input is a silent no-op.
type LabelStore interface {
	AddLabel(name string) bool
	RemoveLabel(name string) bool
	HasLabel(name string) bool
	Labels() []string
}

// --- Example Store ---

type ExampleStore interface {
	AddExample(text, label, language string) (models.Example, bool)
	RemoveExample(id uuid.UUID) bool
	Examples() []models.Example
}

// SessionStore is the configuration store for one session.
type SessionStore interface {
	LabelStore
	ExampleStore
	Seed(labels []string, examples []models.Example)
}
