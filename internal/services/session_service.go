package services

import (
	"fmt"
	"strings"

	"polyclassify/internal/models"
	"polyclassify/internal/store"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// SessionService edits the configuration store and reports why an edit was ignored.
// The store itself stays total; this layer turns its silent no-ops into errors for the API and CLI.
type SessionService struct {
	store    store.SessionStore
	detector LanguageDetector
}

func NewSessionService(s store.SessionStore, detector LanguageDetector) *SessionService {
	return &SessionService{store: s, detector: detector}
}

func (s *SessionService) Labels() []string { return s.store.Labels() }

func (s *SessionService) Examples() []models.Example { return s.store.Examples() }

// AddLabel adds a trimmed label.
func (s *SessionService) AddLabel(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: label name is empty", models.ErrValidation)
	}
	if !s.store.AddLabel(name) {
		return "", fmt.Errorf("label %q: %w", name, store.ErrDuplicate)
	}
	log.Debugf("Added label %q", name)
	return name, nil
}

// RemoveLabel removes a label and every example that uses it.
func (s *SessionService) RemoveLabel(name string) error {
	before := len(s.store.Examples())
	if !s.store.RemoveLabel(name) {
		return fmt.Errorf("label %q: %w", name, store.ErrNotFound)
	}
	if removed := before - len(s.store.Examples()); removed > 0 {
		log.Infof("Removed label %q and %d example(s) that referenced it", name, removed)
	}
	return nil
}

// AddExample adds a few-shot example. An empty language is filled in by the detector.
func (s *SessionService) AddExample(text, label, language string) (models.Example, error) {
	if strings.TrimSpace(text) == "" {
		return models.Example{}, fmt.Errorf("%w: example text is empty", models.ErrValidation)
	}
	if label == "" {
		return models.Example{}, fmt.Errorf("%w: example label is empty", models.ErrValidation)
	}
	if !s.store.HasLabel(label) {
		return models.Example{}, fmt.Errorf("%w: label %q is not defined", models.ErrValidation, label)
	}

	language = strings.TrimSpace(language)
	if language == "" && s.detector != nil {
		language = s.detector.Detect(text)
	}

	ex, ok := s.store.AddExample(text, label, language)
	if !ok {
		// The label was removed between the check and the insert.
		return models.Example{}, fmt.Errorf("%w: label %q is not defined", models.ErrValidation, label)
	}
	return ex, nil
}

// Seed loads the configured labels and examples. Entries the store would ignore are
// skipped with a warning, and examples without a language are detected first.
func (s *SessionService) Seed(labels []string, examples []models.Example) {
	seeded := make([]models.Example, 0, len(examples))
	for _, ex := range examples {
		ex.Language = strings.TrimSpace(ex.Language)
		if ex.Language == "" && s.detector != nil && strings.TrimSpace(ex.Text) != "" {
			ex.Language = s.detector.Detect(ex.Text)
		}
		seeded = append(seeded, ex)
	}

	beforeLabels, beforeExamples := len(s.store.Labels()), len(s.store.Examples())
	s.store.Seed(labels, seeded)
	addedLabels := len(s.store.Labels()) - beforeLabels
	addedExamples := len(s.store.Examples()) - beforeExamples

	if skipped := len(labels) - addedLabels; skipped > 0 {
		log.Warnf("Skipped %d empty or duplicate seed label(s)", skipped)
	}
	if skipped := len(examples) - addedExamples; skipped > 0 {
		log.Warnf("Skipped %d seed example(s) with empty text or an undefined label", skipped)
	}
}

func (s *SessionService) RemoveExample(id uuid.UUID) error {
	if !s.store.RemoveExample(id) {
		return fmt.Errorf("example %s: %w", id, store.ErrNotFound)
	}
	return nil
}
