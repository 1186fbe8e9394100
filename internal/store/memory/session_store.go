package memory

import (
	"strings"
	"sync"

	"polyclassify/internal/models"
	"polyclassify/internal/store"

	"github.com/google/uuid"
)

// SessionStore keeps labels and few-shot examples in memory for the lifetime of the process.
// Nothing is persisted; a restart starts from the configured seed again.
type SessionStore struct {
	mu       sync.RWMutex
	labels   []string
	examples []models.Example
	newID    func() uuid.UUID
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{newID: uuid.New}
}

// Seed adds the given labels and examples in order, skipping anything AddLabel/AddExample would skip.
func (s *SessionStore) Seed(labels []string, examples []models.Example) {
	for _, l := range labels {
		s.AddLabel(l)
	}
	for _, ex := range examples {
		s.AddExample(ex.Text, ex.Label, ex.Language)
	}
}

// AddLabel appends a trimmed label. Empty or already present names are ignored.
func (s *SessionStore) AddLabel(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOfLabel(name) >= 0 {
		return false
	}
	s.labels = append(s.labels, name)
	return true
}

// RemoveLabel removes the label and cascades to every example that references it.
func (s *SessionStore) RemoveLabel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLabel(name)
	if idx < 0 {
		return false
	}
	s.labels = append(s.labels[:idx:idx], s.labels[idx+1:]...)

	kept := s.examples[:0:0]
	for _, ex := range s.examples {
		if ex.Label != name {
			kept = append(kept, ex)
		}
	}
	s.examples = kept
	return true
}

func (s *SessionStore) HasLabel(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOfLabel(name) >= 0
}

// Labels returns a copy in insertion order.
func (s *SessionStore) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// AddExample appends an example with a fresh identifier.
// Text must be non-empty after trimming and label must name a current label.
func (s *SessionStore) AddExample(text, label, language string) (models.Example, bool) {
	text = strings.TrimSpace(text)
	if text == "" || label == "" {
		return models.Example{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOfLabel(label) < 0 {
		return models.Example{}, false
	}

	ex := models.Example{
		ID:       s.newID(),
		Text:     text,
		Label:    label,
		Language: language,
	}
	s.examples = append(s.examples, ex)
	return ex, true
}

// RemoveExample removes the example with the given id. Unknown ids are a no-op.
func (s *SessionStore) RemoveExample(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, ex := range s.examples {
		if ex.ID == id {
			s.examples = append(s.examples[:i:i], s.examples[i+1:]...)
			return true
		}
	}
	return false
}

// Examples returns a copy in insertion order.
func (s *SessionStore) Examples() []models.Example {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Example, len(s.examples))
	copy(out, s.examples)
	return out
}

// indexOfLabel must be called with mu held.
func (s *SessionStore) indexOfLabel(name string) int {
	for i, l := range s.labels {
		if l == name {
			return i
		}
	}
	return -1
}

// Ensure SessionStore implements the interface at compile time.
var _ store.SessionStore = (*SessionStore)(nil)
