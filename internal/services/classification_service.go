package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"polyclassify/internal/models"
	"polyclassify/internal/store"
	"polyclassify/pkg/classifier"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrBusy rejects a submission while another attempt is in flight.
	ErrBusy = errors.New("a classification is already in progress")
	// ErrEmptyInput rejects blank input text. The state is left untouched.
	ErrEmptyInput = errors.New("input text is empty")
)

const (
	noLabelsMessage = "System Error: No classification labels defined."
	fallbackMessage = "Computation failed."
)

// ClassificationOptions tunes how attempts are run.
type ClassificationOptions struct {
	Timeout      time.Duration // 0 means no timeout beyond the caller's context
	StrictLabels bool          // Treat a label outside the label set as a contract violation
}

// ClassificationService owns the classification state of one session.
// States move idle -> loading -> success|error, and success|error -> loading on the next attempt.
type ClassificationService struct {
	classifier classifier.Classifier
	labels     store.LabelStore
	examples   store.ExampleStore
	opts       ClassificationOptions

	mu    sync.Mutex
	state models.ClassificationState
}

func NewClassificationService(c classifier.Classifier, s store.SessionStore, opts ClassificationOptions) *ClassificationService {
	return &ClassificationService{
		classifier: c,
		labels:     s,
		examples:   s,
		opts:       opts,
		state:      models.ClassificationState{Status: models.StatusIdle},
	}
}

// State returns a snapshot of the current state.
func (s *ClassificationService) State() models.ClassificationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.state)
}

// Submit runs one classification attempt for text and returns the resulting state.
//
// Blank text returns ErrEmptyInput and a submission while loading returns ErrBusy;
// neither changes the state. Any other failure moves the state to error and is
// also returned, tagged with models.ErrConfiguration, ErrTransport or ErrContract.
func (s *ClassificationService) Submit(ctx context.Context, text string) (models.ClassificationState, error) {
	if strings.TrimSpace(text) == "" {
		return s.State(), ErrEmptyInput
	}

	s.mu.Lock()
	if s.state.Status == models.StatusLoading {
		st := snapshot(s.state)
		s.mu.Unlock()
		return st, ErrBusy
	}

	labels := s.labels.Labels()
	if len(labels) == 0 {
		err := models.NewConfigurationError(noLabelsMessage)
		s.state = models.ClassificationState{Status: models.StatusError, Error: err.Error()}
		st := snapshot(s.state)
		s.mu.Unlock()
		log.Warn("Classification rejected: no labels defined")
		return st, err
	}
	examples := s.examples.Examples()
	s.state = models.ClassificationState{Status: models.StatusLoading}
	s.mu.Unlock()

	res, err := s.run(ctx, classifier.Request{Text: text, Labels: labels, Examples: examples})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = fallbackMessage
		}
		s.state = models.ClassificationState{Status: models.StatusError, Error: msg}
		log.Warnf("Classification failed: %v", err)
		return snapshot(s.state), err
	}
	s.state = models.ClassificationState{Status: models.StatusSuccess, Result: &res}
	log.Infof("Classified input as %q (confidence %.2f, language %s)", res.Label, res.Confidence, res.DetectedLanguage)
	return snapshot(s.state), nil
}

func (s *ClassificationService) run(ctx context.Context, req classifier.Request) (res models.ClassificationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Classifier panicked: %v", r)
			res, err = models.ClassificationResult{}, fmt.Errorf("classifier failed unexpectedly: %v", r)
		}
	}()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	res, err = s.classifier.Classify(ctx, req)
	if err != nil {
		return models.ClassificationResult{}, err
	}

	if !containsLabel(req.Labels, res.Label) {
		if s.opts.StrictLabels {
			return models.ClassificationResult{}, models.NewContractError(
				fmt.Sprintf("label %q is not one of the allowed labels", res.Label), nil)
		}
		log.Warnf("Model returned label %q which is not one of %v; passing it through", res.Label, req.Labels)
	}
	return res, nil
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// snapshot copies the result so callers cannot mutate the stored state.
func snapshot(st models.ClassificationState) models.ClassificationState {
	if st.Result != nil {
		res := *st.Result
		st.Result = &res
	}
	return st
}
