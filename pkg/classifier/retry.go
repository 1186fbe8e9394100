package classifier

import (
	"context"
	"errors"
	"time"

	"polyclassify/internal/models"

	log "github.com/sirupsen/logrus"
)

type RetryStrategy interface {
	NextBackoff(attempt int) int64 // ms, negative means stop
}

// SimpleRetryStrategy provides basic exponential backoff.
type SimpleRetryStrategy struct {
	MaxRetries  int // retries after the first call; 0 disables
	BaseDelayMs int64
}

// NextBackoff calculates the next backoff duration in milliseconds.
func (s *SimpleRetryStrategy) NextBackoff(attempt int) int64 {
	if s.MaxRetries <= 0 {
		return -1
	}
	if attempt >= s.MaxRetries {
		return -1 // Stop retrying
	}
	// BaseDelay * 2^attempt, capped at 30 seconds
	backoff := s.BaseDelayMs * (1 << attempt)
	maxDelay := int64(30000)
	if backoff > maxDelay {
		backoff = maxDelay
	}
	return backoff
}

// RetryingClassifier retries transport failures of the wrapped classifier.
// Configuration and contract errors are returned immediately.
type RetryingClassifier struct {
	next     Classifier
	strategy RetryStrategy
	sleep    func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps c. A nil strategy returns c unchanged.
func WithRetry(c Classifier, strategy RetryStrategy) Classifier {
	if strategy == nil {
		return c
	}
	return &RetryingClassifier{next: c, strategy: strategy, sleep: sleepContext}
}

func (r *RetryingClassifier) Classify(ctx context.Context, req Request) (models.ClassificationResult, error) {
	for attempt := 0; ; attempt++ {
		res, err := r.next.Classify(ctx, req)
		if err == nil || !errors.Is(err, models.ErrTransport) {
			return res, err
		}

		backoff := r.strategy.NextBackoff(attempt)
		if backoff < 0 {
			return res, err
		}
		log.Warnf("Classification attempt %d failed: %v. Retrying in %dms", attempt+1, err, backoff)
		if sleepErr := r.sleep(ctx, time.Duration(backoff)*time.Millisecond); sleepErr != nil {
			return res, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
