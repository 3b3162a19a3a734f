// Package retry is the single retry-with-backoff utility shared by the
// delivery pipeline and navigation. Call sites pick the retryable predicate;
// the loop, backoff math and logging live here.
package retry

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"
)

// Policy bounds a retry loop.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the sleep before attempt 2; attempt n waits
	// BaseDelay * 2^(n-2), capped at MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Always marks every error retryable.
func Always(error) bool { return true }

// Do runs fn until it succeeds, the policy is exhausted, retryable rejects
// the error, or ctx is done. The last error is returned wrapped with the
// attempt count.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := fn(); err == nil {
			if attempt > 1 {
				log.Printf("[retry] attempt #%d succeeded", attempt)
			}
			return nil
		} else {
			lastErr = err
			if !retryable(err) {
				return err
			}
		}

		if attempt < p.MaxAttempts {
			backoff := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt-1)))
			if p.MaxDelay > 0 && backoff > p.MaxDelay {
				backoff = p.MaxDelay
			}
			log.Printf("[retry] attempt #%d failed: %v; waiting %v before retry", attempt, lastErr, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, lastErr)
}
