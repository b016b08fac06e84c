package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryPolicy bounds the stage-local retry loop applied to transient
// external-call failures. Delays double from Base up to Cap.
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
	Cap      time.Duration
	// Sleep overrides how delays are performed; tests inject a
	// recorder. Nil means a context-aware timer.
	Sleep func(time.Duration)
}

// Do runs op up to Attempts times, retrying only when retryable reports the
// error as transient. The final error is returned once attempts are
// exhausted or a fatal error appears.
func (p RetryPolicy) Do(ctx context.Context, op func() error, retryable func(error) bool) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if err := p.sleep(ctx, p.delay(attempt)); err != nil {
			return err
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// delay returns the backoff before the attempt following the given
// 1-based attempt number: base, base*2, base*4, ... capped at Cap.
func (p RetryPolicy) delay(attempt int) time.Duration {
	base := p.Base
	if base <= 0 {
		return 0
	}
	maxDelay := p.Cap
	delay := base
	for i := 1; i < attempt; i++ {
		if maxDelay > 0 && delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func (p RetryPolicy) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if p.Sleep != nil {
		p.Sleep(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
