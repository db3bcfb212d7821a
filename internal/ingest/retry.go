package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sairaghavaa/sol-analytics/internal/errs"
)

// RetryConfig holds retry parameters for chunk inserts.
type RetryConfig struct {
	MaxAttempts int           // attempts before giving up
	BaseDelay   time.Duration // backoff is BaseDelay * attempt number
	Name        string        // for logging
}

// DefaultRetryConfig matches the pipeline reference behavior: three attempts
// with 1s, 2s backoff between them.
func DefaultRetryConfig(name string) RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Name:        name,
	}
}

// Retryer re-runs a function on transient failures with growing backoff.
// Non-transient errors return immediately.
type Retryer struct {
	config RetryConfig
	logger *logrus.Logger
}

func NewRetryer(config RetryConfig, logger *logrus.Logger) *Retryer {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Second
	}
	if config.Name == "" {
		config.Name = "retryer"
	}
	return &Retryer{config: config, logger: logger}
}

// Execute runs fn until it succeeds, fails non-transiently, exhausts attempts,
// or ctx is done.
func (r *Retryer) Execute(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			if attempt > 1 {
				r.logger.Infof("[%s] succeeded on attempt %d", r.config.Name, attempt)
			}
			return nil
		}
		lastErr = err

		if !errs.IsTransient(err) {
			r.logger.Errorf("[%s] non-transient error: %v", r.config.Name, err)
			return err
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		delay := r.config.BaseDelay * time.Duration(attempt)
		r.logger.Warnf("[%s] attempt %d failed: %v, retrying in %v", r.config.Name, attempt, err, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", r.config.MaxAttempts, lastErr)
}
