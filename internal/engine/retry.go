package engine

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/internal/logger"
)

// RetryOptions bound the retry policy for transient engine failures.
type RetryOptions struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

type retryEngine struct {
	Engine
	opts   RetryOptions
	logger logger.Logger
}

// WithRetry retries rate limiting and unavailability with exponential
// backoff. Every other error is returned at once.
func WithRetry(e Engine, opts RetryOptions, log logger.Logger) Engine {
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 2 * time.Second
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = time.Minute
	}
	return &retryEngine{Engine: e, opts: opts, logger: log}
}

func (r *retryEngine) Transcribe(ctx context.Context, req Request) (*Result, error) {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(r.opts.InitialInterval),
		backoff.WithMaxInterval(r.opts.MaxInterval),
		backoff.WithMaxElapsedTime(0),
	)

	attempts := 0
	var res *Result
	op := func() error {
		attempts++
		var err error
		res, err = r.Engine.Transcribe(ctx, req)
		if err != nil && !errs.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		r.logger.Warn(ctx, "%s attempt %d failed, retrying in %s: %v", r.Name(), attempts, wait.Round(time.Millisecond), err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.opts.MaxRetries)), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		if errs.Retryable(err) {
			return nil, &errs.RetryExhaustedError{Attempts: attempts, Err: err}
		}
		return nil, err
	}
	return res, nil
}
