package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

type Action int

const (
	Stop  Action = iota // permanent error, abort immediately
	Retry               // transient error, back off and try again
)

// Policy bounds a retry loop. With Jitter set each wait is drawn uniformly
// from [backoff/2, backoff].
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Jitter         bool
	OnRetry        func(attempt int, err error, backoff time.Duration)
}

type Classify func(err error) Action
type Operation[T any] func(attempt int) (T, error)

// Always retries every error until attempts run out.
func Always(error) Action { return Retry }

// Do runs op until it succeeds, classify says Stop, attempts are exhausted or
// ctx is done. The last error is wrapped so errors.Is keeps working.
func Do[T any](ctx context.Context, p Policy, classify Classify, op Operation[T]) (T, error) {
	var zero T
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	backoff := p.InitialBackoff

	for attempt := 1; ; attempt++ {
		val, err := op(attempt)
		if err == nil {
			return val, nil
		}

		if classify(err) == Stop {
			return zero, err
		}

		if attempt >= p.MaxAttempts {
			return zero, fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, err)
		}

		wait := backoff
		if p.Jitter {
			wait = jitter(backoff)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}

		if wait <= 0 {
			if ctx.Err() != nil {
				return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
			}
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			backoff *= 2
			if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
				backoff = p.MaxBackoff
			}
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}
}

func jitter(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	half := d / 2
	return half + rand.N(d-half+1)
}
