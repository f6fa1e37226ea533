package detect

import (
	"context"
	"errors"
	"time"
)

// ErrColdStart is returned by WithRetry when the provider still reports a
// loading model after the retry budget is spent. Callers map it to an
// UNCERTAIN result.
var ErrColdStart = errors.New("provider model still loading")

// WithRetry runs call once and repeats it up to retries more times while
// retryable reports the response as a cold start, sleeping backoff between
// attempts. A call error stops the loop immediately; timeouts are the
// caller's business.
func WithRetry(ctx context.Context, retries int, backoff time.Duration, call func(context.Context) ([]byte, error), retryable func([]byte) bool) ([]byte, error) {
	var body []byte
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		body, err = call(ctx)
		if err != nil {
			return nil, err
		}
		if !retryable(body) {
			return body, nil
		}
		if attempt == retries {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return body, ErrColdStart
}
