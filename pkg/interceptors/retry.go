package interceptors

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/transferia/grpcmw/pkg/client"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Retry is a client interceptor that re-invokes the continuation with the
// same call details and request. The adapter layer imposes no policy of its
// own: attempt count, retryable codes and delays all live here, configured
// by the user. Streaming shapes pass through untouched (a half-consumed
// stream cannot be replayed).
type Retry struct {
	maxRetries int
	retryable  map[codes.Code]bool
	newBackOff func() backoff.BackOff
}

var _ client.Interceptor = (*Retry)(nil)

type RetryOption func(*Retry)

// WithRetryableCodes restricts retries to the given status codes. Without
// it, every error is retried.
func WithRetryableCodes(retryableCodes ...codes.Code) RetryOption {
	return func(r *Retry) {
		r.retryable = make(map[codes.Code]bool, len(retryableCodes))
		for _, code := range retryableCodes {
			r.retryable[code] = true
		}
	}
}

// WithBackOff sets the delay policy; the factory is called once per RPC so
// concurrent calls do not share backoff state.
func WithBackOff(newBackOff func() backoff.BackOff) RetryOption {
	return func(r *Retry) {
		r.newBackOff = newBackOff
	}
}

// NewRetry builds a retry interceptor allowing maxRetries re-invocations on
// top of the initial attempt.
func NewRetry(maxRetries int, opts ...RetryOption) *Retry {
	r := &Retry{
		maxRetries: maxRetries,
		newBackOff: func() backoff.BackOff { return &backoff.ZeroBackOff{} },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retry) Intercept(ctx context.Context, call *client.Call, req client.Request, next client.Continuation) (client.Response, error) {
	if call.RequestStreaming || call.ResponseStreaming {
		return next(ctx, call.Details, req)
	}
	delays := r.newBackOff()
	for attempt := 0; ; attempt++ {
		resp, err := next(ctx, call.Details, req)
		if err == nil {
			return resp, nil
		}
		if attempt >= r.maxRetries || !r.shouldRetry(err) {
			return client.Response{}, err
		}
		delay := delays.NextBackOff()
		if delay == backoff.Stop {
			return client.Response{}, err
		}
		if waitErr := sleepContext(ctx, delay); waitErr != nil {
			return client.Response{}, err
		}
	}
}

func (r *Retry) shouldRetry(err error) bool {
	if r.retryable == nil {
		return true
	}
	return r.retryable[status.Code(err)]
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
