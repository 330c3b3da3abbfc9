package application

import (
	"context"

	"github.com/farepanel/farepanel/internal/domain/port/driven"
)

// WithRetry executes op and retries it exactly once when op fails with a
// transport-level cancellation that the ambient context did not request.
//
// The session layer occasionally cancels sockets for reasons unrelated to
// the caller; that surfaces as the same cancellation error a real
// user-driven cancel does. The ambient context disambiguates: if ctx is
// itself cancelled the caller meant it and their intent propagates
// untouched; otherwise the failure is a known transient condition and op
// runs once more. A second cancellation failure propagates as a normal
// transport error.
func WithRetry[T any](ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	value, err := op(ctx)
	if err == nil || !driven.IsTransportCancelled(err) {
		return value, err
	}

	if ctx.Err() != nil {
		var zero T
		return zero, ctx.Err()
	}

	return op(ctx)
}
