package httpclient

import (
	"context"

	"github.com/beacon-labs/beacon-go/telemetry"
)

type contextKey int

const (
	callOptionsKey contextKey = iota
	invocationKey
)

// WithCallOptions attaches a per-call telemetry override to a request
// context. The override accepts the same shapes as telemetry.Normalize and
// may change any subset of the attach-time settings for the one request
// issued with this context.
//
//	ctx = httpclient.WithCallOptions(ctx, false) // silence this call
//	resp, err := client.Get(ctx, url)
//
// An invalid value does not fail the request; it is logged as a warning and
// the call runs with all events suppressed.
func WithCallOptions(ctx context.Context, opts any) context.Context {
	return context.WithValue(ctx, callOptionsKey, opts)
}

// callOptionsFrom extracts a per-call override, if any.
func callOptionsFrom(ctx context.Context) (any, bool) {
	v := ctx.Value(callOptionsKey)
	return v, v != nil
}

// withInvocation stores the request's invocation state in its context.
// The invocation is the private storage slot shared by the pipeline and
// adapter hooks of one request; it is never shared across requests.
func withInvocation(ctx context.Context, inv *telemetry.Invocation) context.Context {
	return context.WithValue(ctx, invocationKey, inv)
}

// invocationFrom extracts the request's invocation state, if any.
func invocationFrom(ctx context.Context) (*telemetry.Invocation, bool) {
	inv, ok := ctx.Value(invocationKey).(*telemetry.Invocation)
	return inv, ok
}
