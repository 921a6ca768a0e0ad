package mock

import (
	"context"

	"github.com/fwojciec/crestwatch"
)

var _ crestwatch.Dispatcher = (*Dispatcher)(nil)

// Dispatcher is a mock implementation of crestwatch.Dispatcher.
type Dispatcher struct {
	DispatchFn func(ctx context.Context, ch crestwatch.Channel, payload crestwatch.Payload) (*crestwatch.Delivery, error)
}

func (d *Dispatcher) Dispatch(ctx context.Context, ch crestwatch.Channel, payload crestwatch.Payload) (*crestwatch.Delivery, error) {
	return d.DispatchFn(ctx, ch, payload)
}

var _ crestwatch.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is a mock implementation of crestwatch.RateLimiter.
type RateLimiter struct {
	WaitFn func(ctx context.Context, host string) error
}

func (l *RateLimiter) Wait(ctx context.Context, host string) error {
	return l.WaitFn(ctx, host)
}
