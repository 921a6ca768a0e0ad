package crestwatch

import "context"

// Delivery is the outcome of posting a payload to a channel.
type Delivery struct {
	Channel Channel
	Status  int
	Body    string
}

// Dispatcher delivers a payload to a channel's webhook.
// Dispatch makes a single attempt; it never retries.
type Dispatcher interface {
	// Dispatch returns an EDELIVERY error when the endpoint could not be
	// reached or did not accept the payload. The Delivery is returned
	// whenever a response was received, even on error.
	Dispatch(ctx context.Context, ch Channel, payload Payload) (*Delivery, error)
}

// RateLimiter paces requests per host.
type RateLimiter interface {
	// Wait blocks until a request to host is allowed or ctx is done.
	Wait(ctx context.Context, host string) error
}
