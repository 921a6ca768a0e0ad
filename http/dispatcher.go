package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fwojciec/crestwatch"
)

// DefaultDispatchTimeout bounds a single webhook POST.
const DefaultDispatchTimeout = 10 * time.Second

// maxErrorBody caps how much of a rejected response is quoted in the error.
const maxErrorBody = 256

// Ensure Dispatcher implements crestwatch.Dispatcher at compile time.
var _ crestwatch.Dispatcher = (*Dispatcher)(nil)

// Dispatcher posts JSON payloads to channel webhooks. It makes exactly one
// attempt per call. Dispatcher is safe for concurrent use.
type Dispatcher struct {
	client  *http.Client
	timeout time.Duration
	limiter crestwatch.RateLimiter
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatchTimeout sets the timeout for each webhook request.
// Defaults to DefaultDispatchTimeout (10s) if not specified.
func WithDispatchTimeout(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) {
		dp.timeout = d
	}
}

// WithRateLimiter paces requests per webhook host.
func WithRateLimiter(l crestwatch.RateLimiter) DispatcherOption {
	return func(dp *Dispatcher) {
		dp.limiter = l
	}
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		timeout: DefaultDispatchTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.client = &http.Client{
		Timeout: d.timeout,
	}

	return d
}

// Dispatch serializes payload and POSTs it to the channel's webhook.
// Errors never include the webhook URL, which is secret.
func (d *Dispatcher) Dispatch(ctx context.Context, ch crestwatch.Channel, payload crestwatch.Payload) (*crestwatch.Delivery, error) {
	endpoint, err := ch.URL()
	if err != nil {
		return nil, err
	}

	body, err := Encode(payload)
	if err != nil {
		return nil, crestwatch.Errorf(crestwatch.EINVALID, "encode payload for %s: %v", ch, err)
	}

	if d.limiter != nil {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, crestwatch.Errorf(crestwatch.ECONFIG, "channel %s: invalid webhook endpoint", ch)
		}
		if err := d.limiter.Wait(ctx, u.Host); err != nil {
			return nil, crestwatch.Errorf(crestwatch.EDELIVERY, "post to %s: %v", ch, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, crestwatch.Errorf(crestwatch.EDELIVERY, "post to %s: %v", ch, redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, crestwatch.Errorf(crestwatch.EDELIVERY, "post to %s: %v", ch, redact(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, crestwatch.Errorf(crestwatch.EDELIVERY, "read response from %s: %v", ch, redact(err))
	}

	delivery := &crestwatch.Delivery{
		Channel: ch,
		Status:  resp.StatusCode,
		Body:    string(respBody),
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return delivery, crestwatch.Errorf(crestwatch.EDELIVERY, "%s responded HTTP %d: %s", ch, resp.StatusCode, truncate(delivery.Body, maxErrorBody))
	}
	return delivery, nil
}

// Encode serializes a payload as JSON without escaping <, > and &, which
// Slack uses for links and entities.
func Encode(payload crestwatch.Payload) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// redact strips the request URL that net/http embeds in transport errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
