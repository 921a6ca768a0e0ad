package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/crestwatch"
)

// Ensure LoggingDispatcher implements crestwatch.Dispatcher.
var _ crestwatch.Dispatcher = (*LoggingDispatcher)(nil)

// LoggingDispatcher wraps a Dispatcher with logging. The channel is logged
// through its LogValue, so the webhook endpoint never appears in output.
type LoggingDispatcher struct {
	next   crestwatch.Dispatcher
	logger *slog.Logger
}

// NewLoggingDispatcher creates a new LoggingDispatcher.
func NewLoggingDispatcher(next crestwatch.Dispatcher, logger *slog.Logger) *LoggingDispatcher {
	return &LoggingDispatcher{next: next, logger: logger}
}

// Dispatch delegates to the wrapped dispatcher and logs the outcome.
func (d *LoggingDispatcher) Dispatch(ctx context.Context, ch crestwatch.Channel, payload crestwatch.Payload) (delivery *crestwatch.Delivery, err error) {
	defer func(begin time.Time) {
		status := 0
		if delivery != nil {
			status = delivery.Status
		}
		d.logger.Info("dispatch",
			"channel", ch,
			"status", status,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return d.next.Dispatch(ctx, ch, payload)
}
