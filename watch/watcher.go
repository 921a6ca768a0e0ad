// Package watch runs one observation of the update listing: fetch, extract,
// compare against the snapshot and, when the listing changed, notify every
// configured channel.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/crestwatch"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of channels dispatched at once when
// Concurrency is not set.
const DefaultConcurrency = 2

// Watcher orchestrates a single run.
// Runs against the same Store must not overlap.
type Watcher struct {
	SourceURL  string
	Fetcher    crestwatch.Fetcher
	Extractor  crestwatch.Extractor
	Store      crestwatch.SnapshotStore
	Formatters *crestwatch.FormatterRegistry
	Dispatcher crestwatch.Dispatcher
	Channels   []crestwatch.Channel

	// Concurrency bounds simultaneous channel dispatches.
	Concurrency int

	// RetryDelays are the waits between fetch attempts. Nil uses
	// DefaultRetryDelays; an empty slice disables retries.
	RetryDelays []time.Duration

	// DryRun formats payloads without dispatching them or saving the snapshot.
	DryRun bool

	Logger *slog.Logger
}

// Result is the outcome of a run.
type Result struct {
	RunID   string
	Records crestwatch.UpdateSet
	Diff    crestwatch.DiffResult

	// PersistErr is set when the new snapshot could not be saved. The run
	// still notifies on the computed diff.
	PersistErr error

	// Deliveries holds one outcome per channel in channel order. It is empty
	// unless the listing changed.
	Deliveries []DeliveryOutcome
}

// DeliveryOutcome is what happened for one channel.
type DeliveryOutcome struct {
	Channel  crestwatch.Channel
	Payload  crestwatch.Payload
	Delivery *crestwatch.Delivery
	Err      error
}

// Failed returns the number of channels whose format or dispatch failed.
func (r *Result) Failed() int {
	var n int
	for _, d := range r.Deliveries {
		if d.Err != nil {
			n++
		}
	}
	return n
}

// AllFailed reports whether deliveries were attempted and none succeeded.
func (r *Result) AllFailed() bool {
	return len(r.Deliveries) > 0 && r.Failed() == len(r.Deliveries)
}

// Validate checks that the watcher is fully configured. It performs no I/O.
func (w *Watcher) Validate() error {
	switch {
	case w.SourceURL == "":
		return crestwatch.Errorf(crestwatch.ECONFIG, "source URL required")
	case w.Fetcher == nil:
		return crestwatch.Errorf(crestwatch.ECONFIG, "fetcher required")
	case w.Extractor == nil:
		return crestwatch.Errorf(crestwatch.ECONFIG, "extractor required")
	case w.Store == nil:
		return crestwatch.Errorf(crestwatch.ECONFIG, "snapshot store required")
	case w.Formatters == nil:
		return crestwatch.Errorf(crestwatch.ECONFIG, "formatters required")
	case w.Dispatcher == nil && !w.DryRun:
		return crestwatch.Errorf(crestwatch.ECONFIG, "dispatcher required")
	case len(w.Channels) == 0:
		return crestwatch.Errorf(crestwatch.ECONFIG, "at least one notification channel must be configured")
	}

	for _, ch := range w.Channels {
		if err := ch.Validate(); err != nil {
			return err
		}
		if w.Formatters.Get(ch.Kind) == nil {
			return crestwatch.Errorf(crestwatch.ECONFIG, "channel %s: no formatter for kind %q", ch, ch.Kind)
		}
	}
	return nil
}

// Run performs one observation. A fetch failure aborts the run before the
// snapshot is touched. Delivery failures are reported in the Result and never
// abort the run.
//
// The snapshot is saved before any channel is notified, so a failed delivery
// is not retried by the next run.
func (w *Watcher) Run(ctx context.Context) (result *Result, err error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := w.logger().With("run_id", runID)
	start := time.Now()
	logger.Info("run started", "url", w.SourceURL, "channels", len(w.Channels), "dry_run", w.DryRun)

	defer func() {
		attrs := []any{"duration", time.Since(start)}
		if result != nil {
			attrs = append(attrs,
				"records", len(result.Records),
				"changed", result.Diff.Changed,
				"first_run", result.Diff.FirstRun,
				"deliveries", len(result.Deliveries),
				"failed", result.Failed(),
			)
		}
		if err != nil {
			logger.Error("run failed", append(attrs, "error", err)...)
			return
		}
		logger.Info("run finished", attrs...)
	}()

	html, err := FetchWithRetryDelays(ctx, w.SourceURL, w.Fetcher.Fetch, logger, w.retryDelays())
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch: %w", ctx.Err())
		}
		if crestwatch.ErrorCode(err) == crestwatch.EFETCH {
			return nil, err
		}
		return nil, crestwatch.Errorf(crestwatch.EFETCH, "fetch %s: %v", w.SourceURL, err)
	}

	records := w.Extractor.Extract(html)
	logger.Debug("extracted records", "count", len(records), "fingerprint", records.Fingerprint())

	result = &Result{RunID: runID, Records: records}

	if w.DryRun {
		previous, ok, err := w.Store.Load(ctx)
		if err != nil {
			return nil, err
		}
		result.Diff = crestwatch.Diff(previous, ok, records)
	} else {
		diff, err := crestwatch.DiffAndPersist(ctx, w.Store, records)
		if err != nil {
			if !diff.NeedsSave() {
				return nil, err
			}
			logger.Error("snapshot not saved", "error", err)
			result.PersistErr = err
		}
		result.Diff = diff
	}

	if !result.Diff.Changed {
		if result.Diff.FirstRun {
			logger.Info("first run, baseline recorded", "records", len(records))
		} else {
			logger.Info("no changes")
		}
		return result, nil
	}

	logger.Info("listing changed", "previous", result.Diff.Previous, "current", result.Diff.Current)
	result.Deliveries = w.notify(ctx, logger, records)
	return result, nil
}

// notify formats and dispatches records to every channel concurrently.
// Every channel is attempted regardless of its siblings' outcomes.
func (w *Watcher) notify(ctx context.Context, logger *slog.Logger, records crestwatch.UpdateSet) []DeliveryOutcome {
	outcomes := make([]DeliveryOutcome, len(w.Channels))

	concurrency := w.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, ch := range w.Channels {
		g.Go(func() error {
			outcomes[i] = w.deliver(ctx, ch, records)
			if err := outcomes[i].Err; err != nil {
				logger.Error("delivery failed", "channel", ch, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (w *Watcher) deliver(ctx context.Context, ch crestwatch.Channel, records crestwatch.UpdateSet) DeliveryOutcome {
	outcome := DeliveryOutcome{Channel: ch}

	payload, err := w.Formatters.Format(ch.Kind, records)
	if err != nil {
		outcome.Err = fmt.Errorf("format: %w", err)
		return outcome
	}
	outcome.Payload = payload

	if w.DryRun {
		return outcome
	}

	delivery, err := w.Dispatcher.Dispatch(ctx, ch, payload)
	outcome.Delivery = delivery
	if err != nil {
		if crestwatch.ErrorCode(err) != crestwatch.EDELIVERY && !errors.Is(err, context.Canceled) {
			err = crestwatch.Errorf(crestwatch.EDELIVERY, "%s: %v", ch, err)
		}
		outcome.Err = err
	}
	return outcome
}

func (w *Watcher) retryDelays() []time.Duration {
	if w.RetryDelays == nil {
		return DefaultRetryDelays()
	}
	return w.RetryDelays
}

func (w *Watcher) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
