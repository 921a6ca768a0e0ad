package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/crestwatch"
)

// Ensure LoggingSnapshotStore implements crestwatch.SnapshotStore.
var _ crestwatch.SnapshotStore = (*LoggingSnapshotStore)(nil)

// LoggingSnapshotStore wraps a SnapshotStore with debug logging.
type LoggingSnapshotStore struct {
	next   crestwatch.SnapshotStore
	logger *slog.Logger
}

// NewLoggingSnapshotStore creates a new LoggingSnapshotStore.
func NewLoggingSnapshotStore(next crestwatch.SnapshotStore, logger *slog.Logger) *LoggingSnapshotStore {
	return &LoggingSnapshotStore{next: next, logger: logger}
}

// Load delegates to the wrapped store and logs the outcome.
func (s *LoggingSnapshotStore) Load(ctx context.Context) (set crestwatch.UpdateSet, ok bool, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("snapshot load",
			"found", ok,
			"count", len(set),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Load(ctx)
}

// Save delegates to the wrapped store and logs the outcome.
func (s *LoggingSnapshotStore) Save(ctx context.Context, set crestwatch.UpdateSet) (err error) {
	defer func(begin time.Time) {
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "snapshot save",
			"count", len(set),
			"fingerprint", set.Fingerprint(),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Save(ctx, set)
}
