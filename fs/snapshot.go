// Package fs provides a file-based crestwatch.SnapshotStore.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fwojciec/crestwatch"
)

// DefaultSnapshotPath is the snapshot file used when none is configured.
const DefaultSnapshotPath = "previous-results.json"

// Ensure SnapshotStore implements crestwatch.SnapshotStore at compile time.
var _ crestwatch.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore keeps the last observed set as a JSON array in a single file.
// Save writes to a temporary file in the same directory, then renames it over
// the snapshot, so a crash never leaves a half-written snapshot behind.
type SnapshotStore struct {
	path   string
	logger *slog.Logger
}

// Option configures a SnapshotStore.
type Option func(*SnapshotStore)

// WithLogger sets the logger used to report corrupt snapshots.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *SnapshotStore) {
		s.logger = l
	}
}

// NewSnapshotStore creates a SnapshotStore backed by the file at path.
func NewSnapshotStore(path string, opts ...Option) *SnapshotStore {
	s := &SnapshotStore{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the snapshot file path.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Load reads the snapshot file. A missing file, or one that does not hold a
// JSON array of records, is reported as no snapshot.
func (s *SnapshotStore) Load(ctx context.Context) (crestwatch.UpdateSet, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, crestwatch.Errorf(crestwatch.EPERSIST, "read snapshot: %v", err)
	}

	var set crestwatch.UpdateSet
	if err := json.Unmarshal(data, &set); err != nil {
		s.logger.Warn("ignoring unreadable snapshot", "path", s.path, "err", err)
		return nil, false, nil
	}
	if set == nil {
		set = crestwatch.UpdateSet{}
	}

	return set, true, nil
}

// Save atomically replaces the snapshot file with set.
func (s *SnapshotStore) Save(ctx context.Context, set crestwatch.UpdateSet) error {
	if set == nil {
		set = crestwatch.UpdateSet{}
	}
	data, err := json.Marshal(set)
	if err != nil {
		return crestwatch.Errorf(crestwatch.EPERSIST, "encode snapshot: %v", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return crestwatch.Errorf(crestwatch.EPERSIST, "create snapshot directory: %v", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return crestwatch.Errorf(crestwatch.EPERSIST, "create temp snapshot: %v", err)
	}
	tmpPath := tmp.Name()

	if err := writeAndClose(tmp, data); err != nil {
		_ = os.Remove(tmpPath)
		return crestwatch.Errorf(crestwatch.EPERSIST, "write snapshot: %v", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return crestwatch.Errorf(crestwatch.EPERSIST, "replace snapshot: %v", err)
	}

	return nil
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
