package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/fwojciec/crestwatch"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ crestwatch.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore implements crestwatch.SnapshotStore using SQLite.
// Save replaces the whole snapshot in one transaction.
type SnapshotStore struct {
	db     *DB
	logger *slog.Logger
}

// NewSnapshotStore creates a new SnapshotStore.
// A nil logger uses slog.Default().
func NewSnapshotStore(db *DB, logger *slog.Logger) *SnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotStore{db: db, logger: logger}
}

// SnapshotInfo describes the stored snapshot.
type SnapshotInfo struct {
	ID          string
	Fingerprint string
	Count       int
	SavedAt     time.Time
}

// Info returns metadata about the stored snapshot.
// Returns ENOTFOUND if no snapshot has been saved.
func (s *SnapshotStore) Info(ctx context.Context) (*SnapshotInfo, error) {
	var info SnapshotInfo
	var savedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT save_id, fingerprint, record_count, saved_at FROM snapshot WHERE id = 1
	`).Scan(&info.ID, &info.Fingerprint, &info.Count, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, crestwatch.Errorf(crestwatch.ENOTFOUND, "snapshot not found")
	} else if err != nil {
		return nil, crestwatch.Errorf(crestwatch.EPERSIST, "read snapshot metadata: %v", err)
	}

	info.SavedAt, err = time.Parse(time.RFC3339, savedAt)
	if err != nil {
		return nil, crestwatch.Errorf(crestwatch.EPERSIST, "failed to parse saved_at: %v", err)
	}
	return &info, nil
}

// Load returns the stored snapshot. A snapshot whose records no longer match
// the stored fingerprint is reported as absent.
func (s *SnapshotStore) Load(ctx context.Context) (crestwatch.UpdateSet, bool, error) {
	info, err := s.Info(ctx)
	if crestwatch.ErrorCode(err) == crestwatch.ENOTFOUND {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, name, link, type FROM snapshot_records ORDER BY position
	`)
	if err != nil {
		return nil, false, crestwatch.Errorf(crestwatch.EPERSIST, "read snapshot: %v", err)
	}
	defer rows.Close()

	set := crestwatch.UpdateSet{}
	for rows.Next() {
		var r crestwatch.Record
		var kind string
		if err := rows.Scan(&r.Date, &r.Name, &r.Link, &kind); err != nil {
			return nil, false, crestwatch.Errorf(crestwatch.EPERSIST, "read snapshot: %v", err)
		}
		r.Kind = crestwatch.Kind(kind)
		set = append(set, r)
	}
	if err := rows.Err(); err != nil {
		return nil, false, crestwatch.Errorf(crestwatch.EPERSIST, "read snapshot: %v", err)
	}

	if fp := set.Fingerprint(); fp != info.Fingerprint || len(set) != info.Count {
		s.logger.Warn("ignoring inconsistent snapshot",
			"save_id", info.ID,
			"fingerprint", info.Fingerprint,
			"actual", fp,
		)
		return nil, false, nil
	}

	return set, true, nil
}

// Save replaces the stored snapshot with set.
func (s *SnapshotStore) Save(ctx context.Context, set crestwatch.UpdateSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return crestwatch.Errorf(crestwatch.EPERSIST, "begin snapshot save: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_records`); err != nil {
		return crestwatch.Errorf(crestwatch.EPERSIST, "clear snapshot: %v", err)
	}

	for i, r := range set {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO snapshot_records (position, date, name, link, type)
			VALUES (?, ?, ?, ?, ?)
		`, i, r.Date, r.Name, r.Link, string(r.Kind)); err != nil {
			return crestwatch.Errorf(crestwatch.EPERSIST, "write snapshot record: %v", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot (id, fingerprint, record_count, save_id, saved_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			record_count = excluded.record_count,
			save_id = excluded.save_id,
			saved_at = excluded.saved_at
	`, set.Fingerprint(), len(set), uuid.New().String(), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return crestwatch.Errorf(crestwatch.EPERSIST, "write snapshot metadata: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return crestwatch.Errorf(crestwatch.EPERSIST, "commit snapshot: %v", err)
	}
	return nil
}
