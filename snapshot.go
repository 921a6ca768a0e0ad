package crestwatch

import "context"

// SnapshotStore persists the last observed UpdateSet.
// Stores are not safe for concurrent writers; runs against the same snapshot
// must be serialized by the caller.
type SnapshotStore interface {
	// Load returns the previously saved set. ok is false when no snapshot
	// exists yet. An unreadable or corrupt snapshot is reported as absent,
	// not as an error; err is reserved for storage that cannot be reached.
	Load(ctx context.Context) (set UpdateSet, ok bool, err error)

	// Save replaces the snapshot with set.
	Save(ctx context.Context, set UpdateSet) error
}

// DiffResult is the outcome of comparing the current set to the snapshot.
type DiffResult struct {
	// Changed is true when a previous snapshot existed and differs from the
	// current set. It is never true on the first run.
	Changed bool

	// FirstRun is true when no previous snapshot existed.
	FirstRun bool

	// Previous and Current are record counts. Previous is zero on a first run.
	Previous int
	Current  int
}

// NeedsSave reports whether the current set must become the new snapshot.
func (d DiffResult) NeedsSave() bool {
	return d.Changed || d.FirstRun
}

// Diff compares current against the previous snapshot using ordered,
// field-for-field equality.
func Diff(previous UpdateSet, ok bool, current UpdateSet) DiffResult {
	if !ok {
		return DiffResult{FirstRun: true, Current: len(current)}
	}
	return DiffResult{
		Changed:  !previous.Equal(current),
		Previous: len(previous),
		Current:  len(current),
	}
}

// DiffAndPersist loads the snapshot, compares it to current and saves current
// when it differs or when no snapshot existed. A failed save is returned as an
// EPERSIST error alongside the computed result, so the caller can still act
// on the diff. A load error is returned with the zero DiffResult, whose
// NeedsSave is false.
func DiffAndPersist(ctx context.Context, store SnapshotStore, current UpdateSet) (DiffResult, error) {
	previous, ok, err := store.Load(ctx)
	if err != nil {
		return DiffResult{}, err
	}

	result := Diff(previous, ok, current)
	if !result.NeedsSave() {
		return result, nil
	}

	if err := store.Save(ctx, current); err != nil {
		if ErrorCode(err) == EPERSIST {
			return result, err
		}
		return result, Errorf(EPERSIST, "save snapshot: %v", err)
	}
	return result, nil
}
