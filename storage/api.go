// Package storage defines how digest histories are persisted.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/0glabs/storage-ops/history"
)

// QueryBatch represents a batch of queries to be executed atomically.
type QueryBatch = pgx.Batch

// QueryResults represents the results from a read query.
type QueryResults = pgx.Rows

// QueryResult represents the result from a read query.
type QueryResult = pgx.Row

// ErrNoHistory is returned by Load when nothing has been stored under a name.
var ErrNoHistory = errors.New("storage: no such history")

// IndexConflictError is returned by Append when the index does not follow
// the last stored index, e.g. because another writer got there first.
type IndexConflictError struct {
	Name     string
	Index    uint64
	Expected uint64
}

func (e *IndexConflictError) Error() string {
	return fmt.Sprintf("storage: history %s: append at index %d, expected %d", e.Name, e.Index, e.Expected)
}

// CapacityMismatchError is returned when a history is reopened with a
// capacity different from the one it was created with.
type CapacityMismatchError struct {
	Name     string
	Stored   uint64
	Provided uint64
}

func (e *CapacityMismatchError) Error() string {
	return fmt.Sprintf("storage: history %s was created with capacity %d, not %d", e.Name, e.Stored, e.Provided)
}

// HistoryStorage persists digest histories. Implementations keep only the
// live window: appending index i may drop index i - capacity.
type HistoryStorage interface {
	// Load returns the stored window of the named history, or ErrNoHistory.
	Load(ctx context.Context, name string) (*history.Snapshot, error)

	// Append durably records digest d at logical index `index` of the named
	// history, creating the history if index is 0. index must be the
	// history's next index.
	Append(ctx context.Context, name string, capacity uint64, index uint64, d history.Digest) error

	// Wipe removes every stored history.
	Wipe(ctx context.Context) error

	// Close releases the backend.
	Close()

	// Name returns the name of the storage backend.
	Name() string
}

// CheckAppend validates an append against the stored capacity and next
// index. Backends call it before writing.
func CheckAppend(name string, storedCapacity, storedNext, capacity, index uint64) error {
	if capacity == 0 {
		return history.ErrZeroCapacity
	}
	if capacity > history.MaxCapacity {
		return fmt.Errorf("history %s: %w: %d", name, history.ErrCapacityTooLarge, capacity)
	}
	if storedCapacity != capacity {
		return &CapacityMismatchError{Name: name, Stored: storedCapacity, Provided: capacity}
	}
	if index != storedNext {
		return &IndexConflictError{Name: name, Index: index, Expected: storedNext}
	}
	return nil
}
