package history

import (
	"errors"
	"fmt"
)

// ErrZeroCapacity is returned when constructing a history with no slots.
var ErrZeroCapacity = errors.New("history: capacity must be positive")

// ErrCapacityTooLarge is returned for a capacity above MaxCapacity.
var ErrCapacityTooLarge = errors.New("history: capacity too large")

// ErrUnavailableIndex matches any UnavailableIndexError via errors.Is.
var ErrUnavailableIndex = UnavailableIndexError{}

// UnavailableIndexError is returned by At for a logical index outside the
// live window: never written, already evicted, or at/after the next index.
// It is not retryable; further inserts only move the window forward.
type UnavailableIndexError struct {
	Index uint64
	// First and Next bound the window at the time of the lookup, [First, Next).
	First uint64
	Next  uint64
}

func (e UnavailableIndexError) Error() string {
	if e.First == e.Next {
		return fmt.Sprintf("history: unavailable index %d (history is empty)", e.Index)
	}
	return fmt.Sprintf("history: unavailable index %d (available [%d, %d])", e.Index, e.First, e.Next-1)
}

// Is makes every UnavailableIndexError match ErrUnavailableIndex.
func (e UnavailableIndexError) Is(target error) bool {
	_, ok := target.(UnavailableIndexError)
	return ok
}
