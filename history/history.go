// Package history implements a fixed-capacity circular log of content
// digests addressed by logical insertion index.
//
// Logical index i lives in physical slot i mod capacity. Once more than
// capacity digests have been inserted, each insert evicts the oldest live
// index, so the available window is always the most recent (at most)
// capacity indices.
//
// A DigestHistory is not safe for concurrent use; wrap it in Locked when it
// is shared between goroutines.
package history

import "fmt"

// DigestHistory is a ring buffer of the last Capacity() inserted digests.
type DigestHistory struct {
	slots []Digest
	next  uint64
}

// MaxCapacity bounds the number of slots a history may allocate.
const MaxCapacity uint64 = 1 << 24

// New creates an empty history with the given number of slots.
func New(capacity uint64) (*DigestHistory, error) {
	if capacity == 0 {
		return nil, ErrZeroCapacity
	}
	if capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: %d > %d", ErrCapacityTooLarge, capacity, MaxCapacity)
	}
	return &DigestHistory{slots: make([]Digest, capacity)}, nil
}

// Capacity is the fixed number of physical slots.
func (h *DigestHistory) Capacity() uint64 {
	return uint64(len(h.slots))
}

// NextIndex is the logical index the next Insert will be assigned.
func (h *DigestHistory) NextIndex() uint64 {
	return h.next
}

// Window returns the available range as [first, next). It is empty when
// first == next.
func (h *DigestHistory) Window() (first, next uint64) {
	if h.next > h.Capacity() {
		return h.next - h.Capacity(), h.next
	}
	return 0, h.next
}

// Len is the number of available indices.
func (h *DigestHistory) Len() uint64 {
	first, next := h.Window()
	return next - first
}

// Insert stores d at the next logical index and returns that index. If the
// history is full, the oldest available index is evicted.
func (h *DigestHistory) Insert(d Digest) uint64 {
	index := h.next
	h.slots[index%h.Capacity()] = d
	h.next++
	return index
}

// Available reports whether index is inside the live window.
func (h *DigestHistory) Available(index uint64) bool {
	first, next := h.Window()
	return index >= first && index < next
}

// At returns the digest stored at a logical index, or an
// UnavailableIndexError if the index is not live.
func (h *DigestHistory) At(index uint64) (Digest, error) {
	if !h.Available(index) {
		first, next := h.Window()
		return Digest{}, UnavailableIndexError{Index: index, First: first, Next: next}
	}
	return h.slots[index%h.Capacity()], nil
}

// Contains reports whether some live index holds exactly d. Slots that have
// never been written are not part of the window and are not compared.
func (h *DigestHistory) Contains(d Digest) bool {
	n := h.Len()
	for i := uint64(0); i < n; i++ {
		if h.slots[i] == d {
			return true
		}
	}
	return false
}
