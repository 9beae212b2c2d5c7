package history

import "sync"

// Locked serializes access to a DigestHistory: one writer or many readers.
type Locked struct {
	mu sync.RWMutex
	h  *DigestHistory
}

// NewLocked wraps h. The caller must not use h directly afterwards.
func NewLocked(h *DigestHistory) *Locked {
	return &Locked{h: h}
}

// Insert stores d and returns its logical index.
func (l *Locked) Insert(d Digest) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.h.Insert(d)
}

// InsertCommit calls commit with the index d is about to receive and only
// inserts if commit succeeds. The write lock is held across commit, so
// commits are applied in index order.
func (l *Locked) InsertCommit(d Digest, commit func(index uint64) error) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := commit(l.h.NextIndex()); err != nil {
		return 0, err
	}
	return l.h.Insert(d), nil
}

// At returns the digest at a logical index.
func (l *Locked) At(index uint64) (Digest, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.h.At(index)
}

// Available reports whether index is live.
func (l *Locked) Available(index uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.h.Available(index)
}

// Contains reports whether a live index holds d.
func (l *Locked) Contains(d Digest) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.h.Contains(d)
}

// Status returns capacity and the current window [first, next) atomically.
func (l *Locked) Status() (capacity, first, next uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	first, next = l.h.Window()
	return l.h.Capacity(), first, next
}

// Snapshot copies out the live window.
func (l *Locked) Snapshot() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.h.Snapshot()
}

// Range copies out one page of the live window, see DigestHistory.Range.
func (l *Locked) Range(offset, limit uint64) (first, next uint64, digests []Digest) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.h.Range(offset, limit)
}
