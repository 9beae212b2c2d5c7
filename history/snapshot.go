package history

import "fmt"

// Snapshot is the observable state of a history: its capacity, the next
// logical index and the digests of the live window in index order.
type Snapshot struct {
	Capacity  uint64
	NextIndex uint64
	Digests   []Digest
}

// First is the first available logical index of the snapshot.
func (s *Snapshot) First() uint64 {
	return s.NextIndex - uint64(len(s.Digests))
}

// Snapshot copies out the live window.
func (h *DigestHistory) Snapshot() *Snapshot {
	first, next := h.Window()
	digests := make([]Digest, 0, next-first)
	for i := first; i < next; i++ {
		digests = append(digests, h.slots[i%h.Capacity()])
	}
	return &Snapshot{
		Capacity:  h.Capacity(),
		NextIndex: next,
		Digests:   digests,
	}
}

// Range copies out at most limit digests of the live window, starting
// offset positions after its first index. It also returns the window
// [first, next) the page was taken from.
func (h *DigestHistory) Range(offset, limit uint64) (first, next uint64, digests []Digest) {
	first, next = h.Window()
	lo := first + offset
	if offset > next-first {
		lo = next
	}
	hi := next
	if next-lo > limit {
		hi = lo + limit
	}
	digests = make([]Digest, 0, hi-lo)
	for i := lo; i < hi; i++ {
		digests = append(digests, h.slots[i%h.Capacity()])
	}
	return first, next, digests
}

// Restore rebuilds a history from a snapshot. The rebuilt history answers
// every query exactly as the one the snapshot was taken from.
func Restore(s *Snapshot) (*DigestHistory, error) {
	h, err := New(s.Capacity)
	if err != nil {
		return nil, err
	}
	want := s.NextIndex
	if want > s.Capacity {
		want = s.Capacity
	}
	if uint64(len(s.Digests)) != want {
		return nil, fmt.Errorf("history: snapshot has %d digests, window of next index %d needs %d",
			len(s.Digests), s.NextIndex, want)
	}
	first := s.First()
	for i, d := range s.Digests {
		h.slots[(first+uint64(i))%s.Capacity] = d
	}
	h.next = s.NextIndex
	return h, nil
}
