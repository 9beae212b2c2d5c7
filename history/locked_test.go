package history

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLockedConcurrentAccess(t *testing.T) {
	l := NewLocked(newTestHistory(t, 8))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				l.Insert(testDigest(w*50 + i))
				_ = l.Contains(testDigest(i))
				_, _ = l.At(uint64(i))
			}
		}(w)
	}
	wg.Wait()

	capacity, first, next := l.Status()
	require.Equal(t, uint64(8), capacity)
	require.Equal(t, uint64(200), next)
	require.Equal(t, uint64(192), first)
	require.Len(t, l.Snapshot().Digests, 8)

	first, next, page := l.Range(2, 3)
	require.Equal(t, uint64(192), first)
	require.Equal(t, uint64(200), next)
	require.Equal(t, l.Snapshot().Digests[2:5], page)
}

func TestLockedInsertCommit(t *testing.T) {
	l := NewLocked(newTestHistory(t, 4))

	var committed []uint64
	commit := func(index uint64) error {
		committed = append(committed, index)
		return nil
	}
	for i := 0; i < 3; i++ {
		idx, err := l.InsertCommit(testDigest(i), commit)
		require.NoError(t, err)
		require.Equal(t, uint64(i), idx)
	}
	require.Equal(t, []uint64{0, 1, 2}, committed)

	failure := errors.New("write failed")
	_, err := l.InsertCommit(testDigest(3), func(uint64) error { return failure })
	require.ErrorIs(t, err, failure)
	require.False(t, l.Available(3), "a failed commit must not advance the history")
	require.False(t, l.Contains(testDigest(3)))

	d, err := l.At(2)
	require.NoError(t, err)
	require.Equal(t, testDigest(2), d)
}
