// Package storagetest holds the behavior every HistoryStorage backend must
// share, as a reusable test suite.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0glabs/storage-ops/history"
	"github.com/0glabs/storage-ops/storage"
)

// Digest returns a distinct digest per index: byte 0 is the index, byte 1
// is 1.
func Digest(index int) history.Digest {
	var d history.Digest
	d[0] = byte(index)
	d[1] = 1
	return d
}

// Run exercises a fresh backend returned by open. open may be called more
// than once per test to check that data survives a reopen; it receives the
// previous instance, already closed, or nil on the first call.
func Run(t *testing.T, open func(t *testing.T, previous storage.HistoryStorage) storage.HistoryStorage) {
	ctx := context.Background()

	t.Run("missing history", func(t *testing.T) {
		s := open(t, nil)
		defer s.Close()
		require.NoError(t, s.Wipe(ctx))

		_, err := s.Load(ctx, "nope")
		require.ErrorIs(t, err, storage.ErrNoHistory)
	})

	t.Run("append and load", func(t *testing.T) {
		s := open(t, nil)
		require.NoError(t, s.Wipe(ctx))

		expected, err := history.New(10)
		require.NoError(t, err)
		for i := 0; i < 18; i++ {
			require.NoError(t, s.Append(ctx, "roots", 10, uint64(i), Digest(i)))
			expected.Insert(Digest(i))

			snap, err := s.Load(ctx, "roots")
			require.NoError(t, err)
			require.Equal(t, expected.Snapshot(), snap, fmt.Sprintf("after insert %d", i))
		}

		s.Close()
		s = open(t, s)
		defer s.Close()
		snap, err := s.Load(ctx, "roots")
		require.NoError(t, err)
		require.Equal(t, expected.Snapshot(), snap)

		restored, err := history.Restore(snap)
		require.NoError(t, err)
		for i := 0; i < 8; i++ {
			require.False(t, restored.Available(uint64(i)))
		}
		for i := 8; i < 18; i++ {
			d, err := restored.At(uint64(i))
			require.NoError(t, err)
			require.Equal(t, Digest(i), d)
		}
	})

	t.Run("conflicts", func(t *testing.T) {
		s := open(t, nil)
		defer s.Close()
		require.NoError(t, s.Wipe(ctx))

		require.NoError(t, s.Append(ctx, "roots", 4, 0, Digest(0)))

		err := s.Append(ctx, "roots", 4, 0, Digest(1))
		var ice *storage.IndexConflictError
		require.True(t, errors.As(err, &ice), "got %v", err)

		err = s.Append(ctx, "roots", 5, 1, Digest(1))
		var cme *storage.CapacityMismatchError
		require.True(t, errors.As(err, &cme), "got %v", err)

		snap, err := s.Load(ctx, "roots")
		require.NoError(t, err)
		require.Equal(t, uint64(1), snap.NextIndex)
	})

	t.Run("independent names and wipe", func(t *testing.T) {
		s := open(t, nil)
		defer s.Close()
		require.NoError(t, s.Wipe(ctx))

		require.NoError(t, s.Append(ctx, "a", 2, 0, Digest(1)))
		require.NoError(t, s.Append(ctx, "b", 3, 0, Digest(2)))
		require.NoError(t, s.Append(ctx, "b", 3, 1, Digest(3)))

		a, err := s.Load(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, []history.Digest{Digest(1)}, a.Digests)
		b, err := s.Load(ctx, "b")
		require.NoError(t, err)
		require.Equal(t, []history.Digest{Digest(2), Digest(3)}, b.Digests)

		require.NoError(t, s.Wipe(ctx))
		_, err = s.Load(ctx, "a")
		require.ErrorIs(t, err, storage.ErrNoHistory)
	})
}
