package kvstore

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0glabs/storage-ops/history"
	"github.com/0glabs/storage-ops/log"
	"github.com/0glabs/storage-ops/storage"
	"github.com/0glabs/storage-ops/storage/storagetest"
)

func testLogger(t *testing.T) *log.Logger {
	logger, err := log.NewLogger("kvstore-test", os.Stdout, log.FmtLogfmt, log.LevelError)
	require.NoError(t, err)
	return logger
}

func TestPogrebStorage(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, previous storage.HistoryStorage) storage.HistoryStorage {
		path := filepath.Join(t.TempDir(), "history.pogreb")
		if previous != nil {
			path = previous.(*Store).path
		}
		s, err := Open(path, testLogger(t))
		require.NoError(t, err)
		return s
	})
}

func TestRecoversNextIndexFromSlots(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.pogreb")

	s, err := Open(path, testLogger(t))
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		require.NoError(t, s.Append(ctx, "roots", 3, uint64(i), storagetest.Digest(i)))
	}
	s.Close()

	// Append right after reopening, without a Load to prime the cache.
	s, err = Open(path, testLogger(t))
	require.NoError(t, err)
	defer s.Close()
	require.Error(t, s.Append(ctx, "roots", 3, 6, storagetest.Digest(6)))
	require.NoError(t, s.Append(ctx, "roots", 3, 7, storagetest.Digest(7)))

	snap, err := s.Load(ctx, "roots")
	require.NoError(t, err)
	require.Equal(t, uint64(8), snap.NextIndex)
	require.Equal(t, []history.Digest{storagetest.Digest(5), storagetest.Digest(6), storagetest.Digest(7)}, snap.Digests)
}

func TestReopenRestoresWindow(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.pogreb")

	for _, count := range []int{2, 10, 13} {
		s, err := Open(path, testLogger(t))
		require.NoError(t, err)
		require.NoError(t, s.Wipe(ctx))
		expected, err := history.New(10)
		require.NoError(t, err)
		for i := 0; i < count; i++ {
			require.NoError(t, s.Append(ctx, "roots", 10, uint64(i), storagetest.Digest(i)))
			expected.Insert(storagetest.Digest(i))
		}
		s.Close()

		s, err = Open(path, testLogger(t))
		require.NoError(t, err)
		snap, err := s.Load(ctx, "roots")
		s.Close()
		require.NoError(t, err)
		require.Equal(t, expected.Snapshot(), snap, "after %d appends", count)

		restored, err := history.Restore(snap)
		require.NoError(t, err)
		first, next := restored.Window()
		for i := first; i < next; i++ {
			d, err := restored.At(i)
			require.NoError(t, err)
			require.Equal(t, storagetest.Digest(int(i)), d)
		}
	}
}

func TestCorruptSlot(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "history.pogreb"), testLogger(t))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Append(ctx, "roots", 4, 0, storagetest.Digest(0)))
	require.NoError(t, s.db.Put(slotKey("roots", 1), []byte{1, 2, 3}))

	_, err = s.Load(ctx, "roots")
	require.ErrorContains(t, err, "corrupt")
}

func TestCorruptMetaCapacity(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "history.pogreb"), testLogger(t))
	require.NoError(t, err)
	defer s.Close()

	huge := binary.BigEndian.AppendUint64(nil, 1<<62)
	require.NoError(t, s.db.Put(metaKey("roots"), huge))

	require.NotPanics(t, func() {
		_, err = s.Load(ctx, "roots")
	})
	require.ErrorContains(t, err, "corrupt meta capacity")
	require.Error(t, s.Append(ctx, "roots", 4, 0, storagetest.Digest(0)))
}

func TestKeysDoNotCollide(t *testing.T) {
	require.NotEqual(t, metaKey("a"), slotKey("a", 0))
	require.NotEqual(t, slotKey("a", 1), slotKey("a\x00", 1))
}

func TestPreBackupRemovesDoubleBackups(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "history.pogreb")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	stale := filepath.Join(dir, "main.pix.bac.bac")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o600))

	s := &Store{path: dir, logger: testLogger(t)}
	s.preBackup()
	require.False(t, pathExists(stale))
}
