package storage_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0glabs/storage-ops/history"
	"github.com/0glabs/storage-ops/storage"
)

func TestCheckAppend(t *testing.T) {
	require.NoError(t, storage.CheckAppend("roots", 10, 4, 10, 4))

	err := storage.CheckAppend("roots", 10, 4, 8, 4)
	var cme *storage.CapacityMismatchError
	require.True(t, errors.As(err, &cme))
	require.Equal(t, uint64(10), cme.Stored)

	err = storage.CheckAppend("roots", 10, 4, 10, 6)
	var ice *storage.IndexConflictError
	require.True(t, errors.As(err, &ice))
	require.Equal(t, uint64(4), ice.Expected)
	require.Contains(t, err.Error(), "append at index 6, expected 4")

	require.ErrorIs(t, storage.CheckAppend("roots", 0, 0, 0, 0), history.ErrZeroCapacity)
	huge := history.MaxCapacity + 1
	require.ErrorIs(t, storage.CheckAppend("roots", huge, 0, huge, 0), history.ErrCapacityTooLarge)
}
