package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/0glabs/storage-ops/history"
	"github.com/0glabs/storage-ops/storage"
)

var _ storage.HistoryStorage = (*Client)(nil)

const (
	createMeta = `
		INSERT INTO digest_history_meta (name, capacity, next_index)
		VALUES ($1, $2, 0)
		ON CONFLICT (name) DO NOTHING`

	lockMeta = `
		SELECT capacity, next_index FROM digest_history_meta
		WHERE name = $1
		FOR UPDATE`

	selectMeta = `
		SELECT capacity, next_index FROM digest_history_meta
		WHERE name = $1`

	upsertSlot = `
		INSERT INTO digest_history_slots (name, slot, logical_index, digest)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name, slot) DO UPDATE
		SET logical_index = EXCLUDED.logical_index, digest = EXCLUDED.digest`

	advanceMeta = `
		UPDATE digest_history_meta SET next_index = $2
		WHERE name = $1`

	selectWindow = `
		SELECT logical_index, digest FROM digest_history_slots
		WHERE name = $1 AND logical_index >= $2
		ORDER BY logical_index`
)

// Load implements storage.HistoryStorage.
func (c *Client) Load(ctx context.Context, name string) (*history.Snapshot, error) {
	var capacity, next int64
	if err := c.QueryRow(ctx, selectMeta, name).Scan(&capacity, &next); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNoHistory
		}
		return nil, fmt.Errorf("loading history %s: %w", name, err)
	}

	snap := &history.Snapshot{Capacity: uint64(capacity), NextIndex: uint64(next)}
	first := int64(0)
	if next > capacity {
		first = next - capacity
	}
	rows, err := c.Query(ctx, selectWindow, name, first)
	if err != nil {
		return nil, fmt.Errorf("loading history %s window: %w", name, err)
	}
	defer rows.Close()

	expected := first
	for rows.Next() {
		var index int64
		var raw []byte
		if err = rows.Scan(&index, &raw); err != nil {
			return nil, err
		}
		if index >= next {
			// Slot written by a transaction that has not advanced the meta row.
			break
		}
		if index != expected {
			return nil, fmt.Errorf("history %s: missing index %d", name, expected)
		}
		d, err := history.DigestFromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("history %s index %d: %w", name, index, err)
		}
		snap.Digests = append(snap.Digests, d)
		expected++
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if expected != next {
		return nil, fmt.Errorf("history %s: window ends at %d, expected %d", name, expected, next)
	}
	if snap.Digests == nil {
		snap.Digests = []history.Digest{}
	}
	return snap, nil
}

// Append implements storage.HistoryStorage.
func (c *Client) Append(ctx context.Context, name string, capacity uint64, index uint64, d history.Digest) error {
	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback(ctx)
	}()

	if _, err = tx.Exec(ctx, createMeta, name, int64(capacity)); err != nil {
		return fmt.Errorf("creating history %s: %w", name, err)
	}
	var storedCapacity, storedNext int64
	if err = tx.QueryRow(ctx, lockMeta, name).Scan(&storedCapacity, &storedNext); err != nil {
		return fmt.Errorf("locking history %s: %w", name, err)
	}
	if err = storage.CheckAppend(name, uint64(storedCapacity), uint64(storedNext), capacity, index); err != nil {
		return err
	}

	slot := int64(index % capacity)
	if _, err = tx.Exec(ctx, upsertSlot, name, slot, int64(index), d[:]); err != nil {
		return fmt.Errorf("writing history %s index %d: %w", name, index, err)
	}
	if _, err = tx.Exec(ctx, advanceMeta, name, int64(index+1)); err != nil {
		return fmt.Errorf("advancing history %s: %w", name, err)
	}
	if err = tx.Commit(ctx); err != nil {
		c.logger.Error("failed to commit history append",
			"error", err,
			"history", name,
			"index", index,
		)
		return err
	}
	return nil
}

// Wipe implements storage.HistoryStorage. The schema is kept.
func (c *Client) Wipe(ctx context.Context) error {
	batch := &storage.QueryBatch{}
	// Slots reference meta, so both must go in one statement.
	batch.Queue(`TRUNCATE digest_history_slots, digest_history_meta`)
	c.logger.Info("wiping stored histories")
	return c.SendBatch(ctx, batch)
}
