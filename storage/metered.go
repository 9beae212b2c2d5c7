package storage

import (
	"context"

	"github.com/0glabs/storage-ops/history"
	"github.com/0glabs/storage-ops/metrics"
)

type metered struct {
	HistoryStorage
	metrics metrics.DatabaseMetrics
}

// NewMetered wraps s so every Load, Append and Wipe is counted and timed.
func NewMetered(s HistoryStorage, m metrics.DatabaseMetrics) HistoryStorage {
	return &metered{HistoryStorage: s, metrics: m}
}

func (m *metered) Load(ctx context.Context, name string) (*history.Snapshot, error) {
	timer := m.metrics.DatabaseLatencies(m.Name(), "load")
	s, err := m.HistoryStorage.Load(ctx, name)
	if err == ErrNoHistory {
		m.metrics.Observe(m.Name(), "load", timer, nil)
		return nil, err
	}
	m.metrics.Observe(m.Name(), "load", timer, err)
	return s, err
}

func (m *metered) Append(ctx context.Context, name string, capacity uint64, index uint64, d history.Digest) error {
	timer := m.metrics.DatabaseLatencies(m.Name(), "append")
	err := m.HistoryStorage.Append(ctx, name, capacity, index, d)
	m.metrics.Observe(m.Name(), "append", timer, err)
	return err
}

func (m *metered) Wipe(ctx context.Context) error {
	timer := m.metrics.DatabaseLatencies(m.Name(), "wipe")
	err := m.HistoryStorage.Wipe(ctx)
	m.metrics.Observe(m.Name(), "wipe", timer, err)
	return err
}
