// Package inmemory implements history storage that lives only as long as
// the process. Used for tests and throwaway deployments.
package inmemory

import (
	"context"
	"sync"

	"github.com/0glabs/storage-ops/history"
	"github.com/0glabs/storage-ops/storage"
)

const moduleName = "inmemory"

// Client keeps one DigestHistory per name.
type Client struct {
	mu        sync.Mutex
	histories map[string]*history.DigestHistory
}

var _ storage.HistoryStorage = (*Client)(nil)

// NewClient returns an empty in-memory store.
func NewClient() *Client {
	return &Client{histories: map[string]*history.DigestHistory{}}
}

// Load implements storage.HistoryStorage.
func (c *Client) Load(ctx context.Context, name string) (*history.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.histories[name]
	if !ok {
		return nil, storage.ErrNoHistory
	}
	return h.Snapshot(), nil
}

// Append implements storage.HistoryStorage.
func (c *Client) Append(ctx context.Context, name string, capacity uint64, index uint64, d history.Digest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.histories[name]
	if !ok {
		var err error
		if h, err = history.New(capacity); err != nil {
			return err
		}
	}
	if err := storage.CheckAppend(name, h.Capacity(), h.NextIndex(), capacity, index); err != nil {
		return err
	}
	h.Insert(d)
	c.histories[name] = h
	return nil
}

// Wipe implements storage.HistoryStorage.
func (c *Client) Wipe(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.histories = map[string]*history.DigestHistory{}
	return nil
}

// Close implements storage.HistoryStorage.
func (c *Client) Close() {}

// Name implements storage.HistoryStorage.
func (c *Client) Name() string {
	return moduleName
}
