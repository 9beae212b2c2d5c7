// Package api serves a digest history over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/0glabs/storage-ops/history"
	"github.com/0glabs/storage-ops/log"
	"github.com/0glabs/storage-ops/metrics"
	"github.com/0glabs/storage-ops/storage"
)

const (
	moduleName = "api"

	// maxBodyBytes bounds POST bodies.
	maxBodyBytes = 1 << 20
)

// HistoryAPI answers history queries from memory and persists every
// insert to its storage backend before applying it.
type HistoryAPI struct {
	name    string
	store   *history.Locked
	backend storage.HistoryStorage

	logger  *log.Logger
	metrics metrics.HistoryMetrics
}

// NewHistoryAPI restores the history called name from backend, or starts an
// empty one with the given capacity if none is stored.
func NewHistoryAPI(ctx context.Context, name string, capacity uint64, backend storage.HistoryStorage, m metrics.HistoryMetrics, l *log.Logger) (*HistoryAPI, error) {
	logger := l.WithModule(moduleName).With("history", name)

	var h *history.DigestHistory
	snap, err := backend.Load(ctx, name)
	switch {
	case errors.Is(err, storage.ErrNoHistory):
		if h, err = history.New(capacity); err != nil {
			return nil, err
		}
		logger.Info("starting empty history", "capacity", capacity)
	case err != nil:
		return nil, fmt.Errorf("loading history %s: %w", name, err)
	default:
		if snap.Capacity != capacity {
			return nil, &storage.CapacityMismatchError{Name: name, Stored: snap.Capacity, Provided: capacity}
		}
		if h, err = history.Restore(snap); err != nil {
			return nil, fmt.Errorf("restoring history %s: %w", name, err)
		}
		first, next := h.Window()
		logger.Info("restored history",
			"capacity", capacity,
			"first_index", first,
			"next_index", next,
		)
	}
	m.SetWindow(h.Len(), h.NextIndex())

	return &HistoryAPI{
		name:    name,
		store:   history.NewLocked(h),
		backend: backend,
		logger:  logger,
		metrics: m,
	}, nil
}

// Insert persists d and then appends it to the in-memory history.
func (a *HistoryAPI) Insert(ctx context.Context, d history.Digest) (uint64, error) {
	capacity, _, _ := a.store.Status()
	index, err := a.store.InsertCommit(d, func(index uint64) error {
		return a.backend.Append(ctx, a.name, capacity, index, d)
	})
	if err != nil {
		a.logger.Error("failed to persist digest", "digest", d, "err", err)
		return 0, err
	}
	_, first, next := a.store.Status()
	a.metrics.Inserted(index >= capacity, next-first, next)
	return index, nil
}

// Store returns the in-memory history.
func (a *HistoryAPI) Store() *history.Locked {
	return a.store
}

// RouterOptions tune the HTTP layer.
type RouterOptions struct {
	// RequestTimeout cancels request contexts after this long when non-zero.
	RequestTimeout time.Duration
	// CORSOrigins are the origins allowed to call the API; empty allows any.
	CORSOrigins []string
}

// Router returns the HTTP handler for the API.
func (a *HistoryAPI) Router(m metrics.RequestMetrics, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware(m, a.logger))
	r.Use(middleware.Recoverer)
	r.Use(CorsMiddleware(opts.CORSOrigins))
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.Route("/v1/history", func(r chi.Router) {
		r.Post("/digests", a.handleInsert)
		r.Get("/digests", a.handleList)
		r.Get("/digests/{index}", a.handleAt)
		r.Get("/available/{index}", a.handleAvailable)
		r.Get("/contains/{digest}", a.handleContains)
		r.Get("/status", a.handleStatus)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		HumanReadableJsonErrorHandler(w, r, fmt.Errorf("%w: no route %s", ErrNotFound, r.URL.Path))
	})
	return r
}
