package common

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/0glabs/storage-ops/log"
)

// ShutdownTimeout bounds how long RunServer waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// RunServer runs server until it fails or ctx is canceled, in which case it
// shuts the server down gracefully. A clean shutdown returns nil.
func RunServer(ctx context.Context, server *http.Server, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("http server failed", "addr", server.Addr, "err", err)
		return err
	case <-ctx.Done():
		logger.Info("shutting down http server", "addr", server.Addr)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
