package common

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/0glabs/storage-ops/log"
)

func TestRunServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	server := &http.Server{Addr: "127.0.0.1:0", ReadHeaderTimeout: time.Second}

	done := make(chan error, 1)
	go func() {
		done <- RunServer(ctx, server, log.NewDefaultLogger("common-test"))
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunServerReportsListenFailure(t *testing.T) {
	server := &http.Server{Addr: "not-an-address", ReadHeaderTimeout: time.Second}
	err := RunServer(context.Background(), server, log.NewDefaultLogger("common-test"))
	require.Error(t, err)
}
