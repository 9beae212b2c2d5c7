// Package common implements common storage-ops command options.
package common

import (
	"context"
	"fmt"
	"io"
	stdLog "log"
	"os"

	"github.com/akrylysov/pogreb"

	"github.com/0glabs/storage-ops/config"
	"github.com/0glabs/storage-ops/log"
	"github.com/0glabs/storage-ops/metrics"
	"github.com/0glabs/storage-ops/storage"
	"github.com/0glabs/storage-ops/storage/inmemory"
	"github.com/0glabs/storage-ops/storage/kvstore"
	"github.com/0glabs/storage-ops/storage/postgres"
)

// MetricsPackage prefixes every metric the executable exports.
const MetricsPackage = "storage_ops"

var rootLogger = log.NewDefaultLogger("storage-ops")

// Init initializes the common environment.
func Init(cfg *config.Config) error {
	var w io.Writer = os.Stdout
	format := log.FmtJSON
	level := log.LevelDebug

	if cfg.Log != nil {
		var err error
		if w, err = getLoggingStream(cfg.Log); err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		if err := format.Set(cfg.Log.Format); err != nil {
			return err
		}
		if err := level.Set(cfg.Log.Level); err != nil {
			return err
		}
	}
	logger, err := log.NewLogger("storage-ops", w, format, level)
	if err != nil {
		return err
	}
	rootLogger = logger

	// Initialize pogreb logging.
	pogrebLogger := RootLogger().WithModule("pogreb").WithCallerUnwind(7)
	pogreb.SetLogger(stdLog.New(log.WriterIntoLogger(*pogrebLogger), "", 0))

	return nil
}

// RootLogger returns the logger defined by logging flags.
func RootLogger() *log.Logger {
	return rootLogger
}

func getLoggingStream(cfg *config.LogConfig) (io.Writer, error) {
	if cfg == nil || cfg.File == "" {
		return os.Stdout, nil
	}
	w, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Observability returns the functions serving metrics and profiles as
// configured, each to be run until ctx is canceled.
func Observability(cfg *config.MetricsConfig) []func(ctx context.Context) error {
	if cfg == nil {
		return nil
	}
	var services []func(ctx context.Context) error
	services = append(services, metrics.NewPullService(cfg.PullEndpoint, rootLogger).Run)
	if cfg.PprofEndpoint != "" {
		services = append(services, func(ctx context.Context) error {
			return runPprof(ctx, cfg.PprofEndpoint)
		})
	}
	return services
}

// NewHistoryStorage opens the configured storage backend. For postgres, the
// schema migrations are applied first. If the config asks for it, every
// stored history is wiped before the storage is returned.
func NewHistoryStorage(ctx context.Context, cfg *config.StorageConfig, logger *log.Logger) (storage.HistoryStorage, error) {
	var backend config.StorageBackend
	if err := backend.Set(cfg.Backend); err != nil {
		return nil, err
	}

	var client storage.HistoryStorage
	switch backend {
	case config.BackendPostgres:
		if err := postgres.RunMigrations(cfg.Migrations, cfg.Endpoint, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pg, err := postgres.NewClient(cfg.Endpoint, logger)
		if err != nil {
			return nil, err
		}
		client = pg
	case config.BackendPogreb:
		kv, err := kvstore.Open(cfg.Endpoint, logger)
		if err != nil {
			return nil, err
		}
		client = kv
	case config.BackendInMemory:
		client = inmemory.NewClient()
	default:
		return nil, fmt.Errorf("unsupported storage backend: %v", backend.String())
	}
	client = storage.NewMetered(client, metrics.NewDefaultDatabaseMetrics(MetricsPackage))

	if cfg.WipeStorage {
		logger.Warn("wiping all stored histories", "backend", client.Name())
		if err := client.Wipe(ctx); err != nil {
			client.Close()
			return nil, fmt.Errorf("wiping storage: %w", err)
		}
	}
	return client, nil
}
