// Package serve implements the serve sub-command.
package serve

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/0glabs/storage-ops/api"
	"github.com/0glabs/storage-ops/cmd/common"
	serverCommon "github.com/0glabs/storage-ops/common"
	"github.com/0glabs/storage-ops/config"
	"github.com/0glabs/storage-ops/log"
	"github.com/0glabs/storage-ops/metrics"
	"github.com/0glabs/storage-ops/storage"
)

const (
	moduleName = "serve"

	defaultRequestTimeout = 10 * time.Second
)

var (
	// Path to the configuration file.
	configFile string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the digest history API",
		Run:   runServer,
	}
)

func runServer(cmd *cobra.Command, args []string) {
	// Initialize config.
	cfg, err := config.InitConfig(configFile)
	if err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"error", err,
		)
		os.Exit(1)
	}

	// Initialize common environment.
	if err = common.Init(cfg); err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"error", err,
		)
		os.Exit(1)
	}
	logger := common.RootLogger()

	if cfg.Server == nil || cfg.History == nil {
		logger.Error("server and history config must both be provided")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, err := Init(ctx, cfg)
	if err != nil {
		os.Exit(1)
	}
	defer service.Shutdown()

	if err := service.Start(ctx); err != nil {
		logger.Error("service stopped", "err", err)
		os.Exit(1)
	}
}

// Init initializes the history service.
func Init(ctx context.Context, cfg *config.Config) (*Service, error) {
	logger := common.RootLogger()

	service, err := NewService(ctx, cfg)
	if err != nil {
		logger.Error("service failed to start",
			"error", err,
		)
		return nil, err
	}
	return service, nil
}

// Service serves one digest history over HTTP.
type Service struct {
	server  *http.Server
	backend storage.HistoryStorage
	extra   []func(ctx context.Context) error
	logger  *log.Logger
}

// NewService opens the storage backend, restores the history from it and
// prepares the HTTP server.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	logger := common.RootLogger().WithModule(moduleName)

	backend, err := common.NewHistoryStorage(ctx, cfg.History.Storage, logger)
	if err != nil {
		return nil, err
	}
	historyAPI, err := api.NewHistoryAPI(
		ctx,
		cfg.History.Name,
		cfg.History.Capacity,
		backend,
		metrics.NewHistoryMetrics(common.MetricsPackage, cfg.History.Name),
		common.RootLogger(),
	)
	if err != nil {
		backend.Close()
		return nil, err
	}

	opts := api.RouterOptions{
		RequestTimeout: defaultRequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
	}
	if cfg.Server.RequestTimeout != nil {
		opts.RequestTimeout = *cfg.Server.RequestTimeout
	}
	server := &http.Server{
		Addr:           cfg.Server.Endpoint,
		Handler:        historyAPI.Router(metrics.NewDefaultRequestMetrics(common.MetricsPackage), opts),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   opts.RequestTimeout + 5*time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return &Service{
		server:  server,
		backend: backend,
		extra:   common.Observability(cfg.Metrics),
		logger:  logger,
	}, nil
}

// Start runs the API and the configured observability endpoints until ctx
// is canceled or one of them fails.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("starting history service at " + s.server.Addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serverCommon.RunServer(ctx, s.server, s.logger)
	})
	for _, run := range s.extra {
		g.Go(func() error {
			return run(ctx)
		})
	}
	return g.Wait()
}

// Shutdown releases the storage backend.
func (s *Service) Shutdown() {
	s.backend.Close()
}

// Register registers the serve sub-command.
func Register(parentCmd *cobra.Command) {
	serveCmd.Flags().StringVar(&configFile, "config", "./config/local.yml", "path to the config.yml file")
	parentCmd.AddCommand(serveCmd)
}
