package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/felicia-viz/viz-relay/internal/bridge"
	"github.com/felicia-viz/viz-relay/internal/broadcast"
	"github.com/felicia-viz/viz-relay/internal/config"
	"github.com/felicia-viz/viz-relay/internal/connection"
	"github.com/felicia-viz/viz-relay/internal/database"
	"github.com/felicia-viz/viz-relay/internal/journal"
	"github.com/felicia-viz/viz-relay/internal/logging"
	"github.com/felicia-viz/viz-relay/internal/metrics"
	"github.com/felicia-viz/viz-relay/internal/router"
	"github.com/felicia-viz/viz-relay/internal/server"
	"github.com/felicia-viz/viz-relay/internal/topic"
	"github.com/felicia-viz/viz-relay/internal/version"
)

const appName = "viz-relay"

type serveOptions struct {
	*rootOptions
	driver string
	port   int
	demo   bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if opts.driver != "" {
				cfg.Bridge.Driver = opts.driver
			}
			if opts.port > 0 {
				cfg.Server.Port = opts.port
			}
			if opts.demo && cfg.Bridge.Driver != "local" {
				return fmt.Errorf("--demo requires the local bridge driver, got %q", cfg.Bridge.Driver)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, opts.demo)
		},
	}
	cmd.Flags().StringVar(&opts.driver, "driver", "", "override bridge.driver (nats or local)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "override server.port")
	cmd.Flags().BoolVar(&opts.demo, "demo", false, "publish synthetic topics through the local bridge")
	return cmd
}

func runServe(ctx context.Context, cfg *config.RelayConfig, demo bool) error {
	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("starting viz-relay",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
	)

	m := metrics.New()
	topics := topic.NewMap()

	// Optional journal.
	var (
		pool   *pgxpool.Pool
		writer *journal.Writer
	)
	if cfg.Database.Enabled() {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		pool, err = database.Connect(ctx, cfg.Database, appName)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := database.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		writer = journal.NewWriter(journal.Config{
			BatchSize:     cfg.Journal.BatchSize,
			FlushInterval: cfg.Journal.FlushInterval,
		}, pool, logger.With("component", "journal"))
		logger.Info("database connected")
	}

	registryCfg := connection.RegistryConfig{SweepInterval: cfg.Connections.HeartbeatInterval}
	if writer != nil {
		registryCfg.OnRemove = func(c connection.Conn) {
			writer.SessionEnded(c.ID(), c.RemoteAddr(), c.ConnectedAt(), time.Now())
		}
	}
	registry := connection.NewRegistry(registryCfg, m, logger.With("component", "registry"))

	rtr := router.NewRouter(topics, m, logger.With("component", "router"))
	bc := broadcast.New(broadcast.Config{
		FilterBySubscription: cfg.Broadcast.FilterBySubscription,
	}, registry, m, logger.With("component", "broadcast"))

	source, local, err := openSource(cfg.Bridge, logger.With("component", "source"))
	if err != nil {
		return err
	}

	deps := server.Deps{
		Registry: registry,
		Router:   rtr,
		Topics:   topics,
		Metrics:  m,
	}
	var topicJournal bridge.Journal
	if writer != nil {
		topicJournal = writer
		deps.Sessions = writer
		deps.Database = pool
	}

	br := bridge.New(bridge.Config{
		SkipPayloadValidation: cfg.Bridge.SkipPayloadValidation,
		AllowUnknownTopics:    cfg.Bridge.AllowUnknownTopics,
	}, source, topics, bc, topicJournal, m, logger.With("component", "bridge"))
	deps.Bridge = br

	srv := server.New(server.Config{
		Addr:            net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		ReadBufferSize:  cfg.Server.ReadBufferSize,
		WriteBufferSize: cfg.Server.WriteBufferSize,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MetricsPath:     cfg.Metrics.Path,
		Conn: connection.Config{
			PingInterval:   cfg.Connections.PingInterval,
			PongTimeout:    cfg.Connections.PongTimeout,
			WriteTimeout:   cfg.Connections.WriteTimeout,
			MaxMessageSize: cfg.Connections.MaxMessageSize,
			OutboxSize:     cfg.Connections.OutboxSize,
		},
	}, deps, logger.With("component", "server"))

	// Start order: journal, sweeper, bridge. Stop runs in reverse.
	var started []lifecycle
	components := []lifecycle{registry, br}
	if writer != nil {
		components = append([]lifecycle{writer}, components...)
	}
	for _, c := range components {
		if err := c.Start(ctx); err != nil {
			stopAll(started, cfg.Server.ShutdownTimeout, logger)
			return fmt.Errorf("start: %w", err)
		}
		started = append(started, c)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if demo {
		g.Go(func() error {
			return bridge.RunDemo(gctx, local, time.Second, logger.With("component", "demo"))
		})
	}

	logger.Info("viz-relay running",
		"addr", net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		"bridge", source.Name(),
		"journal", writer != nil,
	)

	err = g.Wait()

	logger.Info("shutting down...")
	closed := registry.CloseAll()
	logger.Info("closed browser connections", "count", closed)
	stopAll(started, cfg.Server.ShutdownTimeout, logger)

	if err != nil {
		return err
	}
	logger.Info("viz-relay stopped")
	return nil
}

// openSource builds the configured bridge source. The LocalSource is returned
// separately so demo mode can publish into it.
func openSource(cfg config.BridgeConfig, logger *slog.Logger) (bridge.Source, *bridge.LocalSource, error) {
	switch cfg.Driver {
	case "local":
		local := bridge.NewLocalSource()
		return local, local, nil
	case "nats":
		src, err := bridge.DialNATS(cfg.NATSURL, cfg.SubjectPrefix, appName, logger)
		if err != nil {
			return nil, nil, err
		}
		return src, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown bridge driver %q", cfg.Driver)
	}
}

// lifecycle is the Start/Stop pair shared by the background components.
type lifecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

func stopAll(components []lifecycle, timeout time.Duration, logger *slog.Logger) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for i := len(components) - 1; i >= 0; i-- {
		if err := components[i].Stop(ctx); err != nil {
			logger.Warn("component stop failed", "error", err)
		}
	}
}
