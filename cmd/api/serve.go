package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JosineyJr/switch_router/internal/config"
	"github.com/JosineyJr/switch_router/internal/handlers"
	"github.com/JosineyJr/switch_router/internal/health"
	"github.com/JosineyJr/switch_router/internal/metrics"
	"github.com/JosineyJr/switch_router/internal/pipeline"
	"github.com/JosineyJr/switch_router/internal/store"
	"github.com/JosineyJr/switch_router/internal/wizard"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the health monitor and the transaction API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder metrics.Recorder = metrics.Nop{}
	if cfg.Metrics.Enabled() {
		influx := metrics.NewInflux(
			cfg.Metrics.InfluxURL,
			cfg.Metrics.InfluxToken,
			cfg.Metrics.InfluxOrg,
			cfg.Metrics.InfluxBucket,
			logger,
		)
		defer influx.Close()
		recorder = influx
	}

	txStore, closeStore, err := newStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	monitor := health.NewHealthMonitor(
		cfg.Switches,
		health.NewHTTPProber(nil),
		cfg.Health.Timeout,
		recorder,
		logger,
	)
	monitor.RunCycle(ctx)
	monitor.Listen(ctx, cfg.Health.Interval)

	dispatcher := pipeline.NewDispatcher(
		txStore,
		wizard.NewSwitchWizard(monitor, logger),
		newSwitchClient(cfg.Dispatch),
		cfg.Dispatch.Timeout,
		recorder,
		logger,
	)

	app := handlers.NewRouter(logger, dispatcher, monitor)

	go func() {
		<-ctx.Done()
		logger.Warn().Str("message", "shutting down server").Send()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error().Err(err).Send()
		}
	}()

	logger.Info().Str("port", cfg.Server.Port).Int("switches", len(cfg.Switches)).Msg("server running")
	return app.Listen(":" + cfg.Server.Port)
}

func newStore(ctx context.Context, cfg config.StoreConfig, l zerolog.Logger) (pipeline.Store, func(), error) {
	if cfg.Driver != config.StoreDriverRedis {
		return store.NewMemory(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     100,
		MinIdleConns: 10,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	l.Info().Str("addr", cfg.RedisAddr).Msg("redis transaction store ready")

	return store.NewRedis(rdb, cfg.KeyPrefix, cfg.TTL), func() { rdb.Close() }, nil
}

func newSwitchClient(cfg config.DispatchConfig) pipeline.SwitchClient {
	if cfg.Mode == config.DispatchModeHTTP {
		return pipeline.NewHTTPClient(cfg.Path)
	}
	return pipeline.SimulatedClient{}
}
