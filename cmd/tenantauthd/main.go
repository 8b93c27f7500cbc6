// Command tenantauthd serves the tenantauth HTTP API.
//
// Configuration comes from the environment, an optional .env file and an
// optional YAML file given with -config or CONFIG_PATH. Setting REDIS_ADDR
// moves the refresh token revocation registry to Redis so several replicas
// share it.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MrEthical07/tenantauth"
	"github.com/MrEthical07/tenantauth/internal/config"
	"github.com/MrEthical07/tenantauth/internal/httpapi"
	"github.com/MrEthical07/tenantauth/internal/stores"
	"github.com/MrEthical07/tenantauth/metrics/export/prometheus"
	"github.com/MrEthical07/tenantauth/middleware"
	"github.com/MrEthical07/tenantauth/revocation"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("load config")
	}

	logger := newLogger(cfg.Log, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("tenantauthd stopped")
	}
}

func newLogger(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "tenantauthd").Logger()
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := stores.NewMemory(nil)

	builder := tenantauth.New().
		WithConfig(cfg.EngineConfig()).
		WithUserStore(store).
		WithLogger(logger).
		WithAuditSink(tenantauth.NewLogSink(logger))

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return err
		}
		builder = builder.WithRevocationStore(revocation.NewRedis(client, cfg.Redis.Prefix))
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis revocation registry")
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	httpMetrics := prometheus.NewHTTPMetrics()
	registry, err := prometheus.NewRegistry(prometheus.NewCollector(engine), httpMetrics.Collectors()...)
	if err != nil {
		return err
	}

	api, err := httpapi.New(engine, store, httpapi.Options{
		Environment:     cfg.Env,
		DefaultPageSize: cfg.Pagination.DefaultPageSize,
		MaxPageSize:     cfg.Pagination.MaxPageSize,
		MaxBodyBytes:    cfg.HTTP.MaxBodyBytes,
		Throttle: middleware.ThrottleConfig{
			PerSecond:         cfg.RateLimit.AuthPerSecond,
			Burst:             cfg.RateLimit.AuthBurst,
			TrustForwardedFor: cfg.HTTP.TrustForwardedFor,
		},
		Logger:      logger,
		Metrics:     prometheus.Handler(registry),
		HTTPMetrics: httpMetrics,
	})
	if err != nil {
		return err
	}

	go engine.RunJanitor(ctx, cfg.RateLimit.SweepInterval)
	go sweepThrottle(ctx, api.Throttler(), cfg.RateLimit.SweepInterval)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Str("version", httpapi.Version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("stopped")
	return nil
}

func sweepThrottle(ctx context.Context, t *middleware.Throttler, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.Sweep(now)
		}
	}
}
