// Package app holds the wiring shared by the command-line tools:
// environment loading, logging, store construction and the metrics endpoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mev-inspector/internal/observability"
	"mev-inspector/internal/storage"
	chstore "mev-inspector/internal/storage/clickhouse"
	"mev-inspector/internal/storage/memory"
	"mev-inspector/internal/storage/migrations"
	pgstore "mev-inspector/internal/storage/postgres"
)

// ShutdownTimeout bounds graceful shutdown after the first signal.
const ShutdownTimeout = 30 * time.Second

// LoadEnvFile loads KEY=VALUE lines from path into the environment.
// Existing variables are not overridden. A missing file is ignored.
func LoadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// NewLogger builds a production logger, or a development logger when verbose.
func NewLogger(name string, verbose bool) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Named(name).Sugar(), nil
}

// StoreConfig selects the storage backends.
type StoreConfig struct {
	PostgresDSN   string
	ClickhouseDSN string
	UseMemory     bool
	// MaxConns bounds the Postgres pool; zero keeps the pgx default.
	MaxConns int32
	// NeedPrices requires a price store backend.
	NeedPrices bool
	// PricesOnly opens only the price store; Postgres is not contacted.
	PricesOnly bool
}

// Stores holds every storage implementation used by the tools.
type Stores struct {
	Sandwiches storage.SandwichStore
	Swaps      storage.SwapStore
	Tokens     storage.TokenStore
	Blocks     storage.BlockStore
	Prices     storage.PriceStore
}

// OpenStores connects to the configured backends and applies migrations.
// The returned cleanup closes every connection.
func OpenStores(ctx context.Context, cfg StoreConfig, logger *zap.SugaredLogger, metrics *observability.Metrics) (*Stores, func(), error) {
	if cfg.UseMemory {
		return &Stores{
			Sandwiches: memory.NewSandwichStore(),
			Swaps:      memory.NewSwapStore(),
			Tokens:     memory.NewTokenStore(),
			Blocks:     memory.NewBlockStore(),
			Prices:     memory.NewPriceStore(),
		}, func() {}, nil
	}

	if (cfg.NeedPrices || cfg.PricesOnly) && cfg.ClickhouseDSN == "" {
		return nil, nil, errors.New("-clickhouse-dsn is required for price data")
	}
	if cfg.PricesOnly {
		chConn, err := openClickhouse(ctx, cfg.ClickhouseDSN, logger, metrics)
		if err != nil {
			return nil, nil, err
		}
		return &Stores{Prices: chstore.NewPriceStore(chConn)}, func() { chConn.Close() }, nil
	}
	if cfg.PostgresDSN == "" {
		return nil, nil, errors.New("-postgres-dsn is required (use -use-memory for in-memory storage)")
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, cfg.MaxConns)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	err = migrations.RunPostgresMigrations(ctx, pool, logger)
	metrics.RecordDBQuery("postgres", "migrate", time.Since(start).Seconds(), err)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	stores := &Stores{
		Sandwiches: pgstore.NewSandwichStore(pool),
		Swaps:      pgstore.NewSwapStore(pool),
		Tokens:     pgstore.NewTokenStore(pool),
		Blocks:     pgstore.NewBlockStore(pool),
	}
	cleanup := pool.Close

	if cfg.ClickhouseDSN != "" {
		chConn, err := openClickhouse(ctx, cfg.ClickhouseDSN, logger, metrics)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		stores.Prices = chstore.NewPriceStore(chConn)
		cleanup = func() {
			chConn.Close()
			pool.Close()
		}
	}

	return stores, cleanup, nil
}

// openClickhouse connects to the DSN's database after applying migrations.
func openClickhouse(ctx context.Context, dsn string, logger *zap.SugaredLogger, metrics *observability.Metrics) (*chstore.Conn, error) {
	start := time.Now()
	conn, err := migrations.RunClickhouseMigrations(ctx, dsn, logger)
	metrics.RecordDBQuery("clickhouse", "migrate", time.Since(start).Seconds(), err)
	return conn, err
}

// ServeMetrics serves /metrics and /health on addr until ctx is done.
// An empty addr disables the server.
func ServeMetrics(ctx context.Context, addr string, logger *zap.SugaredLogger) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Infow("starting metrics server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("metrics server failed", "error", err)
		}
	}()
}

// HandleSignals cancels on SIGINT or SIGTERM. A second signal, or no call to
// the returned done func within ShutdownTimeout, exits the process.
func HandleSignals(cancel context.CancelFunc, logger *zap.SugaredLogger) (done func()) {
	finished := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		var sig os.Signal
		select {
		case sig = <-sigCh:
		case <-finished:
			return
		}
		logger.Infow("received signal, shutting down", "signal", sig.String())
		cancel()

		select {
		case sig := <-sigCh:
			logger.Warnw("received second signal, forcing exit", "signal", sig.String())
			os.Exit(1)
		case <-time.After(ShutdownTimeout):
			logger.Warnw("graceful shutdown timed out, forcing exit", "timeout", ShutdownTimeout)
			os.Exit(1)
		case <-finished:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(finished)
	}
}
