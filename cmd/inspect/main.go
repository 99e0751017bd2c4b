// Package main provides the block inspection CLI.
// Flow: decoded traces → swaps → sandwiches → storage
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"mev-inspector/internal/app"
	"mev-inspector/internal/classifier"
	"mev-inspector/internal/ingestion"
	"mev-inspector/internal/inspect"
	"mev-inspector/internal/observability"
	"mev-inspector/internal/sandwich"
	"mev-inspector/internal/swaps"
	"mev-inspector/internal/tokens"
)

func main() {
	app.LoadEnvFile(".env")

	fromBlock := flag.Uint64("from-block", 0, "First block to inspect")
	toBlock := flag.Uint64("to-block", 0, "Last block to inspect (inclusive); defaults to -from-block")
	traceDir := flag.String("trace-dir", os.Getenv("TRACE_DIR"), "Directory of <block>.json decoded trace files")
	rpcURL := flag.String("rpc-url", os.Getenv("RPC_URL"), "Ethereum JSON-RPC endpoint for token decimals and block timestamps")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	workers := flag.Int("workers", inspect.DefaultWorkers, "Blocks inspected in parallel")
	routers := flag.String("routers", "", "Comma-separated router addresses excluded as sandwichers (default: Uniswap V2 and V3 routers)")
	skipMissing := flag.Bool("skip-missing", false, "Skip blocks without a trace file instead of failing")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty disables)")
	verbose := flag.Bool("verbose", false, "Enable development logging")

	flag.Parse()

	logger, err := app.NewLogger("inspect", *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *traceDir == "" {
		logger.Fatal("-trace-dir is required")
	}
	if *toBlock == 0 {
		*toBlock = *fromBlock
	}
	if *toBlock < *fromBlock {
		logger.Fatalw("invalid block range", "from", *fromBlock, "to", *toBlock)
	}

	routerSet := sandwich.DefaultRouters()
	if *routers != "" {
		if routerSet, err = sandwich.ParseRouters(*routers); err != nil {
			logger.Fatalw("invalid -routers", "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := app.HandleSignals(cancel, logger)
	defer done()

	metrics := observability.NewMetrics("", nil)
	app.ServeMetrics(ctx, *metricsAddr, logger)

	stores, cleanup, err := app.OpenStores(ctx, app.StoreConfig{
		PostgresDSN: *postgresDSN,
		UseMemory:   *useMemory,
		MaxConns:    int32(*workers) + 2,
	}, logger, metrics)
	if err != nil {
		logger.Fatalw("failed to open stores", "error", err)
	}
	defer cleanup()

	sourceOpts := ingestion.FileSourceOptions{Logger: logger}
	var fetcher tokens.DecimalsFetcher
	if *rpcURL != "" {
		client, err := ethclient.DialContext(ctx, *rpcURL)
		if err != nil {
			logger.Fatalw("failed to dial rpc", "error", err)
		}
		defer client.Close()
		sourceOpts.Headers = client
		fetcher = tokens.NewERC20Fetcher(client, 0)
	} else {
		logger.Warn("no -rpc-url: unknown tokens stay unpriced and timestamps come from trace files only")
	}

	tokenCache := tokens.NewCache(stores.Tokens, fetcher, logger, metrics)
	inspector := inspect.New(inspect.Options{
		Source:    ingestion.NewFileSource(*traceDir, sourceOpts),
		Extractor: swaps.NewExtractor(classifier.NewDefaultRegistry(), logger, metrics),
		Detector: sandwich.NewDetector(tokenCache, sandwich.DetectorOptions{
			Routers: routerSet,
			Logger:  logger,
			Metrics: metrics,
		}),
		SandwichStore: stores.Sandwiches,
		SwapStore:     stores.Swaps,
		BlockStore:    stores.Blocks,
		Workers:       *workers,
		SkipMissing:   *skipMissing,
		Logger:        logger,
		Metrics:       metrics,
	})

	if err := run(ctx, inspector, *fromBlock, *toBlock, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("inspection cancelled")
			return
		}
		logger.Fatalw("inspection failed", "error", err)
	}
}

func run(ctx context.Context, inspector *inspect.Inspector, from, to uint64, logger *zap.SugaredLogger) error {
	start := time.Now()
	result, err := inspector.InspectRange(ctx, from, to+1)
	if err != nil {
		return err
	}

	fmt.Printf("Inspected blocks %d-%d in %s\n", from, to, time.Since(start).Round(time.Millisecond))
	fmt.Printf("  blocks:     %d (%d missing)\n", result.Blocks, result.Missing)
	fmt.Printf("  swaps:      %d\n", result.Swaps)
	fmt.Printf("  sandwiches: %d\n", result.Sandwiches)
	logger.Debugw("inspection finished", "elapsed", time.Since(start))
	return nil
}
