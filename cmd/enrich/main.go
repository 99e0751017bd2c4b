// Package main provides the batch enrichment CLI.
// It attaches decimal and USD profit to stored sandwiches that lack them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"mev-inspector/internal/app"
	"mev-inspector/internal/ingestion"
	"mev-inspector/internal/observability"
	"mev-inspector/internal/sandwich"
	"mev-inspector/internal/storage"
	"mev-inspector/internal/tokens"
)

func main() {
	app.LoadEnvFile(".env")

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (price series)")
	rpcURL := flag.String("rpc-url", os.Getenv("RPC_URL"), "Ethereum JSON-RPC endpoint for token decimals")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL and ClickHouse")
	pricesCSV := flag.String("prices-csv", "", "Price CSV to load before enriching (in-memory mode)")
	pageSize := flag.Int("page-size", sandwich.DefaultPageSize, "Sandwiches per page")
	fromBlock := flag.Uint64("from-block", 0, "Only enrich sandwiches at or after this block")
	toBlock := flag.Uint64("to-block", 0, "Only enrich sandwiches at or before this block")
	profitToken := flag.String("profit-token", "", "Only enrich sandwiches with this profit token")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty disables)")
	verbose := flag.Bool("verbose", false, "Enable development logging")

	flag.Parse()

	logger, err := app.NewLogger("enrich", *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	filter := storage.SandwichFilter{FromBlock: *fromBlock, ToBlock: *toBlock}
	if *profitToken != "" {
		if !common.IsHexAddress(*profitToken) {
			logger.Fatalw("invalid -profit-token", "value", *profitToken)
		}
		token := common.HexToAddress(*profitToken)
		filter.ProfitToken = &token
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := app.HandleSignals(cancel, logger)
	defer done()

	metrics := observability.NewMetrics("", nil)
	app.ServeMetrics(ctx, *metricsAddr, logger)

	stores, cleanup, err := app.OpenStores(ctx, app.StoreConfig{
		PostgresDSN:   *postgresDSN,
		ClickhouseDSN: *clickhouseDSN,
		UseMemory:     *useMemory,
		NeedPrices:    true,
	}, logger, metrics)
	if err != nil {
		logger.Fatalw("failed to open stores", "error", err)
	}
	defer cleanup()

	if *pricesCSV != "" {
		if err := loadPrices(ctx, *pricesCSV, stores.Prices); err != nil {
			logger.Fatalw("failed to load prices", "error", err)
		}
	}

	var fetcher tokens.DecimalsFetcher
	if *rpcURL != "" {
		client, err := ethclient.DialContext(ctx, *rpcURL)
		if err != nil {
			logger.Fatalw("failed to dial rpc", "error", err)
		}
		defer client.Close()
		fetcher = tokens.NewERC20Fetcher(client, 0)
	}

	enricher := sandwich.NewEnricher(
		stores.Sandwiches,
		stores.Blocks,
		stores.Prices,
		tokens.NewCache(stores.Tokens, fetcher, logger, metrics),
		sandwich.EnricherOptions{
			PageSize: *pageSize,
			Filter:   filter,
			Logger:   logger,
			Metrics:  metrics,
		},
	)

	result, err := enricher.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalw("enrichment failed", "error", err)
	}
	if result == nil {
		return
	}

	fmt.Printf("Enrichment: %d in backlog, %d updated, %d skipped over %d pages\n",
		result.Backlog, result.Updated, result.Skipped, result.Pages)
	for _, kind := range sandwich.Kinds {
		if n := result.ByKind[kind]; n > 0 {
			fmt.Printf("  %-20s %d\n", kind, n)
		}
	}
}

func loadPrices(ctx context.Context, path string, store storage.PriceStore) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	prices, err := ingestion.ReadPricesCSV(f)
	if err != nil {
		return err
	}
	return store.InsertBulk(ctx, prices)
}
