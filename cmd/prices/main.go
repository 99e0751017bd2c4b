// Package main loads a USD price CSV into the price store.
//
// CSV header: token_address,timestamp,usd_price
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"mev-inspector/internal/app"
	"mev-inspector/internal/domain"
	"mev-inspector/internal/ingestion"
	"mev-inspector/internal/observability"
	"mev-inspector/internal/storage"
)

func main() {
	app.LoadEnvFile(".env")

	input := flag.String("input", "", "Price CSV file")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Validate into an in-memory store only")
	batchSize := flag.Int("batch-size", 10000, "Prices per insert batch")
	skipDuplicates := flag.Bool("skip-duplicates", false, "Skip batches that contain already loaded prices")
	verbose := flag.Bool("verbose", false, "Enable development logging")

	flag.Parse()

	logger, err := app.NewLogger("prices", *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *input == "" {
		logger.Fatal("-input is required")
	}
	if *batchSize <= 0 {
		logger.Fatalw("invalid -batch-size", "value", *batchSize)
	}

	ctx := context.Background()

	stores, cleanup, err := app.OpenStores(ctx, app.StoreConfig{
		ClickhouseDSN: *clickhouseDSN,
		UseMemory:     *useMemory,
		PricesOnly:    true,
	}, logger, observability.NewMetrics("", nil))
	if err != nil {
		logger.Fatalw("failed to open stores", "error", err)
	}
	defer cleanup()

	f, err := os.Open(*input)
	if err != nil {
		logger.Fatalw("failed to open input", "error", err)
	}
	defer f.Close()

	prices, err := ingestion.ReadPricesCSV(f)
	if err != nil {
		logger.Fatalw("failed to parse input", "error", err)
	}

	loaded, skipped, err := load(ctx, stores.Prices, prices, *batchSize, *skipDuplicates)
	if err != nil {
		logger.Fatalw("failed to load prices", "loaded", loaded, "error", err)
	}

	fmt.Printf("Loaded %d prices (%d skipped as duplicates)\n", loaded, skipped)
}

func load(ctx context.Context, store storage.PriceStore, prices []*domain.Price, batchSize int, skipDuplicates bool) (loaded, skipped int, err error) {
	for start := 0; start < len(prices); start += batchSize {
		end := min(start+batchSize, len(prices))
		batch := prices[start:end]

		err := store.InsertBulk(ctx, batch)
		switch {
		case err == nil:
			loaded += len(batch)
		case skipDuplicates && errors.Is(err, storage.ErrDuplicateKey):
			skipped += len(batch)
		default:
			return loaded, skipped, fmt.Errorf("insert prices %d-%d: %w", start, end, err)
		}
	}
	return loaded, skipped, nil
}
