// Package main exports stored sandwiches as CSV and a Markdown summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"

	"mev-inspector/internal/app"
	"mev-inspector/internal/observability"
	"mev-inspector/internal/reporting"
	"mev-inspector/internal/storage"
)

func main() {
	app.LoadEnvFile(".env")

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage (produces an empty report)")
	outputDir := flag.String("output-dir", "output", "Output directory for sandwiches.csv and REPORT.md")
	fromBlock := flag.Uint64("from-block", 0, "First block to report")
	toBlock := flag.Uint64("to-block", 0, "Last block to report")
	profitToken := flag.String("profit-token", "", "Only report sandwiches with this profit token")
	unenriched := flag.Bool("unenriched", false, "Only report sandwiches without USD profit")
	verbose := flag.Bool("verbose", false, "Enable development logging")

	flag.Parse()

	logger, err := app.NewLogger("report", *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	filter := storage.SandwichFilter{
		FromBlock:  *fromBlock,
		ToBlock:    *toBlock,
		MissingUSD: *unenriched,
	}
	if *profitToken != "" {
		if !common.IsHexAddress(*profitToken) {
			logger.Fatalw("invalid -profit-token", "value", *profitToken)
		}
		token := common.HexToAddress(*profitToken)
		filter.ProfitToken = &token
	}

	ctx := context.Background()

	stores, cleanup, err := app.OpenStores(ctx, app.StoreConfig{
		PostgresDSN: *postgresDSN,
		UseMemory:   *useMemory,
	}, logger, observability.NewMetrics("", nil))
	if err != nil {
		logger.Fatalw("failed to open stores", "error", err)
	}
	defer cleanup()

	report, err := reporting.NewGenerator(stores.Sandwiches).Generate(ctx, filter)
	if err != nil {
		logger.Fatalw("failed to generate report", "error", err)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatalw("failed to create output directory", "error", err)
	}

	csvPath := filepath.Join(*outputDir, "sandwiches.csv")
	if err := writeCSV(csvPath, report); err != nil {
		logger.Fatalw("failed to write csv", "path", csvPath, "error", err)
	}

	mdPath := filepath.Join(*outputDir, "REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		logger.Fatalw("failed to write markdown", "path", mdPath, "error", err)
	}

	logger.Infow("report written",
		"sandwiches", report.Summary.Sandwiches,
		"enriched", report.Summary.Enriched,
		"csv", csvPath,
		"markdown", mdPath,
	)
}

func writeCSV(path string, report *reporting.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := reporting.WriteCSV(f, report.Sandwiches); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
