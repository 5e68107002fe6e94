// Command index-report runs the batch pipeline: load the monthly security
// panel and reference series, filter the universe, compute the equal- and
// value-weighted monthly index series, export CSV/Excel reports and print a
// correlation summary against the reference.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"crspindex/internal/config"
	"crspindex/internal/exporter"
	"crspindex/internal/infrastructure"
	"crspindex/internal/services"
)

func main() {
	outputDir := flag.String("out", "", "output directory for reports (defaults to configured reports dir)")
	excel := flag.Bool("excel", true, "also write an Excel workbook next to the CSV reports")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	if *outputDir == "" {
		*outputDir = cfg.Paths.ReportsDir
	}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Error("Cannot create output directory",
			slog.String("path", *outputDir),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	runID := uuid.New().String()
	ctx := infrastructure.WithTraceID(context.Background(), runID)

	logger.InfoContext(ctx, "Starting index replication run",
		slog.String("run_id", runID),
		slog.String("stock_file", cfg.Paths.StockPath()),
		slog.String("reference_file", cfg.Paths.ReferencePath()),
		slog.String("output_dir", *outputDir))

	service := services.NewIndexService(cfg, logger, nil)
	result, err := service.Compute(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Index computation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	timestamp := time.Now().Format("20060102")
	seriesPath := filepath.Join(*outputDir, fmt.Sprintf("index_monthly_%s.csv", timestamp))
	if err := exporter.WriteMonthlySeries(result.Series, seriesPath); err != nil {
		logger.ErrorContext(ctx, "Failed to write monthly series", slog.String("error", err.Error()))
		os.Exit(1)
	}

	comparisonPath := filepath.Join(*outputDir, fmt.Sprintf("index_comparison_%s.csv", timestamp))
	if err := exporter.WriteComparison(result.Comparison, comparisonPath); err != nil {
		logger.ErrorContext(ctx, "Failed to write comparison", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *excel {
		workbookPath := filepath.Join(*outputDir, fmt.Sprintf("index_report_%s.xlsx", timestamp))
		if err := exporter.WriteWorkbook(result.Series, result.Comparison, workbookPath); err != nil {
			logger.ErrorContext(ctx, "Failed to write workbook", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.InfoContext(ctx, "Index replication run completed",
		slog.Int("months", len(result.Series)),
		slog.Int("raw_rows", result.RawRows),
		slog.Int("filtered_rows", result.FilteredRows),
		slog.Float64("vw_correlation", result.Comparison.VWCorrelation),
		slog.String("series", seriesPath),
		slog.String("comparison", comparisonPath))

	if err := result.Comparison.WriteSummary(os.Stdout); err != nil {
		logger.ErrorContext(ctx, "Failed to print summary", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
