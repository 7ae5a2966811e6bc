package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sanspareilsmyn/occulens/internal/config"
	"github.com/sanspareilsmyn/occulens/internal/engine"
	"github.com/sanspareilsmyn/occulens/internal/export"
	"github.com/sanspareilsmyn/occulens/internal/ingest"
	"github.com/sanspareilsmyn/occulens/internal/logging"
	"github.com/sanspareilsmyn/occulens/internal/stoprec"
)

var (
	configFile = flag.String("config", "configs/config.toml", "Path to the configuration file")
	logger     *zap.Logger
)

func main() {
	// Initialize Configuration
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration from %s: %v\n", *configFile, err)
		os.Exit(1)
	}

	// Initialize Logger
	var logErr error
	logger, logErr = logging.NewLogger(cfg.Log)
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", logErr)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync() // Flush buffered logs on exit
	}()

	sugar := logger.Sugar()
	sugar.Infow("Logger initialized",
		"level", cfg.Log.Level,
		"format", cfg.Log.Format,
	)
	sugar.Infow("Configuration loaded successfully", "path", *configFile)

	// Handle Graceful Shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		sugar.Infow("Received signal, initiating shutdown...", "signal", sig.String())
		cancel()
	}()

	// Run Analysis
	runErr := run(ctx, cfg)

	// Evaluate Run Result
	finalLogLevel := zapcore.InfoLevel
	shutdownReason := "gracefully"
	var finalErrorField = zap.Skip()

	switch {
	case runErr == nil:
		sugar.Info("Analysis completed without error.")
	case errors.Is(runErr, context.Canceled):
		sugar.Info("Analysis cancelled (expected on shutdown).")
	default: // Unexpected error
		shutdownReason = "due to error"
		finalLogLevel = zapcore.ErrorLevel
		finalErrorField = zap.Error(runErr)
		sugar.Errorw("Analysis stopped unexpectedly", zap.Error(runErr))
	}

	finalMessage := fmt.Sprintf("Run finished %s.", shutdownReason)
	logger.Log(finalLogLevel, finalMessage,
		zap.String("reason", shutdownReason),
		finalErrorField,
	)

	sugar.Info("Occulens finished.")
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	sugar := logger.Sugar()

	records, missing, err := loadRecords(ctx, cfg)
	if err != nil {
		return err
	}
	sugar.Infow("Stop records loaded",
		"source", cfg.Input.Source,
		"records", len(records),
		"missing_timestamps", missing,
	)

	params, err := cfg.EngineParams()
	if err != nil {
		return err
	}

	eng, err := engine.New(params, logger.Named("engine"))
	if err != nil {
		return err
	}

	results, err := eng.Run(ctx, records)
	if err != nil {
		return err
	}
	results.Report.RecordsMissingTimestamps += missing

	for _, warning := range results.Report.Warnings {
		sugar.Warnw("Run warning", "warning", warning)
	}

	if !cfg.Export.ByDateTime && !cfg.Export.Summaries {
		sugar.Info("Export disabled, skipping CSV output.")
		return nil
	}

	writer, err := export.NewWriter(cfg.Export.Path, logger.Named("export"))
	if err != nil {
		return err
	}
	if cfg.Export.ByDateTime {
		if err := writer.WriteRollups(params.ScenarioName, results.Rollups); err != nil {
			return err
		}
	}
	if cfg.Export.Summaries {
		if err := writer.WriteSummaries(params.ScenarioName, results.Summaries); err != nil {
			return err
		}
	}

	return nil
}

// loadRecords materializes the stop records from the configured source. The
// second return value counts rows dropped for missing timestamps, which only
// the CSV path can observe before parsing.
func loadRecords(ctx context.Context, cfg *config.Config) ([]stoprec.Record, int, error) {
	switch cfg.Input.Source {
	case "kafka":
		collector, err := ingest.NewCollector(cfg.Kafka, logger.Named("ingest"))
		if err != nil {
			return nil, 0, err
		}
		records, err := collector.Collect(ctx)
		return records, 0, err

	default: // "csv", enforced by config validation
		f, err := os.Open(cfg.Input.Path)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()

		records, stats, err := stoprec.ReadCSV(f, cfg.Columns())
		if err != nil {
			return nil, 0, err
		}
		return records, stats.MissingTimestamps, nil
	}
}
