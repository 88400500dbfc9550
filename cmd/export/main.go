// Package main exports recorded run metrics as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/your-org/diabetes-classifier/internal/config"
	"github.com/your-org/diabetes-classifier/internal/export"
	"github.com/your-org/diabetes-classifier/internal/runtracker"
	"github.com/your-org/diabetes-classifier/pkg/logger"
)

func main() {
	// --- Configuration ---
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	runID := flag.String("run", "", "Run ID to export (defaults to the experiment's latest run)")
	outPath := flag.String("out", "", "Output CSV path (defaults to stdout)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger.SetGlobalLogLevel(cfg.LogLevel)

	if !cfg.Database.Enabled() {
		logger.Fatal("Run export requires a run-tracking database (set DB_HOST)")
	}

	if err := run(ctx, cfg, *runID, *outPath); err != nil {
		logger.Fatalf("Export failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, runID, outPath string) error {
	pool, err := runtracker.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	repo := runtracker.NewRepository(pool)

	if runID == "" {
		latest, err := repo.FetchLatestRun(ctx, cfg.ExperimentName)
		if err != nil {
			return err
		}
		runID = latest.ID
		logger.Infof("Exporting latest run %s of experiment %q (status %s)",
			runID, cfg.ExperimentName, latest.Status)
	}

	var out io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := export.WriteRunMetricsCSV(ctx, repo, runID, out); err != nil {
		return err
	}
	if outPath != "" {
		logger.Infof("Wrote metrics for run %s to %s", runID, outPath)
	}
	return nil
}
