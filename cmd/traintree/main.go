// Package main trains the decision tree diabetes classifier and
// renders its ROC curve.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/your-org/diabetes-classifier/internal/config"
	"github.com/your-org/diabetes-classifier/internal/dataset"
	"github.com/your-org/diabetes-classifier/internal/metrics"
	"github.com/your-org/diabetes-classifier/internal/model"
	"github.com/your-org/diabetes-classifier/internal/runtracker"
	"github.com/your-org/diabetes-classifier/internal/trainer"
	"github.com/your-org/diabetes-classifier/pkg/logger"
)

func main() {
	// --- Configuration ---
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	dataFolder := flag.String("data-folder", "data", "Folder holding the training CSV files")
	modelOut := flag.String("model-out", "", "Artifact output path (defaults to <output_dir>/diabetes_model.gob)")
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
	logger.Info("Diabetes decision tree trainer starting...")
	logger.Infof("Loaded configuration from: %s", *configPath)

	if err := run(ctx, cfg, *dataFolder, *modelOut); err != nil {
		logger.Fatalf("Training failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, dataFolder, modelOut string) error {
	writer, cleanup, err := trainer.NewWriter(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	run, err := runtracker.StartRun(ctx, cfg.ExperimentName, writer)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}

	table, err := dataset.LoadFolder(dataFolder)
	if err != nil {
		_ = run.Fail(ctx, err)
		return err
	}
	logger.Infof("Loaded %d observations from %s", table.Len(), dataFolder)

	train, test := dataset.Split(table, cfg.Training.TestRatio, cfg.Training.Seed)
	logger.Infof("Split into %d training and %d test observations", train.Len(), test.Len())

	clf := model.NewDecisionTree(
		model.WithMaxDepth(cfg.Training.Tree.MaxDepth),
		model.WithMinSamplesLeaf(cfg.Training.Tree.MinSamplesLeaf),
		model.WithCriterion(cfg.Training.Tree.Criterion),
	)
	if err := clf.Fit(train.Features, train.Labels); err != nil {
		_ = run.Fail(ctx, err)
		return fmt.Errorf("failed to fit model: %w", err)
	}

	eval, err := trainer.Evaluate(clf, test)
	if err != nil {
		_ = run.Fail(ctx, err)
		return err
	}
	logger.Infof("Accuracy: %.4f", eval.Accuracy)
	logger.Infof("AUC: %.4f", eval.AUC)
	run.Log("Accuracy", eval.Accuracy)
	run.Log("AUC", eval.AUC)

	// --- ROC curve ---
	fpr, tpr, err := metrics.ROC(test.Labels, eval.Scores)
	if err != nil {
		_ = run.Fail(ctx, err)
		return err
	}
	rocPath := filepath.Join(cfg.OutputDir, "roc.png")
	if err := metrics.SaveROCPlot(fpr, tpr, rocPath); err != nil {
		_ = run.Fail(ctx, err)
		return err
	}
	if err := run.LogImage(ctx, "ROC", rocPath); err != nil {
		_ = run.Fail(ctx, err)
		return err
	}
	logger.Infof("Saved ROC curve to %s", rocPath)

	path, version, err := trainer.Publish(ctx, cfg, run, clf, modelOut)
	if err != nil {
		_ = run.Fail(ctx, err)
		return err
	}
	logger.Infof("Published %s version %d (%s)", cfg.ModelName, version, path)

	trainer.CheckQuality(ctx, cfg, eval.AUC)

	if err := run.Complete(ctx); err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	logger.Infof("Run %s completed", run.ID)
	return nil
}
