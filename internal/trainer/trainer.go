// Package trainer holds the run flow shared by the training commands:
// tracker wiring, model evaluation, artifact publishing and quality
// alerting.
package trainer

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/your-org/diabetes-classifier/internal/alert"
	"github.com/your-org/diabetes-classifier/internal/config"
	"github.com/your-org/diabetes-classifier/internal/dataset"
	"github.com/your-org/diabetes-classifier/internal/metrics"
	"github.com/your-org/diabetes-classifier/internal/model"
	"github.com/your-org/diabetes-classifier/internal/registry"
	"github.com/your-org/diabetes-classifier/internal/runtracker"
	"github.com/your-org/diabetes-classifier/pkg/logger"
)

// NewWriter resolves the run writer from configuration: a batched
// Postgres writer when a database is configured, an in-memory one
// otherwise. The returned func releases the writer and its pool.
func NewWriter(ctx context.Context, cfg *config.Config) (runtracker.Writer, func(), error) {
	if !cfg.Database.Enabled() {
		logger.Info("No run-tracking database configured, keeping run history in memory")
		w := runtracker.NewInMemoryWriter()
		return w, func() { w.Close() }, nil
	}

	pool, err := runtracker.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect run tracker: %w", err)
	}
	zapLogger, err := zap.NewProduction()
	if err != nil {
		zapLogger = zap.NewNop()
	}
	w, err := runtracker.NewPostgresWriter(pool, cfg.Tracker, zapLogger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to create run writer: %w", err)
	}
	cleanup := func() {
		w.Close()
		pool.Close()
	}
	return w, cleanup, nil
}

// Evaluation holds the held-out metrics of a fitted classifier.
type Evaluation struct {
	Accuracy float64
	AUC      float64
	Scores   []float64
}

// Evaluate scores a fitted classifier against the held-out split.
func Evaluate(clf model.Classifier, test *dataset.Table) (Evaluation, error) {
	predicted := clf.Predict(test.Features)
	scores := clf.PredictProba(test.Features)

	acc := metrics.Accuracy(test.Labels, predicted)
	auc, err := metrics.AUC(test.Labels, scores)
	if err != nil {
		return Evaluation{}, fmt.Errorf("failed to compute AUC: %w", err)
	}
	return Evaluation{Accuracy: acc, AUC: auc, Scores: scores}, nil
}

// Publish saves the fitted classifier as an artifact, registers it
// under the configured model name and records it against the run.
// It returns the artifact path and the registered version.
func Publish(ctx context.Context, cfg *config.Config, run *runtracker.Run, clf model.Classifier, modelOut string) (string, int, error) {
	artifact, err := model.NewArtifact(clf, dataset.FeatureColumns)
	if err != nil {
		return "", 0, err
	}
	path := modelOut
	if path == "" {
		path = filepath.Join(cfg.OutputDir, "diabetes_model.gob")
	}
	if err := model.SaveArtifact(path, artifact); err != nil {
		return "", 0, err
	}
	logger.Infof("Saved model artifact to %s", path)

	reg, err := registry.New(cfg.Registry)
	if err != nil {
		return "", 0, err
	}
	version, err := reg.Register(ctx, cfg.ModelName, path)
	if err != nil {
		return "", 0, err
	}
	if err := run.LogModel(ctx, cfg.ModelName, path); err != nil {
		return "", 0, err
	}
	return path, version, nil
}

// CheckQuality alerts when the held-out AUC is below the configured
// floor. A zero floor disables the check.
func CheckQuality(ctx context.Context, cfg *config.Config, auc float64) {
	if cfg.Alert.MinAUC <= 0 || auc >= cfg.Alert.MinAUC {
		return
	}
	var n alert.Notifier = alert.NoOpNotifier{}
	if cfg.Alert.WebhookURL != "" {
		n = alert.NewWebhookNotifier(cfg.Alert.WebhookURL)
	}
	msg := fmt.Sprintf("Experiment %q produced AUC %.4f, below the %.4f floor",
		cfg.ExperimentName, auc, cfg.Alert.MinAUC)
	if err := n.Notify(ctx, msg); err != nil {
		logger.Errorf("Failed to send quality alert: %v", err)
	}
}
