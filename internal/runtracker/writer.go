// Package runtracker records training runs and their metrics. Trainers
// obtain a Run, log scalar metrics and artifacts against it, and mark
// it completed; the data lands in Postgres through a buffered batch
// writer, or in memory when no database is configured.
package runtracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/your-org/diabetes-classifier/internal/config"
)

// RunRecord is the database row describing one training run.
type RunRecord struct {
	ID          string    `db:"id"`
	Experiment  string    `db:"experiment"`
	Status      string    `db:"status"` // "running", "completed" or "failed"
	StartedAt   time.Time `db:"started_at"`
	CompletedAt time.Time `db:"completed_at"`
}

// Metric is one scalar metric value logged against a run.
type Metric struct {
	Time  time.Time `db:"time"`
	RunID string    `db:"run_id"`
	Name  string    `db:"name"`
	Value float64   `db:"value"`
}

// ArtifactRecord points at a file produced by a run (a model artifact
// or a rendered image).
type ArtifactRecord struct {
	Time  time.Time `db:"time"`
	RunID string    `db:"run_id"`
	Name  string    `db:"name"`
	Path  string    `db:"path"`
	Kind  string    `db:"kind"` // "model" or "image"
}

// Pool is an interface that abstracts the pgxpool.Pool for testability.
type Pool interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Close()
}

// Writer persists run records, metrics and artifact references.
type Writer interface {
	SaveRunStart(ctx context.Context, run RunRecord) error
	// SaveMetric buffers a metric; it is flushed on a timer, when the
	// batch fills, or on Close.
	SaveMetric(m Metric)
	SaveArtifact(ctx context.Context, a ArtifactRecord) error
	SaveRunStatus(ctx context.Context, runID, status string, completedAt time.Time) error
	Close()
}

// PostgresWriter writes run data to Postgres. Metrics are buffered and
// inserted in batches via COPY.
type PostgresWriter struct {
	pool         Pool
	logger       *zap.Logger
	config       config.TrackerConfig
	metricBuffer []Metric
	bufferMutex  sync.Mutex
	flushTicker  *time.Ticker
	shutdownChan chan struct{}
}

// NewPostgresWriter creates a new PostgresWriter around an existing
// connection pool and starts its background flusher.
func NewPostgresWriter(pool Pool, trackerConfig config.TrackerConfig, logger *zap.Logger) (*PostgresWriter, error) {
	if pool == nil {
		return nil, fmt.Errorf("runtracker: pool must not be nil, use NewInMemoryWriter instead")
	}

	if trackerConfig.WriteIntervalSeconds <= 0 {
		logger.Warn("WriteIntervalSeconds is zero or negative, defaulting to 1s",
			zap.Int("originalValue", trackerConfig.WriteIntervalSeconds))
		trackerConfig.WriteIntervalSeconds = 1
	}
	if trackerConfig.BatchSize <= 0 {
		logger.Warn("BatchSize is zero or negative, defaulting to 100",
			zap.Int("originalValue", trackerConfig.BatchSize))
		trackerConfig.BatchSize = 100
	}

	w := &PostgresWriter{
		pool:         pool,
		logger:       logger,
		config:       trackerConfig,
		metricBuffer: make([]Metric, 0, trackerConfig.BatchSize),
		flushTicker:  time.NewTicker(time.Duration(trackerConfig.WriteIntervalSeconds) * time.Second),
		shutdownChan: make(chan struct{}),
	}
	go w.run()
	logger.Info("Started batched run-metric writer",
		zap.Int("batchSize", trackerConfig.BatchSize),
		zap.Int("writeIntervalSeconds", trackerConfig.WriteIntervalSeconds))
	return w, nil
}

func (w *PostgresWriter) run() {
	for {
		select {
		case <-w.flushTicker.C:
			w.flushMetrics()
		case <-w.shutdownChan:
			return
		}
	}
}

// SaveRunStart inserts the run row.
func (w *PostgresWriter) SaveRunStart(ctx context.Context, run RunRecord) error {
	query := `INSERT INTO runs (id, experiment, status, started_at) VALUES ($1, $2, $3, $4)`
	_, err := w.pool.Exec(ctx, query, run.ID, run.Experiment, run.Status, run.StartedAt)
	if err != nil {
		w.logger.Error("Failed to insert run", zap.Error(err), zap.String("runID", run.ID))
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// SaveMetric adds a metric to the buffer.
func (w *PostgresWriter) SaveMetric(m Metric) {
	w.bufferMutex.Lock()
	w.metricBuffer = append(w.metricBuffer, m)
	shouldFlush := len(w.metricBuffer) >= w.config.BatchSize
	w.bufferMutex.Unlock()

	if shouldFlush {
		w.flushMetrics()
	}
}

func (w *PostgresWriter) flushMetrics() {
	w.bufferMutex.Lock()
	defer w.bufferMutex.Unlock()

	if len(w.metricBuffer) == 0 {
		return
	}
	w.logger.Debug("Flushing run metrics", zap.Int("count", len(w.metricBuffer)))

	rows := make([][]interface{}, len(w.metricBuffer))
	for i, m := range w.metricBuffer {
		rows[i] = []interface{}{m.Time, m.RunID, m.Name, m.Value}
	}
	_, err := w.pool.CopyFrom(
		context.Background(),
		pgx.Identifier{"run_metrics"},
		[]string{"time", "run_id", "name", "value"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		w.logger.Error("Failed to batch insert run metrics", zap.Error(err))
	}
	w.metricBuffer = w.metricBuffer[:0]
}

// SaveArtifact inserts a single artifact reference.
func (w *PostgresWriter) SaveArtifact(ctx context.Context, a ArtifactRecord) error {
	query := `INSERT INTO run_artifacts (time, run_id, name, path, kind) VALUES ($1, $2, $3, $4, $5)`
	_, err := w.pool.Exec(ctx, query, a.Time, a.RunID, a.Name, a.Path, a.Kind)
	if err != nil {
		w.logger.Error("Failed to insert run artifact", zap.Error(err), zap.Any("artifact", a))
		return fmt.Errorf("failed to insert run artifact: %w", err)
	}
	return nil
}

// SaveRunStatus updates a run's terminal status.
func (w *PostgresWriter) SaveRunStatus(ctx context.Context, runID, status string, completedAt time.Time) error {
	query := `UPDATE runs SET status = $2, completed_at = $3 WHERE id = $1`
	_, err := w.pool.Exec(ctx, query, runID, status, completedAt)
	if err != nil {
		w.logger.Error("Failed to update run status", zap.Error(err), zap.String("runID", runID))
		return fmt.Errorf("failed to update run status: %w", err)
	}
	return nil
}

// Close flushes any buffered metrics and closes the connection pool.
func (w *PostgresWriter) Close() {
	w.logger.Info("Closing run-metric writer...")
	close(w.shutdownChan)
	w.flushTicker.Stop()

	// Final flush
	w.flushMetrics()
	w.pool.Close()
}
