package runtracker

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/diabetes-classifier/internal/config"
)

// TestPostgresWriter_ImplementsWriter confirms PostgresWriter satisfies
// the Writer interface.
func TestPostgresWriter_ImplementsWriter(t *testing.T) {
	assert.Implements(t, (*Writer)(nil), new(PostgresWriter))
	assert.Implements(t, (*Writer)(nil), new(InMemoryWriter))
}

func newMockedWriter(t *testing.T, batchSize int) (*PostgresWriter, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	trackerConfig := config.TrackerConfig{
		BatchSize:            batchSize,
		WriteIntervalSeconds: 60, // Keep the ticker out of the test's way.
	}
	writer, err := NewPostgresWriter(mock, trackerConfig, zap.NewNop())
	require.NoError(t, err)
	return writer, mock
}

func TestPostgresWriter_SaveRunStart(t *testing.T) {
	writer, mock := newMockedWriter(t, 10)

	mock.ExpectExec("INSERT INTO runs").
		WithArgs("run-1", "diabetes-training", "running", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := writer.SaveRunStart(context.Background(), RunRecord{
		ID:         "run-1",
		Experiment: "diabetes-training",
		Status:     "running",
		StartedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWriter_SaveMetricFlushesFullBatch(t *testing.T) {
	// Batch size 1 triggers a flush on the first metric.
	writer, mock := newMockedWriter(t, 1)

	mock.ExpectCopyFrom(
		pgx.Identifier{"run_metrics"},
		[]string{"time", "run_id", "name", "value"},
	)
	// Close performs a final (empty-buffer) flush and closes the pool.
	mock.ExpectClose()

	writer.SaveMetric(Metric{
		Time:  time.Now().UTC(),
		RunID: "run-1",
		Name:  "AUC",
		Value: 0.87,
	})
	writer.Close()

	require.NoError(t, mock.ExpectationsWereMet(), "there were unfulfilled expectations")
}

func TestPostgresWriter_CloseFlushesBufferedMetrics(t *testing.T) {
	writer, mock := newMockedWriter(t, 100)

	mock.ExpectCopyFrom(
		pgx.Identifier{"run_metrics"},
		[]string{"time", "run_id", "name", "value"},
	)
	mock.ExpectClose()

	writer.SaveMetric(Metric{Time: time.Now().UTC(), RunID: "run-1", Name: "Accuracy", Value: 0.9})
	writer.SaveMetric(Metric{Time: time.Now().UTC(), RunID: "run-1", Name: "AUC", Value: 0.95})
	writer.Close()

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWriter_SaveRunStatus(t *testing.T) {
	writer, mock := newMockedWriter(t, 10)

	mock.ExpectExec("UPDATE runs SET status").
		WithArgs("run-1", "completed", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := writer.SaveRunStatus(context.Background(), "run-1", "completed", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWriter_SaveArtifact(t *testing.T) {
	writer, mock := newMockedWriter(t, 10)

	mock.ExpectExec("INSERT INTO run_artifacts").
		WithArgs(pgxmock.AnyArg(), "run-1", "ROC", "outputs/roc.png", "image").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := writer.SaveArtifact(context.Background(), ArtifactRecord{
		Time:  time.Now().UTC(),
		RunID: "run-1",
		Name:  "ROC",
		Path:  "outputs/roc.png",
		Kind:  "image",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresWriter_NilPool(t *testing.T) {
	_, err := NewPostgresWriter(nil, config.TrackerConfig{}, zap.NewNop())
	assert.Error(t, err)
}
