package runtracker

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles read-side database operations over recorded runs.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// FetchLatestRun returns the most recently started run of an experiment.
func (r *Repository) FetchLatestRun(ctx context.Context, experiment string) (RunRecord, error) {
	query := `
        SELECT id, experiment, status, started_at, COALESCE(completed_at, 'epoch'::timestamptz)
        FROM runs
        WHERE experiment = $1
        ORDER BY started_at DESC
        LIMIT 1;
    `
	var rec RunRecord
	err := r.db.QueryRow(ctx, query, experiment).Scan(
		&rec.ID, &rec.Experiment, &rec.Status, &rec.StartedAt, &rec.CompletedAt,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to fetch latest run for %q: %w", experiment, err)
	}
	return rec, nil
}

// FetchRunMetrics returns all metrics logged by a run, oldest first.
func (r *Repository) FetchRunMetrics(ctx context.Context, runID string) ([]Metric, error) {
	query := `
        SELECT time, run_id, name, value
        FROM run_metrics
        WHERE run_id = $1
        ORDER BY time ASC;
    `
	rows, err := r.db.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run metrics: %w", err)
	}
	defer rows.Close()

	var metrics []Metric
	for rows.Next() {
		var m Metric
		if err := rows.Scan(&m.Time, &m.RunID, &m.Name, &m.Value); err != nil {
			return nil, fmt.Errorf("failed to scan metric row: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// FetchRunArtifacts returns all artifact references recorded by a run.
func (r *Repository) FetchRunArtifacts(ctx context.Context, runID string) ([]ArtifactRecord, error) {
	query := `
        SELECT time, run_id, name, path, kind
        FROM run_artifacts
        WHERE run_id = $1
        ORDER BY time ASC;
    `
	rows, err := r.db.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []ArtifactRecord
	for rows.Next() {
		var a ArtifactRecord
		if err := rows.Scan(&a.Time, &a.RunID, &a.Name, &a.Path, &a.Kind); err != nil {
			return nil, fmt.Errorf("failed to scan artifact row: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}
