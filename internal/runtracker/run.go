package runtracker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/diabetes-classifier/pkg/logger"
)

// Run is the experiment-run context handed to a trainer. All metric
// and artifact logging goes through it.
type Run struct {
	ID         string
	Experiment string
	StartedAt  time.Time

	writer Writer
}

// StartRun registers a new run and returns its context.
func StartRun(ctx context.Context, experiment string, w Writer) (*Run, error) {
	run := &Run{
		ID:         uuid.New().String(),
		Experiment: experiment,
		StartedAt:  time.Now().UTC(),
		writer:     w,
	}
	rec := RunRecord{
		ID:         run.ID,
		Experiment: experiment,
		Status:     "running",
		StartedAt:  run.StartedAt,
	}
	if err := w.SaveRunStart(ctx, rec); err != nil {
		return nil, err
	}
	logger.Infof("Started run %s for experiment %q", run.ID, experiment)
	return run, nil
}

// Log records a scalar metric against the run.
func (r *Run) Log(name string, value float64) {
	r.writer.SaveMetric(Metric{
		Time:  time.Now().UTC(),
		RunID: r.ID,
		Name:  name,
		Value: value,
	})
}

// LogImage records an image artifact (e.g. a rendered ROC curve).
func (r *Run) LogImage(ctx context.Context, name, path string) error {
	return r.logArtifact(ctx, name, path, "image")
}

// LogModel records a model artifact.
func (r *Run) LogModel(ctx context.Context, name, path string) error {
	return r.logArtifact(ctx, name, path, "model")
}

func (r *Run) logArtifact(ctx context.Context, name, path, kind string) error {
	return r.writer.SaveArtifact(ctx, ArtifactRecord{
		Time:  time.Now().UTC(),
		RunID: r.ID,
		Name:  name,
		Path:  path,
		Kind:  kind,
	})
}

// Complete marks the run finished.
func (r *Run) Complete(ctx context.Context) error {
	return r.writer.SaveRunStatus(ctx, r.ID, "completed", time.Now().UTC())
}

// Fail marks the run failed. The error is logged, not stored.
func (r *Run) Fail(ctx context.Context, cause error) error {
	logger.Errorf("Run %s failed: %v", r.ID, cause)
	return r.writer.SaveRunStatus(ctx, r.ID, "failed", time.Now().UTC())
}
