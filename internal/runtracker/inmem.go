package runtracker

import (
	"context"
	"sync"
	"time"
)

// InMemoryWriter records run data in memory. It is used by tests and
// when no tracking database is configured, so trainers still work
// offline (metrics end up in the process log only).
type InMemoryWriter struct {
	mu        sync.Mutex
	Runs      []RunRecord
	Metrics   []Metric
	Artifacts []ArtifactRecord
}

// NewInMemoryWriter creates an empty InMemoryWriter.
func NewInMemoryWriter() *InMemoryWriter {
	return &InMemoryWriter{}
}

// SaveRunStart records the run row.
func (w *InMemoryWriter) SaveRunStart(ctx context.Context, run RunRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Runs = append(w.Runs, run)
	return nil
}

// SaveMetric records a metric.
func (w *InMemoryWriter) SaveMetric(m Metric) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Metrics = append(w.Metrics, m)
}

// SaveArtifact records an artifact reference.
func (w *InMemoryWriter) SaveArtifact(ctx context.Context, a ArtifactRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Artifacts = append(w.Artifacts, a)
	return nil
}

// SaveRunStatus updates a previously recorded run in place.
func (w *InMemoryWriter) SaveRunStatus(ctx context.Context, runID, status string, completedAt time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.Runs {
		if w.Runs[i].ID == runID {
			w.Runs[i].Status = status
			w.Runs[i].CompletedAt = completedAt
		}
	}
	return nil
}

// Close is a no-op.
func (w *InMemoryWriter) Close() {}

// MetricValue returns the last logged value for name, for assertions.
func (w *InMemoryWriter) MetricValue(name string) (float64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := len(w.Metrics) - 1; i >= 0; i-- {
		if w.Metrics[i].Name == name {
			return w.Metrics[i].Value, true
		}
	}
	return 0, false
}
