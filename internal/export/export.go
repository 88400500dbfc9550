// Package export writes recorded run data out as CSV for offline
// analysis.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/your-org/diabetes-classifier/internal/runtracker"
)

// MetricFetcher reads the metrics a run logged.
type MetricFetcher interface {
	FetchRunMetrics(ctx context.Context, runID string) ([]runtracker.Metric, error)
}

// WriteRunMetricsCSV streams a run's metrics to w as CSV with a
// time,name,value header.
func WriteRunMetricsCSV(ctx context.Context, f MetricFetcher, runID string, w io.Writer) error {
	metrics, err := f.FetchRunMetrics(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to fetch metrics for run %s: %w", runID, err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "name", "value"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, m := range metrics {
		record := []string{
			m.Time.UTC().Format(time.RFC3339Nano),
			m.Name,
			strconv.FormatFloat(m.Value, 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
