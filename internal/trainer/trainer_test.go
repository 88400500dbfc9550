package trainer

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/diabetes-classifier/internal/config"
	"github.com/your-org/diabetes-classifier/internal/dataset"
	"github.com/your-org/diabetes-classifier/internal/model"
	"github.com/your-org/diabetes-classifier/internal/runtracker"
)

// separableTable builds two well-separated clusters over the full
// feature width so fitted models score near-perfectly.
func separableTable(n int) *dataset.Table {
	rng := rand.New(rand.NewSource(7))
	t := &dataset.Table{}
	width := len(dataset.FeatureColumns)
	for i := 0; i < n; i++ {
		label := i % 2
		row := make([]float64, width)
		for j := range row {
			row[j] = float64(label)*4 + rng.NormFloat64()*0.5
		}
		t.Features = append(t.Features, row)
		t.Labels = append(t.Labels, label)
	}
	return t
}

func TestNewWriterWithoutDatabase(t *testing.T) {
	cfg := &config.Config{}
	w, cleanup, err := NewWriter(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &runtracker.InMemoryWriter{}, w)
}

func TestEvaluateSeparableData(t *testing.T) {
	table := separableTable(200)
	train, test := dataset.Split(table, 0.3, 0)

	clf := model.NewLogisticRegression(model.WithSeed(0))
	require.NoError(t, clf.Fit(train.Features, train.Labels))

	eval, err := Evaluate(clf, test)
	require.NoError(t, err)
	assert.Greater(t, eval.Accuracy, 0.9)
	assert.Greater(t, eval.AUC, 0.9)
	assert.Len(t, eval.Scores, test.Len())
}

func TestPublishSavesAndRegisters(t *testing.T) {
	ctx := context.Background()
	table := separableTable(100)
	clf := model.NewLogisticRegression(model.WithSeed(0))
	require.NoError(t, clf.Fit(table.Features, table.Labels))

	cfg := &config.Config{
		ModelName: "diabetes_model",
		OutputDir: t.TempDir(),
		Registry: config.RegistryConfig{
			Backend:  "local",
			Dir:      t.TempDir(),
			CacheDir: t.TempDir(),
		},
	}
	w := runtracker.NewInMemoryWriter()
	run, err := runtracker.StartRun(ctx, "test-exp", w)
	require.NoError(t, err)

	path, version, err := Publish(ctx, cfg, run, clf, "")
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "diabetes_model.gob"), path)
	assert.FileExists(t, path)

	require.Len(t, w.Artifacts, 1)
	assert.Equal(t, "model", w.Artifacts[0].Kind)

	// Republishing bumps the registry version.
	_, version, err = Publish(ctx, cfg, run, clf, "")
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestCheckQuality(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	cfg := &config.Config{
		ExperimentName: "test-exp",
		Alert:          config.AlertConfig{MinAUC: 0.8, WebhookURL: srv.URL},
	}
	CheckQuality(context.Background(), cfg, 0.95)
	assert.Equal(t, 0, calls)

	CheckQuality(context.Background(), cfg, 0.6)
	assert.Equal(t, 1, calls)
}
