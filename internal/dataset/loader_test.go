package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/diabetes-classifier/internal/dataset"
)

const header = "Pregnancies,PlasmaGlucose,DiastolicBloodPressure,TricepsThickness,SerumInsulin,BMI,DiabetesPedigree,Age,Diabetic"

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "diabetes.csv", header+"\n"+
		"0,171,80,34,23,43.5,1.21,21,0\n"+
		"8,92,93,47,36,21.2,0.16,23,1\n")

	table, err := dataset.LoadFile(path)
	require.NoError(t, err)

	want := &dataset.Table{
		Features: [][]float64{
			{0, 171, 80, 34, 23, 43.5, 1.21, 21},
			{8, 92, 93, 47, 36, 21.2, 0.16, 23},
		},
		Labels: []int{0, 1},
	}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Errorf("LoadFile mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_ColumnOrderIndependent(t *testing.T) {
	dir := t.TempDir()
	// Label first, features shuffled: columns are selected by name.
	path := writeCSV(t, dir, "shuffled.csv",
		"Diabetic,Age,Pregnancies,PlasmaGlucose,DiastolicBloodPressure,TricepsThickness,SerumInsulin,BMI,DiabetesPedigree\n"+
			"1,23,8,92,93,47,36,21.2,0.16\n")

	table, err := dataset.LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, []float64{8, 92, 93, 47, 36, 21.2, 0.16, 23}, table.Features[0])
	assert.Equal(t, 1, table.Labels[0])
}

func TestLoadFile_SkipsBadRows(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "dirty.csv", header+"\n"+
		"0,171,80,34,23,43.5,1.21,21,0\n"+
		"not-a-number,92,93,47,36,21.2,0.16,23,1\n"+
		"8,92,93,47,36,21.2,0.16,23,2\n"+ // invalid label
		"8,92,93,47,36,21.2\n"+ // truncated row
		"8,92,93,47,36,21.2,0.16,23,1,9,9\n"+ // extra fields
		"8,92,93,47,36,21.2,0.16,23,1\n")

	table, err := dataset.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len(), "bad rows should be skipped, not fail the load")
}

func TestLoadFile_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "short.csv", "Pregnancies,Age,Diabetic\n1,20,0\n")

	_, err := dataset.LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestLoadFolder_ConcatenatesFiles(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "b.csv", header+"\n8,92,93,47,36,21.2,0.16,23,1\n")
	writeCSV(t, dir, "a.csv", header+"\n0,171,80,34,23,43.5,1.21,21,0\n")
	writeCSV(t, dir, "notes.txt", "ignored")

	table, err := dataset.LoadFolder(dir)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	// a.csv sorts before b.csv.
	assert.Equal(t, []int{0, 1}, table.Labels)
}

func TestLoadFolder_Empty(t *testing.T) {
	_, err := dataset.LoadFolder(t.TempDir())
	assert.Error(t, err)
}
