// Package dataset loads the tabular diabetes data used for training.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/your-org/diabetes-classifier/pkg/logger"
)

// FeatureColumns lists the predictor columns, in model input order.
var FeatureColumns = []string{
	"Pregnancies",
	"PlasmaGlucose",
	"DiastolicBloodPressure",
	"TricepsThickness",
	"SerumInsulin",
	"BMI",
	"DiabetesPedigree",
	"Age",
}

// LabelColumn is the binary outcome column (0 or 1).
const LabelColumn = "Diabetic"

// Table holds a loaded feature matrix and the aligned label vector.
type Table struct {
	Features [][]float64
	Labels   []int
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Features) }

// Append adds all rows of other to t.
func (t *Table) Append(other *Table) {
	t.Features = append(t.Features, other.Features...)
	t.Labels = append(t.Labels, other.Labels...)
}

// LoadFolder reads every .csv file in dir and concatenates their rows
// into a single Table. Files are read in lexical order.
func LoadFolder(dir string) (*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data folder: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no csv files found in %s", dir)
	}
	sort.Strings(files)

	table := &Table{}
	for _, f := range files {
		part, err := LoadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
		table.Append(part)
	}
	logger.Infof("Loaded %d rows from %d files in %s", table.Len(), len(files), dir)
	return table, nil
}

// LoadFile reads a single CSV file into a Table. The file must have a
// header containing the feature columns and the label column, in any
// order. Rows that fail to parse are skipped with a warning.
func LoadFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("csv file %s is empty", path)
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	table := &Table{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if errors.Is(err, csv.ErrFieldCount) {
			logger.Warnf("Skipping record with %d fields, expected %d", len(record), len(header))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}

		row := make([]float64, len(FeatureColumns))
		ok := true
		for i, name := range FeatureColumns {
			v, err := strconv.ParseFloat(record[cols[name]], 64)
			if err != nil {
				logger.Warnf("Skipping record due to %s parse error: %v", name, err)
				ok = false
				break
			}
			row[i] = v
		}
		if !ok {
			continue
		}

		label, err := strconv.Atoi(strings.TrimSpace(record[cols[LabelColumn]]))
		if err != nil || (label != 0 && label != 1) {
			logger.Warnf("Skipping record due to invalid label %q", record[cols[LabelColumn]])
			continue
		}

		table.Features = append(table.Features, row)
		table.Labels = append(table.Labels, label)
	}
	return table, nil
}

// columnIndex maps required column names to their header positions.
func columnIndex(header []string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}

	cols := make(map[string]int, len(FeatureColumns)+1)
	for _, name := range append(append([]string{}, FeatureColumns...), LabelColumn) {
		i, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
		cols[name] = i
	}
	return cols, nil
}
