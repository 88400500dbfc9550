// Package metrics computes the evaluation metrics reported by the
// trainers: accuracy and the ROC curve / AUC of a binary classifier.
package metrics

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

var errSingleClass = errors.New("metrics: ROC is undefined when only one class is present")

// Accuracy returns the fraction of predictions matching the labels.
func Accuracy(y, yhat []int) float64 {
	if len(y) == 0 {
		return 0
	}
	c := 0
	for i := range y {
		if y[i] == yhat[i] {
			c++
		}
	}
	return float64(c) / float64(len(y))
}

// ROC returns the false-positive and true-positive rates of the
// classifier scores (higher score means more likely positive) against
// the 0/1 labels. Both slices run from (0,0) to (1,1).
func ROC(y []int, scores []float64) (fpr, tpr []float64, err error) {
	sorted, classes, err := rocInput(y, scores)
	if err != nil {
		return nil, nil, err
	}
	tpr, fpr, _ = stat.ROC(nil, sorted, classes, nil)
	return fpr, tpr, nil
}

// AUC returns the area under the ROC curve.
func AUC(y []int, scores []float64) (float64, error) {
	fpr, tpr, err := ROC(y, scores)
	if err != nil {
		return 0, err
	}
	return integrate.Trapezoidal(fpr, tpr), nil
}

// rocInput sorts the scores ascending, as stat.ROC requires, carrying
// the class membership along.
func rocInput(y []int, scores []float64) ([]float64, []bool, error) {
	if len(y) != len(scores) {
		return nil, nil, errors.New("metrics: labels and scores length mismatch")
	}
	pos := 0
	for _, label := range y {
		pos += label
	}
	if pos == 0 || pos == len(y) {
		return nil, nil, errSingleClass
	}

	order := make([]int, len(y))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return scores[order[a]] < scores[order[b]] })

	sorted := make([]float64, len(y))
	classes := make([]bool, len(y))
	for i, idx := range order {
		sorted[i] = scores[idx]
		classes[i] = y[idx] == 1
	}
	return sorted, classes, nil
}
