// Package model implements the binary classifiers trained and served
// by this repository, and the on-disk artifact format for them.
package model

// Classifier is a binary classifier over float feature rows.
// Labels are 0 (negative) and 1 (positive).
type Classifier interface {
	// Fit trains the classifier on X (n rows x p features) and y (n labels).
	Fit(X [][]float64, y []int) error
	// Predict returns the class label for each row of X.
	Predict(X [][]float64) []int
	// PredictProba returns p(y=1) for each row of X.
	PredictProba(X [][]float64) []float64
	// Name identifies the classifier kind in artifacts and logs.
	Name() string
}

func validateXY(X [][]float64, y []int) (nFeatures int, err error) {
	if len(X) == 0 {
		return 0, errEmptyX
	}
	if len(y) != len(X) {
		return 0, errLengthMismatch
	}
	p := len(X[0])
	for i := range X {
		if len(X[i]) != p {
			return 0, errRaggedX
		}
	}
	return p, nil
}
