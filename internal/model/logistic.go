package model

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

var (
	errEmptyX         = errors.New("model: empty feature matrix")
	errLengthMismatch = errors.New("model: X and y length mismatch")
	errRaggedX        = errors.New("model: inconsistent number of features in X rows")
	errNotFitted      = errors.New("model: classifier has not been fitted")
)

// LogisticRegression is a binary logistic regression classifier trained
// with mini-batch gradient descent on the cross-entropy loss, with an
// L2 penalty of strength 1/C (C is the inverse regularization rate).
type LogisticRegression struct {
	Weights []float64
	Bias    float64

	C            float64
	LearningRate float64
	Epochs       int
	BatchSize    int
	Seed         int64
}

// LogisticOption configures a LogisticRegression before fitting.
type LogisticOption func(*LogisticRegression)

// WithC sets the inverse regularization strength (C = 1/reg).
func WithC(c float64) LogisticOption {
	return func(m *LogisticRegression) { m.C = c }
}

// WithLearningRate sets the gradient descent step size.
func WithLearningRate(lr float64) LogisticOption {
	return func(m *LogisticRegression) { m.LearningRate = lr }
}

// WithEpochs sets the number of passes over the training data.
func WithEpochs(n int) LogisticOption {
	return func(m *LogisticRegression) { m.Epochs = n }
}

// WithBatchSize sets the mini-batch size.
func WithBatchSize(n int) LogisticOption {
	return func(m *LogisticRegression) { m.BatchSize = n }
}

// WithSeed fixes the shuffle order used during fitting.
func WithSeed(seed int64) LogisticOption {
	return func(m *LogisticRegression) { m.Seed = seed }
}

// NewLogisticRegression returns a classifier with sensible defaults.
func NewLogisticRegression(opts ...LogisticOption) *LogisticRegression {
	m := &LogisticRegression{
		C:            1.0,
		LearningRate: 0.1,
		Epochs:       100,
		BatchSize:    64,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Name implements Classifier.
func (m *LogisticRegression) Name() string { return "logistic_regression" }

// Fit trains the model. Feature rows are standardized implicitly by the
// caller if desired; Fit itself consumes the matrix as-is.
func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	p, err := validateXY(X, y)
	if err != nil {
		return err
	}
	if m.C <= 0 {
		return errors.New("model: C must be positive")
	}

	n := len(X)
	batch := m.BatchSize
	if batch <= 0 || batch > n {
		batch = n
	}
	lambda := 1.0 / m.C

	m.Weights = make([]float64, p)
	m.Bias = 0
	rnd := rand.New(rand.NewSource(m.Seed))

	gW := make([]float64, p)
	for ep := 0; ep < m.Epochs; ep++ {
		order := rnd.Perm(n)
		for start := 0; start < n; start += batch {
			end := start + batch
			if end > n {
				end = n
			}

			for j := range gW {
				gW[j] = 0
			}
			gb := 0.0
			for _, i := range order[start:end] {
				// d is the derivative of the cross-entropy loss
				// w.r.t. the pre-sigmoid score.
				d := sigmoid(floats.Dot(m.Weights, X[i])+m.Bias) - float64(y[i])
				floats.AddScaled(gW, d, X[i])
				gb += d
			}

			size := float64(end - start)
			step := m.LearningRate / size
			// L2 penalty pulls weights toward zero; the bias is not penalized.
			floats.AddScaled(m.Weights, -m.LearningRate*lambda/float64(n), m.Weights)
			floats.AddScaled(m.Weights, -step, gW)
			m.Bias -= step * gb
		}
	}
	return nil
}

// PredictProba returns p(y=1) for each row of X.
func (m *LogisticRegression) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = sigmoid(floats.Dot(m.Weights, row) + m.Bias)
	}
	return out
}

// Predict returns the class labels based on a 0.5 probability threshold.
func (m *LogisticRegression) Predict(X [][]float64) []int {
	proba := m.PredictProba(X)
	out := make([]int, len(proba))
	for i, p := range proba {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out
}

func sigmoid(z float64) float64 {
	// Split on sign to avoid overflow in math.Exp for large |z|.
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1.0 + e)
}
