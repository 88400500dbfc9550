package model

import (
	"errors"
	"math"
	"sort"
)

// DecisionTree is a CART-style binary classifier. Splits are numeric
// (x <= threshold goes left) and chosen by impurity decrease.
type DecisionTree struct {
	MaxDepth        int    // 0 => no limit
	MinSamplesSplit int    // minimum samples to attempt a split
	MinSamplesLeaf  int    // minimum samples required in each leaf
	Criterion       string // "gini" (default) or "entropy"

	// Root is exported so a fitted tree survives the gob artifact codec.
	Root *TreeNode
}

// TreeNode holds one node of a fitted tree.
type TreeNode struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode

	// Leaf data
	Samples  int
	Positive float64 // fraction of label-1 samples at this leaf
}

// TreeOption configures a DecisionTree before fitting.
type TreeOption func(*DecisionTree)

// WithMaxDepth limits tree depth (root is depth 0).
func WithMaxDepth(d int) TreeOption { return func(t *DecisionTree) { t.MaxDepth = d } }

// WithMinSamplesSplit sets the minimum samples to attempt a split.
func WithMinSamplesSplit(n int) TreeOption { return func(t *DecisionTree) { t.MinSamplesSplit = n } }

// WithMinSamplesLeaf sets the minimum samples per leaf.
func WithMinSamplesLeaf(n int) TreeOption { return func(t *DecisionTree) { t.MinSamplesLeaf = n } }

// WithCriterion selects the impurity measure, "gini" or "entropy".
func WithCriterion(c string) TreeOption { return func(t *DecisionTree) { t.Criterion = c } }

// NewDecisionTree returns a classifier with sensible defaults.
func NewDecisionTree(opts ...TreeOption) *DecisionTree {
	t := &DecisionTree{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Criterion:       "gini",
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Name implements Classifier.
func (t *DecisionTree) Name() string { return "decision_tree" }

// Fit grows the tree on X and y.
func (t *DecisionTree) Fit(X [][]float64, y []int) error {
	p, err := validateXY(X, y)
	if err != nil {
		return err
	}
	switch t.Criterion {
	case "gini", "entropy":
	default:
		return errors.New("model: criterion must be \"gini\" or \"entropy\"")
	}

	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	t.Root = t.grow(X, y, idx, 0, p)
	return nil
}

// Predict returns the class labels based on a 0.5 leaf-probability threshold.
func (t *DecisionTree) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, p := range t.PredictProba(X) {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out
}

// PredictProba returns the positive-class fraction of the leaf each row
// falls into.
func (t *DecisionTree) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = t.proba(row)
	}
	return out
}

func (t *DecisionTree) proba(x []float64) float64 {
	node := t.Root
	if node == nil {
		return 0.5
	}
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Positive
}

func (t *DecisionTree) grow(X [][]float64, y []int, idx []int, depth, p int) *TreeNode {
	pos := 0
	for _, i := range idx {
		pos += y[i]
	}

	leaf := func() *TreeNode {
		return &TreeNode{
			Leaf:     true,
			Samples:  len(idx),
			Positive: float64(pos) / float64(len(idx)),
		}
	}

	if pos == 0 || pos == len(idx) { // pure
		return leaf()
	}
	if len(idx) < t.MinSamplesSplit {
		return leaf()
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return leaf()
	}

	parent := t.impurity(pos, len(idx))
	best := split{feature: -1, gain: math.Inf(-1)}
	for f := 0; f < p; f++ {
		if s := t.bestSplitForFeature(X, y, idx, f, parent); s.feature >= 0 && s.gain > best.gain {
			best = s
		}
	}
	// An impure node still splits at zero gain; a deeper split may
	// separate the classes even when no single threshold does. Only a
	// node with no candidate at all (all feature values tied) becomes
	// a leaf.
	if best.feature < 0 {
		return leaf()
	}

	node := &TreeNode{
		Feature:   best.feature,
		Threshold: best.threshold,
		Samples:   len(idx),
	}
	node.Left = t.grow(X, y, best.left, depth+1, p)
	node.Right = t.grow(X, y, best.right, depth+1, p)
	return node
}

type split struct {
	gain      float64
	feature   int
	threshold float64
	left      []int
	right     []int
}

// bestSplitForFeature scans the sorted values of feature f for the
// threshold with the largest impurity decrease.
func (t *DecisionTree) bestSplitForFeature(X [][]float64, y []int, idx []int, f int, parent float64) split {
	best := split{feature: -1, gain: math.Inf(-1)}

	order := append([]int(nil), idx...)
	sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

	// Prefix sum of positives lets each candidate threshold be scored
	// in O(1).
	total := len(order)
	totalPos := 0
	for _, i := range order {
		totalPos += y[i]
	}

	leftPos := 0
	for s := 1; s < total; s++ {
		leftPos += y[order[s-1]]
		if X[order[s]][f] == X[order[s-1]][f] {
			continue
		}
		if s < t.MinSamplesLeaf || total-s < t.MinSamplesLeaf {
			continue
		}

		impL := t.impurity(leftPos, s)
		impR := t.impurity(totalPos-leftPos, total-s)
		weighted := (float64(s)*impL + float64(total-s)*impR) / float64(total)
		gain := parent - weighted
		if gain > best.gain {
			best = split{
				gain:      gain,
				feature:   f,
				threshold: (X[order[s-1]][f] + X[order[s]][f]) / 2.0,
				left:      append([]int(nil), order[:s]...),
				right:     append([]int(nil), order[s:]...),
			}
		}
	}
	return best
}

func (t *DecisionTree) impurity(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	if t.Criterion == "entropy" {
		res := 0.0
		if p > 0 {
			res -= p * math.Log2(p)
		}
		if p < 1 {
			res -= (1 - p) * math.Log2(1-p)
		}
		return res
	}
	return 2 * p * (1 - p) // gini for two classes
}
