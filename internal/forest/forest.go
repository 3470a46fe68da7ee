// Package forest evaluates fitted regression tree ensembles.
package forest

import (
	"errors"
	"fmt"
)

// Leaf marks a node without children in ChildrenLeft/ChildrenRight.
const Leaf = -1

var (
	ErrEmptyTree     = errors.New("tree has no nodes")
	ErrMalformedTree = errors.New("malformed tree")
	ErrNoEstimators  = errors.New("ensemble has no estimators")
	ErrFeatureCount  = errors.New("feature count mismatch")
)

// Tree is a fitted regression tree stored as parallel node arrays.
// Node 0 is the root. A node is a leaf when ChildrenLeft is Leaf; otherwise
// a row goes left when x[Feature] <= Threshold.
type Tree struct {
	ChildrenLeft  []int
	ChildrenRight []int
	Feature       []int
	Threshold     []float64
	Value         []float64
}

// Validate checks the node arrays are consistent for nFeatures inputs.
// Children must have a larger index than their parent, so traversal always
// terminates.
func (t *Tree) Validate(nFeatures int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return ErrEmptyTree
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("%w: node arrays have different lengths", ErrMalformedTree)
	}
	for i := 0; i < n; i++ {
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
		if left == Leaf {
			if right != Leaf {
				return fmt.Errorf("%w: node %d has only a right child", ErrMalformedTree, i)
			}
			continue
		}
		if left <= i || left >= n || right <= i || right >= n {
			return fmt.Errorf("%w: node %d has children out of range (%d, %d)", ErrMalformedTree, i, left, right)
		}
		if f := t.Feature[i]; f < 0 || f >= nFeatures {
			return fmt.Errorf("%w: node %d splits on feature %d of %d", ErrMalformedTree, i, f, nFeatures)
		}
	}
	return nil
}

// Predict returns the leaf value reached by x.
func (t *Tree) Predict(x []float64) float64 {
	node := 0
	for t.ChildrenLeft[node] != Leaf {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

// Forest is a fitted ensemble of regression trees sharing one feature schema.
type Forest struct {
	featureNames []string
	trees        []*Tree
}

// New validates trees against featureNames and returns the ensemble.
func New(featureNames []string, trees []*Tree) (*Forest, error) {
	if len(trees) == 0 {
		return nil, ErrNoEstimators
	}
	for i, t := range trees {
		if err := t.Validate(len(featureNames)); err != nil {
			return nil, fmt.Errorf("estimator %d: %w", i, err)
		}
	}
	return &Forest{
		featureNames: append([]string(nil), featureNames...),
		trees:        trees,
	}, nil
}

// Features returns the column names the ensemble was fit on, in order.
func (f *Forest) Features() []string {
	return append([]string(nil), f.featureNames...)
}

// NumMembers returns the number of trees.
func (f *Forest) NumMembers() int {
	return len(f.trees)
}

// PredictMember evaluates tree i on a single row.
func (f *Forest) PredictMember(i int, x []float64) (float64, error) {
	if i < 0 || i >= len(f.trees) {
		return 0, fmt.Errorf("estimator %d out of range [0, %d)", i, len(f.trees))
	}
	if len(x) != len(f.featureNames) {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrFeatureCount, len(x), len(f.featureNames))
	}
	return f.trees[i].Predict(x), nil
}

// Predict returns the ensemble's aggregate prediction, the mean over trees.
func (f *Forest) Predict(x []float64) (float64, error) {
	var sum float64
	for i := range f.trees {
		v, err := f.PredictMember(i, x)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / float64(len(f.trees)), nil
}
