package selection

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/taxitip/pkg/errors"
)

// FoldAssignment maps every observation to a fold in [0, K). Fold sizes
// differ by at most one.
type FoldAssignment struct {
	K     int
	Folds []int
	Seed  uint64
}

// NewFoldAssignment draws a seeded permutation of the n rows and deals it
// round-robin into k folds.
func NewFoldAssignment(n, k int, seed uint64) (*FoldAssignment, error) {
	if k <= 1 || k > n {
		return nil, errors.NewInvalidFoldCountError(k, n)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	folds := make([]int, n)
	for pos, row := range rng.Perm(n) {
		folds[row] = pos % k
	}
	return &FoldAssignment{K: k, Folds: folds, Seed: seed}, nil
}

// Split returns the training rows (outside fold) and the test rows (inside
// fold), each in ascending order.
func (a *FoldAssignment) Split(fold int) (train, test []int) {
	for row, f := range a.Folds {
		if f == fold {
			test = append(test, row)
		} else {
			train = append(train, row)
		}
	}
	return train, test
}

// Sizes returns the number of rows in each fold.
func (a *FoldAssignment) Sizes() []int {
	sizes := make([]int, a.K)
	for _, f := range a.Folds {
		sizes[f]++
	}
	return sizes
}
