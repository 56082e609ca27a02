// Package forest implements a binary random forest classifier.
//
// Trees are CART trees grown on bootstrap samples with weighted Gini
// impurity and a random subset of features at every split. The forest
// predicts by averaging each tree's leaf probability.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
)

var (
	ErrEmptyTrainingSet = errors.New("training set is empty")
	ErrNotTrained       = errors.New("forest has no trees")
)

// Forest is a trained ensemble. Its fields are exported for persistence
// and should be treated as read-only.
type Forest struct {
	Trees       []Tree
	NumFeatures int
}

// Fit trains a forest on the rows of x with binary labels y (0 or 1).
// Training is deterministic for a given cfg.Seed.
func Fit(ctx context.Context, x [][]float64, y []int, cfg Config) (*Forest, error) {
	if len(x) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("got %d rows but %d labels", len(x), len(y))
	}
	if cfg.NumTrees < 1 {
		return nil, fmt.Errorf("number of trees must be positive, got %d", cfg.NumTrees)
	}
	nFeatures := len(x[0])
	if nFeatures == 0 {
		return nil, errors.New("rows have no features")
	}
	for i, row := range x {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), nFeatures)
		}
		if y[i] != 0 && y[i] != 1 {
			return nil, fmt.Errorf("row %d has label %d, want 0 or 1", i, y[i])
		}
	}

	weights := sampleWeights(y, cfg.BalancedClassWeight)
	maxFeatures := cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(nFeatures)))
	}
	if maxFeatures < 1 {
		maxFeatures = 1
	}
	if maxFeatures > nFeatures {
		maxFeatures = nFeatures
	}

	seeds := make([]int64, cfg.NumTrees)
	master := rand.New(rand.NewSource(cfg.Seed))
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > cfg.NumTrees {
		workers = cfg.NumTrees
	}

	trees := make([]Tree, cfg.NumTrees)
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := &treeBuilder{x: x, y: y, weights: weights, config: cfg, maxFeatures: maxFeatures}
			for i := range jobs {
				b.rng = rand.New(rand.NewSource(seeds[i]))
				trees[i] = b.build(sampleRows(b.rng, len(x), cfg.Bootstrap))
			}
		}()
	}

	var err error
	for i := 0; i < cfg.NumTrees; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	if err != nil {
		return nil, err
	}

	return &Forest{Trees: trees, NumFeatures: nFeatures}, nil
}

// PredictProba returns, for every row, the probability of the positive
// class.
func (f *Forest) PredictProba(x [][]float64) ([]float64, error) {
	if f == nil || len(f.Trees) == 0 {
		return nil, ErrNotTrained
	}
	out := make([]float64, len(x))
	for i, row := range x {
		if len(row) != f.NumFeatures {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), f.NumFeatures)
		}
		var sum float64
		for t := range f.Trees {
			sum += f.Trees[t].proba(row)
		}
		out[i] = sum / float64(len(f.Trees))
	}
	return out, nil
}

// Predict returns the most probable class of every row. Ties go to class 0.
func (f *Forest) Predict(x [][]float64) ([]int, error) {
	probs, err := f.PredictProba(x)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(probs))
	for i, p := range probs {
		if p > 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

// MaxDepth returns the depth of the deepest tree.
func (f *Forest) MaxDepth() int {
	d := 0
	for i := range f.Trees {
		if td := f.Trees[i].depth(); td > d {
			d = td
		}
	}
	return d
}

func sampleWeights(y []int, balanced bool) []float64 {
	w := make([]float64, len(y))
	classW := [2]float64{1, 1}
	if balanced {
		var counts [2]int
		for _, c := range y {
			counts[c]++
		}
		for c, n := range counts {
			if n > 0 {
				classW[c] = float64(len(y)) / (2 * float64(n))
			}
		}
	}
	for i, c := range y {
		w[i] = classW[c]
	}
	return w
}

func sampleRows(rng *rand.Rand, n int, bootstrap bool) []int {
	idx := make([]int, n)
	for i := range idx {
		if bootstrap {
			idx[i] = rng.Intn(n)
		} else {
			idx[i] = i
		}
	}
	return idx
}
