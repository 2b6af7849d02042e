package ml

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// ForestParams configures a RandomForest.
type ForestParams struct {
	NEstimators     int
	MinSamplesSplit int
	Seed            int64
	Workers         int // concurrent tree fits; 0 means GOMAXPROCS
}

// RandomForest is a bagged ensemble of decision trees that averages the
// trees' class distributions.
type RandomForest struct {
	Params  ForestParams
	Classes []int // label values, ascending
	Trees   []*DecisionTree
}

// NewRandomForest returns an unfitted forest.
func NewRandomForest(params ForestParams) *RandomForest {
	if params.NEstimators < 1 {
		params.NEstimators = 100
	}
	if params.MinSamplesSplit < 2 {
		params.MinSamplesSplit = 2
	}
	return &RandomForest{Params: params}
}

// Fit grows the trees, each on its own bootstrap sample. Tree i draws from a
// generator seeded with Seed and i, so the result does not depend on Workers.
func (f *RandomForest) Fit(ctx context.Context, X []SparseVector, y []int, nFeatures int) error {
	if len(X) == 0 {
		return errors.Mark(errors.New("no training samples"), ErrModelFit)
	}
	if len(X) != len(y) {
		return errors.Newf("%d samples but %d targets", len(X), len(y))
	}

	f.Classes = uniqueSorted(y)
	index := make(map[int]int, len(f.Classes))
	for i, c := range f.Classes {
		index[c] = i
	}
	yi := make([]int, len(y))
	for i, v := range y {
		yi[i] = index[v]
	}

	maxFeatures := int(math.Sqrt(float64(nFeatures)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	f.Trees = make([]*DecisionTree, f.Params.NEstimators)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(f.Params.Workers))
	for i := range f.Trees {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(f.Params.Seed*1_000_003 + int64(i)))
			samples := make([]int, len(X))
			for k := range samples {
				samples[k] = rng.Intn(len(X))
			}
			f.Trees[i] = fitTree(X, yi, samples, len(f.Classes), nFeatures, f.Params.MinSamplesSplit, maxFeatures, rng)
			return nil
		})
	}
	return g.Wait()
}

// PredictProba averages the class distributions of all trees; entries line
// up with Classes.
func (f *RandomForest) PredictProba(x SparseVector) []float64 {
	proba := make([]float64, len(f.Classes))
	for _, t := range f.Trees {
		for c, p := range t.PredictProba(x) {
			proba[c] += p
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.Trees))
	}
	return proba
}

// Predict returns the most probable class; ties go to the smaller value.
func (f *RandomForest) Predict(x SparseVector) int {
	proba := f.PredictProba(x)
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return f.Classes[best]
}

func uniqueSorted(y []int) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

func workerCount(n int) int {
	if n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}
