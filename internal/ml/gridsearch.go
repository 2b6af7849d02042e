package ml

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ParamGrid lists the values tried for each hyperparameter.
type ParamGrid struct {
	NGramRanges     [][2]int
	MinSamplesSplit []int
}

// Candidates enumerates the grid with min_samples_split as the outer loop.
func (g ParamGrid) Candidates() []Params {
	var out []Params
	for _, m := range g.MinSamplesSplit {
		for _, r := range g.NGramRanges {
			out = append(out, Params{NGramMin: r[0], NGramMax: r[1], MinSamplesSplit: m})
		}
	}
	return out
}

// CandidateResult is the cross-validation outcome of one parameter set.
// A fold that could not be fitted scores NaN, and so does the mean.
type CandidateResult struct {
	Params     Params
	FoldScores []float64
	MeanScore  float64
}

// Fold holds train and test indices of one cross-validation split.
type Fold struct {
	Train []int
	Test  []int
}

// KFold splits 0..n-1 into k contiguous test folds; the first n%k folds get
// one extra sample.
func KFold(n, k int) []Fold {
	folds := make([]Fold, 0, k)
	start := 0
	for i := 0; i < k; i++ {
		size := n / k
		if i < n%k {
			size++
		}
		f := Fold{}
		for j := 0; j < n; j++ {
			if j >= start && j < start+size {
				f.Test = append(f.Test, j)
			} else {
				f.Train = append(f.Train, j)
			}
		}
		folds = append(folds, f)
		start += size
	}
	return folds
}

// GridSearch cross-validates every candidate of Grid by subset accuracy and
// refits the best one on all the data.
type GridSearch struct {
	Grid   ParamGrid
	Folds  int
	Forest ForestConfig

	Results   []CandidateResult
	BestIndex int
	Best      *Pipeline

	tokenize TokenizeFunc
	logger   *zap.Logger
}

// NewGridSearch returns an unfitted search.
func NewGridSearch(tokenize TokenizeFunc, grid ParamGrid, folds int, forest ForestConfig, logger *zap.Logger) *GridSearch {
	return &GridSearch{
		Grid:     grid,
		Folds:    folds,
		Forest:   forest,
		tokenize: tokenize,
		logger:   logger,
	}
}

// Fit runs the search on docs and Y; labels names the columns of Y.
func (gs *GridSearch) Fit(ctx context.Context, docs []string, Y [][]int, labels []string) error {
	candidates := gs.Grid.Candidates()
	if len(candidates) == 0 {
		return errors.Mark(errors.New("parameter grid is empty"), ErrModelFit)
	}
	if len(docs) < 2 {
		return errors.Mark(errors.Newf("need at least 2 training documents, got %d", len(docs)), ErrModelFit)
	}

	k := gs.Folds
	if k > len(docs) {
		k = len(docs)
	}
	if k < 2 {
		k = 2
	}
	folds := KFold(len(docs), k)

	gs.Results = gs.Results[:0]
	gs.BestIndex = -1
	for ci, params := range candidates {
		res := CandidateResult{Params: params}
		var sum float64
		for fi, fold := range folds {
			score, err := gs.scoreFold(ctx, params, fold, docs, Y, labels)
			if err != nil {
				if !errors.Is(err, ErrModelFit) {
					return err
				}
				gs.logger.Warn("Fold could not be fitted",
					zap.String("params", params.String()),
					zap.Int("fold", fi),
					zap.Error(err))
				score = math.NaN()
			}
			res.FoldScores = append(res.FoldScores, score)
			sum += score
		}
		res.MeanScore = sum / float64(len(folds))
		gs.Results = append(gs.Results, res)

		gs.logger.Info("Candidate evaluated",
			zap.String("params", params.String()),
			zap.Float64("mean_score", res.MeanScore))

		if math.IsNaN(res.MeanScore) {
			continue
		}
		if gs.BestIndex < 0 || res.MeanScore > gs.Results[gs.BestIndex].MeanScore {
			gs.BestIndex = ci
		}
	}
	if gs.BestIndex < 0 {
		return errors.Mark(errors.New("no parameter set could be fitted"), ErrModelFit)
	}

	best := gs.Results[gs.BestIndex].Params
	gs.Best = NewPipeline(gs.tokenize, best, gs.Forest, labels)
	if err := gs.Best.Fit(ctx, docs, Y); err != nil {
		return errors.Wrapf(err, "refit %s", best)
	}
	return nil
}

func (gs *GridSearch) scoreFold(ctx context.Context, params Params, fold Fold, docs []string, Y [][]int, labels []string) (float64, error) {
	trainDocs, trainY := subset(fold.Train, docs, Y)
	testDocs, testY := subset(fold.Test, docs, Y)

	p := NewPipeline(gs.tokenize, params, gs.Forest, labels)
	if err := p.Fit(ctx, trainDocs, trainY); err != nil {
		return 0, err
	}
	return SubsetAccuracy(testY, p.Predict(testDocs)), nil
}

// BestParams returns the winning parameter set. Valid after Fit.
func (gs *GridSearch) BestParams() Params { return gs.Results[gs.BestIndex].Params }

// BestScore returns the winning mean cross-validation score. Valid after Fit.
func (gs *GridSearch) BestScore() float64 { return gs.Results[gs.BestIndex].MeanScore }

// Predict delegates to the refit best pipeline.
func (gs *GridSearch) Predict(docs []string) [][]int { return gs.Best.Predict(docs) }

func subset(idx []int, docs []string, Y [][]int) ([]string, [][]int) {
	d := make([]string, len(idx))
	y := make([][]int, len(idx))
	for i, j := range idx {
		d[i] = docs[j]
		y[i] = Y[j]
	}
	return d, y
}
