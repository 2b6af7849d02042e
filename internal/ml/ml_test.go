package ml

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func fields(s string) []string { return strings.Fields(s) }

// corpus alternates two cleanly separable classes; "help" appears in both.
func corpus() ([]string, [][]int) {
	docs := []string{
		"water help", "food help",
		"water water help", "food food help",
		"water", "food",
		"water water water help", "food food food help",
	}
	Y := make([][]int, len(docs))
	for i := range docs {
		if i%2 == 0 {
			Y[i] = []int{1, 0}
		} else {
			Y[i] = []int{0, 1}
		}
	}
	return docs, Y
}

/* Vectorizer and tfidf ------------------------------------------------ */

func TestCountVectorizer(t *testing.T) {
	v := NewCountVectorizer(fields, 1, 2)
	X, err := v.FitTransform([]string{"b a b", "c"})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"a": 0, "a b": 1, "b": 2, "b a": 3, "c": 4}, v.Vocabulary)
	assert.Equal(t, []int{0, 1, 2, 3}, X[0].Indices)
	assert.Equal(t, []float64{1, 1, 2, 1}, X[0].Values)
	assert.Equal(t, 2.0, X[0].At(2))
	assert.Equal(t, 0.0, X[0].At(4))

	unseen := v.Transform([]string{"d c c"})
	assert.Equal(t, []int{4}, unseen[0].Indices)
	assert.Equal(t, []float64{2}, unseen[0].Values)
}

func TestCountVectorizer_EmptyVocabulary(t *testing.T) {
	v := NewCountVectorizer(fields, 1, 1)
	err := v.Fit([]string{"", "   "})
	assert.True(t, errors.Is(err, ErrModelFit), "got %v", err)
}

func TestTfidfTransformer(t *testing.T) {
	counts := []SparseVector{
		{Indices: []int{0, 1}, Values: []float64{1, 1}},
		{Indices: []int{1}, Values: []float64{3}},
	}
	tf := &TfidfTransformer{}
	X := tf.FitTransform(counts, 2)

	// df = [1, 2], n = 2
	assert.InDelta(t, math.Log(3.0/2.0)+1, tf.IDF[0], 1e-12)
	assert.InDelta(t, 1.0, tf.IDF[1], 1e-12)

	for _, row := range X {
		var norm float64
		for _, v := range row.Values {
			norm += v * v
		}
		assert.InDelta(t, 1.0, norm, 1e-12)
	}
	assert.InDelta(t, 1.0, X[1].Values[0], 1e-12)
	assert.Greater(t, X[0].Values[0], X[0].Values[1])
}

/* Forest -------------------------------------------------------------- */

func fitForest(t *testing.T, workers int) (*RandomForest, *Pipeline) {
	t.Helper()
	docs, Y := corpus()
	p := NewPipeline(fields, Params{NGramMin: 1, NGramMax: 1, MinSamplesSplit: 2},
		ForestConfig{NEstimators: 50, Seed: 7, Workers: workers}, []string{"water", "food"})
	require.NoError(t, p.Fit(context.Background(), docs, Y))
	return p.Classifier.Estimators[0], p
}

func TestRandomForest_Separable(t *testing.T) {
	forest, p := fitForest(t, 0)

	assert.Equal(t, []int{0, 1}, forest.Classes)
	assert.Len(t, forest.Trees, 50)

	got := p.Predict([]string{"water", "food", "water water help", "food food"})
	assert.Equal(t, [][]int{{1, 0}, {0, 1}, {1, 0}, {0, 1}}, got)
}

func TestRandomForest_DeterministicAcrossWorkers(t *testing.T) {
	_, serial := fitForest(t, 1)
	_, parallel := fitForest(t, 4)

	X := serial.Tfidf.Transform(serial.Vectorizer.Transform([]string{"water help", "help", "food"}))
	for _, x := range X {
		assert.Equal(t,
			serial.Classifier.Estimators[1].PredictProba(x),
			parallel.Classifier.Estimators[1].PredictProba(x))
	}
}

func TestRandomForest_SingleClass(t *testing.T) {
	f := NewRandomForest(ForestParams{NEstimators: 3, Seed: 1})
	X := []SparseVector{{Indices: []int{0}, Values: []float64{1}}, {Indices: []int{1}, Values: []float64{1}}}
	require.NoError(t, f.Fit(context.Background(), X, []int{4, 4}, 2))
	assert.Equal(t, 4, f.Predict(SparseVector{}))
}

func TestRandomForest_Empty(t *testing.T) {
	f := NewRandomForest(ForestParams{NEstimators: 3})
	err := f.Fit(context.Background(), nil, nil, 0)
	assert.True(t, errors.Is(err, ErrModelFit), "got %v", err)
}

/* Grid search --------------------------------------------------------- */

func TestParamGrid_Candidates(t *testing.T) {
	g := ParamGrid{NGramRanges: [][2]int{{1, 1}, {1, 2}}, MinSamplesSplit: []int{2, 4}}
	assert.Equal(t, []Params{
		{NGramMin: 1, NGramMax: 1, MinSamplesSplit: 2},
		{NGramMin: 1, NGramMax: 2, MinSamplesSplit: 2},
		{NGramMin: 1, NGramMax: 1, MinSamplesSplit: 4},
		{NGramMin: 1, NGramMax: 2, MinSamplesSplit: 4},
	}, g.Candidates())
}

func TestKFold(t *testing.T) {
	folds := KFold(7, 3)
	require.Len(t, folds, 3)
	assert.Equal(t, []int{0, 1, 2}, folds[0].Test)
	assert.Equal(t, []int{3, 4}, folds[1].Test)
	assert.Equal(t, []int{5, 6}, folds[2].Test)
	assert.Equal(t, []int{0, 1, 2, 5, 6}, folds[1].Train)
}

func TestGridSearch(t *testing.T) {
	docs, Y := corpus()
	gs := NewGridSearch(fields,
		ParamGrid{NGramRanges: [][2]int{{1, 1}, {1, 2}}, MinSamplesSplit: []int{2, 4}},
		4, ForestConfig{NEstimators: 20, Seed: 3}, zaptest.NewLogger(t))

	require.NoError(t, gs.Fit(context.Background(), docs, Y, []string{"water", "food"}))
	require.Len(t, gs.Results, 4)
	for _, r := range gs.Results {
		assert.Len(t, r.FoldScores, 4)
		assert.GreaterOrEqual(t, gs.BestScore(), r.MeanScore)
	}
	require.NotNil(t, gs.Best)
	assert.Equal(t, gs.BestParams(), gs.Best.Params)
	assert.Equal(t, []string{"water", "food"}, gs.Best.Labels)
	assert.Equal(t, [][]int{{1, 0}}, gs.Predict([]string{"water"}))
}

func TestGridSearch_Errors(t *testing.T) {
	docs, Y := corpus()
	logger := zaptest.NewLogger(t)

	empty := NewGridSearch(fields, ParamGrid{}, 2, ForestConfig{NEstimators: 2}, logger)
	err := empty.Fit(context.Background(), docs, Y, nil)
	assert.True(t, errors.Is(err, ErrModelFit), "got %v", err)

	grid := ParamGrid{NGramRanges: [][2]int{{1, 1}}, MinSamplesSplit: []int{2}}
	tiny := NewGridSearch(fields, grid, 2, ForestConfig{NEstimators: 2}, logger)
	err = tiny.Fit(context.Background(), docs[:1], Y[:1], nil)
	assert.True(t, errors.Is(err, ErrModelFit), "got %v", err)

	blank := NewGridSearch(fields, grid, 2, ForestConfig{NEstimators: 2}, logger)
	err = blank.Fit(context.Background(), []string{"", ""}, [][]int{{0}, {1}}, nil)
	assert.True(t, errors.Is(err, ErrModelFit), "got %v", err)
}

/* Split and metrics --------------------------------------------------- */

func TestTrainTestSplit(t *testing.T) {
	train, test, err := TrainTestSplit(10, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, test, 2)
	assert.Len(t, train, 8)

	seen := map[int]bool{}
	for _, i := range append(append([]int(nil), train...), test...) {
		assert.False(t, seen[i])
		seen[i] = true
	}
	assert.Len(t, seen, 10)

	again, _, err := TrainTestSplit(10, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, train, again)

	train, test, err = TrainTestSplit(3, 0.2, 1)
	require.NoError(t, err)
	assert.Len(t, test, 1)
	assert.Len(t, train, 2)

	_, _, err = TrainTestSplit(1, 0.2, 1)
	assert.True(t, errors.Is(err, ErrModelFit), "got %v", err)
}

func TestClassificationReport(t *testing.T) {
	truth := []int{0, 0, 1, 1, 1}
	pred := []int{0, 1, 1, 1, 0}
	r := ClassificationReport(truth, pred)

	require.Len(t, r.Classes, 2)
	c0, c1 := r.Classes[0], r.Classes[1]
	assert.InDelta(t, 0.5, c0.Precision, 1e-12)
	assert.InDelta(t, 0.5, c0.Recall, 1e-12)
	assert.Equal(t, 2, c0.Support)
	assert.InDelta(t, 2.0/3.0, c1.Precision, 1e-12)
	assert.InDelta(t, 2.0/3.0, c1.Recall, 1e-12)
	assert.InDelta(t, 2.0/3.0, c1.F1, 1e-12)
	assert.InDelta(t, 0.6, r.Accuracy, 1e-12)
	assert.InDelta(t, (0.5+2.0/3.0)/2, r.MacroAvg.Precision, 1e-12)
	assert.InDelta(t, (2*0.5+3*2.0/3.0)/5, r.WeightedAvg.Recall, 1e-12)
	assert.Equal(t, 5, r.WeightedAvg.Support)
}

func TestClassificationReport_UnpredictedClass(t *testing.T) {
	r := ClassificationReport([]int{0, 2}, []int{0, 0})
	require.Len(t, r.Classes, 2)
	assert.Equal(t, 2, r.Classes[1].Class)
	assert.Equal(t, 0.0, r.Classes[1].Precision)
	assert.Equal(t, 0.0, r.Classes[1].F1)
}

func TestSubsetAccuracy(t *testing.T) {
	truth := [][]int{{1, 0}, {0, 1}, {1, 1}}
	pred := [][]int{{1, 0}, {0, 0}, {1, 1}}
	assert.InDelta(t, 2.0/3.0, SubsetAccuracy(truth, pred), 1e-12)
	assert.Equal(t, 0.0, SubsetAccuracy(nil, nil))
}

/* Artifact ------------------------------------------------------------ */

func TestSaveLoadModel(t *testing.T) {
	_, p := fitForest(t, 0)
	p.RunID = "run-1"
	p.Faithful = true
	path := filepath.Join(t.TempDir(), "classifier.gob")
	require.NoError(t, SaveModel(path, p))

	loaded, err := LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, p.Labels, loaded.Labels)
	assert.Equal(t, p.Params, loaded.Params)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.True(t, loaded.Faithful)
	loaded.SetTokenizer(fields)

	docs := []string{"water", "food help", "help"}
	assert.Equal(t, p.Predict(docs), loaded.Predict(docs))

	_, err = LoadModel(filepath.Join(t.TempDir(), "absent.gob"))
	assert.Error(t, err)
}
