package ml

import (
	"context"

	"github.com/cockroachdb/errors"
)

// MultiOutputClassifier fits one independent forest per label column.
type MultiOutputClassifier struct {
	Params     ForestParams
	Estimators []*RandomForest
}

// NewMultiOutputClassifier returns an unfitted classifier.
func NewMultiOutputClassifier(params ForestParams) *MultiOutputClassifier {
	return &MultiOutputClassifier{Params: params}
}

// Fit trains on Y, one row per sample and one column per label.
func (m *MultiOutputClassifier) Fit(ctx context.Context, X []SparseVector, Y [][]int, nFeatures int) error {
	if len(Y) == 0 || len(Y[0]) == 0 {
		return errors.Mark(errors.New("no label columns to fit"), ErrModelFit)
	}

	nLabels := len(Y[0])
	m.Estimators = make([]*RandomForest, nLabels)
	y := make([]int, len(Y))
	for j := 0; j < nLabels; j++ {
		for i, row := range Y {
			y[i] = row[j]
		}
		params := m.Params
		params.Seed += int64(j) * 7919
		est := NewRandomForest(params)
		if err := est.Fit(ctx, X, y, nFeatures); err != nil {
			return errors.Wrapf(err, "label column %d", j)
		}
		m.Estimators[j] = est
	}
	return nil
}

// Predict returns one row of label values per sample.
func (m *MultiOutputClassifier) Predict(X []SparseVector) [][]int {
	out := make([][]int, len(X))
	for i, x := range X {
		row := make([]int, len(m.Estimators))
		for j, est := range m.Estimators {
			row[j] = est.Predict(x)
		}
		out[i] = row
	}
	return out
}
