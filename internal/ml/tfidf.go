package ml

import "math"

// TfidfTransformer reweights counts by smoothed inverse document frequency
// and L2-normalizes each row.
type TfidfTransformer struct {
	IDF []float64
}

// Fit computes idf = ln((1+n)/(1+df)) + 1 for each of nFeatures columns.
func (t *TfidfTransformer) Fit(X []SparseVector, nFeatures int) {
	df := make([]float64, nFeatures)
	for _, row := range X {
		for k, j := range row.Indices {
			if row.Values[k] > 0 {
				df[j]++
			}
		}
	}
	n := float64(len(X))
	t.IDF = make([]float64, nFeatures)
	for j := range df {
		t.IDF[j] = math.Log((1+n)/(1+df[j])) + 1
	}
}

// Transform returns weighted, normalized copies of X.
func (t *TfidfTransformer) Transform(X []SparseVector) []SparseVector {
	out := make([]SparseVector, len(X))
	for i, row := range X {
		w := SparseVector{
			Indices: append([]int(nil), row.Indices...),
			Values:  make([]float64, len(row.Values)),
		}
		var norm float64
		for k, j := range row.Indices {
			w.Values[k] = row.Values[k] * t.IDF[j]
			norm += w.Values[k] * w.Values[k]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for k := range w.Values {
				w.Values[k] /= norm
			}
		}
		out[i] = w
	}
	return out
}

// FitTransform is Fit followed by Transform.
func (t *TfidfTransformer) FitTransform(X []SparseVector, nFeatures int) []SparseVector {
	t.Fit(X, nFeatures)
	return t.Transform(X)
}
