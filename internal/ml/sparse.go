package ml

import "sort"

// SparseVector holds the non-zero entries of a row, indices ascending.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// At returns the value at feature j.
func (v SparseVector) At(j int) float64 {
	k := sort.SearchInts(v.Indices, j)
	if k < len(v.Indices) && v.Indices[k] == j {
		return v.Values[k]
	}
	return 0
}
