package ml

import (
	"math"
	"math/rand"

	"github.com/cockroachdb/errors"
)

// TrainTestSplit shuffles 0..n-1 and holds out ceil(testSize*n) indices for
// testing. Both parts must be non-empty.
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int, err error) {
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, nil, errors.Mark(
			errors.Newf("cannot split %d samples with test size %v", n, testSize),
			ErrModelFit)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}
