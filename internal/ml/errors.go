package ml

import "github.com/cockroachdb/errors"

// ErrModelFit marks a training failure that no parameter choice can fix:
// empty input, an empty vocabulary, or an empty parameter grid.
var ErrModelFit = errors.New("model fit failed")
