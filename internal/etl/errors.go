package etl

import "github.com/cockroachdb/errors"

// Error kinds returned by the loader and cleaner. Check with errors.Is.
var (
	ErrFileNotFound           = errors.New("file not found")
	ErrJoinKeyMissing         = errors.New("join key missing")
	ErrMalformedCSV           = errors.New("malformed csv")
	ErrMalformedCategoryToken = errors.New("malformed category token")
)
