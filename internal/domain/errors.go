package domain

import "errors"

// Error taxonomy shared by the pipeline and its adapters. Adapters wrap
// the underlying cause with one of these so callers can use errors.Is.
var (
	ErrNetwork           = errors.New("network error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrEmptyInput        = errors.New("empty input")
	ErrSinkWrite         = errors.New("sink write failed")
)
