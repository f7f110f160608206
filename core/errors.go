package core

import "errors"

// ErrDuplicateGeneration is returned by Registry.Register when the id is
// already tracked as in-flight.
var ErrDuplicateGeneration = errors.New("generation id already registered")

// ErrBackendFailure wraps abnormal generator backend terminations (process
// crash, non-zero exit, API error). The raw cause is preserved for
// diagnostics and never silently converted to an empty success.
var ErrBackendFailure = errors.New("generator backend failure")

// ErrMalformedPayload indicates the backend returned data that cannot be
// parsed into the expected result shape. Treated identically to a crash.
var ErrMalformedPayload = errors.New("malformed backend payload")
