package errs

import "errors"

// Sentinel errors shared by services and repositories. Handlers translate
// these to HTTP status codes; everything else surfaces as a 500.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("not allowed to access this resource")
	ErrValidation   = errors.New("invalid input")
)
