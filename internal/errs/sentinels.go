// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across transport/rowstore/service layers.
var (
	// ErrNotFound indicates the requested record could not be resolved by id.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates bad input shape or range, rejected before any network call.
	ErrValidation = errors.New("validation failed")

	// ErrAuthRequired indicates no usable token is available and silent refresh
	// failed. Distinct from transport errors so callers can route to login.
	ErrAuthRequired = errors.New("authentication required")

	// ErrSchemaMissing indicates an expected table is absent where the domain
	// requires it to be pre-provisioned.
	ErrSchemaMissing = errors.New("table missing")
)
