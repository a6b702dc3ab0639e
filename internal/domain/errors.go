package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals a malformed search request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidProfile signals a malformed tenant profile.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrProfileNotFound signals a tenant without a stored profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrUnsupportedGeoShape signals a geo filter the engine cannot express.
	ErrUnsupportedGeoShape = errors.New("unsupported geo shape")
)

// FilterError wraps a compilation failure with the name of the offending filter.
type FilterError struct {
	Filter string
	Err    error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %q: %s", e.Filter, e.Err.Error())
}

func (e *FilterError) Unwrap() error { return e.Err }
