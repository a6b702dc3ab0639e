package querygate

import "github.com/kailas-cloud/querygate/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery        = domain.ErrInvalidQuery
	ErrInvalidProfile      = domain.ErrInvalidProfile
	ErrProfileNotFound     = domain.ErrProfileNotFound
	ErrUnsupportedGeoShape = domain.ErrUnsupportedGeoShape
)
