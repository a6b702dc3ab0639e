package chi

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ErrorCode is a machine-readable error class.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest          ErrorCode = "bad_request"
	ErrorCodeValidationFailed    ErrorCode = "validation_failed"
	ErrorCodeUnauthorized        ErrorCode = "unauthorized"
	ErrorCodeProfileNotFound     ErrorCode = "profile_not_found"
	ErrorCodeInvalidQuery        ErrorCode = "invalid_query"
	ErrorCodeUnsupportedGeoShape ErrorCode = "unsupported_geo_shape"
	ErrorCodeInternalError       ErrorCode = "internal_error"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
