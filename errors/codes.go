package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors
const (
	// ErrCodeMissingConfig indicates a required configuration key is absent.
	ErrCodeMissingConfig ErrorCode = "MISSING_CONFIG"
	// ErrCodeInvalidConfig indicates a configuration value is present but unusable.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Remote call errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the discovery agent is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeExternalService indicates an error returned by the discovery agent.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// ErrCodeInternal indicates an internal error.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeExternalService:    true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
