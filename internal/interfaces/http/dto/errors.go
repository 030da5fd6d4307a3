package dto

import (
	"errors"
	"net/http"

	"github.com/procuregate/gateway/internal/domain/document"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation is used when request validation fails
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
)

// Backend error codes
const (
	// ErrCodeBackendNotFound is used when no backend is registered
	// under the requested name
	ErrCodeBackendNotFound = "ERR_BACKEND_NOT_FOUND"
	// ErrCodeBackendUnsupported is used when the backend cannot perform
	// the requested operation
	ErrCodeBackendUnsupported = "ERR_BACKEND_UNSUPPORTED"
	// ErrCodeBackendUnavailable is used when the backend cannot be reached
	ErrCodeBackendUnavailable = "ERR_BACKEND_UNAVAILABLE"
	// ErrCodeBackendAuth is used when backend authentication fails
	ErrCodeBackendAuth = "ERR_BACKEND_AUTH"
	// ErrCodeBackendRejected is used when the backend rejected the
	// request or answered with something unusable
	ErrCodeBackendRejected = "ERR_BACKEND_REJECTED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	ErrCodeNotFound: http.StatusNotFound,

	ErrCodeBackendNotFound:    http.StatusNotFound,
	ErrCodeBackendUnsupported: http.StatusUnprocessableEntity,
	ErrCodeBackendUnavailable: http.StatusServiceUnavailable,
	ErrCodeBackendAuth:        http.StatusBadGateway,
	ErrCodeBackendRejected:    http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// CodeForError maps a domain error to its API error code. Unknown
// errors map to ErrCodeInternal.
func CodeForError(err error) string {
	switch {
	case errors.Is(err, document.ErrBackendRecordNotFound):
		return ErrCodeNotFound
	case errors.Is(err, document.ErrBackendNotFound):
		return ErrCodeBackendNotFound
	case errors.Is(err, document.ErrMissingCapability):
		return ErrCodeBackendUnsupported
	case errors.Is(err, document.ErrBackendAuthFailed):
		return ErrCodeBackendAuth
	case errors.Is(err, document.ErrBackendUnavailable):
		return ErrCodeBackendUnavailable
	case errors.Is(err, document.ErrBackendRequestFailed),
		errors.Is(err, document.ErrBackendInvalidReply):
		return ErrCodeBackendRejected
	case errors.Is(err, document.ErrUnknownDocumentType),
		errors.Is(err, document.ErrNotDispatchable):
		return ErrCodeValidation
	default:
		return ErrCodeInternal
	}
}
