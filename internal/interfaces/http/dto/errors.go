package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Unlisted codes fall through to 422: they are all business rule rejections
// raised after the request parsed cleanly.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeNotFound:     http.StatusNotFound,

	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"FORBIDDEN":            http.StatusForbidden,

	"INVALID_INPUT":          http.StatusBadRequest,
	"TERM_TOO_SHORT":         http.StatusBadRequest,
	"INVALID_PARTY_KIND":     http.StatusBadRequest,
	"INVALID_PERIOD":         http.StatusBadRequest,
	"INVALID_AMOUNT":         http.StatusBadRequest,
	"INVALID_DATE_RANGE":     http.StatusBadRequest,
	"INVALID_CLASSIFICATION": http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status for a domain error code
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}
