package api

import (
	"errors"
	"net/http"
)

// AppError is an HTTP-mappable error carrying the stable machine-readable
// code clients switch on. The message is what the user sees; server faults
// keep it deliberately generic.
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Authentication failures (401).
var (
	ErrMissingAuthHeader = &AppError{Status: http.StatusUnauthorized, Code: "MISSING_AUTH_HEADER", Message: "Authorization header required"}
	ErrMissingToken      = &AppError{Status: http.StatusUnauthorized, Code: "MISSING_TOKEN", Message: "Token required"}
	ErrTokenExpired      = &AppError{Status: http.StatusUnauthorized, Code: "TOKEN_EXPIRED", Message: "Token expired"}
	ErrInvalidPayload    = &AppError{Status: http.StatusUnauthorized, Code: "INVALID_TOKEN_PAYLOAD", Message: "Invalid token payload"}
	ErrInvalidFormat     = &AppError{Status: http.StatusUnauthorized, Code: "INVALID_TOKEN_FORMAT", Message: "Invalid token format"}
)

// Message validation failures (400).
var (
	ErrInvalidMessage   = &AppError{Status: http.StatusBadRequest, Code: "INVALID_MESSAGE", Message: "Valid message is required"}
	ErrMessageTooLong   = &AppError{Status: http.StatusBadRequest, Code: "MESSAGE_TOO_LONG", Message: "Message too long (max 1000 characters)"}
	ErrMaliciousContent = &AppError{Status: http.StatusBadRequest, Code: "MALICIOUS_CONTENT", Message: "Invalid message content detected"}
)

// Rate limiting (429).
var (
	ErrRateLimitExceeded = &AppError{Status: http.StatusTooManyRequests, Code: "RATE_LIMIT_EXCEEDED", Message: "Too many requests from this IP, please try again later."}
	ErrDailyLimitReached = &AppError{Status: http.StatusTooManyRequests, Code: "DAILY_LIMIT_EXCEEDED", Message: "Daily message limit reached. Please try again tomorrow."}
)

// Server faults and routing.
var (
	ErrAuthService      = &AppError{Status: http.StatusInternalServerError, Code: "AUTH_SERVICE_ERROR", Message: "Authentication service error"}
	ErrInternal         = &AppError{Status: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: "Bappa is experiencing some difficulties. Please try again in a moment."}
	ErrEndpointNotFound = &AppError{Status: http.StatusNotFound, Code: "ENDPOINT_NOT_FOUND", Message: "Endpoint not found"}
)

// HandleError writes err as a JSON error envelope. Anything that is not an
// *AppError is masked as a generic 500 so internal detail never reaches the
// client.
func HandleError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		JSON(w, appErr.Status, appErr)
		return
	}
	JSON(w, ErrInternal.Status, ErrInternal)
}
