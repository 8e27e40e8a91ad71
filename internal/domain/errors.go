package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError with the same code and message, so sentinel
// errors survive being re-created with a cause attached.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
	ErrCodeUnavailable   = "UNAVAILABLE"
)

// Validation errors
var (
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrNoUserMessage        = NewDomainError(ErrCodeValidation, "conversation has no user message")
	ErrEmptyListingIDs      = NewDomainError(ErrCodeValidation, "no listing ids provided")
	ErrUnknownTool          = NewDomainError(ErrCodeValidation, "unknown tool")
)

// Not found errors
var (
	ErrCacheEntryNotFound = NewDomainError(ErrCodeNotFound, "cache entry not found")
	ErrListingNotFound    = NewDomainError(ErrCodeNotFound, "listing not found")
	ErrNoCOEData          = NewDomainError(ErrCodeNotFound, "no COE results recorded")
)

// Authorization errors
var (
	ErrInvalidAdminToken = NewDomainError(ErrCodeUnauthorized, "invalid admin token")
)

// Upstream errors
var (
	ErrCompletionFailed = NewDomainError(ErrCodeUpstream, "completion request failed")
	ErrEmbeddingFailed  = NewDomainError(ErrCodeUpstream, "embedding request failed")
)

// Availability errors
var (
	ErrDataSourceUnavailable = NewDomainError(ErrCodeUnavailable, "data source not configured")
	ErrIndexUnavailable      = NewDomainError(ErrCodeUnavailable, "knowledge index not available")
)
