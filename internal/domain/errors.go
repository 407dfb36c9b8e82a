// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import "errors"

// ErrorType represents the semantic category of an error
type ErrorType int

const (
	ErrorTypeValidation   ErrorType = iota // Input validation errors (400 Bad Request)
	ErrorTypeNotFound                      // Resource not found errors (404 Not Found)
	ErrorTypeConflict                      // Resource conflict errors (409 Conflict)
	ErrorTypeInternal                      // Internal server errors (500 Internal Server Error)
	ErrorTypeUnavailable                   // Service unavailable errors (503 Service Unavailable)
	ErrorTypeUnauthorized                  // Authentication errors (401 Unauthorized)
	ErrorTypeUpstream                      // Meeting service unreachable or malformed (502 Bad Gateway)
)

// Sentinel errors for the presence core. Domain errors built by the constructors
// below wrap one of these so callers can match with errors.Is.
var (
	ErrUpstream            = errors.New("meeting service unavailable")
	ErrUnrecognizedMeeting = errors.New("webhook is for a different meeting")
	ErrUnknownEventKind    = errors.New("unknown webhook event")
	ErrAnomalousTransition = errors.New("anomalous presence transition")
	ErrNotFound            = errors.New("not found")
	ErrUnstableIdentity    = errors.New("identity is not stable across sessions")
	ErrAmbiguousMatch      = errors.New("more than one attendee matches")
	ErrUnauthorized        = errors.New("unauthorized")
)

// DomainError represents an error with semantic type information
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error // underlying error for wrapping
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// GetErrorType returns the semantic type of an error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ErrorTypeInternal // default fallback
}

// Error constructors for different types
func NewValidationError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Message: message, Err: errors.Join(err...)}
}

func NewNotFoundError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeNotFound, Message: message, Err: errors.Join(append([]error{ErrNotFound}, err...)...)}
}

func NewConflictError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeConflict, Message: message, Err: errors.Join(err...)}
}

func NewInternalError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInternal, Message: message, Err: errors.Join(err...)}
}

func NewUnavailableError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnavailable, Message: message, Err: errors.Join(err...)}
}

// NewUpstreamError reports a failed or malformed call to the meeting service.
func NewUpstreamError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUpstream, Message: message, Err: errors.Join(append([]error{ErrUpstream}, err...)...)}
}

// NewUnauthorizedError reports a webhook call that failed authentication.
func NewUnauthorizedError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnauthorized, Message: message, Err: errors.Join(append([]error{ErrUnauthorized}, err...)...)}
}

// NewUnrecognizedMeetingError reports a webhook delivered for a meeting we do not monitor.
func NewUnrecognizedMeetingError(meetingID string) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Message: "meeting " + meetingID + " is not monitored", Err: ErrUnrecognizedMeeting}
}

// NewUnknownEventKindError reports a webhook event kind we cannot process.
func NewUnknownEventKindError(kind string) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Message: "unsupported event type " + kind, Err: ErrUnknownEventKind}
}

// NewAnomalousTransitionError reports a join or leave seen while the call is inactive.
func NewAnomalousTransitionError(message string) *DomainError {
	return &DomainError{Type: ErrorTypeConflict, Message: message, Err: ErrAnomalousTransition}
}

// NewUnstableIdentityError reports an attempt to link a provisional attendee.
func NewUnstableIdentityError(message string) *DomainError {
	return &DomainError{Type: ErrorTypeConflict, Message: message, Err: ErrUnstableIdentity}
}

// NewAmbiguousMatchError reports a display name shared by several attendees.
func NewAmbiguousMatchError(message string) *DomainError {
	return &DomainError{Type: ErrorTypeConflict, Message: message, Err: ErrAmbiguousMatch}
}
