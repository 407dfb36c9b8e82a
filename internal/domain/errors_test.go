// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetErrorType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{"validation", NewValidationError("bad"), ErrorTypeValidation},
		{"not found", NewNotFoundError("missing"), ErrorTypeNotFound},
		{"conflict", NewConflictError("conflict"), ErrorTypeConflict},
		{"internal", NewInternalError("boom"), ErrorTypeInternal},
		{"unavailable", NewUnavailableError("down"), ErrorTypeUnavailable},
		{"upstream", NewUpstreamError("zoom down"), ErrorTypeUpstream},
		{"unauthorized", NewUnauthorizedError("nope"), ErrorTypeUnauthorized},
		{"wrapped", fmt.Errorf("outer: %w", NewUpstreamError("zoom down")), ErrorTypeUpstream},
		{"plain error falls back to internal", errors.New("plain"), ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorType(tt.err))
		})
	}
}

func TestDomainErrorSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"upstream", NewUpstreamError("fetch failed", errors.New("dial tcp")), ErrUpstream},
		{"not found", NewNotFoundError("no attendee"), ErrNotFound},
		{"unauthorized", NewUnauthorizedError("bad token"), ErrUnauthorized},
		{"unrecognized meeting", NewUnrecognizedMeetingError("123"), ErrUnrecognizedMeeting},
		{"unknown event", NewUnknownEventKindError("recording.completed"), ErrUnknownEventKind},
		{"anomalous", NewAnomalousTransitionError("join while inactive"), ErrAnomalousTransition},
		{"unstable identity", NewUnstableIdentityError("provisional"), ErrUnstableIdentity},
		{"ambiguous", NewAmbiguousMatchError("two matches"), ErrAmbiguousMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
		})
	}
}

func TestDomainErrorMessage(t *testing.T) {
	err := NewUpstreamError("failed to fetch meeting", errors.New("status 500"))
	assert.Contains(t, err.Error(), "failed to fetch meeting")
	assert.Contains(t, err.Error(), "status 500")

	plain := &DomainError{Type: ErrorTypeValidation, Message: "just a message"}
	assert.Equal(t, "just a message", plain.Error())
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrUpstream,
		ErrUnrecognizedMeeting,
		ErrUnknownEventKind,
		ErrAnomalousTransition,
		ErrNotFound,
		ErrUnstableIdentity,
		ErrAmbiguousMatch,
		ErrUnauthorized,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b)
			}
		}
	}
}
