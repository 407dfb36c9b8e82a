// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil", err: nil, expected: http.StatusOK},
		{name: "unrecognized meeting", err: domain.NewUnrecognizedMeetingError("1"), expected: http.StatusOK},
		{name: "unknown event", err: domain.NewUnknownEventKindError("recording.completed"), expected: http.StatusBadRequest},
		{name: "upstream", err: domain.NewUpstreamError("zoom down"), expected: http.StatusBadGateway},
		{name: "wrapped upstream", err: fmt.Errorf("refresh: %w", domain.NewUpstreamError("zoom down")), expected: http.StatusBadGateway},
		{name: "unauthorized", err: domain.NewUnauthorizedError("bad token"), expected: http.StatusUnauthorized},
		{name: "validation", err: domain.NewValidationError("bad"), expected: http.StatusBadRequest},
		{name: "not found", err: domain.NewNotFoundError("missing"), expected: http.StatusNotFound},
		{name: "conflict", err: domain.NewConflictError("dup"), expected: http.StatusConflict},
		{name: "unavailable", err: domain.NewUnavailableError("down"), expected: http.StatusServiceUnavailable},
		{name: "plain error", err: errors.New("boom"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusCode(tt.err))
		})
	}
}
