// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import (
	"net/http"
	"testing"
)

func TestHTTPHeaderConstants(t *testing.T) {
	tests := []struct {
		name     string
		constant string
		expected string
	}{
		{
			name:     "AuthorizationHeader",
			constant: AuthorizationHeader,
			expected: "Authorization",
		},
		{
			name:     "RequestIDHeader",
			constant: RequestIDHeader,
			expected: "X-Request-Id",
		},
		{
			name:     "ZoomSignatureHeader",
			constant: ZoomSignatureHeader,
			expected: "X-Zm-Signature",
		},
		{
			name:     "ZoomTimestampHeader",
			constant: ZoomTimestampHeader,
			expected: "X-Zm-Request-Timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := http.CanonicalHeaderKey(tt.constant); got != tt.expected {
				t.Errorf("expected canonical header %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestRequestIDContextID(t *testing.T) {
	if string(RequestIDContextID) != "X-REQUEST-ID" {
		t.Errorf("expected %q, got %q", "X-REQUEST-ID", RequestIDContextID)
	}
}
