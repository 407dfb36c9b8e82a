// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestLoggerMiddleware_CapturesStatus(t *testing.T) {
	var seen *responseWriter
	handler := RequestLoggerMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = w.(*responseWriter)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/zoom", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	if assert.NotNil(t, seen) {
		assert.Equal(t, http.StatusTeapot, seen.statusCode)
		assert.Equal(t, len("short and stout"), seen.written)
	}
}

func TestRequestLoggerMiddleware_DefaultStatus(t *testing.T) {
	var seen *responseWriter
	handler := RequestLoggerMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = w.(*responseWriter)
		_, _ = w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))

	if assert.NotNil(t, seen) {
		assert.Equal(t, http.StatusOK, seen.statusCode)
	}
}

func TestRequestLoggerMiddleware_RejectedZoomDeliveryLogsWarn(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel string
	}{
		{name: "rejected webhook", path: "/webhooks/zoom", status: http.StatusUnauthorized, wantLevel: "WARN"},
		{name: "accepted webhook", path: "/webhooks/zoom", status: http.StatusOK, wantLevel: "INFO"},
		{name: "other path error", path: "/unknown", status: http.StatusNotFound, wantLevel: "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			previous := slog.Default()
			slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
			t.Cleanup(func() { slog.SetDefault(previous) })

			handler := RequestLoggerMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, tt.path, nil))

			var response map[string]any
			for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
				var record map[string]any
				if json.Unmarshal(line, &record) == nil && record["msg"] == "HTTP response" {
					response = record
				}
			}
			if assert.NotNil(t, response) {
				assert.Equal(t, tt.wantLevel, response["level"])
				assert.EqualValues(t, tt.status, response["status"])
			}
		})
	}
}
