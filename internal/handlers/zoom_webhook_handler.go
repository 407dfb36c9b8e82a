// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/logging"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/middleware"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/service"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/pkg/constants"
)

// MaxWebhookBodyBytes bounds the size of an accepted webhook body.
const MaxWebhookBodyBytes = 1 << 20

// WebhookMetrics records one handled webhook call.
type WebhookMetrics interface {
	ObserveWebhook(event string, status int, duration time.Duration)
}

// ZoomWebhookHandler authenticates Zoom webhook calls and feeds them to the reconciler.
type ZoomWebhookHandler struct {
	reconciler *service.PresenceReconciler
	validator  domain.WebhookValidator
	metrics    WebhookMetrics
}

// NewZoomWebhookHandler creates the handler. metrics may be nil.
func NewZoomWebhookHandler(reconciler *service.PresenceReconciler, validator domain.WebhookValidator, metrics WebhookMetrics) *ZoomWebhookHandler {
	return &ZoomWebhookHandler{
		reconciler: reconciler,
		validator:  validator,
		metrics:    metrics,
	}
}

// HandlerReady reports whether the handler can accept webhooks.
func (h *ZoomWebhookHandler) HandlerReady() bool {
	return h.reconciler.ServiceReady() && h.validator != nil
}

type urlValidationResponse struct {
	PlainToken     string `json:"plainToken"`
	EncryptedToken string `json:"encryptedToken"`
}

type webhookResult struct {
	status int
	event  string
	body   any
}

// ServeHTTP implements http.Handler
func (h *ZoomWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	result := webhookResult{status: http.StatusInternalServerError}
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "panic while handling zoom webhook",
				"panic", rec,
				"stack", string(debug.Stack()),
				logging.PriorityCritical())
			result = webhookResult{status: http.StatusInternalServerError, event: result.event}
		}
		writeResult(w, result)
		if h.metrics != nil {
			h.metrics.ObserveWebhook(result.event, result.status, time.Since(start))
		}
	}()

	result = h.handle(r)
}

func (h *ZoomWebhookHandler) handle(r *http.Request) webhookResult {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		return webhookResult{status: http.StatusMethodNotAllowed}
	}

	body, err := readBody(r)
	if err != nil {
		slog.WarnContext(ctx, "failed to read webhook body", logging.ErrKey, err)
		return webhookResult{status: http.StatusBadRequest}
	}

	headers := domain.WebhookHeaders{
		Authorization: r.Header.Get(constants.AuthorizationHeader),
		Signature:     r.Header.Get(constants.ZoomSignatureHeader),
		Timestamp:     r.Header.Get(constants.ZoomTimestampHeader),
	}
	if err := h.validator.ValidateRequest(body, headers); err != nil {
		slog.WarnContext(ctx, "rejected unauthenticated zoom webhook", logging.ErrKey, err)
		return webhookResult{status: http.StatusUnauthorized}
	}

	var envelope models.ZoomWebhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		slog.WarnContext(ctx, "malformed zoom webhook body", logging.ErrKey, err)
		return webhookResult{status: http.StatusBadRequest}
	}
	ctx = logging.AppendCtx(ctx, slog.String("zoom_event", envelope.Event))

	if envelope.Event == models.ZoomEventEndpointURLValidation {
		return h.answerURLValidation(r.WithContext(ctx), envelope)
	}

	event, err := models.ParseZoomWebhookEvent(envelope)
	if err != nil {
		if kind, ok := models.IsUnknownEventKind(err); ok {
			err = domain.NewUnknownEventKindError(kind)
		} else {
			err = domain.NewValidationError("invalid zoom webhook payload", err)
		}
		slog.WarnContext(ctx, "rejected zoom webhook", logging.ErrKey, err)
		return webhookResult{status: StatusCode(err), event: envelope.Event}
	}

	if err := h.reconciler.Reconcile(ctx, event); err != nil {
		status := StatusCode(err)
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(ctx, "failed to reconcile zoom webhook", logging.ErrKey, err)
		}
		return webhookResult{status: status, event: envelope.Event}
	}

	return webhookResult{status: http.StatusOK, event: envelope.Event}
}

func (h *ZoomWebhookHandler) answerURLValidation(r *http.Request, envelope models.ZoomWebhookEnvelope) webhookResult {
	ctx := r.Context()

	var payload models.ZoomURLValidationPayload
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil || payload.PlainToken == "" {
		slog.WarnContext(ctx, "invalid url validation challenge", logging.ErrKey, err)
		return webhookResult{status: http.StatusBadRequest, event: envelope.Event}
	}

	encrypted, ok := h.validator.URLValidationResponse(payload.PlainToken)
	if !ok {
		slog.WarnContext(ctx, "cannot answer url validation challenge without a webhook secret token")
		return webhookResult{status: http.StatusBadRequest, event: envelope.Event}
	}

	slog.InfoContext(ctx, "answered zoom url validation challenge")
	return webhookResult{
		status: http.StatusOK,
		event:  envelope.Event,
		body:   urlValidationResponse{PlainToken: payload.PlainToken, EncryptedToken: encrypted},
	}
}

// readBody prefers the body captured by WebhookBodyCaptureMiddleware.
func readBody(r *http.Request) ([]byte, error) {
	if body, ok := middleware.GetRawBodyFromContext(r.Context()); ok {
		return body, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxWebhookBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxWebhookBodyBytes {
		return nil, fmt.Errorf("webhook body exceeds %d bytes", MaxWebhookBodyBytes)
	}
	return body, nil
}

func writeResult(w http.ResponseWriter, result webhookResult) {
	if result.body != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(result.status)
		_ = json.NewEncoder(w).Encode(result.body)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(result.status)
	_, _ = fmt.Fprintln(w, http.StatusText(result.status))
}
