// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

// Constants for the HTTP request headers
const (
	// AuthorizationHeader is the header carrying the Zoom webhook verification token
	AuthorizationHeader string = "authorization"

	// RequestIDHeader is the header name for the request ID
	RequestIDHeader string = "X-REQUEST-ID"

	// ZoomSignatureHeader carries the v0 HMAC signature of a Zoom webhook body
	ZoomSignatureHeader string = "x-zm-signature"

	// ZoomTimestampHeader carries the signing timestamp of a Zoom webhook, in seconds
	ZoomTimestampHeader string = "x-zm-request-timestamp"
)

// HTTP routes served by the bot
const (
	ZoomWebhookPath = "/webhooks/zoom"
	DebugPath       = "/debug"
	LivezPath       = "/livez"
	ReadyzPath      = "/readyz"
	MetricsPath     = "/metrics"
)

// contextRequestID is the type for the request ID context key
type contextRequestID string

// RequestIDContextID is the context ID for the request ID
const RequestIDContextID contextRequestID = "X-REQUEST-ID"
