// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/handlers"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/logging"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/middleware"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/service"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/pkg/constants"
)

// readiness reports whether one dependency of the bot is ready.
type readiness func() bool

// newMux routes the bot's HTTP endpoints.
func newMux(webhookHandler *handlers.ZoomWebhookHandler, debugInfo *service.DebugInfoService, metricsHandler http.Handler, ready ...readiness) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(constants.ZoomWebhookPath, webhookHandler)
	mux.Handle(constants.MetricsPath, metricsHandler)

	mux.HandleFunc(constants.DebugPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		text, err := debugInfo.Render(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to render debug info", logging.ErrKey, err)
			http.Error(w, http.StatusText(handlers.StatusCode(err)), handlers.StatusCode(err))
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprint(w, text)
	})

	mux.HandleFunc(constants.LivezPath, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintln(w, "OK")
	})

	mux.HandleFunc(constants.ReadyzPath, func(w http.ResponseWriter, _ *http.Request) {
		for _, isReady := range ready {
			if !isReady() {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		_, _ = fmt.Fprintln(w, "OK")
	})

	return mux
}

// newHandler wraps the mux in the bot's middleware chain.
func newHandler(mux http.Handler) http.Handler {
	var handler http.Handler = mux

	// Note: Order matters - RequestIDMiddleware should come first in the chain,
	// so it should be the last middleware added to the handler since it is executed in reverse order.
	handler = middleware.WebhookBodyCaptureMiddleware(handlers.MaxWebhookBodyBytes, constants.ZoomWebhookPath)(handler)
	handler = middleware.RequestLoggerMiddleware()(handler)
	handler = middleware.RequestIDMiddleware()(handler)
	return otelhttp.NewHandler(handler, "presence-bot",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != constants.LivezPath && r.URL.Path != constants.ReadyzPath && r.URL.Path != constants.MetricsPath
		}),
	)
}

// setupHTTPServer configures and starts the HTTP server
func setupHTTPServer(flags flags, handler http.Handler, gracefulCloseWG *sync.WaitGroup) *http.Server {
	// Set up http listener in a goroutine using provided command line parameters.
	var addr string
	if flags.Bind == "*" {
		addr = ":" + flags.Port
	} else {
		addr = flags.Bind + ":" + flags.Port
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 3 * time.Second,
	}
	gracefulCloseWG.Add(1)
	go func() {
		slog.With("addr", addr).Debug("starting http server, listening on port " + flags.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
			os.Exit(1)
		}
		// Because ErrServerClosed is *immediately* returned when Shutdown is
		// called, not when when Shutdown completes, this must not yet decrement
		// the wait group.
	}()

	return httpServer
}
