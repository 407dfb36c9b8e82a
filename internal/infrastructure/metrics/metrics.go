// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package metrics exposes the bot's Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/presence"
)

// Result labels
const (
	ResultOK       = "ok"
	ResultAnomaly  = "anomaly"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics holds every collector the bot updates
type Metrics struct {
	DispatchTotal   *prometheus.CounterVec
	PersistTotal    *prometheus.CounterVec
	WebhookTotal    *prometheus.CounterVec
	WebhookDuration prometheus.Observer
	OnlineGauge     prometheus.Gauge
	ActiveGauge     prometheus.Gauge
}

// Ensure Metrics implements presence.Metrics
var _ presence.Metrics = (*Metrics)(nil)

var (
	once          sync.Once
	defaultMetric *Metrics
)

// Default returns the metrics registered on the default Prometheus registry (idempotent).
func Default() *Metrics {
	once.Do(func() {
		defaultMetric = New(prometheus.DefaultRegisterer)
	})
	return defaultMetric
}

// New registers a fresh set of collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zoom_presence_dispatch_total",
			Help: "Number of presence actions dispatched, by action and result",
		}, []string{"action", "result"}),
		PersistTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zoom_presence_persist_total",
			Help: "Number of state persistence attempts, by result",
		}, []string{"result"}),
		WebhookTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zoom_presence_webhook_requests_total",
			Help: "Number of Zoom webhook calls, by event and HTTP status",
		}, []string{"event", "status"}),
		WebhookDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "zoom_presence_webhook_duration_seconds",
			Help:    "Zoom webhook handling duration seconds",
			Buckets: prometheus.DefBuckets,
		}),
		OnlineGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "zoom_presence_online_participants",
			Help: "Current number of participants in the monitored call",
		}),
		ActiveGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "zoom_presence_call_active",
			Help: "Monitored call active=1 inactive=0",
		}),
	}
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDispatch implements presence.Metrics
func (m *Metrics) ObserveDispatch(action string, err error) {
	result := ResultOK
	switch {
	case errors.Is(err, domain.ErrAnomalousTransition):
		result = ResultAnomaly
	case err != nil:
		result = ResultRejected
	}
	m.DispatchTotal.WithLabelValues(action, result).Inc()
}

// ObservePersist implements presence.Metrics
func (m *Metrics) ObservePersist(err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.PersistTotal.WithLabelValues(result).Inc()
}

// ObserveWebhook counts one webhook call
func (m *Metrics) ObserveWebhook(event string, status int, duration time.Duration) {
	if event == "" {
		event = "unknown"
	}
	m.WebhookTotal.WithLabelValues(event, strconv.Itoa(status)).Inc()
	m.WebhookDuration.Observe(duration.Seconds())
}

type callGauges struct {
	active bool
	online int
}

// Register keeps the call gauges in step with the store
func (m *Metrics) Register(ctx context.Context, store *presence.Store) func() {
	return presence.Subscribe(ctx, store,
		func(s models.RootState) callGauges {
			return callGauges{active: s.Presence.Active, online: len(s.Presence.OnlineIDs)}
		},
		func(a, b callGauges) bool { return a == b },
		func(_ context.Context, current, _ callGauges) {
			m.OnlineGauge.Set(float64(current.online))
			if current.active {
				m.ActiveGauge.Set(1)
			} else {
				m.ActiveGauge.Set(0)
			}
		},
		presence.FireImmediately(),
	)
}
