package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"strings"
	"sync"
)

var (
	once sync.Once

	smsSendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_sends_total",
			Help: "Completed sends per provider and result kind (ok for accepted).",
		},
		[]string{"provider", "kind"},
	)

	smsSendAttempts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sms_send_attempts",
			Help:    "Provider calls made per send.",
			Buckets: []float64{0, 1, 2, 3, 5},
		},
		[]string{"provider"},
	)

	smsSendLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sms_send_latency_ms",
			Help:    "Wall time of a send including probe and retries, in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000, 16000},
		},
		[]string{"provider", "success"},
	)

	bulkJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_bulk_jobs_total",
			Help: "Bulk jobs by lifecycle event (submitted/completed/failed).",
		},
		[]string{"event"},
	)

	botUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Telegram updates handled by route.",
		},
		[]string{"route"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			smsSendsTotal, smsSendAttempts, smsSendLatencyMs,
			bulkJobsTotal, botUpdatesTotal,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ObserveSend records the outcome of one dispatcher send.
func ObserveSend(provider, kind string, attempts int, latencyMs int64, success bool) {
	if kind == "" {
		kind = "ok"
	}
	smsSendsTotal.WithLabelValues(norm(provider), norm(kind)).Inc()
	smsSendAttempts.WithLabelValues(norm(provider)).Observe(float64(attempts))
	ok := "false"
	if success {
		ok = "true"
	}
	smsSendLatencyMs.WithLabelValues(norm(provider), ok).Observe(float64(latencyMs))
}

// IncBulkJob counts a bulk job lifecycle event.
func IncBulkJob(event string) {
	bulkJobsTotal.WithLabelValues(norm(event)).Inc()
}

// IncBotUpdate counts a handled bot update.
func IncBotUpdate(route string) {
	botUpdatesTotal.WithLabelValues(norm(route)).Inc()
}
