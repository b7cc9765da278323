// Package metrics defines the prometheus instruments exposed on the ops
// server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	UpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transmote",
		Name:      "updates_total",
		Help:      "Total inbound Telegram updates by kind.",
	}, []string{"kind"})

	DeniedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "transmote",
		Name:      "denied_total",
		Help:      "Total updates rejected by the whitelist.",
	})

	EngineErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transmote",
		Name:      "engine_errors_total",
		Help:      "Total engine call failures by endpoint and kind.",
	}, []string{"endpoint", "kind"})

	EngineCallSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "transmote",
		Name:      "engine_call_seconds",
		Help:      "Engine RPC call duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 15, 30},
	}, []string{"op"})

	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transmote",
		Name:      "notifications_total",
		Help:      "Total completion notifications sent by endpoint.",
	}, []string{"endpoint"})

	PollTicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "transmote",
		Name:      "poll_ticks_total",
		Help:      "Total notification poller ticks executed.",
	})

	PollTicksSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "transmote",
		Name:      "poll_ticks_skipped_total",
		Help:      "Total poller ticks skipped because the previous one was still running.",
	})

	Torrents = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "transmote",
		Name:      "torrents",
		Help:      "Torrents seen on the last successful poll by endpoint.",
	}, []string{"endpoint"})
)

// Register registers all instruments on the given registerer.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		UpdatesTotal,
		DeniedTotal,
		EngineErrorsTotal,
		EngineCallSeconds,
		NotificationsTotal,
		PollTicksTotal,
		PollTicksSkippedTotal,
		Torrents,
	)
}
