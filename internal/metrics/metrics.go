// Package metrics exposes the bot's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesHandled counts inbound messages by the pipeline stage
	// that claimed them.
	MessagesHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "financaia_messages_handled_total",
		Help: "Inbound messages by the handler that claimed them.",
	}, []string{"handler"})

	// HandlerErrors counts errors recovered at the stage boundary.
	HandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "financaia_handler_errors_total",
		Help: "Errors recovered at a pipeline stage boundary.",
	}, []string{"handler"})

	// AIParses counts AI fallback outcomes ("hit", "miss", "error").
	AIParses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "financaia_ai_parses_total",
		Help: "AI transaction parser outcomes.",
	}, []string{"outcome"})

	// MessageDuration observes end-to-end per-message processing time.
	MessageDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "financaia_message_duration_seconds",
		Help:    "End-to-end processing time of an inbound message.",
		Buckets: prometheus.DefBuckets,
	})
)
