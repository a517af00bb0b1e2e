package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MatchesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "venuematch",
		Name:      "matches_created_total",
		Help:      "Matches created, by origin (organic or rematch).",
	}, []string{"origin"})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "venuematch",
		Name:      "messages_sent_total",
		Help:      "Messages admitted by the messaging gate.",
	})

	GateRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "venuematch",
		Name:      "gate_rejections_total",
		Help:      "Sends refused by the messaging gate, by error kind.",
	}, []string{"reason"})

	NotificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "venuematch",
		Name:      "notifications_failed_total",
		Help:      "Best-effort notifications that could not be delivered, by event type.",
	}, []string{"event"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
