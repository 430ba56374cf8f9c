// Package metrics exposes Prometheus counters for the HR runtime.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsProcessed counts outbox events settled by the worker, by outcome.
	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talio",
		Subsystem: "worker",
		Name:      "events_processed_total",
		Help:      "Outbox events settled by the worker, labeled by outcome.",
	}, []string{"outcome"})

	// WorkflowRuns counts workflow evaluations, by outcome.
	WorkflowRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talio",
		Subsystem: "worker",
		Name:      "workflow_runs_total",
		Help:      "Workflow evaluations recorded by the worker, labeled by outcome.",
	}, []string{"outcome"})

	// NotificationsRendered counts notifications persisted by workflow steps.
	NotificationsRendered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "talio",
		Subsystem: "worker",
		Name:      "notifications_rendered_total",
		Help:      "In-app notifications rendered and stored.",
	})

	// OverdueItemsMarked counts compliance items flipped to overdue by the sweep.
	OverdueItemsMarked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "talio",
		Subsystem: "worker",
		Name:      "overdue_items_marked_total",
		Help:      "Compliance action items marked overdue by the sweep.",
	})

	// HTTPRequests counts API requests, by route pattern and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talio",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "API requests served, labeled by route pattern and status class.",
	}, []string{"pattern", "status"})
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
