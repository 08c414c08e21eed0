// Package metrics exposes Prometheus collectors for crawl cycles.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garderie_crawl_runs_total",
			Help: "Total number of crawl runs, labeled by status.",
		},
		[]string{"status"},
	)

	crawlRunDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "garderie_crawl_run_duration_seconds",
			Help:    "Histogram of crawl run durations.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	crawlIndexPagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "garderie_crawl_index_pages_total",
			Help: "Total number of index pages fetched and parsed.",
		},
	)

	crawlTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garderie_crawl_tasks_total",
			Help: "Total number of detail tasks, labeled by reconcile outcome.",
		},
		[]string{"outcome"},
	)

	crawlTaskFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garderie_crawl_task_failures_total",
			Help: "Total number of failed detail tasks, labeled by failure kind.",
		},
		[]string{"kind"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garderie_notifications_total",
			Help: "Total number of report deliveries, labeled by status.",
		},
		[]string{"status"},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRun records the end of a crawl run.
func ObserveRun(status string, duration time.Duration) {
	crawlRunsTotal.WithLabelValues(status).Inc()
	crawlRunDurationSeconds.Observe(duration.Seconds())
}

// ObserveIndexPage increments the index page counter.
func ObserveIndexPage() {
	crawlIndexPagesTotal.Inc()
}

// ObserveTask increments the detail task counter for the given outcome.
func ObserveTask(outcome string) {
	crawlTasksTotal.WithLabelValues(outcome).Inc()
}

// ObserveTaskFailure increments the failure counter for the given kind.
func ObserveTaskFailure(kind string) {
	crawlTaskFailuresTotal.WithLabelValues(kind).Inc()
}

// ObserveNotification increments the delivery counter.
func ObserveNotification(status string) {
	notificationsTotal.WithLabelValues(status).Inc()
}
