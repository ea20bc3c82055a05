// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kittenfeed/internal/domain"
)

const namespace = "kittenfeed"

// Collector records HTTP and service metrics. It implements app.Recorder.
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	transitions  *prometheus.CounterVec
	reminders    *prometheus.CounterVec
	advice       *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "transitions_total",
			Help:      "State transitions by operation and result.",
		}, []string{"op", "result"}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminder",
			Name:      "sent_total",
			Help:      "Reminder notifications by result.",
		}, []string{"result"}),
		advice: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "advice",
			Name:      "requests_total",
			Help:      "Advice answers by source.",
		}, []string{"source"}),
	}

	reg.MustRegister(c.httpRequests, c.httpLatency, c.transitions, c.reminders, c.advice)
	return c
}

// RecordHTTP records one served request.
func (c *Collector) RecordHTTP(route, method string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveTransition records a state transition outcome.
func (c *Collector) ObserveTransition(op string, err error) {
	c.transitions.WithLabelValues(op, transitionResult(err)).Inc()
}

// ObserveReminder records a reminder delivery attempt.
func (c *Collector) ObserveReminder(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.reminders.WithLabelValues(result).Inc()
}

// ObserveAdvice records where an advice answer came from.
func (c *Collector) ObserveAdvice(source string) {
	c.advice.WithLabelValues(source).Inc()
}

// transitionResult separates rejected input from failures.
func transitionResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrEntryNotFound):
		return "not_found"
	case domain.IsValidation(err):
		return "rejected"
	default:
		return "error"
	}
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
