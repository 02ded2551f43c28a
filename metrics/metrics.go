// Package metrics holds the prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	ReviewsSubmitted *prometheus.CounterVec
	Votes            *prometheus.CounterVec
	OTPRequests      prometheus.Counter
	OTPVerifications *prometheus.CounterVec
	MailsSent        *prometheus.CounterVec
	CleanupDeleted   *prometheus.CounterVec
	RealtimeClients  prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mess", Name: "http_requests_total", Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mess", Name: "http_request_duration_seconds", Help: "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ReviewsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mess", Name: "reviews_submitted_total", Help: "Reviews stored, by meal type.",
		}, []string{"meal"}),
		Votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mess", Name: "suggestion_votes_total", Help: "Suggestion votes, by kind and result.",
		}, []string{"kind", "result"}),
		OTPRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mess", Name: "otp_requests_total", Help: "OTP codes issued.",
		}),
		OTPVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mess", Name: "otp_verifications_total", Help: "OTP verification attempts by outcome.",
		}, []string{"outcome"}),
		MailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mess", Name: "mails_sent_total", Help: "Outgoing mail by status.",
		}, []string{"status"}),
		CleanupDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mess", Name: "cleanup_deleted_rows_total", Help: "Rows removed by the retention job.",
		}, []string{"table"}),
		RealtimeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mess", Name: "realtime_clients", Help: "Connected websocket clients.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests, m.HTTPDuration, m.ReviewsSubmitted, m.Votes, m.OTPRequests,
		m.OTPVerifications, m.MailsSent, m.CleanupDeleted, m.RealtimeClients,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTP records one served request. route is the matched pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObserveReview(meal string) {
	if m == nil {
		return
	}
	m.ReviewsSubmitted.WithLabelValues(meal).Inc()
}

func (m *Metrics) ObserveVote(kind, result string) {
	if m == nil {
		return
	}
	m.Votes.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveOTPRequest() {
	if m == nil {
		return
	}
	m.OTPRequests.Inc()
}

func (m *Metrics) ObserveOTPVerification(outcome string) {
	if m == nil {
		return
	}
	m.OTPVerifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveMail(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.MailsSent.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveCleanup(table string, n int64) {
	if m == nil {
		return
	}
	m.CleanupDeleted.WithLabelValues(table).Add(float64(n))
}

func (m *Metrics) SetRealtimeClients(n int) {
	if m == nil {
		return
	}
	m.RealtimeClients.Set(float64(n))
}
