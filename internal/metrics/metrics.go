package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "admingate"

// Login results
const (
	LoginSuccess    = "success"
	LoginInvalid    = "invalid"
	LoginBlocked    = "blocked"
	LoginBadRequest = "bad_request"
)

// Metrics holds the gateway's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	loginAttempts        *prometheus.CounterVec
	lockouts             prometheus.Counter
	sessionVerifications *prometheus.CounterVec
	storeErrors          *prometheus.CounterVec
	purgedRecords        *prometheus.CounterVec
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Admin login attempts by result.",
		}, []string{"result"}),
		lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lockouts_total",
			Help:      "Identities that crossed the failed-attempt threshold.",
		}),
		sessionVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_verifications_total",
			Help:      "Session verifications by outcome and internal reason.",
		}, []string{"outcome", "reason"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Backing store errors that were absorbed by failing open.",
		}, []string{"op"}),
		purgedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purged_records_total",
			Help:      "Records removed by background cleanup.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.loginAttempts,
		m.lockouts,
		m.sessionVerifications,
		m.storeErrors,
		m.purgedRecords,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the Prometheus exposition format for this registry
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveLogin counts one login attempt by its result label
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}

// ObserveLockout counts an identity crossing the failure threshold
func (m *Metrics) ObserveLockout() {
	if m == nil {
		return
	}
	m.lockouts.Inc()
}

// ObserveVerification counts one session verification by outcome and reason
func (m *Metrics) ObserveVerification(outcome, reason string) {
	if m == nil {
		return
	}
	m.sessionVerifications.WithLabelValues(outcome, reason).Inc()
}

// ObserveStoreError counts a failed backing store operation
func (m *Metrics) ObserveStoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

// ObservePurged adds n removed records of the given kind
func (m *Metrics) ObservePurged(kind string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.purgedRecords.WithLabelValues(kind).Add(float64(n))
}
