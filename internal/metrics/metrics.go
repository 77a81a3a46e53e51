package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "prensa"

// Metrics is safe to use through a nil pointer, which records nothing.
type Metrics struct {
	runs             *prometheus.CounterVec
	entries          *prometheus.CounterVec
	notifierFailures *prometheus.CounterVec
	purged           prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "Announcements seen by the pipeline by outcome.",
		}, []string{"outcome"}),
		notifierFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifier_failures_total",
			Help:      "Failed deliveries by notifier.",
		}, []string{"notifier"}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purged_records_total",
			Help:      "Expired dedup records deleted.",
		}),
	}
	reg.MustRegister(m.runs, m.entries, m.notifierFailures, m.purged)
	return m
}

func (m *Metrics) Run(outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Entries(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.entries.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) NotifierFailure(notifier string) {
	if m == nil {
		return
	}
	m.notifierFailures.WithLabelValues(notifier).Inc()
}

func (m *Metrics) Purged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.purged.Add(float64(n))
}
