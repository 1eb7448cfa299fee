// Package metrics exposes Prometheus instruments for background sync
// operations.
package metrics

import (
	"time"

	"github.com/dmitrijs2005/reportkeeper/internal/outcome"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reportkeeper"

// Sync records one observation per terminal outcome.
type Sync struct {
	outcomes  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	uploads   *prometheus.CounterVec
}

// NewSync creates the instruments and registers them with reg. A nil reg
// leaves them unregistered.
func NewSync(reg prometheus.Registerer) *Sync {
	s := &Sync{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "outcomes_total",
			Help:      "Terminal outcomes of background operations.",
		}, []string{"operation", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "duration_seconds",
			Help:      "Wall time of background operations.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"operation"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "uploads_total",
			Help:      "Individual submission uploads during resend.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(s.outcomes, s.durations, s.uploads)
	}
	return s
}

// Observe records a finished operation. Safe on a nil receiver.
func (s *Sync) Observe(o outcome.Outcome, elapsed time.Duration) {
	if s == nil {
		return
	}
	s.outcomes.WithLabelValues(string(o.Operation), o.Kind.String()).Inc()
	s.durations.WithLabelValues(string(o.Operation)).Observe(elapsed.Seconds())
}

// Upload records one submission upload, sent or failed.
func (s *Sync) Upload(sent bool) {
	if s == nil {
		return
	}
	result := "failed"
	if sent {
		result = "sent"
	}
	s.uploads.WithLabelValues(result).Inc()
}
