package pubsync

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the work of the pipeline.
type Metrics struct {
	documents *prometheus.CounterVec
	buckets   *prometheus.CounterVec
	repairs   prometheus.Counter
	duration  prometheus.Histogram
}

// NewMetrics creates the pipeline metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pubsync",
			Name:      "documents_total",
			Help:      "Search documents written, by operation.",
		}, []string{"op"}),
		buckets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pubsync",
			Name:      "buckets_total",
			Help:      "Day buckets processed, by outcome.",
		}, []string{"outcome"}),
		repairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pubsync",
			Name:      "index_repairs_total",
			Help:      "Index rows repointed or removed after a sync.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pubsync",
			Name:      "bucket_duration_seconds",
			Help:      "Time to sync one day bucket.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.documents, m.buckets, m.repairs, m.duration)
	}
	return m
}

const (
	outcomeSynced   = "synced"
	outcomeDeferred = "deferred"
	outcomeFailed   = "failed"
)
