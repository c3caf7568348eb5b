package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "reviews"

// Outcome labels for ratings lookups
const (
	OutcomePresent     = "present"
	OutcomeUnavailable = "unavailable"
	OutcomeMalformed   = "malformed"
	OutcomeCacheHit    = "cache_hit"
)

// Metrics holds the Prometheus collectors of the reviews service.
type Metrics struct {
	ratingsRequests *prometheus.CounterVec
	ratingsDuration prometheus.Histogram
	reviewsServed   *prometheus.CounterVec
}

// New creates and registers the collectors on reg. A nil reg registers on
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		ratingsRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratings_requests_total",
			Help:      "Ratings lookups by outcome.",
		}, []string{"outcome"}),
		ratingsDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ratings_request_duration_seconds",
			Help:      "Duration of calls to the ratings service in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		reviewsServed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_served_total",
			Help:      "Review payloads served, by rating mode.",
		}, []string{"ratings"}),
	}
}

// ObserveRatingsCall records one ratings lookup. Cache hits pass a zero
// duration and are not added to the latency histogram.
func (m *Metrics) ObserveRatingsCall(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ratingsRequests.WithLabelValues(outcome).Inc()
	if d > 0 {
		m.ratingsDuration.Observe(d.Seconds())
	}
}

// IncReviewsServed counts one review payload. mode is "disabled", "present"
// or "absent".
func (m *Metrics) IncReviewsServed(mode string) {
	if m == nil {
		return
	}
	m.reviewsServed.WithLabelValues(mode).Inc()
}
