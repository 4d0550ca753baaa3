package transportnsw

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for the queries counter.
const (
	OutcomeOK                  = "ok"
	OutcomeInvalidQuery        = "invalid_query"
	OutcomeNetworkFailure      = "network_failure"
	OutcomeUpstreamRejected    = "upstream_rejected"
	OutcomeMalformedResponse   = "malformed_response"
	OutcomeNoMatchingDeparture = "no_matching_departure"
)

// Prometheus metrics for a Client.
type Metrics struct {
	Queries         *prometheus.CounterVec
	RequestDuration prometheus.Histogram
}

// Creates Metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default
// handler.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transportnsw_queries_total",
			Help: "Departure lookups by outcome.",
		}, []string{"outcome"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transportnsw_request_duration_seconds",
			Help:    "Time spent waiting for the departure monitor.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.Queries, m.RequestDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) observeOutcome(err error) {
	m.Queries.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrInvalidQuery):
		return OutcomeInvalidQuery
	case errors.Is(err, ErrNetworkFailure):
		return OutcomeNetworkFailure
	case errors.Is(err, ErrUpstreamRejected):
		return OutcomeUpstreamRejected
	case errors.Is(err, ErrMalformedResponse):
		return OutcomeMalformedResponse
	case errors.Is(err, ErrNoMatchingDeparture):
		return OutcomeNoMatchingDeparture
	}
	return "unknown"
}
