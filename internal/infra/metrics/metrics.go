// Package metrics exposes Prometheus counters for hub calls and discovery.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"homectl/internal/domain"
)

var (
	callCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homectl_client_calls_total",
			Help: "Client calls by operation, source (live or mock) and outcome.",
		},
		[]string{"operation", "source", "outcome"},
	)
	probeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homectl_discovery_probes_total",
			Help: "Discovery probes by result.",
		},
		[]string{"result"},
	)
	hubRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homectl_hubsim_requests_total",
			Help: "Requests served by the hub simulator by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(callCounter, probeCounter, hubRequestCounter)
}

// Recorder implements application.Observer on the package counters.
type Recorder struct{}

func (Recorder) ObserveCall(operation, source string, err error) {
	callCounter.WithLabelValues(operation, source, Outcome(err)).Inc()
}

func (Recorder) ObserveProbe(found bool) {
	result := "miss"
	if found {
		result = "found"
	}
	probeCounter.WithLabelValues(result).Inc()
}

// ObserveHubRequest counts one simulator response.
func ObserveHubRequest(route, method, status string) {
	hubRequestCounter.WithLabelValues(route, method, status).Inc()
}

// Outcome buckets an error into a low-cardinality label.
func Outcome(err error) string {
	var httpErr *domain.HTTPError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrNetwork):
		return "network_error"
	case errors.As(err, &httpErr):
		return "http_error"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, domain.ErrValidation):
		return "validation_error"
	default:
		return "error"
	}
}
