// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Claim attempt outcomes.
const (
	OutcomeSingle = "single"
	OutcomeTaken  = "taken"
	OutcomeError  = "error"
)

var (
	// HttpRequestsTotal counts HTTP requests handled by the status API.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of http requests handled by the service.",
		},
		[]string{"path", "method", "code"},
	)

	// ClaimAttemptsTotal counts acquisitions by backend and outcome.
	ClaimAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claim_attempts_total",
			Help: "Total number of instance claim attempts.",
		},
		[]string{"backend", "outcome"},
	)

	// ClaimOwned is 1 while this process holds the named claim.
	ClaimOwned = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "claim_owned",
			Help: "Whether this process currently owns the claim. 1 if owned, 0 otherwise.",
		},
		[]string{"claim_name"},
	)

	// ClaimHeartbeatsTotal counts heartbeat ticks.
	ClaimHeartbeatsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claim_heartbeats_total",
			Help: "Total number of claim heartbeats emitted.",
		},
		[]string{"claim_name"},
	)

	// ClaimHeartbeatTimestamp is the unix time of the last heartbeat.
	ClaimHeartbeatTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "claim_heartbeat_timestamp_seconds",
			Help: "Unix timestamp of the last claim heartbeat.",
		},
		[]string{"claim_name"},
	)
)

// SetOwned records the ownership state for a claim name.
func SetOwned(name string, owned bool) {
	v := 0.0
	if owned {
		v = 1
	}
	ClaimOwned.WithLabelValues(name).Set(v)
}

// Outcome maps an acquisition result to its outcome label.
func Outcome(single bool, err error) string {
	switch {
	case err != nil:
		return OutcomeError
	case single:
		return OutcomeSingle
	default:
		return OutcomeTaken
	}
}
