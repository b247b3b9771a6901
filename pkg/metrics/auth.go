package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuthMetrics counts credential lifecycle events.
type AuthMetrics struct {
	events *prometheus.CounterVec
}

func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_events_total",
		Help: "Auth operations by event and outcome.",
	}, []string{"event", "outcome"})
	reg.MustRegister(events)
	return &AuthMetrics{events: events}
}

// Record counts one event, choosing the outcome from err.
func (a *AuthMetrics) Record(event string, err error) {
	if a == nil || a.events == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	a.events.WithLabelValues(normalizeLabel(event), outcome).Inc()
}
