package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MailMetrics records outbound email delivery.
type MailMetrics struct {
	duration *prometheus.HistogramVec
	sent     *prometheus.CounterVec
	failed   *prometheus.CounterVec
	enqueued *prometheus.CounterVec
}

// NewMailMetrics registers the mail metrics on the provided registerer.
func NewMailMetrics(reg prometheus.Registerer) *MailMetrics {
	if reg == nil {
		return &MailMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mail_send_duration_seconds",
		Help:    "Duration of SMTP deliveries in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_sent_total",
		Help: "Emails accepted by the SMTP server.",
	}, []string{"kind"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_failed_total",
		Help: "Emails that could not be delivered.",
	}, []string{"kind"})
	enqueued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_enqueued_total",
		Help: "Emails handed to the background queue.",
	}, []string{"kind"})
	reg.MustRegister(duration, sent, failed, enqueued)
	return &MailMetrics{
		duration: duration,
		sent:     sent,
		failed:   failed,
		enqueued: enqueued,
	}
}

// ObserveDuration records how long a delivery attempt took.
func (m *MailMetrics) ObserveDuration(kind string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

func (m *MailMetrics) IncSent(kind string) {
	if m == nil || m.sent == nil {
		return
	}
	m.sent.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *MailMetrics) IncFailed(kind string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *MailMetrics) IncEnqueued(kind string) {
	if m == nil || m.enqueued == nil {
		return
	}
	m.enqueued.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
