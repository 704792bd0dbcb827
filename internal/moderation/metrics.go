package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sujalbistaa/scamwatch/internal/models"
)

// Metrics counts warnings entering each status. A nil *Metrics records nothing.
type Metrics struct {
	statusChanges *prometheus.CounterVec
}

// NewMetrics registers the moderation counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		statusChanges: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "scamwatch_warning_status_changes_total",
				Help: "Warnings entering each moderation status",
			},
			[]string{"status"},
		),
	}
}

func (m *Metrics) observe(s models.Status) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(string(s)).Inc()
}
