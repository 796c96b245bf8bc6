package scheduling

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts availability lookups and the slots they return.
type Metrics struct {
	lookups  *prometheus.CounterVec
	returned prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telecare",
			Subsystem: "scheduling",
			Name:      "availability_lookups_total",
			Help:      "Available-slot lookups by outcome.",
		}, []string{"outcome"}),
		returned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "telecare",
			Subsystem: "scheduling",
			Name:      "available_slots",
			Help:      "Number of slots returned per successful lookup.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		}),
	}
	reg.MustRegister(m.lookups, m.returned)
	return m
}

func (m *Metrics) observe(outcome string, slots int) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.returned.Observe(float64(slots))
	}
}
