// Package metrics implementa el puerto de métricas de conteos con Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus contadores e histogramas del dominio de conteos.
type Prometheus struct {
	transitions *prometheus.CounterVec
	comparisons *prometheus.CounterVec
	anomalies   prometheus.Counter
	duration    prometheus.Histogram
}

// NewPrometheus registra las métricas en reg (usar prometheus.NewRegistry en tests).
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stocktake",
			Name:      "task_transitions_total",
			Help:      "Conteos que entraron a cada estado.",
		}, []string{"status"}),
		comparisons: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stocktake",
			Name:      "comparisons_total",
			Help:      "Comparaciones creadas por tipo.",
		}, []string{"type"}),
		anomalies: f.NewCounter(prometheus.CounterOpts{
			Namespace: "stocktake",
			Name:      "anomalies_total",
			Help:      "Registros de cambio marcados como anomalía.",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stocktake",
			Name:      "comparison_duration_seconds",
			Help:      "Duración de cálculo y guardado de una comparación.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}

func (p *Prometheus) TaskTransition(status string) {
	p.transitions.WithLabelValues(status).Inc()
}

func (p *Prometheus) ComparisonCreated(comparisonType string, anomalies int, elapsed time.Duration) {
	p.comparisons.WithLabelValues(comparisonType).Inc()
	p.anomalies.Add(float64(anomalies))
	p.duration.Observe(elapsed.Seconds())
}
