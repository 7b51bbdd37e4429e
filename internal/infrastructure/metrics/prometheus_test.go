package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stocktake-api/internal/application/stocktake"
	"github.com/jhoicas/stocktake-api/internal/infrastructure/metrics"
)

var _ stocktake.Metrics = (*metrics.Prometheus)(nil)

func TestPrometheus_RegistraContadores(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewPrometheus(reg)

	m.TaskTransition("completed")
	m.TaskTransition("completed")
	m.TaskTransition("cancelled")
	m.ComparisonCreated("weekly", 3, 15*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	series := map[string]int{}
	for _, f := range families {
		names = append(names, f.GetName())
		series[f.GetName()] = len(f.GetMetric())
	}
	assert.ElementsMatch(t, []string{
		"stocktake_task_transitions_total",
		"stocktake_comparisons_total",
		"stocktake_anomalies_total",
		"stocktake_comparison_duration_seconds",
	}, names)

	assert.Equal(t, 2, series["stocktake_task_transitions_total"], "una serie por estado")
}
