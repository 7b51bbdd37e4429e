// Package stocktake orquesta el ciclo de vida de los conteos y las comparaciones
// sobre los puertos de persistencia. La lógica de cálculo vive en domain/stocktake.
package stocktake

import (
	"context"
	"time"
)

// TaskLocker serializa las operaciones que modifican un mismo conteo.
// Acquire bloquea (o falla con domain.ErrTaskBusy) hasta obtener el candado de countID
// y devuelve la función que lo libera.
type TaskLocker interface {
	Acquire(ctx context.Context, countID string) (release func(), err error)
}

// Metrics puerto de métricas del dominio de conteos.
type Metrics interface {
	TaskTransition(status string)
	ComparisonCreated(comparisonType string, anomalies int, elapsed time.Duration)
}

// NopMetrics implementación vacía de Metrics.
type NopMetrics struct{}

func (NopMetrics) TaskTransition(string) {}
func (NopMetrics) ComparisonCreated(string, int, time.Duration) {}

// NopLocker no serializa nada; el compare-and-set del repositorio sigue protegiendo los datos.
type NopLocker struct{}

func (NopLocker) Acquire(context.Context, string) (func(), error) { return func() {}, nil }
