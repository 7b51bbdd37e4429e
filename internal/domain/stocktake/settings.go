// Package stocktake contiene el motor puro de comparación de conteos:
// diferencia entre dos conteos completados, detección de anomalías y agregación
// por categoría y ubicación. No hace I/O; recibe y devuelve entidades.
package stocktake

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stocktake-api/internal/domain"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// Valores por defecto de la configuración de comparación.
var (
	DefaultPercentageThreshold = decimal.NewFromInt(50) // %
	DefaultAbsoluteThreshold   = 20                     // unidades
	DefaultTrendDeadBand       = decimal.NewFromInt(2)  // ±%
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// DefaultSettings devuelve los umbrales por defecto: 50 %, 20 unidades y banda de ±2 %.
func DefaultSettings() entity.ComparisonSettings {
	return entity.ComparisonSettings{
		PercentageThreshold: DefaultPercentageThreshold,
		AbsoluteThreshold:   DefaultAbsoluteThreshold,
		TrendDeadBand:       DefaultTrendDeadBand,
	}
}

// ValidateSettings exige umbrales positivos y banda de tendencia no negativa.
func ValidateSettings(s entity.ComparisonSettings) error {
	if !s.PercentageThreshold.IsPositive() || s.AbsoluteThreshold <= 0 || s.TrendDeadBand.IsNegative() {
		return domain.ErrInvalidThresholds
	}
	return nil
}
