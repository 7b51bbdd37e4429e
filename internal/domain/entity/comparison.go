package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComparisonType origen de la comparación.
type ComparisonType string

const (
	ComparisonTypeWeekly ComparisonType = "weekly"
	ComparisonTypeManual ComparisonType = "manual"
)

// Valid indica si t es un tipo reconocido.
func (t ComparisonType) Valid() bool {
	return t == ComparisonTypeWeekly || t == ComparisonTypeManual
}

// ChangeStatus clasificación de un cambio entre dos conteos.
type ChangeStatus string

const (
	ChangeIncreased ChangeStatus = "increased"
	ChangeDecreased ChangeStatus = "decreased"
	ChangeNew       ChangeStatus = "new"     // solo en el conteo actual
	ChangeRemoved   ChangeStatus = "removed" // solo en el conteo anterior
)

// Severity severidad de una anomalía. Vacío = sin anomalía.
type Severity string

const (
	SeverityNone     Severity = ""
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Trend tendencia de un grupo (categoría o ubicación).
type Trend string

const (
	TrendGrowth  Trend = "growth"
	TrendDecline Trend = "decline"
	TrendStable  Trend = "stable"
)

// ChangeRecord cambio de un producto entre el conteo anterior y el actual.
// Se deriva al comparar; no se persiste por separado de su Comparison.
type ChangeRecord struct {
	ProductID        string
	ProductName      string
	Category         string
	StorageArea      string
	PreviousQuantity *int // nil si el producto es nuevo
	CurrentQuantity  *int // nil si el producto fue retirado
	QuantityChange   int
	ChangePercentage *decimal.Decimal // nil para new/removed
	Status           ChangeStatus
	IsAnomaly        bool
	Severity         Severity
	UnitPrice        decimal.Decimal
	ValueChange      decimal.Decimal // QuantityChange * UnitPrice
}

// ComparisonSettings umbrales de anomalía y banda muerta de tendencia usados en una comparación.
type ComparisonSettings struct {
	PercentageThreshold decimal.Decimal // % absoluto de cambio
	AbsoluteThreshold   int             // unidades
	TrendDeadBand       decimal.Decimal // % alrededor de cero considerado estable
}

// GroupAggregate resumen de los cambios de un grupo (categoría o ubicación).
type GroupAggregate struct {
	Key                     string
	ProductCount            int
	AverageChangePercentage *decimal.Decimal // nil si ningún registro del grupo tiene porcentaje
	Trend                   Trend
	TotalQuantityChange     int
	TotalValueChange        decimal.Decimal
	AnomalyCount            int
}

// ComparisonSummary totales de una comparación.
type ComparisonSummary struct {
	TotalProducts       int // productos distintos en la unión de ambos conteos
	ProductsWithChanges int
	SignificantChanges  int
	OverallTrend        Trend
	Increased           int
	Decreased           int
	New                 int
	Removed             int
	TotalValueChange    decimal.Decimal
}

// Comparison diferencia calculada entre dos conteos completados, con su resumen.
// Nunca se modifica después de crearse: recalcular implica crear otra.
type Comparison struct {
	ComparisonID       string
	CurrentCountID     string
	PreviousCountID    string
	Type               ComparisonType
	CreatedAt          time.Time
	Settings           ComparisonSettings
	ChangeRecords      []ChangeRecord
	CategoryAggregates []GroupAggregate
	StorageAggregates  []GroupAggregate
	Summary            ComparisonSummary
}

// Anomalies devuelve los registros marcados como anomalía, en el mismo orden.
func (c *Comparison) Anomalies() []ChangeRecord {
	out := make([]ChangeRecord, 0, c.Summary.SignificantChanges)
	for _, r := range c.ChangeRecords {
		if r.IsAnomaly {
			out = append(out, r)
		}
	}
	return out
}
