package stocktake

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// Annotate marca IsAnomaly y Severity en una copia de records.
//
// Un registro es anómalo si |porcentaje| >= PercentageThreshold o |cambio| >= AbsoluteThreshold.
// Los registros new/removed solo se evalúan por magnitud absoluta. El porcentaje se compara
// sin redondear. La severidad es relativa al umbral en cada dimensión (1x-2x moderada, más de 2x severa) y se toma la mayor.
func Annotate(records []entity.ChangeRecord, s entity.ComparisonSettings) []entity.ChangeRecord {
	out := slices.Clone(records)
	for i := range out {
		out[i].Severity = Classify(out[i], s)
		out[i].IsAnomaly = out[i].Severity != entity.SeverityNone
	}
	return out
}

// Classify devuelve la severidad de un registro ("" si no es anomalía).
func Classify(r entity.ChangeRecord, s entity.ComparisonSettings) entity.Severity {
	absChange := decimal.NewFromInt(int64(r.QuantityChange)).Abs()
	sev := band(absChange, decimal.NewFromInt(int64(s.AbsoluteThreshold)))

	if pct, ok := classifyPercentage(r); ok {
		sev = maxSeverity(sev, band(pct.Abs(), s.PercentageThreshold))
	}
	return sev
}

// classifyPercentage porcentaje contra el que se compara el umbral. Con ambas cantidades
// y base positiva se usa el valor sin redondear; si no, el porcentaje guardado.
// new/removed no tienen porcentaje.
func classifyPercentage(r entity.ChangeRecord) (decimal.Decimal, bool) {
	if r.Status == entity.ChangeNew || r.Status == entity.ChangeRemoved {
		return decimal.Zero, false
	}
	if r.PreviousQuantity != nil && r.CurrentQuantity != nil && *r.PreviousQuantity > 0 {
		return exactPercentage(*r.CurrentQuantity-*r.PreviousQuantity, *r.PreviousQuantity), true
	}
	if r.ChangePercentage == nil {
		return decimal.Zero, false
	}
	return *r.ChangePercentage, true
}

func band(value, threshold decimal.Decimal) entity.Severity {
	if !threshold.IsPositive() || value.LessThan(threshold) {
		return entity.SeverityNone
	}
	if value.GreaterThan(threshold.Mul(two)) {
		return entity.SeveritySevere
	}
	return entity.SeverityModerate
}

func severityRank(s entity.Severity) int {
	switch s {
	case entity.SeveritySevere:
		return 2
	case entity.SeverityModerate:
		return 1
	}
	return 0
}

func maxSeverity(a, b entity.Severity) entity.Severity {
	if severityRank(b) > severityRank(a) {
		return b
	}
	return a
}
