// Package report renderiza comparaciones guardadas en formatos descargables
// (xlsx, pdf, csv y markdown). Solo consume entity.Comparison; no calcula nada.
package report

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

const dash = "—"

var statusLabels = map[entity.ChangeStatus]string{
	entity.ChangeIncreased: "aumentó",
	entity.ChangeDecreased: "disminuyó",
	entity.ChangeNew:       "nuevo",
	entity.ChangeRemoved:   "retirado",
}

var trendLabels = map[entity.Trend]string{
	entity.TrendGrowth:  "crecimiento",
	entity.TrendDecline: "declive",
	entity.TrendStable:  "estable",
}

var severityLabels = map[entity.Severity]string{
	entity.SeverityNone:     "",
	entity.SeverityModerate: "moderada",
	entity.SeveritySevere:   "severa",
}

var typeLabels = map[entity.ComparisonType]string{
	entity.ComparisonTypeWeekly: "semanal",
	entity.ComparisonTypeManual: "manual",
}

func qty(v *int) string {
	if v == nil {
		return dash
	}
	return strconv.Itoa(*v)
}

func pct(v *decimal.Decimal) string {
	if v == nil {
		return dash
	}
	return v.StringFixed(2) + "%"
}

func signed(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// formatMoney redondea a pesos y agrega puntos de miles: -1234567 → "-$1.234.567".
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(0)
	n := len(s)
	buf := make([]byte, 0, n+n/3+2)
	if d.Round(0).IsNegative() {
		buf = append(buf, '-')
	}
	buf = append(buf, '$')
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
