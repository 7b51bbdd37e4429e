package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// MarkdownRenderer resumen legible para pegar en tickets o chats.
type MarkdownRenderer struct{}

func NewMarkdownRenderer() *MarkdownRenderer { return &MarkdownRenderer{} }

func (*MarkdownRenderer) Format() string      { return "md" }
func (*MarkdownRenderer) ContentType() string { return "text/markdown; charset=utf-8" }

func (*MarkdownRenderer) Render(_ context.Context, c *entity.Comparison) ([]byte, error) {
	var b bytes.Buffer
	s := c.Summary
	fmt.Fprintf(&b, "# Comparación de inventario %s\n\n", c.ComparisonID)
	fmt.Fprintf(&b, "- Conteo actual: `%s`\n- Conteo anterior: `%s`\n", c.CurrentCountID, c.PreviousCountID)
	fmt.Fprintf(&b, "- Tipo: %s\n- Fecha: %s\n\n", typeLabels[c.Type], c.CreatedAt.Format("2006-01-02 15:04"))

	b.WriteString("## Resumen\n\n")
	fmt.Fprintf(&b, "| Productos | Con cambios | Anomalías | Tendencia | Impacto en valor |\n|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %s | %s |\n\n",
		s.TotalProducts, s.ProductsWithChanges, s.SignificantChanges, trendLabels[s.OverallTrend], formatMoney(s.TotalValueChange))
	fmt.Fprintf(&b, "Aumentaron %d, disminuyeron %d, nuevos %d, retirados %d.\n\n", s.Increased, s.Decreased, s.New, s.Removed)

	writeGroups(&b, "Categorías", c.CategoryAggregates)
	writeGroups(&b, "Ubicaciones", c.StorageAggregates)

	anomalies := c.Anomalies()
	b.WriteString("## Anomalías\n\n")
	if len(anomalies) == 0 {
		b.WriteString("Sin anomalías.\n")
		return b.Bytes(), nil
	}
	b.WriteString("| Producto | Categoría | Anterior | Actual | Cambio | % | Severidad |\n|---|---|---|---|---|---|---|\n")
	for _, r := range anomalies {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			cell(r.ProductName), cell(r.Category), qty(r.PreviousQuantity), qty(r.CurrentQuantity),
			signed(r.QuantityChange), pct(r.ChangePercentage), severityLabels[r.Severity])
	}
	return b.Bytes(), nil
}

func writeGroups(b *bytes.Buffer, title string, groups []entity.GroupAggregate) {
	fmt.Fprintf(b, "## %s\n\n", title)
	if len(groups) == 0 {
		b.WriteString("Sin cambios.\n\n")
		return
	}
	b.WriteString("| Grupo | Productos | Promedio | Tendencia | Cambio | Valor | Anomalías |\n|---|---|---|---|---|---|---|\n")
	for _, g := range groups {
		fmt.Fprintf(b, "| %s | %d | %s | %s | %s | %s | %d |\n",
			cell(g.Key), g.ProductCount, pct(g.AverageChangePercentage), trendLabels[g.Trend],
			signed(g.TotalQuantityChange), formatMoney(g.TotalValueChange), g.AnomalyCount)
	}
	b.WriteString("\n")
}

// cell escapa los separadores de tabla.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
