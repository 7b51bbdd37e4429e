package report

// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: título + id de comparación │ tipo + fecha          │
//	│  CONTEOS: actual / anterior / umbrales                      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: productos, cambios, anomalías, tendencia, valor   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLAS: categorías y ubicaciones                           │
//	│  TABLA: anomalías                                           │
//	└─────────────────────────────────────────────────────────────┘

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorAlert   = &props.Color{Red: 180, Green: 40, Blue: 30}
)

// PDFRenderer reporte imprimible de una comparación con Maroto v2.
type PDFRenderer struct {
	title string
}

// NewPDFRenderer construye el renderizador. title aparece en los metadatos del documento.
func NewPDFRenderer(title string) *PDFRenderer {
	if title == "" {
		title = "Comparación de inventario"
	}
	return &PDFRenderer{title: title}
}

func (*PDFRenderer) Format() string      { return "pdf" }
func (*PDFRenderer) ContentType() string { return "application/pdf" }

// Render genera el PDF y devuelve sus bytes.
func (g *PDFRenderer) Render(_ context.Context, c *entity.Comparison) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(g.title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(c))
	m.AddRows(countsRow(c))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(c.Summary))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionRow("POR CATEGORÍA"))
	m.AddRows(groupRows(c.CategoryAggregates)...)
	m.AddRows(line.NewRow(3))
	m.AddRows(sectionRow("POR UBICACIÓN"))
	m.AddRows(groupRows(c.StorageAggregates)...)
	m.AddRows(line.NewRow(3))
	m.AddRows(sectionRow("ANOMALÍAS"))
	m.AddRows(anomalyRows(c.Anomalies())...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(c *entity.Comparison) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New("COMPARACIÓN DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(c.ComparisonID, props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Tipo: "+typeLabels[c.Type], props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2,
			}),
			text.New("Fecha: "+c.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func countsRow(c *entity.Comparison) core.Row {
	st := c.Settings
	return row.New(12).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("Conteo actual: %s   |   Conteo anterior: %s", c.CurrentCountID, c.PreviousCountID),
				props.Text{Size: 8, Top: 1}),
			text.New(fmt.Sprintf("Umbrales: %s%% / %d unidades   |   Banda de tendencia: ±%s%%",
				st.PercentageThreshold.String(), st.AbsoluteThreshold, st.TrendDeadBand.String()),
				props.Text{Size: 8, Top: 6, Color: colorGray}),
		),
	)
}

func summaryRow(s entity.ComparisonSummary) core.Row {
	box := func(label, value string, color *props.Color) core.Col {
		return col.New(2).Add(
			text.New(label, props.Text{Size: 7, Align: align.Center, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Center, Color: color, Top: 6}),
		)
	}
	anomalyColor := colorPrimary
	if s.SignificantChanges > 0 {
		anomalyColor = colorAlert
	}
	return row.New(16).Add(
		box("Productos", strconv.Itoa(s.TotalProducts), colorPrimary),
		box("Con cambios", strconv.Itoa(s.ProductsWithChanges), colorPrimary),
		box("Anomalías", strconv.Itoa(s.SignificantChanges), anomalyColor),
		box("Nuevos / retirados", fmt.Sprintf("%d / %d", s.New, s.Removed), colorPrimary),
		box("Tendencia", trendLabels[s.OverallTrend], colorPrimary),
		box("Impacto", formatMoney(s.TotalValueChange), colorPrimary),
	)
}

func sectionRow(title string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

func tableHeader(labels []string, sizes []int) core.Row {
	cols := make([]core.Col, 0, len(labels))
	for i, l := range labels {
		cols = append(cols, col.New(sizes[i]).Add(text.New(l, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Center,
			Color: colorWhite, Top: 1.5,
		})))
	}
	return row.New(7).Add(cols...).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func tableRow(values []string, sizes []int, color *props.Color) core.Row {
	cols := make([]core.Col, 0, len(values))
	for i, v := range values {
		a := align.Right
		if i == 0 {
			a = align.Left
		}
		cols = append(cols, col.New(sizes[i]).Add(text.New(v, props.Text{
			Size: 8, Align: a, Top: 1, Left: 1, Right: 1, Color: color,
		})))
	}
	return row.New(6).Add(cols...)
}

func emptyRow(msg string) core.Row {
	return row.New(6).Add(col.New(12).Add(
		text.New(msg, props.Text{Size: 8, Color: colorGray, Top: 1}),
	))
}

var groupSizes = []int{3, 1, 2, 2, 1, 2, 1}

func groupRows(groups []entity.GroupAggregate) []core.Row {
	if len(groups) == 0 {
		return []core.Row{emptyRow("Sin cambios.")}
	}
	rows := []core.Row{tableHeader(
		[]string{"Grupo", "Prod.", "Promedio", "Tendencia", "Cambio", "Impacto", "Anom."}, groupSizes,
	)}
	for _, g := range groups {
		rows = append(rows, tableRow([]string{
			g.Key, strconv.Itoa(g.ProductCount), pct(g.AverageChangePercentage), trendLabels[g.Trend],
			signed(g.TotalQuantityChange), formatMoney(g.TotalValueChange), strconv.Itoa(g.AnomalyCount),
		}, groupSizes, nil))
	}
	return rows
}

var anomalySizes = []int{4, 2, 1, 1, 1, 2, 1}

func anomalyRows(records []entity.ChangeRecord) []core.Row {
	if len(records) == 0 {
		return []core.Row{emptyRow("Sin anomalías.")}
	}
	rows := []core.Row{tableHeader(
		[]string{"Producto", "Categoría", "Ant.", "Act.", "Cambio", "%", "Sev."}, anomalySizes,
	)}
	for _, r := range records {
		var color *props.Color
		if r.Severity == entity.SeveritySevere {
			color = colorAlert
		}
		rows = append(rows, tableRow([]string{
			r.ProductName, r.Category, qty(r.PreviousQuantity), qty(r.CurrentQuantity),
			signed(r.QuantityChange), pct(r.ChangePercentage), severityLabels[r.Severity],
		}, anomalySizes, color))
	}
	return rows
}
