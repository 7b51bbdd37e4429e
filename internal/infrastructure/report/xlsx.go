package report

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// Hojas del libro exportado.
const (
	SheetSummary    = "Resumen"
	SheetChanges    = "Cambios"
	SheetCategories = "Categorías"
	SheetAreas      = "Ubicaciones"
)

// XLSXRenderer libro de Excel con una hoja de resumen, el detalle de cambios y los agregados.
type XLSXRenderer struct{}

func NewXLSXRenderer() *XLSXRenderer { return &XLSXRenderer{} }

func (*XLSXRenderer) Format() string { return "xlsx" }
func (*XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (*XLSXRenderer) Render(_ context.Context, c *entity.Comparison) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("xlsx: hoja resumen: %w", err)
	}
	for _, name := range []string{SheetChanges, SheetCategories, SheetAreas} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("xlsx: hoja %s: %w", name, err)
		}
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"00467F"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}
	anomaly, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FCE4D6"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}

	w := sheetWriter{f: f}
	s := c.Summary
	w.rows(SheetSummary, [][]any{
		{"Comparación", c.ComparisonID},
		{"Conteo actual", c.CurrentCountID},
		{"Conteo anterior", c.PreviousCountID},
		{"Tipo", typeLabels[c.Type]},
		{"Fecha", c.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Umbral porcentual", c.Settings.PercentageThreshold.InexactFloat64()},
		{"Umbral absoluto", c.Settings.AbsoluteThreshold},
		{"Banda de tendencia", c.Settings.TrendDeadBand.InexactFloat64()},
		{"Productos", s.TotalProducts},
		{"Con cambios", s.ProductsWithChanges},
		{"Anomalías", s.SignificantChanges},
		{"Aumentaron", s.Increased},
		{"Disminuyeron", s.Decreased},
		{"Nuevos", s.New},
		{"Retirados", s.Removed},
		{"Tendencia general", trendLabels[s.OverallTrend]},
		{"Impacto en valor", s.TotalValueChange.InexactFloat64()},
	})

	w.header(SheetChanges, header, []any{
		"Producto", "Nombre", "Categoría", "Ubicación", "Anterior", "Actual",
		"Cambio", "% Cambio", "Estado", "Anomalía", "Severidad", "Precio", "Impacto",
	})
	for i, r := range c.ChangeRecords {
		row := i + 2
		w.row(SheetChanges, row, []any{
			r.ProductID, r.ProductName, r.Category, r.StorageArea,
			optCell(r.PreviousQuantity), optCell(r.CurrentQuantity), r.QuantityChange,
			pctCell(r), statusLabels[r.Status], boolLabel(r.IsAnomaly), severityLabels[r.Severity],
			r.UnitPrice.InexactFloat64(), r.ValueChange.InexactFloat64(),
		})
		if r.IsAnomaly {
			w.style(SheetChanges, row, 13, anomaly)
		}
	}

	for sheet, groups := range map[string][]entity.GroupAggregate{
		SheetCategories: c.CategoryAggregates,
		SheetAreas:      c.StorageAggregates,
	} {
		w.header(sheet, header, []any{"Grupo", "Productos", "% Promedio", "Tendencia", "Cambio", "Impacto", "Anomalías"})
		for i, g := range groups {
			var avg any = ""
			if g.AverageChangePercentage != nil {
				avg = g.AverageChangePercentage.InexactFloat64()
			}
			w.row(sheet, i+2, []any{
				g.Key, g.ProductCount, avg, trendLabels[g.Trend],
				g.TotalQuantityChange, g.TotalValueChange.InexactFloat64(), g.AnomalyCount,
			})
		}
	}
	if w.err != nil {
		return nil, fmt.Errorf("xlsx: %w", w.err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetWriter acumula el primer error de excelize.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) row(sheet string, row int, values []any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(sheet, cell, &values)
}

func (w *sheetWriter) rows(sheet string, rows [][]any) {
	for i, r := range rows {
		w.row(sheet, i+1, r)
	}
}

func (w *sheetWriter) header(sheet string, style int, values []any) {
	w.row(sheet, 1, values)
	w.style(sheet, 1, len(values), style)
}

func (w *sheetWriter) style(sheet string, row, cols, style int) {
	if w.err != nil {
		return
	}
	from, _ := excelize.CoordinatesToCellName(1, row)
	to, _ := excelize.CoordinatesToCellName(cols, row)
	w.err = w.f.SetCellStyle(sheet, from, to, style)
}

func optCell(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

func pctCell(r entity.ChangeRecord) any {
	if r.ChangePercentage == nil {
		return ""
	}
	return r.ChangePercentage.InexactFloat64()
}

func boolLabel(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}
