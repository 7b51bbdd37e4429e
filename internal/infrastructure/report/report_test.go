package report_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/stocktake-api/internal/application/stocktake"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
	core "github.com/jhoicas/stocktake-api/internal/domain/stocktake"
	"github.com/jhoicas/stocktake-api/internal/infrastructure/report"
)

var (
	_ stocktake.ReportRenderer = (*report.CSVRenderer)(nil)
	_ stocktake.ReportRenderer = (*report.MarkdownRenderer)(nil)
	_ stocktake.ReportRenderer = (*report.XLSXRenderer)(nil)
	_ stocktake.ReportRenderer = (*report.PDFRenderer)(nil)
)

func snapshot(id string, qty map[string]int) *entity.CountTask {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	t := &entity.CountTask{CountID: id, Status: entity.CountStatusCompleted, CompletedAt: &now}
	for _, pid := range []string{"1", "2", "3", "4"} {
		q, ok := qty[pid]
		if !ok {
			continue
		}
		cat := "fruta"
		if pid == "3" {
			cat = "lácteos | frío"
		}
		t.Items = append(t.Items, entity.CountItem{
			ProductID: pid, ProductName: "Producto " + pid, Category: cat, StorageArea: "bodega",
			UnitPrice: decimal.NewFromInt(1500), ActualQuantity: &q,
		})
	}
	return t
}

func sampleComparison(t *testing.T) *entity.Comparison {
	t.Helper()
	c, err := core.NewEngine(0, 0).Compare(context.Background(), core.CompareInput{
		ComparisonID: "cmp-1",
		Type:         entity.ComparisonTypeWeekly,
		Current:      snapshot("B", map[string]int{"1": 35, "2": 100, "3": 25}),
		Previous:     snapshot("A", map[string]int{"1": 50, "2": 100, "4": 100}),
		Settings:     core.DefaultSettings(),
		CreatedAt:    time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return c
}

func TestCSVRenderer(t *testing.T) {
	out, err := report.NewCSVRenderer().Render(context.Background(), sampleComparison(t))
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4, "cabecera + 3 cambios")
	assert.Equal(t, "product_id", rows[0][0])
	assert.Equal(t, []string{"1", "Producto 1", "fruta", "bodega", "50", "35", "-15", "-30.00", "decreased", "false", "", "1500", "-22500"}, rows[1])
	assert.Equal(t, "", rows[2][4], "producto nuevo sin cantidad anterior")
	assert.Equal(t, "", rows[2][7])
	assert.Equal(t, "removed", rows[3][8])
	assert.Equal(t, "severe", rows[3][10])
}

func TestMarkdownRenderer(t *testing.T) {
	out, err := report.NewMarkdownRenderer().Render(context.Background(), sampleComparison(t))
	require.NoError(t, err)
	md := string(out)
	assert.Contains(t, md, "# Comparación de inventario cmp-1")
	assert.Contains(t, md, "- Tipo: semanal")
	assert.Contains(t, md, `lácteos \| frío`, "escapa separadores")
	assert.Contains(t, md, "| Producto 4 | fruta | 100 | — | -100 | — | severa |")
	assert.Contains(t, md, "-$135.000", "impacto total: -22.500 + 37.500 - 150.000")
}

func TestMarkdownRenderer_SinAnomalias(t *testing.T) {
	c := &entity.Comparison{ComparisonID: "x", Type: entity.ComparisonTypeManual}
	out, err := report.NewMarkdownRenderer().Render(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(out), "Sin anomalías.\n"))
}

func TestXLSXRenderer(t *testing.T) {
	c := sampleComparison(t)
	out, err := report.NewXLSXRenderer().Render(context.Background(), c)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{report.SheetSummary, report.SheetChanges, report.SheetCategories, report.SheetAreas}, f.GetSheetList())

	id, err := f.GetCellValue(report.SheetSummary, "B1")
	require.NoError(t, err)
	assert.Equal(t, "cmp-1", id)

	rows, err := f.GetRows(report.SheetChanges)
	require.NoError(t, err)
	require.Len(t, rows, 1+len(c.ChangeRecords))
	assert.Equal(t, "Producto", rows[0][0])
	assert.Equal(t, "-15", rows[1][6])

	cats, err := f.GetRows(report.SheetCategories)
	require.NoError(t, err)
	assert.Len(t, cats, 1+len(c.CategoryAggregates))
}

func TestPDFRenderer(t *testing.T) {
	out, err := report.NewPDFRenderer("").Render(context.Background(), sampleComparison(t))
	require.NoError(t, err)
	require.Greater(t, len(out), 100)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")), "cabecera PDF")

	empty := &entity.Comparison{ComparisonID: "vacía", Type: entity.ComparisonTypeManual}
	out, err = report.NewPDFRenderer("x").Render(context.Background(), empty)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
