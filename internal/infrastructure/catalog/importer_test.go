package catalog_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/stocktake-api/internal/domain"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
	"github.com/jhoicas/stocktake-api/internal/infrastructure/catalog"
	"github.com/jhoicas/stocktake-api/internal/infrastructure/memory"
)

func TestImport_CSV(t *testing.T) {
	store := memory.NewStore()
	imp := catalog.NewImporter(store.Products(), nil)
	csv := "ID,Name,Category,Storage_Area,Unit_Price,Stock_Quantity\n" +
		"1,Manzana,Frutas,Bodega,800,50\n" +
		",,,,,\n" +
		"2,Pera,,,1200.5,\n"

	n, err := imp.Import(context.Background(), "catalogo.CSV", strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	p, err := store.Products().GetByID(context.Background(), "2")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "1200.5", p.UnitPrice.String())
	assert.Equal(t, 0, p.StockQuantity)
	assert.Empty(t, p.Category, "la etiqueta por defecto se aplica al agregar al conteo")
}

func TestImport_XLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]any{
		{"id", "name", "category", "unit_price", "stock_quantity"},
		{"10", "Arroz", "Granos", "3200", "40"},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	store := memory.NewStore()
	n, err := catalog.NewImporter(store.Products(), nil).Import(context.Background(), "c.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	list, _ := store.Products().List(context.Background(), entity.ProductFilter{Category: "Granos"})
	require.Len(t, list, 1)
	assert.Equal(t, 40, list[0].StockQuantity)
}

func TestParseRows_Errores(t *testing.T) {
	now := time.Now()
	_, err := catalog.ParseRows(nil, now)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = catalog.ParseRows([][]string{{"sku", "name"}}, now)
	assert.ErrorContains(t, err, `"id"`)

	_, err = catalog.ParseRows([][]string{
		{"id", "name", "unit_price", "stock_quantity"},
		{"1", "A", "-1", "1"},
		{"2", "B", "1", "x"},
		{"1", "C", "", ""},
		{"3", "", "", ""},
	}, now)
	require.ErrorIs(t, err, domain.ErrValidation)
	for _, want := range []string{"fila 2", "fila 3", "fila 5"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestImport_FormatoNoSoportado(t *testing.T) {
	store := memory.NewStore()
	_, err := catalog.NewImporter(store.Products(), nil).Import(context.Background(), "c.json", strings.NewReader("{}"))
	assert.ErrorIs(t, err, catalog.ErrUnsupportedFormat)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
