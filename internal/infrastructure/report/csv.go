package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// CSVRenderer una fila por registro de cambio, con separador coma y cabecera.
type CSVRenderer struct{}

func NewCSVRenderer() *CSVRenderer { return &CSVRenderer{} }

func (*CSVRenderer) Format() string      { return "csv" }
func (*CSVRenderer) ContentType() string { return "text/csv; charset=utf-8" }

var csvHeader = []string{
	"product_id", "product_name", "category", "storage_area",
	"previous_quantity", "current_quantity", "quantity_change", "change_percentage",
	"status", "is_anomaly", "severity", "unit_price", "value_change",
}

func (*CSVRenderer) Render(_ context.Context, c *entity.Comparison) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("csv: cabecera: %w", err)
	}
	for _, r := range c.ChangeRecords {
		pctValue := ""
		if r.ChangePercentage != nil {
			pctValue = r.ChangePercentage.StringFixed(2)
		}
		if err := w.Write([]string{
			r.ProductID, r.ProductName, r.Category, r.StorageArea,
			optInt(r.PreviousQuantity), optInt(r.CurrentQuantity),
			strconv.Itoa(r.QuantityChange), pctValue,
			string(r.Status), strconv.FormatBool(r.IsAnomaly), string(r.Severity),
			r.UnitPrice.String(), r.ValueChange.String(),
		}); err != nil {
			return nil, fmt.Errorf("csv: fila %s: %w", r.ProductID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	return buf.Bytes(), nil
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
