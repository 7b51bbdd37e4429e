// Package catalog carga el catálogo de productos desde archivos CSV o XLSX.
// La primera fila es el encabezado; las columnas se ubican por nombre.
package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/stocktake-api/internal/domain"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
	"github.com/jhoicas/stocktake-api/internal/domain/repository"
	"github.com/jhoicas/stocktake-api/pkg/logger"
)

// Columnas reconocidas. id y name son obligatorias.
const (
	ColID            = "id"
	ColSKU           = "sku"
	ColBarcode       = "barcode"
	ColName          = "name"
	ColCategory      = "category"
	ColStorageArea   = "storage_area"
	ColUnitPrice     = "unit_price"
	ColStockQuantity = "stock_quantity"
)

// ErrUnsupportedFormat la extensión del archivo no es .csv ni .xlsx.
var ErrUnsupportedFormat = fmt.Errorf("%w: solo se admiten archivos .csv o .xlsx", domain.ErrValidation)

// Importer valida filas del archivo y las escribe en el catálogo.
type Importer struct {
	writer repository.CatalogWriter
	log    *logger.Logger
	now    func() time.Time
}

// NewImporter construye el importador. log puede ser nil.
func NewImporter(writer repository.CatalogWriter, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{writer: writer, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Import lee el archivo (formato según la extensión de filename), valida todas las filas
// y solo si todas son válidas las guarda. Devuelve cuántos productos escribió.
func (i *Importer) Import(ctx context.Context, filename string, r io.Reader) (int, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx":
		rows, err = readXLSX(r)
	default:
		return 0, ErrUnsupportedFormat
	}
	if err != nil {
		return 0, err
	}
	products, err := ParseRows(rows, i.now())
	if err != nil {
		return 0, err
	}
	if err := i.writer.Upsert(ctx, products); err != nil {
		return 0, fmt.Errorf("guardar catálogo: %w", err)
	}
	i.log.Info().Str("file", filepath.Base(filename)).Int("products", len(products)).Msg("catálogo importado")
	return len(products), nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: CSV inválido: %v", domain.ErrValidation, err)
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: XLSX inválido: %v", domain.ErrValidation, err)
	}
	defer func() { _ = f.Close() }()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: el libro no tiene hojas", domain.ErrValidation)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("leer hoja %s: %w", sheets[0], err)
	}
	return rows, nil
}

// ParseRows convierte filas (encabezado + datos) en productos. Ignora filas vacías.
// Los errores indican la fila de la hoja (la 1 es el encabezado) y envuelven domain.ErrValidation.
func ParseRows(rows [][]string, now time.Time) ([]entity.Product, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: archivo vacío", domain.ErrValidation)
	}
	idx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{ColID, ColName} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: falta la columna %q", domain.ErrValidation, col)
		}
	}

	seen := make(map[string]int)
	out := make([]entity.Product, 0, len(rows)-1)
	var errs []error
	for n, row := range rows[1:] {
		line := n + 2
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if isBlank(row) {
			continue
		}
		p := entity.Product{
			ID:          get(ColID),
			SKU:         get(ColSKU),
			Barcode:     get(ColBarcode),
			Name:        get(ColName),
			Category:    get(ColCategory),
			StorageArea: get(ColStorageArea),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if p.ID == "" || p.Name == "" {
			errs = append(errs, fmt.Errorf("fila %d: id y name son obligatorios", line))
			continue
		}
		if prev, dup := seen[p.ID]; dup {
			errs = append(errs, fmt.Errorf("fila %d: id %s repetido (fila %d)", line, p.ID, prev))
			continue
		}
		seen[p.ID] = line
		if v := get(ColUnitPrice); v != "" {
			price, err := decimal.NewFromString(v)
			if err != nil || price.IsNegative() {
				errs = append(errs, fmt.Errorf("fila %d: unit_price inválido %q", line, v))
				continue
			}
			p.UnitPrice = price
		}
		if v := get(ColStockQuantity); v != "" {
			qty, err := strconv.Atoi(v)
			if err != nil || qty < 0 {
				errs = append(errs, fmt.Errorf("fila %d: stock_quantity inválido %q", line, v))
				continue
			}
			p.StockQuantity = qty
		}
		out = append(out, p)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, errors.Join(errs...))
	}
	return out, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
