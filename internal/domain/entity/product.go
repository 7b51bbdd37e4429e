package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Etiquetas usadas cuando el catálogo no trae categoría o ubicación.
// Un ítem de conteo nunca queda sin estos campos.
const (
	UncategorizedLabel  = "Sin categoría"
	UnassignedAreaLabel = "Sin ubicación"
)

// Product representa un producto del catálogo de la tienda.
// Para el conteo es de solo lectura: sus datos se copian al ítem en el momento de agregarlo.
type Product struct {
	ID            string
	SKU           string
	Barcode       string
	Name          string
	Category      string
	StorageArea   string          // bodega, estante o zona física
	UnitPrice     decimal.Decimal // precio de venta
	StockQuantity int             // cantidad en libros; cantidad esperada por defecto
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProductFilter filtra el catálogo por categoría y/o ubicación (vacío = sin filtro).
type ProductFilter struct {
	Category    string
	StorageArea string
}

// Matches indica si el producto cumple el filtro.
func (f ProductFilter) Matches(p *Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.StorageArea != "" && p.StorageArea != f.StorageArea {
		return false
	}
	return true
}
