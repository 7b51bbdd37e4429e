package repository

import (
	"context"

	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// ProductRepository puerto de lectura del catálogo (DIP). El conteo solo lee productos.
type ProductRepository interface {
	// GetByID devuelve nil, nil si el producto no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error)
}

// CatalogWriter carga del catálogo desde una fuente externa (CSV de semilla).
type CatalogWriter interface {
	Upsert(ctx context.Context, products []entity.Product) error
}
