package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stocktake-api/internal/domain/entity"
	"github.com/jhoicas/stocktake-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository = (*ProductRepo)(nil)
	_ repository.CatalogWriter     = (*ProductRepo)(nil)
)

const productColumns = `id, sku, barcode, name, category, storage_area, unit_price, stock_quantity, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID obtiene un producto por ID. Devuelve nil, nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// List devuelve los productos que cumplen el filtro, ordenados por nombre e id.
func (r *ProductRepo) List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE ($1 = '' OR category = $1) AND ($2 = '' OR storage_area = $2)
		ORDER BY name, id`
	rows, err := r.q.Query(ctx, query, filter.Category, filter.StorageArea)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Upsert inserta o actualiza productos del catálogo en un solo batch.
func (r *ProductRepo) Upsert(ctx context.Context, products []entity.Product) error {
	if len(products) == 0 {
		return nil
	}
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			sku = EXCLUDED.sku, barcode = EXCLUDED.barcode, name = EXCLUDED.name,
			category = EXCLUDED.category, storage_area = EXCLUDED.storage_area,
			unit_price = EXCLUDED.unit_price, stock_quantity = EXCLUDED.stock_quantity,
			updated_at = EXCLUDED.updated_at`
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(query, p.ID, p.SKU, p.Barcode, p.Name, p.Category, p.StorageArea,
			p.UnitPrice, p.StockQuantity, p.CreatedAt, p.UpdatedAt)
	}
	if err := r.q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert products: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	if err := row.Scan(&p.ID, &p.SKU, &p.Barcode, &p.Name, &p.Category, &p.StorageArea,
		&p.UnitPrice, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt, p.UpdatedAt = utc(p.CreatedAt), utc(p.UpdatedAt)
	return &p, nil
}
