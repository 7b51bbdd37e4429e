package repository

import (
	"context"

	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// ComparisonRepository persistencia de comparaciones. Son inmutables: no hay Update.
type ComparisonRepository interface {
	Create(ctx context.Context, c *entity.Comparison) error
	// GetByID devuelve nil, nil si la comparación no existe.
	GetByID(ctx context.Context, comparisonID string) (*entity.Comparison, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Comparison, error)
}
