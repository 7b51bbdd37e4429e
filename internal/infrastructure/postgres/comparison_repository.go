package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stocktake-api/internal/domain"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
	"github.com/jhoicas/stocktake-api/internal/domain/repository"
)

var _ repository.ComparisonRepository = (*ComparisonRepo)(nil)

const comparisonColumns = `comparison_id, current_count_id, previous_count_id, comparison_type, created_at,
	settings, summary, change_records, category_aggregates, storage_aggregates`

// ComparisonRepo comparaciones sobre PostgreSQL. Registros, agregados y resumen se guardan
// como JSONB; significant_changes y total_value_change quedan en columnas para consultas.
type ComparisonRepo struct {
	q Querier
}

// NewComparisonRepository construye el adaptador. Pasar pool o tx (Querier).
func NewComparisonRepository(q Querier) *ComparisonRepo {
	return &ComparisonRepo{q: q}
}

// Create inserta la comparación. Las comparaciones no se actualizan nunca.
func (r *ComparisonRepo) Create(ctx context.Context, c *entity.Comparison) error {
	docs, err := marshalComparison(c)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `INSERT INTO comparisons (`+comparisonColumns+`, significant_changes, total_value_change)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ComparisonID, c.CurrentCountID, c.PreviousCountID, c.Type, c.CreatedAt,
		docs[0], docs[1], docs[2], docs[3], docs[4],
		c.Summary.SignificantChanges, c.Summary.TotalValueChange)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert comparison: %w", err)
	}
	return nil
}

// GetByID devuelve nil, nil si la comparación no existe.
func (r *ComparisonRepo) GetByID(ctx context.Context, comparisonID string) (*entity.Comparison, error) {
	c, err := scanComparison(r.q.QueryRow(ctx,
		`SELECT `+comparisonColumns+` FROM comparisons WHERE comparison_id = $1`, comparisonID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get comparison: %w", err)
	}
	return c, nil
}

// List ordena por fecha de creación descendente.
func (r *ComparisonRepo) List(ctx context.Context, limit, offset int) ([]*entity.Comparison, error) {
	lim := any(nil)
	if limit > 0 {
		lim = limit
	}
	rows, err := r.q.Query(ctx, `SELECT `+comparisonColumns+` FROM comparisons
		ORDER BY created_at DESC, comparison_id LIMIT $1 OFFSET $2`, lim, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("list comparisons: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Comparison, error) {
		return scanComparison(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan comparison: %w", err)
	}
	return list, nil
}

func marshalComparison(c *entity.Comparison) ([5]json.RawMessage, error) {
	var out [5]json.RawMessage
	for i, v := range []any{c.Settings, c.Summary, c.ChangeRecords, c.CategoryAggregates, c.StorageAggregates} {
		b, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("serializar comparación: %w", err)
		}
		out[i] = b
	}
	return out, nil
}

func scanComparison(row pgx.Row) (*entity.Comparison, error) {
	var (
		c    entity.Comparison
		docs [5][]byte
	)
	if err := row.Scan(&c.ComparisonID, &c.CurrentCountID, &c.PreviousCountID, &c.Type, &c.CreatedAt,
		&docs[0], &docs[1], &docs[2], &docs[3], &docs[4]); err != nil {
		return nil, err
	}
	c.CreatedAt = utc(c.CreatedAt)
	targets := []any{&c.Settings, &c.Summary, &c.ChangeRecords, &c.CategoryAggregates, &c.StorageAggregates}
	for i, dst := range targets {
		if err := json.Unmarshal(docs[i], dst); err != nil {
			return nil, fmt.Errorf("deserializar comparación %s: %w", c.ComparisonID, err)
		}
	}
	if c.ChangeRecords == nil {
		c.ChangeRecords = []entity.ChangeRecord{}
	}
	return &c, nil
}
