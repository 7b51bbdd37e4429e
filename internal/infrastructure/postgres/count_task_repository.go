package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stocktake-api/internal/domain"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
	"github.com/jhoicas/stocktake-api/internal/domain/repository"
)

var _ repository.CountTaskRepository = (*CountTaskRepo)(nil)

const (
	taskColumns = `count_id, status, operator, note, created_at, updated_at, completed_at, cancelled_at, cancel_reason, version`
	itemColumns = `count_id, product_id, product_name, category, storage_area, unit_price, expected_quantity, actual_quantity, note, added_at, recorded_at`
)

// CountTaskRepo conteos sobre PostgreSQL. La cabecera vive en count_tasks y los ítems en
// count_items; cada escritura reemplaza ambos dentro de una transacción.
type CountTaskRepo struct {
	q  Querier
	tx *TxRunner
}

// NewCountTaskRepository construye el adaptador. db suele ser el pool.
func NewCountTaskRepository(db interface {
	Querier
	TxStarter
}) *CountTaskRepo {
	return &CountTaskRepo{q: db, tx: NewTxRunner(db)}
}

// Create inserta un conteo nuevo con sus ítems.
func (r *CountTaskRepo) Create(ctx context.Context, task *entity.CountTask) error {
	return r.tx.Run(ctx, func(q Querier) error {
		_, err := q.Exec(ctx, `INSERT INTO count_tasks (`+taskColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			task.CountID, task.Status, task.Operator, task.Note, task.CreatedAt, task.UpdatedAt,
			task.CompletedAt, task.CancelledAt, task.CancelReason, task.Version)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.NewTaskError(task.CountID, string(task.Status), domain.ErrConcurrentModification)
			}
			return fmt.Errorf("insert count task: %w", err)
		}
		return insertItems(ctx, q, task)
	})
}

// GetByID obtiene el conteo con sus ítems en orden de inserción. Devuelve nil, nil si no existe.
func (r *CountTaskRepo) GetByID(ctx context.Context, countID string) (*entity.CountTask, error) {
	task, err := scanTask(r.q.QueryRow(ctx, `SELECT `+taskColumns+` FROM count_tasks WHERE count_id = $1`, countID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get count task: %w", err)
	}
	if err := r.loadItems(ctx, []*entity.CountTask{task}); err != nil {
		return nil, err
	}
	return task, nil
}

// Save aplica compare-and-set: solo actualiza si la versión guardada es expectedVersion
// y el conteo guardado sigue en progreso.
func (r *CountTaskRepo) Save(ctx context.Context, task *entity.CountTask, expectedVersion int) error {
	err := r.tx.Run(ctx, func(q Querier) error {
		tag, err := q.Exec(ctx, `
			UPDATE count_tasks SET status = $3, operator = $4, note = $5, updated_at = $6,
				completed_at = $7, cancelled_at = $8, cancel_reason = $9, version = version + 1
			WHERE count_id = $1 AND version = $2 AND status = 'in_progress'`,
			task.CountID, expectedVersion, task.Status, task.Operator, task.Note, task.UpdatedAt,
			task.CompletedAt, task.CancelledAt, task.CancelReason)
		if err != nil {
			return fmt.Errorf("update count task: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var status string
			err := q.QueryRow(ctx, `SELECT status FROM count_tasks WHERE count_id = $1`, task.CountID).Scan(&status)
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrTaskNotFound
			}
			if err != nil {
				return fmt.Errorf("get count task status: %w", err)
			}
			return domain.NewTaskError(task.CountID, status, domain.ErrConcurrentModification)
		}
		if _, err := q.Exec(ctx, `DELETE FROM count_items WHERE count_id = $1`, task.CountID); err != nil {
			return fmt.Errorf("delete count items: %w", err)
		}
		return insertItems(ctx, q, task)
	})
	if err != nil {
		return err
	}
	task.Version = expectedVersion + 1
	return nil
}

// List ordena por fecha de creación descendente.
func (r *CountTaskRepo) List(ctx context.Context, filter entity.CountTaskFilter) ([]*entity.CountTask, error) {
	limit := any(nil)
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	rows, err := r.q.Query(ctx, `SELECT `+taskColumns+` FROM count_tasks
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, count_id
		LIMIT $2 OFFSET $3`, string(filter.Status), limit, max(filter.Offset, 0))
	if err != nil {
		return nil, fmt.Errorf("list count tasks: %w", err)
	}
	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.CountTask, error) {
		return scanTask(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan count task: %w", err)
	}
	if err := r.loadItems(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *CountTaskRepo) loadItems(ctx context.Context, tasks []*entity.CountTask) error {
	if len(tasks) == 0 {
		return nil
	}
	byID := make(map[string]*entity.CountTask, len(tasks))
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		byID[t.CountID] = t
		ids = append(ids, t.CountID)
	}
	rows, err := r.q.Query(ctx, `SELECT `+itemColumns+` FROM count_items
		WHERE count_id = ANY($1) ORDER BY count_id, position`, ids)
	if err != nil {
		return fmt.Errorf("list count items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			countID string
			it      entity.CountItem
		)
		if err := rows.Scan(&countID, &it.ProductID, &it.ProductName, &it.Category, &it.StorageArea,
			&it.UnitPrice, &it.ExpectedQuantity, &it.ActualQuantity, &it.Note, &it.AddedAt, &it.RecordedAt); err != nil {
			return fmt.Errorf("scan count item: %w", err)
		}
		it.AddedAt, it.RecordedAt = utc(it.AddedAt), utcPtr(it.RecordedAt)
		t := byID[countID]
		t.Items = append(t.Items, it)
	}
	return rows.Err()
}

func insertItems(ctx context.Context, q Querier, task *entity.CountTask) error {
	if len(task.Items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, it := range task.Items {
		batch.Queue(`INSERT INTO count_items (position, `+itemColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			i, task.CountID, it.ProductID, it.ProductName, it.Category, it.StorageArea,
			it.UnitPrice, it.ExpectedQuantity, it.ActualQuantity, it.Note, it.AddedAt, it.RecordedAt)
	}
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert count items: %w", err)
	}
	return nil
}

func scanTask(row pgx.Row) (*entity.CountTask, error) {
	var t entity.CountTask
	if err := row.Scan(&t.CountID, &t.Status, &t.Operator, &t.Note, &t.CreatedAt, &t.UpdatedAt,
		&t.CompletedAt, &t.CancelledAt, &t.CancelReason, &t.Version); err != nil {
		return nil, err
	}
	t.CreatedAt, t.UpdatedAt = utc(t.CreatedAt), utc(t.UpdatedAt)
	t.CompletedAt, t.CancelledAt = utcPtr(t.CompletedAt), utcPtr(t.CancelledAt)
	t.Items = []entity.CountItem{}
	return &t, nil
}
