package repository

import (
	"context"

	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// CountTaskRepository define el puerto de persistencia para CountTask (DIP).
type CountTaskRepository interface {
	Create(ctx context.Context, task *entity.CountTask) error
	// GetByID devuelve nil, nil si el conteo no existe.
	GetByID(ctx context.Context, countID string) (*entity.CountTask, error)
	// Save persiste el conteo solo si la versión guardada es expectedVersion y el
	// conteo guardado sigue en progreso; si no, devuelve domain.ErrConcurrentModification.
	// En éxito task.Version queda en expectedVersion+1.
	Save(ctx context.Context, task *entity.CountTask, expectedVersion int) error
	// List ordena por fecha de creación descendente.
	List(ctx context.Context, filter entity.CountTaskFilter) ([]*entity.CountTask, error)
}
