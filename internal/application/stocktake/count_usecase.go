package stocktake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stocktake-api/internal/domain"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
	"github.com/jhoicas/stocktake-api/internal/domain/repository"
	"github.com/jhoicas/stocktake-api/pkg/logger"
)

// CountUseCase ciclo de vida de los conteos físicos: crear, agregar ítems, registrar
// cantidades, completar y anular. Cada operación que modifica un conteo toma su candado,
// lo carga, aplica el cambio sobre la entidad y lo guarda con compare-and-set de versión.
type CountUseCase struct {
	tasks    repository.CountTaskRepository
	products repository.ProductRepository
	locker   TaskLocker
	metrics  Metrics
	log      *logger.Logger
	now      func() time.Time
	newID    func() string
}

// NewCountUseCase construye el caso de uso. locker, metrics y log pueden ser nil.
func NewCountUseCase(
	tasks repository.CountTaskRepository,
	products repository.ProductRepository,
	locker TaskLocker,
	metrics Metrics,
	log *logger.Logger,
) *CountUseCase {
	if locker == nil {
		locker = NopLocker{}
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CountUseCase{
		tasks:    tasks,
		products: products,
		locker:   locker,
		metrics:  metrics,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *CountUseCase) WithClock(now func() time.Time) *CountUseCase {
	uc.now = now
	return uc
}

// CreateTask abre un conteo nuevo en progreso y sin ítems.
func (uc *CountUseCase) CreateTask(ctx context.Context, operator, note string) (*entity.CountTask, error) {
	task, err := entity.NewCountTask(uc.newID(), operator, strings.TrimSpace(note), uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("crear conteo: %w", err)
	}
	uc.metrics.TaskTransition(string(entity.CountStatusInProgress))
	uc.log.Info().Str("count_id", task.CountID).Str("operator", task.Operator).Msg("conteo creado")
	return task, nil
}

// GetTask obtiene un conteo por id.
func (uc *CountUseCase) GetTask(ctx context.Context, countID string) (*entity.CountTask, error) {
	return uc.load(ctx, countID)
}

// ListTasks lista conteos, opcionalmente filtrados por estado.
func (uc *CountUseCase) ListTasks(ctx context.Context, filter entity.CountTaskFilter) ([]*entity.CountTask, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.tasks.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listar conteos: %w", err)
	}
	return list, nil
}

// AddItem agrega un producto del catálogo al conteo. Si expected es nil se usa la
// cantidad en libros del producto.
func (uc *CountUseCase) AddItem(ctx context.Context, countID, productID string, expected *int) (entity.CountItem, error) {
	if strings.TrimSpace(productID) == "" {
		return entity.CountItem{}, domain.ErrInvalidInput
	}
	task, err := uc.mutate(ctx, countID, func(t *entity.CountTask) error {
		if !t.IsActive() {
			return domain.NewTaskError(t.CountID, string(t.Status), domain.ErrTaskNotActive)
		}
		if _, ok := t.Item(productID); ok {
			return domain.NewTaskError(t.CountID, string(t.Status), domain.ErrDuplicateItem)
		}
		p, err := uc.products.GetByID(ctx, productID)
		if err != nil {
			return fmt.Errorf("obtener producto: %w", err)
		}
		if p == nil {
			return domain.ErrProductNotFound
		}
		qty := p.StockQuantity
		if expected != nil {
			qty = *expected
		}
		return t.AddItem(p, qty, uc.now())
	})
	if err != nil {
		return entity.CountItem{}, err
	}
	item, _ := task.Item(productID)
	return item, nil
}

// PopulateFromCatalog agrega todos los productos del catálogo que cumplen el filtro y
// aún no están en el conteo, con su cantidad en libros. Devuelve cuántos agregó.
func (uc *CountUseCase) PopulateFromCatalog(ctx context.Context, countID string, filter entity.ProductFilter) (int, error) {
	added := 0
	_, err := uc.mutate(ctx, countID, func(t *entity.CountTask) error {
		if !t.IsActive() {
			return domain.NewTaskError(t.CountID, string(t.Status), domain.ErrTaskNotActive)
		}
		products, err := uc.products.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("listar catálogo: %w", err)
		}
		now := uc.now()
		for _, p := range products {
			if _, ok := t.Item(p.ID); ok {
				continue
			}
			if err := t.AddItem(p, max(p.StockQuantity, 0), now); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	uc.log.Info().Str("count_id", countID).Int("added", added).Msg("ítems agregados desde catálogo")
	return added, nil
}

// RecordQuantity registra la cantidad contada de un producto del conteo.
func (uc *CountUseCase) RecordQuantity(ctx context.Context, countID, productID string, actual int, note string) (entity.CountItem, error) {
	task, err := uc.mutate(ctx, countID, func(t *entity.CountTask) error {
		return t.RecordQuantity(productID, actual, strings.TrimSpace(note), uc.now())
	})
	if err != nil {
		return entity.CountItem{}, err
	}
	item, _ := task.Item(productID)
	return item, nil
}

// CompleteTask cierra el conteo. Con intentos concurrentes exactamente uno gana;
// el resto recibe TaskNotActive o ConcurrentModification.
func (uc *CountUseCase) CompleteTask(ctx context.Context, countID string) (*entity.CountTask, error) {
	task, err := uc.mutate(ctx, countID, func(t *entity.CountTask) error {
		return t.Complete(uc.now())
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.TaskTransition(string(entity.CountStatusCompleted))
	uc.log.Info().Str("count_id", countID).Int("items", len(task.Items)).Msg("conteo completado")
	return task, nil
}

// CancelTask anula el conteo.
func (uc *CountUseCase) CancelTask(ctx context.Context, countID, reason string) (*entity.CountTask, error) {
	task, err := uc.mutate(ctx, countID, func(t *entity.CountTask) error {
		return t.Cancel(strings.TrimSpace(reason), uc.now())
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.TaskTransition(string(entity.CountStatusCancelled))
	uc.log.Info().Str("count_id", countID).Str("reason", task.CancelReason).Msg("conteo anulado")
	return task, nil
}

func (uc *CountUseCase) load(ctx context.Context, countID string) (*entity.CountTask, error) {
	if strings.TrimSpace(countID) == "" {
		return nil, domain.ErrInvalidInput
	}
	task, err := uc.tasks.GetByID(ctx, countID)
	if err != nil {
		return nil, fmt.Errorf("obtener conteo: %w", err)
	}
	if task == nil {
		return nil, domain.NewTaskError(countID, "", domain.ErrTaskNotFound)
	}
	return task, nil
}

// mutate toma el candado del conteo, lo carga, aplica fn y lo guarda con la versión leída.
// Si fn falla no se guarda nada.
func (uc *CountUseCase) mutate(ctx context.Context, countID string, fn func(*entity.CountTask) error) (*entity.CountTask, error) {
	release, err := uc.locker.Acquire(ctx, countID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskBusy) {
			uc.log.Warn().Str("count_id", countID).Msg("conteo ocupado")
		}
		return nil, err
	}
	defer release()

	task, err := uc.load(ctx, countID)
	if err != nil {
		return nil, err
	}
	version := task.Version
	if err := fn(task); err != nil {
		return nil, err
	}
	if err := uc.tasks.Save(ctx, task, version); err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			uc.log.Warn().Str("count_id", countID).Int("version", version).Msg("modificación concurrente")
			return nil, err
		}
		return nil, fmt.Errorf("guardar conteo: %w", err)
	}
	return task, nil
}
