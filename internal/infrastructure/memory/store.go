// Package memory implementa los puertos de persistencia en memoria, para tests
// y entornos efímeros (STORAGE_DRIVER=memory). Todo lo que entra y sale se copia,
// así los llamadores nunca comparten estado con el almacén.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/jhoicas/stocktake-api/internal/domain"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
	"github.com/jhoicas/stocktake-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository    = (*ProductRepo)(nil)
	_ repository.CatalogWriter        = (*ProductRepo)(nil)
	_ repository.CountTaskRepository  = (*CountTaskRepo)(nil)
	_ repository.ComparisonRepository = (*ComparisonRepo)(nil)
)

// Store estado compartido por los tres repositorios.
type Store struct {
	mu          sync.RWMutex
	products    map[string]entity.Product
	tasks       map[string]*entity.CountTask
	comparisons map[string]*entity.Comparison
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		products:    make(map[string]entity.Product),
		tasks:       make(map[string]*entity.CountTask),
		comparisons: make(map[string]*entity.Comparison),
	}
}

// PutProducts inserta o reemplaza productos del catálogo.
func (s *Store) PutProducts(products ...entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		s.products[p.ID] = p
	}
}

// Products devuelve el repositorio de catálogo.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Tasks devuelve el repositorio de conteos.
func (s *Store) Tasks() *CountTaskRepo { return &CountTaskRepo{s: s} }

// Comparisons devuelve el repositorio de comparaciones.
func (s *Store) Comparisons() *ComparisonRepo { return &ComparisonRepo{s: s} }

// ProductRepo catálogo en memoria.
type ProductRepo struct{ s *Store }

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Upsert implementa repository.CatalogWriter.
func (r *ProductRepo) Upsert(_ context.Context, products []entity.Product) error {
	r.s.PutProducts(products...)
	return nil
}

// List devuelve los productos que cumplen el filtro, ordenados por nombre e id.
func (r *ProductRepo) List(_ context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if filter.Matches(&p) {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// CountTaskRepo conteos en memoria con compare-and-set por versión.
type CountTaskRepo struct{ s *Store }

func (r *CountTaskRepo) Create(_ context.Context, task *entity.CountTask) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[task.CountID]; ok {
		return domain.NewTaskError(task.CountID, string(task.Status), domain.ErrConcurrentModification)
	}
	r.s.tasks[task.CountID] = task.Clone()
	return nil
}

func (r *CountTaskRepo) GetByID(_ context.Context, countID string) (*entity.CountTask, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tasks[countID]
	if !ok {
		return nil, nil
	}
	return t.Clone(), nil
}

func (r *CountTaskRepo) Save(_ context.Context, task *entity.CountTask, expectedVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tasks[task.CountID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if stored.Version != expectedVersion || !stored.IsActive() {
		return domain.NewTaskError(stored.CountID, string(stored.Status), domain.ErrConcurrentModification)
	}
	task.Version = expectedVersion + 1
	r.s.tasks[task.CountID] = task.Clone()
	return nil
}

func (r *CountTaskRepo) List(_ context.Context, filter entity.CountTaskFilter) ([]*entity.CountTask, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.CountTask, 0, len(r.s.tasks))
	for _, t := range r.s.tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CountID < out[j].CountID
	})
	return page(out, filter.Limit, filter.Offset), nil
}

// ComparisonRepo comparaciones en memoria.
type ComparisonRepo struct{ s *Store }

func (r *ComparisonRepo) Create(_ context.Context, c *entity.Comparison) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comparisons[c.ComparisonID]; ok {
		return domain.ErrConflict
	}
	r.s.comparisons[c.ComparisonID] = cloneComparison(c)
	return nil
}

func (r *ComparisonRepo) GetByID(_ context.Context, comparisonID string) (*entity.Comparison, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.comparisons[comparisonID]
	if !ok {
		return nil, nil
	}
	return cloneComparison(c), nil
}

// List ordena por fecha de creación descendente.
func (r *ComparisonRepo) List(_ context.Context, limit, offset int) ([]*entity.Comparison, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Comparison, 0, len(r.s.comparisons))
	for _, c := range r.s.comparisons {
		out = append(out, cloneComparison(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ComparisonID < out[j].ComparisonID
	})
	return page(out, limit, offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneComparison(c *entity.Comparison) *entity.Comparison {
	out := *c
	out.ChangeRecords = make([]entity.ChangeRecord, len(c.ChangeRecords))
	for i, r := range c.ChangeRecords {
		if r.PreviousQuantity != nil {
			v := *r.PreviousQuantity
			r.PreviousQuantity = &v
		}
		if r.CurrentQuantity != nil {
			v := *r.CurrentQuantity
			r.CurrentQuantity = &v
		}
		if r.ChangePercentage != nil {
			v := *r.ChangePercentage
			r.ChangePercentage = &v
		}
		out.ChangeRecords[i] = r
	}
	out.CategoryAggregates = cloneGroups(c.CategoryAggregates)
	out.StorageAggregates = cloneGroups(c.StorageAggregates)
	return &out
}

func cloneGroups(groups []entity.GroupAggregate) []entity.GroupAggregate {
	out := slices.Clone(groups)
	for i := range out {
		if out[i].AverageChangePercentage != nil {
			v := *out[i].AverageChangePercentage
			out[i].AverageChangePercentage = &v
		}
	}
	return out
}
