package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stocktake-api/internal/domain"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
	"github.com/jhoicas/stocktake-api/internal/infrastructure/memory"
)

func TestCountTaskRepo_SaveCompareAndSet(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Tasks()
	now := time.Now()

	task, err := entity.NewCountTask("c1", "ana", "", now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, task))
	assert.ErrorIs(t, repo.Create(ctx, task), domain.ErrConcurrentModification)

	a, _ := repo.GetByID(ctx, "c1")
	b, _ := repo.GetByID(ctx, "c1")
	a.Note = "primera"
	require.NoError(t, repo.Save(ctx, a, 0))
	assert.Equal(t, 1, a.Version)

	b.Note = "segunda"
	err = repo.Save(ctx, b, 0)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	got, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "primera", got.Note)
}

func TestCountTaskRepo_TerminalNoSeGuarda(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Tasks()
	task, _ := entity.NewCountTask("c1", "ana", "", time.Now())
	require.NoError(t, repo.Create(ctx, task))

	loaded, _ := repo.GetByID(ctx, "c1")
	require.NoError(t, loaded.Cancel("error", time.Now()))
	require.NoError(t, repo.Save(ctx, loaded, 0))

	again, _ := repo.GetByID(ctx, "c1")
	assert.ErrorIs(t, repo.Save(ctx, again, again.Version), domain.ErrConcurrentModification)
}

func TestCountTaskRepo_CopiaAislada(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Tasks()
	task, _ := entity.NewCountTask("c1", "ana", "", time.Now())
	require.NoError(t, repo.Create(ctx, task))
	task.Operator = "mutado"

	got, _ := repo.GetByID(ctx, "c1")
	assert.Equal(t, "ana", got.Operator)

	missing, err := repo.GetByID(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCountTaskRepo_ListFiltraYPagina(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Tasks()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		task, _ := entity.NewCountTask(id, "ana", "", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Create(ctx, task))
	}
	b, _ := repo.GetByID(ctx, "b")
	require.NoError(t, b.Cancel("", base))
	require.NoError(t, repo.Save(ctx, b, 0))

	all, err := repo.List(ctx, entity.CountTaskFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].CountID, "más reciente primero")

	active, _ := repo.List(ctx, entity.CountTaskFilter{Status: entity.CountStatusInProgress})
	assert.Len(t, active, 2)

	paged, _ := repo.List(ctx, entity.CountTaskFilter{Limit: 1, Offset: 1})
	require.Len(t, paged, 1)
	assert.Equal(t, "b", paged[0].CountID)

	empty, _ := repo.List(ctx, entity.CountTaskFilter{Offset: 10})
	assert.Empty(t, empty)
}

func TestProductRepo_ListConFiltro(t *testing.T) {
	store := memory.NewStore()
	store.PutProducts(
		entity.Product{ID: "1", Name: "Manzana", Category: "fruta", StorageArea: "A", UnitPrice: decimal.NewFromInt(500)},
		entity.Product{ID: "2", Name: "Leche", Category: "lácteos", StorageArea: "B"},
		entity.Product{ID: "3", Name: "Banano", Category: "fruta", StorageArea: "B"},
	)
	repo := store.Products()

	frutas, err := repo.List(context.Background(), entity.ProductFilter{Category: "fruta"})
	require.NoError(t, err)
	require.Len(t, frutas, 2)
	assert.Equal(t, "Banano", frutas[0].Name)

	zonaB, _ := repo.List(context.Background(), entity.ProductFilter{StorageArea: "B", Category: "fruta"})
	require.Len(t, zonaB, 1)
	assert.Equal(t, "3", zonaB[0].ID)

	p, err := repo.GetByID(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, p.UnitPrice.Equal(decimal.NewFromInt(500)))
}

func TestComparisonRepo_Inmutable(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Comparisons()
	pct := decimal.NewFromInt(10)
	c := &entity.Comparison{
		ComparisonID: "x", CreatedAt: time.Now(),
		ChangeRecords: []entity.ChangeRecord{{ProductID: "1", ChangePercentage: &pct}},
	}
	require.NoError(t, repo.Create(ctx, c))
	assert.ErrorIs(t, repo.Create(ctx, c), domain.ErrConflict)

	*c.ChangeRecords[0].ChangePercentage = decimal.NewFromInt(99)
	got, err := repo.GetByID(ctx, "x")
	require.NoError(t, err)
	assert.True(t, got.ChangeRecords[0].ChangePercentage.Equal(decimal.NewFromInt(10)))

	list, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
