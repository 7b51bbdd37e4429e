package stocktake_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stocktake-api/internal/application/stocktake"
	"github.com/jhoicas/stocktake-api/internal/domain"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
	"github.com/jhoicas/stocktake-api/internal/infrastructure/memory"
)

type comparisonFixture struct {
	counts      *stocktake.CountUseCase
	comparisons *stocktake.ComparisonUseCase
	store       *memory.Store
	clock       *fakeClock
	metrics     *recordingMetrics
}

func newComparisonFixture(t *testing.T) *comparisonFixture {
	t.Helper()
	counts, store, clock, metrics := newCountUseCase(t, nil)
	cmp := stocktake.NewComparisonUseCase(store.Tasks(), store.Comparisons(), stocktake.ComparisonOptions{}, metrics, nil).
		WithClock(clock.Now)
	return &comparisonFixture{counts: counts, comparisons: cmp, store: store, clock: clock, metrics: metrics}
}

// completedCount crea y completa un conteo con las cantidades dadas por producto.
func (f *comparisonFixture) completedCount(t *testing.T, qty map[string]int) *entity.CountTask {
	t.Helper()
	ctx := context.Background()
	task, err := f.counts.CreateTask(ctx, "ana", "")
	require.NoError(t, err)
	for _, id := range []string{"1", "2", "3", "4"} {
		q, ok := qty[id]
		if !ok {
			continue
		}
		_, err := f.counts.AddItem(ctx, task.CountID, id, nil)
		require.NoError(t, err)
		_, err = f.counts.RecordQuantity(ctx, task.CountID, id, q, "")
		require.NoError(t, err)
	}
	done, err := f.counts.CompleteTask(ctx, task.CountID)
	require.NoError(t, err)
	return done
}

func TestCompare_FlujoCompletoYPersistencia(t *testing.T) {
	f := newComparisonFixture(t)
	ctx := context.Background()
	prev := f.completedCount(t, map[string]int{"1": 50, "2": 40, "4": 100})
	f.clock.Advance(24 * time.Hour)
	cur := f.completedCount(t, map[string]int{"1": 35, "2": 40, "3": 25})

	c, err := f.comparisons.Compare(ctx, stocktake.CompareRequest{CurrentCountID: cur.CountID, PreviousCountID: prev.CountID})
	require.NoError(t, err)
	assert.Equal(t, entity.ComparisonTypeManual, c.Type)
	assert.Equal(t, 4, c.Summary.TotalProducts)
	assert.Equal(t, 3, c.Summary.ProductsWithChanges)
	assert.Equal(t, 2, c.Summary.SignificantChanges)

	// 1: -15 × 800; 3: +25 × 4200; 4: -100 × 0
	assert.True(t, c.Summary.TotalValueChange.Equal(decimal.NewFromInt(-12000+105000)), "valor: %s", c.Summary.TotalValueChange)

	stored, err := f.comparisons.GetReport(ctx, c.ComparisonID)
	require.NoError(t, err)
	assert.Equal(t, c.Summary, stored.Summary)
	assert.Equal(t, []string{"manual"}, f.metrics.comparisons)

	list, err := f.comparisons.ListComparisons(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCompare_MismoConteoFallaSinCargar(t *testing.T) {
	f := newComparisonFixture(t)
	_, err := f.comparisons.Compare(context.Background(), stocktake.CompareRequest{CurrentCountID: "x", PreviousCountID: "x"})
	assert.ErrorIs(t, err, domain.ErrSameSnapshot)

	list, _ := f.comparisons.ListComparisons(context.Background(), 0, 0)
	assert.Empty(t, list, "no hay resultado parcial")
}

func TestCompare_Errores(t *testing.T) {
	f := newComparisonFixture(t)
	ctx := context.Background()
	done := f.completedCount(t, map[string]int{"1": 1})
	open, _ := f.counts.CreateTask(ctx, "luis", "")

	_, err := f.comparisons.Compare(ctx, stocktake.CompareRequest{CurrentCountID: open.CountID, PreviousCountID: done.CountID})
	assert.ErrorIs(t, err, domain.ErrSnapshotNotCompleted)

	_, err = f.comparisons.Compare(ctx, stocktake.CompareRequest{CurrentCountID: "nope", PreviousCountID: done.CountID})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = f.comparisons.Compare(ctx, stocktake.CompareRequest{CurrentCountID: done.CountID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	other := f.completedCount(t, map[string]int{"1": 2})
	_, err = f.comparisons.Compare(ctx, stocktake.CompareRequest{
		CurrentCountID: other.CountID, PreviousCountID: done.CountID, Type: "diaria",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	zero := 0
	_, err = f.comparisons.Compare(ctx, stocktake.CompareRequest{
		CurrentCountID: other.CountID, PreviousCountID: done.CountID,
		Settings: &stocktake.SettingsOverride{AbsoluteThreshold: &zero},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidThresholds)

	_, err = f.comparisons.GetReport(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrComparisonNotFound)
}

func TestExport_FormatosOrdenados(t *testing.T) {
	f := newComparisonFixture(t)
	export := stocktake.NewExportUseCase(f.comparisons,
		stubRenderer{format: "xlsx"}, stubRenderer{format: "csv"}, stubRenderer{format: "md"})
	assert.Equal(t, []string{"csv", "md", "xlsx"}, export.Formats())

	_, _, _, err := export.Export(context.Background(), "x", "docx")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION", domain.Code(err))
	assert.Contains(t, err.Error(), "csv, md, xlsx")
}

func TestCompare_UmbralesPorSolicitud(t *testing.T) {
	f := newComparisonFixture(t)
	ctx := context.Background()
	prev := f.completedCount(t, map[string]int{"1": 0})
	cur := f.completedCount(t, map[string]int{"1": 10})

	c, err := f.comparisons.Compare(ctx, stocktake.CompareRequest{CurrentCountID: cur.CountID, PreviousCountID: prev.CountID})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Summary.SignificantChanges)

	ten := 10
	c, err = f.comparisons.Compare(ctx, stocktake.CompareRequest{
		CurrentCountID: cur.CountID, PreviousCountID: prev.CountID,
		Settings: &stocktake.SettingsOverride{AbsoluteThreshold: &ten},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Summary.SignificantChanges)
	assert.Equal(t, 10, c.Settings.AbsoluteThreshold)
	assert.True(t, c.Settings.PercentageThreshold.Equal(decimal.NewFromInt(50)), "los demás campos quedan por defecto")
}

func TestCompareWeekly(t *testing.T) {
	f := newComparisonFixture(t)
	ctx := context.Background()

	_, err := f.comparisons.CompareWeekly(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrNoBaseline)

	weekAgo := f.completedCount(t, map[string]int{"1": 10})
	f.clock.Advance(5 * 24 * time.Hour)
	f.completedCount(t, map[string]int{"1": 11})
	f.clock.Advance(2 * 24 * time.Hour)
	latest := f.completedCount(t, map[string]int{"1": 12})

	c, err := f.comparisons.CompareWeekly(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.ComparisonTypeWeekly, c.Type)
	assert.Equal(t, latest.CountID, c.CurrentCountID)
	assert.Equal(t, weekAgo.CountID, c.PreviousCountID)
	assert.Equal(t, []string{"weekly"}, f.metrics.comparisons)
}

func TestSelectWeeklyPair_SinVentanaUsaAnterior(t *testing.T) {
	at := func(day int) *time.Time {
		v := time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC)
		return &v
	}
	a := &entity.CountTask{CountID: "a", Status: entity.CountStatusCompleted, CompletedAt: at(1)}
	b := &entity.CountTask{CountID: "b", Status: entity.CountStatusCompleted, CompletedAt: at(3)}
	c := &entity.CountTask{CountID: "c", Status: entity.CountStatusCompleted, CompletedAt: at(4)}
	x := &entity.CountTask{CountID: "x", Status: entity.CountStatusCancelled, CompletedAt: at(5)}

	cur, prev := stocktake.SelectWeeklyPair([]*entity.CountTask{a, x, c, b}, 7*24*time.Hour)
	assert.Equal(t, "c", cur.CountID)
	assert.Equal(t, "b", prev.CountID)

	cur, prev = stocktake.SelectWeeklyPair([]*entity.CountTask{c}, time.Hour)
	assert.Nil(t, cur)
	assert.Nil(t, prev)
}

type stubRenderer struct{ format string }

func (s stubRenderer) Format() string      { return s.format }
func (s stubRenderer) ContentType() string { return "text/plain" }
func (s stubRenderer) Render(_ context.Context, c *entity.Comparison) ([]byte, error) {
	return []byte(c.ComparisonID), nil
}

func TestExport(t *testing.T) {
	f := newComparisonFixture(t)
	ctx := context.Background()
	prev := f.completedCount(t, map[string]int{"1": 1})
	cur := f.completedCount(t, map[string]int{"1": 2})
	c, err := f.comparisons.Compare(ctx, stocktake.CompareRequest{CurrentCountID: cur.CountID, PreviousCountID: prev.CountID})
	require.NoError(t, err)

	export := stocktake.NewExportUseCase(f.comparisons, stubRenderer{format: "txt"})
	data, name, ct, err := export.Export(ctx, c.ComparisonID, " TXT ")
	require.NoError(t, err)
	assert.Equal(t, c.ComparisonID, string(data))
	assert.Equal(t, "comparacion-"+c.ComparisonID+".txt", name)
	assert.Equal(t, "text/plain", ct)

	_, _, _, err = export.Export(ctx, c.ComparisonID, "docx")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "disponibles: txt")
	_, _, _, err = export.Export(ctx, "nope", "txt")
	assert.ErrorIs(t, err, domain.ErrComparisonNotFound)
}
