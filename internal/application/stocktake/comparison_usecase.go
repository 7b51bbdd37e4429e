package stocktake

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stocktake-api/internal/domain"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
	"github.com/jhoicas/stocktake-api/internal/domain/repository"
	core "github.com/jhoicas/stocktake-api/internal/domain/stocktake"
	"github.com/jhoicas/stocktake-api/pkg/logger"
)

// DefaultWeeklyWindow antigüedad mínima del conteo base en una comparación semanal.
const DefaultWeeklyWindow = 7 * 24 * time.Hour

// SettingsOverride umbrales opcionales por solicitud; los campos nil toman el valor configurado.
type SettingsOverride struct {
	PercentageThreshold *decimal.Decimal
	AbsoluteThreshold   *int
	TrendDeadBand       *decimal.Decimal
}

// Apply devuelve base con los campos presentes reemplazados.
func (o *SettingsOverride) Apply(base entity.ComparisonSettings) entity.ComparisonSettings {
	if o == nil {
		return base
	}
	if o.PercentageThreshold != nil {
		base.PercentageThreshold = *o.PercentageThreshold
	}
	if o.AbsoluteThreshold != nil {
		base.AbsoluteThreshold = *o.AbsoluteThreshold
	}
	if o.TrendDeadBand != nil {
		base.TrendDeadBand = *o.TrendDeadBand
	}
	return base
}

// CompareRequest entrada de Compare. Type vacío equivale a manual.
type CompareRequest struct {
	CurrentCountID  string
	PreviousCountID string
	Type            entity.ComparisonType
	Settings        *SettingsOverride
}

// ComparisonUseCase compara dos conteos completados y guarda el resultado.
type ComparisonUseCase struct {
	tasks        repository.CountTaskRepository
	comparisons  repository.ComparisonRepository
	engine       *core.Engine
	defaults     entity.ComparisonSettings
	weeklyWindow time.Duration
	metrics      Metrics
	log          *logger.Logger
	now          func() time.Time
	newID        func() string
}

// ComparisonOptions configuración del caso de uso. Los valores cero toman los por defecto.
type ComparisonOptions struct {
	Settings     entity.ComparisonSettings
	WeeklyWindow time.Duration
	Workers      int
	ChunkSize    int
}

// NewComparisonUseCase construye el caso de uso.
func NewComparisonUseCase(
	tasks repository.CountTaskRepository,
	comparisons repository.ComparisonRepository,
	opts ComparisonOptions,
	metrics Metrics,
	log *logger.Logger,
) *ComparisonUseCase {
	defaults := core.DefaultSettings()
	if opts.Settings.PercentageThreshold.IsPositive() {
		defaults.PercentageThreshold = opts.Settings.PercentageThreshold
	}
	if opts.Settings.AbsoluteThreshold > 0 {
		defaults.AbsoluteThreshold = opts.Settings.AbsoluteThreshold
	}
	if !opts.Settings.TrendDeadBand.IsZero() {
		defaults.TrendDeadBand = opts.Settings.TrendDeadBand
	}
	if opts.WeeklyWindow <= 0 {
		opts.WeeklyWindow = DefaultWeeklyWindow
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ComparisonUseCase{
		tasks:        tasks,
		comparisons:  comparisons,
		engine:       core.NewEngine(opts.Workers, opts.ChunkSize),
		defaults:     defaults,
		weeklyWindow: opts.WeeklyWindow,
		metrics:      metrics,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *ComparisonUseCase) WithClock(now func() time.Time) *ComparisonUseCase {
	uc.now = now
	return uc
}

// DefaultSettings umbrales configurados.
func (uc *ComparisonUseCase) DefaultSettings() entity.ComparisonSettings { return uc.defaults }

// Compare carga ambos conteos en paralelo, calcula la comparación y la guarda.
// No hay resultado parcial: si algo falla no se guarda nada.
func (uc *ComparisonUseCase) Compare(ctx context.Context, req CompareRequest) (*entity.Comparison, error) {
	cur, prev := strings.TrimSpace(req.CurrentCountID), strings.TrimSpace(req.PreviousCountID)
	if cur == "" || prev == "" {
		return nil, domain.ErrInvalidInput
	}
	if cur == prev {
		return nil, domain.NewTaskError(cur, "", domain.ErrSameSnapshot)
	}
	typ := req.Type
	if typ == "" {
		typ = entity.ComparisonTypeManual
	}
	if !typ.Valid() {
		return nil, domain.ErrInvalidInput
	}

	var current, previous *entity.CountTask
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		current, err = uc.loadTask(gctx, cur)
		return err
	})
	g.Go(func() (err error) {
		previous, err = uc.loadTask(gctx, prev)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return uc.compareTasks(ctx, current, previous, typ, req.Settings)
}

// CompareWeekly compara el último conteo completado contra el conteo completado más
// reciente con al menos WeeklyWindow de antigüedad respecto a él. Si no existe, usa el
// conteo completado inmediatamente anterior.
func (uc *ComparisonUseCase) CompareWeekly(ctx context.Context, settings *SettingsOverride) (*entity.Comparison, error) {
	completed, err := uc.tasks.List(ctx, entity.CountTaskFilter{Status: entity.CountStatusCompleted})
	if err != nil {
		return nil, fmt.Errorf("listar conteos completados: %w", err)
	}
	current, previous := SelectWeeklyPair(completed, uc.weeklyWindow)
	if current == nil || previous == nil {
		return nil, domain.ErrNoBaseline
	}
	return uc.compareTasks(ctx, current, previous, entity.ComparisonTypeWeekly, settings)
}

// SelectWeeklyPair elige (actual, base) entre conteos completados. Devuelve nil si hay
// menos de dos.
func SelectWeeklyPair(completed []*entity.CountTask, window time.Duration) (current, previous *entity.CountTask) {
	tasks := make([]*entity.CountTask, 0, len(completed))
	for _, t := range completed {
		if t.Status == entity.CountStatusCompleted && t.CompletedAt != nil {
			tasks = append(tasks, t)
		}
	}
	if len(tasks) < 2 {
		return nil, nil
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CompletedAt.After(*tasks[j].CompletedAt)
	})
	current = tasks[0]
	cutoff := current.CompletedAt.Add(-window)
	for _, t := range tasks[1:] {
		if !t.CompletedAt.After(cutoff) {
			return current, t
		}
	}
	return current, tasks[1]
}

// GetReport obtiene una comparación guardada.
func (uc *ComparisonUseCase) GetReport(ctx context.Context, comparisonID string) (*entity.Comparison, error) {
	if strings.TrimSpace(comparisonID) == "" {
		return nil, domain.ErrInvalidInput
	}
	c, err := uc.comparisons.GetByID(ctx, comparisonID)
	if err != nil {
		return nil, fmt.Errorf("obtener comparación: %w", err)
	}
	if c == nil {
		return nil, domain.ErrComparisonNotFound
	}
	return c, nil
}

// ListComparisons lista comparaciones recientes primero.
func (uc *ComparisonUseCase) ListComparisons(ctx context.Context, limit, offset int) ([]*entity.Comparison, error) {
	list, err := uc.comparisons.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listar comparaciones: %w", err)
	}
	return list, nil
}

func (uc *ComparisonUseCase) compareTasks(
	ctx context.Context,
	current, previous *entity.CountTask,
	typ entity.ComparisonType,
	override *SettingsOverride,
) (*entity.Comparison, error) {
	start := time.Now()
	c, err := uc.engine.Compare(ctx, core.CompareInput{
		ComparisonID: uc.newID(),
		Type:         typ,
		Current:      current,
		Previous:     previous,
		Settings:     override.Apply(uc.defaults),
		CreatedAt:    uc.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := uc.comparisons.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("guardar comparación: %w", err)
	}
	elapsed := time.Since(start)
	uc.metrics.ComparisonCreated(string(typ), c.Summary.SignificantChanges, elapsed)
	uc.log.Info().
		Str("comparison_id", c.ComparisonID).
		Str("current", c.CurrentCountID).
		Str("previous", c.PreviousCountID).
		Str("type", string(typ)).
		Int("changes", c.Summary.ProductsWithChanges).
		Int("anomalies", c.Summary.SignificantChanges).
		Dur("elapsed", elapsed).
		Msg("comparación creada")
	return c, nil
}

func (uc *ComparisonUseCase) loadTask(ctx context.Context, countID string) (*entity.CountTask, error) {
	t, err := uc.tasks.GetByID(ctx, countID)
	if err != nil {
		return nil, fmt.Errorf("obtener conteo %s: %w", countID, err)
	}
	if t == nil {
		return nil, domain.NewTaskError(countID, "", domain.ErrTaskNotFound)
	}
	return t, nil
}
