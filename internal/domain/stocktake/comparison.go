package stocktake

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stocktake-api/internal/domain"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// CompareInput datos para construir una Comparison.
type CompareInput struct {
	ComparisonID string
	Type         entity.ComparisonType
	Current      *entity.CountTask
	Previous     *entity.CountTask
	Settings     entity.ComparisonSettings
	CreatedAt    time.Time
}

// Compare ejecuta el flujo completo: diferencia, anomalías, agregados y resumen.
// No persiste nada; si falla no hay resultado parcial.
func (e *Engine) Compare(ctx context.Context, in CompareInput) (*entity.Comparison, error) {
	if in.ComparisonID == "" || !in.Type.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if err := ValidateSettings(in.Settings); err != nil {
		return nil, err
	}
	records, err := e.Diff(ctx, in.Current, in.Previous)
	if err != nil {
		return nil, err
	}
	records = Annotate(records, in.Settings)

	categories := Aggregate(records, ByCategory, in.Settings.TrendDeadBand)
	areas := Aggregate(records, ByStorageArea, in.Settings.TrendDeadBand)

	return &entity.Comparison{
		ComparisonID:       in.ComparisonID,
		CurrentCountID:     in.Current.CountID,
		PreviousCountID:    in.Previous.CountID,
		Type:               in.Type,
		CreatedAt:          in.CreatedAt,
		Settings:           in.Settings,
		ChangeRecords:      records,
		CategoryAggregates: categories,
		StorageAggregates:  areas,
		Summary:            Summarize(records, UnionSize(in.Current, in.Previous), categories),
	}, nil
}

// Summarize arma el resumen. totalProducts es la cantidad de productos distintos
// de ambos conteos, no solo los que cambiaron.
func Summarize(records []entity.ChangeRecord, totalProducts int, categories []entity.GroupAggregate) entity.ComparisonSummary {
	s := entity.ComparisonSummary{
		TotalProducts:       totalProducts,
		ProductsWithChanges: len(records),
		OverallTrend:        OverallTrend(categories),
		TotalValueChange:    decimal.Zero,
	}
	for _, r := range records {
		if r.IsAnomaly {
			s.SignificantChanges++
		}
		switch r.Status {
		case entity.ChangeIncreased:
			s.Increased++
		case entity.ChangeDecreased:
			s.Decreased++
		case entity.ChangeNew:
			s.New++
		case entity.ChangeRemoved:
			s.Removed++
		}
		s.TotalValueChange = s.TotalValueChange.Add(r.ValueChange)
	}
	return s
}
