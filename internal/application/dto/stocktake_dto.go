package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// CreateCountTaskRequest entrada para abrir un conteo. Operator vacío = usuario del token.
type CreateCountTaskRequest struct {
	Operator string `json:"operator" validate:"omitempty,max=120"`
	Note     string `json:"note" validate:"max=500"`
}

// AddCountItemRequest entrada para agregar un producto al conteo.
// Sin expected_quantity se usa la cantidad en libros del producto.
type AddCountItemRequest struct {
	ProductID        string `json:"product_id" validate:"required,max=64"`
	ExpectedQuantity *int   `json:"expected_quantity"`
}

// PopulateCountRequest filtro de catálogo para agregar ítems en bloque.
type PopulateCountRequest struct {
	Category    string `json:"category" validate:"max=120"`
	StorageArea string `json:"storage_area" validate:"max=120"`
}

// PopulateCountResponse cantidad de ítems agregados.
type PopulateCountResponse struct {
	Added int `json:"added"`
}

// RecordQuantityRequest cantidad contada de un producto.
type RecordQuantityRequest struct {
	ActualQuantity *int   `json:"actual_quantity" validate:"required"`
	Note           string `json:"note" validate:"max=500"`
}

// CancelCountTaskRequest motivo de anulación.
type CancelCountTaskRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// CountTaskListQuery filtros del listado de conteos.
type CountTaskListQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=in_progress completed cancelled"`
	PageRequest
}

// CountItemResponse salida de un ítem de conteo.
type CountItemResponse struct {
	ProductID        string          `json:"product_id"`
	ProductName      string          `json:"product_name"`
	Category         string          `json:"category"`
	StorageArea      string          `json:"storage_area"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ExpectedQuantity int             `json:"expected_quantity"`
	ActualQuantity   *int            `json:"actual_quantity"`
	Difference       *int            `json:"difference"`
	Note             string          `json:"note,omitempty"`
	AddedAt          time.Time       `json:"added_at"`
	RecordedAt       *time.Time      `json:"recorded_at,omitempty"`
}

// CountProgressResponse avance del conteo.
type CountProgressResponse struct {
	TotalItems         int `json:"total_items"`
	RecordedItems      int `json:"recorded_items"`
	PendingItems       int `json:"pending_items"`
	ItemsWithDiff      int `json:"items_with_difference"`
	TotalAbsDifference int `json:"total_abs_difference"`
}

// CountTaskResponse salida de un conteo.
type CountTaskResponse struct {
	CountID      string                `json:"count_id"`
	Status       string                `json:"status"`
	Operator     string                `json:"operator"`
	Note         string                `json:"note,omitempty"`
	Items        []CountItemResponse   `json:"items"`
	Progress     CountProgressResponse `json:"progress"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
	CancelledAt  *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason string                `json:"cancel_reason,omitempty"`
	Version      int                   `json:"version"`
}

// CountTaskListResponse lista paginada de conteos.
type CountTaskListResponse struct {
	Items []CountTaskResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}

// ComparisonSettingsRequest umbrales opcionales; los ausentes toman la configuración del servidor.
type ComparisonSettingsRequest struct {
	PercentageThreshold *decimal.Decimal `json:"percentage_threshold"`
	AbsoluteThreshold   *int             `json:"absolute_threshold"`
	TrendDeadBand       *decimal.Decimal `json:"trend_dead_band"`
}

// CompareRequest entrada para comparar dos conteos completados.
type CompareRequest struct {
	CurrentCountID  string                     `json:"current_count_id" validate:"required"`
	PreviousCountID string                     `json:"previous_count_id" validate:"required"`
	ComparisonType  string                     `json:"comparison_type" validate:"omitempty,oneof=weekly manual"`
	Settings        *ComparisonSettingsRequest `json:"settings"`
}

// WeeklyCompareRequest entrada para la comparación semanal automática.
type WeeklyCompareRequest struct {
	Settings *ComparisonSettingsRequest `json:"settings"`
}

// ChangeRecordResponse cambio de un producto.
type ChangeRecordResponse struct {
	ProductID        string           `json:"product_id"`
	ProductName      string           `json:"product_name"`
	Category         string           `json:"category"`
	StorageArea      string           `json:"storage_area"`
	PreviousQuantity *int             `json:"previous_quantity"`
	CurrentQuantity  *int             `json:"current_quantity"`
	QuantityChange   int              `json:"quantity_change"`
	ChangePercentage *decimal.Decimal `json:"change_percentage"`
	Status           string           `json:"status"`
	IsAnomaly        bool             `json:"is_anomaly"`
	Severity         *string          `json:"severity"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	ValueChange      decimal.Decimal  `json:"value_change"`
}

// GroupAggregateResponse agregado por categoría o ubicación.
type GroupAggregateResponse struct {
	Key                     string           `json:"key"`
	ProductCount            int              `json:"product_count"`
	AverageChangePercentage *decimal.Decimal `json:"average_change_percentage"`
	Trend                   string           `json:"trend"`
	TotalQuantityChange     int              `json:"total_quantity_change"`
	TotalValueChange        decimal.Decimal  `json:"total_value_change"`
	AnomalyCount            int              `json:"anomaly_count"`
}

// ComparisonSummaryResponse totales de la comparación.
type ComparisonSummaryResponse struct {
	TotalProducts       int             `json:"total_products"`
	ProductsWithChanges int             `json:"products_with_changes"`
	SignificantChanges  int             `json:"significant_changes"`
	OverallTrend        string          `json:"overall_trend"`
	Increased           int             `json:"increased"`
	Decreased           int             `json:"decreased"`
	New                 int             `json:"new"`
	Removed             int             `json:"removed"`
	TotalValueChange    decimal.Decimal `json:"total_value_change"`
}

// ComparisonSettingsResponse umbrales usados.
type ComparisonSettingsResponse struct {
	PercentageThreshold decimal.Decimal `json:"percentage_threshold"`
	AbsoluteThreshold   int             `json:"absolute_threshold"`
	TrendDeadBand       decimal.Decimal `json:"trend_dead_band"`
}

// ComparisonResponse reporte completo de una comparación.
type ComparisonResponse struct {
	ComparisonID       string                     `json:"comparison_id"`
	CurrentCountID     string                     `json:"current_count_id"`
	PreviousCountID    string                     `json:"previous_count_id"`
	ComparisonType     string                     `json:"comparison_type"`
	CreatedAt          time.Time                  `json:"created_at"`
	Settings           ComparisonSettingsResponse `json:"settings"`
	Summary            ComparisonSummaryResponse  `json:"summary"`
	ChangeRecords      []ChangeRecordResponse     `json:"change_records"`
	CategoryAggregates []GroupAggregateResponse   `json:"category_aggregates"`
	StorageAggregates  []GroupAggregateResponse   `json:"storage_aggregates"`
}

// ComparisonHeaderResponse comparación sin detalle, para listados.
type ComparisonHeaderResponse struct {
	ComparisonID    string                    `json:"comparison_id"`
	CurrentCountID  string                    `json:"current_count_id"`
	PreviousCountID string                    `json:"previous_count_id"`
	ComparisonType  string                    `json:"comparison_type"`
	CreatedAt       time.Time                 `json:"created_at"`
	Summary         ComparisonSummaryResponse `json:"summary"`
}

// ComparisonListResponse lista paginada de comparaciones.
type ComparisonListResponse struct {
	Items []ComparisonHeaderResponse `json:"items"`
	Page  PageResponse               `json:"page"`
}

// ComparisonInsightResponse narrativa generada por el LLM sobre una comparación.
type ComparisonInsightResponse struct {
	ComparisonID string   `json:"comparison_id"`
	Headline     string   `json:"headline"`
	Narrative    string   `json:"narrative"`
	Actions      []string `json:"actions"`
	Model        string   `json:"model"`
}

// ToCountTaskResponse mapea la entidad a su salida HTTP.
func ToCountTaskResponse(t *entity.CountTask) CountTaskResponse {
	items := make([]CountItemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, CountItemResponse{
			ProductID:        it.ProductID,
			ProductName:      it.ProductName,
			Category:         it.Category,
			StorageArea:      it.StorageArea,
			UnitPrice:        it.UnitPrice,
			ExpectedQuantity: it.ExpectedQuantity,
			ActualQuantity:   it.ActualQuantity,
			Difference:       it.Difference(),
			Note:             it.Note,
			AddedAt:          it.AddedAt,
			RecordedAt:       it.RecordedAt,
		})
	}
	p := t.Progress()
	return CountTaskResponse{
		CountID:  t.CountID,
		Status:   string(t.Status),
		Operator: t.Operator,
		Note:     t.Note,
		Items:    items,
		Progress: CountProgressResponse{
			TotalItems:         p.TotalItems,
			RecordedItems:      p.RecordedItems,
			PendingItems:       p.PendingItems,
			ItemsWithDiff:      p.ItemsWithDiff,
			TotalAbsDifference: p.TotalAbsDifference,
		},
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		CompletedAt:  t.CompletedAt,
		CancelledAt:  t.CancelledAt,
		CancelReason: t.CancelReason,
		Version:      t.Version,
	}
}

// ToCountItemResponse mapea un ítem.
func ToCountItemResponse(it entity.CountItem) CountItemResponse {
	t := entity.CountTask{Items: []entity.CountItem{it}}
	return ToCountTaskResponse(&t).Items[0]
}

// ToComparisonResponse mapea la comparación completa.
func ToComparisonResponse(c *entity.Comparison) ComparisonResponse {
	records := make([]ChangeRecordResponse, 0, len(c.ChangeRecords))
	for _, r := range c.ChangeRecords {
		var sev *string
		if r.Severity != entity.SeverityNone {
			s := string(r.Severity)
			sev = &s
		}
		records = append(records, ChangeRecordResponse{
			ProductID:        r.ProductID,
			ProductName:      r.ProductName,
			Category:         r.Category,
			StorageArea:      r.StorageArea,
			PreviousQuantity: r.PreviousQuantity,
			CurrentQuantity:  r.CurrentQuantity,
			QuantityChange:   r.QuantityChange,
			ChangePercentage: r.ChangePercentage,
			Status:           string(r.Status),
			IsAnomaly:        r.IsAnomaly,
			Severity:         sev,
			UnitPrice:        r.UnitPrice,
			ValueChange:      r.ValueChange,
		})
	}
	return ComparisonResponse{
		ComparisonID:    c.ComparisonID,
		CurrentCountID:  c.CurrentCountID,
		PreviousCountID: c.PreviousCountID,
		ComparisonType:  string(c.Type),
		CreatedAt:       c.CreatedAt,
		Settings: ComparisonSettingsResponse{
			PercentageThreshold: c.Settings.PercentageThreshold,
			AbsoluteThreshold:   c.Settings.AbsoluteThreshold,
			TrendDeadBand:       c.Settings.TrendDeadBand,
		},
		Summary:            toSummaryResponse(c.Summary),
		ChangeRecords:      records,
		CategoryAggregates: toGroupResponses(c.CategoryAggregates),
		StorageAggregates:  toGroupResponses(c.StorageAggregates),
	}
}

// ToComparisonHeaderResponse mapea la cabecera de una comparación.
func ToComparisonHeaderResponse(c *entity.Comparison) ComparisonHeaderResponse {
	return ComparisonHeaderResponse{
		ComparisonID:    c.ComparisonID,
		CurrentCountID:  c.CurrentCountID,
		PreviousCountID: c.PreviousCountID,
		ComparisonType:  string(c.Type),
		CreatedAt:       c.CreatedAt,
		Summary:         toSummaryResponse(c.Summary),
	}
}

func toSummaryResponse(s entity.ComparisonSummary) ComparisonSummaryResponse {
	return ComparisonSummaryResponse{
		TotalProducts:       s.TotalProducts,
		ProductsWithChanges: s.ProductsWithChanges,
		SignificantChanges:  s.SignificantChanges,
		OverallTrend:        string(s.OverallTrend),
		Increased:           s.Increased,
		Decreased:           s.Decreased,
		New:                 s.New,
		Removed:             s.Removed,
		TotalValueChange:    s.TotalValueChange,
	}
}

func toGroupResponses(groups []entity.GroupAggregate) []GroupAggregateResponse {
	out := make([]GroupAggregateResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupAggregateResponse{
			Key:                     g.Key,
			ProductCount:            g.ProductCount,
			AverageChangePercentage: g.AverageChangePercentage,
			Trend:                   string(g.Trend),
			TotalQuantityChange:     g.TotalQuantityChange,
			TotalValueChange:        g.TotalValueChange,
			AnomalyCount:            g.AnomalyCount,
		})
	}
	return out
}
