package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/stocktake-api/internal/application/dto"
	"github.com/jhoicas/stocktake-api/internal/application/ports"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// insightTimeout tope de cada llamada al LLM.
const insightTimeout = 20 * time.Second

// ErrInsightDisabled no hay proveedor de IA configurado.
var ErrInsightDisabled = errors.New("narrativa IA no configurada")

// ComparisonReader obtiene comparaciones guardadas (lo cumple stocktake.ComparisonUseCase).
type ComparisonReader interface {
	GetReport(ctx context.Context, comparisonID string) (*entity.Comparison, error)
}

// InsightUseCase genera una narrativa de una comparación con ayuda de un LLM.
// La comparación no cambia; la narrativa no se guarda.
type InsightUseCase struct {
	comparisons ComparisonReader
	llm         ports.LLMService
}

// NewInsightUseCase construye el caso de uso. llm nil deja la función deshabilitada.
func NewInsightUseCase(comparisons ComparisonReader, llm ports.LLMService) *InsightUseCase {
	return &InsightUseCase{comparisons: comparisons, llm: llm}
}

// Enabled indica si hay un proveedor configurado.
func (uc *InsightUseCase) Enabled() bool { return uc.llm != nil }

// Narrate carga la comparación y delega al LLM con timeout propio.
func (uc *InsightUseCase) Narrate(ctx context.Context, comparisonID string) (*dto.ComparisonInsightResponse, error) {
	if uc.llm == nil {
		return nil, ErrInsightDisabled
	}
	c, err := uc.comparisons.GetReport(ctx, comparisonID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, insightTimeout)
	defer cancel()

	result, err := uc.llm.NarrateComparison(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("narrativa IA: %w", err)
	}
	return result, nil
}
