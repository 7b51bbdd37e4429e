package ports

import (
	"context"

	"github.com/jhoicas/stocktake-api/internal/application/dto"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// LLMService puerto de salida hacia el modelo de lenguaje.
// Cualquier adaptador (Anthropic, Gemini, mock) debe implementar esta interfaz.
type LLMService interface {
	// NarrateComparison resume en lenguaje natural una comparación ya calculada:
	// titular, narrativa y acciones sugeridas. No modifica la comparación.
	// El contexto debe llevar un timeout.
	NarrateComparison(ctx context.Context, c *entity.Comparison) (*dto.ComparisonInsightResponse, error)

	// Model nombre del modelo que atiende las llamadas.
	Model() string
}
