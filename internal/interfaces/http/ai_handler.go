package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stocktake-api/internal/application/usecase"
)

// AIHandler expone la narrativa IA de una comparación.
type AIHandler struct {
	uc *usecase.InsightUseCase
}

// NewAIHandler construye el handler. Con uc nil el endpoint responde 503.
func NewAIHandler(uc *usecase.InsightUseCase) *AIHandler {
	return &AIHandler{uc: uc}
}

// ComparisonInsight godoc
// @Summary      Narrativa IA de una comparación
// @Description  Resumen en lenguaje natural generado por el LLM configurado (Anthropic o Gemini).
// @Description  No modifica la comparación guardada. Timeout interno de 20 s.
// @Tags         ai
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la comparación"
// @Success      200  {object}  dto.ComparisonInsightResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Failure      504  {object}  dto.ErrorResponse
// @Router       /api/stocktake/comparisons/{id}/insight [get]
func (h *AIHandler) ComparisonInsight(c *fiber.Ctx) error {
	if h.uc == nil {
		return writeError(c, usecase.ErrInsightDisabled)
	}
	out, err := h.uc.Narrate(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
