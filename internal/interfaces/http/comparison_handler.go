package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stocktake-api/internal/application/dto"
	"github.com/jhoicas/stocktake-api/internal/application/stocktake"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// ComparisonHandler comparaciones entre conteos y su exportación (protegido).
type ComparisonHandler struct {
	uc     *stocktake.ComparisonUseCase
	export *stocktake.ExportUseCase
}

// NewComparisonHandler construye el handler. export puede ser nil.
func NewComparisonHandler(uc *stocktake.ComparisonUseCase, export *stocktake.ExportUseCase) *ComparisonHandler {
	return &ComparisonHandler{uc: uc, export: export}
}

func toOverride(in *dto.ComparisonSettingsRequest) *stocktake.SettingsOverride {
	if in == nil {
		return nil
	}
	return &stocktake.SettingsOverride{
		PercentageThreshold: in.PercentageThreshold,
		AbsoluteThreshold:   in.AbsoluteThreshold,
		TrendDeadBand:       in.TrendDeadBand,
	}
}

// Compare godoc
// @Summary      Comparar dos conteos completados
// @Description  Calcula cambios por producto, anomalías, agregados por categoría y ubicación, y el
// @Description  resumen. El resultado se guarda y no cambia nunca.
// @Tags         comparisons
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CompareRequest  true  "conteo actual, conteo anterior y umbrales opcionales"
// @Success      201   {object}  dto.ComparisonResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stocktake/comparisons [post]
func (h *ComparisonHandler) Compare(c *fiber.Ctx) error {
	var in dto.CompareRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, err)
	}
	cmp, err := h.uc.Compare(c.UserContext(), stocktake.CompareRequest{
		CurrentCountID:  in.CurrentCountID,
		PreviousCountID: in.PreviousCountID,
		Type:            entity.ComparisonType(in.ComparisonType),
		Settings:        toOverride(in.Settings),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToComparisonResponse(cmp))
}

// CompareWeekly godoc
// @Summary      Comparación semanal
// @Description  Compara el último conteo completado contra el más reciente con al menos una semana
// @Description  de antigüedad (o el inmediatamente anterior si no hay).
// @Tags         comparisons
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.WeeklyCompareRequest  false  "umbrales opcionales"
// @Success      201   {object}  dto.ComparisonResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stocktake/comparisons/weekly [post]
func (h *ComparisonHandler) CompareWeekly(c *fiber.Ctx) error {
	var in dto.WeeklyCompareRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	cmp, err := h.uc.CompareWeekly(c.UserContext(), toOverride(in.Settings))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToComparisonResponse(cmp))
}

// List godoc
// @Summary      Listar comparaciones
// @Tags         comparisons
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.ComparisonListResponse
// @Router       /api/stocktake/comparisons [get]
func (h *ComparisonHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	if err := dto.Validate(page); err != nil {
		return writeError(c, err)
	}
	list, err := h.uc.ListComparisons(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.ComparisonListResponse{
		Items: make([]dto.ComparisonHeaderResponse, 0, len(list)),
		Page:  page.Response(len(list)),
	}
	for _, cmp := range list {
		out.Items = append(out.Items, dto.ToComparisonHeaderResponse(cmp))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Reporte de una comparación
// @Tags         comparisons
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la comparación"
// @Success      200  {object}  dto.ComparisonResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stocktake/comparisons/{id} [get]
func (h *ComparisonHandler) GetByID(c *fiber.Ctx) error {
	cmp, err := h.uc.GetReport(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToComparisonResponse(cmp))
}

// Export godoc
// @Summary      Exportar comparación
// @Tags         comparisons
// @Security     Bearer
// @Produce      application/octet-stream
// @Param        id      path   string  true  "ID de la comparación"
// @Param        format  query  string  true  "xlsx | pdf | csv | md"
// @Success      200     {file}    binary
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/stocktake/comparisons/{id}/export [get]
func (h *ComparisonHandler) Export(c *fiber.Ctx) error {
	if h.export == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "EXPORT_DISABLED", Message: "exportación no disponible"})
	}
	data, filename, contentType, err := h.export.Export(c.UserContext(), c.Params("id"), c.Query("format", "xlsx"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}
