package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stocktake-api/internal/application/dto"
	"github.com/jhoicas/stocktake-api/internal/application/stocktake"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// CountHandler maneja el ciclo de vida de los conteos físicos (protegido).
type CountHandler struct {
	uc *stocktake.CountUseCase
}

// NewCountHandler construye el handler.
func NewCountHandler(uc *stocktake.CountUseCase) *CountHandler {
	return &CountHandler{uc: uc}
}

// Create godoc
// @Summary      Abrir conteo
// @Description  Crea un conteo en progreso y sin ítems. Sin operator se usa el usuario del token.
// @Tags         stocktake
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCountTaskRequest  false  "operador y nota"
// @Success      201   {object}  dto.CountTaskResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stocktake/tasks [post]
func (h *CountHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCountTaskRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, err)
	}
	operator := in.Operator
	if operator == "" {
		operator = GetUserID(c)
	}
	task, err := h.uc.CreateTask(c.UserContext(), operator, in.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToCountTaskResponse(task))
}

// List godoc
// @Summary      Listar conteos
// @Tags         stocktake
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "in_progress | completed | cancelled"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.CountTaskListResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/stocktake/tasks [get]
func (h *CountHandler) List(c *fiber.Ctx) error {
	var q dto.CountTaskListQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	q.DefaultPage()
	if err := dto.Validate(q); err != nil {
		return writeError(c, err)
	}
	tasks, err := h.uc.ListTasks(c.UserContext(), entity.CountTaskFilter{
		Status: entity.CountStatus(q.Status),
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.CountTaskListResponse{
		Items: make([]dto.CountTaskResponse, 0, len(tasks)),
		Page:  q.Response(len(tasks)),
	}
	for _, t := range tasks {
		out.Items = append(out.Items, dto.ToCountTaskResponse(t))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener conteo con su avance
// @Tags         stocktake
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CountTaskResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stocktake/tasks/{id} [get]
func (h *CountHandler) GetByID(c *fiber.Ctx) error {
	task, err := h.uc.GetTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToCountTaskResponse(task))
}

// AddItem godoc
// @Summary      Agregar producto al conteo
// @Description  Copia nombre, categoría, ubicación y precio del catálogo. Sin expected_quantity
// @Description  se usa la cantidad en libros.
// @Tags         stocktake
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del conteo"
// @Param        body  body  dto.AddCountItemRequest  true  "producto"
// @Success      201   {object}  dto.CountItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stocktake/tasks/{id}/items [post]
func (h *CountHandler) AddItem(c *fiber.Ctx) error {
	var in dto.AddCountItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, err)
	}
	item, err := h.uc.AddItem(c.UserContext(), c.Params("id"), in.ProductID, in.ExpectedQuantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToCountItemResponse(item))
}

// Populate godoc
// @Summary      Agregar productos del catálogo en bloque
// @Tags         stocktake
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true   "ID del conteo"
// @Param        body  body  dto.PopulateCountRequest  false  "filtro de categoría y ubicación"
// @Success      200   {object}  dto.PopulateCountResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stocktake/tasks/{id}/items/bulk [post]
func (h *CountHandler) Populate(c *fiber.Ctx) error {
	var in dto.PopulateCountRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, err)
	}
	added, err := h.uc.PopulateFromCatalog(c.UserContext(), c.Params("id"), entity.ProductFilter{
		Category:    in.Category,
		StorageArea: in.StorageArea,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.PopulateCountResponse{Added: added})
}

// RecordQuantity godoc
// @Summary      Registrar cantidad contada
// @Description  Volver a registrar sobrescribe el valor anterior mientras el conteo siga en progreso.
// @Tags         stocktake
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id          path  string                     true  "ID del conteo"
// @Param        product_id  path  string                     true  "ID del producto"
// @Param        body        body  dto.RecordQuantityRequest  true  "cantidad contada"
// @Success      200         {object}  dto.CountItemResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Failure      422         {object}  dto.ErrorResponse
// @Router       /api/stocktake/tasks/{id}/items/{product_id} [put]
func (h *CountHandler) RecordQuantity(c *fiber.Ctx) error {
	var in dto.RecordQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, err)
	}
	item, err := h.uc.RecordQuantity(c.UserContext(), c.Params("id"), c.Params("product_id"), *in.ActualQuantity, in.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToCountItemResponse(item))
}

// Complete godoc
// @Summary      Completar conteo
// @Description  Requiere al menos un ítem y todos contados. Con intentos concurrentes solo uno gana.
// @Tags         stocktake
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CountTaskResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/stocktake/tasks/{id}/complete [post]
func (h *CountHandler) Complete(c *fiber.Ctx) error {
	task, err := h.uc.CompleteTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToCountTaskResponse(task))
}

// Cancel godoc
// @Summary      Anular conteo
// @Tags         stocktake
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true   "ID del conteo"
// @Param        body  body  dto.CancelCountTaskRequest  false  "motivo"
// @Success      200   {object}  dto.CountTaskResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stocktake/tasks/{id}/cancel [post]
func (h *CountHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelCountTaskRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, err)
	}
	task, err := h.uc.CancelTask(c.UserContext(), c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToCountTaskResponse(task))
}
