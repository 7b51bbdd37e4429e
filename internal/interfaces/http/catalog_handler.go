package http

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stocktake-api/internal/application/dto"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
	"github.com/jhoicas/stocktake-api/internal/domain/repository"
)

// maxCatalogUpload tope del archivo de catálogo.
const maxCatalogUpload = 10 << 20

// CatalogImporter carga productos desde un archivo (lo cumple catalog.Importer).
type CatalogImporter interface {
	Import(ctx context.Context, filename string, r io.Reader) (int, error)
}

// CatalogHandler consulta e importación del catálogo de productos.
type CatalogHandler struct {
	products repository.ProductRepository
	importer CatalogImporter
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(products repository.ProductRepository, importer CatalogImporter) *CatalogHandler {
	return &CatalogHandler{products: products, importer: importer}
}

// productResponse producto del catálogo.
type productResponse struct {
	ID            string `json:"id"`
	SKU           string `json:"sku,omitempty"`
	Barcode       string `json:"barcode,omitempty"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	StorageArea   string `json:"storage_area"`
	UnitPrice     string `json:"unit_price"`
	StockQuantity int    `json:"stock_quantity"`
}

// List godoc
// @Summary      Listar catálogo
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        category      query  string  false  "Categoría"
// @Param        storage_area  query  string  false  "Ubicación"
// @Success      200  {array}  object
// @Router       /api/catalog/products [get]
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	list, err := h.products.List(c.UserContext(), entity.ProductFilter{
		Category:    c.Query("category"),
		StorageArea: c.Query("storage_area"),
	})
	if err != nil {
		return writeError(c, err)
	}
	out := make([]productResponse, 0, len(list))
	for _, p := range list {
		out = append(out, productResponse{
			ID: p.ID, SKU: p.SKU, Barcode: p.Barcode, Name: p.Name,
			Category: p.Category, StorageArea: p.StorageArea,
			UnitPrice: p.UnitPrice.String(), StockQuantity: p.StockQuantity,
		})
	}
	return c.JSON(out)
}

// Import godoc
// @Summary      Importar catálogo
// @Description  Archivo .csv o .xlsx con encabezado id, name, sku, barcode, category, storage_area,
// @Description  unit_price, stock_quantity. Si alguna fila es inválida no se guarda nada.
// @Tags         catalog
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "catálogo"
// @Success      200   {object}  dto.PopulateCountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/catalog/import [post]
func (h *CatalogHandler) Import(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_FILE", Message: "campo file requerido"})
	}
	if fh.Size > maxCatalogUpload {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{Code: "FILE_TOO_LARGE", Message: "el archivo supera 10 MB"})
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, err)
	}
	defer f.Close()

	n, err := h.importer.Import(c.UserContext(), fh.Filename, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.PopulateCountResponse{Added: n})
}
