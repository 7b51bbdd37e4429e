package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stocktake-api/internal/application/stocktake"
	"github.com/jhoicas/stocktake-api/internal/application/usecase"
	"github.com/jhoicas/stocktake-api/internal/domain/repository"
	"github.com/jhoicas/stocktake-api/pkg/jwt"
	"github.com/jhoicas/stocktake-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CountUC      *stocktake.CountUseCase
	ComparisonUC *stocktake.ComparisonUseCase
	ExportUC     *stocktake.ExportUseCase // opcional
	InsightUC    *usecase.InsightUseCase  // opcional
	Products     repository.ProductRepository
	Importer     CatalogImporter // opcional
	Auth         AuthConfig
	Log          *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.Auth, deps.Log)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.Auth.JWTSecret), RequireRole(jwt.RoleAdmin, jwt.RoleOperator))

	// Conteos
	tasks := protected.Group("/stocktake/tasks")
	countHandler := NewCountHandler(deps.CountUC)
	tasks.Post("/", countHandler.Create)
	tasks.Get("/", countHandler.List)
	tasks.Get("/:id", countHandler.GetByID)
	tasks.Post("/:id/items", countHandler.AddItem)
	tasks.Post("/:id/items/bulk", countHandler.Populate)
	tasks.Put("/:id/items/:product_id", countHandler.RecordQuantity)
	tasks.Post("/:id/complete", countHandler.Complete)
	tasks.Post("/:id/cancel", countHandler.Cancel)

	// Comparaciones ("/weekly" antes de "/:id")
	comparisons := protected.Group("/stocktake/comparisons")
	comparisonHandler := NewComparisonHandler(deps.ComparisonUC, deps.ExportUC)
	aiHandler := NewAIHandler(deps.InsightUC)
	comparisons.Post("/", comparisonHandler.Compare)
	comparisons.Post("/weekly", comparisonHandler.CompareWeekly)
	comparisons.Get("/", comparisonHandler.List)
	comparisons.Get("/:id", comparisonHandler.GetByID)
	comparisons.Get("/:id/export", comparisonHandler.Export)
	comparisons.Get("/:id/insight", aiHandler.ComparisonInsight)

	// Catálogo; la importación solo para admin
	if deps.Products != nil {
		catalog := protected.Group("/catalog")
		catalogHandler := NewCatalogHandler(deps.Products, deps.Importer)
		catalog.Get("/products", catalogHandler.List)
		if deps.Importer != nil {
			catalog.Post("/import", RequireRole(jwt.RoleAdmin), catalogHandler.Import)
		}
	}
}
