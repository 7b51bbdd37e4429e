package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stocktake-api/internal/application/ports"
	"github.com/jhoicas/stocktake-api/internal/application/stocktake"
	"github.com/jhoicas/stocktake-api/internal/application/usecase"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
	"github.com/jhoicas/stocktake-api/internal/domain/repository"
	infraai "github.com/jhoicas/stocktake-api/internal/infrastructure/ai"
	"github.com/jhoicas/stocktake-api/internal/infrastructure/catalog"
	"github.com/jhoicas/stocktake-api/internal/infrastructure/lock"
	"github.com/jhoicas/stocktake-api/internal/infrastructure/memory"
	"github.com/jhoicas/stocktake-api/internal/infrastructure/metrics"
	"github.com/jhoicas/stocktake-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stocktake-api/internal/infrastructure/report"
	httpRouter "github.com/jhoicas/stocktake-api/internal/interfaces/http"
	"github.com/jhoicas/stocktake-api/pkg/config"
	"github.com/jhoicas/stocktake-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// storage repositorios elegidos según STORAGE_DRIVER.
type storage struct {
	products    repository.ProductRepository
	catalog     repository.CatalogWriter
	tasks       repository.CountTaskRepository
	comparisons repository.ComparisonRepository
	close       func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("almacenamiento")
	}
	defer store.close()

	importer := catalog.NewImporter(store.catalog, log)
	if cfg.Storage.SeedCatalog != "" {
		if err := seedCatalog(ctx, importer, cfg.Storage.SeedCatalog, log); err != nil {
			log.Fatal().Err(err).Str("file", cfg.Storage.SeedCatalog).Msg("carga del catálogo")
		}
	}

	var locker stocktake.TaskLocker = lock.NewLocalLocker()
	if cfg.Redis.Enabled() {
		rdb, err := lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, lock.RedisOptions{
			Prefix:  cfg.Redis.LockPrefix,
			TTL:     cfg.Redis.LockTTL,
			Retries: cfg.Redis.LockRetry,
		}, log)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMetrics := metrics.NewPrometheus(reg)

	countUC := stocktake.NewCountUseCase(store.tasks, store.products, locker, promMetrics, log)
	comparisonUC := stocktake.NewComparisonUseCase(store.tasks, store.comparisons, stocktake.ComparisonOptions{
		Settings: entity.ComparisonSettings{
			PercentageThreshold: cfg.Stocktake.PercentageThreshold,
			AbsoluteThreshold:   cfg.Stocktake.AbsoluteThreshold,
			TrendDeadBand:       cfg.Stocktake.TrendDeadBand,
		},
		WeeklyWindow: cfg.Stocktake.WeeklyWindow(),
		Workers:      cfg.Stocktake.Workers,
		ChunkSize:    cfg.Stocktake.ChunkSize,
	}, promMetrics, log)
	exportUC := stocktake.NewExportUseCase(comparisonUC,
		report.NewXLSXRenderer(),
		report.NewPDFRenderer(cfg.App.Name),
		report.NewCSVRenderer(),
		report.NewMarkdownRenderer(),
	)
	insightUC := usecase.NewInsightUseCase(comparisonUC, newLLM(cfg.AI, log))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    12 << 20,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Stocktake API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	httpRouter.Router(app, httpRouter.RouterDeps{
		CountUC:      countUC,
		ComparisonUC: comparisonUC,
		ExportUC:     exportUC,
		InsightUC:    insightUC,
		Products:     store.products,
		Importer:     importer,
		Auth: httpRouter.AuthConfig{
			AdminUsername:     cfg.Admin.Username,
			AdminPasswordHash: cfg.Admin.PasswordHash,
			JWTSecret:         cfg.JWT.Secret,
			JWTIssuer:         cfg.JWT.Issuer,
			JWTExpMinutes:     cfg.JWT.Expiration,
		},
		Log: log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Int32("max_conns", pool.Config().MaxConns).Msg("PostgreSQL listo")
		products := postgres.NewProductRepository(pool)
		return &storage{
			products:    products,
			catalog:     products,
			tasks:       postgres.NewCountTaskRepository(pool),
			comparisons: postgres.NewComparisonRepository(pool),
			close:       pool.Close,
		}, nil
	case config.StorageMemory:
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		mem := memory.NewStore()
		return &storage{
			products:    mem.Products(),
			catalog:     mem.Products(),
			tasks:       mem.Tasks(),
			comparisons: mem.Comparisons(),
			close:       func() {},
		}, nil
	default:
		return nil, errors.New("driver de almacenamiento desconocido: " + cfg.Storage.Driver)
	}
}

func seedCatalog(ctx context.Context, importer *catalog.Importer, path string, log *logger.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	n, err := importer.Import(ctx, path, f)
	if err != nil {
		return err
	}
	log.Info().Int("products", n).Str("file", path).Msg("catálogo cargado")
	return nil
}

// newLLM devuelve el proveedor configurado o nil si no hay clave.
func newLLM(cfg config.AIConfig, log *logger.Logger) ports.LLMService {
	if !cfg.Enabled() {
		log.Info().Msg("narrativa IA deshabilitada (sin clave de API)")
		return nil
	}
	var svc ports.LLMService
	switch cfg.Provider {
	case config.AIProviderGemini:
		svc = infraai.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.BaseURL)
	default:
		svc = infraai.NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.BaseURL)
	}
	log.Info().Str("provider", cfg.Provider).Str("model", svc.Model()).Msg("narrativa IA habilitada")
	return svc
}
