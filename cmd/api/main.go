package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"routecore/docs"
	"routecore/internal/config"
	"routecore/internal/database"
	"routecore/internal/database/migration"
	handlers "routecore/internal/http/handler"
	"routecore/internal/http/middleware"
	"routecore/internal/metrics"
	"routecore/internal/otel"
	"routecore/internal/repository/postgres"
	"routecore/internal/routing"
	"routecore/internal/search"
	"routecore/internal/service"
	"routecore/internal/storage"
)

// @title Route Core API
// @version 1.0
// @BasePath /
func main() {
	ctx := context.Background()

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// PostgreSQL connection with pooling via database/sql (otelsql-instrumented)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// S3-compatible object storage for archived decision traces
	archive, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Prometheus registry shared by HTTP and routing collectors
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}
	m, err := metrics.New(reg)
	if err != nil {
		log.Fatalf("failed to register routing metrics: %v", err)
	}

	// Repositories
	providerRepo := postgres.NewProviderPostgres(db)
	channelRepo := postgres.NewChannelPostgres(db)
	decisionRepo := postgres.NewDecisionPostgres(db)
	searchDocRepo := postgres.NewSearchDocumentPostgres(db)

	// Vector store warms its in-memory index from the search_vectors table.
	vectors, err := search.NewVectorStore(db)
	if err != nil {
		log.Fatalf("failed to load vector store: %v", err)
	}
	embedder := search.NewOllamaEmbedder(cfg.Search.EmbeddingURL, cfg.Search.EmbeddingModel)

	dispatcher := routing.NewHTTPDispatcher(10 * time.Second)

	// Services
	routeSvc, err := service.NewRoutingService(cfg.Router, providerRepo, decisionRepo, archive, dispatcher, m)
	if err != nil {
		log.Fatalf("failed to build routing service: %v", err)
	}
	notifySvc, err := service.NewNotificationService(cfg.Router, cfg.Notify, channelRepo, decisionRepo, archive, dispatcher, m)
	if err != nil {
		log.Fatalf("failed to build notification service: %v", err)
	}
	searchSvc := service.NewSearchService(cfg.Search, searchDocRepo, embedder, vectors, m)
	decisionSvc := service.NewDecisionService(decisionRepo, archive)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Global middleware: request IDs, JSON request logs, traces, metrics
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, db, routeSvc, notifySvc, searchSvc, decisionSvc)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
