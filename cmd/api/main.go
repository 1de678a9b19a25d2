package main

import (
	"context"
	"log"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FOX2920/sf-api/internal/config"
	handlers "github.com/FOX2920/sf-api/internal/http/handler"
	"github.com/FOX2920/sf-api/internal/http/middleware"
	"github.com/FOX2920/sf-api/internal/localstore"
	"github.com/FOX2920/sf-api/internal/otel"
	"github.com/FOX2920/sf-api/internal/render"
	sfrepo "github.com/FOX2920/sf-api/internal/repository/salesforce"
	"github.com/FOX2920/sf-api/internal/salesforce"
	"github.com/FOX2920/sf-api/internal/service"
	"github.com/FOX2920/sf-api/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	// Tracing degrades to noop when no collector is reachable
	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	// Authenticate against the CRM once at startup; incomplete credentials
	// fail fast instead of surfacing on the first request.
	sfClient, err := salesforce.New(cfg.Salesforce)
	if err != nil {
		log.Fatalf("failed to connect to salesforce: %v", err)
	}

	shipmentRepo := sfrepo.NewShipmentRepository(sfClient)
	contentStore := storage.NewSalesforceContentStore(sfClient)
	renderer := render.New(cfg.TemplateDir)
	local := localstore.NewStore(cfg.OutputDir)

	genSvc := service.NewGeneratorService(shipmentRepo, shipmentRepo, renderer, local, contentStore)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, genSvc, shipmentRepo, local, renderer)

	addr := cfg.AppHost + ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
