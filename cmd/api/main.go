package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"studydocs/docs"
	"studydocs/internal/config"
	"studydocs/internal/database"
	"studydocs/internal/database/migration"
	handlers "studydocs/internal/http/handler"
	"studydocs/internal/http/middleware"
	"studydocs/internal/identity"
	"studydocs/internal/logging"
	"studydocs/internal/metrics"
	"studydocs/internal/otel"
	"studydocs/internal/repository/postgres"
	"studydocs/internal/service"
	"studydocs/internal/storage"
)

// @title Study Documents API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.Location())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Blob backend: S3, then MinIO, then local disk, chosen from which credentials are present
	blobs, provider, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}
	logger.Info("storage", "storage_configured", map[string]any{
		"provider": string(provider),
		"backend":  string(blobs.Kind()),
	})

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	profileRepo := postgres.NewProfilePostgres(db)
	resolver := identity.NewResolver(profileRepo)

	docSvc := service.NewDocumentService(blobs, docRepo, cfg.Storage, logger)
	svcs := handlers.Services{
		Documents: docSvc,
		Delivery:  service.NewDeliveryService(docSvc, profileRepo, blobs, cfg.Storage, logger),
		Avatars:   service.NewAvatarService(blobs, profileRepo, cfg.Storage, logger),
	}

	if cfg.Auth.JWTSecret == "" {
		log.Fatalf("JWT_SECRET is required")
	}
	auth := middleware.Auth([]byte(cfg.Auth.JWTSecret), resolver)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	limiter := middleware.RedisRateLimit(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.Window)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(logger),
		// Leave room for the multipart envelope; the registry enforces the exact file limit.
		BodyLimit: int(cfg.Storage.MaxUploadBytes) + 1<<20,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(logger))
	app.Use(promMiddleware.Handler())
	app.Use(otelfiber.Middleware())

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

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, svcs, auth, limiter)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("http", "shutdown_failed", err, nil)
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("http", "server_starting", map[string]any{"addr": addr})

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
