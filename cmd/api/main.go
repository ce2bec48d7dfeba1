package main

import (
	"context"
	"fmt"
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
	"github.com/sirupsen/logrus"

	"docfiling/docs"
	"docfiling/internal/attachment"
	"docfiling/internal/config"
	"docfiling/internal/database"
	"docfiling/internal/database/migration"
	handlers "docfiling/internal/http/handler"
	"docfiling/internal/http/middleware"
	"docfiling/internal/importer"
	"docfiling/internal/logger"
	"docfiling/internal/metrics"
	"docfiling/internal/otel"
	"docfiling/internal/refno"
	"docfiling/internal/repository/postgres"
	"docfiling/internal/service"
	"docfiling/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Document Filing API
// @version 1.0
// @BasePath /
func main() {
	// Configuration comes from the environment; .env is auto-loaded if present.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server_exited")
	}
}

func run(ctx context.Context, cfg *config.AppConfig, log *logrus.Logger) error {
	shutdownTracing, err := otel.Init(ctx, log, cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.WithError(err).Warn("tracing_shutdown_failed")
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := migration.Up(ctx, db, log, cfg.Database.Host); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	objStore, err := newStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize object storage: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	domainMetrics, err := metrics.NewDomain(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	deptRepo := postgres.NewDepartmentPostgres(db)
	docRepo := postgres.NewDocumentPostgres(db)
	adminRepo := postgres.NewAdminPostgres(db)
	counters := postgres.NewCounterPostgres(db)

	alloc := refno.NewAllocator(deptRepo, counters, docRepo, log, refno.WithMetrics(domainMetrics))
	files := attachment.NewManager(objStore, cfg.Attachment, log, domainMetrics)

	docSvc := service.NewDocumentService(service.DocumentDeps{
		Documents:   docRepo,
		Departments: deptRepo,
		Allocator:   alloc,
		Attachments: files,
		Log:         log,
	})
	deptSvc := service.NewDepartmentService(deptRepo, log)
	adminSvc := service.NewAdminService(adminRepo, cfg.Auth, log)
	if err := adminSvc.Seed(ctx, cfg.Auth.BootstrapAdmins); err != nil {
		return fmt.Errorf("seed admins: %w", err)
	}

	imp := importer.New(importer.Deps{
		Departments:   deptRepo,
		Documents:     docRepo,
		Admins:        adminRepo,
		Allocator:     alloc,
		Metrics:       domainMetrics,
		Log:           log,
		ChunkSize:     cfg.Import.ChunkSize,
		AdminsChanged: adminSvc.Purge,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(log),
		BodyLimit:    cfg.BodyLimit,
		Immutable:    true,
	})

	// Global middleware. RequestID runs first so every log line and error
	// payload carries the id.
	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:          db,
		Documents:   docSvc,
		Departments: deptSvc,
		Admins:      adminSvc,
		Importer:    imp,
		UserHeader:  cfg.Auth.UserHeader,
	})
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

	listenErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.WithFields(logrus.Fields{"addr": addr, "app_host": cfg.AppHost}).Info("server_started")
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	log.Info("server_stopping")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newStorage(ctx context.Context, cfg *config.AppConfig) (storage.Storage, error) {
	if cfg.Storage.Backend == "local" {
		return storage.NewLocal(cfg.Storage.LocalPath)
	}
	return storage.NewMinIO(ctx, cfg.MinIO)
}
