package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docvault/docs"
	"docvault/internal/auth"
	"docvault/internal/database/migration"
	handlers "docvault/internal/http/handler"
	"docvault/internal/http/middleware"
	"docvault/internal/notify"
	"docvault/internal/otel"
	"docvault/internal/repository/postgres"
	"docvault/internal/service"
	"docvault/internal/storage"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	cfg, log := rt.cfg, rt.log

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	if err := migration.EnsureMigrated(ctx, rt.db, log, cfg.Database.Host); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	docCache, closeCache, err := newCache(rt, reg)
	if err != nil {
		return err
	}
	defer closeCache()

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	backend, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}
	objects := storage.NewClient(backend, cfg.MinIO.RetryBase, log.Named("storage"))

	notify.Init(log.Named("notify"))
	defer notify.Shutdown()

	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	// Initialize repositories and services
	docSvc := service.NewDocumentService(
		postgres.NewDocumentPostgres(rt.db),
		objects,
		docCache,
		notify.Default(),
		log.Named("documents"),
		service.DocumentConfig{MaxFileSize: cfg.Upload.MaxFileSize},
	)
	catSvc := service.NewCategoryService(postgres.NewCategoryPostgres(rt.db), docCache, notify.Default(), log.Named("categories"))
	authSvc := service.NewAuthService(postgres.NewUserPostgres(rt.db), tokens, log.Named("auth"))

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(log, cfg.Upload.MaxFileSize),
		// Leave room for the multipart envelope around a maximum-size file.
		BodyLimit: int(cfg.Upload.MaxFileSize) + 1<<20,
	})

	metrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(metrics.Handler())
	app.Use(otelfiber.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.ClientURL,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowCredentials: true,
	}))

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

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:         rt.db,
		Documents:  docSvc,
		Categories: catSvc,
		Auth:       authSvc,
		Tokens:     tokens,
		Hub:        notify.Default(),
		Log:        log.Named("ws"),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("server_starting", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info("server_stopping")
	// Close sockets first so that their handlers return and Fiber can drain.
	notify.Shutdown()
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Warn("server_shutdown_incomplete", zap.Error(err))
	}
	return nil
}
