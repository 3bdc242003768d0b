package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docvault/internal/http/middleware"
	"docvault/internal/notify"
	"docvault/internal/service"
)

// Deps carries everything the routes need.
type Deps struct {
	DB         *sql.DB
	Documents  service.DocumentService
	Categories service.CategoryService
	Auth       service.AuthService
	Tokens     middleware.TokenVerifier
	Hub        *notify.Hub
	Log        *zap.Logger
}

// RegisterRoutes attaches HTTP and WebSocket routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	authGroup := app.Group("/auth")
	authGroup.Post("/register", Register(d.Auth))
	authGroup.Post("/login", Login(d.Auth))

	requireAuth := middleware.RequireAuth(d.Tokens, false)

	categories := app.Group("/categories", requireAuth)
	categories.Get("/", ListCategories(d.Categories))
	categories.Post("/", CreateCategory(d.Categories))
	categories.Get("/:id", GetCategory(d.Categories))

	documents := app.Group("/documents", requireAuth)
	documents.Post("/upload", UploadDocument(d.Documents))
	documents.Get("/", ListDocuments(d.Documents))
	documents.Get("/:id", GetDocument(d.Documents))
	documents.Put("/:id", UpdateDocument(d.Documents))
	documents.Delete("/:id", DeleteDocument(d.Documents))
	documents.Get("/:id/download", DownloadDocument(d.Documents))

	if d.Hub != nil {
		app.Get("/ws", UpgradeRequired(), middleware.RequireAuth(d.Tokens, true), Notifications(d.Hub, log))
	}
}
