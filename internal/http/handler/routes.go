package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"studydocs/internal/service"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Documents service.DocumentService
	Delivery  service.DeliveryService
	Avatars   service.AvatarService
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Everything except the health
// probes runs behind auth and then the rate limiter, so limits are keyed by principal.
func RegisterRoutes(app *fiber.App, db *sql.DB, svcs Services, auth, limiter fiber.Handler) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	docs := app.Group("/documents", auth, limiter)
	docs.Get("/", ListDocuments(svcs.Documents))
	docs.Get("/my-documents", ListMyDocuments(svcs.Documents))
	docs.Get("/student/:studentId", ListStudentDocuments(svcs.Documents))
	docs.Post("/", UploadDocument(svcs.Documents))
	docs.Post("/upload", UploadDocument(svcs.Documents))
	docs.Get("/:id", GetDocument(svcs.Documents))
	docs.Get("/:id/download", DownloadDocument(svcs.Delivery))
	docs.Get("/:id/view", ViewDocument(svcs.Delivery))
	docs.Delete("/:id", DeleteDocument(svcs.Documents))

	avatars := app.Group("/avatars", auth, limiter)
	avatars.Post("/upload", UploadAvatar(svcs.Avatars))
	avatars.Get("/student/:studentId", GetStudentAvatar(svcs.Delivery))
}
