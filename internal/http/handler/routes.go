package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"docfiling/internal/http/middleware"
	"docfiling/internal/service"
)

// Deps carries what the routes need.
type Deps struct {
	DB          *sql.DB
	Documents   service.DocumentService
	Departments service.DepartmentService
	Admins      service.AdminService
	Importer    Importer
	// UserHeader names the request header carrying the caller's username.
	UserHeader string
}

// RegisterRoutes attaches the HTTP routes to app. Probes stay outside the
// authenticated /api/v1 group.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api/v1", middleware.Actor(d.UserHeader, d.Admins))
	api.Get("/me", Me())

	docs := api.Group("/documents")
	docs.Post("/", CreateDocument(d.Documents))
	docs.Get("/", SearchDocuments(d.Documents))
	docs.Get("/all", ListAllDocuments(d.Documents))
	docs.Get("/by-title/:title", FindDocumentsByTitle(d.Documents))
	docs.Get("/count-status/:departmentId", CountDocumentsByStatus(d.Documents))
	docs.Post("/bulk-delete", BulkDeleteDocuments(d.Documents))
	docs.Post("/bulk-update-status", BulkUpdateDocumentStatus(d.Documents))
	docs.Get("/:id/file", DownloadAttachment(d.Documents))
	docs.Get("/:id/file-url", AttachmentURL(d.Documents))
	docs.Get("/:id", GetDocument(d.Documents))
	docs.Patch("/:id", UpdateDocument(d.Documents))
	docs.Delete("/:id", DeleteDocument(d.Documents))

	depts := api.Group("/departments")
	depts.Post("/", CreateDepartment(d.Departments))
	depts.Get("/", ListDepartments(d.Departments))
	depts.Get("/by-name/:name", GetDepartmentByName(d.Departments))
	depts.Patch("/status", UpdateDepartmentStatus(d.Departments))
	depts.Get("/:id", GetDepartment(d.Departments))
	depts.Delete("/:id", DeleteDepartment(d.Departments))
	depts.Get("/:id/document-types", ListDocumentTypes(d.Departments))
	depts.Post("/:id/document-types", AddDocumentType(d.Departments))
	depts.Delete("/:id/document-types/:typeId", DeleteDocumentType(d.Departments))
	api.Get("/document-types", ListAllDocumentTypes(d.Departments))

	api.Get("/admins", ListAdmins(d.Admins))
	api.Post("/admins", CreateAdmin(d.Admins))
	api.Delete("/admins/:username", DeleteAdmin(d.Admins))

	imports := api.Group("/imports", middleware.RequireAdmin())
	imports.Post("/departments", ImportDepartments(d.Importer))
	imports.Post("/documents", ImportDocuments(d.Importer))
	imports.Post("/admins", ImportAdmins(d.Importer))
}
