package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"docmgr/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; everything a request means lives in the service layer.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	docs := app.Group("/documents")
	docs.Post("/", CreateDocument(docSvc))
	docs.Get("/", SearchDocuments(docSvc))
	docs.Patch("/", BulkUpdateDocuments(docSvc))
	docs.Get("/export", ExportDocuments(docSvc))
	docs.Get("/:id", GetDocument(docSvc))
	docs.Patch("/:id", UpdateDocument(docSvc))
	docs.Delete("/:id", DeleteDocument(docSvc))

	docs.Post("/:id/attachments", UploadAttachments(docSvc))
	docs.Delete("/:id/attachments", DeleteAttachments(docSvc))
	docs.Get("/:id/attachments/failed", FailedUploads(docSvc))
	docs.Get("/:id/attachments/:attachmentId/content", DownloadAttachment(docSvc))
	docs.Delete("/:id/attachments/:attachmentId/content", DeleteAttachmentBlob(docSvc))
}
