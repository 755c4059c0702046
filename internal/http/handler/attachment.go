package handler

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docmgr/internal/service"
)

// UploadAttachments accepts a multipart bundle and pushes each matched part
// to the object store. An optional form value named "attachmentIds" restricts
// which attachments may receive content. The response is the per-attachment
// outcome map; partial failure is a 200 with mixed outcomes, never a 500.
func UploadAttachments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docID := c.Params("id")
		if _, err := uuid.Parse(docID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_MULTIPART", "cannot parse multipart form")
		}

		var parts []service.UploadPart
		if ids := form.Value[service.ControlPartName]; len(ids) > 0 {
			parts = append(parts, service.UploadPart{
				Name:    service.ControlPartName,
				Content: []byte(strings.Join(ids, ",")),
			})
		}
		for name, headers := range form.File {
			for _, fh := range headers {
				f, err := fh.Open()
				if err != nil {
					return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
				}
				content, err := io.ReadAll(f)
				f.Close()
				if err != nil {
					return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
				}
				parts = append(parts, service.UploadPart{
					Name:     name,
					Filename: fh.Filename,
					Content:  content,
				})
			}
		}

		outcomes, err := svc.UploadAttachments(c.UserContext(), docID, parts)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"outcomes": outcomes})
	}
}

// DeleteAttachments removes attachment rows and their blobs. Ids come from
// the comma separated "ids" query parameter.
func DeleteAttachments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docID := c.Params("id")
		if _, err := uuid.Parse(docID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		ids := splitList(c.Query("ids"))
		if len(ids) == 0 {
			return writeError(c, fiber.StatusBadRequest, "IDS_REQUIRED", "ids query parameter is required")
		}
		if err := svc.DeleteAttachments(c.UserContext(), docID, ids); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DeleteAttachmentBlob removes only the stored content of one attachment;
// its metadata record survives.
func DeleteAttachmentBlob(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docID := c.Params("id")
		attID := c.Params("attachmentId")
		if _, err := uuid.Parse(docID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.DeleteAttachmentBlob(c.UserContext(), docID, attID); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DownloadAttachment streams stored attachment content.
func DownloadAttachment(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docID := c.Params("id")
		attID := c.Params("attachmentId")
		if _, err := uuid.Parse(docID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rc, att, err := svc.DownloadAttachment(c.UserContext(), docID, attID)
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+att.OriginalFilename+`"`)
		return c.SendStream(rc)
	}
}

// FailedUploads lists the audit records of upload attempts that did not land.
func FailedUploads(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docID := c.Params("id")
		if _, err := uuid.Parse(docID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		items, err := svc.FailedUploads(c.UserContext(), docID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"items": items})
	}
}
