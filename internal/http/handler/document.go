package handler

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docmgr/internal/model"
	"docmgr/internal/search"
	"docmgr/internal/service"
)

// HealthCheck reports readiness: the database must answer a ping.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe answers as long as the process is up.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// CreateDocument accepts a full aggregate payload and persists it.
func CreateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var doc model.Document
		if err := c.BodyParser(&doc); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		created, err := svc.Create(c.UserContext(), &doc)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// GetDocument returns one aggregate. ?include=all loads every owned
// collection.
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		includeAll := c.Query("include") == "all"
		doc, err := svc.Get(c.UserContext(), id, includeAll)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// UpdateDocument converges the stored aggregate to the submitted state.
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var desired model.Document
		if err := c.BodyParser(&desired); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		res, err := svc.Update(c.UserContext(), id, &desired)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// BulkUpdateDocuments applies the update semantics per payload, paired by id.
// The response always carries one item per payload; per-item failures do not
// fail the batch.
func BulkUpdateDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var desired []*model.Document
		if err := c.BodyParser(&desired); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		items, err := svc.BulkUpdate(c.UserContext(), desired)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"items": items})
	}
}

// SearchDocuments executes a dynamic criteria built from query parameters.
func SearchDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		criteria, err := criteriaFromQuery(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_CRITERIA", err.Error())
		}
		res, err := svc.Search(c.UserContext(), criteria)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// ExportDocuments runs the same predicates as SearchDocuments but returns
// every match, unpaged.
func ExportDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		criteria, err := criteriaFromQuery(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_CRITERIA", err.Error())
		}
		items, err := svc.SearchAll(c.UserContext(), criteria)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"items": items, "total": len(items)})
	}
}

// DeleteDocument removes the aggregate and its blobs.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// criteriaFromQuery maps the supported query parameters onto a search
// criteria. List parameters are comma separated; timestamps are RFC 3339.
func criteriaFromQuery(c *fiber.Ctx) (*search.Criteria, error) {
	criteria := &search.Criteria{
		ID:                c.Query("id"),
		Name:              c.Query("name"),
		ChannelName:       c.Query("channelName"),
		CreatedBy:         c.Query("createdBy"),
		RelatedObjectID:   c.Query("relatedObjectId"),
		RelatedObjectType: c.Query("relatedObjectType"),
	}

	for _, s := range splitList(c.Query("lifecycleState")) {
		state := model.LifecycleState(s)
		if !state.Valid() {
			return nil, fiber.NewError(fiber.StatusBadRequest, "unknown lifecycle state: "+s)
		}
		criteria.LifecycleStates = append(criteria.LifecycleStates, state)
	}
	criteria.TypeIDs = splitList(c.Query("typeId"))

	var err error
	if criteria.CreatedAfter, err = parseTime(c.Query("createdAfter")); err != nil {
		return nil, err
	}
	if criteria.CreatedBefore, err = parseTime(c.Query("createdBefore")); err != nil {
		return nil, err
	}

	if v := c.Query("page"); v != "" {
		if criteria.Page, err = strconv.Atoi(v); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "invalid page")
		}
	}
	if v := c.Query("size"); v != "" {
		if criteria.Size, err = strconv.Atoi(v); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "invalid size")
		}
	}
	return criteria, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseTime(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid timestamp: "+v)
	}
	return &t, nil
}
