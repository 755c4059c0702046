package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"docmgr/internal/model"
	"docmgr/internal/repository"
	"docmgr/internal/search"
	"docmgr/internal/storage"

	auditpkg "docmgr/internal/audit"
)

// SearchResult is the service-level DTO for a paginated document search.
type SearchResult struct {
	Items         []model.Document `json:"data"`
	TotalElements int              `json:"total_elements"`
	TotalPages    int              `json:"total_pages"`
}

// UpdateResult carries the converged document plus the incoming child ids
// that matched nothing and were therefore ignored, keyed by collection.
type UpdateResult struct {
	Document   *model.Document     `json:"document"`
	IgnoredIDs map[string][]string `json:"ignored_ids,omitempty"`
}

// BulkUpdateItem is the per-document outcome of a bulk update. Payloads are
// paired to documents by id; an unmatched id reports not-found here instead
// of failing the batch.
type BulkUpdateItem struct {
	ID     string        `json:"id"`
	Result *UpdateResult `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// DocumentService defines the use cases for handling document aggregates and
// their attachments.
type DocumentService interface {
	// Create persists a new aggregate. Type is resolved by lookup; channel
	// is mandatory; attachments resolve their mime type and start
	// not-yet-uploaded.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// Get returns a document, optionally with all owned collections.
	Get(ctx context.Context, id string, includeAll bool) (*model.Document, error)

	// Update converges the persisted aggregate to the desired state:
	// omitted children are deleted, matched ones updated in place, id-less
	// ones created.
	Update(ctx context.Context, id string, desired *model.Document) (*UpdateResult, error)

	// BulkUpdate applies Update per payload, paired by document id.
	BulkUpdate(ctx context.Context, desired []*model.Document) ([]BulkUpdateItem, error)

	// Search executes a criteria as a paged query.
	Search(ctx context.Context, c *search.Criteria) (*SearchResult, error)

	// SearchAll executes the same predicates without paging.
	SearchAll(ctx context.Context, c *search.Criteria) ([]model.Document, error)

	// Delete removes the aggregate. Blob removals that fail are audited as
	// orphans and never block the row deletion.
	Delete(ctx context.Context, id string) error

	// UploadAttachments matches multipart content to the document's
	// pending attachments and pushes it to the object store, reporting a
	// per-attachment outcome map.
	UploadAttachments(ctx context.Context, docID string, parts []UploadPart) (map[string]UploadOutcome, error)

	// DeleteAttachmentBlob removes an attachment's blob and clears its
	// storage fields; the row stays. Object-store failures escalate.
	DeleteAttachmentBlob(ctx context.Context, docID, attID string) error

	// DeleteAttachments removes attachment rows after their blobs, per id;
	// a missing id is a not-found failure.
	DeleteAttachments(ctx context.Context, docID string, ids []string) error

	// DownloadAttachment streams an attachment's blob.
	DownloadAttachment(ctx context.Context, docID, attID string) (io.ReadCloser, *model.Attachment, error)

	// FailedUploads lists the upload-failure audit snapshots of a document.
	FailedUploads(ctx context.Context, docID string) ([]model.StorageUploadAudit, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store     storage.Storage
	repo      repository.DocumentRepository
	refs      repository.ReferenceRepository
	audit     auditpkg.Sink
	auditRepo repository.AuditRepository
	limits    search.Limits
	now       func() time.Time
}

// NewDocumentService constructs a new DocumentService. Pagination limits are
// threaded in from configuration.
func NewDocumentService(
	store storage.Storage,
	repo repository.DocumentRepository,
	refs repository.ReferenceRepository,
	sink auditpkg.Sink,
	auditRepo repository.AuditRepository,
	limits search.Limits,
) DocumentService {
	return &documentService{
		store:     store,
		repo:      repo,
		refs:      refs,
		audit:     sink,
		auditRepo: auditRepo,
		limits:    limits,
		now:       time.Now,
	}
}

func (s *documentService) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	if doc == nil {
		return nil, ErrIDRequired
	}
	now := s.now().UTC()
	actor := actorOf(doc.CreatedBy)

	if doc.LifecycleState == "" {
		doc.LifecycleState = model.StateDraft
	}
	if !doc.LifecycleState.Valid() {
		return nil, ErrInvalidLifecycleState
	}
	if doc.Type == nil || doc.Type.ID == "" {
		return nil, ErrTypeRequired
	}
	if doc.Channel == nil {
		return nil, ErrChannelRequired
	}

	typ, err := s.refs.TypeByID(ctx, doc.Type.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("document type", doc.Type.ID)
		}
		return nil, fmt.Errorf("resolve type: %w", err)
	}
	doc.Type = typ

	doc.Trace = model.NewTrace(uuid.NewString(), actor, now)

	if doc.Channel.ID == "" {
		doc.Channel.Trace = model.NewTrace(uuid.NewString(), actor, now)
	}
	if doc.RelatedObject != nil && doc.RelatedObject.ID == "" {
		doc.RelatedObject.Trace = model.NewTrace(uuid.NewString(), actor, now)
	}
	if doc.Specification != nil && doc.Specification.ID == "" {
		doc.Specification.Trace = model.NewTrace(uuid.NewString(), actor, now)
		if _, err := s.refs.CreateSpecification(ctx, doc.Specification); err != nil {
			return nil, fmt.Errorf("create specification: %w", err)
		}
	}

	for i := range doc.Attachments {
		a := &doc.Attachments[i]
		if _, err := s.resolveMimeType(ctx, a.MimeTypeID); err != nil {
			return nil, err
		}
		a.Trace = model.NewTrace(uuid.NewString(), actor, now)
		a.ClearStorage()
	}
	for i := range doc.Relationships {
		doc.Relationships[i].Trace = model.NewTrace(uuid.NewString(), actor, now)
	}
	for i := range doc.Characteristics {
		doc.Characteristics[i].Trace = model.NewTrace(uuid.NewString(), actor, now)
	}
	for i := range doc.RelatedParties {
		doc.RelatedParties[i].Trace = model.NewTrace(uuid.NewString(), actor, now)
	}
	for i := range doc.Categories {
		if doc.Categories[i].ID == "" {
			doc.Categories[i].Trace = model.NewTrace(uuid.NewString(), actor, now)
		}
	}

	created, err := s.repo.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return created, nil
}

func (s *documentService) Get(ctx context.Context, id string, includeAll bool) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id, includeAll)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("document", id)
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

func (s *documentService) Update(ctx context.Context, id string, desired *model.Document) (*UpdateResult, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	existing, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("document", id)
		}
		return nil, fmt.Errorf("find document: %w", err)
	}

	ignored, err := s.reconcileAggregate(ctx, existing, desired)
	if err != nil {
		return nil, err
	}
	for collection, ids := range ignored {
		for _, ignoredID := range ids {
			s.logIgnoredID(id, collection, ignoredID)
		}
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, repository.ErrStaleDocument) {
			return nil, err
		}
		return nil, fmt.Errorf("update document: %w", err)
	}
	return &UpdateResult{Document: updated, IgnoredIDs: ignored}, nil
}

func (s *documentService) BulkUpdate(ctx context.Context, desired []*model.Document) ([]BulkUpdateItem, error) {
	items := make([]BulkUpdateItem, 0, len(desired))
	for _, d := range desired {
		if d == nil || d.ID == "" {
			items = append(items, BulkUpdateItem{Error: ErrIDRequired.Error()})
			continue
		}
		res, err := s.Update(ctx, d.ID, d)
		if err != nil {
			items = append(items, BulkUpdateItem{ID: d.ID, Error: err.Error()})
			continue
		}
		items = append(items, BulkUpdateItem{ID: d.ID, Result: res})
	}
	return items, nil
}

func (s *documentService) Search(ctx context.Context, c *search.Criteria) (*SearchResult, error) {
	if c == nil {
		return nil, ErrCriteriaRequired
	}
	q, err := search.Compile(c, s.limits)
	if err != nil {
		return nil, err
	}
	res, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}
	return &SearchResult{
		Items:         res.Items,
		TotalElements: res.TotalElements,
		TotalPages:    res.TotalPages,
	}, nil
}

func (s *documentService) SearchAll(ctx context.Context, c *search.Criteria) ([]model.Document, error) {
	if c == nil {
		return nil, ErrCriteriaRequired
	}
	q, err := search.Compile(c, s.limits)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.SearchAll(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}
	return items, nil
}

// Delete removes the whole aggregate. Blob removal is best effort: a failure
// is recorded as an orphan blob and logged, the document row is still
// deleted. One bad blob must not block the cascade.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("document", id)
		}
		return fmt.Errorf("find document: %w", err)
	}

	s.deleteAllBlobsForDocument(ctx, doc)

	if err := s.repo.Delete(ctx, doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("document", id)
		}
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// deleteAllBlobsForDocument isolates per-attachment blob failures, unlike the
// single-attachment path which escalates them.
func (s *documentService) deleteAllBlobsForDocument(ctx context.Context, doc *model.Document) {
	for i := range doc.Attachments {
		a := &doc.Attachments[i]
		if !a.Uploaded {
			continue
		}
		if err := s.store.Delete(ctx, attachmentKey(a.ID)); err != nil {
			s.audit.RecordOrphanBlob(ctx, a.ID, err)
			s.logBlobRemovalFailure(doc.ID, a.ID, err)
		}
	}
}

func (s *documentService) FailedUploads(ctx context.Context, docID string) ([]model.StorageUploadAudit, error) {
	if docID == "" {
		return nil, ErrIDRequired
	}
	items, err := s.auditRepo.FailedUploadsByDocumentID(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("list failed uploads: %w", err)
	}
	return items, nil
}

func (s *documentService) resolveMimeType(ctx context.Context, id string) (*model.SupportedMimeType, error) {
	if id == "" {
		return nil, notFound("mime type", id)
	}
	mt, err := s.refs.MimeTypeByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("mime type", id)
		}
		return nil, fmt.Errorf("resolve mime type: %w", err)
	}
	return mt, nil
}

// attachmentKey derives the content-addressed object key for an attachment.
func attachmentKey(attID string) string {
	return "attachments/" + attID
}

func actorOf(v string) string {
	if v == "" {
		return "system"
	}
	return v
}

func (s *documentService) logIgnoredID(docID, collection, ignoredID string) {
	logJSON(map[string]any{
		"level":      "warn",
		"component":  "service",
		"event":      "reconcile_ignored_unmatched_id",
		"document":   docID,
		"collection": collection,
		"ignored_id": ignoredID,
	})
}

func (s *documentService) logBlobRemovalFailure(docID, attID string, err error) {
	logJSON(map[string]any{
		"level":         "error",
		"component":     "service",
		"event":         "blob_removal_failed",
		"document":      docID,
		"attachment_id": attID,
		"error":         err.Error(),
	})
}

func logJSON(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal service log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
