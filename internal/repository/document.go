package repository

import (
	"context"
	"errors"

	"docmgr/internal/model"
	"docmgr/internal/search"
)

// Package repository contains data access abstractions for the document
// aggregate. Implementations live in subpackages (e.g. postgres). No business
// logic here; strictly persistence operations. Missing rows surface as
// sql.ErrNoRows and are mapped to domain not-found errors by the service.

// ErrStaleDocument is returned when an update's modification counter does not
// match the persisted row: a concurrent writer got there first.
var ErrStaleDocument = errors.New("document was modified concurrently")

// DocumentRepository is the aggregate store. Create, Update and Delete cover
// the whole aggregate (owned collections and singleton relations) inside a
// single transaction, so a partially written aggregate is never visible.
type DocumentRepository interface {
	// Create inserts the aggregate root together with its owned children
	// and category links.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID. With includeAll the owned
	// collections are loaded too; otherwise only the root row and its
	// singleton references.
	FindByID(ctx context.Context, id string, includeAll bool) (*model.Document, error)

	// Update persists a reconciled aggregate: root fields under a
	// compare-and-increment on the modification counter (ErrStaleDocument
	// on mismatch), children synced by delete-on-absence plus upsert.
	Update(ctx context.Context, doc *model.Document) (*model.Document, error)

	// Delete removes the aggregate root; owned children go with it.
	Delete(ctx context.Context, doc *model.Document) error

	// Search executes a compiled query and returns one page plus totals.
	Search(ctx context.Context, q *search.CompiledQuery) (*PageResult[model.Document], error)

	// SearchAll executes the same predicate set without paging.
	SearchAll(ctx context.Context, q *search.CompiledQuery) ([]model.Document, error)

	// FindByTypeID returns the documents referencing a type.
	FindByTypeID(ctx context.Context, typeID string) ([]model.Document, error)

	// FindBySpecificationID returns the documents referencing a specification.
	FindBySpecificationID(ctx context.Context, specID string) ([]model.Document, error)

	// UpdateAttachment persists an attachment's storage metadata and
	// upload status.
	UpdateAttachment(ctx context.Context, docID string, att *model.Attachment) (*model.Attachment, error)

	// DeleteAttachment removes one attachment row; sql.ErrNoRows if absent.
	DeleteAttachment(ctx context.Context, docID, attID string) error
}

// ReferenceRepository resolves the referential entities a document points at.
type ReferenceRepository interface {
	TypeByID(ctx context.Context, id string) (*model.DocumentType, error)
	MimeTypeByID(ctx context.Context, id string) (*model.SupportedMimeType, error)
	CreateSpecification(ctx context.Context, spec *model.DocumentSpecification) (*model.DocumentSpecification, error)
	AttachmentsByMimeTypeID(ctx context.Context, mimeTypeID string) ([]model.Attachment, error)
}

// AuditRepository persists the append-only audit rows. Rows are inserted
// once, never updated, never deleted by normal operation.
type AuditRepository interface {
	InsertUploadFailure(ctx context.Context, a *model.StorageUploadAudit) error
	InsertOrphanBlob(ctx context.Context, a *model.OrphanBlobAudit) error
	FailedUploadsByDocumentID(ctx context.Context, docID string) ([]model.StorageUploadAudit, error)
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items         []T
	TotalElements int
	TotalPages    int
}
