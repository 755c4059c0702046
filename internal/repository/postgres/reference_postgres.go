package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"docmgr/internal/model"
	"docmgr/internal/repository"
)

// ReferencePostgres resolves referential entities (types, mime types,
// specifications). Missing rows surface as sql.ErrNoRows.
type ReferencePostgres struct {
	db *sql.DB
}

// NewReferencePostgres creates a new ReferencePostgres repository.
func NewReferencePostgres(db *sql.DB) *ReferencePostgres {
	return &ReferencePostgres{db: db}
}

var _ repository.ReferenceRepository = (*ReferencePostgres)(nil)

// TypeByID fetches a document type.
func (r *ReferencePostgres) TypeByID(ctx context.Context, id string) (*model.DocumentType, error) {
	const q = `
		SELECT id, name, description, created_at, created_by, updated_at, updated_by
		FROM document_types
		WHERE id = $1
	`
	var t model.DocumentType
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.Name, &t.Description,
		&t.CreatedAt, &t.CreatedBy, &t.UpdatedAt, &t.UpdatedBy,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

// MimeTypeByID fetches a supported mime type.
func (r *ReferencePostgres) MimeTypeByID(ctx context.Context, id string) (*model.SupportedMimeType, error) {
	const q = `
		SELECT id, name, created_at, created_by, updated_at, updated_by
		FROM supported_mime_types
		WHERE id = $1
	`
	var m model.SupportedMimeType
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&m.ID, &m.Name,
		&m.CreatedAt, &m.CreatedBy, &m.UpdatedAt, &m.UpdatedBy,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateSpecification inserts a fresh specification row. Specifications are
// only ever created or cleared during a document update, never updated in
// place.
func (r *ReferencePostgres) CreateSpecification(ctx context.Context, spec *model.DocumentSpecification) (*model.DocumentSpecification, error) {
	const q = `
		INSERT INTO document_specifications (id, name, version, created_at, created_by, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, q,
		spec.ID, spec.Name, spec.Version,
		spec.CreatedAt, spec.CreatedBy, spec.UpdatedAt, spec.UpdatedBy,
	); err != nil {
		return nil, fmt.Errorf("insert specification: %w", err)
	}
	return spec, nil
}

// AttachmentsByMimeTypeID returns every attachment declaring a mime type.
func (r *ReferencePostgres) AttachmentsByMimeTypeID(ctx context.Context, mimeTypeID string) ([]model.Attachment, error) {
	const q = `
		SELECT id, name, description, mime_type_id, original_filename,
		       size, size_unit, storage_backend, external_url, uploaded,
		       created_at, created_by, updated_at, updated_by
		FROM attachments
		WHERE mime_type_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, q, mimeTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Description, &a.MimeTypeID, &a.OriginalFilename,
			&a.Size, &a.SizeUnit, &a.StorageBackend, &a.ExternalURL, &a.Uploaded,
			&a.CreatedAt, &a.CreatedBy, &a.UpdatedAt, &a.UpdatedBy,
		); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
