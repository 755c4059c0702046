package postgres

import (
	"context"
	"database/sql"

	"docmgr/internal/model"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument scans one docSelect row into a document with its type,
// channel and optional specification hydrated.
func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d         model.Document
		state     string
		tags      string
		typ       model.DocumentType
		ch        model.Channel
		sID, sNam sql.NullString
		sVer      sql.NullString
	)
	if err := row.Scan(
		&d.ID, &d.Name, &d.Description, &state, &d.Version, &tags, &d.ModifiedCount,
		&d.CreatedAt, &d.CreatedBy, &d.UpdatedAt, &d.UpdatedBy,
		&typ.ID, &typ.Name, &typ.Description,
		&ch.ID, &ch.Name,
		&sID, &sNam, &sVer,
	); err != nil {
		return nil, err
	}
	d.LifecycleState = model.LifecycleState(state)
	d.Tags = splitTags(tags)
	d.Type = &typ
	d.Channel = &ch
	if sID.Valid {
		spec := model.DocumentSpecification{Name: sNam.String, Version: sVer.String}
		spec.ID = sID.String
		d.Specification = &spec
	}
	return &d, nil
}

func (r *DocumentPostgres) loadRelatedObject(ctx context.Context, docID string) (*model.RelatedObjectRef, error) {
	const q = `
		SELECT id, involvement, ref_id, ref_type, created_at, created_by, updated_at, updated_by
		FROM related_object_refs
		WHERE document_id = $1
	`
	var o model.RelatedObjectRef
	err := r.db.QueryRowContext(ctx, q, docID).Scan(
		&o.ID, &o.Involvement, &o.RefID, &o.RefType,
		&o.CreatedAt, &o.CreatedBy, &o.UpdatedAt, &o.UpdatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *DocumentPostgres) loadAttachments(ctx context.Context, docID string) ([]model.Attachment, error) {
	const q = `
		SELECT id, name, description, mime_type_id, original_filename,
		       size, size_unit, storage_backend, external_url, uploaded,
		       created_at, created_by, updated_at, updated_by
		FROM attachments
		WHERE document_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, q, docID)
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

func (r *DocumentPostgres) loadRelationships(ctx context.Context, docID string) ([]model.DocumentRelationship, error) {
	const q = `
		SELECT id, relationship_type, target_document_id, created_at, created_by, updated_at, updated_by
		FROM document_relationships
		WHERE document_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, q, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.DocumentRelationship
	for rows.Next() {
		var rel model.DocumentRelationship
		if err := rows.Scan(
			&rel.ID, &rel.RelationshipType, &rel.TargetDocumentID,
			&rel.CreatedAt, &rel.CreatedBy, &rel.UpdatedAt, &rel.UpdatedBy,
		); err != nil {
			return nil, err
		}
		items = append(items, rel)
	}
	return items, rows.Err()
}

func (r *DocumentPostgres) loadCharacteristics(ctx context.Context, docID string) ([]model.DocumentCharacteristic, error) {
	const q = `
		SELECT id, name, value, created_at, created_by, updated_at, updated_by
		FROM document_characteristics
		WHERE document_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, q, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.DocumentCharacteristic
	for rows.Next() {
		var c model.DocumentCharacteristic
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Value,
			&c.CreatedAt, &c.CreatedBy, &c.UpdatedAt, &c.UpdatedBy,
		); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *DocumentPostgres) loadRelatedParties(ctx context.Context, docID string) ([]model.RelatedPartyRef, error) {
	const q = `
		SELECT id, name, role, href, created_at, created_by, updated_at, updated_by
		FROM related_party_refs
		WHERE document_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, q, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.RelatedPartyRef
	for rows.Next() {
		var p model.RelatedPartyRef
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Role, &p.Href,
			&p.CreatedAt, &p.CreatedBy, &p.UpdatedAt, &p.UpdatedBy,
		); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *DocumentPostgres) loadCategories(ctx context.Context, docID string) ([]model.Category, error) {
	const q = `
		SELECT c.id, c.name, c.created_at, c.created_by, c.updated_at, c.updated_by
		FROM categories c
		JOIN document_categories dc ON dc.category_id = c.id
		WHERE dc.document_id = $1
		ORDER BY c.name
	`
	rows, err := r.db.QueryContext(ctx, q, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.CreatedBy, &c.UpdatedAt, &c.UpdatedBy); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
