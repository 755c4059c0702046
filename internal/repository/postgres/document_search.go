package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"docmgr/internal/model"
	"docmgr/internal/repository"
	"docmgr/internal/search"
)

// searchFrom builds the FROM clause for a compiled query. Type and channel
// are always joined (the result rows hydrate them); the related-object join
// is added only when a predicate references it.
func searchFrom(q *search.CompiledQuery) string {
	from := `
	FROM documents d
	JOIN document_types t ON t.id = d.type_id
	JOIN channels c ON c.id = d.channel_id
	LEFT JOIN document_specifications s ON s.id = d.specification_id
`
	if q.NeedsRelatedObjectJoin {
		from += "	LEFT JOIN related_object_refs r ON r.document_id = d.id\n"
	}
	return from
}

const searchSelect = `
	SELECT d.id, d.name, d.description, d.lifecycle_state, d.version, d.tags, d.modified_count,
	       d.created_at, d.created_by, d.updated_at, d.updated_by,
	       t.id, t.name, t.description,
	       c.id, c.name,
	       s.id, s.name, s.version
`

// Search executes a compiled query with paging and returns one page plus the
// matching totals. Any execution failure is wrapped, never swallowed.
func (r *DocumentPostgres) Search(ctx context.Context, q *search.CompiledQuery) (*repository.PageResult[model.Document], error) {
	from := searchFrom(q)

	countQ := `SELECT COUNT(*)` + from + q.WhereClause()
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, q.Args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	n := len(q.Args)
	pageQ := fmt.Sprintf("%s%s%s %s LIMIT $%d OFFSET $%d",
		searchSelect, from, q.WhereClause(), q.OrderBy, n+1, n+2)
	args := append(append([]any{}, q.Args...), q.Limit, q.Offset)

	items, err := r.queryDocuments(ctx, pageQ, args...)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}

	pages := 0
	if q.Limit > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return &repository.PageResult[model.Document]{
		Items:         items,
		TotalElements: total,
		TotalPages:    pages,
	}, nil
}

// SearchAll executes the same predicate set without paging; used for exports
// and bulk operations.
func (r *DocumentPostgres) SearchAll(ctx context.Context, q *search.CompiledQuery) ([]model.Document, error) {
	fullQ := searchSelect + searchFrom(q) + q.WhereClause() + " " + q.OrderBy
	items, err := r.queryDocuments(ctx, fullQ, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("search all documents: %w", err)
	}
	return items, nil
}

// FindByTypeID returns the documents referencing a type.
func (r *DocumentPostgres) FindByTypeID(ctx context.Context, typeID string) ([]model.Document, error) {
	return r.queryDocuments(ctx, docSelect+` WHERE d.type_id = $1 ORDER BY d.updated_at DESC`, typeID)
}

// FindBySpecificationID returns the documents referencing a specification.
func (r *DocumentPostgres) FindBySpecificationID(ctx context.Context, specID string) ([]model.Document, error) {
	return r.queryDocuments(ctx, docSelect+` WHERE d.specification_id = $1 ORDER BY d.updated_at DESC`, specID)
}

func (r *DocumentPostgres) queryDocuments(ctx context.Context, q string, args ...any) ([]model.Document, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *doc)
	}
	return items, rows.Err()
}

// UpdateAttachment persists an attachment's storage metadata and upload
// status after a confirmed store or a blob removal.
func (r *DocumentPostgres) UpdateAttachment(ctx context.Context, docID string, att *model.Attachment) (*model.Attachment, error) {
	const q = `
		UPDATE attachments
		SET size = $1, size_unit = $2, storage_backend = $3, external_url = $4, uploaded = $5,
		    updated_at = $6, updated_by = $7
		WHERE id = $8 AND document_id = $9
	`
	res, err := r.db.ExecContext(ctx, q,
		att.Size, att.SizeUnit, att.StorageBackend, att.ExternalURL, att.Uploaded,
		att.UpdatedAt, att.UpdatedBy,
		att.ID, docID,
	)
	if err != nil {
		return nil, fmt.Errorf("update attachment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, sql.ErrNoRows
	}
	return att, nil
}

// DeleteAttachment removes one attachment row.
func (r *DocumentPostgres) DeleteAttachment(ctx context.Context, docID, attID string) error {
	const q = `DELETE FROM attachments WHERE id = $1 AND document_id = $2`
	res, err := r.db.ExecContext(ctx, q, attID, docID)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
