package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"docmgr/internal/model"
	"docmgr/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
// Every mutating call runs inside one transaction so a partially written
// aggregate is never visible to other readers.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// docSelect is the canonical root select. Aliases d (documents), t (type),
// c (channel) and s (specification) are shared with the compiled search
// predicates.
const docSelect = `
	SELECT d.id, d.name, d.description, d.lifecycle_state, d.version, d.tags, d.modified_count,
	       d.created_at, d.created_by, d.updated_at, d.updated_by,
	       t.id, t.name, t.description,
	       c.id, c.name,
	       s.id, s.name, s.version
	FROM documents d
	JOIN document_types t ON t.id = d.type_id
	JOIN channels c ON c.id = d.channel_id
	LEFT JOIN document_specifications s ON s.id = d.specification_id
`

// Create inserts the aggregate root together with its owned children.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := upsertChannel(ctx, tx, doc.Channel); err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO documents (id, name, description, lifecycle_state, version, tags, modified_count,
		                       type_id, specification_id, channel_id,
		                       created_at, created_by, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $9, $10, $11, $12, $13)
	`
	if _, err := tx.ExecContext(ctx, q,
		doc.ID, doc.Name, doc.Description, string(doc.LifecycleState), doc.Version, joinTags(doc.Tags),
		doc.Type.ID, specID(doc.Specification), doc.Channel.ID,
		doc.CreatedAt, doc.CreatedBy, doc.UpdatedAt, doc.UpdatedBy,
	); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	doc.ModifiedCount = 0

	if err := r.writeChildren(ctx, tx, doc); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return doc, nil
}

// Update persists a reconciled aggregate. The root row update carries a
// compare-and-increment on modified_count; zero rows affected on an existing
// row means a concurrent writer won and maps to ErrStaleDocument.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document) (*model.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := upsertChannel(ctx, tx, doc.Channel); err != nil {
		return nil, err
	}

	const q = `
		UPDATE documents
		SET name = $1, description = $2, lifecycle_state = $3, version = $4, tags = $5,
		    type_id = $6, specification_id = $7, channel_id = $8,
		    updated_at = $9, updated_by = $10,
		    modified_count = modified_count + 1
		WHERE id = $11 AND modified_count = $12
	`
	res, err := tx.ExecContext(ctx, q,
		doc.Name, doc.Description, string(doc.LifecycleState), doc.Version, joinTags(doc.Tags),
		doc.Type.ID, specID(doc.Specification), doc.Channel.ID,
		doc.UpdatedAt, doc.UpdatedBy,
		doc.ID, doc.ModifiedCount,
	)
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, doc.ID).Scan(&exists); err != nil {
			return nil, err
		}
		if exists {
			return nil, repository.ErrStaleDocument
		}
		return nil, sql.ErrNoRows
	}
	doc.ModifiedCount++

	if err := r.writeChildren(ctx, tx, doc); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return doc, nil
}

// Delete removes the aggregate root. Owned children and category links are
// removed by the schema's ON DELETE CASCADE.
func (r *DocumentPostgres) Delete(ctx context.Context, doc *model.Document) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, doc.ID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
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

// FindByID fetches a document by id, optionally with all owned collections.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string, includeAll bool) (*model.Document, error) {
	row := r.db.QueryRowContext(ctx, docSelect+` WHERE d.id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, err
	}

	if doc.RelatedObject, err = r.loadRelatedObject(ctx, id); err != nil {
		return nil, err
	}

	if !includeAll {
		return doc, nil
	}

	if doc.Attachments, err = r.loadAttachments(ctx, id); err != nil {
		return nil, err
	}
	if doc.Relationships, err = r.loadRelationships(ctx, id); err != nil {
		return nil, err
	}
	if doc.Characteristics, err = r.loadCharacteristics(ctx, id); err != nil {
		return nil, err
	}
	if doc.RelatedParties, err = r.loadRelatedParties(ctx, id); err != nil {
		return nil, err
	}
	if doc.Categories, err = r.loadCategories(ctx, id); err != nil {
		return nil, err
	}
	return doc, nil
}

// writeChildren syncs every owned collection and the related-object singleton
// to the aggregate's current state: rows absent from the aggregate are
// deleted, present ones upserted.
func (r *DocumentPostgres) writeChildren(ctx context.Context, tx *sql.Tx, doc *model.Document) error {
	if err := r.syncAttachments(ctx, tx, doc); err != nil {
		return err
	}
	if err := r.syncRelationships(ctx, tx, doc); err != nil {
		return err
	}
	if err := r.syncCharacteristics(ctx, tx, doc); err != nil {
		return err
	}
	if err := r.syncRelatedParties(ctx, tx, doc); err != nil {
		return err
	}
	if err := r.syncCategories(ctx, tx, doc); err != nil {
		return err
	}
	return r.syncRelatedObject(ctx, tx, doc)
}

func (r *DocumentPostgres) syncAttachments(ctx context.Context, tx *sql.Tx, doc *model.Document) error {
	ids := make([]string, len(doc.Attachments))
	for i := range doc.Attachments {
		ids[i] = doc.Attachments[i].ID
	}
	if err := deleteAbsent(ctx, tx, "attachments", doc.ID, ids); err != nil {
		return err
	}
	const q = `
		INSERT INTO attachments (id, document_id, name, description, mime_type_id, original_filename,
		                         size, size_unit, storage_backend, external_url, uploaded,
		                         created_at, created_by, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description,
			mime_type_id = EXCLUDED.mime_type_id, original_filename = EXCLUDED.original_filename,
			size = EXCLUDED.size, size_unit = EXCLUDED.size_unit,
			storage_backend = EXCLUDED.storage_backend, external_url = EXCLUDED.external_url,
			uploaded = EXCLUDED.uploaded,
			updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by
	`
	for i := range doc.Attachments {
		a := &doc.Attachments[i]
		if _, err := tx.ExecContext(ctx, q,
			a.ID, doc.ID, a.Name, a.Description, a.MimeTypeID, a.OriginalFilename,
			a.Size, a.SizeUnit, a.StorageBackend, a.ExternalURL, a.Uploaded,
			a.CreatedAt, a.CreatedBy, a.UpdatedAt, a.UpdatedBy,
		); err != nil {
			return fmt.Errorf("upsert attachment %s: %w", a.ID, err)
		}
	}
	return nil
}

func (r *DocumentPostgres) syncRelationships(ctx context.Context, tx *sql.Tx, doc *model.Document) error {
	ids := make([]string, len(doc.Relationships))
	for i := range doc.Relationships {
		ids[i] = doc.Relationships[i].ID
	}
	if err := deleteAbsent(ctx, tx, "document_relationships", doc.ID, ids); err != nil {
		return err
	}
	const q = `
		INSERT INTO document_relationships (id, document_id, relationship_type, target_document_id,
		                                    created_at, created_by, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			relationship_type = EXCLUDED.relationship_type,
			target_document_id = EXCLUDED.target_document_id,
			updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by
	`
	for i := range doc.Relationships {
		rel := &doc.Relationships[i]
		if _, err := tx.ExecContext(ctx, q,
			rel.ID, doc.ID, rel.RelationshipType, rel.TargetDocumentID,
			rel.CreatedAt, rel.CreatedBy, rel.UpdatedAt, rel.UpdatedBy,
		); err != nil {
			return fmt.Errorf("upsert relationship %s: %w", rel.ID, err)
		}
	}
	return nil
}

func (r *DocumentPostgres) syncCharacteristics(ctx context.Context, tx *sql.Tx, doc *model.Document) error {
	ids := make([]string, len(doc.Characteristics))
	for i := range doc.Characteristics {
		ids[i] = doc.Characteristics[i].ID
	}
	if err := deleteAbsent(ctx, tx, "document_characteristics", doc.ID, ids); err != nil {
		return err
	}
	const q = `
		INSERT INTO document_characteristics (id, document_id, name, value,
		                                      created_at, created_by, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by
	`
	for i := range doc.Characteristics {
		ch := &doc.Characteristics[i]
		if _, err := tx.ExecContext(ctx, q,
			ch.ID, doc.ID, ch.Name, ch.Value,
			ch.CreatedAt, ch.CreatedBy, ch.UpdatedAt, ch.UpdatedBy,
		); err != nil {
			return fmt.Errorf("upsert characteristic %s: %w", ch.ID, err)
		}
	}
	return nil
}

func (r *DocumentPostgres) syncRelatedParties(ctx context.Context, tx *sql.Tx, doc *model.Document) error {
	ids := make([]string, len(doc.RelatedParties))
	for i := range doc.RelatedParties {
		ids[i] = doc.RelatedParties[i].ID
	}
	if err := deleteAbsent(ctx, tx, "related_party_refs", doc.ID, ids); err != nil {
		return err
	}
	const q = `
		INSERT INTO related_party_refs (id, document_id, name, role, href,
		                                created_at, created_by, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, role = EXCLUDED.role, href = EXCLUDED.href,
			updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by
	`
	for i := range doc.RelatedParties {
		p := &doc.RelatedParties[i]
		if _, err := tx.ExecContext(ctx, q,
			p.ID, doc.ID, p.Name, p.Role, p.Href,
			p.CreatedAt, p.CreatedBy, p.UpdatedAt, p.UpdatedBy,
		); err != nil {
			return fmt.Errorf("upsert related party %s: %w", p.ID, err)
		}
	}
	return nil
}

// syncCategories maintains the referential category rows and the
// many-to-many links. Category rows are merged by id, never deleted here.
func (r *DocumentPostgres) syncCategories(ctx context.Context, tx *sql.Tx, doc *model.Document) error {
	catIDs := make([]string, len(doc.Categories))
	for i := range doc.Categories {
		c := &doc.Categories[i]
		catIDs[i] = c.ID
		const qc = `
			INSERT INTO categories (id, name, created_at, created_by, updated_at, updated_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by
		`
		if _, err := tx.ExecContext(ctx, qc, c.ID, c.Name, c.CreatedAt, c.CreatedBy, c.UpdatedAt, c.UpdatedBy); err != nil {
			return fmt.Errorf("upsert category %s: %w", c.ID, err)
		}
	}

	if len(catIDs) == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM document_categories WHERE document_id = $1`, doc.ID); err != nil {
			return fmt.Errorf("clear category links: %w", err)
		}
		return nil
	}

	q := fmt.Sprintf(`DELETE FROM document_categories WHERE document_id = $1 AND category_id NOT IN (%s)`,
		placeholders(2, len(catIDs)))
	args := append([]any{doc.ID}, toAny(catIDs)...)
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("prune category links: %w", err)
	}

	const ql = `
		INSERT INTO document_categories (document_id, category_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	for _, cid := range catIDs {
		if _, err := tx.ExecContext(ctx, ql, doc.ID, cid); err != nil {
			return fmt.Errorf("link category %s: %w", cid, err)
		}
	}
	return nil
}

func (r *DocumentPostgres) syncRelatedObject(ctx context.Context, tx *sql.Tx, doc *model.Document) error {
	if doc.RelatedObject == nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM related_object_refs WHERE document_id = $1`, doc.ID); err != nil {
			return fmt.Errorf("clear related object: %w", err)
		}
		return nil
	}
	o := doc.RelatedObject
	const q = `
		INSERT INTO related_object_refs (id, document_id, involvement, ref_id, ref_type,
		                                 created_at, created_by, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (document_id) DO UPDATE SET
			id = EXCLUDED.id, involvement = EXCLUDED.involvement,
			ref_id = EXCLUDED.ref_id, ref_type = EXCLUDED.ref_type,
			updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by
	`
	if _, err := tx.ExecContext(ctx, q,
		o.ID, doc.ID, o.Involvement, o.RefID, o.RefType,
		o.CreatedAt, o.CreatedBy, o.UpdatedAt, o.UpdatedBy,
	); err != nil {
		return fmt.Errorf("upsert related object: %w", err)
	}
	return nil
}

// upsertChannel merges the referential channel row by id.
func upsertChannel(ctx context.Context, tx *sql.Tx, ch *model.Channel) error {
	if ch == nil {
		return nil
	}
	const q = `
		INSERT INTO channels (id, name, created_at, created_by, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by
	`
	if _, err := tx.ExecContext(ctx, q, ch.ID, ch.Name, ch.CreatedAt, ch.CreatedBy, ch.UpdatedAt, ch.UpdatedBy); err != nil {
		return fmt.Errorf("upsert channel %s: %w", ch.ID, err)
	}
	return nil
}

// deleteAbsent removes the rows of an owned-child table that are no longer
// part of the aggregate. Anything not re-submitted is considered deleted.
func deleteAbsent(ctx context.Context, tx *sql.Tx, table, docID string, keep []string) error {
	if len(keep) == 0 {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, table), docID)
		if err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
		return nil
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1 AND id NOT IN (%s)`, table, placeholders(2, len(keep)))
	args := append([]any{docID}, toAny(keep)...)
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("prune %s: %w", table, err)
	}
	return nil
}

// placeholders renders "$start, $start+1, ..." for n values.
func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func specID(s *model.DocumentSpecification) any {
	if s == nil {
		return nil
	}
	return s.ID
}
