package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"docmgr/internal/model"
	"docmgr/internal/repository"
)

// AuditPostgres persists the append-only audit rows.
type AuditPostgres struct {
	db *sql.DB
}

// NewAuditPostgres creates a new AuditPostgres repository.
func NewAuditPostgres(db *sql.DB) *AuditPostgres {
	return &AuditPostgres{db: db}
}

var _ repository.AuditRepository = (*AuditPostgres)(nil)

// InsertUploadFailure records a storage-upload-failure snapshot.
func (r *AuditPostgres) InsertUploadFailure(ctx context.Context, a *model.StorageUploadAudit) error {
	const q = `
		INSERT INTO storage_upload_audits (id, document_id, document_name, attachment_id, attachment_name, filename, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.ExecContext(ctx, q,
		a.ID, a.DocumentID, a.DocumentName, a.AttachmentID, a.AttachmentName, a.Filename, a.Reason, a.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert upload failure audit: %w", err)
	}
	return nil
}

// InsertOrphanBlob records an attachment id whose blob removal failed after
// the row was deleted.
func (r *AuditPostgres) InsertOrphanBlob(ctx context.Context, a *model.OrphanBlobAudit) error {
	const q = `
		INSERT INTO orphan_blob_audits (id, attachment_id, reason, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, q, a.ID, a.AttachmentID, a.Reason, a.CreatedAt); err != nil {
		return fmt.Errorf("insert orphan blob audit: %w", err)
	}
	return nil
}

// FailedUploadsByDocumentID lists the upload-failure snapshots of a document.
func (r *AuditPostgres) FailedUploadsByDocumentID(ctx context.Context, docID string) ([]model.StorageUploadAudit, error) {
	const q = `
		SELECT id, document_id, document_name, attachment_id, attachment_name, filename, reason, created_at
		FROM storage_upload_audits
		WHERE document_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, q, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.StorageUploadAudit
	for rows.Next() {
		var a model.StorageUploadAudit
		if err := rows.Scan(
			&a.ID, &a.DocumentID, &a.DocumentName, &a.AttachmentID, &a.AttachmentName,
			&a.Filename, &a.Reason, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
