package postgres

import (
	"context"
	"testing"
	"time"

	"docmgr/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditPostgres_InsertUploadFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAuditPostgres(db)
	now := time.Now().UTC()

	a := &model.StorageUploadAudit{
		ID:             "audit-1",
		DocumentID:     "doc-1",
		DocumentName:   "Invoice-2024",
		AttachmentID:   "att-1",
		AttachmentName: "scan",
		Filename:       "scan.pdf",
		Reason:         "connection reset",
		CreatedAt:      now,
	}

	mock.ExpectExec(`INSERT INTO storage_upload_audits`).
		WithArgs("audit-1", "doc-1", "Invoice-2024", "att-1", "scan", "scan.pdf", "connection reset", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.InsertUploadFailure(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditPostgres_InsertOrphanBlob(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAuditPostgres(db)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO orphan_blob_audits`).
		WithArgs("audit-2", "att-1", "bucket gone", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.InsertOrphanBlob(context.Background(), &model.OrphanBlobAudit{
		ID: "audit-2", AttachmentID: "att-1", Reason: "bucket gone", CreatedAt: now,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditPostgres_FailedUploadsByDocumentID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAuditPostgres(db)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "document_id", "document_name", "attachment_id", "attachment_name",
		"filename", "reason", "created_at",
	}).AddRow("audit-1", "doc-1", "Invoice-2024", "att-1", "scan", "scan.pdf", "connection reset", now)

	mock.ExpectQuery(`FROM storage_upload_audits`).
		WithArgs("doc-1").
		WillReturnRows(rows)

	items, err := repo.FailedUploadsByDocumentID(context.Background(), "doc-1")

	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "connection reset", items[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}
