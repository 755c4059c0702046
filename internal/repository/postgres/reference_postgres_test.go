package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"docmgr/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRefRepo(t *testing.T) (*ReferencePostgres, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewReferencePostgres(db), mock, func() { db.Close() }
}

func TestReferencePostgres_TypeByID(t *testing.T) {
	repo, mock, closeDB := newMockRefRepo(t)
	defer closeDB()
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name", "description", "created_at", "created_by", "updated_at", "updated_by"}).
			AddRow("t1", "invoice", "billing documents", now, "system", now, "system")

		mock.ExpectQuery(`FROM document_types`).
			WithArgs("t1").
			WillReturnRows(rows)

		typ, err := repo.TypeByID(ctx, "t1")

		assert.NoError(t, err)
		assert.Equal(t, "invoice", typ.Name)
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery(`FROM document_types`).
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.TypeByID(ctx, "nope")

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestReferencePostgres_MimeTypeByID(t *testing.T) {
	repo, mock, closeDB := newMockRefRepo(t)
	defer closeDB()
	ctx := context.Background()
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "name", "created_at", "created_by", "updated_at", "updated_by"}).
		AddRow("m1", "application/pdf", now, "system", now, "system")

	mock.ExpectQuery(`FROM supported_mime_types`).
		WithArgs("m1").
		WillReturnRows(rows)

	mt, err := repo.MimeTypeByID(ctx, "m1")

	assert.NoError(t, err)
	assert.Equal(t, "application/pdf", mt.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferencePostgres_CreateSpecification(t *testing.T) {
	repo, mock, closeDB := newMockRefRepo(t)
	defer closeDB()
	ctx := context.Background()
	now := time.Now().UTC()

	spec := &model.DocumentSpecification{Name: "ISO-9001", Version: "2015"}
	spec.ID = "spec-1"
	spec.CreatedAt, spec.UpdatedAt = now, now

	mock.ExpectExec(`INSERT INTO document_specifications`).
		WithArgs("spec-1", "ISO-9001", "2015", now, "", now, "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := repo.CreateSpecification(ctx, spec)

	assert.NoError(t, err)
	assert.Equal(t, "spec-1", created.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferencePostgres_AttachmentsByMimeTypeID(t *testing.T) {
	repo, mock, closeDB := newMockRefRepo(t)
	defer closeDB()
	ctx := context.Background()
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "name", "description", "mime_type_id", "original_filename",
		"size", "size_unit", "storage_backend", "external_url", "uploaded",
		"created_at", "created_by", "updated_at", "updated_by",
	}).AddRow("att-1", "scan", "", "m1", "scan.pdf",
		int64(100), "bytes", "minio", "http://minio/docmgr/attachments/att-1", true,
		now, "system", now, "system")

	mock.ExpectQuery(`FROM attachments`).
		WithArgs("m1").
		WillReturnRows(rows)

	items, err := repo.AttachmentsByMimeTypeID(ctx, "m1")

	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Uploaded)
	assert.Equal(t, "scan.pdf", items[0].OriginalFilename)
	assert.NoError(t, mock.ExpectationsWereMet())
}
