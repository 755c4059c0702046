package audit

// Package audit is the append-only sink for storage failures. Writes are
// fire-and-forget from the caller's perspective: a failed audit insert is
// logged but never fails the parent operation.

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"docmgr/internal/model"
	"docmgr/internal/repository"
)

// Sink records storage-upload failures and orphaned blobs.
type Sink interface {
	// RecordUploadFailure writes a denormalized snapshot of a failed
	// attachment upload.
	RecordUploadFailure(ctx context.Context, doc *model.Document, att *model.Attachment, cause error)
	// RecordOrphanBlob writes an orphan marker for an attachment whose blob
	// could not be removed after its row was deleted.
	RecordOrphanBlob(ctx context.Context, attachmentID string, cause error)
}

type repoSink struct {
	repo repository.AuditRepository
	out  io.Writer
	now  func() time.Time
}

// NewSink builds a Sink backed by the audit repository.
func NewSink(repo repository.AuditRepository) Sink {
	return &repoSink{repo: repo, out: os.Stdout, now: time.Now}
}

func (s *repoSink) RecordUploadFailure(ctx context.Context, doc *model.Document, att *model.Attachment, cause error) {
	snap := &model.StorageUploadAudit{
		ID:             uuid.NewString(),
		DocumentID:     doc.ID,
		DocumentName:   doc.Name,
		AttachmentID:   att.ID,
		AttachmentName: att.Name,
		Filename:       att.OriginalFilename,
		Reason:         cause.Error(),
		CreatedAt:      s.now().UTC(),
	}
	if err := s.repo.InsertUploadFailure(ctx, snap); err != nil {
		s.logWriteFailure("upload_failure_audit_write_failed", snap.AttachmentID, err)
	}
}

func (s *repoSink) RecordOrphanBlob(ctx context.Context, attachmentID string, cause error) {
	row := &model.OrphanBlobAudit{
		ID:           uuid.NewString(),
		AttachmentID: attachmentID,
		Reason:       cause.Error(),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.InsertOrphanBlob(ctx, row); err != nil {
		s.logWriteFailure("orphan_blob_audit_write_failed", attachmentID, err)
	}
}

func (s *repoSink) logWriteFailure(event, attachmentID string, err error) {
	entry := map[string]any{
		"ts":            s.now().UTC().Format(time.RFC3339Nano),
		"level":         "error",
		"component":     "audit",
		"event":         event,
		"attachment_id": attachmentID,
		"error":         err.Error(),
	}
	b, mErr := json.Marshal(entry)
	if mErr != nil {
		log.Printf("failed to marshal audit log: %v", mErr)
		return
	}
	_, _ = s.out.Write(append(b, '\n'))
}
