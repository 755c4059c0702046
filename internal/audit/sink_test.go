package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"docmgr/internal/model"
	repoMocks "docmgr/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRecordUploadFailure(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{Name: "Invoice-2024"}
	doc.ID = "doc-1"
	att := &model.Attachment{Name: "scan", OriginalFilename: "scan.pdf"}
	att.ID = "att-1"

	t.Run("writes denormalized snapshot", func(t *testing.T) {
		mRepo := new(repoMocks.MockAuditRepository)
		s := NewSink(mRepo)

		mRepo.On("InsertUploadFailure", ctx, mock.MatchedBy(func(a *model.StorageUploadAudit) bool {
			return a.ID != "" &&
				a.DocumentID == "doc-1" && a.DocumentName == "Invoice-2024" &&
				a.AttachmentID == "att-1" && a.Filename == "scan.pdf" &&
				a.Reason == "push failed"
		})).Return(nil)

		s.RecordUploadFailure(ctx, doc, att, errors.New("push failed"))

		mRepo.AssertExpectations(t)
	})

	t.Run("insert failure is logged, not propagated", func(t *testing.T) {
		mRepo := new(repoMocks.MockAuditRepository)
		var buf bytes.Buffer
		s := &repoSink{repo: mRepo, out: &buf, now: time.Now}

		mRepo.On("InsertUploadFailure", ctx, mock.Anything).Return(errors.New("db down"))

		s.RecordUploadFailure(ctx, doc, att, errors.New("push failed"))

		var entry map[string]any
		assert.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "upload_failure_audit_write_failed", entry["event"])
		assert.Equal(t, "att-1", entry["attachment_id"])
	})
}

func TestRecordOrphanBlob(t *testing.T) {
	ctx := context.Background()

	mRepo := new(repoMocks.MockAuditRepository)
	s := NewSink(mRepo)

	mRepo.On("InsertOrphanBlob", ctx, mock.MatchedBy(func(a *model.OrphanBlobAudit) bool {
		return a.AttachmentID == "att-9" && a.Reason == "remove failed"
	})).Return(nil)

	s.RecordOrphanBlob(ctx, "att-9", errors.New("remove failed"))

	mRepo.AssertExpectations(t)
}
