package mocks

import (
	"context"
	"io"

	"docmgr/internal/model"
	"docmgr/internal/search"
	"docmgr/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id string, includeAll bool) (*model.Document, error) {
	args := m.Called(ctx, id, includeAll)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, id string, desired *model.Document) (*service.UpdateResult, error) {
	args := m.Called(ctx, id, desired)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UpdateResult), args.Error(1)
}

func (m *MockDocumentService) BulkUpdate(ctx context.Context, desired []*model.Document) ([]service.BulkUpdateItem, error) {
	args := m.Called(ctx, desired)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.BulkUpdateItem), args.Error(1)
}

func (m *MockDocumentService) Search(ctx context.Context, c *search.Criteria) (*service.SearchResult, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SearchResult), args.Error(1)
}

func (m *MockDocumentService) SearchAll(ctx context.Context, c *search.Criteria) ([]model.Document, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentService) UploadAttachments(ctx context.Context, docID string, parts []service.UploadPart) (map[string]service.UploadOutcome, error) {
	args := m.Called(ctx, docID, parts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]service.UploadOutcome), args.Error(1)
}

func (m *MockDocumentService) DeleteAttachmentBlob(ctx context.Context, docID, attID string) error {
	args := m.Called(ctx, docID, attID)
	return args.Error(0)
}

func (m *MockDocumentService) DeleteAttachments(ctx context.Context, docID string, ids []string) error {
	args := m.Called(ctx, docID, ids)
	return args.Error(0)
}

func (m *MockDocumentService) DownloadAttachment(ctx context.Context, docID, attID string) (io.ReadCloser, *model.Attachment, error) {
	args := m.Called(ctx, docID, attID)
	rc, _ := args.Get(0).(io.ReadCloser)
	att, _ := args.Get(1).(*model.Attachment)
	return rc, att, args.Error(2)
}

func (m *MockDocumentService) FailedUploads(ctx context.Context, docID string) ([]model.StorageUploadAudit, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StorageUploadAudit), args.Error(1)
}
