package mocks

import (
	"context"

	"docmgr/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) InsertUploadFailure(ctx context.Context, a *model.StorageUploadAudit) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAuditRepository) InsertOrphanBlob(ctx context.Context, a *model.OrphanBlobAudit) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAuditRepository) FailedUploadsByDocumentID(ctx context.Context, docID string) ([]model.StorageUploadAudit, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StorageUploadAudit), args.Error(1)
}
