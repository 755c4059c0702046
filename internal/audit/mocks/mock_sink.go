package mocks

import (
	"context"

	"docmgr/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) RecordUploadFailure(ctx context.Context, doc *model.Document, att *model.Attachment, cause error) {
	m.Called(ctx, doc, att, cause)
}

func (m *MockSink) RecordOrphanBlob(ctx context.Context, attachmentID string, cause error) {
	m.Called(ctx, attachmentID, cause)
}
