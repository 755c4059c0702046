package mocks

import (
	"context"

	"docmgr/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockReferenceRepository struct {
	mock.Mock
}

func (m *MockReferenceRepository) TypeByID(ctx context.Context, id string) (*model.DocumentType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentType), args.Error(1)
}

func (m *MockReferenceRepository) MimeTypeByID(ctx context.Context, id string) (*model.SupportedMimeType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SupportedMimeType), args.Error(1)
}

func (m *MockReferenceRepository) CreateSpecification(ctx context.Context, spec *model.DocumentSpecification) (*model.DocumentSpecification, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentSpecification), args.Error(1)
}

func (m *MockReferenceRepository) AttachmentsByMimeTypeID(ctx context.Context, mimeTypeID string) ([]model.Attachment, error) {
	args := m.Called(ctx, mimeTypeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Attachment), args.Error(1)
}
