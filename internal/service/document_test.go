package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	auditMocks "docmgr/internal/audit/mocks"
	"docmgr/internal/model"
	"docmgr/internal/repository"
	repoMocks "docmgr/internal/repository/mocks"
	"docmgr/internal/search"
	storeMocks "docmgr/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type serviceWith struct {
	svc   DocumentService
	store *storeMocks.MockStorage
	repo  *repoMocks.MockDocumentRepository
	refs  *repoMocks.MockReferenceRepository
	sink  *auditMocks.MockSink
	audit *repoMocks.MockAuditRepository
}

func newTestService() serviceWith {
	s := serviceWith{
		store: new(storeMocks.MockStorage),
		repo:  new(repoMocks.MockDocumentRepository),
		refs:  new(repoMocks.MockReferenceRepository),
		sink:  new(auditMocks.MockSink),
		audit: new(repoMocks.MockAuditRepository),
	}
	s.svc = NewDocumentService(s.store, s.repo, s.refs, s.sink, s.audit, search.Limits{DefaultPageSize: 20, MaxPageSize: 200})
	return s
}

func (s serviceWith) assertExpectations(t *testing.T) {
	s.store.AssertExpectations(t)
	s.repo.AssertExpectations(t)
	s.refs.AssertExpectations(t)
	s.sink.AssertExpectations(t)
	s.audit.AssertExpectations(t)
}

func baseDocument() *model.Document {
	doc := &model.Document{
		Name:           "Invoice-2024",
		LifecycleState: model.StateDraft,
	}
	doc.ID = "doc-1"
	typ := &model.DocumentType{Name: "invoice"}
	typ.ID = "t1"
	doc.Type = typ
	ch := &model.Channel{Name: "web"}
	ch.ID = "ch1"
	doc.Channel = ch
	return doc
}

func desiredFrom(doc *model.Document) *model.Document {
	d := &model.Document{
		Name:           doc.Name,
		LifecycleState: doc.LifecycleState,
	}
	typ := &model.DocumentType{}
	typ.ID = doc.Type.ID
	d.Type = typ
	ch := &model.Channel{Name: doc.Channel.Name}
	ch.ID = doc.Channel.ID
	d.Channel = ch
	return d
}

func characteristic(id, name, value string) model.DocumentCharacteristic {
	c := model.DocumentCharacteristic{Name: name, Value: value}
	c.ID = id
	return c
}

func TestDocumentService_Update_Characteristics(t *testing.T) {
	ctx := context.Background()

	existing := baseDocument()
	existing.Characteristics = []model.DocumentCharacteristic{
		characteristic("c1", "color", "red"),
		characteristic("c2", "weight", "10"),
	}

	desired := desiredFrom(existing)
	desired.Characteristics = []model.DocumentCharacteristic{
		characteristic("c1", "color", "blue"),
		characteristic("", "depth", "5"),
	}

	s := newTestService()
	s.repo.On("FindByID", ctx, "doc-1", true).Return(existing, nil)
	s.refs.On("TypeByID", ctx, "t1").Return(existing.Type, nil)
	s.repo.On("Update", ctx, mock.MatchedBy(func(doc *model.Document) bool {
		if len(doc.Characteristics) != 2 {
			return false
		}
		// c1 updated in place: same id, new value. c2 removed. The
		// id-less one created fresh.
		updated := doc.Characteristics[0]
		added := doc.Characteristics[1]
		return updated.ID == "c1" && updated.Value == "blue" &&
			added.ID != "" && added.Name == "depth"
	})).Return(existing, nil)

	res, err := s.svc.Update(ctx, "doc-1", desired)

	assert.NoError(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, res.IgnoredIDs)
	s.assertExpectations(t)
}

func TestDocumentService_Update_UnmatchedIDSurfaced(t *testing.T) {
	ctx := context.Background()

	existing := baseDocument()
	existing.Characteristics = []model.DocumentCharacteristic{
		characteristic("c1", "color", "red"),
	}

	desired := desiredFrom(existing)
	desired.Characteristics = []model.DocumentCharacteristic{
		characteristic("c1", "color", "red"),
		characteristic("ghost", "gone", "x"),
	}

	s := newTestService()
	s.repo.On("FindByID", ctx, "doc-1", true).Return(existing, nil)
	s.refs.On("TypeByID", ctx, "t1").Return(existing.Type, nil)
	s.repo.On("Update", ctx, mock.MatchedBy(func(doc *model.Document) bool {
		return len(doc.Characteristics) == 1
	})).Return(existing, nil)

	res, err := s.svc.Update(ctx, "doc-1", desired)

	assert.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, res.IgnoredIDs["characteristics"])
	s.assertExpectations(t)
}

func TestDocumentService_Update_SpecificationAsymmetry(t *testing.T) {
	ctx := context.Background()

	t.Run("absent payload clears the specification", func(t *testing.T) {
		existing := baseDocument()
		oldSpec := &model.DocumentSpecification{Name: "old"}
		oldSpec.ID = "spec-1"
		existing.Specification = oldSpec

		desired := desiredFrom(existing)

		s := newTestService()
		s.repo.On("FindByID", ctx, "doc-1", true).Return(existing, nil)
		s.refs.On("TypeByID", ctx, "t1").Return(existing.Type, nil)
		s.repo.On("Update", ctx, mock.MatchedBy(func(doc *model.Document) bool {
			return doc.Specification == nil
		})).Return(existing, nil)

		_, err := s.svc.Update(ctx, "doc-1", desired)

		assert.NoError(t, err)
		s.assertExpectations(t)
	})

	t.Run("id-less payload always creates a fresh row", func(t *testing.T) {
		existing := baseDocument()
		oldSpec := &model.DocumentSpecification{Name: "old"}
		oldSpec.ID = "spec-1"
		existing.Specification = oldSpec

		desired := desiredFrom(existing)
		desired.Specification = &model.DocumentSpecification{Name: "ISO-9001"}

		s := newTestService()
		s.repo.On("FindByID", ctx, "doc-1", true).Return(existing, nil)
		s.refs.On("TypeByID", ctx, "t1").Return(existing.Type, nil)
		s.refs.On("CreateSpecification", ctx, mock.MatchedBy(func(spec *model.DocumentSpecification) bool {
			return spec.ID != "" && spec.ID != "spec-1" && spec.Name == "ISO-9001"
		})).Return(&model.DocumentSpecification{Name: "ISO-9001"}, nil)
		s.repo.On("Update", ctx, mock.MatchedBy(func(doc *model.Document) bool {
			return doc.Specification != nil && doc.Specification.ID != "spec-1"
		})).Return(existing, nil)

		_, err := s.svc.Update(ctx, "doc-1", desired)

		assert.NoError(t, err)
		s.assertExpectations(t)
	})
}

func TestDocumentService_Update_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("missing type fails fast", func(t *testing.T) {
		existing := baseDocument()
		desired := desiredFrom(existing)
		desired.Type = nil

		s := newTestService()
		s.repo.On("FindByID", ctx, "doc-1", true).Return(existing, nil)

		_, err := s.svc.Update(ctx, "doc-1", desired)

		assert.ErrorIs(t, err, ErrTypeRequired)
		s.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown type id is a not-found failure", func(t *testing.T) {
		existing := baseDocument()
		desired := desiredFrom(existing)
		desired.Type.ID = "missing"

		s := newTestService()
		s.repo.On("FindByID", ctx, "doc-1", true).Return(existing, nil)
		s.refs.On("TypeByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		_, err := s.svc.Update(ctx, "doc-1", desired)

		assert.ErrorIs(t, err, ErrNotFound)
		var nf *NotFoundError
		assert.ErrorAs(t, err, &nf)
		assert.Equal(t, "missing", nf.ID)
	})

	t.Run("document not found", func(t *testing.T) {
		s := newTestService()
		s.repo.On("FindByID", ctx, "gone", true).Return(nil, sql.ErrNoRows)

		_, err := s.svc.Update(ctx, "gone", &model.Document{})

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("stale aggregate surfaces distinctly", func(t *testing.T) {
		existing := baseDocument()
		desired := desiredFrom(existing)

		s := newTestService()
		s.repo.On("FindByID", ctx, "doc-1", true).Return(existing, nil)
		s.refs.On("TypeByID", ctx, "t1").Return(existing.Type, nil)
		s.repo.On("Update", ctx, mock.Anything).Return(nil, repository.ErrStaleDocument)

		_, err := s.svc.Update(ctx, "doc-1", desired)

		assert.ErrorIs(t, err, repository.ErrStaleDocument)
	})
}

func TestDocumentService_BulkUpdate_PairsByID(t *testing.T) {
	ctx := context.Background()

	existing := baseDocument()
	desired := desiredFrom(existing)
	desired.ID = "doc-1"

	missing := &model.Document{}
	missing.ID = "doc-404"
	missing.Type = desired.Type
	missing.Channel = desired.Channel

	s := newTestService()
	s.repo.On("FindByID", ctx, "doc-1", true).Return(existing, nil)
	s.refs.On("TypeByID", ctx, "t1").Return(existing.Type, nil)
	s.repo.On("Update", ctx, mock.Anything).Return(existing, nil)
	s.repo.On("FindByID", ctx, "doc-404", true).Return(nil, sql.ErrNoRows)

	items, err := s.svc.BulkUpdate(ctx, []*model.Document{desired, missing})

	assert.NoError(t, err)
	assert.Len(t, items, 2)
	assert.NotNil(t, items[0].Result)
	assert.Empty(t, items[0].Error)
	assert.Contains(t, items[1].Error, "not found")
}

func TestDocumentService_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("nil criteria is a validation failure", func(t *testing.T) {
		s := newTestService()

		res, err := s.svc.Search(ctx, nil)

		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrCriteriaRequired)
		s.repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})

	t.Run("query failure is wrapped, not swallowed", func(t *testing.T) {
		s := newTestService()
		s.repo.On("Search", ctx, mock.Anything).Return(nil, errors.New("db fail"))

		res, err := s.svc.Search(ctx, &search.Criteria{})

		assert.Nil(t, res)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrCriteriaRequired)
		assert.Contains(t, err.Error(), "db fail")
	})

	t.Run("happy path", func(t *testing.T) {
		s := newTestService()
		s.repo.On("Search", ctx, mock.MatchedBy(func(q *search.CompiledQuery) bool {
			return len(q.Conditions) == 1 && q.Args[0] == "inv%"
		})).Return(&repository.PageResult[model.Document]{
			Items:         []model.Document{*baseDocument()},
			TotalElements: 1,
			TotalPages:    1,
		}, nil)

		res, err := s.svc.Search(ctx, &search.Criteria{Name: "Inv"})

		assert.NoError(t, err)
		assert.Len(t, res.Items, 1)
		assert.Equal(t, 1, res.TotalElements)
		s.assertExpectations(t)
	})
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("empty id", func(t *testing.T) {
		s := newTestService()
		_, err := s.svc.Get(ctx, "", true)
		assert.ErrorIs(t, err, ErrIDRequired)
	})

	t.Run("not found", func(t *testing.T) {
		s := newTestService()
		s.repo.On("FindByID", ctx, "gone", false).Return(nil, sql.ErrNoRows)

		_, err := s.svc.Get(ctx, "gone", false)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("found", func(t *testing.T) {
		s := newTestService()
		s.repo.On("FindByID", ctx, "doc-1", true).Return(baseDocument(), nil)

		doc, err := s.svc.Get(ctx, "doc-1", true)

		assert.NoError(t, err)
		assert.Equal(t, "doc-1", doc.ID)
	})
}

func TestDocumentService_Delete_OrphanBlobAudited(t *testing.T) {
	ctx := context.Background()

	doc := baseDocument()
	a1 := model.Attachment{Name: "scan", OriginalFilename: "scan.pdf", Uploaded: true}
	a1.ID = "att-1"
	a2 := model.Attachment{Name: "photo", OriginalFilename: "photo.png", Uploaded: true}
	a2.ID = "att-2"
	doc.Attachments = []model.Attachment{a1, a2}

	s := newTestService()
	s.repo.On("FindByID", ctx, "doc-1", true).Return(doc, nil)
	s.store.On("Delete", ctx, "attachments/att-1").Return(errors.New("remove failed"))
	s.store.On("Delete", ctx, "attachments/att-2").Return(nil)
	s.sink.On("RecordOrphanBlob", ctx, "att-1", mock.Anything).Return()
	s.repo.On("Delete", ctx, doc).Return(nil)

	err := s.svc.Delete(ctx, "doc-1")

	// The failed blob for att-1 is audited as an orphan; the document row
	// deletion still proceeds.
	assert.NoError(t, err)
	s.assertExpectations(t)
}
