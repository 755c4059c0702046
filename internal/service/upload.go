package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"docmgr/internal/model"
	"docmgr/internal/storage"
)

// UploadPart is one part of a multipart upload bundle. A part whose form
// field name is ControlPartName carries a comma-separated allow-list of
// attachment ids instead of content.
type UploadPart struct {
	Name     string
	Filename string
	Content  []byte
}

// ControlPartName marks the optional allow-list part.
const ControlPartName = "attachmentIds"

// UploadOutcome is the per-attachment result code of a batch upload.
type UploadOutcome string

const (
	UploadCreated       UploadOutcome = "CREATED"
	UploadInternalError UploadOutcome = "INTERNAL_ERROR"
)

// SizeUnitBytes is the unit recorded for attachment sizes.
const SizeUnitBytes = "bytes"

// UploadAttachments pushes multipart content to the object store, matched to
// the document's attachments by original filename. One attachment failing is
// recorded and audited but never aborts its siblings; the caller inspects
// the returned outcome map for partial success.
func (s *documentService) UploadAttachments(ctx context.Context, docID string, parts []UploadPart) (map[string]UploadOutcome, error) {
	if docID == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, docID, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("document", docID)
		}
		return nil, fmt.Errorf("find document: %w", err)
	}

	allowed, contentParts := splitControlPart(parts)
	working := workingSet(doc.Attachments, allowed)

	outcomes := make(map[string]UploadOutcome, len(working))
	for _, att := range working {
		part, ok := matchPart(contentParts, att.OriginalFilename)
		if !ok {
			// No part for this attachment: skipped silently, no map
			// entry.
			continue
		}
		key := outcomeKey(att)
		if err := s.pushAttachment(ctx, doc, att, part); err != nil {
			outcomes[key] = UploadInternalError
			s.audit.RecordUploadFailure(ctx, doc, att, err)
			continue
		}
		outcomes[key] = UploadCreated
	}
	return outcomes, nil
}

// pushAttachment stores one part's bytes and persists the attachment's
// storage metadata after the confirmed upload.
func (s *documentService) pushAttachment(ctx context.Context, doc *model.Document, att *model.Attachment, part UploadPart) error {
	contentType := http.DetectContentType(part.Content)
	key := attachmentKey(att.ID)

	_, err := s.store.Put(ctx, key, bytes.NewReader(part.Content), storage.PutObjectOptions{
		Size:        int64(len(part.Content)),
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": att.OriginalFilename,
		},
	})
	if err != nil {
		return fmt.Errorf("push to object store: %w", err)
	}

	att.MarkUploaded(int64(len(part.Content)), SizeUnitBytes, s.store.Backend(), s.store.ObjectURL(key))
	att.Touch(actorOf(""), s.now().UTC())
	if _, err := s.repo.UpdateAttachment(ctx, doc.ID, att); err != nil {
		return fmt.Errorf("persist upload status: %w", err)
	}
	return nil
}

// DeleteAttachmentBlob removes the blob and clears the attachment's storage
// fields; the record itself persists. An object-store failure here escalates,
// unlike the whole-document cascade.
func (s *documentService) DeleteAttachmentBlob(ctx context.Context, docID, attID string) error {
	doc, att, err := s.findAttachment(ctx, docID, attID)
	if err != nil {
		return err
	}
	if att.Uploaded {
		if err := s.store.Delete(ctx, attachmentKey(att.ID)); err != nil {
			return fmt.Errorf("delete blob: %w", err)
		}
	}
	att.ClearStorage()
	att.Touch(actorOf(""), s.now().UTC())
	if _, err := s.repo.UpdateAttachment(ctx, doc.ID, att); err != nil {
		return fmt.Errorf("persist storage reset: %w", err)
	}
	return nil
}

// DeleteAttachments removes attachment rows after their blobs. Each id must
// exist; blob-removal failures escalate in this path.
func (s *documentService) DeleteAttachments(ctx context.Context, docID string, ids []string) error {
	if docID == "" {
		return ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, docID, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("document", docID)
		}
		return fmt.Errorf("find document: %w", err)
	}

	byID := make(map[string]*model.Attachment, len(doc.Attachments))
	for i := range doc.Attachments {
		byID[doc.Attachments[i].ID] = &doc.Attachments[i]
	}

	for _, id := range ids {
		att, ok := byID[id]
		if !ok {
			return notFound("attachment", id)
		}
		if att.Uploaded {
			if err := s.store.Delete(ctx, attachmentKey(att.ID)); err != nil {
				return fmt.Errorf("delete blob: %w", err)
			}
		}
		if err := s.repo.DeleteAttachment(ctx, docID, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFound("attachment", id)
			}
			return fmt.Errorf("delete attachment row: %w", err)
		}
	}
	return nil
}

// DownloadAttachment streams an attachment's blob content. Object-store
// failures propagate to the caller in this path.
func (s *documentService) DownloadAttachment(ctx context.Context, docID, attID string) (io.ReadCloser, *model.Attachment, error) {
	_, att, err := s.findAttachment(ctx, docID, attID)
	if err != nil {
		return nil, nil, err
	}
	if !att.Uploaded {
		return nil, nil, notFound("attachment content", attID)
	}
	rc, _, err := s.store.Get(ctx, attachmentKey(att.ID))
	if err != nil {
		return nil, nil, fmt.Errorf("get blob: %w", err)
	}
	return rc, att, nil
}

func (s *documentService) findAttachment(ctx context.Context, docID, attID string) (*model.Document, *model.Attachment, error) {
	if docID == "" || attID == "" {
		return nil, nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, docID, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, notFound("document", docID)
		}
		return nil, nil, fmt.Errorf("find document: %w", err)
	}
	for i := range doc.Attachments {
		if doc.Attachments[i].ID == attID {
			return doc, &doc.Attachments[i], nil
		}
	}
	return nil, nil, notFound("attachment", attID)
}

// splitControlPart extracts the allow-list from the control part, when
// present, and returns the remaining content parts.
func splitControlPart(parts []UploadPart) (map[string]bool, []UploadPart) {
	var allowed map[string]bool
	content := make([]UploadPart, 0, len(parts))
	for _, p := range parts {
		if p.Name != ControlPartName {
			content = append(content, p)
			continue
		}
		if allowed == nil {
			allowed = make(map[string]bool)
		}
		for _, id := range strings.Split(string(p.Content), ",") {
			if id = strings.TrimSpace(id); id != "" {
				allowed[id] = true
			}
		}
	}
	return allowed, content
}

// workingSet restricts the document's attachments to the allow-list when one
// was sent; otherwise all attachments are candidates.
func workingSet(atts []model.Attachment, allowed map[string]bool) []*model.Attachment {
	out := make([]*model.Attachment, 0, len(atts))
	for i := range atts {
		if allowed == nil || allowed[atts[i].ID] {
			out = append(out, &atts[i])
		}
	}
	return out
}

// matchPart finds the first part whose declared filename equals the
// attachment's stored filename. First match wins.
func matchPart(parts []UploadPart, filename string) (UploadPart, bool) {
	for _, p := range parts {
		if p.Filename == filename {
			return p, true
		}
	}
	return UploadPart{}, false
}

// outcomeKey is the human-readable map key reported per attachment.
func outcomeKey(att *model.Attachment) string {
	return att.ID + "/" + att.Name
}
