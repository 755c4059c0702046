package model

import "time"

// Attachment is owned by exactly one document. Size, size unit, storage
// backend and external URL stay zero until Uploaded is true; deleting the
// backing blob clears them again while the row itself persists.
type Attachment struct {
	Trace
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	MimeTypeID       string `json:"mime_type_id"`
	OriginalFilename string `json:"original_filename"`

	// Payload is the transient upload content carried on the way in. Never
	// persisted and never serialized back out.
	Payload []byte `json:"-"`

	Size           int64  `json:"size,omitempty"`
	SizeUnit       string `json:"size_unit,omitempty"`
	StorageBackend string `json:"storage_backend,omitempty"`
	ExternalURL    string `json:"external_url,omitempty"`
	Uploaded       bool   `json:"uploaded"`
}

// MarkUploaded records a confirmed successful store of the attachment's blob.
func (a *Attachment) MarkUploaded(size int64, unit, backend, url string) {
	a.Size = size
	a.SizeUnit = unit
	a.StorageBackend = backend
	a.ExternalURL = url
	a.Uploaded = true
}

// ClearStorage resets the storage metadata after the backing blob was
// removed. The attachment record itself stays.
func (a *Attachment) ClearStorage() {
	a.Size = 0
	a.SizeUnit = ""
	a.StorageBackend = ""
	a.ExternalURL = ""
	a.Uploaded = false
}

// StorageUploadAudit is an immutable flat snapshot of a document/attachment
// pairing taken at the moment an upload to the object store fails. It copies
// names and ids instead of referencing live rows so it stays meaningful after
// the source rows change or disappear.
type StorageUploadAudit struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"document_id"`
	DocumentName   string    `json:"document_name"`
	AttachmentID   string    `json:"attachment_id"`
	AttachmentName string    `json:"attachment_name"`
	Filename       string    `json:"filename"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrphanBlobAudit records an attachment id whose blob could not be removed
// from the object store even though its database row is gone. Input for later
// manual reconciliation.
type OrphanBlobAudit struct {
	ID           string    `json:"id"`
	AttachmentID string    `json:"attachment_id"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}
