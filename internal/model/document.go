package model

// LifecycleState is the lifecycle state of a document.
type LifecycleState string

const (
	StateDraft    LifecycleState = "DRAFT"
	StateReview   LifecycleState = "REVIEW"
	StateReleased LifecycleState = "RELEASED"
	StateArchived LifecycleState = "ARCHIVED"
)

// Valid reports whether s is one of the known lifecycle states.
func (s LifecycleState) Valid() bool {
	switch s {
	case StateDraft, StateReview, StateReleased, StateArchived:
		return true
	}
	return false
}

// Document is the aggregate root. It owns its attachments, relationships,
// characteristics, related parties and category links; type, specification,
// channel and related object are singleton references with independent
// lifecycles (type and channel mandatory, the other two optional).
type Document struct {
	Trace
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	LifecycleState LifecycleState `json:"lifecycle_state"`
	Version        string         `json:"version"`
	Tags           []string       `json:"tags"`

	// ModifiedCount backs optimistic concurrency: every successful update
	// compares and increments it; a mismatch means a concurrent writer won.
	ModifiedCount int64 `json:"modified_count"`

	Type          *DocumentType          `json:"type"`
	Specification *DocumentSpecification `json:"specification,omitempty"`
	Channel       *Channel               `json:"channel"`
	RelatedObject *RelatedObjectRef      `json:"related_object,omitempty"`

	Attachments     []Attachment             `json:"attachments,omitempty"`
	Relationships   []DocumentRelationship   `json:"relationships,omitempty"`
	Characteristics []DocumentCharacteristic `json:"characteristics,omitempty"`
	RelatedParties  []RelatedPartyRef        `json:"related_parties,omitempty"`
	Categories      []Category               `json:"categories,omitempty"`
}

// DocumentType classifies a document. Referential: looked up by id, shared
// across documents, never created as a side effect of a document write.
type DocumentType struct {
	Trace
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DocumentSpecification is an optional reference describing the standard a
// document conforms to. During a document update it is only ever created
// fresh or cleared, never updated in place.
type DocumentSpecification struct {
	Trace
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// SupportedMimeType is a referential allow-list entry for attachment content
// types.
type SupportedMimeType struct {
	Trace
	Name string `json:"name"`
}

// Channel identifies the distribution channel a document belongs to.
// Referential: shared by id across documents.
type Channel struct {
	Trace
	Name string `json:"name"`
}

// Category is a referential grouping linked many-to-many to documents.
type Category struct {
	Trace
	Name string `json:"name"`
}

// RelatedPartyRef is an owned child pointing at a party (user, organization)
// involved with the document.
type RelatedPartyRef struct {
	Trace
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
	Href string `json:"href,omitempty"`
}

// RelatedObjectRef is an optional singleton pointing at an external business
// object the document is about.
type RelatedObjectRef struct {
	Trace
	Involvement string `json:"involvement,omitempty"`
	RefID       string `json:"ref_id"`
	RefType     string `json:"ref_type,omitempty"`
}

// DocumentRelationship is an owned child linking this document to another.
type DocumentRelationship struct {
	Trace
	RelationshipType string `json:"relationship_type"`
	TargetDocumentID string `json:"target_document_id"`
}

// DocumentCharacteristic is an owned name/value pair.
type DocumentCharacteristic struct {
	Trace
	Name  string `json:"name"`
	Value string `json:"value"`
}
