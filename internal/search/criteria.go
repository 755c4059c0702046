package search

import (
	"time"

	"docmgr/internal/model"
)

// Criteria is the value object describing a document search request. Empty
// fields mean "no filter"; they are omitted from the compiled query, never
// treated as matching the zero value.
type Criteria struct {
	ID                string                 `json:"id,omitempty"`
	Name              string                 `json:"name,omitempty"`
	LifecycleStates   []model.LifecycleState `json:"lifecycle_states,omitempty"`
	TypeIDs           []string               `json:"type_ids,omitempty"`
	ChannelName       string                 `json:"channel_name,omitempty"`
	CreatedAfter      *time.Time             `json:"created_after,omitempty"`
	CreatedBefore     *time.Time             `json:"created_before,omitempty"`
	CreatedBy         string                 `json:"created_by,omitempty"`
	RelatedObjectID   string                 `json:"related_object_id,omitempty"`
	RelatedObjectType string                 `json:"related_object_type,omitempty"`

	// Page is zero-based. Size above the configured maximum is clamped;
	// zero or negative falls back to the configured default.
	Page int `json:"page"`
	Size int `json:"size"`
}

// Limits bounds pagination. Threaded in from configuration so the page-size
// cap stays tunable rather than a hard-coded business rule.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}
