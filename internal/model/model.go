package model

// Package model contains the document aggregate and its supporting entities.
// Pure domain structs with no database-specific dependencies or tags; they are
// shared across layers (HTTP, service, repository, storage) without coupling
// to persistence.

import "time"

// Trace carries the generic traceable identity every entity has: an opaque id
// plus creation/modification audit fields.
type Trace struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

// NewTrace stamps a fresh identity for a newly created entity.
func NewTrace(id, actor string, now time.Time) Trace {
	return Trace{
		ID:        id,
		CreatedAt: now,
		CreatedBy: actor,
		UpdatedAt: now,
		UpdatedBy: actor,
	}
}

// Touch updates the modification audit fields in place.
func (t *Trace) Touch(actor string, now time.Time) {
	t.UpdatedAt = now
	t.UpdatedBy = actor
}
