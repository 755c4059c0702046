package service

import (
	"errors"
	"fmt"
)

// Validation errors fail fast before touching storage; they are distinct from
// not-found and from data-access failures.
var (
	ErrIDRequired            = errors.New("id is required")
	ErrCriteriaRequired      = errors.New("search criteria is required")
	ErrTypeRequired          = errors.New("document type is required")
	ErrChannelRequired       = errors.New("document channel is required")
	ErrInvalidLifecycleState = errors.New("invalid lifecycle state")
)

// ErrNotFound is the class sentinel; use errors.Is(err, ErrNotFound) to test.
var ErrNotFound = errors.New("not found")

// NotFoundError names the missing entity and its id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}
