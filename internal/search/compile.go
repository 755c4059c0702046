package search

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCriteriaRequired is returned for a nil criteria. A programming error on
// the caller's side, distinct from "no results" and from data-access
// failures.
var ErrCriteriaRequired = errors.New("search criteria is required")

// CompiledQuery is a conjunction of parameterized SQL filter fragments plus
// the fixed ordering and normalized paging. Fragments are written against the
// aliases the repository uses: d for documents, c for channels, r for the
// related-object row.
type CompiledQuery struct {
	Conditions []string
	Args       []any
	OrderBy    string
	Limit      int
	Offset     int

	// NeedsChannelJoin and NeedsRelatedObjectJoin tell the executor which
	// joined tables the conditions reference.
	NeedsChannelJoin       bool
	NeedsRelatedObjectJoin bool
}

// WhereClause renders the conjunction, or an empty string when no filter
// applies.
func (q *CompiledQuery) WhereClause() string {
	if len(q.Conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(q.Conditions, " AND ")
}

// Compile turns a criteria into a compiled query. Each filter is included
// only when its criterion is present; ordering is always by descending
// modification date.
func Compile(c *Criteria, lim Limits) (*CompiledQuery, error) {
	if c == nil {
		return nil, ErrCriteriaRequired
	}

	q := &CompiledQuery{OrderBy: "ORDER BY d.updated_at DESC"}

	if c.ID != "" {
		q.add("d.id = %s", c.ID)
	}
	if c.Name != "" {
		q.add("lower(d.name) LIKE %s", strings.ToLower(c.Name)+"%")
	}
	if len(c.LifecycleStates) > 0 {
		vals := make([]any, len(c.LifecycleStates))
		for i, s := range c.LifecycleStates {
			vals[i] = string(s)
		}
		q.addIn("d.lifecycle_state", vals)
	}
	if len(c.TypeIDs) > 0 {
		vals := make([]any, len(c.TypeIDs))
		for i, id := range c.TypeIDs {
			vals[i] = id
		}
		q.addIn("d.type_id", vals)
	}
	if c.ChannelName != "" {
		q.add("lower(c.name) = %s", strings.ToLower(c.ChannelName))
		q.NeedsChannelJoin = true
	}
	if c.CreatedAfter != nil {
		q.add("d.created_at >= %s", *c.CreatedAfter)
	}
	if c.CreatedBefore != nil {
		q.add("d.created_at <= %s", *c.CreatedBefore)
	}
	if c.CreatedBy != "" {
		q.add("d.created_by = %s", c.CreatedBy)
	}
	if c.RelatedObjectID != "" {
		q.add("lower(r.ref_id) LIKE %s", strings.ToLower(c.RelatedObjectID)+"%")
		q.NeedsRelatedObjectJoin = true
	}
	if c.RelatedObjectType != "" {
		q.add("lower(r.ref_type) LIKE %s", strings.ToLower(c.RelatedObjectType)+"%")
		q.NeedsRelatedObjectJoin = true
	}

	size := c.Size
	if size <= 0 {
		size = lim.DefaultPageSize
	}
	if lim.MaxPageSize > 0 && size > lim.MaxPageSize {
		size = lim.MaxPageSize
	}
	page := c.Page
	if page < 0 {
		page = 0
	}
	q.Limit = size
	q.Offset = page * size

	return q, nil
}

// add appends one single-placeholder condition. The format verb is replaced
// with the next positional placeholder.
func (q *CompiledQuery) add(format string, arg any) {
	q.Args = append(q.Args, arg)
	q.Conditions = append(q.Conditions, fmt.Sprintf(format, placeholder(len(q.Args))))
}

// addIn appends a set-membership condition with one placeholder per value.
func (q *CompiledQuery) addIn(column string, vals []any) {
	ph := make([]string, len(vals))
	for i, v := range vals {
		q.Args = append(q.Args, v)
		ph[i] = placeholder(len(q.Args))
	}
	q.Conditions = append(q.Conditions, fmt.Sprintf("%s IN (%s)", column, strings.Join(ph, ", ")))
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
