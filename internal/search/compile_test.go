package search

import (
	"testing"
	"time"

	"docmgr/internal/model"

	"github.com/stretchr/testify/assert"
)

var testLimits = Limits{DefaultPageSize: 20, MaxPageSize: 200}

func TestCompile_NilCriteria(t *testing.T) {
	q, err := Compile(nil, testLimits)

	assert.Nil(t, q)
	assert.ErrorIs(t, err, ErrCriteriaRequired)
}

func TestCompile_EmptyCriteria(t *testing.T) {
	q, err := Compile(&Criteria{}, testLimits)

	assert.NoError(t, err)
	assert.Empty(t, q.Conditions)
	assert.Empty(t, q.Args)
	assert.Equal(t, "", q.WhereClause())
	assert.Equal(t, "ORDER BY d.updated_at DESC", q.OrderBy)
	assert.Equal(t, 20, q.Limit)
	assert.Equal(t, 0, q.Offset)
	assert.False(t, q.NeedsChannelJoin)
	assert.False(t, q.NeedsRelatedObjectJoin)
}

func TestCompile_NamePrefixIsCaseInsensitive(t *testing.T) {
	q, err := Compile(&Criteria{Name: "Inv"}, testLimits)

	assert.NoError(t, err)
	assert.Equal(t, []string{"lower(d.name) LIKE $1"}, q.Conditions)
	assert.Equal(t, []any{"inv%"}, q.Args)
}

func TestCompile_SetMembership(t *testing.T) {
	q, err := Compile(&Criteria{
		LifecycleStates: []model.LifecycleState{model.StateReleased, model.StateArchived},
		TypeIDs:         []string{"t1"},
	}, testLimits)

	assert.NoError(t, err)
	assert.Equal(t, []string{
		"d.lifecycle_state IN ($1, $2)",
		"d.type_id IN ($3)",
	}, q.Conditions)
	assert.Equal(t, []any{"RELEASED", "ARCHIVED", "t1"}, q.Args)
	assert.Equal(t, "WHERE d.lifecycle_state IN ($1, $2) AND d.type_id IN ($3)", q.WhereClause())
}

func TestCompile_EqualityFilters(t *testing.T) {
	q, err := Compile(&Criteria{ID: "Doc-1", CreatedBy: "Alice"}, testLimits)

	assert.NoError(t, err)
	// Id and creator are case-sensitive equality, no lower().
	assert.Equal(t, []string{"d.id = $1", "d.created_by = $2"}, q.Conditions)
	assert.Equal(t, []any{"Doc-1", "Alice"}, q.Args)
}

func TestCompile_ChannelAndRelatedObject(t *testing.T) {
	q, err := Compile(&Criteria{
		ChannelName:       "Web",
		RelatedObjectID:   "ORD",
		RelatedObjectType: "Ord",
	}, testLimits)

	assert.NoError(t, err)
	assert.True(t, q.NeedsChannelJoin)
	assert.True(t, q.NeedsRelatedObjectJoin)
	assert.Contains(t, q.Conditions, "lower(c.name) = $1")
	assert.Contains(t, q.Conditions, "lower(r.ref_id) LIKE $2")
	assert.Contains(t, q.Conditions, "lower(r.ref_type) LIKE $3")
	assert.Equal(t, []any{"web", "ord%", "ord%"}, q.Args)
}

func TestCompile_DateRangeInclusive(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	q, err := Compile(&Criteria{CreatedAfter: &from, CreatedBefore: &to}, testLimits)

	assert.NoError(t, err)
	assert.Equal(t, []string{"d.created_at >= $1", "d.created_at <= $2"}, q.Conditions)
	assert.Equal(t, []any{from, to}, q.Args)
}

func TestCompile_Paging(t *testing.T) {
	t.Run("zero-based page offset", func(t *testing.T) {
		q, err := Compile(&Criteria{Page: 2, Size: 50}, testLimits)
		assert.NoError(t, err)
		assert.Equal(t, 50, q.Limit)
		assert.Equal(t, 100, q.Offset)
	})

	t.Run("size above maximum is clamped", func(t *testing.T) {
		q, err := Compile(&Criteria{Size: 10_000}, testLimits)
		assert.NoError(t, err)
		assert.Equal(t, 200, q.Limit)
	})

	t.Run("negative page treated as first page", func(t *testing.T) {
		q, err := Compile(&Criteria{Page: -3, Size: 10}, testLimits)
		assert.NoError(t, err)
		assert.Equal(t, 0, q.Offset)
	})
}
