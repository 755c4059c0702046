package reconcile

// Package reconcile converges a persisted collection of owned children toward
// an incoming desired-state payload. One generic routine serves every owned
// collection of the document aggregate; the per-entity field merge is passed
// in by the caller.

// Outcome is the delta produced by reconciling one owned collection.
type Outcome[T any] struct {
	// Kept holds the persisted items that were re-submitted, with the
	// incoming fields merged in and identity preserved.
	Kept []T
	// Added holds the incoming items that carried no id, verbatim; the
	// caller constructs the new entities (ids, audit stamps, lookups).
	Added []T
	// Removed holds the persisted items absent from the incoming set.
	// Anything not re-submitted is considered deleted.
	Removed []T
	// IgnoredIDs holds incoming ids that matched no persisted item. They
	// neither update nor insert anything; surfaced so callers can detect a
	// stale or raced payload instead of it vanishing silently.
	IgnoredIDs []string
}

// Collection reconciles existing against incoming, keyed by id. merge is
// applied to each (persisted, incoming) pair and returns the updated
// persisted item.
func Collection[T any](existing, incoming []T, id func(T) string, merge func(persisted, incoming T) T) Outcome[T] {
	var out Outcome[T]

	byID := make(map[string]T, len(incoming))
	for _, in := range incoming {
		if k := id(in); k == "" {
			out.Added = append(out.Added, in)
		} else {
			byID[k] = in
		}
	}

	matched := make(map[string]bool, len(existing))
	for _, ex := range existing {
		k := id(ex)
		in, ok := byID[k]
		if !ok {
			out.Removed = append(out.Removed, ex)
			continue
		}
		matched[k] = true
		out.Kept = append(out.Kept, merge(ex, in))
	}

	for _, in := range incoming {
		if k := id(in); k != "" && !matched[k] {
			out.IgnoredIDs = append(out.IgnoredIDs, k)
		}
	}

	return out
}

// SingletonAction says what Singleton decided for a singleton relation.
type SingletonAction int

const (
	// SingletonCleared means the incoming reference was absent; the
	// persisted singleton is dropped.
	SingletonCleared SingletonAction = iota
	// SingletonCreated means the incoming reference carried no id; a brand
	// new child replaces the singleton.
	SingletonCreated
	// SingletonUpdated means the incoming reference carried an id; the
	// persisted singleton is updated in place.
	SingletonUpdated
)

// Singleton applies the singleton-relation rule. A nil incoming reference
// clears; an id-less one replaces with a fresh child built by create; one
// with an id updates the persisted value in place via merge. When a payload
// carries an id but nothing is persisted, the reference is rebuilt fresh.
func Singleton[T any](existing, incoming *T, id func(*T) string, merge func(persisted, incoming *T) *T, create func(incoming *T) *T) (*T, SingletonAction) {
	if incoming == nil {
		return nil, SingletonCleared
	}
	if id(incoming) == "" || existing == nil {
		return create(incoming), SingletonCreated
	}
	return merge(existing, incoming), SingletonUpdated
}
