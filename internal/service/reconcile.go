package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docmgr/internal/model"
	"docmgr/internal/reconcile"
)

// reconcileAggregate converges existing toward desired in memory. Root
// fields, singleton relations and every owned collection are merged; the
// returned map lists incoming child ids that matched no persisted child,
// keyed by collection.
func (s *documentService) reconcileAggregate(ctx context.Context, existing, desired *model.Document) (map[string][]string, error) {
	if desired == nil {
		return nil, ErrIDRequired
	}
	now := s.now().UTC()
	actor := actorOf(desired.UpdatedBy)

	existing.Name = desired.Name
	existing.Description = desired.Description
	existing.Version = desired.Version
	existing.Tags = desired.Tags
	if desired.LifecycleState != "" {
		if !desired.LifecycleState.Valid() {
			return nil, ErrInvalidLifecycleState
		}
		existing.LifecycleState = desired.LifecycleState
	}
	existing.Touch(actor, now)

	if err := s.reconcileType(ctx, existing, desired); err != nil {
		return nil, err
	}
	if err := s.reconcileSpecification(ctx, existing, desired, actor, now); err != nil {
		return nil, err
	}
	if err := reconcileChannel(existing, desired, actor, now); err != nil {
		return nil, err
	}
	reconcileRelatedObject(existing, desired, actor, now)

	ignored := make(map[string][]string)

	if ids, err := s.reconcileAttachments(ctx, existing, desired, actor, now); err != nil {
		return nil, err
	} else if len(ids) > 0 {
		ignored["attachments"] = ids
	}

	rels := reconcile.Collection(existing.Relationships, desired.Relationships,
		func(r model.DocumentRelationship) string { return r.ID },
		func(p, in model.DocumentRelationship) model.DocumentRelationship {
			p.RelationshipType = in.RelationshipType
			p.TargetDocumentID = in.TargetDocumentID
			p.Touch(actor, now)
			return p
		})
	existing.Relationships = rels.Kept
	for _, in := range rels.Added {
		in.Trace = model.NewTrace(uuid.NewString(), actor, now)
		existing.Relationships = append(existing.Relationships, in)
	}
	if len(rels.IgnoredIDs) > 0 {
		ignored["relationships"] = rels.IgnoredIDs
	}

	chars := reconcile.Collection(existing.Characteristics, desired.Characteristics,
		func(c model.DocumentCharacteristic) string { return c.ID },
		func(p, in model.DocumentCharacteristic) model.DocumentCharacteristic {
			p.Name = in.Name
			p.Value = in.Value
			p.Touch(actor, now)
			return p
		})
	existing.Characteristics = chars.Kept
	for _, in := range chars.Added {
		in.Trace = model.NewTrace(uuid.NewString(), actor, now)
		existing.Characteristics = append(existing.Characteristics, in)
	}
	if len(chars.IgnoredIDs) > 0 {
		ignored["characteristics"] = chars.IgnoredIDs
	}

	parties := reconcile.Collection(existing.RelatedParties, desired.RelatedParties,
		func(p model.RelatedPartyRef) string { return p.ID },
		func(p, in model.RelatedPartyRef) model.RelatedPartyRef {
			p.Name = in.Name
			p.Role = in.Role
			p.Href = in.Href
			p.Touch(actor, now)
			return p
		})
	existing.RelatedParties = parties.Kept
	for _, in := range parties.Added {
		in.Trace = model.NewTrace(uuid.NewString(), actor, now)
		existing.RelatedParties = append(existing.RelatedParties, in)
	}
	if len(parties.IgnoredIDs) > 0 {
		ignored["related_parties"] = parties.IgnoredIDs
	}

	reconcileCategories(existing, desired, actor, now)

	if len(ignored) == 0 {
		return nil, nil
	}
	return ignored, nil
}

// reconcileType enforces the mandatory type singleton: resolved by lookup, a
// missing id aborts the whole operation.
func (s *documentService) reconcileType(ctx context.Context, existing, desired *model.Document) error {
	if desired.Type == nil || desired.Type.ID == "" {
		return ErrTypeRequired
	}
	typ, err := s.refs.TypeByID(ctx, desired.Type.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("document type", desired.Type.ID)
		}
		return fmt.Errorf("resolve type: %w", err)
	}
	existing.Type = typ
	return nil
}

// reconcileSpecification preserves the source asymmetry: an absent payload
// clears the specification; a payload without id always creates a fresh row;
// specifications are never updated in place during a document update.
func (s *documentService) reconcileSpecification(ctx context.Context, existing, desired *model.Document, actor string, now time.Time) error {
	if desired.Specification == nil {
		existing.Specification = nil
		return nil
	}
	if desired.Specification.ID != "" {
		existing.Specification = desired.Specification
		return nil
	}
	fresh := &model.DocumentSpecification{
		Name:    desired.Specification.Name,
		Version: desired.Specification.Version,
	}
	fresh.Trace = model.NewTrace(uuid.NewString(), actor, now)
	if _, err := s.refs.CreateSpecification(ctx, fresh); err != nil {
		return fmt.Errorf("create specification: %w", err)
	}
	existing.Specification = fresh
	return nil
}

// reconcileChannel applies the singleton rule to the mandatory channel: it
// can be replaced or updated, never cleared.
func reconcileChannel(existing, desired *model.Document, actor string, now time.Time) error {
	if desired.Channel == nil {
		return ErrChannelRequired
	}
	ch, _ := reconcile.Singleton(existing.Channel, desired.Channel,
		func(c *model.Channel) string { return c.ID },
		func(p, in *model.Channel) *model.Channel {
			p.Name = in.Name
			p.Touch(actor, now)
			return p
		},
		func(in *model.Channel) *model.Channel {
			fresh := &model.Channel{Name: in.Name}
			fresh.Trace = model.NewTrace(uuid.NewString(), actor, now)
			return fresh
		})
	existing.Channel = ch
	return nil
}

func reconcileRelatedObject(existing, desired *model.Document, actor string, now time.Time) {
	obj, _ := reconcile.Singleton(existing.RelatedObject, desired.RelatedObject,
		func(o *model.RelatedObjectRef) string { return o.ID },
		func(p, in *model.RelatedObjectRef) *model.RelatedObjectRef {
			p.Involvement = in.Involvement
			p.RefID = in.RefID
			p.RefType = in.RefType
			p.Touch(actor, now)
			return p
		},
		func(in *model.RelatedObjectRef) *model.RelatedObjectRef {
			fresh := &model.RelatedObjectRef{
				Involvement: in.Involvement,
				RefID:       in.RefID,
				RefType:     in.RefType,
			}
			fresh.Trace = model.NewTrace(uuid.NewString(), actor, now)
			return fresh
		})
	existing.RelatedObject = obj
}

// reconcileAttachments merges metadata only; storage fields and upload
// status belong to the upload pipeline and survive an update untouched. New
// attachments resolve their declared mime type and start not-yet-uploaded.
func (s *documentService) reconcileAttachments(ctx context.Context, existing, desired *model.Document, actor string, now time.Time) ([]string, error) {
	out := reconcile.Collection(existing.Attachments, desired.Attachments,
		func(a model.Attachment) string { return a.ID },
		func(p, in model.Attachment) model.Attachment {
			p.Name = in.Name
			p.Description = in.Description
			p.MimeTypeID = in.MimeTypeID
			p.OriginalFilename = in.OriginalFilename
			p.Touch(actor, now)
			return p
		})
	existing.Attachments = out.Kept
	for _, in := range out.Added {
		if _, err := s.resolveMimeType(ctx, in.MimeTypeID); err != nil {
			return nil, err
		}
		in.Trace = model.NewTrace(uuid.NewString(), actor, now)
		in.ClearStorage()
		existing.Attachments = append(existing.Attachments, in)
	}
	return out.IgnoredIDs, nil
}

// reconcileCategories replaces the referential link set wholesale: category
// rows are shared and merged by id, so an incoming id that is not currently
// linked is a new link, not an ignored stray.
func reconcileCategories(existing, desired *model.Document, actor string, now time.Time) {
	cats := make([]model.Category, 0, len(desired.Categories))
	byID := make(map[string]model.Category, len(existing.Categories))
	for _, c := range existing.Categories {
		byID[c.ID] = c
	}
	for _, in := range desired.Categories {
		if in.ID == "" {
			in.Trace = model.NewTrace(uuid.NewString(), actor, now)
			cats = append(cats, in)
			continue
		}
		if cur, ok := byID[in.ID]; ok {
			cur.Name = in.Name
			cur.Touch(actor, now)
			cats = append(cats, cur)
			continue
		}
		cats = append(cats, in)
	}
	existing.Categories = cats
}
