// Package service holds the application services: timeline aggregation,
// co-pilot orchestration, proposal synthesis, marketing generation and the
// timeline watcher. Services depend only on ports and are wired in main.
package service

import (
	"context"
	"sort"

	"github.com/gooseworks/goose-copilot/internal/domain"
	"github.com/gooseworks/goose-copilot/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var timelineTracer = otel.Tracer("service/timeline")

// TimelineService aggregates interactions into per-entity timelines and
// derives activity fields on deals.
type TimelineService struct {
	store  port.EntityStore
	logger *zap.Logger
}

// NewTimelineService creates the timeline service.
func NewTimelineService(store port.EntityStore, logger *zap.Logger) *TimelineService {
	return &TimelineService{store: store, logger: logger}
}

// LinkedInteractionIDs resolves the interaction ids in scope for a filter.
// A filter can carry several facets (a deal view also knows its company);
// only the most specific one is consulted: deal, then contact, then company.
// Facets are never unioned. An empty result is a valid answer, not an error.
func (t *TimelineService) LinkedInteractionIDs(ctx context.Context, filter domain.TimelineFilter) (map[string]bool, error) {
	links, err := t.store.ListLinks(ctx)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool)
	switch {
	case filter.DealID != "":
		for _, l := range links {
			if l.DealID == filter.DealID {
				ids[l.InteractionID] = true
			}
		}
	case filter.ContactID != "":
		for _, l := range links {
			if l.ContactID == filter.ContactID {
				ids[l.InteractionID] = true
			}
		}
	case filter.CompanyID != "":
		for _, l := range links {
			if l.CompanyID == filter.CompanyID {
				ids[l.InteractionID] = true
			}
		}
	}
	return ids, nil
}

// Timeline returns the interactions in scope for the filter, newest first.
// The sort is stable so interactions sharing a timestamp keep their
// insertion order. Each interaction is decorated with an author resolved
// from its link's contact; interactions with no linked contact get the
// System sentinel. Decoration is recomputed on every call so a contact
// rename is reflected immediately.
func (t *TimelineService) Timeline(ctx context.Context, filter domain.TimelineFilter) ([]domain.Interaction, error) {
	ctx, span := timelineTracer.Start(ctx, "Timeline.Timeline")
	defer span.End()

	ids, err := t.LinkedInteractionIDs(ctx, filter)
	if err != nil {
		return nil, err
	}
	if filter.IsZero() {
		ids = nil // unscoped: everything
	}

	interactions, err := t.store.ListInteractions(ctx, ids)
	if err != nil {
		return nil, err
	}

	if err := t.decorateAuthors(ctx, interactions); err != nil {
		return nil, err
	}

	sort.SliceStable(interactions, func(i, j int) bool {
		return interactions[i].Timestamp.After(interactions[j].Timestamp)
	})
	return interactions, nil
}

// Thread returns the given interactions decorated with authors and ordered
// newest first. Ticket views pass their thread ids here; a thread is not a
// link facet, so the scoped filter path does not apply.
func (t *TimelineService) Thread(ctx context.Context, interactionIDs []string) ([]domain.Interaction, error) {
	if len(interactionIDs) == 0 {
		return nil, nil
	}
	ids := make(map[string]bool, len(interactionIDs))
	for _, id := range interactionIDs {
		ids[id] = true
	}

	interactions, err := t.store.ListInteractions(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := t.decorateAuthors(ctx, interactions); err != nil {
		return nil, err
	}

	sort.SliceStable(interactions, func(i, j int) bool {
		return interactions[i].Timestamp.After(interactions[j].Timestamp)
	})
	return interactions, nil
}

// decorateAuthors resolves each interaction's author from its link's
// contact. The author is presentation state, never persisted.
func (t *TimelineService) decorateAuthors(ctx context.Context, interactions []domain.Interaction) error {
	links, err := t.store.ListLinks(ctx)
	if err != nil {
		return err
	}
	contactByInteraction := make(map[string]string, len(links))
	for _, l := range links {
		if l.ContactID != "" {
			contactByInteraction[l.InteractionID] = l.ContactID
		}
	}

	contacts, err := t.store.ListContacts(ctx, "")
	if err != nil {
		return err
	}
	contactByID := make(map[string]domain.Contact, len(contacts))
	for _, c := range contacts {
		contactByID[c.ContactID] = c
	}

	for i := range interactions {
		contactID, ok := contactByInteraction[interactions[i].InteractionID]
		if !ok {
			system := domain.SystemAuthor
			interactions[i].Author = &system
			continue
		}
		c, ok := contactByID[contactID]
		if !ok {
			// Link points at a contact the store no longer has.
			system := domain.SystemAuthor
			interactions[i].Author = &system
			continue
		}
		interactions[i].Author = &domain.Author{
			Name:  c.FullName(),
			Role:  c.Role,
			Email: c.Email,
		}
	}
	return nil
}

// ListDeals returns deals (optionally scoped to a company) decorated with
// the derived last_interaction_at: the newest timestamp among linked
// interactions, or absent when a deal has none.
func (t *TimelineService) ListDeals(ctx context.Context, companyID string) ([]domain.Deal, error) {
	ctx, span := timelineTracer.Start(ctx, "Timeline.ListDeals")
	defer span.End()

	deals, err := t.store.ListDeals(ctx, companyID)
	if err != nil {
		return nil, err
	}
	links, err := t.store.ListLinks(ctx)
	if err != nil {
		return nil, err
	}
	interactions, err := t.store.ListInteractions(ctx, nil)
	if err != nil {
		return nil, err
	}

	timestampByID := make(map[string]int, len(interactions))
	for i, in := range interactions {
		timestampByID[in.InteractionID] = i
	}

	for i := range deals {
		deals[i].LastInteractionAt = nil
		for _, l := range links {
			if l.DealID != deals[i].DealID {
				continue
			}
			idx, ok := timestampByID[l.InteractionID]
			if !ok {
				continue
			}
			ts := interactions[idx].Timestamp
			if deals[i].LastInteractionAt == nil || ts.After(*deals[i].LastInteractionAt) {
				at := ts
				deals[i].LastInteractionAt = &at
			}
		}
	}
	return deals, nil
}
