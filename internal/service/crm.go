package service

import (
	"context"

	"github.com/gooseworks/goose-copilot/internal/domain"
	"github.com/gooseworks/goose-copilot/internal/port"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

var crmTracer = otel.Tracer("service/crm")

// CRM fronts the entity store for the plain data routes and serves the
// dashboard overview.
type CRM struct {
	store    port.EntityStore
	timeline *TimelineService
}

// NewCRM creates the CRM service.
func NewCRM(store port.EntityStore, timeline *TimelineService) *CRM {
	return &CRM{store: store, timeline: timeline}
}

// Overview fetches the initial dashboard payload in one concurrent fan-out.
// Deals come through the timeline service so they carry the derived
// last_interaction_at.
func (c *CRM) Overview(ctx context.Context) (*domain.Overview, error) {
	ctx, span := crmTracer.Start(ctx, "CRM.Overview")
	defer span.End()

	var out domain.Overview
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		out.Companies, err = c.store.ListCompanies(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Contacts, err = c.store.ListContacts(gCtx, "")
		return err
	})
	g.Go(func() error {
		var err error
		out.Deals, err = c.timeline.ListDeals(gCtx, "")
		return err
	})
	g.Go(func() error {
		var err error
		out.Tickets, err = c.store.ListTickets(gCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CRM) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	return c.store.ListCompanies(ctx)
}

func (c *CRM) GetCompany(ctx context.Context, companyID string) (*domain.Company, error) {
	return c.store.GetCompany(ctx, companyID)
}

func (c *CRM) CreateCompany(ctx context.Context, req *domain.NewCompany) (*domain.Company, error) {
	return c.store.CreateCompany(ctx, req)
}

func (c *CRM) ListContacts(ctx context.Context, companyID string) ([]domain.Contact, error) {
	return c.store.ListContacts(ctx, companyID)
}

func (c *CRM) CreateContact(ctx context.Context, req *domain.NewContact) (*domain.Contact, error) {
	return c.store.CreateContact(ctx, req)
}

func (c *CRM) ListTickets(ctx context.Context) ([]domain.SupportTicket, error) {
	return c.store.ListTickets(ctx)
}

func (c *CRM) GetTicket(ctx context.Context, ticketID string) (*domain.SupportTicket, error) {
	return c.store.GetTicket(ctx, ticketID)
}

func (c *CRM) CreateTicket(ctx context.Context, req *domain.NewSupportTicket) (*domain.SupportTicket, error) {
	return c.store.CreateTicket(ctx, req)
}
