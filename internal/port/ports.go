// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/gooseworks/goose-copilot/internal/domain"
)

// EntityStore defines all data operations for the CRM entities. Implemented
// by the in-memory adapter; any persistence layer with the same contract is
// substitutable.
type EntityStore interface {
	// Companies
	ListCompanies(ctx context.Context) ([]domain.Company, error)
	GetCompany(ctx context.Context, companyID string) (*domain.Company, error)
	CreateCompany(ctx context.Context, req *domain.NewCompany) (*domain.Company, error)
	SetCompanySummary(ctx context.Context, companyID, summary string) error

	// Contacts
	ListContacts(ctx context.Context, companyID string) ([]domain.Contact, error)
	GetContact(ctx context.Context, contactID string) (*domain.Contact, error)
	CreateContact(ctx context.Context, req *domain.NewContact) (*domain.Contact, error)

	// Deals
	ListDeals(ctx context.Context, companyID string) ([]domain.Deal, error)
	GetDeal(ctx context.Context, dealID string) (*domain.Deal, error)

	// Interactions & links
	ListInteractions(ctx context.Context, ids map[string]bool) ([]domain.Interaction, error)
	ListLinks(ctx context.Context) ([]domain.InteractionLink, error)
	AddInteraction(ctx context.Context, in *domain.Interaction, link *domain.InteractionLink) error
	SetInteractionSummary(ctx context.Context, interactionID, summary string) error
	GetInteraction(ctx context.Context, interactionID string) (*domain.Interaction, error)

	// Support tickets
	ListTickets(ctx context.Context) ([]domain.SupportTicket, error)
	GetTicket(ctx context.Context, ticketID string) (*domain.SupportTicket, error)
	CreateTicket(ctx context.Context, req *domain.NewSupportTicket) (*domain.SupportTicket, error)

	// Proposals
	GetProposal(ctx context.Context, proposalID string) (*domain.Proposal, error)
	SaveProposal(ctx context.Context, p *domain.Proposal) error
	UpdateProposal(ctx context.Context, p *domain.Proposal) error
}

// TextGenerator invokes the generative text backend. When jsonMode is set
// the backend is instructed to reply with a single JSON object; schema
// validation stays with the caller.
type TextGenerator interface {
	Generate(ctx context.Context, systemInstruction, prompt string, jsonMode bool) (string, domain.TokenUsage, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
