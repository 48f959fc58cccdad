// Package memstore is the in-memory EntityStore adapter. The store is an
// explicit object constructed once at startup and injected into the services
// that need it, so tests can run against fresh instances. Writes are
// append-style under a single mutex; there is no multi-writer scenario in
// this system's scope.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/gooseworks/goose-copilot/internal/domain"

	"github.com/google/uuid"
)

// Store holds all CRM collections.
type Store struct {
	mu sync.RWMutex

	companies    []domain.Company
	contacts     []domain.Contact
	deals        []domain.Deal
	interactions []domain.Interaction
	links        []domain.InteractionLink
	tickets      []domain.SupportTicket
	proposals    []domain.Proposal

	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{now: time.Now}
}

// NewSeeded creates a store pre-loaded with the demo dataset.
func NewSeeded() *Store {
	s := New()
	s.seed()
	return s
}

// ============================================================
// Companies
// ============================================================

func (s *Store) ListCompanies(_ context.Context) ([]domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Company, len(s.companies))
	copy(out, s.companies)
	return out, nil
}

func (s *Store) GetCompany(_ context.Context, companyID string) (*domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.companies {
		if s.companies[i].CompanyID == companyID {
			c := s.companies[i]
			return &c, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "company", ID: companyID}
}

func (s *Store) CreateCompany(_ context.Context, req *domain.NewCompany) (*domain.Company, error) {
	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "must not be empty"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	c := domain.Company{
		CompanyID: "comp-" + uuid.New().String(),
		Name:      req.Name,
		Domain:    req.Domain,
		Industry:  req.Industry,
		AISummary: "Newly added company.",
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.companies = append(s.companies, c)
	return &c, nil
}

func (s *Store) SetCompanySummary(_ context.Context, companyID, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.companies {
		if s.companies[i].CompanyID == companyID {
			s.companies[i].AISummary = summary
			s.companies[i].UpdatedAt = s.now().UTC()
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "company", ID: companyID}
}

// ============================================================
// Contacts
// ============================================================

func (s *Store) ListContacts(_ context.Context, companyID string) ([]domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		if companyID == "" || c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) GetContact(_ context.Context, contactID string) (*domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.contacts {
		if s.contacts[i].ContactID == contactID {
			c := s.contacts[i]
			return &c, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "contact", ID: contactID}
}

func (s *Store) CreateContact(_ context.Context, req *domain.NewContact) (*domain.Contact, error) {
	if req.CompanyID == "" {
		return nil, &domain.ErrValidation{Field: "company_id", Message: "must not be empty"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for i := range s.companies {
		if s.companies[i].CompanyID == req.CompanyID {
			found = true
			break
		}
	}
	if !found {
		return nil, &domain.ErrNotFound{Resource: "company", ID: req.CompanyID}
	}
	now := s.now().UTC()
	c := domain.Contact{
		ContactID: "cont-" + uuid.New().String(),
		CompanyID: req.CompanyID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Role:      req.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.contacts = append(s.contacts, c)
	return &c, nil
}

// ============================================================
// Deals
// ============================================================

func (s *Store) ListDeals(_ context.Context, companyID string) ([]domain.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Deal, 0, len(s.deals))
	for _, d := range s.deals {
		if companyID == "" || d.CompanyID == companyID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) GetDeal(_ context.Context, dealID string) (*domain.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.deals {
		if s.deals[i].DealID == dealID {
			d := s.deals[i]
			return &d, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "deal", ID: dealID}
}

// ============================================================
// Interactions & links
// ============================================================

// ListInteractions returns interactions in insertion order. A nil ids set
// returns everything; otherwise only matching ids are returned.
func (s *Store) ListInteractions(_ context.Context, ids map[string]bool) ([]domain.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Interaction, 0, len(s.interactions))
	for _, in := range s.interactions {
		if ids == nil || ids[in.InteractionID] {
			out = append(out, in)
		}
	}
	return out, nil
}

func (s *Store) ListLinks(_ context.Context) ([]domain.InteractionLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.InteractionLink, len(s.links))
	copy(out, s.links)
	return out, nil
}

func (s *Store) GetInteraction(_ context.Context, interactionID string) (*domain.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.interactions {
		if s.interactions[i].InteractionID == interactionID {
			in := s.interactions[i]
			return &in, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "interaction", ID: interactionID}
}

// AddInteraction appends an interaction together with its link row. Every
// interaction gets at least one link, and a link always names a company.
func (s *Store) AddInteraction(_ context.Context, in *domain.Interaction, link *domain.InteractionLink) error {
	if link == nil || link.CompanyID == "" {
		return &domain.ErrValidation{Field: "link.company_id", Message: "must not be empty"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.InteractionID == "" {
		in.InteractionID = "int-" + uuid.New().String()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = s.now().UTC()
	}
	link.InteractionID = in.InteractionID
	s.interactions = append(s.interactions, *in)
	s.links = append(s.links, *link)
	return nil
}

// SetInteractionSummary fills the cached AI summary at most once. Setting a
// summary on an interaction that already has one is a no-op, which keeps
// summary generation idempotent.
func (s *Store) SetInteractionSummary(_ context.Context, interactionID, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.interactions {
		if s.interactions[i].InteractionID == interactionID {
			if s.interactions[i].AISummary == "" {
				s.interactions[i].AISummary = summary
			}
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "interaction", ID: interactionID}
}

// ============================================================
// Support tickets
// ============================================================

func (s *Store) ListTickets(_ context.Context) ([]domain.SupportTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SupportTicket, len(s.tickets))
	copy(out, s.tickets)
	return out, nil
}

func (s *Store) GetTicket(_ context.Context, ticketID string) (*domain.SupportTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.tickets {
		if s.tickets[i].TicketID == ticketID {
			t := s.tickets[i]
			return &t, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "ticket", ID: ticketID}
}

// CreateTicket opens a ticket and records its initial message as the first
// interaction of the thread, linked to the contact's company.
func (s *Store) CreateTicket(ctx context.Context, req *domain.NewSupportTicket) (*domain.SupportTicket, error) {
	if req.ContactID == "" {
		return nil, &domain.ErrValidation{Field: "contact_id", Message: "must not be empty"}
	}
	contact, err := s.GetContact(ctx, req.ContactID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	interaction := &domain.Interaction{
		Type:             domain.InteractionEmail,
		SourceIdentifier: "internal-ticket",
		Timestamp:        now,
		ContentRaw:       "Subject: " + req.Subject + "\n\n" + req.InitialMessage,
		AISentiment:      domain.SentimentNeutral,
		CreatedAt:        now,
	}
	link := &domain.InteractionLink{
		CompanyID: contact.CompanyID,
		ContactID: contact.ContactID,
	}
	if err := s.AddInteraction(ctx, interaction, link); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := domain.SupportTicket{
		TicketID:       "ticket-" + uuid.New().String(),
		ContactID:      req.ContactID,
		Status:         domain.TicketOpen,
		Subject:        req.Subject,
		InteractionIDs: []string{interaction.InteractionID},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.tickets = append(s.tickets, t)
	return &t, nil
}

// ============================================================
// Proposals
// ============================================================

func (s *Store) GetProposal(_ context.Context, proposalID string) (*domain.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.proposals {
		if s.proposals[i].ProposalID == proposalID {
			p := s.proposals[i]
			return &p, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "proposal", ID: proposalID}
}

func (s *Store) SaveProposal(_ context.Context, p *domain.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ProposalID == "" {
		p.ProposalID = "prop-" + uuid.New().String()
	}
	now := s.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.proposals = append(s.proposals, *p)
	return nil
}

func (s *Store) UpdateProposal(_ context.Context, p *domain.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.proposals {
		if s.proposals[i].ProposalID == p.ProposalID {
			p.UpdatedAt = s.now().UTC()
			s.proposals[i] = *p
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "proposal", ID: p.ProposalID}
}
