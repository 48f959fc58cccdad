package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gooseworks/goose-copilot/internal/domain"
	"github.com/gooseworks/goose-copilot/internal/infra/genai"
	"github.com/gooseworks/goose-copilot/internal/infra/observability"
	"github.com/gooseworks/goose-copilot/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var proposalTracer = otel.Tracer("service/proposal")

// ProposalService synthesizes proposals from deal history and drives their
// lifecycle.
type ProposalService struct {
	store     port.EntityStore
	timeline  *TimelineService
	generator port.TextGenerator
	metrics   *observability.Metrics
	logger    *zap.Logger

	// valueTolerance is the accepted relative gap between the summed line
	// item value and the deal value before a warning is logged. The check
	// is advisory; a generated proposal is never rejected for it.
	valueTolerance float64
}

// NewProposalService creates the proposal service.
func NewProposalService(
	store port.EntityStore,
	timeline *TimelineService,
	generator port.TextGenerator,
	metrics *observability.Metrics,
	logger *zap.Logger,
	valueTolerance float64,
) *ProposalService {
	return &ProposalService{
		store:          store,
		timeline:       timeline,
		generator:      generator,
		metrics:        metrics,
		logger:         logger,
		valueTolerance: valueTolerance,
	}
}

// Get returns a proposal by id.
func (p *ProposalService) Get(ctx context.Context, proposalID string) (*domain.Proposal, error) {
	return p.store.GetProposal(ctx, proposalID)
}

// Synthesize generates an itemized proposal for a deal from its full
// interaction history and persists it as a DRAFT version 1.
func (p *ProposalService) Synthesize(ctx context.Context, dealID string) (*domain.Proposal, error) {
	ctx, span := proposalTracer.Start(ctx, "Proposal.Synthesize")
	defer span.End()
	span.SetAttributes(attribute.String("deal.id", dealID))

	start := time.Now()
	defer func() {
		p.metrics.RecordRequestDuration("proposal_synthesize", time.Since(start))
	}()

	deal, err := p.store.GetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	company, err := p.store.GetCompany(ctx, deal.CompanyID)
	if err != nil {
		return nil, err
	}
	interactions, err := p.timeline.Timeline(ctx, domain.TimelineFilter{DealID: dealID})
	if err != nil {
		return nil, err
	}

	raw, usage, err := p.generator.Generate(ctx, "", p.buildPrompt(deal, company.Name, interactions), true)
	if err != nil {
		p.metrics.IncrExternalError("genai")
		p.metrics.IncrRequest("error")
		return nil, err
	}

	var content domain.ProposalContent
	if err := genai.ParseJSON(raw, &content); err != nil {
		p.metrics.IncrRequest("error")
		p.logger.Warn("proposal reply not parseable", zap.String("deal_id", dealID), zap.Error(err))
		return nil, err
	}
	if err := content.Validate(); err != nil {
		p.metrics.IncrRequest("error")
		return nil, err
	}
	p.metrics.RecordTokens(usage)
	p.metrics.IncrRequest("success")

	if deal.Value > 0 {
		gap := math.Abs(content.TotalValue()-deal.Value) / deal.Value
		if gap > p.valueTolerance {
			p.logger.Warn("proposal value diverges from deal value",
				zap.String("deal_id", dealID),
				zap.Float64("deal_value", deal.Value),
				zap.Float64("proposal_value", content.TotalValue()),
				zap.Float64("gap", gap),
			)
		}
	}

	proposal := &domain.Proposal{
		ProposalID:    "prop-" + uuid.New().String(),
		DealID:        dealID,
		Version:       1,
		Status:        domain.ProposalDraft,
		Content:       content,
		PaymentStatus: domain.PaymentNone,
	}
	if err := p.store.SaveProposal(ctx, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

// MarkSent moves a proposal to SENT, stamping the send time and a public
// share path.
func (p *ProposalService) MarkSent(ctx context.Context, proposalID string) (*domain.Proposal, error) {
	return p.transition(ctx, proposalID, domain.ProposalSent, func(prop *domain.Proposal) {
		now := time.Now().UTC()
		prop.SentAt = &now
		prop.PublicShareURL = "/p/" + prop.ProposalID
	})
}

// MarkViewed records the client opening the proposal.
func (p *ProposalService) MarkViewed(ctx context.Context, proposalID string) (*domain.Proposal, error) {
	return p.transition(ctx, proposalID, domain.ProposalViewed, nil)
}

// Accept records the client's signature. When selectedItemIDs is non-empty
// the content is narrowed to the chosen line items; finalValue overrides
// the derived total when provided.
func (p *ProposalService) Accept(ctx context.Context, proposalID, signature string, finalValue *float64, selectedItemIDs []string) (*domain.Proposal, error) {
	return p.transition(ctx, proposalID, domain.ProposalAccepted, func(prop *domain.Proposal) {
		now := time.Now().UTC()
		prop.SignedAt = &now
		prop.Signature = signature
		prop.PaymentStatus = domain.PaymentPending

		if len(selectedItemIDs) > 0 {
			selected := make(map[string]bool, len(selectedItemIDs))
			for _, id := range selectedItemIDs {
				selected[id] = true
			}
			// A fresh slice: the store hands out struct copies whose item
			// slice still shares its backing array with the stored record.
			items := make([]domain.ProposalItem, 0, len(selectedItemIDs))
			for _, item := range prop.Content.SolutionItems {
				if selected[item.ID] {
					items = append(items, item)
				}
			}
			prop.Content.SolutionItems = items
		}

		if finalValue != nil {
			prop.FinalAcceptedValue = finalValue
		} else {
			total := prop.Content.TotalValue()
			prop.FinalAcceptedValue = &total
		}
	})
}

// Pay settles an accepted proposal.
func (p *ProposalService) Pay(ctx context.Context, proposalID string) (*domain.Proposal, error) {
	return p.transition(ctx, proposalID, domain.ProposalPaid, func(prop *domain.Proposal) {
		prop.PaymentStatus = domain.PaymentPaid
		prop.PaymentGatewayTxID = "tx-" + uuid.New().String()
	})
}

// Expire closes a proposal that was never paid.
func (p *ProposalService) Expire(ctx context.Context, proposalID string) (*domain.Proposal, error) {
	return p.transition(ctx, proposalID, domain.ProposalExpired, nil)
}

// transition moves a proposal to the target status, applying apply before
// persisting. Moves the state machine does not allow fail with
// ErrInvalidTransition.
func (p *ProposalService) transition(ctx context.Context, proposalID string, to domain.ProposalStatus, apply func(*domain.Proposal)) (*domain.Proposal, error) {
	prop, err := p.store.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(prop.Status, to) {
		return nil, &domain.ErrInvalidTransition{From: prop.Status, To: to}
	}
	prop.Status = to
	if apply != nil {
		apply(prop)
	}
	if err := p.store.UpdateProposal(ctx, prop); err != nil {
		return nil, err
	}
	return prop, nil
}

// buildPrompt narrates the full deal history into the proposal-writer
// prompt. Unlike chat context, the narration is not truncated; the writer
// needs everything the client said.
func (p *ProposalService) buildPrompt(deal *domain.Deal, clientName string, interactions []domain.Interaction) string {
	var narration []string
	for _, in := range interactions {
		author := "the client"
		if in.Author != nil && in.Author.Name != domain.SystemAuthor.Name {
			author = in.Author.Name
		}
		body := in.AISummary
		if body == "" {
			body = in.ContentRaw
		}
		narration = append(narration, fmt.Sprintf("On %s, a %s interaction occurred with %s. Content: %s",
			in.Timestamp.Format("Mon Jan 2 2006"), in.Type, author, body))
	}

	return fmt.Sprintf(`You are an expert B2B proposal writer named Goose. Your task is to analyze a deal's interaction history and generate a comprehensive, persuasive, and itemized proposal in a structured JSON format.

**Deal Information:**
- Deal Name: %q
- Client: %q
- Approximate Total Value: $%.0f

**Interaction History:**
---
%s
---

**Instructions:**
Based on the information, generate a professional sales proposal. The output MUST be a valid JSON object following the schema.
1.  **Infer Products/Services:** From the deal name and interactions, invent a plausible, itemized list of 3-5 products and services. For a "Network Upgrade," items could be "Access Points," "Managed Switches," "Installation," and "Support Subscription."
2.  **Distribute Value:** Distribute the total deal value realistically among the itemized products/services. The sum of item prices should be close to the total deal value.
3.  **Be Creative & Professional:** Write compelling descriptions, features, and ROI projections. The tone should be professional and client-centric.

**JSON Schema to follow:**
- proposalTitle: "A professional title for the proposal."
- clientName: "The client's name."
- executiveSummary: "A compelling opening statement (2-3 sentences) summarizing the client's main challenge and the high-level value of our solution."
- clientChallenges: "Based on the interaction history, detail the client's specific problems, needs, and objectives in a short paragraph."
- solutionItems: "An array of 3-5 itemized products/services."
    - id: "A unique identifier string, e.g., 'item-1'."
    - name: "Product/Service name."
    - description: "A concise description of the item."
    - features: "An array of 3-4 key feature strings."
    - price: "A numeric price for this item."
    - type: "'one-time' for products/services, or 'recurring' for subscriptions."
    - quantity: "The quantity, typically 1 unless it's per-unit hardware."
- roiProjections: "An array of 2-3 potential ROI benefits."
    - metric: "The metric being improved, e.g., 'Guest Satisfaction Score'."
    - value: "The projected improvement, e.g., '+25%%'."
    - description: "A brief explanation of how our solution achieves this."
- termsAndConditions: "Standard T&Cs text, including payment terms (e.g., 50%% deposit, net 30) and a warranty period."`,
		deal.Name, clientName, deal.Value, strings.Join(narration, "\n\n"))
}
