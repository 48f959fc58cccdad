package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/gooseworks/goose-copilot/internal/domain"
	"github.com/gooseworks/goose-copilot/internal/infra/memstore"
	"github.com/gooseworks/goose-copilot/internal/infra/observability"
	"github.com/gooseworks/goose-copilot/internal/service"

	"go.uber.org/zap"
)

func newProposalService(t *testing.T, store *memstore.Store, gen *fakeGenerator) *service.ProposalService {
	t.Helper()
	logger := zap.NewNop()
	timeline := service.NewTimelineService(store, logger)
	return service.NewProposalService(store, timeline, gen, observability.NewMetrics(), logger, 0.25)
}

func proposalReplyJSON(t *testing.T) string {
	t.Helper()
	content := domain.ProposalContent{
		ProposalTitle:    "The Grand Hotel Network Upgrade Proposal",
		ClientName:       "The Grand Hotel",
		ExecutiveSummary: "A complete network overhaul before the summer season.",
		ClientChallenges: "Slow guest WiFi and conference room outages.",
		SolutionItems: []domain.ProposalItem{
			{ID: "item-1", Name: "Access Points", Description: "High-density WiFi 6 APs", Features: []string{"WiFi 6", "PoE"}, Price: 120000, Type: domain.ItemTypeOneTime, Quantity: 1},
			{ID: "item-2", Name: "Managed Switches", Description: "Redundant core switching", Features: []string{"10GbE", "Stacking"}, Price: 80000, Type: domain.ItemTypeOneTime, Quantity: 1},
			{ID: "item-3", Name: "Support Subscription", Description: "24/7 managed support", Features: []string{"SLA", "Monitoring"}, Price: 50000, Type: domain.ItemTypeRecurring, Quantity: 1},
		},
		ROIProjections: []domain.ROIProjection{
			{Metric: "Guest Satisfaction Score", Value: "+25%", Description: "Fast WiFi everywhere."},
			{Metric: "Outage Hours", Value: "-90%", Description: "Redundant backbone."},
		},
		TermsAndConditions: "50% deposit, net 30, 12-month warranty.",
	}
	b, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal reply: %v", err)
	}
	return string(b)
}

func TestSynthesize_PersistsDraft(t *testing.T) {
	store := memstore.NewSeeded()
	gen := &fakeGenerator{reply: func(_, _ string, _ bool) (string, error) {
		return proposalReplyJSON(t), nil
	}}
	svc := newProposalService(t, store, gen)
	ctx := context.Background()

	proposal, err := svc.Synthesize(ctx, "deal-1")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if !strings.HasPrefix(proposal.ProposalID, "prop-") {
		t.Errorf("expected prop- prefixed id, got %s", proposal.ProposalID)
	}
	if proposal.Status != domain.ProposalDraft || proposal.Version != 1 {
		t.Errorf("expected DRAFT v1, got %s v%d", proposal.Status, proposal.Version)
	}
	if proposal.PaymentStatus != domain.PaymentNone {
		t.Errorf("expected payment NONE, got %s", proposal.PaymentStatus)
	}
	if len(proposal.Content.SolutionItems) != 3 {
		t.Errorf("expected 3 line items, got %d", len(proposal.Content.SolutionItems))
	}

	if !gen.lastJSONMode {
		t.Error("synthesis must request a JSON reply")
	}
	if !strings.Contains(gen.lastPrompt, `Deal Name: "The Grand Hotel Network Upgrade"`) {
		t.Errorf("prompt missing deal name:\n%s", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "proposal writer") {
		t.Errorf("prompt missing writer framing:\n%s", gen.lastPrompt)
	}

	stored, err := store.GetProposal(ctx, proposal.ProposalID)
	if err != nil {
		t.Fatalf("GetProposal: %v", err)
	}
	if stored.DealID != "deal-1" {
		t.Errorf("unexpected stored proposal: %+v", stored)
	}
}

func TestSynthesize_SalvagesFencedReply(t *testing.T) {
	store := memstore.NewSeeded()
	gen := &fakeGenerator{reply: func(_, _ string, _ bool) (string, error) {
		return "```json\n" + proposalReplyJSON(t) + "\n```", nil
	}}
	svc := newProposalService(t, store, gen)

	if _, err := svc.Synthesize(context.Background(), "deal-1"); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
}

func TestSynthesize_RejectsInvalidContent(t *testing.T) {
	store := memstore.NewSeeded()
	gen := &fakeGenerator{reply: func(_, _ string, _ bool) (string, error) {
		// Too few line items.
		return `{"proposalTitle":"T","clientName":"C","executiveSummary":"S","clientChallenges":"Ch","solutionItems":[{"id":"item-1","name":"A","price":100,"type":"one-time","quantity":1}],"roiProjections":[{"metric":"M","value":"+1%","description":"D"},{"metric":"N","value":"+2%","description":"D"}],"termsAndConditions":"T"}`, nil
	}}
	svc := newProposalService(t, store, gen)

	_, err := svc.Synthesize(context.Background(), "deal-1")
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSynthesize_MalformedReply(t *testing.T) {
	store := memstore.NewSeeded()
	gen := &fakeGenerator{reply: func(_, _ string, _ bool) (string, error) {
		return "I couldn't generate that.", nil
	}}
	svc := newProposalService(t, store, gen)

	_, err := svc.Synthesize(context.Background(), "deal-1")
	var malformed *domain.ErrMalformedAIResponse
	if !errors.As(err, &malformed) {
		t.Fatalf("expected ErrMalformedAIResponse, got %v", err)
	}
}

func TestSynthesize_UnknownDeal(t *testing.T) {
	store := memstore.NewSeeded()
	svc := newProposalService(t, store, &fakeGenerator{})

	_, err := svc.Synthesize(context.Background(), "deal-missing")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func synthesizeDraft(t *testing.T, svc *service.ProposalService) *domain.Proposal {
	t.Helper()
	proposal, err := svc.Synthesize(context.Background(), "deal-1")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	return proposal
}

func TestProposalLifecycle(t *testing.T) {
	store := memstore.NewSeeded()
	gen := &fakeGenerator{reply: func(_, _ string, _ bool) (string, error) {
		return proposalReplyJSON(t), nil
	}}
	svc := newProposalService(t, store, gen)
	ctx := context.Background()

	proposal := synthesizeDraft(t, svc)

	sent, err := svc.MarkSent(ctx, proposal.ProposalID)
	if err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if sent.Status != domain.ProposalSent || sent.SentAt == nil {
		t.Errorf("unexpected sent state: %+v", sent)
	}
	if sent.PublicShareURL != "/p/"+proposal.ProposalID {
		t.Errorf("unexpected share url: %s", sent.PublicShareURL)
	}

	viewed, err := svc.MarkViewed(ctx, proposal.ProposalID)
	if err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}
	if viewed.Status != domain.ProposalViewed {
		t.Errorf("expected VIEWED, got %s", viewed.Status)
	}

	accepted, err := svc.Accept(ctx, proposal.ProposalID, "Jane Smith", nil, nil)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted.Status != domain.ProposalAccepted || accepted.SignedAt == nil || accepted.Signature != "Jane Smith" {
		t.Errorf("unexpected accepted state: %+v", accepted)
	}
	if accepted.PaymentStatus != domain.PaymentPending {
		t.Errorf("expected payment PENDING, got %s", accepted.PaymentStatus)
	}
	if accepted.FinalAcceptedValue == nil || *accepted.FinalAcceptedValue != accepted.Content.TotalValue() {
		t.Errorf("expected final value to default to the item total, got %v", accepted.FinalAcceptedValue)
	}

	paid, err := svc.Pay(ctx, proposal.ProposalID)
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if paid.Status != domain.ProposalPaid || paid.PaymentStatus != domain.PaymentPaid {
		t.Errorf("unexpected paid state: %+v", paid)
	}
	if !strings.HasPrefix(paid.PaymentGatewayTxID, "tx-") {
		t.Errorf("expected tx- prefixed gateway id, got %s", paid.PaymentGatewayTxID)
	}

	// Paid proposals never expire.
	_, err = svc.Expire(ctx, proposal.ProposalID)
	var invalid *domain.ErrInvalidTransition
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestAccept_NarrowsSelectedItems(t *testing.T) {
	store := memstore.NewSeeded()
	gen := &fakeGenerator{reply: func(_, _ string, _ bool) (string, error) {
		return proposalReplyJSON(t), nil
	}}
	svc := newProposalService(t, store, gen)
	ctx := context.Background()

	proposal := synthesizeDraft(t, svc)
	if _, err := svc.MarkSent(ctx, proposal.ProposalID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if _, err := svc.MarkViewed(ctx, proposal.ProposalID); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}

	finalValue := 170000.0
	accepted, err := svc.Accept(ctx, proposal.ProposalID, "John Doe", &finalValue, []string{"item-1", "item-3"})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if len(accepted.Content.SolutionItems) != 2 {
		t.Fatalf("expected 2 selected items, got %d", len(accepted.Content.SolutionItems))
	}
	for _, item := range accepted.Content.SolutionItems {
		if item.ID == "item-2" {
			t.Error("deselected item survived acceptance")
		}
	}
	if accepted.FinalAcceptedValue == nil || *accepted.FinalAcceptedValue != finalValue {
		t.Errorf("expected negotiated final value %v, got %v", finalValue, accepted.FinalAcceptedValue)
	}
}

func TestAccept_LeavesEarlierSnapshotsIntact(t *testing.T) {
	store := memstore.NewSeeded()
	gen := &fakeGenerator{reply: func(_, _ string, _ bool) (string, error) {
		return proposalReplyJSON(t), nil
	}}
	svc := newProposalService(t, store, gen)
	ctx := context.Background()

	proposal := synthesizeDraft(t, svc)
	if _, err := svc.MarkSent(ctx, proposal.ProposalID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if _, err := svc.MarkViewed(ctx, proposal.ProposalID); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}

	snapshot, err := svc.Get(ctx, proposal.ProposalID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	accepted, err := svc.Accept(ctx, proposal.ProposalID, "John Doe", nil, []string{"item-3"})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if len(accepted.Content.SolutionItems) != 1 || accepted.Content.SolutionItems[0].ID != "item-3" {
		t.Fatalf("unexpected narrowed items: %+v", accepted.Content.SolutionItems)
	}

	// Narrowing must not write through into line items handed out before
	// the acceptance.
	if len(snapshot.Content.SolutionItems) != 3 {
		t.Fatalf("earlier snapshot lost items: %d", len(snapshot.Content.SolutionItems))
	}
	if snapshot.Content.SolutionItems[0].ID != "item-1" {
		t.Errorf("earlier snapshot corrupted: first item is %s", snapshot.Content.SolutionItems[0].ID)
	}
}

func TestPay_RequiresAcceptance(t *testing.T) {
	store := memstore.NewSeeded()
	gen := &fakeGenerator{reply: func(_, _ string, _ bool) (string, error) {
		return proposalReplyJSON(t), nil
	}}
	svc := newProposalService(t, store, gen)

	proposal := synthesizeDraft(t, svc)

	_, err := svc.Pay(context.Background(), proposal.ProposalID)
	var invalid *domain.ErrInvalidTransition
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestExpire_OpenProposal(t *testing.T) {
	store := memstore.NewSeeded()
	gen := &fakeGenerator{reply: func(_, _ string, _ bool) (string, error) {
		return proposalReplyJSON(t), nil
	}}
	svc := newProposalService(t, store, gen)
	ctx := context.Background()

	proposal := synthesizeDraft(t, svc)
	if _, err := svc.MarkSent(ctx, proposal.ProposalID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}

	expired, err := svc.Expire(ctx, proposal.ProposalID)
	if err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if expired.Status != domain.ProposalExpired {
		t.Errorf("expected EXPIRED, got %s", expired.Status)
	}

	// EXPIRED is terminal.
	if _, err := svc.MarkViewed(ctx, proposal.ProposalID); err == nil {
		t.Error("expected transition out of EXPIRED to fail")
	}
}
