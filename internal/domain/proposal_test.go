package domain_test

import (
	"errors"
	"testing"

	"github.com/gooseworks/goose-copilot/internal/domain"
)

func TestCanTransition_LinearPath(t *testing.T) {
	steps := []struct {
		from, to domain.ProposalStatus
	}{
		{domain.ProposalDraft, domain.ProposalSent},
		{domain.ProposalSent, domain.ProposalViewed},
		{domain.ProposalViewed, domain.ProposalAccepted},
		{domain.ProposalAccepted, domain.ProposalPaid},
	}
	for _, s := range steps {
		if !domain.CanTransition(s.from, s.to) {
			t.Errorf("expected %s -> %s to be allowed", s.from, s.to)
		}
	}
}

func TestCanTransition_NoSkipping(t *testing.T) {
	if domain.CanTransition(domain.ProposalDraft, domain.ProposalViewed) {
		t.Error("DRAFT -> VIEWED must not skip SENT")
	}
	if domain.CanTransition(domain.ProposalSent, domain.ProposalPaid) {
		t.Error("SENT -> PAID must not skip intermediate states")
	}
	if domain.CanTransition(domain.ProposalViewed, domain.ProposalSent) {
		t.Error("backwards transition must be rejected")
	}
}

func TestCanTransition_Expired(t *testing.T) {
	for _, from := range []domain.ProposalStatus{
		domain.ProposalDraft, domain.ProposalSent, domain.ProposalViewed, domain.ProposalAccepted,
	} {
		if !domain.CanTransition(from, domain.ProposalExpired) {
			t.Errorf("expected %s -> EXPIRED to be allowed", from)
		}
	}
	if domain.CanTransition(domain.ProposalPaid, domain.ProposalExpired) {
		t.Error("PAID proposals must not expire")
	}
	if domain.CanTransition(domain.ProposalExpired, domain.ProposalExpired) {
		t.Error("EXPIRED is terminal")
	}
	if domain.CanTransition(domain.ProposalExpired, domain.ProposalSent) {
		t.Error("EXPIRED proposals must not be revived")
	}
}

func validContent() domain.ProposalContent {
	return domain.ProposalContent{
		ProposalTitle:    "Network Upgrade Proposal",
		ClientName:       "The Grand Hotel",
		ExecutiveSummary: "A modern network for a modern hotel.",
		ClientChallenges: "Slow guest WiFi and frequent outages.",
		SolutionItems: []domain.ProposalItem{
			{ID: "item-1", Name: "Access Points", Price: 100000, Type: domain.ItemTypeOneTime, Quantity: 1},
			{ID: "item-2", Name: "Managed Switches", Price: 100000, Type: domain.ItemTypeOneTime, Quantity: 1},
			{ID: "item-3", Name: "Support Subscription", Price: 50000, Type: domain.ItemTypeRecurring, Quantity: 1},
		},
		ROIProjections: []domain.ROIProjection{
			{Metric: "Guest Satisfaction Score", Value: "+25%", Description: "Faster WiFi everywhere."},
			{Metric: "Outage Hours", Value: "-90%", Description: "Redundant backbone."},
		},
		TermsAndConditions: "50% deposit, net 30.",
	}
}

func TestProposalContent_Validate(t *testing.T) {
	if err := validContent().Validate(); err != nil {
		t.Fatalf("expected valid content, got %v", err)
	}
}

func TestProposalContent_ValidateRejectsItemCount(t *testing.T) {
	c := validContent()
	c.SolutionItems = c.SolutionItems[:2]
	assertValidationError(t, c.Validate())

	c = validContent()
	for i := 0; i < 4; i++ {
		item := c.SolutionItems[0]
		item.ID = "extra-" + string(rune('a'+i))
		c.SolutionItems = append(c.SolutionItems, item)
	}
	assertValidationError(t, c.Validate())
}

func TestProposalContent_ValidateRejectsDuplicateIDs(t *testing.T) {
	c := validContent()
	c.SolutionItems[1].ID = c.SolutionItems[0].ID
	assertValidationError(t, c.Validate())
}

func TestProposalContent_ValidateRejectsEmptyID(t *testing.T) {
	c := validContent()
	c.SolutionItems[0].ID = ""
	assertValidationError(t, c.Validate())
}

func TestProposalContent_ValidateRejectsBadType(t *testing.T) {
	c := validContent()
	c.SolutionItems[0].Type = "subscription"
	assertValidationError(t, c.Validate())
}

func TestProposalContent_ValidateRejectsEmptyClientName(t *testing.T) {
	c := validContent()
	c.ClientName = ""
	assertValidationError(t, c.Validate())
}

func TestProposalContent_ValidateRejectsROICount(t *testing.T) {
	c := validContent()
	c.ROIProjections = c.ROIProjections[:1]
	assertValidationError(t, c.Validate())
}

func TestProposalContent_TotalValue(t *testing.T) {
	c := validContent()
	c.SolutionItems[0].Quantity = 2
	if got := c.TotalValue(); got != 350000 {
		t.Errorf("expected total 350000, got %v", got)
	}
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %T", err)
	}
}
