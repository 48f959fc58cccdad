package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gooseworks/goose-copilot/internal/domain"
	"github.com/gooseworks/goose-copilot/internal/infra/cache"
	"github.com/gooseworks/goose-copilot/internal/infra/memstore"
	"github.com/gooseworks/goose-copilot/internal/infra/observability"
	"github.com/gooseworks/goose-copilot/internal/port"
	"github.com/gooseworks/goose-copilot/internal/service"

	"go.uber.org/zap"
)

// fakeGenerator stands in for the generative backend. The reply func, when
// set, decides the text per call; otherwise every call returns a canned line.
type fakeGenerator struct {
	mu           sync.Mutex
	calls        int
	lastSystem   string
	lastPrompt   string
	lastJSONMode bool
	reply        func(systemInstruction, prompt string, jsonMode bool) (string, error)
}

func (f *fakeGenerator) Generate(_ context.Context, systemInstruction, prompt string, jsonMode bool) (string, domain.TokenUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastSystem = systemInstruction
	f.lastPrompt = prompt
	f.lastJSONMode = jsonMode

	usage := domain.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	if f.reply != nil {
		text, err := f.reply(systemInstruction, prompt, jsonMode)
		if err != nil {
			return "", domain.TokenUsage{}, err
		}
		return text, usage, nil
	}
	return "generated reply", usage, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newCopilot(t *testing.T, store port.EntityStore, gen port.TextGenerator) *service.Copilot {
	t.Helper()
	logger := zap.NewNop()
	timeline := service.NewTimelineService(store, logger)
	assembler := service.NewContextAssembler(store, timeline)
	summaryCache := cache.New[string](time.Minute)
	t.Cleanup(summaryCache.Close)
	return service.NewCopilot(store, timeline, assembler, gen, summaryCache, observability.NewMetrics(), logger)
}

func TestRespond_CachesSubjectSummaries(t *testing.T) {
	store := memstore.NewSeeded()
	gen := &fakeGenerator{}
	copilot := newCopilot(t, store, gen)
	ctx := context.Background()

	deal, err := store.GetDeal(ctx, "deal-1")
	if err != nil {
		t.Fatalf("GetDeal: %v", err)
	}
	subject := domain.Subject{Deal: deal}

	first, err := copilot.Respond(ctx, subject, "GENERATE_SUMMARY:DEAL")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	second, err := copilot.Respond(ctx, subject, "GENERATE_SUMMARY:DEAL")
	if err != nil {
		t.Fatalf("Respond repeat: %v", err)
	}

	if first != second {
		t.Errorf("cached reply differs: %q vs %q", first, second)
	}
	if gen.callCount() != 1 {
		t.Errorf("expected one backend call for a repeated summary, got %d", gen.callCount())
	}
}

func TestRespond_FreeFormQuestionsNotCached(t *testing.T) {
	store := memstore.NewSeeded()
	gen := &fakeGenerator{}
	copilot := newCopilot(t, store, gen)
	ctx := context.Background()

	deal, _ := store.GetDeal(ctx, "deal-1")
	subject := domain.Subject{Deal: deal}

	for i := 0; i < 2; i++ {
		if _, err := copilot.Respond(ctx, subject, "What should I do next?"); err != nil {
			t.Fatalf("Respond: %v", err)
		}
	}
	if gen.callCount() != 2 {
		t.Errorf("free-form questions must hit the backend every time, got %d calls", gen.callCount())
	}
}

func TestSummarizeInteraction_ReturnsExistingSummary(t *testing.T) {
	store := memstore.NewSeeded()
	gen := &fakeGenerator{}
	copilot := newCopilot(t, store, gen)

	// int-5 is seeded with a summary already.
	got, err := copilot.SummarizeInteraction(context.Background(), "int-5")
	if err != nil {
		t.Fatalf("SummarizeInteraction: %v", err)
	}
	if !strings.Contains(got, "budget-conscious") {
		t.Errorf("expected the stored summary, got %q", got)
	}
	if gen.callCount() != 0 {
		t.Errorf("summarizing an already-summarized interaction must not call the backend, got %d calls", gen.callCount())
	}
}

func TestSummarizeInteraction_GeneratesAndPersistsOnce(t *testing.T) {
	store := memstore.NewSeeded()
	gen := &fakeGenerator{}
	copilot := newCopilot(t, store, gen)
	ctx := context.Background()

	first, err := copilot.SummarizeInteraction(ctx, "int-1")
	if err != nil {
		t.Fatalf("SummarizeInteraction: %v", err)
	}
	if first != "generated reply" {
		t.Errorf("unexpected summary: %q", first)
	}
	if gen.callCount() != 1 {
		t.Fatalf("expected one backend call, got %d", gen.callCount())
	}

	in, err := store.GetInteraction(ctx, "int-1")
	if err != nil {
		t.Fatalf("GetInteraction: %v", err)
	}
	if in.AISummary != first {
		t.Errorf("summary not persisted: %q", in.AISummary)
	}

	second, err := copilot.SummarizeInteraction(ctx, "int-1")
	if err != nil {
		t.Fatalf("SummarizeInteraction repeat: %v", err)
	}
	if second != first {
		t.Errorf("repeat returned a different summary: %q vs %q", second, first)
	}
	if gen.callCount() != 1 {
		t.Errorf("repeat must be served from the store, got %d backend calls", gen.callCount())
	}
}

func TestSummarizeInteraction_UnknownID(t *testing.T) {
	store := memstore.NewSeeded()
	copilot := newCopilot(t, store, &fakeGenerator{})

	_, err := copilot.SummarizeInteraction(context.Background(), "int-missing")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNextBestAction_NarratesDealHistory(t *testing.T) {
	store := memstore.NewSeeded()
	gen := &fakeGenerator{}
	copilot := newCopilot(t, store, gen)

	out, err := copilot.NextBestAction(context.Background(), "deal-1")
	if err != nil {
		t.Fatalf("NextBestAction: %v", err)
	}
	if out != "generated reply" {
		t.Errorf("unexpected reply: %q", out)
	}
	if !strings.Contains(gen.lastPrompt, "The Grand Hotel Network Upgrade") {
		t.Errorf("prompt missing deal name:\n%s", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "next best action") {
		t.Errorf("prompt missing task framing:\n%s", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "by John Doe") {
		t.Errorf("prompt missing interaction attribution:\n%s", gen.lastPrompt)
	}
}

func TestDraftEmail_PicksNewestAuthorWithEmail(t *testing.T) {
	store := memstore.NewSeeded()
	gen := &fakeGenerator{reply: func(_, _ string, _ bool) (string, error) {
		return `{"subject":"Proposal feedback","body":"Hi Sarah, ..."}`, nil
	}}
	copilot := newCopilot(t, store, gen)

	draft, err := copilot.DraftEmail(context.Background(), "deal-1", "Follow up on the proposal")
	if err != nil {
		t.Fatalf("DraftEmail: %v", err)
	}

	// The newest interaction (int-3) has no linked contact; the next one
	// down (int-2) was authored by Sarah Jenkins.
	if draft.To != "sarah.j@grandhotel.com" {
		t.Errorf("expected the first addressable author, got %q", draft.To)
	}
	if draft.Subject != "Proposal feedback" {
		t.Errorf("unexpected subject: %q", draft.Subject)
	}
	if !gen.lastJSONMode {
		t.Error("email drafting must request a JSON reply")
	}
}

func TestDraftEmail_MalformedReply(t *testing.T) {
	store := memstore.NewSeeded()
	gen := &fakeGenerator{reply: func(_, _ string, _ bool) (string, error) {
		return "sorry, no can do", nil
	}}
	copilot := newCopilot(t, store, gen)

	_, err := copilot.DraftEmail(context.Background(), "deal-1", "Follow up")
	var malformed *domain.ErrMalformedAIResponse
	if !errors.As(err, &malformed) {
		t.Fatalf("expected ErrMalformedAIResponse, got %v", err)
	}
}

// anonymousDealStore serves one deal whose only interaction has no linked
// contact, so no recipient can be resolved.
type anonymousDealStore struct {
	port.EntityStore
	deal        domain.Deal
	interaction domain.Interaction
}

func (s *anonymousDealStore) GetDeal(_ context.Context, dealID string) (*domain.Deal, error) {
	if dealID != s.deal.DealID {
		return nil, &domain.ErrNotFound{Resource: "deal", ID: dealID}
	}
	d := s.deal
	return &d, nil
}

func (s *anonymousDealStore) ListLinks(context.Context) ([]domain.InteractionLink, error) {
	return []domain.InteractionLink{
		{InteractionID: s.interaction.InteractionID, CompanyID: s.deal.CompanyID, DealID: s.deal.DealID},
	}, nil
}

func (s *anonymousDealStore) ListInteractions(context.Context, map[string]bool) ([]domain.Interaction, error) {
	return []domain.Interaction{s.interaction}, nil
}

func (s *anonymousDealStore) ListContacts(context.Context, string) ([]domain.Contact, error) {
	return nil, nil
}

func TestDraftEmail_NoRecipient(t *testing.T) {
	store := &anonymousDealStore{
		deal: domain.Deal{DealID: "deal-x", CompanyID: "comp-x", Name: "Anonymous Deal", Value: 1000, Stage: domain.StageQualifying},
		interaction: domain.Interaction{
			InteractionID: "int-x",
			Type:          domain.InteractionNote,
			Timestamp:     time.Now(),
			ContentRaw:    "Internal note with no contact attached.",
		},
	}
	gen := &fakeGenerator{}
	copilot := newCopilot(t, store, gen)

	_, err := copilot.DraftEmail(context.Background(), "deal-x", "Follow up")
	var noRecipient *domain.ErrNoRecipient
	if !errors.As(err, &noRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
	if gen.callCount() != 0 {
		t.Errorf("drafting must fail before calling the backend, got %d calls", gen.callCount())
	}
}
