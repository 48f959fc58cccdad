package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gooseworks/goose-copilot/internal/domain"
	"github.com/gooseworks/goose-copilot/internal/infra/genai"
	"github.com/gooseworks/goose-copilot/internal/infra/observability"
	"github.com/gooseworks/goose-copilot/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var copilotTracer = otel.Tracer("service/copilot")

// Copilot orchestrates the AI operations: contextual Q&A, summaries, next
// best actions and email drafting.
type Copilot struct {
	store     port.EntityStore
	timeline  *TimelineService
	assembler *ContextAssembler
	generator port.TextGenerator
	cache     port.Cache[string]
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewCopilot creates the co-pilot service with all dependencies injected.
func NewCopilot(
	store port.EntityStore,
	timeline *TimelineService,
	assembler *ContextAssembler,
	generator port.TextGenerator,
	cache port.Cache[string],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Copilot {
	return &Copilot{
		store:     store,
		timeline:  timeline,
		assembler: assembler,
		generator: generator,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}
}

// Respond answers a free-form question against a subject. Subject summary
// requests (the GENERATE_SUMMARY prefix) are cached by kind and id so
// re-selecting the same entity does not re-bill the backend.
func (c *Copilot) Respond(ctx context.Context, subject domain.Subject, question string) (string, error) {
	ctx, span := copilotTracer.Start(ctx, "Copilot.Respond")
	defer span.End()
	span.SetAttributes(attribute.String("copilot.subject_kind", string(subject.Kind())))

	start := time.Now()
	defer func() {
		c.metrics.RecordRequestDuration("copilot", time.Since(start))
	}()

	cacheKey := c.summaryCacheKey(subject, question)
	if cacheKey != "" {
		if cached, ok := c.cache.Get(cacheKey); ok {
			c.metrics.IncrCacheHit("summary")
			return cached, nil
		}
		c.metrics.IncrCacheMiss("summary")
	}

	assembled, err := c.assembler.Build(ctx, subject, question)
	if err != nil {
		return "", err
	}

	text, usage, err := c.generator.Generate(ctx, assembled.SystemInstruction, assembled.FullPrompt, false)
	if err != nil {
		c.recordFailure("copilot", err)
		return "", err
	}
	c.recordSuccess(usage)

	if cacheKey != "" {
		c.cache.Set(cacheKey, text)
	}
	return text, nil
}

// Summarize condenses free text into a short paragraph.
func (c *Copilot) Summarize(ctx context.Context, text string) (string, error) {
	ctx, span := copilotTracer.Start(ctx, "Copilot.Summarize")
	defer span.End()

	prompt := fmt.Sprintf("Summarize the following text into a concise paragraph, focusing on key decisions and action items:\n\n---\n%s\n---", text)
	out, usage, err := c.generator.Generate(ctx, "", prompt, false)
	if err != nil {
		c.recordFailure("summarize", err)
		return "", err
	}
	c.recordSuccess(usage)
	return out, nil
}

// SummarizeInteraction returns the interaction's cached summary, generating
// and persisting one on the first request. The store's at-most-once fill
// keeps concurrent first requests from overwriting each other; the cost of
// that race is one extra generation, not corrupted state.
func (c *Copilot) SummarizeInteraction(ctx context.Context, interactionID string) (string, error) {
	ctx, span := copilotTracer.Start(ctx, "Copilot.SummarizeInteraction")
	defer span.End()

	interaction, err := c.store.GetInteraction(ctx, interactionID)
	if err != nil {
		return "", err
	}
	if interaction.AISummary != "" {
		c.metrics.IncrCacheHit("interaction_summary")
		return interaction.AISummary, nil
	}
	c.metrics.IncrCacheMiss("interaction_summary")

	summary, err := c.Summarize(ctx, interaction.ContentRaw)
	if err != nil {
		return "", err
	}
	if err := c.store.SetInteractionSummary(ctx, interactionID, summary); err != nil {
		return "", err
	}

	// Re-read: a concurrent fill may have won, and the stored value is
	// canonical.
	interaction, err = c.store.GetInteraction(ctx, interactionID)
	if err != nil {
		return "", err
	}
	return interaction.AISummary, nil
}

// NextBestAction suggests the single most impactful follow-up for a deal.
func (c *Copilot) NextBestAction(ctx context.Context, dealID string) (string, error) {
	ctx, span := copilotTracer.Start(ctx, "Copilot.NextBestAction")
	defer span.End()
	span.SetAttributes(attribute.String("deal.id", dealID))

	deal, err := c.store.GetDeal(ctx, dealID)
	if err != nil {
		return "", err
	}
	interactions, err := c.timeline.Timeline(ctx, domain.TimelineFilter{DealID: dealID})
	if err != nil {
		return "", err
	}

	var lines []string
	for _, in := range interactions {
		author := domain.SystemAuthor.Name
		if in.Author != nil {
			author = in.Author.Name
		}
		body := in.AISummary
		if body == "" {
			body = truncate(in.ContentRaw, 150)
		}
		lines = append(lines, fmt.Sprintf("[%s - %s by %s]: %s...",
			in.Timestamp.Format(time.RFC3339), in.Type, author, body))
	}

	prompt := fmt.Sprintf(`You are an expert sales co-pilot. Based on the following deal information and interaction history, suggest the single, most impactful "next best action" for the sales representative to take to move this deal forward. Be concise and actionable.

Deal: %s
Value: $%.0f
Current Stage: %s

Interaction History:
%s`, deal.Name, deal.Value, deal.Stage, strings.Join(lines, "\n"))

	out, usage, err := c.generator.Generate(ctx, "", prompt, false)
	if err != nil {
		c.recordFailure("next_best_action", err)
		return "", err
	}
	c.recordSuccess(usage)
	return out, nil
}

// emailContent is the shape the generator must return for a draft.
type emailContent struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// DraftEmail produces a ready-to-send email actioning a suggestion. The
// recipient is the first interaction author with an email address; a deal
// whose history has none fails with ErrNoRecipient.
func (c *Copilot) DraftEmail(ctx context.Context, dealID, suggestion string) (*domain.EmailDraft, error) {
	ctx, span := copilotTracer.Start(ctx, "Copilot.DraftEmail")
	defer span.End()
	span.SetAttributes(attribute.String("deal.id", dealID))

	deal, err := c.store.GetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	interactions, err := c.timeline.Timeline(ctx, domain.TimelineFilter{DealID: dealID})
	if err != nil {
		return nil, err
	}

	var recipient *domain.Author
	for _, in := range interactions {
		if in.Author != nil && in.Author.Email != "" {
			recipient = in.Author
			break
		}
	}
	if recipient == nil {
		return nil, &domain.ErrNoRecipient{DealID: dealID}
	}

	lastContent := "N/A"
	if len(interactions) > 0 {
		lastContent = interactions[0].ContentRaw
	}

	prompt := fmt.Sprintf(`You are a helpful sales assistant named Goose. Based on the following context, draft a professional and concise email to the client to action the suggestion. The email body should be ready to send and include a placeholder like "[Your Name]" for the sender's signature.

Context:
Deal Name: %s
Client Contact: %s
Suggested action to take: %s
Last interaction: %s

Return a valid JSON object with "subject" and "body" keys.`,
		deal.Name, recipient.Name, suggestion, lastContent)

	raw, usage, err := c.generator.Generate(ctx, "", prompt, true)
	if err != nil {
		c.recordFailure("draft_email", err)
		return nil, err
	}

	var content emailContent
	if err := genai.ParseJSON(raw, &content); err != nil {
		c.metrics.IncrRequest("error")
		c.logger.Warn("email draft reply not parseable", zap.Error(err))
		return nil, err
	}
	c.recordSuccess(usage)

	return &domain.EmailDraft{
		To:      recipient.Email,
		Subject: content.Subject,
		Body:    content.Body,
	}, nil
}

// summaryCacheKey returns a cache key for a subject summary request, or ""
// when the call is not cacheable (free-form question, or a subject with no
// stable id such as an ephemeral prospect).
func (c *Copilot) summaryCacheKey(subject domain.Subject, question string) string {
	if !strings.HasPrefix(question, summaryPrefix) {
		return ""
	}
	switch subject.Kind() {
	case domain.SubjectDeal:
		return "summary:deal:" + subject.Deal.DealID
	case domain.SubjectCompany:
		return "summary:company:" + subject.Company.CompanyID
	case domain.SubjectContact:
		return "summary:contact:" + subject.Contact.ContactID
	case domain.SubjectTicket:
		return "summary:ticket:" + subject.Ticket.TicketID
	default:
		return ""
	}
}

func (c *Copilot) recordSuccess(usage domain.TokenUsage) {
	c.metrics.RecordTokens(usage)
	c.metrics.IncrRequest("success")
}

func (c *Copilot) recordFailure(operation string, err error) {
	c.metrics.IncrExternalError("genai")
	c.metrics.IncrRequest("error")
	c.logger.Error("generation failed",
		zap.String("operation", operation),
		zap.Error(err),
	)
}
