package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gooseworks/goose-copilot/internal/domain"
	"github.com/gooseworks/goose-copilot/internal/port"

	"golang.org/x/sync/errgroup"
)

// summaryPrefix marks a co-pilot question as a subject summary request.
// The kind after the colon replaces the question with a fixed sentence.
const summaryPrefix = "GENERATE_SUMMARY:"

// AssembledContext is a composed co-pilot prompt: the per-kind system
// instruction plus the context block and the (possibly substituted) user
// question, already joined into the full prompt.
type AssembledContext struct {
	Kind              domain.SubjectKind
	SystemInstruction string
	FullPrompt        string
}

// ContextAssembler turns a subject and a question into a generator prompt.
// The subject kind is resolved explicitly through Subject.Kind(); the
// assembler never infers it from payload shape.
type ContextAssembler struct {
	store    port.EntityStore
	timeline *TimelineService
}

// NewContextAssembler creates the assembler.
func NewContextAssembler(store port.EntityStore, timeline *TimelineService) *ContextAssembler {
	return &ContextAssembler{store: store, timeline: timeline}
}

// Build assembles the system instruction and full prompt for a co-pilot
// call. A question of the form "GENERATE_SUMMARY:<KIND>" is replaced with
// the fixed summary sentence for that kind.
func (a *ContextAssembler) Build(ctx context.Context, subject domain.Subject, question string) (*AssembledContext, error) {
	userQuestion := question
	if rest, ok := strings.CutPrefix(question, summaryPrefix); ok {
		userQuestion = fmt.Sprintf(
			"Please provide a concise, insightful summary of the current status of this %s. Focus on the most important information a user would need to know at a glance.",
			strings.ToLower(rest),
		)
	}

	kind := subject.Kind()
	var (
		systemInstruction string
		contextBlock      string
		err               error
	)

	switch kind {
	case domain.SubjectProspect:
		systemInstruction, contextBlock = a.prospectContext(subject.Prospect)
	case domain.SubjectDeal:
		systemInstruction, contextBlock, err = a.dealContext(ctx, subject)
	case domain.SubjectCompany:
		systemInstruction, contextBlock, err = a.companyContext(ctx, subject)
	case domain.SubjectContact:
		systemInstruction, contextBlock, err = a.contactContext(ctx, subject)
	case domain.SubjectTicket:
		systemInstruction, contextBlock, err = a.ticketContext(ctx, subject)
	default:
		systemInstruction, contextBlock, err = a.globalContext(ctx)
	}
	if err != nil {
		return nil, err
	}

	return &AssembledContext{
		Kind:              kind,
		SystemInstruction: systemInstruction,
		FullPrompt:        contextBlock + "\n\nUser Question: " + userQuestion,
	}, nil
}

func (a *ContextAssembler) prospectContext(p *domain.ProspectProfile) (string, string) {
	instruction := `You are an expert marketing and sales co-pilot named Goose. You are assisting with a prospect that has been researched.
Based on the provided prospect profile, answer the user's question. Focus on creating outreach strategies or content ideas.`

	contacts := make([]string, 0, len(p.KeyContacts))
	for _, c := range p.KeyContacts {
		contacts = append(contacts, fmt.Sprintf("%s (%s)", c.Name, c.Role))
	}
	block := fmt.Sprintf("Prospect: %s\nSummary: %s\nKey Contacts: %s\nTalking Points: %s",
		p.CompanyName, p.Summary, strings.Join(contacts, ", "), strings.Join(p.TalkingPoints, ", "))
	return instruction, block
}

func (a *ContextAssembler) dealContext(ctx context.Context, subject domain.Subject) (string, string, error) {
	instruction := `You are an expert sales co-pilot named Goose. You are assisting a sales representative with a specific deal.
Based on the provided deal information, interaction history, and the user's question, provide a helpful and concise response.
Analyze the context and the user's query to give an insightful answer. Do not just repeat the information given.
If the user asks for an action that you can help with (like drafting an email), be ready to provide actionable suggestions.`

	deal := subject.Deal
	interactions, err := a.subjectInteractions(ctx, subject, domain.TimelineFilter{DealID: deal.DealID})
	if err != nil {
		return "", "", err
	}

	block := fmt.Sprintf("Deal: %s\nValue: $%.0f\nCurrent Stage: %s\n\nInteraction History:\n%s",
		deal.Name, deal.Value, deal.Stage, historyLines(interactions, 5))
	return instruction, block, nil
}

func (a *ContextAssembler) companyContext(ctx context.Context, subject domain.Subject) (string, string, error) {
	instruction := `You are an expert business analyst named Goose, providing insights about a specific company.
Based on the company data and recent interactions, answer the user's question. Provide an insightful summary, not just raw data.`

	company := subject.Company

	var (
		contacts     []domain.Contact
		deals        []domain.Deal
		interactions []domain.Interaction
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contacts, err = a.store.ListContacts(gCtx, company.CompanyID)
		return err
	})
	g.Go(func() error {
		var err error
		deals, err = a.store.ListDeals(gCtx, company.CompanyID)
		return err
	})
	g.Go(func() error {
		var err error
		interactions, err = a.subjectInteractions(gCtx, subject, domain.TimelineFilter{CompanyID: company.CompanyID})
		return err
	})
	if err := g.Wait(); err != nil {
		return "", "", err
	}

	contactNames := make([]string, 0, len(contacts))
	for _, c := range contacts {
		contactNames = append(contactNames, fmt.Sprintf("%s (%s)", c.FullName(), c.Role))
	}
	dealNames := make([]string, 0, len(deals))
	for _, d := range deals {
		dealNames = append(dealNames, fmt.Sprintf("%s ($%.0f)", d.Name, d.Value))
	}

	block := fmt.Sprintf("Company: %s\nIndustry: %s\nAI Summary: %s\n\nContacts: %s\n\nActive Deals: %s\n\nRecent Interactions:\n%s",
		company.Name, company.Industry, company.AISummary,
		strings.Join(contactNames, ", "), strings.Join(dealNames, ", "),
		historyLines(interactions, 3))
	return instruction, block, nil
}

func (a *ContextAssembler) contactContext(ctx context.Context, subject domain.Subject) (string, string, error) {
	instruction := `You are an expert business analyst named Goose, providing insights about a specific contact.
Based on the contact's data and interaction history, answer the user's question. Focus on their role, sentiment, and key topics of discussion.`

	contact := subject.Contact
	companyName := ""
	if company, err := a.store.GetCompany(ctx, contact.CompanyID); err == nil {
		companyName = company.Name
	}
	interactions, err := a.subjectInteractions(ctx, subject, domain.TimelineFilter{ContactID: contact.ContactID})
	if err != nil {
		return "", "", err
	}

	block := fmt.Sprintf("Contact: %s\nRole: %s\nCompany: %s\n\nRecent Interactions:\n%s",
		contact.FullName(), contact.Role, companyName, historyLines(interactions, 5))
	return instruction, block, nil
}

func (a *ContextAssembler) ticketContext(ctx context.Context, subject domain.Subject) (string, string, error) {
	instruction := `You are an expert customer support co-pilot named Goose. You are assisting a support agent with a specific ticket.
Based on the provided ticket information and interaction history, provide a helpful and concise response.
Analyze the context and the user's query to give an insightful answer. You can summarize the thread, draft a reply, or suggest knowledge base articles.`

	ticket := subject.Ticket
	customerName := ""
	if contact, err := a.store.GetContact(ctx, ticket.ContactID); err == nil {
		customerName = contact.FullName()
	}

	interactions := subject.Interactions
	if len(interactions) == 0 {
		var err error
		interactions, err = a.timeline.Thread(ctx, ticket.InteractionIDs)
		if err != nil {
			return "", "", err
		}
	}

	// Ticket threads are attributed by author name and always quote raw
	// content; a cached summary would hide the customer's wording.
	var lines []string
	for i, in := range interactions {
		if i == 5 {
			break
		}
		name := domain.SystemAuthor.Name
		if in.Author != nil {
			name = in.Author.Name
		}
		lines = append(lines, fmt.Sprintf("[%s - %s]: %s...",
			in.Timestamp.Format("1/2/2006"), name, truncate(in.ContentRaw, 100)))
	}

	block := fmt.Sprintf("Ticket Subject: %q\nStatus: %s\nCustomer: %s\n\nInteraction History:\n%s",
		ticket.Subject, ticket.Status, customerName, strings.Join(lines, "\n"))
	return instruction, block, nil
}

// globalContext serves questions with no subject: an app-wide directory of
// names so the model can answer "find" questions and how-to questions.
func (a *ContextAssembler) globalContext(ctx context.Context) (string, string, error) {
	var (
		companies []domain.Company
		deals     []domain.Deal
		contacts  []domain.Contact
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		companies, err = a.store.ListCompanies(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		deals, err = a.store.ListDeals(gCtx, "")
		return err
	})
	g.Go(func() error {
		var err error
		contacts, err = a.store.ListContacts(gCtx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return "", "", err
	}

	companyNames := make([]string, 0, len(companies))
	for _, c := range companies {
		companyNames = append(companyNames, c.Name)
	}
	dealNames := make([]string, 0, len(deals))
	for _, d := range deals {
		dealNames = append(dealNames, d.Name)
	}
	contactNames := make([]string, 0, len(contacts))
	for _, c := range contacts {
		contactNames = append(contactNames, c.FullName())
	}

	instruction := fmt.Sprintf(`You are "Goose", a helpful AI assistant for a business operating system. You can answer questions about how to use the application, or you can search for information across all business data.
You have access to the following data:
- Companies: %s
- Active Deals: %s
- Contacts: %s

When asked how to do something in the app, provide clear, step-by-step instructions.
When asked to find information, query your available data and provide a concise summary.`,
		strings.Join(companyNames, ", "), strings.Join(dealNames, ", "), strings.Join(contactNames, ", "))

	return instruction, "User is asking a question in a global context, not specific to any single deal.", nil
}

// subjectInteractions prefers the caller-supplied history; otherwise it
// falls back to the scoped timeline.
func (a *ContextAssembler) subjectInteractions(ctx context.Context, subject domain.Subject, filter domain.TimelineFilter) ([]domain.Interaction, error) {
	if len(subject.Interactions) > 0 {
		return subject.Interactions, nil
	}
	return a.timeline.Timeline(ctx, filter)
}

// historyLines renders up to limit interactions as dated one-liners,
// preferring the cached AI summary over a raw-content prefix.
func historyLines(interactions []domain.Interaction, limit int) string {
	var lines []string
	for i, in := range interactions {
		if i == limit {
			break
		}
		body := in.AISummary
		if body == "" {
			body = truncate(in.ContentRaw, 100)
		}
		lines = append(lines, fmt.Sprintf("[%s - %s]: %s...",
			in.Timestamp.Format("1/2/2006"), in.Type, body))
	}
	return strings.Join(lines, "\n")
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
