package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gooseworks/goose-copilot/internal/domain"
	"github.com/gooseworks/goose-copilot/internal/infra/genai"
	"github.com/gooseworks/goose-copilot/internal/infra/observability"
	"github.com/gooseworks/goose-copilot/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var marketingTracer = otel.Tracer("service/marketing")

// Marketing provides the prospect research and content generation tools.
type Marketing struct {
	generator port.TextGenerator
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewMarketing creates the marketing service.
func NewMarketing(generator port.TextGenerator, metrics *observability.Metrics, logger *zap.Logger) *Marketing {
	return &Marketing{generator: generator, metrics: metrics, logger: logger}
}

// ResearchProspect builds an ephemeral prospect profile from a domain name.
// The profile is derived deterministically (a real integration would pull
// from enrichment APIs) and is never persisted; it lives in the caller's
// session only.
func (m *Marketing) ResearchProspect(domainName string) *domain.ProspectProfile {
	companyName := prospectCompanyName(domainName)

	return &domain.ProspectProfile{
		Domain:      domainName,
		CompanyName: companyName + " Solutions",
		Summary: fmt.Sprintf("An innovative company in the %s sector, focused on delivering cutting-edge solutions. "+
			"They appear to be in a growth phase, actively hiring for technical roles.", companyName),
		Industry: "Technology",
		TalkingPoints: []string{
			"Recent product launch in Q3.",
			"Mentioned in TechCrunch for their Series A funding.",
			"Known for a strong company culture.",
		},
		TechStack: []domain.TechStackItem{
			{Name: "React", Category: "Other", Description: "Frontend framework for building user interfaces."},
			{Name: "Google Analytics", Category: "Analytics", Description: "Web analytics service to track and report website traffic."},
			{Name: "HubSpot", Category: "Marketing Automation", Description: "Platform for inbound marketing, sales, and service."},
		},
		KeyContacts: []domain.ProspectContact{
			{Name: "Jane Smith", Role: "CEO", LinkedInURL: "https://linkedin.com/in/janesmith",
				OutreachSuggestion: "Reference their recent funding round and focus on long-term scalability."},
			{Name: "Robert Johnson", Role: "VP of Engineering", LinkedInURL: "https://linkedin.com/in/robertjohnson",
				OutreachSuggestion: "Focus on technical excellence and developer productivity."},
		},
		RecentNews: []domain.RecentNews{
			{Title: companyName + " Solutions Raises $15M Series A", URL: "#", PublishedDate: "2024-05-20",
				Summary: "The funding will be used to expand their engineering team and accelerate product development."},
			{Title: "The " + companyName + " Tech Stack That Powers Innovation", URL: "#", PublishedDate: "2024-04-10",
				Summary: "A deep dive into the technologies that give them a competitive edge in the market."},
		},
	}
}

// GenerateContent produces marketing copy in markdown.
func (m *Marketing) GenerateContent(ctx context.Context, prompt string) (string, error) {
	ctx, span := marketingTracer.Start(ctx, "Marketing.GenerateContent")
	defer span.End()

	systemInstruction := `You are "Goose", an expert marketing content creator. Your tone is engaging, professional, and slightly informal. You specialize in creating content for B2B technology companies. When asked to generate content, provide a well-structured response using Markdown for formatting (e.g., use headings, bold text, and bullet points).`

	out, usage, err := m.generator.Generate(ctx, systemInstruction, prompt, false)
	if err != nil {
		m.metrics.IncrExternalError("genai")
		m.metrics.IncrRequest("error")
		return "", err
	}
	m.metrics.RecordTokens(usage)
	m.metrics.IncrRequest("success")
	return out, nil
}

// leadListReply wraps the generated array so the reply is a JSON object
// and the brace-span salvage applies to it.
type leadListReply struct {
	Leads []domain.GeneratedLead `json:"leads"`
}

// GenerateLeadList builds a list of 5 plausible companies matching an ideal
// customer description.
func (m *Marketing) GenerateLeadList(ctx context.Context, description string) ([]domain.GeneratedLead, error) {
	ctx, span := marketingTracer.Start(ctx, "Marketing.GenerateLeadList")
	defer span.End()

	prompt := fmt.Sprintf(`You are an expert lead generation specialist. Based on the following description of an ideal customer, generate a list of 5 real or plausible companies that fit the profile. Your response MUST be a valid JSON object of the form {"leads": [{"company_name": "...", "domain": "..."}]}, with no other text or explanation.

Description: %q`, description)

	raw, usage, err := m.generator.Generate(ctx, "", prompt, true)
	if err != nil {
		m.metrics.IncrExternalError("genai")
		m.metrics.IncrRequest("error")
		return nil, err
	}

	var reply leadListReply
	if err := genai.ParseJSON(raw, &reply); err != nil {
		m.metrics.IncrRequest("error")
		m.logger.Warn("lead list reply not parseable", zap.Error(err))
		return nil, err
	}
	m.metrics.RecordTokens(usage)
	m.metrics.IncrRequest("success")
	return reply.Leads, nil
}

// prospectCompanyName derives a display name from a domain: the label
// before the first dot, dashes to spaces, words capitalized.
func prospectCompanyName(domainName string) string {
	label, _, _ := strings.Cut(domainName, ".")
	words := strings.Split(strings.ReplaceAll(label, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
