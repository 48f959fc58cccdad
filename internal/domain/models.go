// Package domain defines the core business entities for the Goose co-pilot.
// These models are independent of external services and represent the
// canonical data structures used throughout the backend.
package domain

import "time"

// ============================================================
// Companies
// ============================================================

// CompanyStatus is the attention tag shown on company cards.
type CompanyStatus string

const (
	CompanyStatusNone   CompanyStatus = ""
	CompanyStatusHot    CompanyStatus = "hot"
	CompanyStatusAtRisk CompanyStatus = "at_risk"
)

// Company is the root aggregate; contacts and deals hang off it.
type Company struct {
	CompanyID string        `json:"company_id"`
	Name      string        `json:"name"`
	Domain    string        `json:"domain"`
	Industry  string        `json:"industry"`
	AISummary string        `json:"ai_summary"`
	Status    CompanyStatus `json:"status,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewCompany carries the fields accepted on manual company creation.
type NewCompany struct {
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Industry string `json:"industry"`
}

// ============================================================
// Contacts
// ============================================================

// ContactStatus tags a contact's influence on the account.
type ContactStatus string

const (
	ContactStatusNone             ContactStatus = ""
	ContactStatusKeyDecisionMaker ContactStatus = "key_decision_maker"
)

// Contact always belongs to exactly one company.
type Contact struct {
	ContactID string        `json:"contact_id"`
	CompanyID string        `json:"company_id"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone,omitempty"`
	Role      string        `json:"role,omitempty"`
	Status    ContactStatus `json:"status,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// FullName returns the contact's display name.
func (c Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// NewContact carries the fields accepted on contact creation.
type NewContact struct {
	CompanyID string `json:"company_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
}

// ============================================================
// Deals
// ============================================================

// DealStage is the ordered pipeline stage of a deal.
type DealStage string

const (
	StageProspecting DealStage = "Prospecting"
	StageQualifying  DealStage = "Qualifying"
	StageProposal    DealStage = "Proposal"
	StageNegotiation DealStage = "Negotiation"
	StageClosedWon   DealStage = "Closed-Won"
	StageClosedLost  DealStage = "Closed-Lost"
)

// dealStageOrder backs stage-skip validation. Closed-Lost is terminal
// and reachable from any open stage, so it carries no rank.
var dealStageOrder = map[DealStage]int{
	StageProspecting: 0,
	StageQualifying:  1,
	StageProposal:    2,
	StageNegotiation: 3,
	StageClosedWon:   4,
}

// CanAdvance reports whether a deal may move from one stage to the next
// without skipping. Closed-Lost is allowed from any non-terminal stage.
func CanAdvance(from, to DealStage) bool {
	if from == StageClosedWon || from == StageClosedLost {
		return false
	}
	if to == StageClosedLost {
		return true
	}
	fromRank, okFrom := dealStageOrder[from]
	toRank, okTo := dealStageOrder[to]
	return okFrom && okTo && toRank == fromRank+1
}

// HealthPoint is one sample of a deal's AI health score history.
type HealthPoint struct {
	Date  string `json:"date"`
	Score int    `json:"score"`
}

// Deal is a sales opportunity against a company.
type Deal struct {
	DealID            string        `json:"deal_id"`
	CompanyID         string        `json:"company_id"`
	Name              string        `json:"deal_name"`
	Stage             DealStage     `json:"stage"`
	Value             float64       `json:"value"`
	CloseDateExpected string        `json:"close_date_expected"`
	AIHealthScore     int           `json:"ai_health_score"`
	AINextBestAction  string        `json:"ai_next_best_action,omitempty"`
	HealthHistory     []HealthPoint `json:"ai_health_score_history,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`

	// LastInteractionAt is derived from linked interactions, never stored.
	LastInteractionAt *time.Time `json:"last_interaction_at,omitempty"`
}

// HealthTrend returns the score delta between the newest and oldest history
// samples, or 0 when fewer than two samples exist.
func (d Deal) HealthTrend() int {
	if len(d.HealthHistory) < 2 {
		return 0
	}
	return d.HealthHistory[len(d.HealthHistory)-1].Score - d.HealthHistory[0].Score
}

// ============================================================
// Interactions & links
// ============================================================

// InteractionType identifies the channel a client touchpoint came through.
type InteractionType string

const (
	InteractionEmail        InteractionType = "EMAIL"
	InteractionMeeting      InteractionType = "MEETING"
	InteractionCallLog      InteractionType = "CALL_LOG"
	InteractionNote         InteractionType = "NOTE"
	InteractionProposalView InteractionType = "PROPOSAL_VIEW"
)

// Sentiment is an AI-assigned tone classification.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentNegative Sentiment = "NEGATIVE"
)

// Author is the presentation-layer attribution of an interaction,
// resolved from the linked contact on every timeline call.
type Author struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
}

// SystemAuthor is the sentinel for interactions with no linked contact.
var SystemAuthor = Author{Name: "System", Role: "Notification"}

// Interaction is one timestamped record of client contact. Immutable once
// created except for AISummary, which is filled at most once.
type Interaction struct {
	InteractionID    string          `json:"interaction_id"`
	Type             InteractionType `json:"type"`
	SourceIdentifier string          `json:"source_identifier"`
	Timestamp        time.Time       `json:"timestamp"`
	ContentRaw       string          `json:"content_raw"`
	AISummary        string          `json:"ai_summary,omitempty"`
	AISentiment      Sentiment       `json:"ai_sentiment,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`

	Author *Author `json:"author,omitempty"`
}

// InteractionLink associates an interaction with the company it belongs to
// and, optionally, a deal and/or contact. CompanyID is always set.
type InteractionLink struct {
	InteractionID string `json:"interaction_id"`
	CompanyID     string `json:"company_id"`
	DealID        string `json:"deal_id,omitempty"`
	ContactID     string `json:"contact_id,omitempty"`
}

// TimelineFilter scopes a timeline query to a single facet. Callers set
// exactly one field; when several are set the most specific wins.
type TimelineFilter struct {
	DealID    string `json:"deal_id,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	ContactID string `json:"contact_id,omitempty"`
}

// IsZero reports whether no facet is set.
func (f TimelineFilter) IsZero() bool {
	return f.DealID == "" && f.CompanyID == "" && f.ContactID == ""
}

// ============================================================
// Support tickets
// ============================================================

// TicketStatus is directly settable; no ordering is enforced.
type TicketStatus string

const (
	TicketOpen    TicketStatus = "OPEN"
	TicketPending TicketStatus = "PENDING"
	TicketClosed  TicketStatus = "CLOSED"
)

// SupportTicket groups the interactions of one support thread.
type SupportTicket struct {
	TicketID       string       `json:"ticket_id"`
	ContactID      string       `json:"contact_id"`
	Status         TicketStatus `json:"status"`
	Subject        string       `json:"subject"`
	InteractionIDs []string     `json:"interaction_ids"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewSupportTicket carries the fields accepted on ticket creation. The
// initial message becomes the thread's first interaction.
type NewSupportTicket struct {
	ContactID      string `json:"contact_id"`
	Subject        string `json:"subject"`
	InitialMessage string `json:"initial_message"`
}

// ============================================================
// Prospects (ephemeral research artifacts)
// ============================================================

// TechStackItem is one detected technology on a prospect's site.
type TechStackItem struct {
	Name        string `json:"name"`
	Category    string `json:"category"` // CMS, Analytics, Marketing Automation, CRM, Other
	Description string `json:"description"`
}

// ProspectContact is a researched person at a prospect company.
type ProspectContact struct {
	Name               string `json:"name"`
	Role               string `json:"role"`
	LinkedInURL        string `json:"linkedin_url,omitempty"`
	OutreachSuggestion string `json:"ai_outreach_suggestion"`
}

// RecentNews is one news item surfaced during prospect research.
type RecentNews struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	PublishedDate string `json:"published_date"`
	Summary       string `json:"summary"`
}

// ProspectProfile is a generated research artifact keyed by domain.
// It is never persisted; it lives only in the caller's session.
type ProspectProfile struct {
	Domain        string            `json:"domain"`
	CompanyName   string            `json:"company_name"`
	Summary       string            `json:"summary"`
	Industry      string            `json:"industry"`
	TalkingPoints []string          `json:"talking_points"`
	TechStack     []TechStackItem   `json:"tech_stack"`
	KeyContacts   []ProspectContact `json:"key_contacts"`
	RecentNews    []RecentNews      `json:"recent_news"`
}

// GeneratedLead is one entry of an AI-built lead list.
type GeneratedLead struct {
	CompanyName string `json:"company_name"`
	Domain      string `json:"domain"`
}

// ============================================================
// Email drafting
// ============================================================

// EmailDraft is a ready-to-send email produced by the co-pilot.
type EmailDraft struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ============================================================
// Co-pilot subjects
// ============================================================

// SubjectKind discriminates which entity the co-pilot is focused on.
// It is set explicitly at the call site, never inferred from shape.
type SubjectKind string

const (
	SubjectNone     SubjectKind = ""
	SubjectProspect SubjectKind = "PROSPECT"
	SubjectDeal     SubjectKind = "DEAL"
	SubjectCompany  SubjectKind = "COMPANY"
	SubjectContact  SubjectKind = "CONTACT"
	SubjectTicket   SubjectKind = "TICKET"
)

// Subject bundles everything a co-pilot call may reference. A caller can
// populate several fields (a deal view also knows its company); Kind()
// resolves the most specific one.
type Subject struct {
	Prospect     *ProspectProfile `json:"prospect,omitempty"`
	Deal         *Deal            `json:"deal,omitempty"`
	Company      *Company         `json:"company,omitempty"`
	Contact      *Contact         `json:"contact,omitempty"`
	Ticket       *SupportTicket   `json:"ticket,omitempty"`
	Interactions []Interaction    `json:"interactions,omitempty"`
}

// Kind resolves the subject discriminator in fixed precedence order:
// prospect > deal > company > contact > ticket > none.
func (s Subject) Kind() SubjectKind {
	switch {
	case s.Prospect != nil:
		return SubjectProspect
	case s.Deal != nil:
		return SubjectDeal
	case s.Company != nil:
		return SubjectCompany
	case s.Contact != nil:
		return SubjectContact
	case s.Ticket != nil:
		return SubjectTicket
	default:
		return SubjectNone
	}
}

// ============================================================
// Auth (mock sign-in)
// ============================================================

// LoginRequest is the mocked sign-in payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ============================================================
// Overview (initial load fan-out)
// ============================================================

// Overview is the initial dashboard payload, fetched in one fan-out.
type Overview struct {
	Companies []Company       `json:"companies"`
	Contacts  []Contact       `json:"contacts"`
	Deals     []Deal          `json:"deals"`
	Tickets   []SupportTicket `json:"tickets"`
}

// ============================================================
// Token accounting
// ============================================================

// TokenUsage reports generator token consumption for one call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CopilotMetrics is the snapshot served by GET /v1/metrics/copilot.
type CopilotMetrics struct {
	TotalRequests       int64   `json:"total_requests"`
	ErrorRate           float64 `json:"error_rate"`
	AvgTokensPerRequest float64 `json:"avg_tokens_per_request"`
	EstimatedCostUsd    float64 `json:"estimated_cost_usd"`
	CacheHitRate        float64 `json:"cache_hit_rate"`
	Period              string  `json:"period"`
}
