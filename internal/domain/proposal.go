package domain

import "time"

// ============================================================
// Proposals
// ============================================================

// ProposalStatus follows a linear lifecycle; EXPIRED is reachable from any
// state before PAID.
type ProposalStatus string

const (
	ProposalDraft    ProposalStatus = "DRAFT"
	ProposalSent     ProposalStatus = "SENT"
	ProposalViewed   ProposalStatus = "VIEWED"
	ProposalAccepted ProposalStatus = "ACCEPTED"
	ProposalPaid     ProposalStatus = "PAID"
	ProposalExpired  ProposalStatus = "EXPIRED"
)

// PaymentStatus tracks payment independently of acceptance. It is only
// meaningful once the proposal is ACCEPTED.
type PaymentStatus string

const (
	PaymentNone    PaymentStatus = "NONE"
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

var proposalNext = map[ProposalStatus]ProposalStatus{
	ProposalDraft:    ProposalSent,
	ProposalSent:     ProposalViewed,
	ProposalViewed:   ProposalAccepted,
	ProposalAccepted: ProposalPaid,
}

// CanTransition reports whether a proposal may move from one status to
// another. The lifecycle is strictly linear; EXPIRED is a side exit open
// until payment.
func CanTransition(from, to ProposalStatus) bool {
	if to == ProposalExpired {
		return from != ProposalPaid && from != ProposalExpired
	}
	return proposalNext[from] == to
}

// ProposalItem is one line item of a generated proposal. IDs are unique
// within a proposal so the UI can toggle items on and off.
type ProposalItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Price       float64  `json:"price"`
	Type        string   `json:"type"` // one-time or recurring
	Quantity    int      `json:"quantity"`
}

// ItemTypeOneTime and ItemTypeRecurring are the only valid line item types.
const (
	ItemTypeOneTime   = "one-time"
	ItemTypeRecurring = "recurring"
)

// ROIProjection is one projected benefit included in a proposal.
type ROIProjection struct {
	Metric      string `json:"metric"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// ProposalContent is the fixed-shape document the synthesizer produces.
type ProposalContent struct {
	ProposalTitle      string          `json:"proposalTitle"`
	ClientName         string          `json:"clientName"`
	ExecutiveSummary   string          `json:"executiveSummary"`
	ClientChallenges   string          `json:"clientChallenges"`
	SolutionItems      []ProposalItem  `json:"solutionItems"`
	ROIProjections     []ROIProjection `json:"roiProjections"`
	TermsAndConditions string          `json:"termsAndConditions"`
}

// TotalValue sums price x quantity across line items.
func (c ProposalContent) TotalValue() float64 {
	var total float64
	for _, item := range c.SolutionItems {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Validate checks the structural rules the synthesizer must enforce on a
// parsed proposal: 3-5 line items, unique non-empty item ids, valid item
// types and a client name. The deal-value soft constraint is advisory and
// checked by the caller, not here.
func (c ProposalContent) Validate() error {
	if c.ClientName == "" {
		return &ErrValidation{Field: "clientName", Message: "must not be empty"}
	}
	if n := len(c.SolutionItems); n < 3 || n > 5 {
		return &ErrValidation{Field: "solutionItems", Message: "must contain between 3 and 5 items"}
	}
	seen := make(map[string]bool, len(c.SolutionItems))
	for _, item := range c.SolutionItems {
		if item.ID == "" {
			return &ErrValidation{Field: "solutionItems.id", Message: "must not be empty"}
		}
		if seen[item.ID] {
			return &ErrValidation{Field: "solutionItems.id", Message: "duplicate item id " + item.ID}
		}
		seen[item.ID] = true
		if item.Type != ItemTypeOneTime && item.Type != ItemTypeRecurring {
			return &ErrValidation{Field: "solutionItems.type", Message: "must be one-time or recurring"}
		}
	}
	if n := len(c.ROIProjections); n < 2 || n > 3 {
		return &ErrValidation{Field: "roiProjections", Message: "must contain between 2 and 3 projections"}
	}
	return nil
}

// Proposal is a versioned, generated document attached to a deal.
type Proposal struct {
	ProposalID         string          `json:"proposal_id"`
	DealID             string          `json:"deal_id"`
	Version            int             `json:"version"`
	Status             ProposalStatus  `json:"status"`
	Content            ProposalContent `json:"content"`
	PublicShareURL     string          `json:"public_share_url,omitempty"`
	SentAt             *time.Time      `json:"sent_at,omitempty"`
	SignedAt           *time.Time      `json:"signed_at,omitempty"`
	Signature          string          `json:"signature,omitempty"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
	PaymentGatewayTxID string          `json:"payment_gateway_tx_id,omitempty"`
	FinalAcceptedValue *float64        `json:"final_accepted_value,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
