package memstore

import (
	"math/rand"
	"time"

	"github.com/gooseworks/goose-copilot/internal/domain"
)

// seed loads the demo dataset used when no real data backend is wired.

func ts(value string) time.Time {
	t, _ := time.Parse(time.RFC3339, value)
	return t
}

// healthHistory builds a noisy score ramp ending today.
func healthHistory(start, end, points int) []domain.HealthPoint {
	history := make([]domain.HealthPoint, 0, points)
	for i := 0; i < points; i++ {
		day := time.Now().AddDate(0, 0, -(points - 1 - i))
		score := start + (end-start)*i/(points-1) + rand.Intn(11) - 5
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		history = append(history, domain.HealthPoint{Date: day.Format("2006-01-02"), Score: score})
	}
	return history
}

func (s *Store) seed() {
	s.companies = []domain.Company{
		{CompanyID: "comp-1", Name: "The Grand Hotel", Domain: "grandhotel.com", Industry: "Hospitality", AISummary: "Luxury hotel chain focused on premium guest experiences.", Status: domain.CompanyStatusHot, CreatedAt: ts("2023-01-15T09:00:00Z"), UpdatedAt: ts("2023-10-20T10:00:00Z")},
		{CompanyID: "comp-2", Name: "Innovate Corp", Domain: "innovatecorp.com", Industry: "Technology", AISummary: "SaaS company providing cloud solutions, known for being budget-conscious.", CreatedAt: ts("2023-02-20T11:00:00Z"), UpdatedAt: ts("2023-10-21T12:00:00Z")},
		{CompanyID: "comp-3", Name: "General Retail Inc.", Domain: "generalretail.com", Industry: "Retail", AISummary: "Large retail chain with 15 locations.", Status: domain.CompanyStatusAtRisk, CreatedAt: ts("2023-03-10T14:00:00Z"), UpdatedAt: ts("2023-11-10T15:00:00Z")},
	}

	s.contacts = []domain.Contact{
		{ContactID: "cont-1", CompanyID: "comp-1", FirstName: "John", LastName: "Doe", Email: "john.doe@grandhotel.com", Role: "IT Director", Status: domain.ContactStatusKeyDecisionMaker, CreatedAt: ts("2023-10-26T10:00:00Z"), UpdatedAt: ts("2023-10-26T10:00:00Z")},
		{ContactID: "cont-2", CompanyID: "comp-2", FirstName: "Michael", LastName: "Chen", Email: "m.chen@innovatecorp.com", Role: "CTO", Status: domain.ContactStatusKeyDecisionMaker, CreatedAt: ts("2023-10-15T09:00:00Z"), UpdatedAt: ts("2023-10-15T09:00:00Z")},
		{ContactID: "cont-3", CompanyID: "comp-3", FirstName: "David", LastName: "Ortiz", Email: "d.ortiz@generalretail.com", Role: "Operations Manager", CreatedAt: ts("2023-11-10T11:20:00Z"), UpdatedAt: ts("2023-11-10T11:20:00Z")},
		{ContactID: "cont-4", CompanyID: "comp-1", FirstName: "Sarah", LastName: "Jenkins", Email: "sarah.j@grandhotel.com", Role: "Project Manager", CreatedAt: ts("2023-01-01T10:00:00Z"), UpdatedAt: ts("2023-01-01T10:00:00Z")},
		{ContactID: "cont-5", CompanyID: "comp-2", FirstName: "Emily", LastName: "White", Email: "emily.w@innovatecorp.com", Role: "Account Manager", CreatedAt: ts("2023-01-01T10:00:00Z"), UpdatedAt: ts("2023-01-01T10:00:00Z")},
	}

	s.deals = []domain.Deal{
		{DealID: "deal-1", CompanyID: "comp-1", Name: "The Grand Hotel Network Upgrade", Value: 250000, Stage: domain.StageProposal, CloseDateExpected: "2024-03-31", AIHealthScore: 85, AINextBestAction: "Follow up on proposal feedback by end of week.", HealthHistory: healthHistory(70, 85, 30), CreatedAt: ts("2023-10-26T10:00:00Z"), UpdatedAt: ts("2023-11-05T11:00:00Z")},
		{DealID: "deal-2", CompanyID: "comp-2", Name: "Innovate Corp Cloud Migration", Value: 120000, Stage: domain.StageNegotiation, CloseDateExpected: "2024-02-29", AIHealthScore: 65, AINextBestAction: "Present revised offer with phased implementation.", HealthHistory: healthHistory(80, 65, 30), CreatedAt: ts("2023-10-15T09:00:00Z"), UpdatedAt: ts("2023-10-21T10:00:00Z")},
		{DealID: "deal-3", CompanyID: "comp-3", Name: "Retail Chain POS System", Value: 75000, Stage: domain.StageQualifying, CloseDateExpected: "2024-04-30", AIHealthScore: 42, AINextBestAction: "Schedule a discovery call to understand requirements.", HealthHistory: healthHistory(40, 42, 30), CreatedAt: ts("2023-11-10T11:20:00Z"), UpdatedAt: ts("2023-11-10T11:20:00Z")},
	}

	s.interactions = []domain.Interaction{
		{InteractionID: "int-1", Type: domain.InteractionMeeting, SourceIdentifier: "gcal-1", Timestamp: ts("2023-10-26T10:00:00Z"), ContentRaw: "Initial discovery call with the IT Director. Key pain points identified: slow guest WiFi, frequent outages in conference rooms, and outdated security protocols. They need a full network overhaul before the summer tourist season. Expressed strong interest in our managed services.", AISentiment: domain.SentimentPositive, CreatedAt: ts("2023-10-26T10:00:00Z")},
		{InteractionID: "int-2", Type: domain.InteractionEmail, SourceIdentifier: "gmail-1", Timestamp: ts("2023-10-28T14:30:00Z"), ContentRaw: "Subject: Following up on our call\n\nHi John,\n\nGreat speaking with you the other day. I've attached a preliminary overview of our proposed solution based on your requirements. Let me know if you have any questions before I put together the full formal proposal.\n\nBest,\nSarah", AISentiment: domain.SentimentNeutral, CreatedAt: ts("2023-10-28T14:30:00Z")},
		{InteractionID: "int-3", Type: domain.InteractionProposalView, SourceIdentifier: "prop-1-view-1", Timestamp: ts("2023-11-05T11:00:00Z"), ContentRaw: "Proposal for a complete Ubiquiti network stack, including new access points, switches, and a security gateway. Pricing is set at $250,000 for hardware and installation.", CreatedAt: ts("2023-11-05T11:00:00Z")},
		{InteractionID: "int-4", Type: domain.InteractionEmail, SourceIdentifier: "gmail-2", Timestamp: ts("2023-10-15T09:00:00Z"), ContentRaw: "Inquiry about our cloud migration services. They are currently on-prem and facing high maintenance costs.", AISentiment: domain.SentimentNeutral, CreatedAt: ts("2023-10-15T09:00:00Z")},
		{InteractionID: "int-5", Type: domain.InteractionCallLog, SourceIdentifier: "call-1", Timestamp: ts("2023-10-20T16:00:00Z"), ContentRaw: "Call with Michael. He's concerned about the budget and the timeline. He needs the migration completed by Q1 next year. He seems hesitant about the price.", AISentiment: domain.SentimentNegative, AISummary: "Client is budget-conscious and has a firm deadline of Q1. Price is a potential obstacle.", CreatedAt: ts("2023-10-20T16:00:00Z")},
		{InteractionID: "int-6", Type: domain.InteractionNote, SourceIdentifier: "note-1", Timestamp: ts("2023-10-21T10:00:00Z"), ContentRaw: "Internal note: Need to prepare a revised offer with a phased approach to make the cost more manageable. Will highlight long-term TCO savings.", CreatedAt: ts("2023-10-21T10:00:00Z")},
		{InteractionID: "int-7", Type: domain.InteractionEmail, SourceIdentifier: "gmail-3", Timestamp: ts("2023-11-10T11:20:00Z"), ContentRaw: "Hi,\n\nWe're looking for a new Point-of-Sale system for our 15 retail locations. Can you send over some information?\n\nThanks,\nDavid", AISentiment: domain.SentimentNeutral, CreatedAt: ts("2023-11-10T11:20:00Z")},
		{InteractionID: "int-8", Type: domain.InteractionEmail, SourceIdentifier: "gmail-4", Timestamp: ts("2023-11-12T15:00:00Z"), ContentRaw: "Subject: Help with WiFi\n\nHi support,\n\nOur conference room WiFi has been dropping out all day. Can someone look into this?\n\nThanks,\nJohn Doe", AISentiment: domain.SentimentNegative, CreatedAt: ts("2023-11-12T15:00:00Z")},
		{InteractionID: "int-9", Type: domain.InteractionEmail, SourceIdentifier: "gmail-5", Timestamp: ts("2023-11-12T15:15:00Z"), ContentRaw: "Subject: RE: Help with WiFi\n\nHi John,\n\nI've received your request and I'm looking into the network logs now. I'll get back to you shortly.\n\nBest,\nSupport Agent", AISentiment: domain.SentimentNeutral, CreatedAt: ts("2023-11-12T15:15:00Z")},
		{InteractionID: "int-10", Type: domain.InteractionEmail, SourceIdentifier: "gmail-6", Timestamp: ts("2023-11-13T09:00:00Z"), ContentRaw: "Subject: Billing Question\n\nHello,\n\nI have a question about our last invoice. Can someone give me a call?\n\nEmily White", AISentiment: domain.SentimentNeutral, CreatedAt: ts("2023-11-13T09:00:00Z")},
	}

	s.links = []domain.InteractionLink{
		{InteractionID: "int-1", DealID: "deal-1", CompanyID: "comp-1", ContactID: "cont-1"},
		{InteractionID: "int-2", DealID: "deal-1", CompanyID: "comp-1", ContactID: "cont-4"},
		{InteractionID: "int-3", DealID: "deal-1", CompanyID: "comp-1"},
		{InteractionID: "int-4", DealID: "deal-2", CompanyID: "comp-2", ContactID: "cont-2"},
		{InteractionID: "int-5", DealID: "deal-2", CompanyID: "comp-2", ContactID: "cont-5"},
		{InteractionID: "int-6", DealID: "deal-2", CompanyID: "comp-2", ContactID: "cont-5"},
		{InteractionID: "int-7", DealID: "deal-3", CompanyID: "comp-3", ContactID: "cont-3"},
		{InteractionID: "int-8", CompanyID: "comp-1", ContactID: "cont-1"},
		{InteractionID: "int-9", CompanyID: "comp-1", ContactID: "cont-1"},
		{InteractionID: "int-10", CompanyID: "comp-2", ContactID: "cont-5"},
	}

	s.tickets = []domain.SupportTicket{
		{TicketID: "ticket-1", ContactID: "cont-1", Status: domain.TicketPending, Subject: "Help with WiFi", InteractionIDs: []string{"int-8", "int-9"}, CreatedAt: ts("2023-11-12T15:00:00Z"), UpdatedAt: ts("2023-11-12T15:15:00Z")},
		{TicketID: "ticket-2", ContactID: "cont-5", Status: domain.TicketOpen, Subject: "Billing Question", InteractionIDs: []string{"int-10"}, CreatedAt: ts("2023-11-13T09:00:00Z"), UpdatedAt: ts("2023-11-13T09:00:00Z")},
		{TicketID: "ticket-3", ContactID: "cont-3", Status: domain.TicketClosed, Subject: "POS System Glitch", InteractionIDs: []string{}, CreatedAt: ts("2023-11-11T10:00:00Z"), UpdatedAt: ts("2023-11-11T12:00:00Z")},
	}
}
