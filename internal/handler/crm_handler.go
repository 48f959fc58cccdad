package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gooseworks/goose-copilot/internal/domain"
	"github.com/gooseworks/goose-copilot/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// CRM entities
// ============================================================

func overviewHandler(svc *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/overview")
		defer span.End()

		overview, err := svc.Overview(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, overview)
	}
}

func listCompaniesHandler(svc *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies")
		defer span.End()

		companies, err := svc.ListCompanies(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"companies": companies})
	}
}

func getCompanyHandler(svc *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies/{companyId}")
		defer span.End()

		company, err := svc.GetCompany(ctx, chi.URLParam(r, "companyId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, company)
	}
}

func createCompanyHandler(svc *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/companies")
		defer span.End()

		var req domain.NewCompany
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		company, err := svc.CreateCompany(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, company)
	}
}

func listContactsHandler(svc *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/contacts")
		defer span.End()

		contacts, err := svc.ListContacts(ctx, r.URL.Query().Get("company_id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
	}
}

func createContactHandler(svc *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/contacts")
		defer span.End()

		var req domain.NewContact
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		contact, err := svc.CreateContact(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, contact)
	}
}

// listDealsHandler serves deals through the timeline service so every deal
// carries its derived last_interaction_at.
func listDealsHandler(svc *service.TimelineService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/deals")
		defer span.End()

		deals, err := svc.ListDeals(ctx, r.URL.Query().Get("company_id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deals": deals})
	}
}

func listTicketsHandler(svc *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/tickets")
		defer span.End()

		tickets, err := svc.ListTickets(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tickets": tickets})
	}
}

func getTicketHandler(svc *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/tickets/{ticketId}")
		defer span.End()

		ticket, err := svc.GetTicket(ctx, chi.URLParam(r, "ticketId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, ticket)
	}
}

func createTicketHandler(svc *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/tickets")
		defer span.End()

		var req domain.NewSupportTicket
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ticket, err := svc.CreateTicket(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, ticket)
	}
}

// ============================================================
// Timeline — GET /v1/interactions
// ============================================================

func timelineHandler(svc *service.TimelineService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/interactions")
		defer span.End()

		filter := domain.TimelineFilter{
			DealID:    r.URL.Query().Get("deal_id"),
			CompanyID: r.URL.Query().Get("company_id"),
			ContactID: r.URL.Query().Get("contact_id"),
		}
		if filter.IsZero() {
			writeError(w, http.StatusBadRequest, "one of deal_id, company_id or contact_id is required")
			return
		}

		timeline, err := svc.Timeline(ctx, filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"interactions": timeline})
	}
}

// watchTimelineHandler streams timeline growth for one subject as
// server-sent events. One watcher per connection; the stream ends when the
// client disconnects.
func watchTimelineHandler(svc *service.TimelineService, interval time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := domain.TimelineFilter{
			DealID:    r.URL.Query().Get("deal_id"),
			CompanyID: r.URL.Query().Get("company_id"),
			ContactID: r.URL.Query().Get("contact_id"),
		}
		if filter.IsZero() {
			writeError(w, http.StatusBadRequest, "one of deal_id, company_id or contact_id is required")
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		// Notifications arrive on the watcher goroutine; hand them over so
		// only this goroutine writes the response. A slow client may drop an
		// update, the next poll carries the full state again.
		updates := make(chan []domain.Interaction, 1)
		watcher := service.NewWatcher(svc, interval, logger)
		watcher.Watch(r.Context(), filter, func(_ domain.TimelineFilter, timeline []domain.Interaction) {
			select {
			case updates <- timeline:
			default:
			}
		})
		defer watcher.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case timeline := <-updates:
				payload, err := json.Marshal(map[string]any{"interactions": timeline})
				if err != nil {
					logger.Error("marshal timeline event", zap.Error(err))
					continue
				}
				fmt.Fprintf(w, "event: timeline\ndata: %s\n\n", payload)
				flusher.Flush()
			}
		}
	}
}
