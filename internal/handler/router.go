// Package handler exposes the HTTP surface: chi router, middleware stack
// and the route handlers for the Goose backend.
package handler

import (
	"net/http"
	"time"

	"github.com/gooseworks/goose-copilot/internal/infra/observability"
	"github.com/gooseworks/goose-copilot/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router serves.
type Services struct {
	CRM       *service.CRM
	Timeline  *service.TimelineService
	Copilot   *service.Copilot
	Proposals *service.ProposalService
	Marketing *service.Marketing
	Auth      *service.Auth

	// WatchInterval is the poll interval for timeline watch streams.
	// Zero falls back to the watcher default.
	WatchInterval time.Duration
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract of the Goose frontend.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Auth (public)
		// =============================================
		r.Post("/auth/login", authLoginHandler(svcs.Auth, logger))

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))

			// =============================================
			// CRM entities
			// =============================================
			r.Get("/overview", overviewHandler(svcs.CRM, logger))
			r.Get("/companies", listCompaniesHandler(svcs.CRM, logger))
			r.Post("/companies", createCompanyHandler(svcs.CRM, logger))
			r.Get("/companies/{companyId}", getCompanyHandler(svcs.CRM, logger))
			r.Get("/contacts", listContactsHandler(svcs.CRM, logger))
			r.Post("/contacts", createContactHandler(svcs.CRM, logger))
			r.Get("/deals", listDealsHandler(svcs.Timeline, logger))
			r.Get("/tickets", listTicketsHandler(svcs.CRM, logger))
			r.Post("/tickets", createTicketHandler(svcs.CRM, logger))
			r.Get("/tickets/{ticketId}", getTicketHandler(svcs.CRM, logger))

			// =============================================
			// Timeline
			// GET /v1/interactions?deal_id=|company_id=|contact_id=
			// GET /v1/interactions/watch streams growth as SSE
			// =============================================
			r.Get("/interactions", timelineHandler(svcs.Timeline, logger))
			r.Get("/interactions/watch", watchTimelineHandler(svcs.Timeline, svcs.WatchInterval, logger))

			// =============================================
			// AI co-pilot
			// =============================================
			r.Post("/ai/copilot", copilotHandler(svcs.Copilot, logger))
			r.Post("/ai/summarize", summarizeHandler(svcs.Copilot, logger))
			r.Post("/ai/next-best-action", nextBestActionHandler(svcs.Copilot, logger))
			r.Post("/ai/draft-email", draftEmailHandler(svcs.Copilot, logger))
			r.Post("/ai/interactions/{interactionId}/summary", interactionSummaryHandler(svcs.Copilot, logger))

			// =============================================
			// Proposals
			// =============================================
			r.Post("/ai/generate-proposal", generateProposalHandler(svcs.Proposals, logger))
			r.Get("/proposals/{proposalId}", getProposalHandler(svcs.Proposals, logger))
			r.Post("/proposals/{proposalId}/send", proposalSendHandler(svcs.Proposals, logger))
			r.Post("/proposals/{proposalId}/view", proposalViewHandler(svcs.Proposals, logger))
			r.Post("/proposals/{proposalId}/accept", proposalAcceptHandler(svcs.Proposals, logger))
			r.Post("/proposals/{proposalId}/pay", proposalPayHandler(svcs.Proposals, logger))
			r.Post("/proposals/{proposalId}/expire", proposalExpireHandler(svcs.Proposals, logger))

			// =============================================
			// Marketing
			// =============================================
			r.Post("/marketing/research-prospect", researchProspectHandler(svcs.Marketing, logger))
			r.Post("/marketing/generate-content", generateContentHandler(svcs.Marketing, logger))
			r.Post("/marketing/generate-leads", generateLeadsHandler(svcs.Marketing, logger))

			// =============================================
			// Metrics snapshot
			// =============================================
			r.Get("/metrics/copilot", copilotMetricsHandler(metrics))
		})
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func copilotMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetCopilotSnapshot())
	}
}
