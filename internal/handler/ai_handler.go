package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gooseworks/goose-copilot/internal/domain"
	"github.com/gooseworks/goose-copilot/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// AI co-pilot
// ============================================================

// copilotRequest carries the free-form question plus whatever subject the
// caller has selected. Several subject fields may be populated; the most
// specific one drives the context.
type copilotRequest struct {
	Prompt  string         `json:"prompt"`
	Context domain.Subject `json:"context"`
}

func copilotHandler(svc *service.Copilot, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ai/copilot")
		defer span.End()

		var req copilotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Prompt == "" {
			writeError(w, http.StatusBadRequest, "prompt is required")
			return
		}
		span.SetAttributes(attribute.String("copilot.subject_kind", string(req.Context.Kind())))

		text, err := svc.Respond(ctx, req.Context, req.Prompt)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"text": text})
	}
}

func summarizeHandler(svc *service.Copilot, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ai/summarize")
		defer span.End()

		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Text == "" {
			writeError(w, http.StatusBadRequest, "text is required")
			return
		}

		summary, err := svc.Summarize(ctx, req.Text)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
	}
}

func interactionSummaryHandler(svc *service.Copilot, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ai/interactions/{interactionId}/summary")
		defer span.End()

		interactionID := chi.URLParam(r, "interactionId")
		summary, err := svc.SummarizeInteraction(ctx, interactionID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"interaction_id": interactionID,
			"summary":        summary,
		})
	}
}

func nextBestActionHandler(svc *service.Copilot, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ai/next-best-action")
		defer span.End()

		var req struct {
			DealID string `json:"deal_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.DealID == "" {
			writeError(w, http.StatusBadRequest, "deal_id is required")
			return
		}
		span.SetAttributes(attribute.String("deal.id", req.DealID))

		action, err := svc.NextBestAction(ctx, req.DealID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"action": action})
	}
}

func draftEmailHandler(svc *service.Copilot, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ai/draft-email")
		defer span.End()

		var req struct {
			DealID     string `json:"deal_id"`
			Suggestion string `json:"suggestion"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.DealID == "" {
			writeError(w, http.StatusBadRequest, "deal_id is required")
			return
		}

		draft, err := svc.DraftEmail(ctx, req.DealID, req.Suggestion)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, draft)
	}
}
