package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gooseworks/goose-copilot/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Marketing
// ============================================================

func researchProspectHandler(svc *service.Marketing, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/marketing/research-prospect")
		defer span.End()

		var req struct {
			Domain string `json:"domain"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Domain == "" {
			writeError(w, http.StatusBadRequest, "domain is required")
			return
		}

		writeJSON(w, http.StatusOK, svc.ResearchProspect(req.Domain))
	}
}

func generateContentHandler(svc *service.Marketing, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/marketing/generate-content")
		defer span.End()

		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Prompt == "" {
			writeError(w, http.StatusBadRequest, "prompt is required")
			return
		}

		content, err := svc.GenerateContent(ctx, req.Prompt)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"content": content})
	}
}

func generateLeadsHandler(svc *service.Marketing, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/marketing/generate-leads")
		defer span.End()

		var req struct {
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Description == "" {
			writeError(w, http.StatusBadRequest, "description is required")
			return
		}

		leads, err := svc.GenerateLeadList(ctx, req.Description)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
	}
}
