package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gooseworks/goose-copilot/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Proposals
// ============================================================

func generateProposalHandler(svc *service.ProposalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ai/generate-proposal")
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

		proposal, err := svc.Synthesize(ctx, req.DealID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, proposal)
	}
}

func getProposalHandler(svc *service.ProposalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/proposals/{proposalId}")
		defer span.End()

		proposal, err := svc.Get(ctx, chi.URLParam(r, "proposalId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, proposal)
	}
}

func proposalSendHandler(svc *service.ProposalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/proposals/{proposalId}/send")
		defer span.End()

		proposal, err := svc.MarkSent(ctx, chi.URLParam(r, "proposalId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, proposal)
	}
}

func proposalViewHandler(svc *service.ProposalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/proposals/{proposalId}/view")
		defer span.End()

		proposal, err := svc.MarkViewed(ctx, chi.URLParam(r, "proposalId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, proposal)
	}
}

func proposalAcceptHandler(svc *service.ProposalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/proposals/{proposalId}/accept")
		defer span.End()

		var req struct {
			Signature       string   `json:"signature"`
			FinalValue      *float64 `json:"final_value,omitempty"`
			SelectedItemIDs []string `json:"selected_item_ids,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Signature == "" {
			writeError(w, http.StatusBadRequest, "signature is required")
			return
		}

		proposal, err := svc.Accept(ctx, chi.URLParam(r, "proposalId"), req.Signature, req.FinalValue, req.SelectedItemIDs)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, proposal)
	}
}

func proposalPayHandler(svc *service.ProposalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/proposals/{proposalId}/pay")
		defer span.End()

		proposal, err := svc.Pay(ctx, chi.URLParam(r, "proposalId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, proposal)
	}
}

func proposalExpireHandler(svc *service.ProposalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/proposals/{proposalId}/expire")
		defer span.End()

		proposal, err := svc.Expire(ctx, chi.URLParam(r, "proposalId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, proposal)
	}
}
