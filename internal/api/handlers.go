/**
 * @description
 * HTTP handlers for the billing-service. Each handler decodes a board-item
 * payload, hands it to the application service, and returns the resulting
 * URL or quote identity as JSON.
 */
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/boardpay/billing-service/internal/domain"
)

// BillingService is the application-service surface the handlers call.
type BillingService interface {
	CreatePaymentLink(ctx context.Context, req domain.PaymentLinkRequest) (*domain.PaymentLinkResult, error)
	CreateQuote(ctx context.Context, req domain.QuoteLinkRequest) (*domain.QuoteResult, error)
}

// Handler holds the application service that handlers will interact with.
type Handler struct {
	service BillingService
}

// NewHandler creates a new Handler with the given service.
func NewHandler(service BillingService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) handleCreatePaymentLink(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ItemID == "" || req.Method == "" {
		http.Error(w, "item_id and method are required", http.StatusBadRequest)
		return
	}

	result, err := h.service.CreatePaymentLink(r.Context(), req)
	if err != nil {
		log.Printf("Error creating payment link for item %s: %v", req.ItemID, err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	var req domain.QuoteLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ItemID == "" {
		http.Error(w, "item_id is required", http.StatusBadRequest)
		return
	}

	result, err := h.service.CreateQuote(r.Context(), req)
	if err != nil {
		log.Printf("Error creating quote for item %s: %v", req.ItemID, err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}

// statusForError maps the error taxonomy onto HTTP statuses: configuration
// errors are the operator's to fix (422), provider failures are upstream
// failures (502), anything else is a plain 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrIntegration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
