package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_cart/order-pricing/domain"
	"github.com/fjod/go_cart/order-pricing/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1MB

type CheckoutHandler struct {
	checkout service.CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout service.CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type PrepareRequestDTO struct {
	HubID int64 `json:"hub_id"`
}

type PrepareResponseDTO struct {
	Success bool      `json:"success"`
	Totals  TotalsDTO `json:"totals"`
	CartID  int64     `json:"cart_id"`
	HubID   int64     `json:"hub_id"`
	Token   string    `json:"token"`
}

type IntentRequestDTO struct {
	HubID      int64  `json:"hub_id"`
	CartID     int64  `json:"cart_id"`
	OrderToken string `json:"order_token"`
	// Amount is accepted for compatibility and never read.
	Amount json.RawMessage `json:"amount,omitempty"`
}

type IntentResponseDTO struct {
	Success   bool        `json:"success"`
	PaymentID string      `json:"payment_id"`
	Amount    json.Number `json:"amount"`
	Currency  string      `json:"currency"`
	Totals    TotalsDTO   `json:"totals"`
	CartID    int64       `json:"cart_id"`
}

// POST /api/v1/checkout/prepare
func (h *CheckoutHandler) PrepareCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PrepareRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.checkout.Prepare(ctx, &domain.PrepareRequest{
		SessionID: getSessionID(r.Context()),
		HubID:     req.HubID,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, PrepareResponseDTO{
		Success: true,
		Totals:  totalsDTO(resp.Totals),
		CartID:  resp.CartID,
		HubID:   resp.HubID,
		Token:   resp.Token,
	})
}

// POST /api/v1/checkout/intent
func (h *CheckoutHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req IntentRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	intent, err := h.checkout.Intent(ctx, &domain.IntentRequest{
		SessionID:  getSessionID(r.Context()),
		HubID:      req.HubID,
		CartID:     req.CartID,
		OrderToken: req.OrderToken,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, IntentResponseDTO{
		Success:   true,
		PaymentID: intent.ID,
		Amount:    money(intent.Amount),
		Currency:  intent.Currency,
		Totals:    totalsDTO(intent.Totals),
		CartID:    intent.CartID,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
