package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/order-pricing/domain"
	"github.com/fjod/go_cart/order-pricing/internal/service"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type TotalsDTO struct {
	Subtotal    json.Number `json:"subtotal"`
	Tax         json.Number `json:"tax"`
	DeliveryFee json.Number `json:"delivery_fee"`
	ServiceFee  json.Number `json:"service_fee"`
	Total       json.Number `json:"total"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func totalsDTO(b domain.TotalsBreakdown) TotalsDTO {
	return TotalsDTO{
		Subtotal:    money(b.Subtotal),
		Tax:         money(b.Tax),
		DeliveryFee: money(b.DeliveryFee),
		ServiceFee:  money(b.ServiceFee),
		Total:       money(b.Total),
	}
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
	})
}

// handleServiceError maps the checkout error kinds to responses. Only
// the kind reaches the client; anything unrecognised is a 500.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		respondError(w, r, http.StatusBadRequest, "missing_fields", "missing or invalid required fields")
	case errors.Is(err, service.ErrCartNotFound):
		respondError(w, r, http.StatusNotFound, "cart_not_found", "no active cart found")
	case errors.Is(err, service.ErrInvalidOrderToken):
		respondError(w, r, http.StatusForbidden, "invalid_order_token", "order token is not valid for this checkout")
	case errors.Is(err, service.ErrCalculationFailure):
		respondError(w, r, http.StatusInternalServerError, "calculation_failure", "failed to calculate order totals")
	case errors.Is(err, service.ErrUnavailable):
		respondError(w, r, http.StatusServiceUnavailable, "unavailable", "service temporarily unavailable")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("unexpected checkout error")
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
