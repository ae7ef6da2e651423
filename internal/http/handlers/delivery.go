package handlers

import (
	"net/http"

	"one18-order-service/internal/ordering"
	"one18-order-service/pkg/response"
)

// PublicPostalValidate resolves a postal code to a serviced area. The
// storefront calls this as the customer types, before any order exists.
func (h *Handler) PublicPostalValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PostalCode string `json:"postalCode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Invalid request body")
		return
	}

	loc, ok := h.Geo.Validate(r.Context(), req.PostalCode)
	if !ok {
		response.Success(w, map[string]any{"valid": false})
		return
	}
	response.Success(w, map[string]any{
		"valid":            true,
		"area":             loc.Area,
		"lat":              loc.Lat,
		"lng":              loc.Lng,
		"formattedAddress": loc.FormattedAddress,
	})
}

// PublicDeliveryCheck quotes the delivery fee for a postal code and
// cart subtotal. Admission recomputes the fee; this quote is advisory.
func (h *Handler) PublicDeliveryCheck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PostalCode string  `json:"postalCode"`
		Subtotal   float64 `json:"subtotal"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Subtotal < 0 {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Invalid request body")
		return
	}

	loc, ok := h.Geo.Validate(r.Context(), req.PostalCode)
	if !ok {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrInvalidPostalCode), "Postal code is not serviced")
		return
	}

	fee := h.Fees.Fee(req.Subtotal, req.PostalCode)
	response.Success(w, map[string]any{
		"deliveryFee":   fee,
		"freeThreshold": h.Fees.FreeThreshold(),
		"area":          loc.Area,
	})
}
