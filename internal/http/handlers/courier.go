package handlers

import (
	"net/http"

	"one18-order-service/internal/ordering"
	"one18-order-service/pkg/response"
)

// AdminCourierRequest books a courier for a paid delivery order. A
// failed booking leaves courierStatus=failed and can be retried by
// calling this endpoint again.
func (h *Handler) AdminCourierRequest(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt64(r, "orderId")
	if !ok {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Invalid order id")
		return
	}

	order, derr := h.Dispatcher.Dispatch(r.Context(), orderID)
	if derr != nil {
		writeServiceError(w, derr)
		return
	}
	response.Success(w, order)
}
