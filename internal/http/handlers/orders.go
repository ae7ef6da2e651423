package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"one18-order-service/internal/ordering"
	"one18-order-service/internal/store"
	"one18-order-service/pkg/response"
)

// PublicOrderCreate admits a new order. Every rejection carries a
// specific code the storefront can branch on.
func (h *Handler) PublicOrderCreate(w http.ResponseWriter, r *http.Request) {
	var req ordering.OrderRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Invalid request body")
		return
	}

	order, aerr := h.Admission.Admit(r.Context(), req)
	if aerr != nil {
		writeServiceError(w, aerr)
		return
	}

	h.Logger.Info("order admitted",
		zap.String("order_number", order.OrderNumber),
		zap.String("order_type", string(order.OrderType)),
		zap.String("fulfillment", string(order.FulfillmentType)),
		zap.Float64("total", order.TotalAmount))
	response.Created(w, order)
}

func (h *Handler) PublicOrderGet(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt64(r, "orderId")
	if !ok {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Invalid order id")
		return
	}
	order, err := h.Store.GetOrder(r.Context(), orderID)
	if err != nil {
		h.Logger.Error("failed to load order", zap.Int64("order_id", orderID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, string(ordering.ErrInternal), "Failed to load order")
		return
	}
	if order == nil {
		response.Error(w, http.StatusNotFound, string(ordering.ErrOrderNotFound), "Order not found")
		return
	}
	response.Success(w, order)
}

func (h *Handler) AdminOrdersList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ListFilter{
		Status:          strings.TrimSpace(q.Get("status")),
		PaymentStatus:   strings.TrimSpace(q.Get("paymentStatus")),
		FulfillmentType: strings.TrimSpace(q.Get("fulfillmentType")),
		Limit:           queryInt(q.Get("limit"), 50),
		Offset:          queryInt(q.Get("offset"), 0),
	}

	orders, err := h.Store.ListOrders(r.Context(), filter)
	if err != nil {
		h.Logger.Error("failed to list orders", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, string(ordering.ErrInternal), "Failed to list orders")
		return
	}
	if orders == nil {
		orders = []*ordering.Order{}
	}
	response.Success(w, orders)
}

// AdminOrderStatusUpdate sets the operational status. Payment and
// courier state are untouched; they have their own endpoints.
func (h *Handler) AdminOrderStatusUpdate(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt64(r, "orderId")
	if !ok {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Invalid order id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil || !ordering.ValidStatus(req.Status) {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Invalid status")
		return
	}

	updated, err := h.Store.UpdateStatus(r.Context(), orderID, ordering.Status(req.Status))
	if err != nil {
		h.Logger.Error("failed to update order status", zap.Int64("order_id", orderID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, string(ordering.ErrInternal), "Failed to update status")
		return
	}
	if !updated {
		response.Error(w, http.StatusNotFound, string(ordering.ErrOrderNotFound), "Order not found")
		return
	}

	order, err := h.Store.GetOrder(r.Context(), orderID)
	if err != nil || order == nil {
		response.Error(w, http.StatusInternalServerError, string(ordering.ErrInternal), "Failed to reload order")
		return
	}
	response.Success(w, order)
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
