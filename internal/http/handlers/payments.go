package handlers

import (
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"one18-order-service/internal/ordering"
	"one18-order-service/pkg/response"
)

// PublicCheckoutSessionCreate opens a hosted checkout for a pending
// redirect-rail order and returns the URL to send the customer to.
func (h *Handler) PublicCheckoutSessionCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID int64 `json:"orderId"`
	}
	if err := decodeJSON(r, &req); err != nil || req.OrderID <= 0 {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Invalid request body")
		return
	}

	order, err := h.Store.GetOrder(r.Context(), req.OrderID)
	if err != nil {
		h.Logger.Error("failed to load order", zap.Int64("order_id", req.OrderID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, string(ordering.ErrInternal), "Failed to load order")
		return
	}
	if order == nil {
		response.Error(w, http.StatusNotFound, string(ordering.ErrOrderNotFound), "Order not found")
		return
	}
	if order.PaymentMethod != ordering.Stripe {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrInvalidPaymentMethod), "Order is not a card payment")
		return
	}
	if order.PaymentStatus != ordering.PaymentPending {
		response.Error(w, http.StatusConflict, string(ordering.ErrPaymentStateConflict), "Order is not awaiting payment")
		return
	}

	sessionID, url, err := h.Stripe.CreateCheckoutSession(r.Context(), order)
	if err != nil {
		h.Logger.Error("failed to create checkout session", zap.Int64("order_id", order.ID), zap.Error(err))
		response.Error(w, http.StatusBadGateway, string(ordering.ErrInternal), "Failed to create checkout session")
		return
	}
	response.Success(w, map[string]any{"sessionId": sessionID, "url": url})
}

// PublicPaymentVerify confirms a redirect-rail payment against the
// processor. Safe to call repeatedly from the success page.
func (h *Handler) PublicPaymentVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID   int64  `json:"orderId"`
		SessionID string `json:"sessionId"`
	}
	if err := decodeJSON(r, &req); err != nil || req.OrderID <= 0 || strings.TrimSpace(req.SessionID) == "" {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Invalid request body")
		return
	}

	order, verr := h.Payments.VerifyRedirect(r.Context(), req.OrderID, req.SessionID)
	if verr != nil {
		writeServiceError(w, verr)
		return
	}
	response.Success(w, order)
}

// PublicPayNowQR returns the transfer QR for a pending manual-rail
// order, as a PNG data URL.
func (h *Handler) PublicPayNowQR(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt64(r, "orderId")
	if !ok {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Invalid order id")
		return
	}

	order, err := h.Store.GetOrder(r.Context(), orderID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, string(ordering.ErrInternal), "Failed to load order")
		return
	}
	if order == nil {
		response.Error(w, http.StatusNotFound, string(ordering.ErrOrderNotFound), "Order not found")
		return
	}
	if order.PaymentMethod != ordering.PayNow {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrInvalidPaymentMethod), "Order is not a PayNow payment")
		return
	}

	dataURL, err := h.PayNow.DataURL(order.ID, order.TotalAmount)
	if err != nil {
		h.Logger.Error("failed to render paynow qr", zap.Int64("order_id", order.ID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, string(ordering.ErrInternal), "Failed to render QR")
		return
	}
	response.Success(w, map[string]any{
		"qr":     dataURL,
		"amount": order.TotalAmount,
		"ref":    order.OrderNumber,
	})
}

// PublicPaymentProofUpload receives the customer's transfer screenshot,
// stores it and moves the order to pending_verification.
func (h *Handler) PublicPaymentProofUpload(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt64(r, "orderId")
	if !ok {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Invalid order id")
		return
	}
	if h.Proofs == nil {
		response.Error(w, http.StatusServiceUnavailable, string(ordering.ErrInternal), "Proof uploads are not configured")
		return
	}

	order, err := h.Store.GetOrder(r.Context(), orderID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, string(ordering.ErrInternal), "Failed to load order")
		return
	}
	if order == nil {
		response.Error(w, http.StatusNotFound, string(ordering.ErrOrderNotFound), "Order not found")
		return
	}
	if order.PaymentMethod != ordering.PayNow {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrInvalidPaymentMethod), "Order is not a PayNow payment")
		return
	}
	if order.PaymentStatus != ordering.PaymentPending {
		response.Error(w, http.StatusConflict, string(ordering.ErrPaymentStateConflict), "Payment is not awaiting proof")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxFileSizeBytes)
	if err := r.ParseMultipartForm(h.Config.MaxFileSizeBytes); err != nil {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "File too large or malformed upload")
		return
	}
	file, header, err := r.FormFile("proof")
	if err != nil {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Missing proof file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Could not read upload")
		return
	}

	proofURL, err := h.Proofs.UploadPaymentProof(r.Context(), orderID, header.Filename, data, header.Header.Get("Content-Type"))
	if err != nil {
		h.Logger.Error("failed to store payment proof", zap.Int64("order_id", orderID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, string(ordering.ErrInternal), "Failed to store proof")
		return
	}

	updated, verr := h.Payments.AttachProof(r.Context(), orderID, proofURL)
	if verr != nil {
		writeServiceError(w, verr)
		return
	}
	response.Success(w, updated)
}

// AdminPaymentAccept is the operator confirmation that the transfer
// arrived. Triggers the payment-received email.
func (h *Handler) AdminPaymentAccept(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt64(r, "orderId")
	if !ok {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Invalid order id")
		return
	}

	var req struct {
		CreditedAccount string `json:"creditedAccount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Invalid request body")
		return
	}

	order, verr := h.Payments.AcceptManual(r.Context(), orderID, strings.TrimSpace(req.CreditedAccount))
	if verr != nil {
		writeServiceError(w, verr)
		return
	}
	response.Success(w, order)
}

func (h *Handler) AdminPaymentReject(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt64(r, "orderId")
	if !ok {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Invalid order id")
		return
	}

	order, verr := h.Payments.RejectManual(r.Context(), orderID)
	if verr != nil {
		writeServiceError(w, verr)
		return
	}
	response.Success(w, order)
}
