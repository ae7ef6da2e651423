package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"one18-order-service/internal/config"
	"one18-order-service/internal/courier"
	"one18-order-service/internal/delivery"
	"one18-order-service/internal/geo"
	"one18-order-service/internal/ordering"
	"one18-order-service/internal/payment"
	"one18-order-service/internal/storage"
	"one18-order-service/internal/store"
	"one18-order-service/pkg/response"
)

type Handler struct {
	Logger     *zap.Logger
	Config     config.Config
	Store      *store.Store
	Admission  *ordering.AdmissionService
	Payments   *ordering.PaymentGate
	Dispatcher *courier.Dispatcher
	Geo        *geo.Validator
	Fees       *delivery.FeeCalculator
	Stripe     *payment.StripeGateway
	PayNow     *payment.PayNowQR
	Proofs     *storage.ObjectStore
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func urlParamInt64(r *http.Request, key string) (int64, bool) {
	raw := chi.URLParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeServiceError maps a typed service error onto the response
// envelope, preserving its status and machine-checkable code.
func writeServiceError(w http.ResponseWriter, err *ordering.Error) {
	response.Error(w, err.StatusCode, string(err.Code), err.Message)
}
