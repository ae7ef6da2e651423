package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"one18-order-service/internal/config"
	"one18-order-service/internal/http/handlers"
	"one18-order-service/internal/middleware"
)

func NewRouter(h *handlers.Handler, logger *zap.Logger, cfg config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.RequestID())

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"Cache-Control",
				"Pragma",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/orders", h.PublicOrderCreate)
		r.Get("/orders/{orderId}", h.PublicOrderGet)
		r.Post("/orders/{orderId}/payment-proof", h.PublicPaymentProofUpload)
		r.Post("/postal/validate", h.PublicPostalValidate)
		r.Post("/delivery/check", h.PublicDeliveryCheck)
		r.Post("/payment/create-checkout-session", h.PublicCheckoutSessionCreate)
		r.Post("/payment/verify", h.PublicPaymentVerify)
		r.Get("/paynow/qr/{orderId}", h.PublicPayNowQR)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.AdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminAuth(cfg.JWTSecret))

				r.Get("/orders", h.AdminOrdersList)
				r.Put("/orders/{orderId}/status", h.AdminOrderStatusUpdate)
				r.Put("/orders/{orderId}/payment/accept", h.AdminPaymentAccept)
				r.Put("/orders/{orderId}/payment/reject", h.AdminPaymentReject)
				r.Put("/orders/{orderId}/courier/request", h.AdminCourierRequest)
			})
		})
	})

	return r
}
