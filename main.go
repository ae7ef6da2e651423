package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"one18-order-service/internal/config"
	"one18-order-service/internal/courier"
	"one18-order-service/internal/db"
	"one18-order-service/internal/delivery"
	"one18-order-service/internal/geo"
	httpapi "one18-order-service/internal/http"
	"one18-order-service/internal/http/handlers"
	"one18-order-service/internal/logger"
	"one18-order-service/internal/notify"
	"one18-order-service/internal/ordering"
	"one18-order-service/internal/payment"
	"one18-order-service/internal/queue"
	"one18-order-service/internal/storage"
	"one18-order-service/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal("invalid business timezone", zap.String("tz", cfg.Timezone), zap.Error(err))
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	var queueClient *queue.Client
	if cfg.RabbitMQURL != "" {
		qc, err := queue.New(cfg.RabbitMQURL)
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq connection failed", zap.Error(err))
			}
			log.Warn("rabbitmq connection failed; emails will be sent inline", zap.Error(err))
			qc = nil
		}
		if qc != nil {
			if err := queue.EnsureEmailTopology(ctx, qc); err != nil {
				if cfg.Env == "production" {
					log.Fatal("rabbitmq email topology failed", zap.Error(err))
				}
				log.Warn("rabbitmq email topology failed; emails will be sent inline", zap.Error(err))
				_ = qc.Close()
				qc = nil
			}
		}
		queueClient = qc
		if qc != nil {
			defer qc.Close()
		}
	} else {
		log.Info("email worker disabled (RABBITMQ_URL is empty)")
	}

	mailer := notify.NewMailer(notify.MailerConfig{
		APIKey:    cfg.BrevoAPIKey,
		FromName:  cfg.MailFromName,
		FromEmail: cfg.MailFromEmail,
	})

	if queueClient != nil && cfg.RabbitMQWorkerMode == "daemon" {
		log.Info("email worker enabled", zap.String("queue", queue.EmailQueue))
		go func() {
			err := queueClient.ConsumeWithRetry(queue.EmailQueue, notify.HandleEmailJob(mailer, log), 5, 5*time.Second)
			if err != nil {
				log.Error("email consumer stopped", zap.Error(err))
			}
		}()
	}

	notifier := notify.NewNotifier(queueClient, mailer, notify.NotifierConfig{
		BakeryName:  cfg.BakeryName,
		BakeryPhone: cfg.BakeryPhone,
		AdminEmail:  cfg.AdminEmail,
	}, log)

	var proofs *storage.ObjectStore
	if cfg.ObjectStoreBucket != "" {
		proofs, err = storage.NewObjectStore(ctx, storage.Config{
			Endpoint:        cfg.ObjectStoreEndpoint,
			Region:          cfg.ObjectStoreRegion,
			AccessKeyID:     cfg.ObjectStoreAccessKeyID,
			SecretAccessKey: cfg.ObjectStoreSecretAccessKey,
			Bucket:          cfg.ObjectStoreBucket,
			PublicBaseURL:   cfg.ObjectStorePublicBaseURL,
		})
		if err != nil {
			log.Fatal("object store init failed", zap.Error(err))
		}
	} else {
		log.Warn("object store disabled; payment proof uploads will fail")
	}

	st := store.New(pool)
	validator := geo.NewValidator(geo.Config{
		APIKey:  cfg.GoogleMapsAPIKey,
		Timeout: cfg.GeocodeTimeout,
	}, log)
	fees := delivery.NewFeeCalculator(delivery.FeeConfig{
		FreeThreshold: cfg.FreeDeliveryThreshold,
		NearFee:       cfg.NearDeliveryFee,
		FarFee:        cfg.FarDeliveryFee,
		FarPrefixes:   cfg.FarPostalPrefixes,
	})
	window := ordering.NewWindowPolicy(loc, cfg.WalkInMinLeadHours, cfg.PreorderMinLeadDays)
	eligibility := ordering.NewEligibilityChecker(st, loc)
	admission := ordering.NewAdmissionService(window, validator, fees, eligibility, st, st, notifier, log)

	stripeGateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey: cfg.StripeSecretKey,
		ClientURL: cfg.ClientURL,
	})
	gate := ordering.NewPaymentGate(st, stripeGateway, notifier, log)

	lalamove := courier.NewClient(courier.ClientConfig{
		BaseURL:   cfg.LalamoveBaseURL,
		APIKey:    cfg.LalamoveAPIKey,
		APISecret: cfg.LalamoveAPISecret,
		Market:    cfg.LalamoveMarket,
		Timeout:   cfg.LalamoveHTTPTimeout,
	})
	dispatcher := courier.NewDispatcher(st, lalamove, courier.DispatcherConfig{
		SenderName:  cfg.BakeryName,
		SenderPhone: cfg.BakeryPhone,
		MinLead:     cfg.LalamoveMinLead,
	}, loc, log)

	h := &handlers.Handler{
		Logger:     log,
		Config:     cfg,
		Store:      st,
		Admission:  admission,
		Payments:   gate,
		Dispatcher: dispatcher,
		Geo:        validator,
		Fees:       fees,
		Stripe:     stripeGateway,
		PayNow:     payment.NewPayNowQR(cfg.PayNowUEN),
		Proofs:     proofs,
	}

	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(h, log, cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("order service listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}
