package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env              string
	HTTPAddr         string
	DatabaseURL      string
	JWTSecret        string
	JWTExpirySeconds int64

	RabbitMQURL        string
	RabbitMQWorkerMode string
	CorsAllowedOrigins []string

	// Business locality. All fulfillment date/time handling happens in
	// this zone, never in client-local time.
	Timezone    string
	BakeryName  string
	BakeryPhone string

	// Delivery fee tiers.
	FreeDeliveryThreshold float64
	NearDeliveryFee       float64
	FarDeliveryFee        float64
	FarPostalPrefixes     []string

	// Admission lead times.
	WalkInMinLeadHours  int
	PreorderMinLeadDays int

	GoogleMapsAPIKey string
	GeocodeTimeout   time.Duration

	LalamoveBaseURL     string
	LalamoveAPIKey      string
	LalamoveAPISecret   string
	LalamoveMarket      string
	LalamoveMinLead     time.Duration
	LalamoveHTTPTimeout time.Duration

	StripeSecretKey string
	ClientURL       string
	PayNowUEN       string

	BrevoAPIKey   string
	MailFromName  string
	MailFromEmail string
	AdminEmail    string

	MaxFileSizeBytes int64

	ObjectStoreEndpoint        string
	ObjectStoreRegion          string
	ObjectStoreAccessKeyID     string
	ObjectStoreSecretAccessKey string
	ObjectStoreBucket          string
	ObjectStorePublicBaseURL   string
}

func Load() Config {
	cfg := Config{
		Env:              getEnv("APP_ENV", "development"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTExpirySeconds: getEnvInt64("JWT_EXPIRY", 86400),

		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		RabbitMQWorkerMode: getEnv("RABBITMQ_WORKER_MODE", "daemon"),
		CorsAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),

		Timezone:    getEnv("BUSINESS_TIMEZONE", "Asia/Singapore"),
		BakeryName:  getEnv("BAKERY_NAME", "ONE18 Bakery"),
		BakeryPhone: getEnv("BAKERY_PHONE", ""),

		FreeDeliveryThreshold: getEnvFloat("FREE_DELIVERY_THRESHOLD", 180),
		NearDeliveryFee:       getEnvFloat("NEAR_DELIVERY_FEE", 10),
		FarDeliveryFee:        getEnvFloat("FAR_DELIVERY_FEE", 15),
		FarPostalPrefixes:     splitCSV(getEnv("FAR_POSTAL_PREFIXES", defaultFarPrefixes)),

		WalkInMinLeadHours:  int(getEnvInt64("WALK_IN_MIN_LEAD_HOURS", 2)),
		PreorderMinLeadDays: int(getEnvInt64("PREORDER_MIN_LEAD_DAYS", 3)),

		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		GeocodeTimeout:   getEnvDuration("GEOCODE_TIMEOUT", 8*time.Second),

		LalamoveBaseURL:     getEnv("LALAMOVE_BASE_URL", "https://rest.lalamove.com"),
		LalamoveAPIKey:      getEnv("LALAMOVE_API_KEY", ""),
		LalamoveAPISecret:   getEnv("LALAMOVE_API_SECRET", ""),
		LalamoveMarket:      getEnv("LALAMOVE_MARKET", "SG"),
		LalamoveMinLead:     getEnvDuration("LALAMOVE_MIN_LEAD", time.Hour),
		LalamoveHTTPTimeout: getEnvDuration("LALAMOVE_HTTP_TIMEOUT", 15*time.Second),

		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		ClientURL:       getEnv("CLIENT_URL", ""),
		PayNowUEN:       getEnv("PAYNOW_UEN", ""),

		BrevoAPIKey:   getEnv("BREVO_API_KEY", ""),
		MailFromName:  getEnv("MAIL_FROM_NAME", "ONE18 Bakery"),
		MailFromEmail: getEnv("MAIL_FROM_EMAIL", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),

		MaxFileSizeBytes: getEnvInt64("MAX_FILE_SIZE", 5*1024*1024),

		ObjectStoreEndpoint:        getEnvFirst([]string{"OBJECT_STORE_ENDPOINT", "R2_S3_ENDPOINT"}, ""),
		ObjectStoreRegion:          getEnvFirst([]string{"OBJECT_STORE_REGION", "R2_REGION"}, "auto"),
		ObjectStoreAccessKeyID:     getEnvFirst([]string{"OBJECT_STORE_ACCESS_KEY_ID", "R2_ACCESS_KEY_ID"}, ""),
		ObjectStoreSecretAccessKey: getEnvFirst([]string{"OBJECT_STORE_SECRET_ACCESS_KEY", "R2_SECRET_ACCESS_KEY"}, ""),
		ObjectStoreBucket:          getEnvFirst([]string{"OBJECT_STORE_BUCKET", "R2_BUCKET"}, ""),
		ObjectStorePublicBaseURL:   getEnvFirst([]string{"OBJECT_STORE_PUBLIC_BASE_URL", "R2_PUBLIC_BASE_URL"}, ""),
	}

	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 5 * 1024 * 1024
	}

	// Back-compat: allow R2_ACCOUNT_ID -> endpoint
	if strings.TrimSpace(cfg.ObjectStoreEndpoint) == "" {
		accountID := strings.TrimSpace(os.Getenv("R2_ACCOUNT_ID"))
		if accountID != "" {
			cfg.ObjectStoreEndpoint = "https://" + accountID + ".r2.cloudflarestorage.com"
		}
	}

	return cfg
}

// East plus far north/west postal districts.
const defaultFarPrefixes = "46,47,48,49,50,51,52,53,54,55,56,57," +
	"60,61,62,63,64,65,66,67,68,69,70,71,72,73,74,75,76,77,78,79"

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvFirst(keys []string, fallback string) string {
	for _, k := range keys {
		value := strings.TrimSpace(os.Getenv(k))
		if value != "" {
			return value
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
