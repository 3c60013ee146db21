package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	LogLevel    string

	ServerPort int
	BaseURL    string

	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	ResetTokenTTL    time.Duration

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	SendGridAPIKey string
	MailFrom       string
	MailFromName   string

	StripeSecretKey   string
	PaymentCurrency   string
	PaymentSuccessURL string
	PaymentFailURL    string
}

// Load reads the process environment. A .env file in the working
// directory, when present, fills variables that are not already set.
func Load() Config {
	_ = godotenv.Load()

	baseURL := EnvDefault("BASE_URL", "http://localhost:8080")

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),
		BaseURL:    strings.TrimRight(baseURL, "/"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTTL:        EnvDurationDefault("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:       EnvDurationDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		ResetTokenTTL:    EnvDurationDefault("RESET_TOKEN_TTL", 10*time.Minute),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       EnvDefault("MAIL_FROM", "no-reply@storefront.local"),
		MailFromName:   EnvDefault("MAIL_FROM_NAME", "Storefront"),

		StripeSecretKey:   os.Getenv("STRIPE_SECRET_KEY"),
		PaymentCurrency:   EnvDefault("PAYMENT_CURRENCY", "inr"),
		PaymentSuccessURL: EnvDefault("PAYMENT_SUCCESS_URL", baseURL+"/payment/success?session_id={CHECKOUT_SESSION_ID}"),
		PaymentFailURL:    EnvDefault("PAYMENT_FAIL_URL", baseURL+"/payment/fail?session_id={CHECKOUT_SESSION_ID}"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
