package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Config holds process-wide settings read from the environment.
type Config struct {
	Port   int
	DBPath string

	// CassoWebhookSecret is the HMAC key shared with the bank-transfer gateway.
	// An empty secret makes the webhook answer 500 for every request.
	CassoWebhookSecret  string
	WebhookMaxBodyBytes int64

	// JWTSecret signs admin tokens. Admin routes are disabled when empty.
	JWTSecret   string
	CORSOrigins []string

	AmountToleranceMin     decimal.Decimal
	AmountTolerancePercent decimal.Decimal
	MatchScanLimit         int

	LogLevel string
}

const (
	defaultPort                = 8080
	defaultDBPath              = "./data/tapi.db"
	defaultWebhookMaxBodyBytes = 65536
	defaultMatchScanLimit      = 50
	defaultToleranceMin        = "1000"
	defaultTolerancePercent    = "0.01"
)

// Load reads configuration from environment variables, applying defaults.
// Invalid numeric values fall back to their defaults.
func Load() *Config {
	return &Config{
		Port:                   getInt("PORT", defaultPort),
		DBPath:                 getEnv("DB_PATH", defaultDBPath),
		CassoWebhookSecret:     strings.TrimSpace(os.Getenv("CASSO_WEBHOOK_SECRET")),
		WebhookMaxBodyBytes:    int64(getInt("WEBHOOK_MAX_BODY_BYTES", defaultWebhookMaxBodyBytes)),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		CORSOrigins:            splitCSV(getEnv("CORS_ORIGINS", "*")),
		AmountToleranceMin:     getDecimal("AMOUNT_TOLERANCE_MIN", defaultToleranceMin),
		AmountTolerancePercent: getDecimal("AMOUNT_TOLERANCE_PERCENT", defaultTolerancePercent),
		MatchScanLimit:         getInt("MATCH_SCAN_LIMIT", defaultMatchScanLimit),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getDecimal(key, fallback string) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil && !d.IsNegative() {
			return d
		}
	}
	return decimal.RequireFromString(fallback)
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
