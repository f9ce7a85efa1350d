// Package config loads runtime configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every injectable knob for the auction engine.
type Config struct {
	Port string

	// DBDriver selects the storage backend: "postgres" or "sqlite".
	DBDriver   string
	SQLitePath string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret string

	// PaymentAPIURL and ContractAPIURL point at the external payment and
	// contract services. Empty values select the local development
	// fallbacks.
	PaymentAPIURL  string
	PaymentAPIKey  string
	ContractAPIURL string
	ContractAPIKey string

	// DepositAmount is the fixed deposit recorded by the development
	// payment fallback.
	DepositAmount string

	// MinConfirmedParticipants is the finalization threshold: an auction
	// with fewer confirmed participants is settled as failed.
	MinConfirmedParticipants int

	// RefundWindow is the early-exit refund cutoff measured back from the
	// auction start; withdrawals after auctionStartAt-RefundWindow forfeit
	// refund eligibility.
	RefundWindow time.Duration

	// BidHistoryLimit caps the bid history included in subscriber snapshots.
	BidHistoryLimit int

	// SchedulerInterval is how often time-driven lifecycle transitions run.
	SchedulerInterval time.Duration
}

// Load reads configuration with local-development defaults.
// A missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:       getEnv("PORT", "8080"),
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		SQLitePath: getEnv("SQLITE_PATH", "./data/auctions.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "auctionhub"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),

		PaymentAPIURL:  getEnv("PAYMENT_API_URL", ""),
		PaymentAPIKey:  getEnv("PAYMENT_API_KEY", ""),
		ContractAPIURL: getEnv("CONTRACT_API_URL", ""),
		ContractAPIKey: getEnv("CONTRACT_API_KEY", ""),
		DepositAmount:  getEnv("DEPOSIT_AMOUNT", "500.00"),

		MinConfirmedParticipants: getEnvInt("MIN_CONFIRMED_PARTICIPANTS", 2),
		RefundWindow:             getEnvDuration("REFUND_WINDOW", 24*time.Hour),
		BidHistoryLimit:          getEnvInt("BID_HISTORY_LIMIT", 20),
		SchedulerInterval:        getEnvDuration("SCHEDULER_INTERVAL", 5*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
