package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress  string
	DatabaseURI string

	GatewayAddress       string
	GatewayAPIKey        string
	GatewayWebhookSecret string

	JWTSecret string

	// Commercial terms applied at order placement.
	Currency         string
	PetrolPriceMinor int64 // per litre
	DieselPriceMinor int64 // per litre
	DeliveryFeeMinor int64
	TaxRateBP        int64 // basis points of the base amount

	// Fixed interval added to "now" for the en-route ETA.
	ETAInterval time.Duration

	PaymentPollInterval time.Duration
	PaymentPollBatch    int
	WorkerPoolSize      int
	ShutdownTimeout     time.Duration
}

const (
	defaultRunAddress          = ":8080"
	defaultJWTSecret           = "change-me-in-production"
	defaultCurrency            = "INR"
	defaultPetrolPriceMinor    = 9550
	defaultDieselPriceMinor    = 8920
	defaultDeliveryFeeMinor    = 5000
	defaultTaxRateBP           = 1800
	defaultETAInterval         = 30 * time.Minute
	defaultPaymentPollInterval = 15 * time.Second
	defaultPaymentPollBatch    = 32
	defaultWorkerPoolSize      = 4
	defaultShutdownTimeout     = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:           getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:          getString(lookup, "DATABASE_URI", ""),
		GatewayAddress:       getString(lookup, "GATEWAY_ADDRESS", ""),
		GatewayAPIKey:        getString(lookup, "GATEWAY_API_KEY", ""),
		GatewayWebhookSecret: getString(lookup, "GATEWAY_WEBHOOK_SECRET", ""),
		JWTSecret:            getString(lookup, "JWT_SECRET", defaultJWTSecret),
		Currency:             getString(lookup, "CURRENCY", defaultCurrency),
		PetrolPriceMinor:     getInt64(lookup, "PETROL_PRICE_MINOR", defaultPetrolPriceMinor),
		DieselPriceMinor:     getInt64(lookup, "DIESEL_PRICE_MINOR", defaultDieselPriceMinor),
		DeliveryFeeMinor:     getInt64(lookup, "DELIVERY_FEE_MINOR", defaultDeliveryFeeMinor),
		TaxRateBP:            getInt64(lookup, "TAX_RATE_BP", defaultTaxRateBP),
		ETAInterval:          getDuration(lookup, "ETA_INTERVAL", defaultETAInterval),
		PaymentPollInterval:  getDuration(lookup, "PAYMENT_POLL_INTERVAL", defaultPaymentPollInterval),
		PaymentPollBatch:     getInt(lookup, "PAYMENT_POLL_BATCH", defaultPaymentPollBatch),
		WorkerPoolSize:       getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:      getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("fueldrop", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		etaIntervalStr     = cfg.ETAInterval.String()
		pollIntervalStr    = cfg.PaymentPollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.GatewayAddress, "g", cfg.GatewayAddress, "Payment gateway base URL")
	fs.StringVar(&cfg.GatewayAPIKey, "gateway-key", cfg.GatewayAPIKey, "Payment gateway API key")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.Int64Var(&cfg.PetrolPriceMinor, "petrol-price", cfg.PetrolPriceMinor, "Petrol price per litre in minor units")
	fs.Int64Var(&cfg.DieselPriceMinor, "diesel-price", cfg.DieselPriceMinor, "Diesel price per litre in minor units")
	fs.Int64Var(&cfg.DeliveryFeeMinor, "delivery-fee", cfg.DeliveryFeeMinor, "Flat delivery fee in minor units")
	fs.Int64Var(&cfg.TaxRateBP, "tax-rate", cfg.TaxRateBP, "Tax rate in basis points")
	fs.StringVar(&etaIntervalStr, "eta-interval", etaIntervalStr, "Interval added to now for en-route ETA")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between payment reconciliation polls")
	fs.IntVar(&cfg.PaymentPollBatch, "poll-batch", cfg.PaymentPollBatch, "Maximum orders per reconciliation batch")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent reconciliation workers")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ETAInterval, err = time.ParseDuration(etaIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid eta interval: %w", err)
	}

	if cfg.PaymentPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("GATEWAY_WEBHOOK_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read webhook secret file: %w", err)
		}
		cfg.GatewayWebhookSecret = string(content)
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.PaymentPollBatch <= 0 {
		cfg.PaymentPollBatch = defaultPaymentPollBatch
	}

	if cfg.PaymentPollInterval <= 0 {
		cfg.PaymentPollInterval = defaultPaymentPollInterval
	}

	if cfg.ETAInterval <= 0 {
		cfg.ETAInterval = defaultETAInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.PetrolPriceMinor <= 0 || cfg.DieselPriceMinor <= 0 {
		return nil, fmt.Errorf("fuel prices must be positive")
	}

	if cfg.DeliveryFeeMinor < 0 || cfg.TaxRateBP < 0 {
		return nil, fmt.Errorf("delivery fee and tax rate must not be negative")
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.GatewayAddress == "" {
		return nil, fmt.Errorf("payment gateway address must be provided")
	}

	if cfg.GatewayWebhookSecret == "" {
		return nil, fmt.Errorf("gateway webhook secret must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getInt64(lookup envLookup, key string, def int64) int64 {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
