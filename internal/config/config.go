package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port string

	// Ledger connection.
	RPCURL          string
	PrivateKey      string
	ContractAddress string
	ChainID         int64

	// Ledger call behavior.
	CallTimeout time.Duration
	TxTimeout   time.Duration
	ReadRetries uint64

	// AutoAuthorize grants mint permission to unauthorized issuers on their
	// first mint attempt. Off by default: silently handing out write
	// privilege is a demo convenience, not a sane production default.
	AutoAuthorize bool

	// Optional read-through cache for immutable credential records.
	RedisURL string

	ShareTokenSecret string
	FrontendBaseURL  string
}

// Load reads .env (if present) and the process environment.
func Load(logger *slog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file, using process environment only")
	}

	cfg := &Config{
		Port:             getenv("PORT", "3000"),
		RPCURL:           os.Getenv("RPC_URL"),
		PrivateKey:       os.Getenv("PRIVATE_KEY"),
		ContractAddress:  os.Getenv("CONTRACT_ADDRESS"),
		RedisURL:         os.Getenv("REDIS_URL"),
		ShareTokenSecret: os.Getenv("SHARE_TOKEN_SECRET"),
		FrontendBaseURL:  getenv("FRONTEND_BASE_URL", "http://localhost:3000"),
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC_URL is required")
	}
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("PRIVATE_KEY is required")
	}
	if cfg.ContractAddress == "" {
		return nil, fmt.Errorf("CONTRACT_ADDRESS is required")
	}

	var err error
	if cfg.ChainID, err = getint64("CHAIN_ID", 11155111); err != nil { // Sepolia
		return nil, err
	}
	if cfg.CallTimeout, err = getduration("ETH_CALL_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.TxTimeout, err = getduration("ETH_TX_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	retries, err := getint64("ETH_READ_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	cfg.ReadRetries = uint64(retries)
	cfg.AutoAuthorize = getenv("AUTO_AUTHORIZE", "false") == "true"

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getduration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30s: %w", key, err)
	}
	return d, nil
}
