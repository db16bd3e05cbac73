package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// MaxFeeRate caps HOUSE_FEE_RATE, in basis points.
const MaxFeeRate = 500

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// House
	HouseAddress     string
	HouseFeeOwner    string
	HouseFeeRate     uint64
	HouseBetIDScheme string // "escalating" or "salted"
	HouseRewardDraws bool

	// Wagering asset served by the in-process ledger
	AssetAddress   string
	AssetSymbol    string
	AmountDecimals int

	// External oracle gateway (optional)
	OracleHTTPURL     string
	OracleHTTPAddress string
	OracleHTTPTimeout time.Duration

	// Read API
	CacheTTL          time.Duration
	WSBroadcastBuffer int
	WSSendBuffer      int

	// Escrow solvency monitor
	SolvencyCheckInterval time.Duration

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string

	// Chain
	EthRPCURL string
}

// LoadFromEnv loads configuration from environment variables with defaults.
// A .env file in the working directory is read first when present.
func LoadFromEnv() (*Config, error) {
	// a missing .env is fine; real environment variables still apply
	_ = godotenv.Load()

	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// House defaults
		HouseAddress:     getEnvOrDefault("HOUSE_ADDRESS", "0x0000000000000000000000000000000000000105"),
		HouseFeeOwner:    getEnvOrDefault("HOUSE_FEE_OWNER", "0x00000000000000000000000000000000000000f0"),
		HouseFeeRate:     getUint64OrDefault("HOUSE_FEE_RATE", 100),
		HouseBetIDScheme: getEnvOrDefault("HOUSE_BET_ID_SCHEME", "escalating"),
		HouseRewardDraws: getBoolOrDefault("HOUSE_REWARD_DRAWS", false),

		// Asset defaults
		AssetAddress:   getEnvOrDefault("ASSET_ADDRESS", "0x0000000000000000000000000000000000000e20"),
		AssetSymbol:    getEnvOrDefault("ASSET_SYMBOL", "USDC"),
		AmountDecimals: getIntOrDefault("AMOUNT_DECIMALS", 6),

		// Oracle defaults
		OracleHTTPURL:     os.Getenv("ORACLE_HTTP_URL"),
		OracleHTTPAddress: os.Getenv("ORACLE_HTTP_ADDRESS"),
		OracleHTTPTimeout: getDurationOrDefault("ORACLE_HTTP_TIMEOUT", 5*time.Second),

		// Read API defaults
		CacheTTL:          getDurationOrDefault("CACHE_TTL", 5*time.Second),
		WSBroadcastBuffer: getIntOrDefault("WS_BROADCAST_BUFFER", 256),
		WSSendBuffer:      getIntOrDefault("WS_SEND_BUFFER", 64),

		SolvencyCheckInterval: getDurationOrDefault("SOLVENCY_CHECK_INTERVAL", 30*time.Second),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "house"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "house123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "parimutuel_house"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),

		EthRPCURL: os.Getenv("ETH_RPC_URL"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	err := requireAddress("HOUSE_ADDRESS", c.HouseAddress)
	if err != nil {
		return err
	}

	err = requireAddress("HOUSE_FEE_OWNER", c.HouseFeeOwner)
	if err != nil {
		return err
	}

	err = requireAddress("ASSET_ADDRESS", c.AssetAddress)
	if err != nil {
		return err
	}

	if c.HouseFeeRate > MaxFeeRate {
		return fmt.Errorf("HOUSE_FEE_RATE must be at most %d, got %d", MaxFeeRate, c.HouseFeeRate)
	}

	if c.HouseBetIDScheme != "escalating" && c.HouseBetIDScheme != "salted" {
		return fmt.Errorf("HOUSE_BET_ID_SCHEME must be 'escalating' or 'salted', got %q", c.HouseBetIDScheme)
	}

	if c.AmountDecimals < 0 || c.AmountDecimals > 36 {
		return fmt.Errorf("AMOUNT_DECIMALS must be between 0 and 36, got %d", c.AmountDecimals)
	}

	if (c.OracleHTTPURL == "") != (c.OracleHTTPAddress == "") {
		return fmt.Errorf("ORACLE_HTTP_URL and ORACLE_HTTP_ADDRESS must be set together")
	}

	if c.OracleHTTPAddress != "" {
		err = requireAddress("ORACLE_HTTP_ADDRESS", c.OracleHTTPAddress)
		if err != nil {
			return err
		}
		if c.OracleHTTPAddress == c.HouseAddress {
			return fmt.Errorf("ORACLE_HTTP_ADDRESS cannot be the house address")
		}
	}

	if c.OracleHTTPTimeout <= 0 {
		return fmt.Errorf("ORACLE_HTTP_TIMEOUT must be positive, got %v", c.OracleHTTPTimeout)
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %v", c.CacheTTL)
	}

	if c.SolvencyCheckInterval <= 0 {
		return fmt.Errorf("SOLVENCY_CHECK_INTERVAL must be positive, got %v", c.SolvencyCheckInterval)
	}

	if c.StorageMode != "console" && c.StorageMode != "postgres" {
		return fmt.Errorf("STORAGE_MODE must be 'console' or 'postgres', got %q", c.StorageMode)
	}

	return nil
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPass, c.PostgresDB, c.PostgresSSL)
}

func requireAddress(key string, value string) error {
	if !common.IsHexAddress(value) {
		return fmt.Errorf("%s must be a hex address, got %q", key, value)
	}
	if common.HexToAddress(value) == (common.Address{}) {
		return fmt.Errorf("%s cannot be the zero address", key)
	}
	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getUint64OrDefault(key string, defaultValue uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	uintVal, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return uintVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
