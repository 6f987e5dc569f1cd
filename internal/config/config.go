package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port string
	Env  string

	CORSAllowedHosts []string

	DB       DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Realtime RealtimeConfig
	Worker   WorkerConfig
	Pricing  PricingConfig
	Shop     ShopConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the libpq connection URL for this configuration.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// AuthConfig contains session and password-reset parameters.
type AuthConfig struct {
	JWTSecret        string
	SessionTTL       time.Duration
	RecoveryTTL      time.Duration
	ResetCodeTTL     time.Duration
	ResetCooldown    time.Duration
	RedirectDelay    time.Duration
	ResetRedirectURL string
	LoginPath        string
	HeartbeatSecret  string
}

// RealtimeConfig contains change-stream parameters.
type RealtimeConfig struct {
	// Mode is "incremental" (merge events) or "debounced" (refetch on events).
	Mode                 string
	MinReconnectInterval time.Duration
	MaxReconnectInterval time.Duration
	SubscriberBuffer     int
	DebounceWindow       time.Duration
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	RefreshInterval time.Duration
	FetchTimeout    time.Duration
}

// PricingConfig selects the single authoritative pricing convention.
type PricingConfig struct {
	Convention             string
	DefaultSingleRate      string
	DefaultInstallmentRate string
}

// BankAccount is a bank/IBAN row displayed on the public price list.
type BankAccount struct {
	BankName string
	IBAN     string
}

// ShopConfig contains public price-list presentation settings.
type ShopConfig struct {
	BrandPriority []string
	BankAccounts  []BankAccount
	AccountHolder string
	ContactPhone  string
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; production relies on real environment variables.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.CORSAllowedHosts = getEnvList("CORS_ALLOWED_HOSTS",
		"localhost:3000,127.0.0.1:3000,deryailetisim.com,www.deryailetisim.com,admin.deryailetisim.com")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Auth
	cfg.Auth = AuthConfig{
		JWTSecret:        getEnv("JWT_SECRET", ""),
		ResetRedirectURL: getEnv("AUTH_RESET_REDIRECT_URL", "http://localhost:3000/auth/callback"),
		LoginPath:        getEnv("AUTH_LOGIN_PATH", "/admin/login"),
		HeartbeatSecret:  getEnv("HEARTBEAT_SECRET", ""),
	}

	// Realtime
	cfg.Realtime = RealtimeConfig{
		Mode:             strings.ToLower(getEnv("REALTIME_MODE", "incremental")),
		SubscriberBuffer: getEnvInt("REALTIME_SUBSCRIBER_BUFFER", 64),
	}

	// Pricing
	cfg.Pricing = LoadPricing()

	// Shop
	cfg.Shop = ShopConfig{
		BrandPriority: getEnvList("BRAND_PRIORITY", "APPLE,SAMSUNG,XIAOMI"),
		AccountHolder: getEnv("SHOP_ACCOUNT_HOLDER", "DERYA İNOVASYON"),
		ContactPhone:  getEnv("SHOP_CONTACT_PHONE", "+90 (507) 263 82 82"),
	}
	accounts, err := parseBankAccounts(getEnv("SHOP_BANK_ACCOUNTS", "Kuveyt Türk=TR25 0020 5000 0962 1365 2000 01"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHOP_BANK_ACCOUNTS: %w", err)
	}
	cfg.Shop.BankAccounts = accounts

	// Durations
	if cfg.Auth.SessionTTL, err = parseDurationEnv("AUTH_SESSION_TTL", "12h"); err != nil {
		return nil, fmt.Errorf("invalid AUTH_SESSION_TTL: %w", err)
	}
	if cfg.Auth.RecoveryTTL, err = parseDurationEnv("AUTH_RECOVERY_TTL", "15m"); err != nil {
		return nil, fmt.Errorf("invalid AUTH_RECOVERY_TTL: %w", err)
	}
	if cfg.Auth.ResetCodeTTL, err = parseDurationEnv("AUTH_RESET_CODE_TTL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid AUTH_RESET_CODE_TTL: %w", err)
	}
	if cfg.Auth.ResetCooldown, err = parseDurationEnv("AUTH_RESET_COOLDOWN", "30m"); err != nil {
		return nil, fmt.Errorf("invalid AUTH_RESET_COOLDOWN: %w", err)
	}
	if cfg.Auth.RedirectDelay, err = parseDurationEnv("AUTH_REDIRECT_DELAY", "3s"); err != nil {
		return nil, fmt.Errorf("invalid AUTH_REDIRECT_DELAY: %w", err)
	}
	if cfg.Realtime.MinReconnectInterval, err = parseDurationEnv("REALTIME_MIN_RECONNECT", "2s"); err != nil {
		return nil, fmt.Errorf("invalid REALTIME_MIN_RECONNECT: %w", err)
	}
	if cfg.Realtime.MaxReconnectInterval, err = parseDurationEnv("REALTIME_MAX_RECONNECT", "1m"); err != nil {
		return nil, fmt.Errorf("invalid REALTIME_MAX_RECONNECT: %w", err)
	}
	if cfg.Realtime.DebounceWindow, err = parseDurationEnv("REALTIME_DEBOUNCE", "500ms"); err != nil {
		return nil, fmt.Errorf("invalid REALTIME_DEBOUNCE: %w", err)
	}
	if cfg.Worker.RefreshInterval, err = parseDurationEnv("REFRESH_INTERVAL", "30s"); err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	if cfg.Worker.FetchTimeout, err = parseDurationEnv("REFRESH_FETCH_TIMEOUT", "10s"); err != nil {
		return nil, fmt.Errorf("invalid REFRESH_FETCH_TIMEOUT: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadPricing reads only the pricing settings, for tools that need no
// database.
func LoadPricing() PricingConfig {
	_ = godotenv.Load()
	return PricingConfig{
		Convention:             strings.ToLower(getEnv("PRICING_CONVENTION", "divisive")),
		DefaultSingleRate:      getEnv("PRICING_DEFAULT_SINGLE_RATE", ""),
		DefaultInstallmentRate: getEnv("PRICING_DEFAULT_INSTALLMENT_RATE", ""),
	}
}

func (c *Config) validate() error {
	// Basic validation for DB parameters; keeps messages concise and helpful.
	if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
		return errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set for authentication")
	}
	if c.Realtime.Mode != "incremental" && c.Realtime.Mode != "debounced" {
		return fmt.Errorf("REALTIME_MODE must be 'incremental' or 'debounced', got %q", c.Realtime.Mode)
	}
	if c.Pricing.Convention != "divisive" && c.Pricing.Convention != "multiplicative" {
		return fmt.Errorf("PRICING_CONVENTION must be 'divisive' or 'multiplicative', got %q", c.Pricing.Convention)
	}
	if c.Worker.RefreshInterval == 0 {
		return errors.New("REFRESH_INTERVAL must be greater than zero")
	}
	if c.Realtime.SubscriberBuffer <= 0 {
		return errors.New("REALTIME_SUBSCRIBER_BUFFER must be positive")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvList splits a comma-separated variable, dropping blank items.
func getEnvList(key, def string) []string {
	raw := getEnv(key, def)
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

// parseBankAccounts parses "Bank A=IBAN;Bank B=IBAN".
func parseBankAccounts(raw string) ([]BankAccount, error) {
	var out []BankAccount
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, iban, ok := strings.Cut(entry, "=")
		name, iban = strings.TrimSpace(name), strings.TrimSpace(iban)
		if !ok || name == "" || iban == "" {
			return nil, fmt.Errorf("entry %q must be 'Bank Name=IBAN'", entry)
		}
		out = append(out, BankAccount{BankName: name, IBAN: iban})
	}
	return out, nil
}
