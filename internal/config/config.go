package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	BlockPolicyStrict  = "strict"
	BlockPolicyLenient = "lenient"

	LedgerBackendMemory   = "memory"
	LedgerBackendPostgres = "postgres"
	LedgerBackendRedis    = "redis"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Ledger   LedgerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Email    EmailConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	LogFile        string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// IsProduction reports whether production-only guards apply
func (s ServerConfig) IsProduction() bool {
	return s.Env == EnvProduction
}

type AuthConfig struct {
	AdminSecret       string
	AdminSecretHash   string
	DevFallbackSecret string
	TOTPSecret        string

	SessionSigningKey string
	SessionLifetime   time.Duration
	CookieDomain      string

	MaxFailedAttempts int
	AttemptWindow     time.Duration
	BlockPolicy       string
	StrictFingerprint bool

	LoginRequestsPerMinute int
	TimingDelayBaseMs      int
	TimingDelayRandomMs    int
	CleanupInterval        time.Duration
}

type LedgerConfig struct {
	Backend string
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type EmailConfig struct {
	AWSRegion      string
	FromAddress    string
	AlertRecipient string
}

// Enabled reports whether lockout alerts can be delivered
func (e EmailConfig) Enabled() bool {
	return e.AWSRegion != "" && e.FromAddress != "" && e.AlertRecipient != ""
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", EnvDevelopment)

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFile:        getEnv("LOG_FILE", ""),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			AdminSecret:            getEnv("ADMIN_SECRET", ""),
			AdminSecretHash:        getEnv("ADMIN_SECRET_HASH", ""),
			DevFallbackSecret:      getEnv("DEV_FALLBACK_SECRET", ""),
			TOTPSecret:             getEnv("ADMIN_TOTP_SECRET", ""),
			SessionSigningKey:      getEnv("SESSION_SIGNING_KEY", ""),
			SessionLifetime:        getEnvAsDuration("SESSION_LIFETIME", 2*time.Hour),
			CookieDomain:           getEnv("COOKIE_DOMAIN", ""),
			MaxFailedAttempts:      getEnvAsInt("MAX_FAILED_ATTEMPTS", 5),
			AttemptWindow:          getEnvAsDuration("ATTEMPT_WINDOW", 15*time.Minute),
			BlockPolicy:            strings.ToLower(getEnv("BLOCK_POLICY", BlockPolicyStrict)),
			StrictFingerprint:      getEnvAsBool("STRICT_FINGERPRINT", false),
			LoginRequestsPerMinute: getEnvAsInt("LOGIN_REQUESTS_PER_MINUTE", 20),
			TimingDelayBaseMs:      getEnvAsInt("TIMING_DELAY_BASE_MS", 250),
			TimingDelayRandomMs:    getEnvAsInt("TIMING_DELAY_RANDOM_MS", 100),
			CleanupInterval:        getEnvAsDuration("LEDGER_CLEANUP_INTERVAL", 10*time.Minute),
		},
		Ledger: LedgerConfig{
			Backend: strings.ToLower(getEnv("LEDGER_BACKEND", LedgerBackendMemory)),
		},
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "admingate"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 2)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "admingate:"),
		},
		Email: EmailConfig{
			AWSRegion:      getEnv("AWS_REGION", ""),
			FromAddress:    getEnv("ALERT_FROM_ADDRESS", ""),
			AlertRecipient: getEnv("ALERT_RECIPIENT", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.AdminSecret == "" && c.Auth.AdminSecretHash == "" {
		return fmt.Errorf("ADMIN_SECRET or ADMIN_SECRET_HASH is required")
	}

	if c.Server.IsProduction() && c.Auth.DevFallbackSecret != "" {
		return fmt.Errorf("DEV_FALLBACK_SECRET must not be set in production")
	}

	if err := validateSigningKey(c.Auth.SessionSigningKey, c.Server.Env); err != nil {
		return err
	}

	if c.Auth.MaxFailedAttempts < 1 {
		return fmt.Errorf("MAX_FAILED_ATTEMPTS must be at least 1 (got %d)", c.Auth.MaxFailedAttempts)
	}
	if c.Auth.AttemptWindow <= 0 {
		return fmt.Errorf("ATTEMPT_WINDOW must be positive")
	}
	if c.Auth.SessionLifetime <= 0 {
		return fmt.Errorf("SESSION_LIFETIME must be positive")
	}
	if c.Auth.CleanupInterval <= 0 {
		return fmt.Errorf("LEDGER_CLEANUP_INTERVAL must be positive (got %s)", c.Auth.CleanupInterval)
	}
	if c.Auth.LoginRequestsPerMinute < 1 {
		return fmt.Errorf("LOGIN_REQUESTS_PER_MINUTE must be at least 1 (got %d)", c.Auth.LoginRequestsPerMinute)
	}

	switch c.Auth.BlockPolicy {
	case BlockPolicyStrict, BlockPolicyLenient:
	default:
		return fmt.Errorf("BLOCK_POLICY must be %q or %q (got %q)", BlockPolicyStrict, BlockPolicyLenient, c.Auth.BlockPolicy)
	}

	switch c.Ledger.Backend {
	case LedgerBackendMemory, LedgerBackendRedis:
	case LedgerBackendPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required for the postgres ledger backend")
		}
	default:
		return fmt.Errorf("unknown LEDGER_BACKEND %q", c.Ledger.Backend)
	}

	return nil
}

// validateSigningKey enforces minimum security standards for the session signing key
func validateSigningKey(key, env string) error {
	if key == "" {
		return fmt.Errorf("SESSION_SIGNING_KEY is required")
	}

	minLength := 16
	if env == EnvProduction {
		minLength = 32
	}

	if len(key) < minLength {
		return fmt.Errorf("SESSION_SIGNING_KEY must be at least %d characters in %s environment (got %d)",
			minLength, env, len(key))
	}

	weakKeys := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	keyLower := strings.ToLower(key)
	for _, weak := range weakKeys {
		if keyLower == weak {
			return fmt.Errorf("SESSION_SIGNING_KEY cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseAllowedOrigins(env string) []string {
	if env == EnvProduction {
		origins := getEnvAsList("ALLOWED_ORIGINS")
		if origins == nil {
			return []string{} // Default to no origins in production
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
