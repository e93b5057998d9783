package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Mail     MailConfig
	Chat     ChatConfig
	Breaks   BreakConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// MailConfig holds SMTP dispatch settings. An empty Host selects the
// logging stub dispatcher.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// ChatConfig carries the symmetric key and IV for message encryption at
// rest, hex encoded in the environment. The key/IV pair is static per
// deployment.
type ChatConfig struct {
	EncryptionKeyHex string
	EncryptionIVHex  string
	MaxMessageBytes  int
}

// BreakConfig seeds the break policy row on first start. Runtime values
// live in the store and are read fresh on every eligibility check.
type BreakConfig struct {
	DefaultDurationMinutes int
	DefaultDailyFrequency  int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Mail: MailConfig{
			Host:     os.Getenv("MAIL_SMTP_HOST"),
			Port:     getEnvAsInt("MAIL_SMTP_PORT", 587),
			Username: os.Getenv("MAIL_SMTP_USERNAME"),
			Password: os.Getenv("MAIL_SMTP_PASSWORD"),
			From:     getEnv("MAIL_FROM", "noreply@example.com"),
		},
		Chat: ChatConfig{
			EncryptionKeyHex: getEnv("CHAT_ENCRYPTION_KEY", defaultChatKeyHex),
			EncryptionIVHex:  getEnv("CHAT_ENCRYPTION_IV", defaultChatIVHex),
			MaxMessageBytes:  getEnvAsInt("CHAT_MAX_MESSAGE_BYTES", 2000),
		},
		Breaks: BreakConfig{
			DefaultDurationMinutes: getEnvAsInt("BREAK_DURATION_MINUTES", 15),
			DefaultDailyFrequency:  getEnvAsInt("BREAK_DAILY_FREQUENCY", 2),
		},
	}

	if _, err := cfg.Chat.Key(); err != nil {
		return nil, fmt.Errorf("invalid CHAT_ENCRYPTION_KEY: %w", err)
	}
	if _, err := cfg.Chat.IV(); err != nil {
		return nil, fmt.Errorf("invalid CHAT_ENCRYPTION_IV: %w", err)
	}

	return cfg, nil
}

// Development-only fallbacks; real deployments set their own values.
const (
	defaultChatKeyHex = "404142434445464748494a4b4c4d4e4f505152535455565758595a5b5c5d5e5f"
	defaultChatIVHex  = "000102030405060708090a0b0c0d0e0f"
)

// Key decodes the configured AES key.
func (c ChatConfig) Key() ([]byte, error) {
	key, err := hex.DecodeString(c.EncryptionKeyHex)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("chat key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// IV decodes the configured initialization vector.
func (c ChatConfig) IV() ([]byte, error) {
	iv, err := hex.DecodeString(c.EncryptionIVHex)
	if err != nil {
		return nil, err
	}
	if len(iv) != 16 {
		return nil, fmt.Errorf("chat iv must be 16 bytes, got %d", len(iv))
	}
	return iv, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
