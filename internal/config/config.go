package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	StoreDriver      string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32         `mapstructure:"DB_MIN_CONNS"`
	MongoURI         string        `mapstructure:"MONGO_URI"`
	MongoDatabase    string        `mapstructure:"MONGO_DATABASE"`
	AuthIssuer       string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience     string        `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL      string        `mapstructure:"AUTH_JWKS_URL"`
	AuthSigningKey   string        `mapstructure:"AUTH_SIGNING_KEY"`
	SessionTTL       time.Duration `mapstructure:"SESSION_TTL"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS     float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit        string        `mapstructure:"BODY_LIMIT"`
	KafkaBrokers     []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic       string        `mapstructure:"KAFKA_TOPIC"`
	ReminderSchedule string        `mapstructure:"REMINDER_SCHEDULE"`
	PageSize         int           `mapstructure:"PAGE_SIZE"`
	TimeZone         string        `mapstructure:"TIME_ZONE"`
}

var defaults = map[string]any{
	"PORT":              "8000",
	"ENV":               "development",
	"STORE_DRIVER":      DriverMemory,
	"DB_MAX_CONNS":      20,
	"DB_MIN_CONNS":      2,
	"MONGO_DATABASE":    "caretrack",
	"SESSION_TTL":       "12h",
	"CORS_ORIGINS":      "http://localhost:3000",
	"RATE_LIMIT_RPS":    20,
	"RATE_LIMIT_BURST":  40,
	"REQUEST_TIMEOUT":   "30s",
	"BODY_LIMIT":        "1M",
	"KAFKA_TOPIC":       "appointment_events",
	"REMINDER_SCHEDULE": "0 8 * * *",
	"PAGE_SIZE":         10,
	"TIME_ZONE":         "UTC",
}

var envKeys = []string{
	"DATABASE_URL", "MONGO_URI", "AUTH_ISSUER", "AUTH_AUDIENCE",
	"AUTH_JWKS_URL", "AUTH_SIGNING_KEY", "KAFKA_BROKERS",
}

// Load reads .env, when present, and the environment. It does not validate;
// call Validate before using the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for k, d := range defaults {
		v.SetDefault(k, d)
		v.BindEnv(k)
	}
	for _, k := range envKeys {
		v.BindEnv(k)
	}

	// A missing .env is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DevAuth reports whether every request should be signed in as the
// development admin: ENV=development with no way to verify real sessions.
func (c *Config) DevAuth() bool {
	return c.IsDev() && c.AuthSigningKey == "" && c.AuthIssuer == ""
}

// SigningKey decodes AUTH_SIGNING_KEY. It is nil when unset.
func (c *Config) SigningKey() ([]byte, error) {
	if c.AuthSigningKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.AuthSigningKey)
	if err != nil {
		return nil, fmt.Errorf("AUTH_SIGNING_KEY is not valid hex: %w", err)
	}
	if len(key) < 32 {
		return nil, fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes (64 hex chars), got %d bytes", len(key))
	}
	return key, nil
}

// Location is the zone appointment days are computed in.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("TIME_ZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// Validate checks that the configuration is complete and safe to run. Outside
// development a session signing key or an external issuer is required.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is %q", DriverPostgres)
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER is %q", DriverMongo)
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q, %q or %q, got %q", DriverMemory, DriverPostgres, DriverMongo, c.StoreDriver)
	}

	if _, err := c.SigningKey(); err != nil {
		return err
	}
	if !c.IsDev() && c.AuthSigningKey == "" && c.AuthIssuer == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY or AUTH_ISSUER must be set when ENV=%q", c.Env)
	}
	if c.AuthJWKSURL != "" && c.AuthIssuer == "" {
		return fmt.Errorf("AUTH_JWKS_URL requires AUTH_ISSUER")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be at least 1, got %d", c.PageSize)
	}
	if _, err := cron.ParseStandard(c.ReminderSchedule); err != nil {
		return fmt.Errorf("REMINDER_SCHEDULE %q: %w", c.ReminderSchedule, err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
