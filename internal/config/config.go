package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	RedisURL     string        `mapstructure:"REDIS_URL"`
	CacheTTL     time.Duration `mapstructure:"CACHE_TTL"`
	AMQPURL      string        `mapstructure:"AMQP_URL"`
	AMQPExchange string        `mapstructure:"AMQP_EXCHANGE"`

	AuthIssuer   string `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL  string `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience string `mapstructure:"AUTH_AUDIENCE"`

	HospitalTimezone    string `mapstructure:"HOSPITAL_TIMEZONE"`
	PatientDirectoryURL string `mapstructure:"PATIENT_DIRECTORY_URL"`

	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`

	// DefaultWardRates maps ward type to the fallback daily rate applied when
	// a ward carries no explicit rate, e.g. "GENERAL=1500,ICU=7500".
	DefaultWardRates map[string]float64
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CACHE_TTL", "30s")
	v.SetDefault("AMQP_EXCHANGE", "hms.allocation")
	v.SetDefault("HOSPITAL_TIMEZONE", "UTC")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("CACHE_TTL")
	v.BindEnv("AMQP_URL")
	v.BindEnv("AMQP_EXCHANGE")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("HOSPITAL_TIMEZONE")
	v.BindEnv("PATIENT_DIRECTORY_URL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("DEFAULT_WARD_RATES")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	rates, err := parseWardRates(v.GetString("DEFAULT_WARD_RATES"))
	if err != nil {
		return nil, err
	}
	cfg.DefaultWardRates = rates

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if _, err := time.LoadLocation(cfg.HospitalTimezone); err != nil {
		return nil, fmt.Errorf("HOSPITAL_TIMEZONE %q is not a valid IANA zone: %w", cfg.HospitalTimezone, err)
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location resolves the configured hospital timezone. Load already validated
// it, so failures here mean the zone database changed underneath us.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.HospitalTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks that the configuration is safe to run. Outside development,
// an auth issuer must be configured so real JWT verification is enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthIssuer == "" && c.AuthJWKSURL == "" {
		return fmt.Errorf(
			"AUTH_ISSUER or AUTH_JWKS_URL must be set when ENV=%q; refusing to start without authentication", c.Env)
	}
	return nil
}

// parseWardRates parses "TYPE=rate,TYPE=rate" into a map.
func parseWardRates(s string) (map[string]float64, error) {
	rates := make(map[string]float64)
	if strings.TrimSpace(s) == "" {
		return rates, nil
	}
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("DEFAULT_WARD_RATES entry %q is not TYPE=rate", pair)
		}
		var rate float64
		if _, err := fmt.Sscanf(parts[1], "%f", &rate); err != nil {
			return nil, fmt.Errorf("DEFAULT_WARD_RATES rate %q is not numeric", parts[1])
		}
		rates[strings.ToUpper(parts[0])] = rate
	}
	return rates, nil
}
