package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all configuration for the API server and the operator CLI.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Catalog   CatalogConfig
	Scoring   ScoringConfig
	Cert      CertificationConfig
	Log       LogConfig
	Generator GeneratorConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// DatabaseConfig selects the store driver and, for postgres, how to reach it.
// URL wins over the individual parts when set.
type DatabaseConfig struct {
	Driver   string
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type CatalogConfig struct {
	Dir         string
	SeedOnStart bool
}

// ScoringConfig holds the cut points that depend on bank size. They are ratios
// of the relevant total so a resized bank keeps equivalent thresholds.
type ScoringConfig struct {
	BeginnerMaxRatio       float64
	AdvancedMinRatio       float64
	DomainRemediationRatio float64
}

type CertificationConfig struct {
	PremiumValidityDays int
	CodeAttempts        int
}

type LogConfig struct {
	Level  string
	Pretty bool
}

type GeneratorConfig struct {
	APIKey string
	Model  string
	Mock   bool
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Load reads an optional .env file from the working directory, then the
// environment, applying defaults for anything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn().Err(err).Msg("error reading config file")
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("STORE_DRIVER")),
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			TokenTTL:  v.GetDuration("JWT_TTL"),
		},
		Catalog: CatalogConfig{
			Dir:         v.GetString("CATALOG_DIR"),
			SeedOnStart: v.GetBool("SEED_ON_START"),
		},
		Scoring: ScoringConfig{
			BeginnerMaxRatio:       v.GetFloat64("SCORING_BEGINNER_MAX_RATIO"),
			AdvancedMinRatio:       v.GetFloat64("SCORING_ADVANCED_MIN_RATIO"),
			DomainRemediationRatio: v.GetFloat64("SCORING_DOMAIN_REMEDIATION_RATIO"),
		},
		Cert: CertificationConfig{
			PremiumValidityDays: v.GetInt("CERT_PREMIUM_VALIDITY_DAYS"),
			CodeAttempts:        v.GetInt("CERT_CODE_ATTEMPTS"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Pretty: v.GetBool("LOG_PRETTY"),
		},
		Generator: GeneratorConfig{
			APIKey: v.GetString("ANTHROPIC_API_KEY"),
			Model:  v.GetString("ANTHROPIC_MODEL"),
			Mock:   v.GetBool("MOCK_GENERATOR"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "litmus_user")
	v.SetDefault("DB_PASSWORD", "litmus_password")
	v.SetDefault("DB_NAME", "litmus")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("JWT_SECRET", "jwt-secret-change-in-production")
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("SEED_ON_START", true)
	v.SetDefault("SCORING_BEGINNER_MAX_RATIO", 0.4)
	v.SetDefault("SCORING_ADVANCED_MIN_RATIO", 0.8)
	v.SetDefault("SCORING_DOMAIN_REMEDIATION_RATIO", 1.0/3.0)
	v.SetDefault("CERT_PREMIUM_VALIDITY_DAYS", 730)
	v.SetDefault("CERT_CODE_ATTEMPTS", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929")
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	s := c.Scoring
	if s.BeginnerMaxRatio < 0 || s.BeginnerMaxRatio > 1 {
		return fmt.Errorf("beginner max ratio out of range: %v", s.BeginnerMaxRatio)
	}
	if s.AdvancedMinRatio < s.BeginnerMaxRatio || s.AdvancedMinRatio > 1 {
		return fmt.Errorf("advanced min ratio out of range: %v", s.AdvancedMinRatio)
	}
	if s.DomainRemediationRatio < 0 || s.DomainRemediationRatio > 1 {
		return fmt.Errorf("domain remediation ratio out of range: %v", s.DomainRemediationRatio)
	}
	if c.Cert.PremiumValidityDays <= 0 {
		return fmt.Errorf("premium validity days must be positive")
	}
	if c.Cert.CodeAttempts <= 0 {
		return fmt.Errorf("certificate code attempts must be positive")
	}
	return nil
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
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
