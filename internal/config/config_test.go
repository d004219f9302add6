package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.InDelta(t, 0.4, cfg.Scoring.BeginnerMaxRatio, 1e-9)
	assert.InDelta(t, 0.8, cfg.Scoring.AdvancedMinRatio, 1e-9)
	assert.Equal(t, 730, cfg.Cert.PremiumValidityDays)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}

func TestValidateRatios(t *testing.T) {
	base := Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Driver: DriverMemory},
		Auth:     AuthConfig{JWTSecret: "s"},
		Scoring:  ScoringConfig{BeginnerMaxRatio: 0.4, AdvancedMinRatio: 0.8, DomainRemediationRatio: 0.34},
		Cert:     CertificationConfig{PremiumValidityDays: 730, CodeAttempts: 5},
	}
	require.NoError(t, base.Validate())

	inverted := base
	inverted.Scoring.AdvancedMinRatio = 0.3
	assert.Error(t, inverted.Validate())

	negative := base
	negative.Scoring.DomainRemediationRatio = -0.1
	assert.Error(t, negative.Validate())
}

func TestDSNPrefersURL(t *testing.T) {
	d := DatabaseConfig{URL: "postgres://u:p@db/litmus", Host: "ignored"}
	assert.Equal(t, "postgres://u:p@db/litmus", d.DSN())

	d.URL = ""
	d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode = "h", "5432", "u", "p", "n", "disable"
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n sslmode=disable", d.DSN())
}
