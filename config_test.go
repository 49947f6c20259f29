package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	awspkg "pos-service/pkg/aws"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("AWS_USE_SECRETS", "false")

	cfg, err := LoadConfig(awspkg.Settings{Region: "us-east-1"})
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 300, cfg.RateLimitPerMinute)
	assert.Equal(t, 50, cfg.RateLimitBurst)
}

func TestLoadConfig_RejectsNonPositiveRateLimit(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("AWS_USE_SECRETS", "false")

	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	_, err := LoadConfig(awspkg.Settings{})
	assert.ErrorContains(t, err, "RATE_LIMIT_PER_MINUTE")

	t.Setenv("RATE_LIMIT_PER_MINUTE", "60")
	t.Setenv("RATE_LIMIT_BURST", "-3")
	_, err = LoadConfig(awspkg.Settings{})
	assert.ErrorContains(t, err, "RATE_LIMIT_BURST")
}

func TestLoadConfig_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AWS_USE_SECRETS", "false")

	_, err := LoadConfig(awspkg.Settings{})
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestConfig_ApplySecretsKeepsEnvForEmptyFields(t *testing.T) {
	cfg := &Config{JWTSecret: "env", DatabaseURL: "postgres://env", RedisURL: "redis://env"}

	cfg.applySecrets(&awspkg.ServiceSecrets{JWTSecret: "vault", RedisURL: "redis://vault"})

	assert.Equal(t, "vault", cfg.JWTSecret)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, "redis://vault", cfg.RedisURL)
}
