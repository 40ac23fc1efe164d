package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminHex = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"

func baseEnv() map[string]string {
	return map[string]string{
		"PROPTOKEN_ADMIN": adminHex,
		"JWT_SIGNING_KEY": strings.Repeat("k", 32),
	}
}

func TestFromMap_Defaults(t *testing.T) {
	cfg, err := FromMap(baseEnv())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, adminHex, cfg.Admin.String())
	assert.Equal(t, "proptoken", cfg.Auth.JWTIssuer)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Audit.KafkaBrokers)
	assert.Equal(t, "proptoken.audit", cfg.Audit.Topic)
	assert.Equal(t, 1000, cfg.Audit.MemoryRetention)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestFromMap_Overrides(t *testing.T) {
	environ := baseEnv()
	environ["PROPTOKEN_ADDR"] = ":9090"
	environ["KAFKA_BROKERS"] = "k1:9092, k2:9092,,k1:9092"
	environ["TOKEN_TTL"] = "15m"
	environ["LOG_FORMAT"] = "text"
	environ["REGISTRY_SEED_FILE"] = "/etc/proptoken/seed.yaml"

	cfg, err := FromMap(environ)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Audit.KafkaBrokers)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "/etc/proptoken/seed.yaml", cfg.Registry.SeedFile)
}

func TestFromMap_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"missing admin", func(e map[string]string) { delete(e, "PROPTOKEN_ADMIN") }},
		{"malformed admin", func(e map[string]string) { e["PROPTOKEN_ADMIN"] = "not-hex" }},
		{"zero admin", func(e map[string]string) { e["PROPTOKEN_ADMIN"] = strings.Repeat("0", 64) }},
		{"missing signing key", func(e map[string]string) { delete(e, "JWT_SIGNING_KEY") }},
		{"short signing key", func(e map[string]string) { e["JWT_SIGNING_KEY"] = "short" }},
		{"unknown log format", func(e map[string]string) { e["LOG_FORMAT"] = "xml" }},
		{"non-positive ttl", func(e map[string]string) { e["TOKEN_TTL"] = "0s" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			environ := baseEnv()
			tt.mutate(environ)
			_, err := FromMap(environ)
			require.Error(t, err)
		})
	}
}
