package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GWP_HTTP_PORT", "9090")
	t.Setenv("GWP_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTPServer.Addr())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "gift-events", cfg.Kafka.Topic)
	assert.Equal(t, "gift-rule-events", cfg.Kafka.RuleTopic)
	assert.Equal(t, DefaultJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Removal.TTL)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
env: prod
http_server:
  host: 127.0.0.1
  port: "8000"
database:
  driver: postgres
  dsn: host=db user=gwp dbname=gwp
log:
  level: debug
  format: json
auth:
  jwt_secret: prod-secret
removal:
  ttl: 2h
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	t.Setenv("GWP_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "127.0.0.1:8000", cfg.HTTPServer.Addr())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "json", cfg.Log.Format)
	// 環境變數覆寫設定檔
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "prod-secret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Removal.TTL)
}

func TestLoadRejectsDefaultSecretOutsideLocal(t *testing.T) {
	t.Setenv("GWP_ENV", "prod")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrDefaultJWTSecret)

	t.Setenv("GWP_JWT_SECRET", "rotated")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "rotated", cfg.JWTSecret)
}

func TestLoadRejectsNonPositiveRemovalTTL(t *testing.T) {
	t.Setenv("GWP_REMOVAL_TTL", "0s")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
