package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Ledger.Storage)
	assert.Equal(t, "block", cfg.Ledger.ShortagePolicy)
	assert.Equal(t, 5*time.Second, cfg.Ledger.StorageTimeout)
	assert.Equal(t, "inventory.documents.done", cfg.Kafka.Topic)
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("LEDGER_STORAGE", "memory")
	t.Setenv("LEDGER_SHORTAGE_POLICY", "partial")
	t.Setenv("LEDGER_STORAGE_TIMEOUT_MS", "250")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Ledger.Storage)
	assert.Equal(t, "partial", cfg.Ledger.ShortagePolicy)
	assert.Equal(t, 250*time.Millisecond, cfg.Ledger.StorageTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoad_PoliticaInvalida_Error(t *testing.T) {
	t.Setenv("LEDGER_SHORTAGE_POLICY", "ignore")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN_EscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/ledger?sslmode=disable", c.ConnectionString())
}
