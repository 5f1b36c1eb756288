package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("commerce")
	require.NoError(t, err)

	assert.Equal(t, "commerce", cfg.Server.ServiceName)
	assert.Equal(t, "usd", cfg.GiftCards.DefaultCurrency)
	assert.Equal(t, 5, cfg.GiftCards.ValidityYears)
	assert.Equal(t, 3, cfg.GiftCards.AbandonedAfterYrs)
	assert.Equal(t, 10, cfg.GiftCards.CodeAttempts)
	assert.Equal(t, 72*time.Hour, cfg.Scheduler.ReservationTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GIFT_CARD_DEFAULT_CURRENCY", "EUR")
	t.Setenv("SCHEDULER_INTERVAL", "1h")
	t.Setenv("STORAGE_ALLOWED_TYPES", "image/png, image/jpeg ,")
	t.Setenv("NATS_ENABLED", "false")

	cfg, err := Load("commerce")
	require.NoError(t, err)

	assert.Equal(t, "eur", cfg.GiftCards.DefaultCurrency)
	assert.Equal(t, time.Hour, cfg.Scheduler.Interval)
	assert.Equal(t, []string{"image/png", "image/jpeg"}, cfg.Storage.AllowedTypes)
	assert.False(t, cfg.NATS.Enabled)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "many")
	t.Setenv("SCHEDULER_INTERVAL", "soon")

	cfg, err := Load("commerce")
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.Interval)
}

func TestValidate(t *testing.T) {
	t.Run("production requires a real jwt secret", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		_, err := Load("commerce")
		assert.Error(t, err)
	})

	t.Run("non-positive validity rejected", func(t *testing.T) {
		t.Setenv("GIFT_CARD_VALIDITY_YEARS", "0")
		_, err := Load("commerce")
		assert.Error(t, err)
	})
}

func TestDatabaseConfig_DSNAndURL(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "shop", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", db.DSN())
	assert.Equal(t, "postgres://u:p@db:5432/shop?sslmode=disable", db.URL())
}
