package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/richxcame/engraving-commerce/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============== Redis Config Tests ==============

func TestRedisConfig_RedisAddr(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.RedisConfig
		expected string
	}{
		{"default localhost", config.RedisConfig{Host: "localhost", Port: "6379"}, "localhost:6379"},
		{"custom host and port", config.RedisConfig{Host: "redis.example.com", Port: "6380"}, "redis.example.com:6380"},
		{"empty values", config.RedisConfig{}, ":"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.cfg.RedisAddr())
		})
	}
}

// ============== Idempotency Tests ==============

func TestProcessed(t *testing.T) {
	ctx := context.Background()

	t.Run("unseen key", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		client := &Client{Client: db}

		mock.ExpectExists("idem:giftcards:order_1").SetVal(0)

		seen, err := client.Processed(ctx, "giftcards:order_1")
		require.NoError(t, err)
		assert.False(t, seen)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("marked key", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		client := &Client{Client: db}

		mock.ExpectExists("idem:giftcards:order_1").SetVal(1)

		seen, err := client.Processed(ctx, "giftcards:order_1")
		require.NoError(t, err)
		assert.True(t, seen)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis error", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		client := &Client{Client: db}

		mock.ExpectExists("idem:giftcards:order_1").SetErr(errors.New("connection refused"))

		seen, err := client.Processed(ctx, "giftcards:order_1")
		assert.Error(t, err)
		assert.False(t, seen)
	})
}

func TestMarkProcessed(t *testing.T) {
	ctx := context.Background()
	ttl := time.Hour

	db, mock := redismock.NewClientMock()
	client := &Client{Client: db}

	mock.ExpectSet("idem:giftcards:order_1", "1", ttl).SetVal("OK")
	require.NoError(t, client.MarkProcessed(ctx, "giftcards:order_1", ttl))

	mock.ExpectSet("idem:giftcards:order_1", "1", ttl).SetErr(errors.New("READONLY"))
	assert.Error(t, client.MarkProcessed(ctx, "giftcards:order_1", ttl))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthy(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := &Client{Client: db}

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, client.Healthy(context.Background()))

	mock.ExpectPing().SetErr(errors.New("down"))
	assert.Error(t, client.Healthy(context.Background()))
}
