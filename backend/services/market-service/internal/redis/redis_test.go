package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"arbigrid/backend/services/market-service/internal/ledger"
	"arbigrid/backend/services/market-service/internal/models"
)

func sampleStats() ledger.MarketStats {
	return ledger.MarketStats{
		ActiveListings:   2,
		EnergyTraded:     150,
		Volume:           big.NewInt(200_000),
		FeesCollected:    big.NewInt(5_000),
		Trades:           2,
		AverageUnitPrice: big.NewInt(1333),
	}
}

func TestStatsCacheSave(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewStatsCache(client, time.Minute)

	data, err := json.Marshal(sampleStats())
	require.NoError(t, err)
	mock.ExpectSet(marketStatsKey, data, time.Minute).SetVal("OK")

	require.NoError(t, cache.Save(context.Background(), sampleStats()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsCacheGet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewStatsCache(client, time.Minute)

	data, err := json.Marshal(sampleStats())
	require.NoError(t, err)
	mock.ExpectGet(marketStatsKey).SetVal(string(data))

	got, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, got.ActiveListings)
	assert.Equal(t, 0, got.Volume.Cmp(big.NewInt(200_000)))
	assert.Equal(t, 0, got.AverageUnitPrice.Cmp(big.NewInt(1333)))
}

func TestStatsCacheMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewStatsCache(client, time.Minute)

	mock.ExpectGet(marketStatsKey).RedisNil()
	_, err := cache.Get(context.Background())
	require.ErrorIs(t, err, ErrCacheMiss)

	mock.ExpectGet(marketStatsKey).SetErr(errors.New("down"))
	_, err = cache.Get(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCacheMiss))
	assert.False(t, errors.Is(err, redis.Nil))
}

func TestStatsCacheInvalidate(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewStatsCache(client, time.Minute)

	mock.ExpectDel(marketStatsKey).SetVal(1)
	require.NoError(t, cache.Invalidate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventBusPublish(t *testing.T) {
	client, mock := redismock.NewClientMock()
	bus := NewEventBus(client, "market-events", zap.NewNop())

	ev, err := models.NewEvent(models.EventListingCancelled, models.ListingCancelledData{ListingID: 1}, time.Unix(0, 0))
	require.NoError(t, err)
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	mock.ExpectPublish("market-events", data).SetVal(1)
	require.NoError(t, bus.Publish(context.Background(), ev))
	require.NoError(t, mock.ExpectationsWereMet())
}
