package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_forecast/internal/models"
	"github.com/GTDGit/gtd_forecast/internal/utils"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ForecastCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewForecastCache(NewRedisClientFrom(client), ttl), mr
}

func TestForecastCache_SetAndGetLatest(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	days := 3
	run := &models.ForecastRun{
		RunID:       "run-1",
		ShopID:      "shop-1",
		GeneratedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Forecasts: []models.ForecastEntry{
			{ProductID: "p1", ProductName: "Milk", RiskLevel: models.RiskCritical, ConfidenceScore: 90},
		},
		ProductsData: []models.SalesFeature{
			{ProductID: "p1", Name: "Milk", CurrentStock: 5, MinStock: 10, TotalSales30Days: 45, AvgDailySales: 1.5, DaysUntilStockout: &days},
		},
		Persisted: 1,
	}
	require.NoError(t, c.SetLatest(ctx, run))

	assert.True(t, mr.Exists("forecast:latest:shop-1"))
	assert.Equal(t, time.Hour, mr.TTL("forecast:latest:shop-1"))

	got, err := c.GetLatest(ctx, "shop-1")
	require.NoError(t, err)
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, run.Forecasts, got.Forecasts)
	require.NotNil(t, got.ProductsData[0].DaysUntilStockout)
	assert.Equal(t, 3, *got.ProductsData[0].DaysUntilStockout)
	assert.True(t, run.GeneratedAt.Equal(got.GeneratedAt))
}

func TestForecastCache_GetLatestMissing(t *testing.T) {
	c, _ := newTestCache(t, 0)

	_, err := c.GetLatest(context.Background(), "nope")
	assert.ErrorIs(t, err, utils.ErrForecastNotCached)
}

func TestForecastCache_Expires(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetLatest(ctx, &models.ForecastRun{RunID: "r", ShopID: "s"}))
	mr.FastForward(2 * time.Minute)

	_, err := c.GetLatest(ctx, "s")
	assert.ErrorIs(t, err, utils.ErrForecastNotCached)
}

func TestForecastCache_DefaultTTL(t *testing.T) {
	c, _ := newTestCache(t, 0)
	assert.Equal(t, DefaultForecastTTL, c.ttl)
}

func TestForecastCache_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	require.NoError(t, mr.Set("forecast:latest:shop-1", "{not json"))

	_, err := c.GetLatest(context.Background(), "shop-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, utils.ErrForecastNotCached)
	assert.Contains(t, err.Error(), "decode forecast:latest:shop-1")
}

func TestRedisClient_JSONRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	rc := NewRedisClientFrom(client)
	ctx := context.Background()

	var missing map[string]int
	found, err := rc.GetJSON(ctx, "absent", &missing)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, missing)

	require.NoError(t, rc.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute))
	raw, err := mr.Get("k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, raw)

	var got map[string]int
	found, err = rc.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, got["a"])

	require.Error(t, rc.SetJSON(ctx, "bad", make(chan int), time.Minute))
	assert.False(t, mr.Exists("bad"))
}
