package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"dust_cleaner/internal/entity"
	"dust_cleaner/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePriceOracle struct {
	prices entity.PriceMap
	err    error
	calls  int
}

func (f *fakePriceOracle) FetchPrices(_ context.Context, ids []string) (entity.PriceMap, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(entity.PriceMap, len(ids))
	for _, id := range ids {
		if record, ok := f.prices[id]; ok {
			out[id] = record
		}
	}
	return out, nil
}

func priceTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]entity.TokenDescriptor{
		{Address: "0x00000000000000000000000000000000000000a1", Symbol: "AAA", Decimals: 18, PriceFeedID: "feed-a"},
		{Address: "0x00000000000000000000000000000000000000b2", Symbol: "BBB", Decimals: 18, PriceFeedID: "feed-b"},
	})
	require.NoError(t, err)
	return reg
}

func TestPriceServiceRefresh(t *testing.T) {
	oracle := &fakePriceOracle{prices: entity.PriceMap{
		"feed-a": {ID: "feed-a", PriceUSD: 1.5, Change24hPct: -2.0},
	}}
	svc := NewPriceService(oracle, priceTestRegistry(t), time.Minute, time.Second, zap.NewNop())

	require.NoError(t, svc.Refresh(context.Background()))

	prices := svc.Prices()
	require.NotNil(t, prices)
	assert.Equal(t, 1.5, prices.PriceFor("feed-a"))
	assert.Zero(t, prices.PriceFor("feed-b"), "ids the oracle omitted read as zero price")
	_, present := prices["feed-b"]
	assert.True(t, present, "omitted ids are still materialized in the map")
}

func TestPriceServiceKeepsCacheOnFailure(t *testing.T) {
	oracle := &fakePriceOracle{prices: entity.PriceMap{
		"feed-a": {ID: "feed-a", PriceUSD: 1.5},
	}}
	svc := NewPriceService(oracle, priceTestRegistry(t), time.Minute, time.Second, zap.NewNop())
	require.NoError(t, svc.Refresh(context.Background()))

	oracle.err = fmt.Errorf("feed down")
	err := svc.Refresh(context.Background())
	assert.Error(t, err)

	prices := svc.Prices()
	require.NotNil(t, prices, "a failed refresh never blanks the cache")
	assert.Equal(t, 1.5, prices.PriceFor("feed-a"))
}

func TestPriceServicePricesColdCache(t *testing.T) {
	oracle := &fakePriceOracle{}
	svc := NewPriceService(oracle, priceTestRegistry(t), time.Minute, time.Second, zap.NewNop())
	assert.Nil(t, svc.Prices())
}

func TestPriceServicePriceList(t *testing.T) {
	t.Run("refreshes cold cache and follows registry order", func(t *testing.T) {
		oracle := &fakePriceOracle{prices: entity.PriceMap{
			"feed-a": {ID: "feed-a", PriceUSD: 0.5},
			"feed-b": {ID: "feed-b", PriceUSD: 2.0},
		}}
		svc := NewPriceService(oracle, priceTestRegistry(t), time.Minute, time.Second, zap.NewNop())

		records, err := svc.PriceList(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "feed-a", records[0].ID)
		assert.Equal(t, "feed-b", records[1].ID)
		assert.Equal(t, 1, oracle.calls)
	})

	t.Run("serves from cache without a second fetch", func(t *testing.T) {
		oracle := &fakePriceOracle{prices: entity.PriceMap{
			"feed-a": {ID: "feed-a", PriceUSD: 0.5},
		}}
		svc := NewPriceService(oracle, priceTestRegistry(t), time.Minute, time.Second, zap.NewNop())

		_, err := svc.PriceList(context.Background())
		require.NoError(t, err)
		_, err = svc.PriceList(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, oracle.calls)
	})

	t.Run("propagates refresh failure when cache is cold", func(t *testing.T) {
		oracle := &fakePriceOracle{err: fmt.Errorf("feed down")}
		svc := NewPriceService(oracle, priceTestRegistry(t), time.Minute, time.Second, zap.NewNop())

		_, err := svc.PriceList(context.Background())
		assert.Error(t, err)
	})
}
