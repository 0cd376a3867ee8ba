package service

import (
	"context"
	"time"

	"dust_cleaner/internal/entity"
	"dust_cleaner/internal/pkg/metrics"
	"dust_cleaner/internal/port"
	"dust_cleaner/internal/registry"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const pricesCacheKey = "token_prices"

// priceServiceImpl caches oracle prices behind a TTL. A failed refresh keeps
// whatever the cache already holds, so transient feed outages do not blank out
// the pipeline.
type priceServiceImpl struct {
	oracle   port.PriceOracle
	registry *registry.Registry
	cache    *cache.Cache
	ttl      time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// NewPriceService creates a cached price service over the given oracle.
func NewPriceService(
	oracle port.PriceOracle,
	reg *registry.Registry,
	ttl time.Duration,
	timeout time.Duration,
	logger *zap.Logger,
) port.PriceService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &priceServiceImpl{
		oracle:   oracle,
		registry: reg,
		cache:    cache.New(ttl, 2*ttl),
		ttl:      ttl,
		timeout:  timeout,
		logger:   logger.Named("PriceService"),
	}
}

// Refresh fetches prices for every registered price-feed id in one batch.
// Ids the oracle omitted are stored with a zero price so downstream valuation
// treats the holding as unpriced rather than missing.
func (s *priceServiceImpl) Refresh(ctx context.Context) error {
	ids := s.registry.PriceFeedIDs()

	fetchCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	prices, err := s.oracle.FetchPrices(fetchCtx, ids)
	if err != nil {
		metrics.PriceRefreshTotal.WithLabelValues("failure").Inc()
		s.logger.Error("Price refresh failed, keeping cached prices", zap.Error(err))
		return err
	}

	for _, id := range ids {
		if _, ok := prices[id]; !ok {
			prices[id] = entity.PriceRecord{ID: id}
		}
	}

	s.cache.Set(pricesCacheKey, prices, s.ttl)
	metrics.PriceRefreshTotal.WithLabelValues("success").Inc()
	s.logger.Debug("Price cache refreshed", zap.Int("priceCount", len(prices)))
	return nil
}

// Prices returns the cached price map, or nil when nothing is cached.
func (s *priceServiceImpl) Prices() entity.PriceMap {
	if v, ok := s.cache.Get(pricesCacheKey); ok {
		if prices, ok := v.(entity.PriceMap); ok {
			return prices
		}
	}
	return nil
}

// PriceList returns prices for all registered feed ids in registry order,
// refreshing first when the cache is cold.
func (s *priceServiceImpl) PriceList(ctx context.Context) ([]entity.PriceRecord, error) {
	prices := s.Prices()
	if prices == nil {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
		prices = s.Prices()
	}

	ids := s.registry.PriceFeedIDs()
	records := make([]entity.PriceRecord, 0, len(ids))
	for _, id := range ids {
		if record, ok := prices[id]; ok {
			records = append(records, record)
		} else {
			records = append(records, entity.PriceRecord{ID: id})
		}
	}
	return records, nil
}
