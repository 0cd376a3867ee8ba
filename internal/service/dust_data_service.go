package service

import (
	"context"
	"fmt"

	"dust_cleaner/internal/entity"
	"dust_cleaner/internal/port"

	"go.uber.org/zap"
)

// dustDataServiceImpl joins balances and prices into a classified dust report.
type dustDataServiceImpl struct {
	balances *BalanceService
	prices   port.PriceService
	band     DustBand
	logger   *zap.Logger
}

// NewDustDataService creates the dust report service.
func NewDustDataService(
	balances *BalanceService,
	prices port.PriceService,
	band DustBand,
	logger *zap.Logger,
) port.DustDataService {
	return &dustDataServiceImpl{
		balances: balances,
		prices:   prices,
		band:     band,
		logger:   logger.Named("DustDataService"),
	}
}

// FetchDust refreshes balances and prices for the owner and returns only the
// holdings inside the dust band. A price refresh failure is fatal only when
// there is no cached price data to fall back on.
func (s *dustDataServiceImpl) FetchDust(ctx context.Context, owner string) (*entity.DustReport, error) {
	refreshErr := s.prices.Refresh(ctx)
	prices := s.prices.Prices()
	if prices == nil {
		if refreshErr != nil {
			return nil, fmt.Errorf("failed to fetch token prices: %w", refreshErr)
		}
		return nil, fmt.Errorf("no price data available")
	}
	if refreshErr != nil {
		s.logger.Warn("Using cached prices after refresh failure", zap.Error(refreshErr))
	}

	records, err := s.balances.Refresh(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balances: %w", err)
	}

	dust := ClassifyDust(records, prices, s.band)
	report := &entity.DustReport{
		Owner:         owner,
		Tokens:        dust,
		TotalValueUSD: TotalValueUSD(dust),
	}
	s.logger.Info("Dust report prepared",
		zap.String("owner", owner),
		zap.Int("dustTokens", len(dust)),
		zap.Float64("totalValueUsd", report.TotalValueUSD))
	return report, nil
}
