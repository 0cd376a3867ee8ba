package service

import (
	"context"
	"errors"

	"dust_cleaner/internal/entity"
	"dust_cleaner/internal/pkg/metrics"
	"dust_cleaner/internal/port"

	"go.uber.org/zap"
)

// ErrApprovalRequired is returned when a selected token's spender allowance
// does not cover its balance; the sweep is blocked until an approval lands.
var ErrApprovalRequired = errors.New("selected tokens require approval before sweeping")

// sweepServiceImpl runs the sweep pipeline end to end: classify, select,
// quote, and optionally broadcast.
type sweepServiceImpl struct {
	dust         port.DustDataService
	prices       port.PriceService
	orchestrator *QuoteOrchestrator
	submitter    port.TxSubmitter
	sponsored    bool
	logger       *zap.Logger
}

// NewSweepService creates the sweep service. The submitter may be nil, in which
// case prepared calls are returned without broadcasting.
func NewSweepService(
	dust port.DustDataService,
	prices port.PriceService,
	orchestrator *QuoteOrchestrator,
	submitter port.TxSubmitter,
	sponsored bool,
	logger *zap.Logger,
) port.SweepService {
	return &sweepServiceImpl{
		dust:         dust,
		prices:       prices,
		orchestrator: orchestrator,
		submitter:    submitter,
		sponsored:    sponsored,
		logger:       logger.Named("SweepService"),
	}
}

// PrepareSweep builds swap calls for the requested tokens of the owner's dust
// and hands them to the submitter when one is configured. Tokens outside the
// current dust view are ignored.
func (s *sweepServiceImpl) PrepareSweep(ctx context.Context, owner, signerAddress, toToken string, tokens []string) (*entity.SweepResult, error) {
	report, err := s.dust.FetchDust(ctx, owner)
	if err != nil {
		return nil, err
	}

	selection := NewSelectionSet()
	if len(tokens) == 0 {
		selection.SelectAll(report.Tokens)
	} else {
		for _, address := range tokens {
			selection.Toggle(address)
		}
	}

	selected := selection.Selected(report.Tokens)
	if len(selected) == 0 {
		return nil, ErrNoDustTokens
	}
	if NeedsApproval(selected) {
		return nil, ErrApprovalRequired
	}

	if signerAddress == "" {
		signerAddress = owner
	}

	calls, err := s.orchestrator.PrepareCalls(ctx, owner, signerAddress, toToken, selected, s.prices.Prices())
	if err != nil {
		return nil, err
	}

	result := &entity.SweepResult{Calls: calls, Sponsored: s.sponsored}
	if s.submitter == nil {
		return result, nil
	}

	hashes, err := s.submitter.Submit(ctx, calls)
	result.TxHashes = hashes
	if err != nil {
		return result, err
	}
	metrics.SweepSubmissionsTotal.Inc()
	s.logger.Info("Sweep submitted",
		zap.String("owner", owner),
		zap.Int("callCount", len(calls)),
		zap.Strings("txHashes", hashes))
	return result, nil
}
