package service

import (
	"context"
	"math/big"
	"sync"
	"time"

	"dust_cleaner/internal/entity"
	"dust_cleaner/internal/pkg/metrics"
	"dust_cleaner/internal/pkg/utils"
	"dust_cleaner/internal/port"
	"dust_cleaner/internal/registry"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BalanceService produces one TokenBalanceRecord per registered token for an
// owner address. Tokens are processed in small batches with a fixed inter-batch
// delay to stay under upstream rate limits; a failure for one token never aborts
// the cycle.
type BalanceService struct {
	reader          port.ChainReader
	registry        *registry.Registry
	spender         string
	batchSize       int
	interBatchDelay time.Duration
	logger          *zap.Logger

	mu      sync.Mutex
	owner   string
	cancel  context.CancelFunc
	records []entity.TokenBalanceRecord
}

// NewBalanceService creates a new balance and allowance fetcher.
func NewBalanceService(
	reader port.ChainReader,
	reg *registry.Registry,
	spender string,
	batchSize int,
	interBatchDelay time.Duration,
	logger *zap.Logger,
) *BalanceService {
	if batchSize <= 0 {
		batchSize = 2
	}
	return &BalanceService{
		reader:          reader,
		registry:        reg,
		spender:         spender,
		batchSize:       batchSize,
		interBatchDelay: interBatchDelay,
		logger:          logger.Named("BalanceService"),
	}
}

var _ port.BalanceFetcher = (*BalanceService)(nil)

// Fetch reads balances and allowances for every registered token. The result
// order matches registry order regardless of batch boundaries.
func (s *BalanceService) Fetch(ctx context.Context, owner string) ([]entity.TokenBalanceRecord, error) {
	tokens := s.registry.Tokens()
	records := make([]entity.TokenBalanceRecord, len(tokens))
	start := time.Now()

	offset := 0
	for batchIdx, batch := range utils.Batch(tokens, s.batchSize) {
		if batchIdx > 0 && s.interBatchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.interBatchDelay):
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		for i, token := range batch {
			idx := offset + i
			token := token
			g.Go(func() error {
				records[idx] = s.fetchOne(gctx, owner, token)
				return nil
			})
		}
		// Goroutines only record per-token outcomes, they never return errors.
		_ = g.Wait()
		offset += len(batch)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	metrics.BalanceFetchDuration.Observe(time.Since(start).Seconds())
	s.logger.Debug("Balance fetch cycle complete",
		zap.String("owner", owner),
		zap.Int("tokenCount", len(records)),
		zap.Duration("elapsed", time.Since(start)))
	return records, nil
}

func (s *BalanceService) fetchOne(ctx context.Context, owner string, token entity.TokenDescriptor) entity.TokenBalanceRecord {
	record := entity.TokenBalanceRecord{
		Token:            token,
		RawBalance:       big.NewInt(0),
		FormattedBalance: "0",
		Allowance:        big.NewInt(0),
		RawAllowance:     "0",
	}

	state, err := s.reader.TokenState(ctx, owner, s.spender, token)
	if err != nil {
		metrics.BalanceFetchErrors.Inc()
		s.logger.Warn("Token state fetch failed",
			zap.String("owner", owner),
			zap.String("token", token.Symbol),
			zap.Error(err))
		record.FetchError = err.Error()
		return record
	}

	if state.Decimals != 0 {
		record.Token.Decimals = state.Decimals
	}
	if state.Balance != nil {
		record.RawBalance = state.Balance
	}
	if state.Allowance != nil {
		record.Allowance = state.Allowance
	}
	record.RawAllowance = record.Allowance.String()

	formatted, err := utils.FormatBigInt(record.RawBalance, record.Token.Decimals)
	if err != nil {
		record.FetchError = err.Error()
		return record
	}
	record.FormattedBalance = formatted
	return record
}

// Refresh fetches for the given owner, cancelling any refresh still in flight
// for a previous owner. The snapshot is committed only when the owner is still
// current at commit time, so results resolving for a stale address are discarded.
func (s *BalanceService) Refresh(ctx context.Context, owner string) ([]entity.TokenBalanceRecord, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	refreshCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.owner = owner
	s.mu.Unlock()
	defer cancel()

	records, err := s.Fetch(refreshCtx, owner)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == owner {
		s.records = records
	}
	return records, nil
}

// Snapshot returns the owner and records of the last committed refresh.
func (s *BalanceService) Snapshot() (string, []entity.TokenBalanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.TokenBalanceRecord, len(s.records))
	copy(out, s.records)
	return s.owner, out
}
