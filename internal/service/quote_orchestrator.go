package service

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"dust_cleaner/internal/entity"
	"dust_cleaner/internal/pkg/metrics"
	"dust_cleaner/internal/pkg/utils"
	"dust_cleaner/internal/port"

	"go.uber.org/zap"
)

var (
	// ErrNoDustTokens is returned when nothing in the selection still falls
	// inside the dust band after revaluation.
	ErrNoDustTokens = errors.New("no tokens within the dust band to process")

	// ErrNoValidCalls is returned when every quote attempt failed or produced
	// an unusable transaction.
	ErrNoValidCalls = errors.New("no valid swap calls could be prepared")
)

// QuoteOrchestrator turns a token selection into executable swap calls. Quotes
// are requested strictly one at a time; the provider throttles aggressively and
// permit signing is interactive in the wallet flow.
type QuoteOrchestrator struct {
	quotes      port.QuoteProvider
	signer      port.PermitSigner
	network     string
	slippageBps int
	maxCalls    int
	band        DustBand
	logger      *zap.Logger
}

// NewQuoteOrchestrator creates a quote orchestrator. The signer may be nil, in
// which case tokens whose quote demands a permit signature are skipped.
func NewQuoteOrchestrator(
	quotes port.QuoteProvider,
	signer port.PermitSigner,
	network string,
	slippageBps int,
	maxCalls int,
	band DustBand,
	logger *zap.Logger,
) *QuoteOrchestrator {
	if maxCalls <= 0 {
		maxCalls = 3
	}
	return &QuoteOrchestrator{
		quotes:      quotes,
		signer:      signer,
		network:     network,
		slippageBps: slippageBps,
		maxCalls:    maxCalls,
		band:        band,
		logger:      logger.Named("QuoteOrchestrator"),
	}
}

// PrepareCalls re-filters the selection against the latest prices, quotes each
// surviving token sequentially and validates every resulting transaction. At
// most maxCalls descriptors are produced; a failing token is skipped, never
// fatal for the batch.
func (o *QuoteOrchestrator) PrepareCalls(
	ctx context.Context,
	owner, signerAddress, toToken string,
	selected []entity.TokenBalanceRecord,
	prices entity.PriceMap,
) ([]entity.SwapCallDescriptor, error) {
	dust := FilterDust(ValueRecords(selected, prices), o.band)
	if len(dust) == 0 {
		return nil, ErrNoDustTokens
	}

	calls := make([]entity.SwapCallDescriptor, 0, len(dust))
	for _, record := range dust {
		if len(calls) >= o.maxCalls {
			o.logger.Info("Call cap reached, remaining tokens deferred",
				zap.Int("cap", o.maxCalls),
				zap.Int("deferred", len(dust)-len(calls)))
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		amountIn := record.RawBalance
		if amountIn == nil || amountIn.Sign() <= 0 {
			continue
		}

		quote, err := o.quotes.FetchQuote(ctx, entity.SwapQuoteRequest{
			Network:       o.network,
			ToToken:       toToken,
			FromToken:     record.Token.Address,
			FromAmount:    amountIn.String(),
			Taker:         owner,
			SignerAddress: signerAddress,
			SlippageBps:   o.slippageBps,
		})
		if err != nil {
			metrics.QuoteRequestsTotal.WithLabelValues("failed").Inc()
			o.logger.Warn("Quote request failed, skipping token",
				zap.String("token", record.Token.Symbol),
				zap.Error(err))
			continue
		}

		if quote.Permit2 != nil {
			if o.signer == nil {
				metrics.QuoteRequestsTotal.WithLabelValues("skipped").Inc()
				o.logger.Warn("Quote requires a permit signature but no signer is configured, skipping token",
					zap.String("token", record.Token.Symbol))
				continue
			}
			if _, err := o.signer.SignTypedData(ctx, quote.Permit2.EIP712); err != nil {
				metrics.QuoteRequestsTotal.WithLabelValues("skipped").Inc()
				o.logger.Warn("Permit signing failed, skipping token",
					zap.String("token", record.Token.Symbol),
					zap.Error(err))
				continue
			}
		}

		call, ok := callFromQuote(quote)
		if !ok {
			metrics.QuoteRequestsTotal.WithLabelValues("skipped").Inc()
			o.logger.Warn("Quote transaction is not executable, skipping token",
				zap.String("token", record.Token.Symbol),
				zap.String("to", quote.Transaction.To))
			continue
		}

		metrics.QuoteRequestsTotal.WithLabelValues("ok").Inc()
		calls = append(calls, call)
	}

	if len(calls) == 0 {
		return nil, ErrNoValidCalls
	}
	return calls, nil
}

// callFromQuote validates the quote's transaction fragment and converts it into
// a call descriptor. A call needs a well-formed target address and non-empty
// hex calldata.
func callFromQuote(quote *entity.SwapQuote) (entity.SwapCallDescriptor, bool) {
	to := quote.Transaction.To
	data := quote.Transaction.Data
	if !utils.IsHexAddress(to) {
		return entity.SwapCallDescriptor{}, false
	}
	if !strings.HasPrefix(data, "0x") || len(data) <= 2 {
		return entity.SwapCallDescriptor{}, false
	}

	value := big.NewInt(0)
	if quote.Transaction.Value != "" {
		parsed, ok := new(big.Int).SetString(quote.Transaction.Value, 10)
		if !ok || parsed.Sign() < 0 {
			return entity.SwapCallDescriptor{}, false
		}
		value = parsed
	}

	return entity.SwapCallDescriptor{To: to, Data: data, Value: value}, true
}
