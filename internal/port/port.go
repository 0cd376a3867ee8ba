package port

import (
	"context"

	"dust_cleaner/internal/entity"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// ChainReader reads on-chain token state for one owner. Implementations are
// expected to handle endpoint failover themselves so callers only see the final
// per-token outcome.
type ChainReader interface {
	// TokenState fetches balance, allowance toward the given spender, and
	// decimals (when the descriptor left them zero) for a single token.
	TokenState(ctx context.Context, owner, spender string, token entity.TokenDescriptor) (entity.TokenState, error)
}

// PriceOracle fetches current market data for a set of price-feed ids in one
// batched request. A non-success upstream response fails the whole batch.
type PriceOracle interface {
	FetchPrices(ctx context.Context, ids []string) (entity.PriceMap, error)
}

// QuoteProvider computes an executable swap transaction for a token pair.
type QuoteProvider interface {
	FetchQuote(ctx context.Context, req entity.SwapQuoteRequest) (*entity.SwapQuote, error)
}

// PermitSigner produces an EIP-712 signature over the exact typed-data structure
// a quote response asked for. In the web client this is the user's wallet prompt;
// server-side it is backed by a configured key.
type PermitSigner interface {
	SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error)
}

// TxSubmitter hands prepared call descriptors to the wallet/transaction layer
// for signing and broadcast. Failures are surfaced verbatim, never retried.
type TxSubmitter interface {
	Submit(ctx context.Context, calls []entity.SwapCallDescriptor) ([]string, error)
}

// BalanceFetcher produces one TokenBalanceRecord per registered token, in
// registry order, for an owner address.
type BalanceFetcher interface {
	Fetch(ctx context.Context, owner string) ([]entity.TokenBalanceRecord, error)
}

// PriceService exposes cached price data to the rest of the pipeline.
type PriceService interface {
	Refresh(ctx context.Context) error
	Prices() entity.PriceMap
	PriceList(ctx context.Context) ([]entity.PriceRecord, error)
}

// DustDataService joins balances and prices into a classified dust report.
type DustDataService interface {
	FetchDust(ctx context.Context, owner string) (*entity.DustReport, error)
}

// SweepService runs the quote orchestration end to end for a selection.
type SweepService interface {
	PrepareSweep(ctx context.Context, owner, signerAddress, toToken string, tokens []string) (*entity.SweepResult, error)
}
