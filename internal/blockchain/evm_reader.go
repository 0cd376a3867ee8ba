package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"dust_cleaner/internal/entity"
	"dust_cleaner/internal/port"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ERC20 ABI minimal part for the read-only calls this service needs.
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"remaining","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"payable":false,"stateMutability":"view","type":"function"}
]`

var (
	parsedERC20ABI  abi.ABI
	parsedERC20Once sync.Once
)

func initParsedERC20ABI() {
	parsedERC20Once.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			// This is a critical error during initialization, panic is appropriate
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
	})
}

// rpcCaller is the slice of the JSON-RPC client the reader needs. Kept as an
// interface so tests can stand in for live endpoints.
type rpcCaller interface {
	BatchCallContext(ctx context.Context, b []rpc.BatchElem) error
}

// DialFunc connects to an RPC endpoint. The default uses rpc.DialContext.
type DialFunc func(ctx context.Context, url string) (rpcCaller, error)

type endpoint struct {
	url    string
	mu     sync.Mutex
	caller rpcCaller
}

// EVMReader implements port.ChainReader against a prioritized list of RPC
// endpoints. Endpoints after the first are dialed lazily and only used when an
// earlier one fails for a request.
type EVMReader struct {
	endpoints   []*endpoint
	limiter     *rate.Limiter
	callTimeout time.Duration
	connTimeout time.Duration
	dial        DialFunc
	logger      *zap.Logger
}

// Options configures an EVMReader.
type Options struct {
	Endpoints      []string
	CallTimeout    time.Duration
	ConnectTimeout time.Duration
	RateLimit      int
	BurstLimit     int
	Dial           DialFunc
}

// NewEVMReader creates a reader over the given endpoint list.
func NewEVMReader(opts Options, logger *zap.Logger) (*EVMReader, error) {
	initParsedERC20ABI()
	if len(opts.Endpoints) == 0 {
		return nil, fmt.Errorf("at least one RPC endpoint is required")
	}
	if opts.CallTimeout == 0 {
		opts.CallTimeout = 10 * time.Second
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.BurstLimit <= 0 {
		opts.BurstLimit = opts.RateLimit
	}
	dial := opts.Dial
	if dial == nil {
		dial = func(ctx context.Context, url string) (rpcCaller, error) {
			return rpc.DialContext(ctx, url)
		}
	}

	endpoints := make([]*endpoint, len(opts.Endpoints))
	for i, url := range opts.Endpoints {
		endpoints[i] = &endpoint{url: url}
	}

	return &EVMReader{
		endpoints:   endpoints,
		limiter:     rate.NewLimiter(rate.Limit(opts.RateLimit), opts.BurstLimit),
		callTimeout: opts.CallTimeout,
		connTimeout: opts.ConnectTimeout,
		dial:        dial,
		logger:      logger.Named("EVMReader"),
	}, nil
}

var _ port.ChainReader = (*EVMReader)(nil)

// TokenState fetches balance, allowance and (when unknown) decimals for a single
// token via one JSON-RPC batch. A transient failure moves the request to the next
// endpoint of the prioritized list before giving up.
func (r *EVMReader) TokenState(ctx context.Context, owner, spender string, token entity.TokenDescriptor) (entity.TokenState, error) {
	var lastErr error
	for i, ep := range r.endpoints {
		if err := r.limiter.Wait(ctx); err != nil {
			return entity.TokenState{}, err
		}

		state, err := r.tokenStateFromEndpoint(ctx, ep, owner, spender, token)
		if err == nil {
			return state, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return entity.TokenState{}, ctx.Err()
		}
		r.logger.Warn("Token state fetch failed, trying next endpoint",
			zap.String("token", token.Symbol),
			zap.String("endpoint", ep.url),
			zap.Int("endpointIndex", i),
			zap.Error(err))
	}
	return entity.TokenState{}, fmt.Errorf("all %d RPC endpoints failed for %s: %w", len(r.endpoints), token.Symbol, lastErr)
}

func (r *EVMReader) tokenStateFromEndpoint(ctx context.Context, ep *endpoint, owner, spender string, token entity.TokenDescriptor) (entity.TokenState, error) {
	caller, err := r.callerFor(ctx, ep)
	if err != nil {
		return entity.TokenState{}, err
	}

	ownerAddr := common.HexToAddress(owner)
	tokenAddr := common.HexToAddress(token.Address)

	balanceData, err := parsedERC20ABI.Pack("balanceOf", ownerAddr)
	if err != nil {
		return entity.TokenState{}, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}
	batch := []rpc.BatchElem{ethCallElem(tokenAddr, balanceData)}

	withAllowance := spender != ""
	if withAllowance {
		allowanceData, err := parsedERC20ABI.Pack("allowance", ownerAddr, common.HexToAddress(spender))
		if err != nil {
			return entity.TokenState{}, fmt.Errorf("failed to pack allowance call: %w", err)
		}
		batch = append(batch, ethCallElem(tokenAddr, allowanceData))
	}

	withDecimals := token.Decimals == 0
	if withDecimals {
		decimalsData, err := parsedERC20ABI.Pack("decimals")
		if err != nil {
			return entity.TokenState{}, fmt.Errorf("failed to pack decimals call: %w", err)
		}
		batch = append(batch, ethCallElem(tokenAddr, decimalsData))
	}

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	if err := caller.BatchCallContext(callCtx, batch); err != nil {
		return entity.TokenState{}, fmt.Errorf("RPC batch call failed: %w", err)
	}

	state := entity.TokenState{Decimals: token.Decimals}

	state.Balance, err = unpackUint256(batch[0], "balanceOf")
	if err != nil {
		return entity.TokenState{}, err
	}

	next := 1
	if withAllowance {
		state.Allowance, err = unpackUint256(batch[next], "allowance")
		if err != nil {
			return entity.TokenState{}, err
		}
		next++
	}
	if withDecimals {
		decimals, err := unpackUint256(batch[next], "decimals")
		if err != nil {
			return entity.TokenState{}, err
		}
		state.Decimals = uint8(decimals.Uint64())
	}

	return state, nil
}

func (r *EVMReader) callerFor(ctx context.Context, ep *endpoint) (rpcCaller, error) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	if ep.caller != nil {
		return ep.caller, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, r.connTimeout)
	defer cancel()
	caller, err := r.dial(dialCtx, ep.url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", ep.url, err)
	}
	ep.caller = caller
	return caller, nil
}

func ethCallElem(to common.Address, data []byte) rpc.BatchElem {
	return rpc.BatchElem{
		Method: "eth_call",
		Args: []interface{}{
			map[string]interface{}{
				"to":   to,
				"data": hexutil.Bytes(data),
			},
			"latest",
		},
		Result: new(hexutil.Bytes),
	}
}

func unpackUint256(elem rpc.BatchElem, method string) (*big.Int, error) {
	if elem.Error != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, elem.Error)
	}
	result, ok := elem.Result.(*hexutil.Bytes)
	if !ok || result == nil {
		return nil, fmt.Errorf("unexpected %s result type %T", method, elem.Result)
	}
	// Contracts without the method (or empty returndata) read as zero.
	if len(*result) == 0 {
		return big.NewInt(0), nil
	}
	unpacked, err := parsedERC20ABI.Unpack(method, *result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w. Raw: %s", method, err, hexutil.Encode(*result))
	}
	if len(unpacked) == 0 {
		return nil, fmt.Errorf("%s unpack returned no data", method)
	}
	switch v := unpacked[0].(type) {
	case *big.Int:
		return v, nil
	case uint8:
		return big.NewInt(int64(v)), nil
	default:
		return nil, fmt.Errorf("failed to assert unpacked %s result, got %T", method, unpacked[0])
	}
}

// IsRateLimitError reports whether the error looks like upstream throttling.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "throttl")
}
