package service

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"dust_cleaner/internal/entity"
	"dust_cleaner/internal/port"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// EOASubmitter signs and broadcasts prepared calls as individual EIP-1559
// transactions from a configured externally-owned account.
type EOASubmitter struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	logger  *zap.Logger
}

// NewEOASubmitter dials the RPC endpoint and derives the sender address from
// the private key.
func NewEOASubmitter(rpcURL, privateKeyHex string, chainID uint64, logger *zap.Logger) (*EOASubmitter, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse submitter private key: %w", err)
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}

	return &EOASubmitter{
		client:  client,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		chainID: new(big.Int).SetUint64(chainID),
		logger:  logger.Named("EOASubmitter"),
	}, nil
}

var _ port.TxSubmitter = (*EOASubmitter)(nil)

// Submit broadcasts the calls in order and returns the hashes of the
// transactions sent so far. The first failure aborts the batch.
func (s *EOASubmitter) Submit(ctx context.Context, calls []entity.SwapCallDescriptor) ([]string, error) {
	hashes := make([]string, 0, len(calls))
	for i, call := range calls {
		hash, err := s.submitOne(ctx, call)
		if err != nil {
			return hashes, fmt.Errorf("failed to submit call %d of %d: %w", i+1, len(calls), err)
		}
		hashes = append(hashes, hash)
		s.logger.Info("Transaction broadcast",
			zap.String("txHash", hash),
			zap.String("to", call.To))
	}
	return hashes, nil
}

func (s *EOASubmitter) submitOne(ctx context.Context, call entity.SwapCallDescriptor) (string, error) {
	to := common.HexToAddress(call.To)
	data := common.FromHex(call.Data)
	value := call.Value
	if value == nil {
		value = big.NewInt(0)
	}

	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return "", fmt.Errorf("failed to fetch nonce: %w", err)
	}

	tip, err := s.client.SuggestGasTipCap(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch gas tip cap: %w", err)
	}
	head, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to fetch chain head: %w", err)
	}
	if head.BaseFee == nil {
		return "", fmt.Errorf("chain does not support EIP-1559 fees")
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	gas, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return "", fmt.Errorf("gas estimation failed: %w", err)
	}

	tx, err := types.SignNewTx(s.key, types.LatestSignerForChainID(s.chainID), &types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := s.client.SendTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	return tx.Hash().Hex(), nil
}
