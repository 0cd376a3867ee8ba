package entity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// SwapCallDescriptor is one executable call prepared by the quote orchestrator.
// Descriptors are ephemeral and rebuilt on every submission attempt.
type SwapCallDescriptor struct {
	To    string   `json:"to"`
	Data  string   `json:"data"`
	Value *big.Int `json:"value"`
}

// SwapQuoteRequest is the request sent to the external quote provider.
type SwapQuoteRequest struct {
	Network       string `json:"network"`
	ToToken       string `json:"toToken"`
	FromToken     string `json:"fromToken"`
	FromAmount    string `json:"fromAmount"`
	Taker         string `json:"taker"`
	SignerAddress string `json:"signerAddress"`
	SlippageBps   int    `json:"slippageBps"`
}

// SwapQuoteTransaction is the transaction fragment of a quote response.
// All numeric fields arrive as decimal strings.
type SwapQuoteTransaction struct {
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	Gas      string `json:"gas,omitempty"`
	GasPrice string `json:"gasPrice,omitempty"`
}

// Permit2Payload carries the typed-data permit the provider wants signed before
// the swap can move tokens. The signature is verified downstream by the transfer
// mechanism, it is never attached to the call descriptor.
type Permit2Payload struct {
	EIP712 apitypes.TypedData `json:"eip712"`
	Hash   string             `json:"hash"`
}

// SwapQuote is the parsed response of the quote provider.
type SwapQuote struct {
	MinToAmount     string               `json:"minToAmount"`
	Transaction     SwapQuoteTransaction `json:"transaction"`
	AllowanceTarget string               `json:"allowanceTarget"`
	Permit2         *Permit2Payload      `json:"permit2"`
}

// SweepResult is what a prepared (and optionally submitted) sweep looks like.
type SweepResult struct {
	Calls     []SwapCallDescriptor `json:"calls"`
	TxHashes  []string             `json:"txHashes,omitempty"`
	Sponsored bool                 `json:"sponsored"`
}

// DustReport is the classified dust view for one owner address.
type DustReport struct {
	Owner         string               `json:"owner"`
	Tokens        []TokenBalanceRecord `json:"tokens"`
	TotalValueUSD float64              `json:"totalValueUSD"`
}
