package entity

import "math/big"

// ZeroAddress represents the Ethereum zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// TokenDescriptor is a static registry entry for a candidate dust token.
// Descriptors are immutable for the process lifetime.
type TokenDescriptor struct {
	Address     string `yaml:"address" json:"address"`
	Symbol      string `yaml:"symbol" json:"symbol"`
	Name        string `yaml:"name" json:"name"`
	Decimals    uint8  `yaml:"decimals" json:"decimals"`
	PriceFeedID string `yaml:"priceFeedId" json:"priceFeedId"`
}

// TokenState holds the raw on-chain state read for one token and owner.
type TokenState struct {
	Balance   *big.Int
	Allowance *big.Int
	Decimals  uint8
}

// TokenBalanceRecord is the per-token result of one refresh cycle. Records are
// superseded wholesale on the next refresh; there is no incremental merge.
// RawBalance and Allowance stay in smallest units, FormattedBalance and
// RawAllowance are their wire representations.
type TokenBalanceRecord struct {
	Token            TokenDescriptor `json:"token"`
	RawBalance       *big.Int        `json:"-"`
	FormattedBalance string          `json:"balance"`
	Allowance        *big.Int        `json:"-"`
	RawAllowance     string          `json:"allowance"`
	USDValue         float64         `json:"usdValue"`
	FetchError       string          `json:"error,omitempty"`
}

// HasBalance reports whether the record fetched successfully with a positive balance.
func (r TokenBalanceRecord) HasBalance() bool {
	return r.FetchError == "" && r.RawBalance != nil && r.RawBalance.Sign() > 0
}
