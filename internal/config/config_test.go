package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalConfig = `
network:
  rpcEndpoints:
    - "https://base-mainnet.public.blastapi.io"
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "base", cfg.Network.Name)
	assert.Equal(t, uint64(8453), cfg.Network.ChainID)
	assert.Equal(t, 0.01, cfg.Dust.MinUSD)
	assert.Equal(t, 2.00, cfg.Dust.MaxUSD)
	assert.Equal(t, 2, cfg.Fetcher.BatchSize)
	assert.Equal(t, int64(2000), cfg.Fetcher.InterBatchDelayMs)
	assert.Equal(t, "0x000000000022D473030F116dDEE9F6B43aC78BA3", cfg.Fetcher.SpenderAddress)
	assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.PriceFeed.BaseURL)
	assert.Equal(t, 5, cfg.PriceFeed.CacheTTLMinutes)
	assert.Equal(t, "api.cdp.coinbase.com", cfg.Quote.Host)
	assert.Equal(t, "/platform/v2/evm/swaps", cfg.Quote.Path)
	assert.Equal(t, 50, cfg.Quote.SlippageBps)
	assert.Equal(t, 3, cfg.Quote.MaxCalls)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
server:
  port: ":9090"
network:
  rpcEndpoints:
    - "https://rpc-one.example.org"
    - "https://rpc-two.example.org"
dust:
  minUsd: 0.05
  maxUsd: 5.0
quote:
  slippageBps: 100
  targetTokens:
    USDC: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
`))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Len(t, cfg.Network.RPCEndpoints, 2)
	assert.Equal(t, 0.05, cfg.Dust.MinUSD)
	assert.Equal(t, 5.0, cfg.Dust.MaxUSD)
	assert.Equal(t, 100, cfg.Quote.SlippageBps)
	assert.Equal(t, "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", cfg.Quote.TargetTokens["USDC"])
}

func TestLoadConfigSecretsFromEnv(t *testing.T) {
	t.Setenv("COIN_GECKO_API_KEY", "cg-test-key")
	t.Setenv("KEY_NAME", "provider-key-id")
	t.Setenv("KEY_SECRET", "provider-key-secret")
	t.Setenv("PAYMASTER_AND_BUNDLER_ENDPOINT", "https://paymaster.example.org")

	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "cg-test-key", cfg.PriceFeed.APIKey)
	assert.Equal(t, "provider-key-id", cfg.Quote.KeyID)
	assert.Equal(t, "provider-key-secret", cfg.Quote.KeySecret)
	assert.Equal(t, "https://paymaster.example.org", cfg.Sponsorship.PaymasterURL)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Run("requires at least one RPC endpoint", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, `
server:
  port: ":8080"
`))
		assert.Error(t, err)
	})

	t.Run("rejects inverted dust band", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, minimalConfig+`
dust:
  minUsd: 3.0
  maxUsd: 1.0
`))
		assert.Error(t, err)
	})

	t.Run("rejects malformed spender address", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, minimalConfig+`
fetcher:
  spenderAddress: "permit2"
`))
		assert.Error(t, err)
	})

	t.Run("fails on missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
