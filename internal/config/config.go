package config

import (
	"fmt"
	"os"

	"dust_cleaner/internal/pkg/utils"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Network     NetworkConfig     `yaml:"network"`
	Registry    RegistryConfig    `yaml:"registry"`
	Dust        DustConfig        `yaml:"dust"`
	Fetcher     FetcherConfig     `yaml:"fetcher"`
	PriceFeed   PriceFeedConfig   `yaml:"priceFeed"`
	Quote       QuoteConfig       `yaml:"quote"`
	Sponsorship SponsorshipConfig `yaml:"sponsorship"`
	Submitter   SubmitterConfig   `yaml:"submitter"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// NetworkConfig describes the single tracked chain and its prioritized RPC list.
type NetworkConfig struct {
	Name           string   `yaml:"name"`
	ChainID        uint64   `yaml:"chainID"`
	RPCEndpoints   []string `yaml:"rpcEndpoints"`
	RPCTimeoutMs   int64    `yaml:"rpcTimeoutMs"`
	RateLimit      int      `yaml:"rateLimit"`
	BurstLimit     int      `yaml:"burstLimit"`
	ConnectTimeout int      `yaml:"connectTimeoutSeconds"`
}

// RegistryConfig points at the static token registry file.
type RegistryConfig struct {
	TokensFile string `yaml:"tokensFile"`
}

// DustConfig is the closed USD band a token value must fall into to qualify as dust.
type DustConfig struct {
	MinUSD float64 `yaml:"minUsd"`
	MaxUSD float64 `yaml:"maxUsd"`
}

// FetcherConfig controls balance/allowance fetch batching and the allowance spender.
type FetcherConfig struct {
	BatchSize         int    `yaml:"batchSize"`
	InterBatchDelayMs int64  `yaml:"interBatchDelayMs"`
	SpenderAddress    string `yaml:"spenderAddress"`
}

// PriceFeedConfig holds the price feed endpoint configuration. The API key is
// taken from the environment, never from the file.
type PriceFeedConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	CacheTTLMinutes      int    `yaml:"cacheTTLMinutes"`
	APIKey               string `yaml:"-"`
}

// QuoteConfig holds the swap-quote provider configuration. Credentials come
// from the environment.
type QuoteConfig struct {
	Host                 string            `yaml:"host"`
	Path                 string            `yaml:"path"`
	RequestTimeoutMillis int64             `yaml:"requestTimeoutMillis"`
	SlippageBps          int               `yaml:"slippageBps"`
	MaxCalls             int               `yaml:"maxCalls"`
	TargetTokens         map[string]string `yaml:"targetTokens"`
	KeyID                string            `yaml:"-"`
	KeySecret            string            `yaml:"-"`
}

// SponsorshipConfig carries the optional gas-sponsorship settings.
type SponsorshipConfig struct {
	PaymasterURL string `yaml:"-"`
	FeeCollector string `yaml:"-"`
}

// SubmitterConfig configures the optional server-side transaction submitter.
type SubmitterConfig struct {
	PrivateKey string `yaml:"-"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LoadConfig loads configuration from a YAML file and overlays secrets from the
// environment.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	if len(cfg.Network.RPCEndpoints) == 0 {
		return nil, fmt.Errorf("network.rpcEndpoints must list at least one RPC URL")
	}
	if cfg.Dust.MinUSD < 0 || cfg.Dust.MaxUSD <= cfg.Dust.MinUSD {
		return nil, fmt.Errorf("invalid dust band [%f, %f]", cfg.Dust.MinUSD, cfg.Dust.MaxUSD)
	}
	if !utils.IsHexAddress(cfg.Fetcher.SpenderAddress) {
		return nil, fmt.Errorf("fetcher.spenderAddress %q is not a valid address", cfg.Fetcher.SpenderAddress)
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Network.Name == "" {
		cfg.Network.Name = "base"
	}
	if cfg.Network.ChainID == 0 {
		cfg.Network.ChainID = 8453
	}
	if cfg.Network.RPCTimeoutMs == 0 {
		cfg.Network.RPCTimeoutMs = 10000
	}
	if cfg.Network.RateLimit == 0 {
		cfg.Network.RateLimit = 10
	}
	if cfg.Network.BurstLimit == 0 {
		cfg.Network.BurstLimit = 5
	}
	if cfg.Network.ConnectTimeout == 0 {
		cfg.Network.ConnectTimeout = 10
	}
	if cfg.Registry.TokensFile == "" {
		cfg.Registry.TokensFile = "config/tokens.yaml"
	}
	if cfg.Dust.MinUSD == 0 && cfg.Dust.MaxUSD == 0 {
		cfg.Dust.MinUSD = 0.01
		cfg.Dust.MaxUSD = 2.00
	}
	if cfg.Fetcher.BatchSize == 0 {
		cfg.Fetcher.BatchSize = 2
	}
	if cfg.Fetcher.InterBatchDelayMs == 0 {
		cfg.Fetcher.InterBatchDelayMs = 2000
	}
	if cfg.Fetcher.SpenderAddress == "" {
		// Canonical Permit2 deployment.
		cfg.Fetcher.SpenderAddress = "0x000000000022D473030F116dDEE9F6B43aC78BA3"
	}
	if cfg.PriceFeed.BaseURL == "" {
		cfg.PriceFeed.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.PriceFeed.RequestTimeoutMillis == 0 {
		cfg.PriceFeed.RequestTimeoutMillis = 10000
	}
	if cfg.PriceFeed.CacheTTLMinutes == 0 {
		cfg.PriceFeed.CacheTTLMinutes = 5
	}
	if cfg.Quote.Host == "" {
		cfg.Quote.Host = "api.cdp.coinbase.com"
	}
	if cfg.Quote.Path == "" {
		cfg.Quote.Path = "/platform/v2/evm/swaps"
	}
	if cfg.Quote.RequestTimeoutMillis == 0 {
		cfg.Quote.RequestTimeoutMillis = 15000
	}
	if cfg.Quote.SlippageBps == 0 {
		cfg.Quote.SlippageBps = 50
	}
	if cfg.Quote.MaxCalls == 0 {
		cfg.Quote.MaxCalls = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func applyEnv(cfg *Config) {
	cfg.PriceFeed.APIKey = utils.GetEnv("COIN_GECKO_API_KEY", "")
	cfg.Quote.KeyID = utils.GetEnv("KEY_NAME", "")
	cfg.Quote.KeySecret = utils.GetEnv("KEY_SECRET", "")
	cfg.Sponsorship.PaymasterURL = utils.GetEnv("PAYMASTER_AND_BUNDLER_ENDPOINT", "")
	cfg.Sponsorship.FeeCollector = utils.GetEnv("FEE_COLLECTOR_ADDRESS", "")
	cfg.Submitter.PrivateKey = utils.GetEnv("SUBMITTER_PRIVATE_KEY", "")
}
