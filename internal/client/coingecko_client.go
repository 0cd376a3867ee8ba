package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"dust_cleaner/internal/entity"
	"dust_cleaner/internal/port"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// coinGeckoClientImpl implements port.PriceOracle against the CoinGecko
// simple/price API. All requested ids go out in a single batched request.
type coinGeckoClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewCoinGeckoClient creates a new price oracle client.
func NewCoinGeckoClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) port.PriceOracle {
	return &coinGeckoClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		logger:  logger.Named("CoinGeckoClient"),
	}
}

type simplePriceEntry struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
	USDMarketCap float64 `json:"usd_market_cap"`
}

// FetchPrices implements port.PriceOracle. A non-success upstream response is a
// hard failure for the whole batch; no partial prices are returned.
func (c *coinGeckoClientImpl) FetchPrices(ctx context.Context, ids []string) (entity.PriceMap, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("ids cannot be empty")
	}

	requestURL := fmt.Sprintf(
		"%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true&include_market_cap=true",
		c.baseURL, url.QueryEscape(strings.Join(ids, ",")),
	)
	c.logger.Debug("Requesting token prices", zap.Int("idCount", len(ids)))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("failed to execute price request: %w", err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			return nil, fmt.Errorf("failed to execute price request with default timeout: %w", err)
		}
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Price feed request failed",
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("price feed responded with status %d", resp.StatusCode())
	}

	var parsed map[string]simplePriceEntry
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal price feed response: %w", err)
	}

	prices := make(entity.PriceMap, len(parsed))
	for id, p := range parsed {
		prices[id] = entity.PriceRecord{
			ID:           id,
			PriceUSD:     p.USD,
			Change24hPct: p.USD24hChange,
			MarketCapUSD: p.USDMarketCap,
		}
	}
	c.logger.Debug("Fetched token prices", zap.Int("priceCount", len(prices)))
	return prices, nil
}
