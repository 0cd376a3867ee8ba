package client

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"dust_cleaner/internal/entity"
	"dust_cleaner/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// QuoteError carries the upstream HTTP status alongside the provider's message
// so proxy handlers can propagate it.
type QuoteError struct {
	StatusCode int
	Message    string
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("quote provider rejected request (status %d): %s", e.StatusCode, e.Message)
}

// swapQuoteClientImpl implements port.QuoteProvider against a hosted swap API
// that authenticates with a short-lived ES256 bearer JWT per request.
type swapQuoteClientImpl struct {
	client    *fasthttp.Client
	host      string
	path      string
	keyID     string
	keySecret string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewSwapQuoteClient creates a new quote provider client.
func NewSwapQuoteClient(host, path, keyID, keySecret string, timeout time.Duration, logger *zap.Logger) port.QuoteProvider {
	return &swapQuoteClientImpl{
		client:    &fasthttp.Client{},
		host:      host,
		path:      path,
		keyID:     keyID,
		keySecret: keySecret,
		timeout:   timeout,
		logger:    logger.Named("SwapQuoteClient"),
	}
}

type quoteErrorBody struct {
	ErrorMessage string `json:"errorMessage"`
	Error        string `json:"error"`
}

// FetchQuote implements port.QuoteProvider.
func (c *swapQuoteClientImpl) FetchQuote(ctx context.Context, quoteReq entity.SwapQuoteRequest) (*entity.SwapQuote, error) {
	if c.keyID == "" || c.keySecret == "" {
		return nil, fmt.Errorf("quote provider credentials are not configured")
	}

	token, err := c.bearerToken()
	if err != nil {
		return nil, fmt.Errorf("failed to mint provider JWT: %w", err)
	}

	body, err := json.Marshal(quoteReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quote request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(fmt.Sprintf("https://%s%s", c.host, c.path))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to execute quote request: %w", err)
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		message := strings.TrimSpace(string(rawBody))
		var parsed quoteErrorBody
		if jsonErr := json.Unmarshal(rawBody, &parsed); jsonErr == nil {
			if parsed.ErrorMessage != "" {
				message = parsed.ErrorMessage
			} else if parsed.Error != "" {
				message = parsed.Error
			}
		}
		if message == "" {
			message = "quote failed"
		}
		c.logger.Warn("Quote provider rejected request",
			zap.Int("statusCode", resp.StatusCode()),
			zap.String("fromToken", quoteReq.FromToken),
			zap.String("message", message))
		return nil, &QuoteError{StatusCode: resp.StatusCode(), Message: message}
	}

	var quote entity.SwapQuote
	if err := json.Unmarshal(rawBody, &quote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote response: %w", err)
	}
	if quote.Transaction.Value == "" {
		quote.Transaction.Value = "0"
	}
	return &quote, nil
}

// bearerToken mints the provider's request JWT: ES256, two minute lifetime,
// bound to the exact method/host/path of the swaps endpoint.
func (c *swapQuoteClientImpl) bearerToken() (string, error) {
	secret := strings.ReplaceAll(c.keySecret, `\n`, "\n")
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to parse EC private key: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  c.keyID,
		"iss":  "cdp",
		"nbf":  now.Unix(),
		"exp":  now.Add(2 * time.Minute).Unix(),
		"uris": []string{fmt.Sprintf("POST %s%s", c.host, c.path)},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = c.keyID
	token.Header["nonce"] = randomNonce()
	return token.SignedString(key)
}

func randomNonce() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
