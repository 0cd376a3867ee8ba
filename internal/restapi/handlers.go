package restapi

import (
	"errors"
	"net/http"
	"time"

	"dust_cleaner/internal/client"
	"dust_cleaner/internal/config"
	"dust_cleaner/internal/entity"
	"dust_cleaner/internal/pkg/utils"
	"dust_cleaner/internal/port"
	"dust_cleaner/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler wires the pipeline services into HTTP endpoints.
type Handler struct {
	dust   port.DustDataService
	prices port.PriceService
	quotes port.QuoteProvider
	sweeps port.SweepService
	cfg    *config.Config
	logger *zap.Logger
}

// NewHandler creates the API handler set.
func NewHandler(
	dust port.DustDataService,
	prices port.PriceService,
	quotes port.QuoteProvider,
	sweeps port.SweepService,
	cfg *config.Config,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		dust:   dust,
		prices: prices,
		quotes: quotes,
		sweeps: sweeps,
		cfg:    cfg,
		logger: logger.Named("RestAPI"),
	}
}

type dustDataRequest struct {
	Address string `json:"address"`
}

type dustDataResponse struct {
	Success       bool                        `json:"success"`
	Data          []entity.TokenBalanceRecord `json:"data"`
	TotalValueUSD float64                     `json:"totalValueUsd"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// DustDataHandler returns the classified dust holdings for one owner address.
func (h *Handler) DustDataHandler(c *gin.Context) {
	var req dustDataRequest
	if err := c.ShouldBindJSON(&req); err != nil || !utils.IsHexAddress(req.Address) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "a valid address is required"})
		return
	}

	report, err := h.dust.FetchDust(c.Request.Context(), req.Address)
	if err != nil {
		h.logger.Error("Dust data request failed",
			zap.String("address", req.Address),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dustDataResponse{
		Success:       true,
		Data:          report.Tokens,
		TotalValueUSD: report.TotalValueUSD,
	})
}

type tokenPricesResponse struct {
	Success   bool                 `json:"success"`
	Data      []entity.PriceRecord `json:"data"`
	Timestamp string               `json:"timestamp"`
}

type tokenPricesErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// TokenPricesHandler returns cached market data for every registered token.
func (h *Handler) TokenPricesHandler(c *gin.Context) {
	timestamp := time.Now().UTC().Format(time.RFC3339)

	records, err := h.prices.PriceList(c.Request.Context())
	if err != nil {
		h.logger.Error("Token prices request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, tokenPricesErrorResponse{
			Error:     "failed to fetch token prices",
			Timestamp: timestamp,
		})
		return
	}

	c.JSON(http.StatusOK, tokenPricesResponse{
		Success:   true,
		Data:      records,
		Timestamp: timestamp,
	})
}

type swapQuoteResponse struct {
	Success         bool                        `json:"success"`
	MinToAmount     string                      `json:"minToAmount"`
	Transaction     entity.SwapQuoteTransaction `json:"transaction"`
	AllowanceTarget string                      `json:"allowanceTarget,omitempty"`
	Permit2         *entity.Permit2Payload      `json:"permit2,omitempty"`
	Taker           string                      `json:"taker"`
	SignerAddress   string                      `json:"signerAddress,omitempty"`
}

// SwapQuoteHandler proxies a single quote request to the provider, attaching
// server-held credentials. Upstream rejections keep their original status code.
func (h *Handler) SwapQuoteHandler(c *gin.Context) {
	var req entity.SwapQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Network == "" || req.ToToken == "" || req.FromToken == "" || req.FromAmount == "" || req.Taker == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required params"})
		return
	}
	if h.cfg.Quote.KeyID == "" || h.cfg.Quote.KeySecret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server missing quote provider credentials"})
		return
	}
	if req.SlippageBps <= 0 {
		req.SlippageBps = h.cfg.Quote.SlippageBps
	}

	quote, err := h.quotes.FetchQuote(c.Request.Context(), req)
	if err != nil {
		var quoteErr *client.QuoteError
		if errors.As(err, &quoteErr) {
			c.JSON(quoteErr.StatusCode, gin.H{"error": quoteErr.Message})
			return
		}
		h.logger.Error("Swap quote request failed",
			zap.String("fromToken", req.FromToken),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch swap quote"})
		return
	}

	c.JSON(http.StatusOK, swapQuoteResponse{
		Success:         true,
		MinToAmount:     quote.MinToAmount,
		Transaction:     quote.Transaction,
		AllowanceTarget: quote.AllowanceTarget,
		Permit2:         quote.Permit2,
		Taker:           req.Taker,
		SignerAddress:   req.SignerAddress,
	})
}

type sweepRequest struct {
	Address       string   `json:"address"`
	SignerAddress string   `json:"signerAddress"`
	ToToken       string   `json:"toToken"`
	Tokens        []string `json:"tokens"`
}

type sweepResponse struct {
	Success bool                `json:"success"`
	Data    *entity.SweepResult `json:"data"`
}

// SweepHandler runs the full sweep pipeline for a selection of dust tokens.
func (h *Handler) SweepHandler(c *gin.Context) {
	var req sweepRequest
	if err := c.ShouldBindJSON(&req); err != nil || !utils.IsHexAddress(req.Address) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "a valid address is required"})
		return
	}

	toToken, ok := h.resolveTargetToken(req.ToToken)
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown target token"})
		return
	}

	result, err := h.sweeps.PrepareSweep(c.Request.Context(), req.Address, req.SignerAddress, toToken, req.Tokens)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, sweepResponse{Success: true, Data: result})
	case errors.Is(err, service.ErrNoDustTokens), errors.Is(err, service.ErrNoValidCalls):
		c.JSON(http.StatusOK, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrApprovalRequired):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("Sweep request failed",
			zap.String("address", req.Address),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

// resolveTargetToken accepts either a raw token address or a symbol listed in
// quote.targetTokens.
func (h *Handler) resolveTargetToken(toToken string) (string, bool) {
	if utils.IsHexAddress(toToken) {
		return toToken, true
	}
	if address, ok := h.cfg.Quote.TargetTokens[toToken]; ok {
		return address, true
	}
	return "", false
}
