package main

import (
	"context"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dust_cleaner/internal/blockchain"
	"dust_cleaner/internal/client"
	"dust_cleaner/internal/config"
	"dust_cleaner/internal/pkg/logger"
	"dust_cleaner/internal/pkg/metrics"
	"dust_cleaner/internal/pkg/utils"
	"dust_cleaner/internal/port"
	"dust_cleaner/internal/registry"
	"dust_cleaner/internal/restapi"
	"dust_cleaner/internal/service"
	"dust_cleaner/internal/signer"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

func main() {
	// Secrets may come from a local .env in development; absence is fine.
	_ = godotenv.Load()

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level)
	if err != nil {
		logrus.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()
	logger.BridgeSlog(zapLogger)

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	reg, err := registry.Load(cfg.Registry.TokensFile)
	if err != nil {
		zapLogger.Fatal("Failed to load token registry", zap.Error(err))
	}
	zapLogger.Info("Token registry loaded", zap.Int("tokenCount", reg.Len()))

	reader, err := blockchain.NewEVMReader(blockchain.Options{
		Endpoints:      cfg.Network.RPCEndpoints,
		CallTimeout:    time.Duration(cfg.Network.RPCTimeoutMs) * time.Millisecond,
		ConnectTimeout: time.Duration(cfg.Network.ConnectTimeout) * time.Second,
		RateLimit:      cfg.Network.RateLimit,
		BurstLimit:     cfg.Network.BurstLimit,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize chain reader", zap.Error(err))
	}

	balanceService := service.NewBalanceService(
		reader,
		reg,
		cfg.Fetcher.SpenderAddress,
		cfg.Fetcher.BatchSize,
		time.Duration(cfg.Fetcher.InterBatchDelayMs)*time.Millisecond,
		zapLogger,
	)

	priceOracle := client.NewCoinGeckoClient(
		cfg.PriceFeed.BaseURL,
		cfg.PriceFeed.APIKey,
		time.Duration(cfg.PriceFeed.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)
	priceService := service.NewPriceService(
		priceOracle,
		reg,
		time.Duration(cfg.PriceFeed.CacheTTLMinutes)*time.Minute,
		time.Duration(cfg.PriceFeed.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)

	// Warm the price cache so the first dust request does not pay for it.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := priceService.Refresh(ctx); err != nil {
			zapLogger.Warn("Initial price cache warmup failed", zap.Error(err))
		}
	}()

	band := service.DustBand{MinUSD: cfg.Dust.MinUSD, MaxUSD: cfg.Dust.MaxUSD}
	dustService := service.NewDustDataService(balanceService, priceService, band, zapLogger)

	quoteClient := client.NewSwapQuoteClient(
		cfg.Quote.Host,
		cfg.Quote.Path,
		cfg.Quote.KeyID,
		cfg.Quote.KeySecret,
		time.Duration(cfg.Quote.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)

	var permitSigner port.PermitSigner
	var submitter port.TxSubmitter
	if cfg.Submitter.PrivateKey != "" {
		localSigner, err := signer.NewLocalPermitSigner(cfg.Submitter.PrivateKey)
		if err != nil {
			zapLogger.Fatal("Failed to initialize permit signer", zap.Error(err))
		}
		permitSigner = localSigner

		eoaSubmitter, err := service.NewEOASubmitter(
			cfg.Network.RPCEndpoints[0],
			cfg.Submitter.PrivateKey,
			cfg.Network.ChainID,
			zapLogger,
		)
		if err != nil {
			zapLogger.Fatal("Failed to initialize transaction submitter", zap.Error(err))
		}
		submitter = eoaSubmitter
		zapLogger.Info("Server-side submitter enabled",
			zap.String("sender", localSigner.Address().Hex()))
	} else {
		zapLogger.Info("No submitter key configured, sweeps return prepared calls only")
	}

	orchestrator := service.NewQuoteOrchestrator(
		quoteClient,
		permitSigner,
		cfg.Network.Name,
		cfg.Quote.SlippageBps,
		cfg.Quote.MaxCalls,
		band,
		zapLogger,
	)
	sweepService := service.NewSweepService(
		dustService,
		priceService,
		orchestrator,
		submitter,
		cfg.Sponsorship.PaymasterURL != "",
		zapLogger,
	)

	handler := restapi.NewHandler(dustService, priceService, quoteClient, sweepService, cfg, zapLogger)
	router := restapi.SetupRouter(handler, zapLogger)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	pprofRouter := router.Group("/debug/pprof")
	{
		pprofRouter.GET("/", gin.WrapF(pprof.Index))
		pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
		pprofRouter.POST("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
		pprofRouter.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
		pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}
