package restapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter builds the gin engine with CORS, request logging and the API
// routes mounted under /api/v1.
func SetupRouter(handler *Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.Use(ZapLoggerMiddleware(logger))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	v1 := router.Group("/api/v1")
	{
		v1.POST("/dust-data", handler.DustDataHandler)
		v1.GET("/token-prices", handler.TokenPricesHandler)
		v1.POST("/swap-quote", handler.SwapQuoteHandler)
		v1.POST("/sweep", handler.SweepHandler)
	}

	return router
}
