package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"stockboard/internal/handler"
)

type Config struct {
	StockHandler *handler.StockHandler

	// Auth guards the upload route; reads are public.
	Auth gin.HandlerFunc

	// UploadLimiter throttles the upload route. Nil disables limiting.
	UploadLimiter *rate.Limiter
}

func NewRouter(cfg *Config) *gin.Engine {
	router := gin.Default()

	router.GET("/healthz", cfg.StockHandler.Health)

	api := router.Group("/api")
	registerStockRoutes(api, cfg)

	return router
}

func rateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"msg":   "Too many uploads, slow down",
				"error": "rate_limited",
			})
			return
		}
		c.Next()
	}
}
