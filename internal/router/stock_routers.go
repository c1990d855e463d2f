package router

import (
	"github.com/gin-gonic/gin"
)

func registerStockRoutes(api *gin.RouterGroup, cfg *Config) {
	stocks := api.Group("/stocks")
	{
		stocks.GET("", cfg.StockHandler.List)
		stocks.GET("/:symbol", cfg.StockHandler.Get)
		stocks.POST("/upload", cfg.Auth, rateLimit(cfg.UploadLimiter), cfg.StockHandler.Upload)
	}
}
