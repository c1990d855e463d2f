package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stockboard/config"
	"stockboard/internal/auth"
	"stockboard/internal/handler"
	"stockboard/internal/repository"
	"stockboard/internal/router"
	"stockboard/internal/service"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if cfg.DebugMode {
		logger.SetLevel(logrus.DebugLevel)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations and exit")
	flag.Parse()

	if *migrateFlag {
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatalf("Failed to get sql.DB: %v", err)
		}
		if err := goose.SetDialect("sqlite3"); err != nil {
			logger.Fatalf("Goose: failed to set dialect: %v", err)
		}
		logger.Info("Running database migrations...")
		if err := goose.Up(sqlDB, "migrations"); err != nil {
			logger.Fatalf("Goose migration failed: %v", err)
		}
	}

	// Upload directory is created once here, never per request.
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		logger.Fatalf("Failed to create upload dir %s: %v", cfg.UploadDir, err)
	}

	if cfg.AuthToken == "" {
		logger.Warn("AUTH_TOKEN is empty, all uploads will be rejected")
	}

	stockRepo := repository.NewGormStockRepository(db)
	stockService := service.NewStockService(stockRepo, logger, cfg.UploadDir, cfg.UploadTimeout, nil)
	stockHandler := handler.NewStockHandler(stockService, logger, cfg.DebugMode)

	var uploadLimiter *rate.Limiter
	if cfg.UploadRatePerMin > 0 {
		uploadLimiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.UploadRatePerMin)), cfg.UploadRatePerMin)
	}

	routerConfig := &router.Config{
		StockHandler:  stockHandler,
		Auth:          auth.Middleware(&auth.StaticValidator{Token: cfg.AuthToken}),
		UploadLimiter: uploadLimiter,
	}

	router := router.NewRouter(routerConfig)

	router.Run(fmt.Sprintf(":%s", cfg.ServerPort))
}
