package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort    string
	DatabasePath  string
	UploadDir     string
	AuthToken     string
	DebugMode     bool
	UploadTimeout time.Duration

	// UploadRatePerMin caps upload requests per minute; 0 disables.
	UploadRatePerMin int
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "5000"),
		DatabasePath:     getEnv("DATABASE_PATH", "stockboard.db"),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		AuthToken:        getEnv("AUTH_TOKEN", ""),
		DebugMode:        getEnv("DEBUGMODE", "False") == "True",
		UploadTimeout:    time.Duration(getEnvInt("UPLOAD_TIMEOUT_SECONDS", 30)) * time.Second,
		UploadRatePerMin: getEnvInt("UPLOAD_RATE_PER_MIN", 60),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
