package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram
	BotToken       string
	AdminIDs       []int64
	AnnounceChatID int64

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Security
	JWTSecret string

	// Application
	AppEnv   string
	LogLevel string

	// Claim limits
	MaxRealities    int
	NoRealityClaims int64

	// Tracker
	TrackerBaseURL     string
	ScrapeMinInterval  int
	TrackerHTTPTimeout int

	// Export
	ExportPath        string
	ExportMinInterval int

	// Rate limiting
	RateLimitPerUser int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		BotToken:       getEnv("BOT_TOKEN", ""),
		AnnounceChatID: getEnvInt64("ANNOUNCE_CHAT_ID", 0),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "claimsbot"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "claimsbot_db"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET_KEY", ""),

		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		MaxRealities:    getEnvInt("MAX_REALITIES", 2),
		NoRealityClaims: getEnvInt64("NO_REALITY_CLAIMS", 2),

		TrackerBaseURL:     getEnv("TRACKER_BASE_URL", "https://archipelago.gg/tracker"),
		ScrapeMinInterval:  getEnvInt("SCRAPE_MIN_INTERVAL", 3600),
		TrackerHTTPTimeout: getEnvInt("TRACKER_HTTP_TIMEOUT", 30),

		ExportPath:        getEnv("EXPORT_PATH", "overview.xlsx"),
		ExportMinInterval: getEnvInt("EXPORT_MIN_INTERVAL", 60),

		RateLimitPerUser: getEnvInt("RATE_LIMIT_PER_USER", 20),
	}

	// Parse admin telegram IDs (comma separated)
	adminStr := getEnv("ADMIN_IDS", "")
	if adminStr != "" {
		for _, part := range strings.Split(adminStr, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid ADMIN_IDS entry %q: %w", part, err)
			}
			cfg.AdminIDs = append(cfg.AdminIDs, id)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters")
	}
	if c.MaxRealities < 1 {
		return fmt.Errorf("MAX_REALITIES must be a positive integer")
	}
	if c.NoRealityClaims < 1 {
		return fmt.Errorf("NO_REALITY_CLAIMS must be a positive integer")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if len(c.AdminIDs) == 0 {
		return fmt.Errorf("ADMIN_IDS must be set in production")
	}
	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func (c *Config) GetScrapeMinInterval() time.Duration {
	return time.Duration(c.ScrapeMinInterval) * time.Second
}

func (c *Config) GetExportMinInterval() time.Duration {
	return time.Duration(c.ExportMinInterval) * time.Second
}

func (c *Config) GetTrackerHTTPTimeout() time.Duration {
	return time.Duration(c.TrackerHTTPTimeout) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}
