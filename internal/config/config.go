package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Telegram TelegramConfig
	TON      TONConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	AllowOrigins string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type TelegramConfig struct {
	BotToken string
	// UploadChatID is the chat the loader sends videos to in order to
	// obtain reusable file_id references.
	UploadChatID int64
}

type TONConfig struct {
	Testnet       bool
	WalletAddress string
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	tonTestnet, _ := strconv.ParseBool(getEnv("TON_TESTNET", "true"))
	uploadChatID, _ := strconv.ParseInt(getEnv("TELEGRAM_UPLOAD_CHAT_ID", "0"), 10, 64)

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			AllowOrigins: getEnv("ALLOW_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "otpuskpass"),
			Password: getEnv("DB_PASSWORD", "otpuskpass"),
			Name:     getEnv("DB_NAME", "otpuskpass"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Telegram: TelegramConfig{
			BotToken:     getEnv("TELEGRAM_BOT_TOKEN", ""),
			UploadChatID: uploadChatID,
		},
		TON: TONConfig{
			Testnet:       tonTestnet,
			WalletAddress: getEnv("TON_WALLET_ADDRESS", ""),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Subscription terms and worker schedules.
const (
	SubscriptionPriceRUB = 3000.0
	MinNightsForVacation = 7

	PaymentCheckInterval = 5 * time.Minute
	PaymentLookback      = 24 * time.Hour
	PaymentAddressTTL    = 24 * time.Hour
)
