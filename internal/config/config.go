package config

import (
	"log"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	Payment  PaymentConfig
	Kafka    KafkaConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type TelegramConfig struct {
	BotToken string
	AdminIDs []int64
}

type PaymentConfig struct {
	CountdownSeconds   int
	VerifyDelaySeconds int
	OracleURL          string // empty means simulated verification
	OracleDeadline     int    // in seconds
}

type KafkaConfig struct {
	Brokers []string // empty disables event publishing
	Topic   string
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("TELEGRAM_ADMIN_IDS", "12345678,123456789,987654321")
	viper.SetDefault("PAYMENT_COUNTDOWN_SECONDS", 60)
	viper.SetDefault("PAYMENT_VERIFY_DELAY_SECONDS", 3)
	viper.SetDefault("PAYMENT_ORACLE_DEADLINE_SECONDS", 120)
	viper.SetDefault("KAFKA_TOPIC", "payment.sessions.resolved")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Telegram: TelegramConfig{
			BotToken: viper.GetString("TELEGRAM_BOT_TOKEN"),
			AdminIDs: parseIDList(viper.GetString("TELEGRAM_ADMIN_IDS")),
		},
		Payment: PaymentConfig{
			CountdownSeconds:   viper.GetInt("PAYMENT_COUNTDOWN_SECONDS"),
			VerifyDelaySeconds: viper.GetInt("PAYMENT_VERIFY_DELAY_SECONDS"),
			OracleURL:          viper.GetString("PAYMENT_ORACLE_URL"),
			OracleDeadline:     viper.GetInt("PAYMENT_ORACLE_DEADLINE_SECONDS"),
		},
		Kafka: KafkaConfig{
			Brokers: parseList(viper.GetString("KAFKA_BROKERS")),
			Topic:   viper.GetString("KAFKA_TOPIC"),
		},
	}
}

// parseIDList parses a comma-separated list of numeric Telegram user IDs.
// Malformed entries are skipped rather than failing startup.
func parseIDList(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("Warning: skipping malformed admin ID %q: %v", part, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
