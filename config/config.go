package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB       int    `mapstructure:"REDIS_CACHE_DB"`
	RedisMirrorQueueDB int    `mapstructure:"REDIS_MIRROR_QUEUE_DB"`

	// Reminder sweep.
	SweepSchedule      string  `mapstructure:"SWEEP_SCHEDULE"`
	ReminderThresholdH int     `mapstructure:"REMINDER_THRESHOLD_HOURS"`
	SweepSendPerSecond float64 `mapstructure:"SWEEP_SEND_PER_SECOND"`

	// External calendar busy-window cache.
	BusyCacheTTLSeconds int `mapstructure:"BUSY_CACHE_TTL_SECONDS"`

	// Notification channel webhook.
	NotifyWebhookURL string `mapstructure:"NOTIFY_WEBHOOK_URL"`
	NotifyAuthToken  string `mapstructure:"NOTIFY_AUTH_TOKEN"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "bookflow")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_MIRROR_QUEUE_DB", 1)
	viper.SetDefault("SWEEP_SCHEDULE", "*/10 * * * *")
	viper.SetDefault("REMINDER_THRESHOLD_HOURS", 24)
	viper.SetDefault("SWEEP_SEND_PER_SECOND", 1.0)
	viper.SetDefault("BUSY_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("NOTIFY_WEBHOOK_URL", "")
	viper.SetDefault("NOTIFY_AUTH_TOKEN", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
