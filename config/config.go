package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Matching engine knobs.
	MatchFanout          int     `mapstructure:"MATCH_FANOUT"`            // top-K candidates requested in AUTO mode
	MatchMaxAutoAttempts int     `mapstructure:"MATCH_MAX_AUTO_ATTEMPTS"` // retry ceiling before manual escalation
	MatchRetryDelaySec   int     `mapstructure:"MATCH_RETRY_DELAY_SEC"`
	MatchRankCacheTTLSec int     `mapstructure:"MATCH_RANK_CACHE_TTL_SEC"`
	MatchSearchRadiusKm  float64 `mapstructure:"MATCH_SEARCH_RADIUS_KM"`
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
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "tidymatch")
	viper.SetDefault("MATCH_FANOUT", 3)
	viper.SetDefault("MATCH_MAX_AUTO_ATTEMPTS", 3)
	viper.SetDefault("MATCH_RETRY_DELAY_SEC", 5)
	viper.SetDefault("MATCH_RANK_CACHE_TTL_SEC", 300)
	viper.SetDefault("MATCH_SEARCH_RADIUS_KM", 5.0)

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
