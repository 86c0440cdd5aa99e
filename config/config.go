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
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	AdminAPIToken     string `mapstructure:"ADMIN_API_TOKEN"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	RedisPass    string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB int    `mapstructure:"REDIS_QUEUE_DB"`

	// Trip generation.
	TripGenHour        int `mapstructure:"TRIP_GEN_HOUR"`         // local hour of the daily run
	TripGenHorizonDays int `mapstructure:"TRIP_GEN_HORIZON_DAYS"` // how many days ahead to generate
	MinTripPassengers  int `mapstructure:"MIN_TRIP_PASSENGERS"`
	OptimizerTimeoutMs int `mapstructure:"OPTIMIZER_TIMEOUT_MS"`

	// Billing policies.
	OnlineShortfallPolicy string `mapstructure:"ONLINE_SHORTFALL_POLICY"` // "none" or "credit"
	InvoiceFailurePolicy  string `mapstructure:"INVOICE_FAILURE_POLICY"`  // "grace" or "suspend"
	InvoiceGraceDays      int    `mapstructure:"INVOICE_GRACE_DAYS"`

	// Gemini API key for the optimizing grouping strategy.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
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
	viper.SetDefault("DATABASE_NAME", "ridepool")
	viper.SetDefault("TRIP_GEN_HOUR", 18)
	viper.SetDefault("TRIP_GEN_HORIZON_DAYS", 1)
	viper.SetDefault("MIN_TRIP_PASSENGERS", 3)
	viper.SetDefault("OPTIMIZER_TIMEOUT_MS", 8000)
	viper.SetDefault("ONLINE_SHORTFALL_POLICY", "none")
	viper.SetDefault("INVOICE_FAILURE_POLICY", "grace")
	viper.SetDefault("INVOICE_GRACE_DAYS", 5)
	viper.SetDefault("GEMINI_API_KEY", "")

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
