package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	WB       WB       `mapstructure:"wb"`
	Repricer Repricer `mapstructure:"repricer"`
	Logger   Logger   `mapstructure:"logger"`
	Database Database `mapstructure:"database"`
}

// WB holds the configuration for the Wildberries API.
type WB struct {
	ApiKey         string  `mapstructure:"apiKey"`
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	MockMode       bool    `mapstructure:"mock_mode"`
}

// Repricer holds the configuration for the collection and strategy loop.
type Repricer struct {
	TickInterval int    `mapstructure:"tick_interval"` // seconds between runs
	RunOnStart   bool   `mapstructure:"run_on_start"`
	AccountName  string `mapstructure:"account_name"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("wb.rate_limit", 10) // requests per second
	viper.SetDefault("wb.rate_limit_burst", 5)
	viper.SetDefault("repricer.tick_interval", 3600)
	viper.SetDefault("repricer.run_on_start", true)
	viper.SetDefault("repricer.account_name", "default")
	viper.SetDefault("database.dsn", "repricer.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
