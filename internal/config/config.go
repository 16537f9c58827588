package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds the service configuration
type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Sync        SyncConfig
	LogLevel    string
}

// DatabaseConfig holds the PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// SyncConfig holds scheduler tuning knobs
type SyncConfig struct {
	MaxItemsPerRun  int
	DelayMinMs      int
	DelayMaxMs      int
	SupplierPauseMs int
}

// DSN builds the gorm PostgreSQL connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// Load reads configuration from the environment, with an optional .env file
func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing .env is fine, environment variables cover it
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "dropshipping"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Sync: SyncConfig{
			MaxItemsPerRun:  viper.GetInt("SYNC_MAX_ITEMS_PER_RUN"),
			DelayMinMs:      viper.GetInt("SYNC_DELAY_MIN_MS"),
			DelayMaxMs:      viper.GetInt("SYNC_DELAY_MAX_MS"),
			SupplierPauseMs: viper.GetInt("SYNC_SUPPLIER_PAUSE_MS"),
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	if cfg.Database.Host == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
