package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the server and the sync client
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Kafka    KafkaConfig
	Client   ClientConfig
	Logging  LoggingConfig
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	Port         string `validate:"required"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds the SQLite store configuration
type DatabaseConfig struct {
	Path string `validate:"required"`
}

// AuthConfig holds authentication specific configuration
type AuthConfig struct {
	JWTSecret            string `validate:"required"`
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// KafkaConfig holds Kafka specific configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// ClientConfig holds configuration for the notification sync client
type ClientConfig struct {
	BaseURL         string        `validate:"required,url"`
	CredentialsFile string        `validate:"required"`
	PollInterval    time.Duration `validate:"required,min=1s"`
	PageSize        int           `validate:"required,min=1"`
	RequestTimeout  time.Duration
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads the configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Read from environment variables
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "10s")
	v.SetDefault("server.idleTimeout", "120s")

	// Database defaults
	v.SetDefault("database.path", "schoolhealth.db")

	// Auth defaults
	v.SetDefault("auth.accessTokenDuration", "15m")
	v.SetDefault("auth.refreshTokenDuration", "168h")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "notification-events")

	// Client defaults
	v.SetDefault("client.baseURL", "http://localhost:8080")
	v.SetDefault("client.credentialsFile", ".schoolhealth-credentials.json")
	v.SetDefault("client.pollInterval", "5s")
	v.SetDefault("client.pageSize", 10)
	v.SetDefault("client.requestTimeout", "4s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
