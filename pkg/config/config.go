package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerConfig represents relay server configuration
type ServerConfig struct {
	Host           string         `yaml:"host"`
	Port           int            `yaml:"port"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	AgentToken     string         `yaml:"agent_token"`
	Logging        LoggingConfig  `yaml:"logging"`
	Database       DatabaseConfig `yaml:"database"`
	Shutdown       ShutdownConfig `yaml:"shutdown"`
}

// LoggingConfig represents logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// DatabaseConfig represents the connection audit store settings
type DatabaseConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Type           string `yaml:"type"` // sqlite | mysql
	Path           string `yaml:"path"` // file path for sqlite, DSN for mysql
	MaxConnections int    `yaml:"max_connections"`
}

// ShutdownConfig represents graceful shutdown settings
type ShutdownConfig struct {
	GracePeriodSeconds int `yaml:"grace_period_seconds"`
	TimeoutSeconds     int `yaml:"timeout_seconds"`
}

// ConsoleConfig represents the agent console web server configuration
type ConsoleConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	RelayAddress string        `yaml:"relay_address"`
	AgentToken   string        `yaml:"agent_token"`
	Logging      LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns default relay configuration
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Host:           "0.0.0.0",
		Port:           5000,
		AllowedOrigins: []string{"*"},
		AgentToken:     "",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
		Database: DatabaseConfig{
			Enabled:        false,
			Type:           "sqlite",
			Path:           "./chatrelay.db",
			MaxConnections: 25,
		},
		Shutdown: ShutdownConfig{
			GracePeriodSeconds: 1,
			TimeoutSeconds:     30,
		},
	}
}

// DefaultConsoleConfig returns default console configuration
func DefaultConsoleConfig() *ConsoleConfig {
	return &ConsoleConfig{
		Host:         "127.0.0.1",
		Port:         5001,
		RelayAddress: "http://localhost:5000",
		AgentToken:   "",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
	}
}

// LoadConfig loads relay configuration from file and environment variables
func LoadConfig(configPath string) (*ServerConfig, error) {
	config := DefaultConfig()

	if configPath != "" {
		if err := loadFromFile(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConsoleConfig loads console configuration from file and environment variables
func LoadConsoleConfig(configPath string) (*ConsoleConfig, error) {
	config := DefaultConsoleConfig()

	if configPath != "" {
		if err := loadFromFile(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyConsoleEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(path string, config interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, config)
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(config *ServerConfig) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Host = host
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		if val, err := strconv.Atoi(port); err == nil {
			config.Port = val
		}
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = splitOrigins(origins)
	}

	if token := os.Getenv("AGENT_AUTH_TOKEN"); token != "" {
		config.AgentToken = token
	}

	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		config.Logging.File = logFile
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.Logging.Level = strings.ToLower(logLevel)
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		config.Logging.Format = logFormat
	}

	if dbEnabled := os.Getenv("DB_ENABLED"); dbEnabled != "" {
		config.Database.Enabled = dbEnabled == "true"
	}

	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}

	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		config.Database.Path = dbPath
	}

	if maxConns := os.Getenv("DB_MAX_CONNECTIONS"); maxConns != "" {
		if val, err := strconv.Atoi(maxConns); err == nil {
			config.Database.MaxConnections = val
		}
	}
}

// applyConsoleEnvOverrides applies environment variable overrides for the console
func applyConsoleEnvOverrides(config *ConsoleConfig) {
	if host := os.Getenv("DASHBOARD_HOST"); host != "" {
		config.Host = host
	}

	if port := os.Getenv("DASHBOARD_PORT"); port != "" {
		if val, err := strconv.Atoi(port); err == nil {
			config.Port = val
		}
	}

	if addr := os.Getenv("CHAT_RELAY_SERVER_ADDRESS"); addr != "" {
		config.RelayAddress = addr
	}

	if token := os.Getenv("AGENT_AUTH_TOKEN"); token != "" {
		config.AgentToken = token
	}

	if logFile := os.Getenv("AGENT_DASHBOARD_LOG_FILE"); logFile != "" {
		config.Logging.File = logFile
	}

	if logLevel := os.Getenv("AGENT_DASHBOARD_LOG_LEVEL"); logLevel != "" {
		config.Logging.Level = strings.ToLower(logLevel)
	}
}

// splitOrigins parses a comma-separated origin list
func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// Address returns the host:port bind address
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate validates the relay configuration
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Port)
	}

	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("allowed origins cannot be empty")
	}

	if !isValidLogLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Database.Enabled {
		switch c.Database.Type {
		case "sqlite", "mysql":
		default:
			return fmt.Errorf("unsupported database type: %s", c.Database.Type)
		}

		if c.Database.Path == "" {
			return fmt.Errorf("database path cannot be empty")
		}

		if c.Database.MaxConnections < 1 {
			return fmt.Errorf("database max connections must be at least 1")
		}
	}

	if c.Shutdown.GracePeriodSeconds < 0 {
		return fmt.Errorf("shutdown grace period cannot be negative")
	}

	if c.Shutdown.TimeoutSeconds < 1 {
		return fmt.Errorf("shutdown timeout must be at least 1 second")
	}

	return nil
}

// Address returns the host:port bind address
func (c *ConsoleConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate validates the console configuration
func (c *ConsoleConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("console host cannot be empty")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid console port: %d", c.Port)
	}

	if c.RelayAddress == "" {
		return fmt.Errorf("relay address cannot be empty")
	}

	if !isValidLogLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	valid := []string{"debug", "info", "warn", "error"}
	level = strings.ToLower(level)
	for _, v := range valid {
		if level == v {
			return true
		}
	}
	return false
}

// String returns a string representation of the configuration (for logging)
func (c *ServerConfig) String() string {
	return fmt.Sprintf("Config{Address: %s, Origins: %v, DB: %v, LogLevel: %s}",
		c.Address(), c.AllowedOrigins, c.Database.Enabled, c.Logging.Level)
}
