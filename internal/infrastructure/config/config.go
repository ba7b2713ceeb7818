package config

import (
	"os"
	"strconv"
	"time"

	"topolink-agent/internal/domain/constants"
	"topolink-agent/internal/domain/errors"

	"github.com/sirupsen/logrus"
)

// Config is a struct that holds application configuration
type Config struct {
	Agent  AgentConfig
	Server ServerConfig
	Log    LogConfig
}

// AgentConfig holds how commands are run against nodes
type AgentConfig struct {
	IPBinary        string
	DockerBinary    string
	CommandTimeout  time.Duration
	TopologyFile    string
	ShutdownTimeout time.Duration

	// VerifyInterval enables periodic drift verification; zero disables it
	VerifyInterval    time.Duration
	VerifyMaxInterval time.Duration
}

// ServerConfig holds the HTTP API configuration
type ServerConfig struct {
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// ConfigLoader is an interface for loading configuration
type ConfigLoader interface {
	Load() (*Config, error)
}

// EnvironmentConfigLoader is an implementation that loads configuration from environment variables
type EnvironmentConfigLoader struct{}

// NewEnvironmentConfigLoader creates a new EnvironmentConfigLoader
func NewEnvironmentConfigLoader() ConfigLoader {
	return &EnvironmentConfigLoader{}
}

// Load loads configuration from environment variables
func (l *EnvironmentConfigLoader) Load() (*Config, error) {
	config := &Config{
		Agent: AgentConfig{
			IPBinary:          getEnvOrDefault("IP_BINARY", constants.DefaultIPBinary),
			DockerBinary:      getEnvOrDefault("DOCKER_BINARY", constants.DefaultDockerBinary),
			CommandTimeout:    getEnvDurationOrDefault("COMMAND_TIMEOUT", constants.DefaultCommandTimeout*time.Second),
			TopologyFile:      os.Getenv("TOPOLOGY_FILE"),
			ShutdownTimeout:   getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", constants.DefaultShutdownTimeout*time.Second),
			VerifyInterval:    getEnvDurationOrDefault("VERIFY_INTERVAL", 0),
			VerifyMaxInterval: getEnvDurationOrDefault("VERIFY_MAX_INTERVAL", constants.DefaultVerifyMaxInterval*time.Second),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("HTTP_PORT", constants.DefaultHTTPPort),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", constants.DefaultLogLevel),
		},
	}

	if err := l.validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// validate validates the configuration
func (l *EnvironmentConfigLoader) validate(config *Config) error {
	if config.Agent.IPBinary == "" {
		return errors.NewValidationError("ip binary not configured", nil)
	}
	if config.Agent.CommandTimeout <= 0 {
		return errors.NewValidationError("invalid command timeout", nil)
	}
	if config.Agent.ShutdownTimeout <= 0 {
		return errors.NewValidationError("invalid shutdown timeout", nil)
	}
	if config.Agent.VerifyInterval < 0 {
		return errors.NewValidationError("invalid verify interval", nil)
	}

	if config.Server.Port == "" {
		return errors.NewValidationError("http port not configured", nil)
	}
	if port, err := strconv.Atoi(config.Server.Port); err != nil || port < 1 || port > 65535 {
		return errors.NewValidationError("invalid http port: "+config.Server.Port, err)
	}

	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return errors.NewValidationError("invalid log level: "+config.Log.Level, err)
	}

	return nil
}

// Environment variable helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("15s") or plain seconds ("15")
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
