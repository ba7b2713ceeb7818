package config

import (
	"testing"
	"time"

	"topolink-agent/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"IP_BINARY", "DOCKER_BINARY", "COMMAND_TIMEOUT", "TOPOLOGY_FILE",
	"SHUTDOWN_TIMEOUT", "HTTP_PORT", "LOG_LEVEL", "VERIFY_INTERVAL", "VERIFY_MAX_INTERVAL",
}

func TestEnvironmentConfigLoader_Load(t *testing.T) {
	tests := []struct {
		name      string
		envVars   map[string]string
		wantError bool
		validate  func(*testing.T, *Config)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "ip", cfg.Agent.IPBinary)
				assert.Equal(t, "docker", cfg.Agent.DockerBinary)
				assert.Equal(t, 10*time.Second, cfg.Agent.CommandTimeout)
				assert.Equal(t, 5*time.Second, cfg.Agent.ShutdownTimeout)
				assert.Empty(t, cfg.Agent.TopologyFile)
				assert.Equal(t, "8080", cfg.Server.Port)
				assert.Equal(t, "info", cfg.Log.Level)
				assert.Zero(t, cfg.Agent.VerifyInterval)
				assert.Equal(t, 10*time.Minute, cfg.Agent.VerifyMaxInterval)
			},
		},
		{
			name: "overrides from environment",
			envVars: map[string]string{
				"IP_BINARY":        "/usr/sbin/ip",
				"DOCKER_BINARY":    "podman",
				"COMMAND_TIMEOUT":  "30s",
				"TOPOLOGY_FILE":    "/etc/topolink/topology.yaml",
				"SHUTDOWN_TIMEOUT": "2",
				"HTTP_PORT":        "9090",
				"LOG_LEVEL":        "debug",
				"VERIFY_INTERVAL":  "1m",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/usr/sbin/ip", cfg.Agent.IPBinary)
				assert.Equal(t, "podman", cfg.Agent.DockerBinary)
				assert.Equal(t, 30*time.Second, cfg.Agent.CommandTimeout)
				assert.Equal(t, 2*time.Second, cfg.Agent.ShutdownTimeout)
				assert.Equal(t, "/etc/topolink/topology.yaml", cfg.Agent.TopologyFile)
				assert.Equal(t, "9090", cfg.Server.Port)
				assert.Equal(t, "debug", cfg.Log.Level)
				assert.Equal(t, time.Minute, cfg.Agent.VerifyInterval)
			},
		},
		{
			name:    "unparseable timeout falls back to default",
			envVars: map[string]string{"COMMAND_TIMEOUT": "soon"},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 10*time.Second, cfg.Agent.CommandTimeout)
			},
		},
		{
			name:      "negative timeout",
			envVars:   map[string]string{"COMMAND_TIMEOUT": "-1s"},
			wantError: true,
		},
		{
			name:      "negative verify interval",
			envVars:   map[string]string{"VERIFY_INTERVAL": "-5s"},
			wantError: true,
		},
		{
			name:      "non numeric port",
			envVars:   map[string]string{"HTTP_PORT": "http"},
			wantError: true,
		},
		{
			name:      "port out of range",
			envVars:   map[string]string{"HTTP_PORT": "70000"},
			wantError: true,
		},
		{
			name:      "unknown log level",
			envVars:   map[string]string{"LOG_LEVEL": "loud"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range configEnvKeys {
				t.Setenv(key, "")
			}
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := NewEnvironmentConfigLoader().Load()

			if tt.wantError {
				require.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}
