package config

import (
	"fmt"
	"time"

	"github.com/mir00r/airtraffic/internal/control"
	"github.com/mir00r/airtraffic/pkg/logger"
	"gopkg.in/yaml.v2"
)

// Config represents the main configuration structure
type Config struct {
	Socket  SocketConfig  `yaml:"socket"`
	Logging LoggingConfig `yaml:"logging"`
	Gateway GatewayConfig `yaml:"gateway"`
}

// SocketConfig describes how to reach HAProxy's stats socket
type SocketConfig struct {
	Network        string        `yaml:"network"` // "unix" or "tcp"
	Path           string        `yaml:"path"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	Policy         string        `yaml:"policy"` // "per_command" or "persistent"
	AppendNewline  bool          `yaml:"append_newline"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	File   string `yaml:"file"`
}

// GatewayConfig contains HTTP gateway configuration
type GatewayConfig struct {
	Port                int             `yaml:"port"`
	ReadTimeout         time.Duration   `yaml:"read_timeout"`
	WriteTimeout        time.Duration   `yaml:"write_timeout"`
	IdleTimeout         time.Duration   `yaml:"idle_timeout"`
	HTTP2               bool            `yaml:"http2"`
	GRPCHealthPort      int             `yaml:"grpc_health_port"` // 0 disables
	HealthProbeInterval time.Duration   `yaml:"health_probe_interval"`
	Swagger             bool            `yaml:"swagger"`
	RateLimit           RateLimitConfig `yaml:"rate_limit"`
	Auth                AuthConfig      `yaml:"auth"`
}

// RateLimitConfig contains per-client rate limiting for the gateway
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
	// Key clients on X-Forwarded-For / X-Real-IP. Only safe behind a proxy
	// that overwrites those headers.
	TrustForwardedHeaders bool `yaml:"trust_forwarded_headers"`
}

// AuthConfig contains JWT authentication for the gateway
type AuthConfig struct {
	Enabled   bool          `yaml:"enabled"`
	SecretKey string        `yaml:"secret_key"`
	Issuer    string        `yaml:"issuer"`
	AdminRole string        `yaml:"admin_role"`
	ClockSkew time.Duration `yaml:"clock_skew"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Socket: SocketConfig{
			Network:        "unix",
			Path:           "/var/run/haproxy.sock",
			DialTimeout:    5 * time.Second,
			CommandTimeout: 30 * time.Second,
			Policy:         string(control.PolicyPerCommand),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Gateway: GatewayConfig{
			Port:                9180,
			ReadTimeout:         15 * time.Second,
			WriteTimeout:        45 * time.Second,
			IdleTimeout:         60 * time.Second,
			HTTP2:               true,
			HealthProbeInterval: 10 * time.Second,
			Swagger:             true,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 10,
				BurstSize:         20,
			},
			Auth: AuthConfig{
				Enabled:   false,
				AdminRole: "admin",
				ClockSkew: 30 * time.Second,
			},
		},
	}
}

// unmarshalInto decodes YAML over an already defaulted config
func unmarshalInto(config *Config, data []byte) error {
	return yaml.Unmarshal(data, config)
}

// Validate validates the configuration for correctness
func (c *Config) Validate() error {
	switch c.Socket.Network {
	case "unix", "tcp", "tcp4", "tcp6":
	default:
		return fmt.Errorf("unsupported socket network: %s", c.Socket.Network)
	}

	if c.Socket.Path == "" {
		return fmt.Errorf("socket.path cannot be empty")
	}

	if c.Socket.DialTimeout < 0 {
		return fmt.Errorf("socket.dial_timeout cannot be negative: %v", c.Socket.DialTimeout)
	}

	if c.Socket.CommandTimeout < 0 {
		return fmt.Errorf("socket.command_timeout cannot be negative: %v", c.Socket.CommandTimeout)
	}

	if _, err := control.ParseConnectionPolicy(c.Socket.Policy); err != nil {
		return fmt.Errorf("socket.policy: %w", err)
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	validOutputs := map[string]bool{"stdout": true, "stderr": true, "file": true}
	if !validOutputs[c.Logging.Output] {
		return fmt.Errorf("invalid log output: %s", c.Logging.Output)
	}

	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("invalid gateway port: %d", c.Gateway.Port)
	}

	if c.Gateway.GRPCHealthPort < 0 || c.Gateway.GRPCHealthPort > 65535 {
		return fmt.Errorf("invalid grpc health port: %d", c.Gateway.GRPCHealthPort)
	}

	if c.Gateway.GRPCHealthPort != 0 && c.Gateway.GRPCHealthPort == c.Gateway.Port {
		return fmt.Errorf("grpc health port must differ from gateway port")
	}

	if c.Gateway.RateLimit.Enabled {
		if c.Gateway.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limit.requests_per_second must be positive")
		}
		if c.Gateway.RateLimit.BurstSize <= 0 {
			return fmt.Errorf("rate_limit.burst_size must be positive")
		}
	}

	if c.Gateway.Auth.Enabled && c.Gateway.Auth.SecretKey == "" {
		return fmt.Errorf("auth.secret_key is required when auth is enabled")
	}

	return nil
}

// ToControlOptions converts the socket section to control client options
func (c *Config) ToControlOptions() control.Options {
	policy, _ := control.ParseConnectionPolicy(c.Socket.Policy)
	return control.Options{
		Network:        c.Socket.Network,
		Address:        c.Socket.Path,
		DialTimeout:    c.Socket.DialTimeout,
		CommandTimeout: c.Socket.CommandTimeout,
		Policy:         policy,
		AppendNewline:  c.Socket.AppendNewline,
	}
}

// ToLoggerConfig converts the logging section to logger configuration
func (c *Config) ToLoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
		File:   c.Logging.File,
	}
}
