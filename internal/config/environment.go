package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cerrors "github.com/mir00r/airtraffic/internal/errors"
)

// ApplyEnvironment overrides config values with AIRTRAFFIC_* environment
// variables. Unparseable values are ignored.
func ApplyEnvironment(config *Config) {
	// Socket
	if path := getEnv("AIRTRAFFIC_SOCKET", ""); path != "" {
		config.Socket.Path = path
	}
	if network := getEnv("AIRTRAFFIC_NETWORK", ""); network != "" {
		config.Socket.Network = network
	}
	config.Socket.DialTimeout = getEnvDuration("AIRTRAFFIC_DIAL_TIMEOUT", config.Socket.DialTimeout)
	config.Socket.CommandTimeout = getEnvDuration("AIRTRAFFIC_TIMEOUT", config.Socket.CommandTimeout)
	if policy := getEnv("AIRTRAFFIC_POLICY", ""); policy != "" {
		config.Socket.Policy = policy
	}
	config.Socket.AppendNewline = getEnvBool("AIRTRAFFIC_NEWLINE", config.Socket.AppendNewline)

	// Logging
	if level := getEnv("AIRTRAFFIC_LOG_LEVEL", ""); level != "" {
		config.Logging.Level = level
	}
	if format := getEnv("AIRTRAFFIC_LOG_FORMAT", ""); format != "" {
		config.Logging.Format = format
	}
	if output := getEnv("AIRTRAFFIC_LOG_OUTPUT", ""); output != "" {
		config.Logging.Output = output
	}
	if file := getEnv("AIRTRAFFIC_LOG_FILE", ""); file != "" {
		config.Logging.File = file
	}

	// Gateway
	config.Gateway.Port = getEnvInt("AIRTRAFFIC_GATEWAY_PORT", config.Gateway.Port)
	config.Gateway.GRPCHealthPort = getEnvInt("AIRTRAFFIC_GRPC_HEALTH_PORT", config.Gateway.GRPCHealthPort)
	config.Gateway.HTTP2 = getEnvBool("AIRTRAFFIC_GATEWAY_HTTP2", config.Gateway.HTTP2)
	config.Gateway.RateLimit.Enabled = getEnvBool("AIRTRAFFIC_RATE_LIMIT_ENABLED", config.Gateway.RateLimit.Enabled)
	if rps := getEnv("AIRTRAFFIC_RATE_LIMIT_RPS", ""); rps != "" {
		if r, err := strconv.ParseFloat(rps, 64); err == nil && r > 0 {
			config.Gateway.RateLimit.RequestsPerSecond = r
		}
	}
	config.Gateway.RateLimit.BurstSize = getEnvInt("AIRTRAFFIC_RATE_LIMIT_BURST", config.Gateway.RateLimit.BurstSize)
	config.Gateway.RateLimit.TrustForwardedHeaders = getEnvBool("AIRTRAFFIC_RATE_LIMIT_TRUST_FORWARDED", config.Gateway.RateLimit.TrustForwardedHeaders)
	if secret := getEnv("AIRTRAFFIC_JWT_SECRET", ""); secret != "" {
		config.Gateway.Auth.Enabled = true
		config.Gateway.Auth.SecretKey = secret
	}
	if issuer := getEnv("AIRTRAFFIC_JWT_ISSUER", ""); issuer != "" {
		config.Gateway.Auth.Issuer = issuer
	}
}

// LoadConfig loads configuration with priority: env vars > config file > defaults.
// An empty filename falls back to $CONFIG_FILE; a missing default file is not an error.
func LoadConfig(filename string) (*Config, error) {
	explicit := filename != ""
	if !explicit {
		filename = getEnv("CONFIG_FILE", "")
		explicit = filename != ""
	}

	config := DefaultConfig()
	if explicit {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, cerrors.WrapError(err, cerrors.ErrCodeConfigLoad, "config",
				fmt.Sprintf("failed to read config file %s", filename))
		}
		if err := unmarshalInto(config, data); err != nil {
			return nil, cerrors.WrapError(err, cerrors.ErrCodeConfigLoad, "config",
				fmt.Sprintf("failed to parse config file %s", filename))
		}
	}

	ApplyEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, cerrors.WrapError(err, cerrors.ErrCodeConfigLoad, "config", "invalid configuration")
	}

	return config, nil
}

// getEnv gets environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as integer with fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration gets environment variable as duration with fallback
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
