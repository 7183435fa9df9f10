package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// HeartbeatEnv overrides connections.heartbeat_interval, in whole seconds.
const HeartbeatEnv = "FEL_HEART_BEAT_DURATION"

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*RelayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references in data and decodes it.
func Parse(data []byte) (*RelayConfig, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg RelayConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	return &cfg, nil
}

// LoadWithDefaults loads config and applies default values.
func LoadWithDefaults(path string) (*RelayConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*RelayConfig, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Default returns a config with every default applied, for running without a file.
func Default() *RelayConfig {
	cfg := &RelayConfig{}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg
}

// applyEnvOverrides honours FEL_HEART_BEAT_DURATION. Negative or unparsable
// values are ignored.
func (c *RelayConfig) applyEnvOverrides() {
	raw := os.Getenv(HeartbeatEnv)
	if raw == "" {
		return
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || secs <= 0 {
		return
	}
	c.Connections.HeartbeatInterval = time.Duration(secs) * time.Second
}
