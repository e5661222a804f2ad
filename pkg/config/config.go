// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

// Package config loads the agent's configuration from a YAML file, with
// environment variables taking priority over whatever the file says.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	envAPIKey            = "SENNET_API_KEY"
	envServerURL         = "SENNET_SERVER_URL"
	envLogLevel          = "SENNET_LOG_LEVEL"
	envInterface         = "SENNET_INTERFACE"
	envHeartbeatInterval = "SENNET_HEARTBEAT_INTERVAL"

	defaultLogLevel          = "info"
	defaultHeartbeatInterval = 30
)

// Config is the agent's full runtime configuration.
type Config struct {
	APIKey                string `yaml:"api_key"`
	ServerURL             string `yaml:"server_url"`
	LogLevel              string `yaml:"log_level"`
	Interface             string `yaml:"interface"`
	HeartbeatIntervalSecs uint64 `yaml:"heartbeat_interval_secs"`
	StateDir              string `yaml:"state_dir"`

	// ConfigPath records where the config was loaded from. Not
	// serialized; "env" when sourced entirely from environment variables.
	ConfigPath string `yaml:"-"`
}

func defaultStateDir() string {
	if runtime.GOOS == "windows" {
		if dir, err := os.UserCacheDir(); err == nil {
			return filepath.Join(dir, "sennet")
		}
		return "sennet"
	}
	return "/var/lib/sennet"
}

func withDefaults(c Config) Config {
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.HeartbeatIntervalSecs == 0 {
		c.HeartbeatIntervalSecs = defaultHeartbeatInterval
	}
	if c.StateDir == "" {
		c.StateDir = defaultStateDir()
	}
	return c
}

// Load resolves configuration from the environment first, falling back
// to the first existing file in configPaths(). Environment variables
// SENNET_API_KEY and SENNET_SERVER_URL being both set takes priority
// over any config file on disk.
func Load() (*Config, error) {
	if apiKey, ok := os.LookupEnv(envAPIKey); ok {
		if serverURL, ok := os.LookupEnv(envServerURL); ok {
			cfg := withDefaults(Config{
				APIKey:    apiKey,
				ServerURL: serverURL,
				LogLevel:  os.Getenv(envLogLevel),
				Interface: os.Getenv(envInterface),
			})
			if raw, ok := os.LookupEnv(envHeartbeatInterval); ok {
				if secs, err := strconv.ParseUint(raw, 10, 64); err == nil {
					cfg.HeartbeatIntervalSecs = secs
				}
			}
			cfg.ConfigPath = "env"
			if err := validate(cfg); err != nil {
				return nil, err
			}
			return &cfg, nil
		}
	}

	paths := configPaths()
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return LoadFromFile(path)
		}
	}

	return nil, fmt.Errorf("config: no configuration found, tried %v (or set %s and %s)", paths, envAPIKey, envServerURL)
}

// LoadFromFile parses a YAML config file at path, then applies any
// environment variable overrides on top of it before validating.
func LoadFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse file %s: %w", path, err)
	}
	cfg = withDefaults(cfg)
	cfg.ConfigPath = path

	if v, ok := os.LookupEnv(envAPIKey); ok {
		cfg.APIKey = v
	}
	if v, ok := os.LookupEnv(envServerURL); ok {
		cfg.ServerURL = v
	}
	if v, ok := os.LookupEnv(envLogLevel); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv(envInterface); ok {
		cfg.Interface = v
	}
	if raw, ok := os.LookupEnv(envHeartbeatInterval); ok {
		if secs, err := strconv.ParseUint(raw, 10, 64); err == nil {
			cfg.HeartbeatIntervalSecs = secs
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(c Config) error {
	if c.APIKey == "" {
		return fmt.Errorf("config: api_key cannot be empty")
	}
	if !strings.HasPrefix(c.APIKey, "sk_") {
		return fmt.Errorf("config: api_key must start with 'sk_'")
	}
	if c.ServerURL == "" {
		return fmt.Errorf("config: server_url cannot be empty")
	}
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("config: server_url must start with http:// or https://")
	}
	return nil
}

// configPaths lists candidate config file locations in search order:
// current directory, then the user config directory, then the system
// config directory.
func configPaths() []string {
	paths := []string{"config.yaml", "sennet.yaml"}

	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "sennet", "config.yaml"))
	}

	if runtime.GOOS == "windows" {
		if programData := os.Getenv("ProgramData"); programData != "" {
			paths = append(paths, filepath.Join(programData, "sennet", "config.yaml"))
		}
	} else {
		paths = append(paths, "/etc/sennet/config.yaml")
	}

	return paths
}
