// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{envAPIKey, envServerURL, envLogLevel, envInterface, envHeartbeatInterval} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadFromFileValidConfig(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "api_key: sk_test123456789\nserver_url: https://sennet.example.com\nlog_level: debug\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sk_test123456789", cfg.APIKey)
	assert.Equal(t, "https://sennet.example.com", cfg.ServerURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Empty(t, cfg.Interface)
}

func TestLoadFromFileWithInterface(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "api_key: sk_test123456789\nserver_url: https://sennet.example.com\ninterface: eth0\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "eth0", cfg.Interface)
}

func TestLoadFromFileDefaultValues(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "api_key: sk_test123456789\nserver_url: https://sennet.example.com\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, defaultLogLevel, cfg.LogLevel)
	assert.EqualValues(t, defaultHeartbeatInterval, cfg.HeartbeatIntervalSecs)
	assert.NotEmpty(t, cfg.StateDir)
}

func TestLoadFromFileInvalidAPIKeyPrefix(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "api_key: invalid_key\nserver_url: https://sennet.example.com\n")

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sk_")
}

func TestLoadFromFileInvalidServerURL(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "api_key: sk_test123456789\nserver_url: not-a-url\n")

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFileEnvOverridesAPIKey(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "api_key: sk_file_key\nserver_url: https://file.example.com\n")
	t.Setenv(envAPIKey, "sk_env_key")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sk_env_key", cfg.APIKey)
}

func TestLoadUsesEnvWhenBothKeyAndURLSet(t *testing.T) {
	clearEnv(t)
	t.Setenv(envAPIKey, "sk_env_only")
	t.Setenv(envServerURL, "https://env.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env", cfg.ConfigPath)
	assert.Equal(t, "sk_env_only", cfg.APIKey)
	assert.Equal(t, "https://env.example.com", cfg.ServerURL)
}

func TestLoadFailsWithNoConfigFound(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(wd)
	require.NoError(t, os.Chdir(dir))
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	_, err = Load()
	assert.Error(t, err)
}
