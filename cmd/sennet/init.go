// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sennet-io/sennet-agent/pkg/config"
)

func defaultInitConfigPath() string {
	if runtime.GOOS != "windows" {
		return "/etc/sennet/config.yaml"
	}
	return "config.yaml"
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactively configure the agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(os.Stdin, os.Stdout)
		},
	}
}

func runInit(in *os.File, out *os.File) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "Sennet Setup Wizard")
	fmt.Fprintln(out)

	serverURL := promptWithDefault(reader, out, "Enter your Sennet server URL", "https://sennet.example.com")
	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		fmt.Fprintln(out, "Warning: URL should start with http:// or https://")
	}

	apiKey := promptRequired(reader, out, "Enter your API key (starts with sk_)")
	if !strings.HasPrefix(apiKey, "sk_") {
		fmt.Fprintln(out, "Warning: API key should start with 'sk_'")
	}

	iface := promptOptional(reader, out, "Network interface to monitor (leave blank for auto-detect)")

	cfg := config.Config{
		APIKey:    apiKey,
		ServerURL: serverURL,
		Interface: iface,
	}

	path := defaultInitConfigPath()
	if err := writeConfigFile(path, cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to: %s\n", path)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Start the agent:  sudo systemctl start sennet")
	fmt.Fprintln(out, "  2. Check status:     sennet status")
	fmt.Fprintln(out, "  3. Monitor traffic:  sennet top")
	return nil
}

func writeConfigFile(path string, cfg config.Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("serialize config: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}

func promptWithDefault(reader *bufio.Reader, out *os.File, prompt, def string) string {
	fmt.Fprintf(out, "%s [%s]: ", prompt, def)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func promptRequired(reader *bufio.Reader, out *os.File, prompt string) string {
	for {
		fmt.Fprintf(out, "%s: ", prompt)
		line, _ := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
		fmt.Fprintln(out, "This field is required.")
	}
}

func promptOptional(reader *bufio.Reader, out *os.File, prompt string) string {
	fmt.Fprintf(out, "%s: ", prompt)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
