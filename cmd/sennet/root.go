// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CurrentVersion is the version string this binary reports and sends
// in its heartbeats.
const CurrentVersion = "0.1.0"

// globalFlags carries flags shared across subcommands.
type globalFlags struct {
	configPath string
	logLevel   string
	debugAddr  string
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "sennet",
		Short:         "Sennet network observability agent",
		Long:          "Sennet is a host-resident network observability agent: eBPF-based packet and flow telemetry with a control-plane heartbeat.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogging(flags.logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, flags)
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config.yaml (default: search standard locations)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.debugAddr, "debug-addr", "", "loopback address to serve /debug/metrics on (disabled if empty)")

	root.AddCommand(
		newInitCommand(),
		newStatusCommand(),
		newTopCommand(flags),
		newTraceCommand(flags),
		newFlowsCommand(flags),
		newDiagnoseCommand(flags),
		newUpgradeCommand(),
		newVersionCommand(),
	)

	return root
}

func configureLogging(level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(parsed)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}
