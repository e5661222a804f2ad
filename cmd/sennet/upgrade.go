// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sennet-io/sennet-agent/pkg/heartbeat"
	"github.com/sennet-io/sennet-agent/pkg/identity"
	"github.com/sennet-io/sennet-agent/pkg/upgrade"
)

// newUpgradeCommand builds the operator-invoked self-replace subcommand.
// It performs the same Upgrade-then-ReExec sequence the heartbeat
// command dispatcher runs when the control plane pushes COMMAND_UPGRADE,
// letting an operator force the check without waiting for a tick.
func newUpgradeCommand() *cobra.Command {
	var (
		force      bool
		targetVer  string
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Check for and install a newer agent version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpgrade(configPath, targetVer, force, os.Stdout)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-exec even if the target version is not newer")
	cmd.Flags().StringVar(&targetVer, "version", "", "version to upgrade to (empty asks the control plane for the latest)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to config.yaml (default: search standard locations)")
	return cmd
}

func runUpgrade(configPath, targetVersion string, force bool, out *os.File) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	idmgr, err := identity.LoadOrCreate(cfg.StateDir, CurrentVersion)
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}

	latest := targetVersion
	if latest == "" {
		client := heartbeat.NewClient(cfg.ServerURL, cfg.APIKey)
		resp, err := client.Heartbeat(context.Background(), heartbeat.Request{
			AgentID:        idmgr.AgentID(),
			CurrentVersion: idmgr.Version(),
		})
		if err != nil {
			return fmt.Errorf("query control plane for latest version: %w", err)
		}
		latest = resp.LatestVersion
	}

	if latest == "" {
		fmt.Fprintln(out, "no version available to upgrade to")
		return nil
	}

	if !force && !heartbeat.NeedsUpgrade(idmgr.Version(), latest) {
		fmt.Fprintf(out, "already running %s, nothing to do\n", idmgr.Version())
		return nil
	}

	fmt.Fprintf(out, "upgrading from %s to %s\n", idmgr.Version(), latest)

	uc := upgrade.Unconfigured{}
	if err := uc.Upgrade(context.Background(), latest); err != nil {
		return fmt.Errorf("upgrade: %w", err)
	}
	if err := idmgr.UpdateVersion(latest); err != nil {
		return fmt.Errorf("persist upgraded version: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve own executable path: %w", err)
	}
	return upgrade.ReExec(exe, os.Args)
}
