// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sennet-io/sennet-agent/pkg/config"
	"github.com/sennet-io/sennet-agent/pkg/debugserver"
	"github.com/sennet-io/sennet-agent/pkg/ebpf"
	"github.com/sennet-io/sennet-agent/pkg/environment"
	"github.com/sennet-io/sennet-agent/pkg/heartbeat"
	"github.com/sennet-io/sennet-agent/pkg/identity"
	"github.com/sennet-io/sennet-agent/pkg/kernelabi"
	"github.com/sennet-io/sennet-agent/pkg/upgrade"
)

// runDaemon runs the agent as a foreground daemon: load config, load
// or create identity, discover the network interface, attach eBPF
// probes, start the heartbeat loop, and block until a shutdown signal
// arrives.
func runDaemon(cmd *cobra.Command, flags *globalFlags) error {
	log := logrus.WithField("component", "daemon")
	log.Info("sennet agent starting")

	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	log.WithField("config_path", cfg.ConfigPath).Info("configuration loaded")

	idmgr, err := identity.LoadOrCreate(cfg.StateDir, CurrentVersion)
	if err != nil {
		return fmt.Errorf("initialize identity: %w", err)
	}
	log.WithField("agent_id", idmgr.AgentID()).Info("agent identity ready")

	iface, err := environment.DiscoverInterface(cfg.Interface)
	if err != nil {
		log.WithError(err).Warn("interface discovery failed, eBPF telemetry disabled")
		iface = ""
	} else {
		log.WithField("interface", iface).Info("network interface selected")
	}

	var mgr *ebpf.Manager
	if iface != "" {
		mgr, err = ebpf.LoadAndAttach(iface, "/sys/fs/bpf/sennet")
		if err != nil {
			log.WithError(err).Warn("failed to load eBPF programs, continuing without packet telemetry")
			mgr = nil
		} else {
			log.WithFields(logrus.Fields{
				"drop_tracing":      mgr.Caps.DropTracing,
				"netfilter_tracing": mgr.Caps.NetfilterTracing,
				"flow_tracing":      mgr.Caps.FlowTracing,
			}).Info("eBPF programs attached")
			defer mgr.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if flags.debugAddr != "" && mgr != nil {
		srv := debugserver.New(flags.debugAddr, debugserver.CounterFunc(func() kernelabi.PacketCounters {
			counters, err := mgr.ReadCounters()
			if err != nil {
				return kernelabi.PacketCounters{}
			}
			return counters
		}))
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				log.WithError(err).Warn("debug metrics server stopped")
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	client := heartbeat.NewClient(cfg.ServerURL, cfg.APIKey)
	activeConfig := atomic.Pointer[config.Config]{}
	activeConfig.Store(cfg)
	handler := newCommandHandler(&activeConfig, idmgr, flags.configPath, upgrade.Unconfigured{})

	if cfg.ConfigPath != "" && cfg.ConfigPath != "env" {
		watcher, err := config.NewWatcher(cfg.ConfigPath, func(next *config.Config) {
			activeConfig.Store(next)
		})
		if err != nil {
			log.WithError(err).Warn("failed to start config file watcher, RECONFIGURE still available via control plane")
		} else {
			go watcher.Run()
			defer watcher.Close()
			log.WithField("config_path", cfg.ConfigPath).Info("watching configuration file for changes")
		}
	}

	var metrics heartbeat.MetricsSource
	if mgr != nil {
		metrics = mgr
	}
	loop := heartbeat.NewLoop(client, idmgr, metrics, time.Duration(cfg.HeartbeatIntervalSecs)*time.Second, handler)

	log.Info("agent running, press Ctrl+C to stop")
	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("heartbeat loop: %w", err)
	}

	log.Info("shutdown signal received, agent stopped")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// versionUpdater is the subset of identity.Manager the upgrade command
// path needs.
type versionUpdater interface {
	Version() string
	UpdateVersion(version string) error
}

// newCommandHandler builds the heartbeat command dispatcher described in
// spec §4.7: RECONFIGURE reloads configuration from disk without
// mutating the running config in place on failure; UPGRADE invokes the
// upgrade collaborator and re-execs into the new binary on success.
func newCommandHandler(active *atomic.Pointer[config.Config], idmgr versionUpdater, configPath string, upgrader upgrade.Upgrader) heartbeat.CommandHandler {
	log := logrus.WithField("component", "heartbeat-command")

	return func(ctx context.Context, cmd heartbeat.Command, latestVersion string) {
		switch cmd {
		case heartbeat.CommandNoop, "":
			log.Debug("no action required")

		case heartbeat.CommandUpgrade:
			log.WithFields(logrus.Fields{
				"current_version": idmgr.Version(),
				"latest_version":  latestVersion,
			}).Info("upgrade requested")
			if !heartbeat.NeedsUpgrade(idmgr.Version(), latestVersion) {
				log.Info("already running latest version, skipping upgrade")
				return
			}
			if err := upgrader.Upgrade(ctx, latestVersion); err != nil {
				log.WithError(err).Error("upgrade failed")
				return
			}
			if err := idmgr.UpdateVersion(latestVersion); err != nil {
				log.WithError(err).Error("failed to persist upgraded version, re-exec aborted")
				return
			}
			exe, err := os.Executable()
			if err != nil {
				log.WithError(err).Error("could not resolve own executable path, re-exec aborted")
				return
			}
			log.Info("re-executing into upgraded binary")
			if err := upgrade.ReExec(exe, os.Args); err != nil {
				log.WithError(err).Error("re-exec failed")
			}

		case heartbeat.CommandReconfigure:
			log.Info("reconfiguration requested")
			next, err := loadConfig(configPath)
			if err != nil {
				log.WithError(err).Error("reconfigure: new configuration invalid, keeping current configuration")
				return
			}
			active.Store(next)
			log.Info("reconfigure: configuration reloaded")

		default:
			log.WithField("command", cmd).Warn("received unrecognized command, treating as no-op")
		}
	}
}
