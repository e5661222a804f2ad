// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sennet-io/sennet-agent/pkg/ebpf"
	"github.com/sennet-io/sennet-agent/pkg/flow"
)

const ansiClearScreen = "\033[H\033[2J"

func newTopCommand(flags *globalFlags) *cobra.Command {
	var pinRoot string
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Live traffic monitoring dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTop(pinRoot, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&pinRoot, "pin-root", defaultPinRoot, "filesystem root the running agent pinned its maps under")
	return cmd
}

const defaultPinRoot = "/sys/fs/bpf/sennet"

func runTop(pinRoot string, out *os.File) error {
	mgr, err := ebpf.OpenPinned(pinRoot)
	if err != nil {
		return fmt.Errorf("%w (is the agent running?)", err)
	}

	tracker := flow.NewTracker(mgr)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var previous struct {
		rxPackets, txPackets uint64
	}

	for range ticker.C {
		counters, err := mgr.ReadCounters()
		if err != nil {
			fmt.Fprintf(out, "failed to read counters: %v\n", err)
			continue
		}

		flows, _ := tracker.List(flow.Filter{SortBy: flow.SortByBytes, Limit: 10})

		fmt.Fprint(out, ansiClearScreen)
		fmt.Fprintln(out, "Sennet Live Traffic")
		fmt.Fprintln(out, "===================")
		fmt.Fprintf(out, "RX: %d pkts/s, %s total  TX: %d pkts/s, %s total  Drops: %d\n",
			counters.RxPackets-previous.rxPackets,
			flow.FormatBytes(counters.RxBytes),
			counters.TxPackets-previous.txPackets,
			flow.FormatBytes(counters.TxBytes),
			counters.DropCount,
		)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Top flows:")
		for _, f := range flows {
			localIP, remoteIP, localPort, remotePort := flow.LocalRemote(f.Key, f.Info.Direction)
			fmt.Fprintf(out, "  %s %s:%d -> %s:%d  %s\n",
				flow.DirectionString(f.Info.Direction),
				flow.FormatIP(localIP), localPort,
				flow.FormatIP(remoteIP), remotePort,
				flow.FormatBytes(flow.TotalBytes(f.Info)),
			)
		}

		previous.rxPackets = counters.RxPackets
		previous.txPackets = counters.TxPackets
	}

	return nil
}
