// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sennet-io/sennet-agent/pkg/ebpf"
	"github.com/sennet-io/sennet-agent/pkg/flow"
	"github.com/sennet-io/sennet-agent/pkg/kernelabi"
)

// newFlowsCommand builds the point-in-time flow table listing: a single
// snapshot of the FLOWS map, filtered and sorted per the flags below,
// unlike top's continuously refreshing dashboard.
func newFlowsCommand(flags *globalFlags) *cobra.Command {
	var (
		pinRoot string
		sortBy  string
		limit   int
		pid     uint32
		comm    string
	)
	cmd := &cobra.Command{
		Use:   "flows",
		Short: "List active flows",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := flow.Filter{
				CommSubstr: comm,
				Limit:      limit,
			}
			if pid != 0 {
				filter.HasPid = true
				filter.Pid = pid
			}
			switch sortBy {
			case "packets":
				filter.SortBy = flow.SortByPackets
			case "pid":
				filter.SortBy = flow.SortByPid
			default:
				filter.SortBy = flow.SortByBytes
			}
			return runFlows(pinRoot, filter, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&pinRoot, "pin-root", defaultPinRoot, "filesystem root the running agent pinned its maps under")
	cmd.Flags().StringVar(&sortBy, "sort", "bytes", "sort field: bytes, packets, or pid")
	cmd.Flags().IntVar(&limit, "limit", flow.DefaultLimit, "maximum number of flows to print")
	cmd.Flags().Uint32Var(&pid, "pid", 0, "only show flows owned by this pid (0 means any)")
	cmd.Flags().StringVar(&comm, "comm", "", "only show flows whose process name contains this substring")
	return cmd
}

func runFlows(pinRoot string, filter flow.Filter, out *os.File) error {
	mgr, err := ebpf.OpenPinned(pinRoot)
	if err != nil {
		return fmt.Errorf("%w (is the agent running?)", err)
	}

	tracker := flow.NewTracker(mgr)
	flows, err := tracker.List(filter)
	if err != nil {
		return fmt.Errorf("list flows: %w", err)
	}

	fmt.Fprintf(out, "%-4s %-7s %-16s %-21s %-21s %-6s %s\n", "DIR", "PID", "COMM", "LOCAL", "REMOTE", "STATE", "BYTES")
	for _, f := range flows {
		localIP, remoteIP, localPort, remotePort := flow.LocalRemote(f.Key, f.Info.Direction)
		fmt.Fprintf(out, "%-4s %-7d %-16s %-21s %-21s %-6s %s\n",
			flow.DirectionString(f.Info.Direction),
			f.Info.Pid,
			kernelabi.CommString(f.Info.Comm),
			fmt.Sprintf("%s:%d", flow.FormatIP(localIP), localPort),
			fmt.Sprintf("%s:%d", flow.FormatIP(remoteIP), remotePort),
			flowStateString(f.Info.State),
			flow.FormatBytes(flow.TotalBytes(f.Info)),
		)
	}
	if len(flows) == 0 {
		fmt.Fprintln(out, "(no flows match)")
	}

	return nil
}

func flowStateString(state uint8) string {
	switch state {
	case kernelabi.FlowStateEstablished:
		return "EST"
	case kernelabi.FlowStateClosed:
		return "CLOSED"
	default:
		return "?"
	}
}
