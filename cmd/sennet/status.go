// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sennet-io/sennet-agent/pkg/environment"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Display agent status and environment info",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(os.Stdout)
		},
	}
}

func runStatus(out *os.File) error {
	fmt.Fprintln(out, "Sennet Agent Status")
	fmt.Fprintln(out, "===================")

	caps := environment.DetectKernelCapabilities()
	fmt.Fprintf(out, "Kernel:       %s\n", caps.KernelVersion)
	fmt.Fprintf(out, "BTF:          %t\n", caps.BTFAvailable)
	fmt.Fprintf(out, "CO-RE:        %t\n", caps.COREAvailable)
	fmt.Fprintf(out, "Supported:    %t\n", caps.KernelSupported)

	_, err := os.Stat("/sys/fs/bpf/sennet")
	attached := err == nil
	fmt.Fprintf(out, "eBPF probes:  %s\n", boolToStatus(attached))

	inCluster := false
	if _, statErr := os.Stat("/var/run/secrets/kubernetes.io/serviceaccount/token"); statErr == nil {
		inCluster = true
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Kubernetes:")
	fmt.Fprintf(out, "  In-cluster: %t\n", inCluster)
	fmt.Fprintf(out, "  CNI:        %s\n", environment.DetectCNIPlugin())

	return nil
}

func boolToStatus(b bool) string {
	if b {
		return "attached"
	}
	return "not attached"
}
