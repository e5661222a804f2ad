// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

// Command sennet is the Sennet network observability agent: a daemon
// that loads eBPF probes, aggregates kernel telemetry, and heartbeats
// to a control plane, plus a set of operator subcommands for
// inspecting a running agent.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
