// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

// Package bytecode embeds the compiled probe set produced from
// pkg/ebpf/c/probes.c. The object itself is a build artifact; regenerate
// it with the bpf Makefile target before building the agent for Linux.
package bytecode

import _ "embed"

//go:embed probes.o
var Probes []byte
