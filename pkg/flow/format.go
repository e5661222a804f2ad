// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package flow

import (
	"fmt"
	"net"

	"github.com/sennet-io/sennet-agent/pkg/kernelabi"
)

// FormatIP renders a network-order-decoded IPv4 address (as stored in
// FlowKey) in dotted-quad form.
func FormatIP(addr uint32) string {
	ip := make(net.IP, 4)
	ip[0] = byte(addr)
	ip[1] = byte(addr >> 8)
	ip[2] = byte(addr >> 16)
	ip[3] = byte(addr >> 24)
	return ip.String()
}

// FormatBytes renders a byte count in human-readable units, matching the
// thresholds used by the operator-facing flow listing (GB/MB/KB/B, base
// 1000 not 1024 since these are throughput figures, not memory sizes).
func FormatBytes(n uint64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fGB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fMB", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fKB", float64(n)/1_000)
	default:
		return fmt.Sprintf("%dB", n)
	}
}

// DirectionString renders a FlowInfo/FlowEvent direction byte as the
// short label the CLI tables use.
func DirectionString(direction uint8) string {
	switch direction {
	case kernelabi.FlowDirectionOutbound:
		return "OUT"
	case kernelabi.FlowDirectionInbound:
		return "IN"
	default:
		return "?"
	}
}
