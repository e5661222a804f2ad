// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package main

import (
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sennet-io/sennet-agent/pkg/ebpf"
	"github.com/sennet-io/sennet-agent/pkg/flow"
	"github.com/sennet-io/sennet-agent/pkg/kernelabi"
)

// ianaProtocol maps the --proto flag's names to IP protocol numbers, the
// same numbering captured in DropEvent.Protocol and PacketEvent.Protocol.
var ianaProtocol = map[string]uint16{
	"icmp": 1,
	"tcp":  6,
	"udp":  17,
}

// traceFilter narrows the event stream to records matching the given
// endpoints and protocol. Applied in userspace since neither ring
// carries a full 5-tuple (DropEvent has no IP fields at all; PacketEvent
// has no ports), per spec: filtering happens on whatever fields a given
// record actually carries.
type traceFilter struct {
	srcIP, dstIP     net.IP
	srcPort, dstPort uint16
	proto            uint16
	hasProto         bool
}

func parseTraceFilter(src, dst, proto string) (traceFilter, error) {
	var f traceFilter
	var err error
	if src != "" {
		f.srcIP, f.srcPort, err = parseIPPort(src)
		if err != nil {
			return f, fmt.Errorf("--src: %w", err)
		}
	}
	if dst != "" {
		f.dstIP, f.dstPort, err = parseIPPort(dst)
		if err != nil {
			return f, fmt.Errorf("--dst: %w", err)
		}
	}
	if proto != "" {
		p, ok := ianaProtocol[strings.ToLower(proto)]
		if !ok {
			return f, fmt.Errorf("--proto: unknown protocol %q (want tcp, udp, or icmp)", proto)
		}
		f.proto, f.hasProto = p, true
	}
	return f, nil
}

func parseIPPort(s string) (net.IP, uint16, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		host, portStr = s, ""
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return nil, 0, fmt.Errorf("invalid IPv4 address %q", host)
	}
	var port uint16
	if portStr != "" {
		p, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid port %q", portStr)
		}
		port = uint16(p)
	}
	return ip.To4(), port, nil
}

func ipv4ToU32(ip net.IP) uint32 {
	return binary.LittleEndian.Uint32(ip.To4())
}

func (f traceFilter) matchesDrop(ev kernelabi.DropEvent) bool {
	if f.hasProto && ev.Protocol != f.proto {
		return false
	}
	return true
}

func (f traceFilter) matchesPacket(ev kernelabi.PacketEvent) bool {
	if f.hasProto && uint16(ev.Protocol) != f.proto {
		return false
	}
	if f.srcIP != nil && ev.SrcIP != ipv4ToU32(f.srcIP) {
		return false
	}
	if f.dstIP != nil && ev.DstIP != ipv4ToU32(f.dstIP) {
		return false
	}
	return true
}

// newTraceCommand builds the one-shot event tracer: it polls the drop and
// large-packet anomaly rings until either count or timeout is reached,
// printing each record as it arrives.
func newTraceCommand(flags *globalFlags) *cobra.Command {
	var (
		pinRoot string
		count   int
		timeout time.Duration
		src     string
		dst     string
		proto   string
	)
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Trace packet drops and anomalies in real time",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseTraceFilter(src, dst, proto)
			if err != nil {
				return err
			}
			return runTrace(pinRoot, count, timeout, filter, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&pinRoot, "pin-root", defaultPinRoot, "filesystem root the running agent pinned its maps under")
	cmd.Flags().IntVar(&count, "count", 20, "stop after this many events")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "stop after this long")
	cmd.Flags().StringVar(&dst, "dst", "", "only show events matching this destination IP[:port]")
	cmd.Flags().StringVar(&src, "src", "", "only show events matching this source IP[:port]")
	cmd.Flags().StringVar(&proto, "proto", "", "only show events matching this protocol (tcp, udp, icmp)")
	return cmd
}

func runTrace(pinRoot string, count int, timeout time.Duration, filter traceFilter, out *os.File) error {
	mgr, err := ebpf.OpenPinned(pinRoot)
	if err != nil {
		return fmt.Errorf("%w (is the agent running?)", err)
	}

	dropDrain, dropOK := ebpf.NewDrain(mgr, "drop_events")
	if dropOK {
		defer dropDrain.Close()
	}
	anomalyDrain, anomalyOK := ebpf.NewDrain(mgr, "events")
	if anomalyOK {
		defer anomalyDrain.Close()
	}
	if !dropOK && !anomalyOK {
		return fmt.Errorf("neither drop nor anomaly event map is available under %s", pinRoot)
	}

	fmt.Fprintln(out, "Tracing drops and anomalies. Press Ctrl+C to stop.")
	fmt.Fprintln(out)

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	poll := time.NewTicker(200 * time.Millisecond)
	defer poll.Stop()

	seen := 0
	for {
		select {
		case <-deadline:
			return nil
		case <-poll.C:
			if dropOK {
				for _, ev := range dropDrain.PollDropEvents() {
					if !filter.matchesDrop(ev) {
						continue
					}
					printDropEvent(out, ev)
					seen++
				}
			}
			if anomalyOK {
				for _, ev := range anomalyDrain.PollPacketEvents() {
					if !filter.matchesPacket(ev) {
						continue
					}
					printPacketEvent(out, ev)
					seen++
				}
			}
			if count > 0 && seen >= count {
				return nil
			}
		}
	}
}

func printDropEvent(out *os.File, ev kernelabi.DropEvent) {
	fmt.Fprintf(out, "[DROP] ifindex=%d proto=%d reason=%s\n",
		ev.Ifindex, ev.Protocol, kernelabi.DropReasonString(ev.Reason))
}

func printPacketEvent(out *os.File, ev kernelabi.PacketEvent) {
	fmt.Fprintf(out, "[ANOMALY] %s -> %s  size=%s\n",
		flow.FormatIP(ev.SrcIP), flow.FormatIP(ev.DstIP), flow.FormatBytes(uint64(ev.Size)))
}
