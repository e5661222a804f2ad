// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

// Package environment probes host state the rest of the agent needs at
// startup: which interface to attach to, what container runtime (if any)
// owns a process, and what eBPF capabilities the running kernel offers.
// Every probe here is a pure read; nothing is cached beyond the call.
package environment

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

// DiscoverInterface resolves the network interface the loader should
// attach to. override, when non-empty, must name an existing link or
// discovery fails outright - an explicit misconfiguration should never
// silently fall through to autodetection. Otherwise: prefer the
// interface carrying the default IPv4 route, then fall back to the
// first interface that is up and not loopback.
func DiscoverInterface(override string) (string, error) {
	if override != "" {
		if _, err := netlink.LinkByName(override); err != nil {
			return "", fmt.Errorf("environment: configured interface %q does not exist: %w", override, err)
		}
		return override, nil
	}

	if name, ok := defaultRouteInterface(); ok {
		return name, nil
	}

	links, err := netlink.LinkList()
	if err != nil {
		return "", fmt.Errorf("environment: list interfaces: %w", err)
	}
	for _, link := range links {
		attrs := link.Attrs()
		if attrs.Flags&net.FlagLoopback != 0 {
			continue
		}
		if attrs.OperState == netlink.OperUp {
			return attrs.Name, nil
		}
	}

	return "", fmt.Errorf("environment: no suitable network interface found")
}

// defaultRouteInterface resolves the link index of the default (0.0.0.0/0)
// IPv4 route and returns its interface name.
func defaultRouteInterface() (string, bool) {
	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return "", false
	}
	for _, r := range routes {
		if r.Dst != nil {
			continue // a nil Dst is the default route in vishvananda/netlink
		}
		link, err := netlink.LinkByIndex(r.LinkIndex)
		if err != nil {
			continue
		}
		return link.Attrs().Name, true
	}
	return "", false
}
