// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package heartbeat

import (
	"strconv"
	"strings"
)

// parseVersion splits a dotted version string into its numeric
// components, silently dropping any component that isn't a plain
// integer (pre-release suffixes, build metadata, etc).
func parseVersion(v string) []int {
	parts := strings.Split(v, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// NeedsUpgrade reports whether latest is a strictly newer version than
// current, comparing components left to right and falling back to
// "latest has more components" when every shared component is equal
// (e.g. 1.2 -> 1.2.1).
func NeedsUpgrade(current, latest string) bool {
	curr := parseVersion(current)
	lat := parseVersion(latest)

	n := len(curr)
	if len(lat) < n {
		n = len(lat)
	}
	for i := 0; i < n; i++ {
		if curr[i] < lat[i] {
			return true
		}
		if curr[i] > lat[i] {
			return false
		}
	}
	return len(lat) > len(curr)
}
