// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

// Package flow maintains a queryable view of active IPv4 TCP connections
// joined with the process that owns them. The in-kernel LRU map is the
// source of truth; this package only snapshots, filters, and sorts it.
package flow

import (
	"sort"
	"strings"

	"github.com/cilium/ebpf"

	"github.com/sennet-io/sennet-agent/pkg/kernelabi"
)

// MapSource is the subset of the loader's Manager a Tracker depends on,
// kept narrow so this package never imports the loader directly.
type MapSource interface {
	Map(name string) (*ebpf.Map, bool)
}

// Flow pairs one kernel flow key with its attributed process info.
type Flow struct {
	Key  kernelabi.FlowKey
	Info kernelabi.FlowInfo
}

// Tracker reads the FLOWS LRU hash map on demand; it holds no state of
// its own between calls, so consumers always see the kernel's current
// view (mild staleness between List calls is expected, not a bug).
type Tracker struct {
	maps MapSource
}

// NewTracker builds a Tracker over the FLOWS map exposed by maps.
func NewTracker(maps MapSource) *Tracker {
	return &Tracker{maps: maps}
}

// Snapshot reads every entry currently in the FLOWS map. Entries are
// eviction-ordered by the kernel's LRU, not by any property useful to
// callers; List applies the caller's actual sort.
func (t *Tracker) Snapshot() ([]Flow, error) {
	em, ok := t.maps.Map("flows")
	if !ok {
		return nil, nil
	}

	var flows []Flow
	var keyBytes, valBytes []byte
	it := em.Iterate()
	for it.Next(&keyBytes, &valBytes) {
		key, ok := kernelabi.DecodeFlowKey(keyBytes)
		if !ok {
			continue
		}
		info, ok := kernelabi.DecodeFlowInfo(valBytes)
		if !ok {
			continue
		}
		flows = append(flows, Flow{Key: key, Info: info})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return flows, nil
}

// SortField selects how List orders its result.
type SortField int

const (
	SortByBytes SortField = iota
	SortByPid
	SortByPackets
)

// Filter narrows a List call. A zero value Filter matches every flow.
type Filter struct {
	Pid        uint32
	HasPid     bool
	CommSubstr string
	Direction  uint8 // 0 means "any"
	SortBy     SortField
	Limit      int
}

// DefaultLimit mirrors the CLI's default page size when a caller leaves
// Filter.Limit at zero.
const DefaultLimit = 50

// List returns flows currently tracked by the kernel that match filter,
// sorted and capped per filter.SortBy / filter.Limit.
func (t *Tracker) List(filter Filter) ([]Flow, error) {
	flows, err := t.Snapshot()
	if err != nil {
		return nil, err
	}
	return applyFilter(flows, filter), nil
}

// applyFilter implements List's filter/sort/limit pipeline over an
// already-snapshotted slice, split out so it can be tested without a
// live kernel map.
func applyFilter(flows []Flow, filter Filter) []Flow {
	filtered := make([]Flow, 0, len(flows))
	commLower := strings.ToLower(filter.CommSubstr)
	for _, f := range flows {
		if filter.HasPid && f.Info.Pid != filter.Pid {
			continue
		}
		if filter.CommSubstr != "" && !strings.Contains(strings.ToLower(kernelabi.CommString(f.Info.Comm)), commLower) {
			continue
		}
		if filter.Direction != 0 && f.Info.Direction != filter.Direction {
			continue
		}
		filtered = append(filtered, f)
	}

	switch filter.SortBy {
	case SortByPid:
		sort.Slice(filtered, func(i, j int) bool { return filtered[i].Info.Pid < filtered[j].Info.Pid })
	case SortByPackets:
		sort.Slice(filtered, func(i, j int) bool {
			return totalPackets(filtered[i].Info) > totalPackets(filtered[j].Info)
		})
	default:
		sort.Slice(filtered, func(i, j int) bool {
			return totalBytes(filtered[i].Info) > totalBytes(filtered[j].Info)
		})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}

func totalBytes(info kernelabi.FlowInfo) uint64 {
	return TotalBytes(info)
}

func totalPackets(info kernelabi.FlowInfo) uint64 {
	return TotalPackets(info)
}

// TotalBytes sums the two directional byte counters a FlowInfo tracks.
// Exported so callers outside this package (the top/flows CLI tables)
// can render the same combined figure List sorts by.
func TotalBytes(info kernelabi.FlowInfo) uint64 {
	return info.RxBytes + info.TxBytes
}

// TotalPackets sums the two directional packet counters a FlowInfo tracks.
func TotalPackets(info kernelabi.FlowInfo) uint64 {
	return uint64(info.RxPackets) + uint64(info.TxPackets)
}

// LocalRemote splits a flow's key into (local, remote) address pairs
// according to direction: outbound flows are local-initiated (src is
// local), inbound flows are local-terminated (dst is local).
func LocalRemote(key kernelabi.FlowKey, direction uint8) (localIP, remoteIP uint32, localPort, remotePort uint16) {
	if direction == kernelabi.FlowDirectionInbound {
		return key.DstIP, key.SrcIP, key.DstPort, key.SrcPort
	}
	return key.SrcIP, key.DstIP, key.SrcPort, key.DstPort
}
