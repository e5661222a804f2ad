// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package ebpf

import (
	"fmt"

	"github.com/cilium/ebpf"

	"github.com/sennet-io/sennet-agent/pkg/kernelabi"
)

// ReadCounters folds the per-CPU COUNTERS array into one snapshot: slot 0
// (ingress) contributes rx_* and drop_count, slot 1 (egress) contributes
// tx_*. Reads across the two slots are not atomic with each other;
// callers tolerate mild skew. Returns a zero snapshot when the map isn't
// available, matching the portable-mock contract expected on non-Linux
// hosts or before the loader has attached.
func (m *Manager) ReadCounters() (kernelabi.PacketCounters, error) {
	em, ok := m.Counters()
	if !ok {
		return kernelabi.PacketCounters{}, nil
	}

	ingress, err := sumSlot(em, kernelabi.DirectionIngress)
	if err != nil {
		return kernelabi.PacketCounters{}, fmt.Errorf("ebpf: sum ingress slot: %w", err)
	}
	egress, err := sumSlot(em, kernelabi.DirectionEgress)
	if err != nil {
		return kernelabi.PacketCounters{}, fmt.Errorf("ebpf: sum egress slot: %w", err)
	}

	return kernelabi.PacketCounters{
		RxPackets: ingress.RxPackets,
		RxBytes:   ingress.RxBytes,
		TxPackets: egress.TxPackets,
		TxBytes:   egress.TxBytes,
		DropCount: ingress.DropCount,
	}, nil
}

// sumSlot reads every per-CPU value for one array index and adds them
// together. The kernel pads per-CPU values to a cache line under the
// hood; cilium/ebpf's Lookup already strips that, so each entry here is
// exactly len(cpus) kernelabi.PacketCounters values.
func sumSlot(em *ebpf.Map, index uint32) (kernelabi.PacketCounters, error) {
	var perCPU []kernelabi.PacketCounters
	if err := em.Lookup(index, &perCPU); err != nil {
		return kernelabi.PacketCounters{}, err
	}

	var total kernelabi.PacketCounters
	for _, v := range perCPU {
		total.Add(v)
	}
	return total, nil
}
