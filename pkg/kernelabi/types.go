// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

// Package kernelabi holds the structures shared between the eBPF probe set
// and userspace. Every type here mirrors a C struct byte-for-byte: fixed
// field order, explicit padding, little-endian scalars. Nothing in this
// package may use a type whose in-memory layout the Go compiler does not
// guarantee (no strings, slices, or maps) because these are the bytes a
// probe writes directly into a map or ring buffer.
package kernelabi

import "encoding/binary"

// Direction constants for PacketCounters' per-CPU array slots.
const (
	DirectionIngress = 0
	DirectionEgress  = 1
)

// PacketCounters is one per-CPU slot of the COUNTERS map. Two slots exist,
// indexed by DirectionIngress/DirectionEgress. Fields are monotonically
// non-decreasing between resets.
type PacketCounters struct {
	RxPackets uint64
	RxBytes   uint64
	TxPackets uint64
	TxBytes   uint64
	DropCount uint64
}

// SizeOfPacketCounters is the wire size of PacketCounters: five u64 fields,
// no padding needed since 8-byte aligned throughout.
const SizeOfPacketCounters = 40

// Add folds another PacketCounters into the receiver, used when summing
// per-CPU slices returned by a PerCPUArray read.
func (c *PacketCounters) Add(o PacketCounters) {
	c.RxPackets += o.RxPackets
	c.RxBytes += o.RxBytes
	c.TxPackets += o.TxPackets
	c.TxBytes += o.TxBytes
	c.DropCount += o.DropCount
}

// DecodePacketCounters parses one little-endian PacketCounters record.
func DecodePacketCounters(b []byte) (PacketCounters, bool) {
	if len(b) < SizeOfPacketCounters {
		return PacketCounters{}, false
	}
	return PacketCounters{
		RxPackets: binary.LittleEndian.Uint64(b[0:8]),
		RxBytes:   binary.LittleEndian.Uint64(b[8:16]),
		TxPackets: binary.LittleEndian.Uint64(b[16:24]),
		TxBytes:   binary.LittleEndian.Uint64(b[24:32]),
		DropCount: binary.LittleEndian.Uint64(b[32:40]),
	}, true
}

// PacketEvent is a large-packet/anomaly record emitted by the TC
// classifiers into the EVENTS ring when a packet exceeds the MTU anomaly
// threshold (9000 bytes).
type PacketEvent struct {
	EventType uint32
	Size      uint32
	SrcIP     uint32
	DstIP     uint32
	Protocol  uint8
	_pad      [3]byte
}

const SizeOfPacketEvent = 20

func DecodePacketEvent(b []byte) (PacketEvent, bool) {
	if len(b) < SizeOfPacketEvent {
		return PacketEvent{}, false
	}
	return PacketEvent{
		EventType: binary.LittleEndian.Uint32(b[0:4]),
		Size:      binary.LittleEndian.Uint32(b[4:8]),
		SrcIP:     binary.LittleEndian.Uint32(b[8:12]),
		DstIP:     binary.LittleEndian.Uint32(b[12:16]),
		Protocol:  b[16],
	}, true
}

// DropEvent is emitted by the kfree_skb tracepoint whenever the kernel
// drop reason is greater than 1 (skip the generic "not specified" reason).
type DropEvent struct {
	TimestampNs uint64
	Reason      uint32
	Ifindex     uint32
	Protocol    uint16
	_pad        [2]byte
}

const SizeOfDropEvent = 20

func DecodeDropEvent(b []byte) (DropEvent, bool) {
	if len(b) < SizeOfDropEvent {
		return DropEvent{}, false
	}
	return DropEvent{
		TimestampNs: binary.LittleEndian.Uint64(b[0:8]),
		Reason:      binary.LittleEndian.Uint32(b[8:12]),
		Ifindex:     binary.LittleEndian.Uint32(b[12:16]),
		Protocol:    binary.LittleEndian.Uint16(b[16:18]),
	}, true
}

// Netfilter hook indices, matching the NF_INET_* kernel constants.
const (
	NfHookPrerouting  = 0
	NfHookInput       = 1
	NfHookForward     = 2
	NfHookOutput      = 3
	NfHookPostrouting = 4
)

// Netfilter verdicts, matching the NF_* kernel constants.
const (
	NfVerdictDrop     = 0
	NfVerdictAccept   = 1
	NfVerdictStolen   = 2
	NfVerdictQueue    = 3
	NfVerdictRepeat   = 4
	NfVerdictStop     = 5
)

// NetfilterEvent is emitted by the nf_hook_slow tracepoint when the verdict
// is DROP or the hook index is one of the five well-known values.
type NetfilterEvent struct {
	TimestampNs uint64
	Hook        uint8
	Pf          uint8
	Verdict     uint8
	_pad        [1]byte
	IfindexIn   uint32
	IfindexOut  uint32
}

const SizeOfNetfilterEvent = 20

func DecodeNetfilterEvent(b []byte) (NetfilterEvent, bool) {
	if len(b) < SizeOfNetfilterEvent {
		return NetfilterEvent{}, false
	}
	return NetfilterEvent{
		TimestampNs: binary.LittleEndian.Uint64(b[0:8]),
		Hook:        b[8],
		Pf:          b[9],
		Verdict:     b[10],
		IfindexIn:   binary.LittleEndian.Uint32(b[12:16]),
		IfindexOut:  binary.LittleEndian.Uint32(b[16:20]),
	}, true
}

// FlowKey identifies an IPv4 TCP flow. It is the key type of the FLOWS LRU
// hash map.
type FlowKey struct {
	SrcIP    uint32
	DstIP    uint32
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
	_pad     [3]byte
}

const SizeOfFlowKey = 16

func DecodeFlowKey(b []byte) (FlowKey, bool) {
	if len(b) < SizeOfFlowKey {
		return FlowKey{}, false
	}
	return FlowKey{
		SrcIP:    binary.LittleEndian.Uint32(b[0:4]),
		DstIP:    binary.LittleEndian.Uint32(b[4:8]),
		SrcPort:  binary.LittleEndian.Uint16(b[8:10]),
		DstPort:  binary.LittleEndian.Uint16(b[10:12]),
		Protocol: b[12],
	}, true
}

func (k FlowKey) Encode() []byte {
	b := make([]byte, SizeOfFlowKey)
	binary.LittleEndian.PutUint32(b[0:4], k.SrcIP)
	binary.LittleEndian.PutUint32(b[4:8], k.DstIP)
	binary.LittleEndian.PutUint16(b[8:10], k.SrcPort)
	binary.LittleEndian.PutUint16(b[10:12], k.DstPort)
	b[12] = k.Protocol
	return b
}

// Flow state values for FlowInfo.State.
const (
	FlowStateUnknown     = 0
	FlowStateEstablished = 1
	FlowStateClosed      = 2
)

// Flow direction values, shared by FlowInfo.Direction and FlowEvent.Direction.
const (
	FlowDirectionOutbound = 1
	FlowDirectionInbound  = 2
)

// CommLen is the fixed width of a process name as captured by
// bpf_get_current_comm, nul-terminated or filled.
const CommLen = 16

// FlowInfo is the value type of the FLOWS LRU hash map: the process
// attribution and running counters for one flow.
type FlowInfo struct {
	Pid          uint32
	Tgid         uint32
	Comm         [CommLen]byte
	StartTimeNs  uint64
	RxBytes      uint64
	TxBytes      uint64
	RxPackets    uint32
	TxPackets    uint32
	State        uint8
	Direction    uint8
	_pad         [2]byte
}

const SizeOfFlowInfo = 4 + 4 + CommLen + 8 + 8 + 8 + 4 + 4 + 1 + 1 + 2

func DecodeFlowInfo(b []byte) (FlowInfo, bool) {
	if len(b) < SizeOfFlowInfo {
		return FlowInfo{}, false
	}
	var info FlowInfo
	info.Pid = binary.LittleEndian.Uint32(b[0:4])
	info.Tgid = binary.LittleEndian.Uint32(b[4:8])
	copy(info.Comm[:], b[8:8+CommLen])
	off := 8 + CommLen
	info.StartTimeNs = binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	info.RxBytes = binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	info.TxBytes = binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	info.RxPackets = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	info.TxPackets = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	info.State = b[off]
	info.Direction = b[off+1]
	return info, true
}

// CommString trims the nul padding from a raw comm field.
func CommString(comm [CommLen]byte) string {
	n := 0
	for n < len(comm) && comm[n] != 0 {
		n++
	}
	return string(comm[:n])
}

// FlowEvent is a NEW/UPDATE/CLOSE edge record emitted into FLOW_EVENTS so
// transient flows remain observable even if evicted from FLOWS before the
// next snapshot.
const (
	FlowEventNew    = 1
	FlowEventUpdate = 2
	FlowEventClose  = 3
)

type FlowEvent struct {
	TimestampNs uint64
	EventType   uint8
	Direction   uint8
	Protocol    uint8
	_pad        uint8
	Pid         uint32
	SrcIP       uint32
	DstIP       uint32
	SrcPort     uint16
	DstPort     uint16
	Comm        [CommLen]byte
}

const SizeOfFlowEvent = 8 + 1 + 1 + 1 + 1 + 4 + 4 + 4 + 2 + 2 + CommLen

func DecodeFlowEvent(b []byte) (FlowEvent, bool) {
	if len(b) < SizeOfFlowEvent {
		return FlowEvent{}, false
	}
	var ev FlowEvent
	ev.TimestampNs = binary.LittleEndian.Uint64(b[0:8])
	ev.EventType = b[8]
	ev.Direction = b[9]
	ev.Protocol = b[10]
	ev.Pid = binary.LittleEndian.Uint32(b[12:16])
	ev.SrcIP = binary.LittleEndian.Uint32(b[16:20])
	ev.DstIP = binary.LittleEndian.Uint32(b[20:24])
	ev.SrcPort = binary.LittleEndian.Uint16(b[24:26])
	ev.DstPort = binary.LittleEndian.Uint16(b[26:28])
	copy(ev.Comm[:], b[28:28+CommLen])
	return ev, true
}
