// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package kernelabi

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketCountersAdd(t *testing.T) {
	var total PacketCounters
	for i := uint64(0); i < 4; i++ {
		total.Add(PacketCounters{
			RxPackets: i + 1,
			RxBytes:   2 * (i + 1),
			TxPackets: i + 1,
			TxBytes:   2 * (i + 1),
			DropCount: i + 1,
		})
	}
	assert.Equal(t, uint64(1+2+3+4), total.RxPackets)
	assert.Equal(t, uint64(2+4+6+8), total.RxBytes)
	assert.Equal(t, uint64(1+2+3+4), total.DropCount)
}

func TestDecodePacketCountersShortBuffer(t *testing.T) {
	_, ok := DecodePacketCounters(make([]byte, SizeOfPacketCounters-1))
	assert.False(t, ok, "short buffer must fail fast rather than panic")
}

func TestDecodePacketCountersRoundTrip(t *testing.T) {
	b := make([]byte, SizeOfPacketCounters)
	binary.LittleEndian.PutUint64(b[0:8], 10)
	binary.LittleEndian.PutUint64(b[8:16], 2000)
	binary.LittleEndian.PutUint64(b[16:24], 5)
	binary.LittleEndian.PutUint64(b[24:32], 500)
	binary.LittleEndian.PutUint64(b[32:40], 1)

	got, ok := DecodePacketCounters(b)
	require.True(t, ok)
	assert.Equal(t, PacketCounters{RxPackets: 10, RxBytes: 2000, TxPackets: 5, TxBytes: 500, DropCount: 1}, got)
}

func TestFlowKeyEncodeDecodeRoundTrip(t *testing.T) {
	key := FlowKey{SrcIP: 0x0A000001, DstIP: 0x08080808, SrcPort: 54321, DstPort: 443, Protocol: 6}
	got, ok := DecodeFlowKey(key.Encode())
	require.True(t, ok)
	assert.Equal(t, key, got)
}

func TestCommString(t *testing.T) {
	var comm [CommLen]byte
	copy(comm[:], "curl")
	assert.Equal(t, "curl", CommString(comm))

	// Fully-filled comm (no nul terminator) must still truncate at CommLen.
	var full [CommLen]byte
	for i := range full {
		full[i] = 'a'
	}
	assert.Equal(t, 16, len(CommString(full)))
}

func TestDecodeFlowEventRoundTrip(t *testing.T) {
	b := make([]byte, SizeOfFlowEvent)
	binary.LittleEndian.PutUint64(b[0:8], 123456789)
	b[8] = FlowEventNew
	b[9] = FlowDirectionOutbound
	b[10] = 6
	binary.LittleEndian.PutUint32(b[12:16], 1234)
	binary.LittleEndian.PutUint32(b[16:20], 0x0A000001)
	binary.LittleEndian.PutUint32(b[20:24], 0x08080808)
	binary.LittleEndian.PutUint16(b[24:26], 54321)
	binary.LittleEndian.PutUint16(b[26:28], 443)
	copy(b[28:], "curl")

	ev, ok := DecodeFlowEvent(b)
	require.True(t, ok)
	assert.Equal(t, uint8(FlowEventNew), ev.EventType)
	assert.Equal(t, uint32(1234), ev.Pid)
	assert.Equal(t, "curl", CommString(ev.Comm))
}

func TestDropReasonString(t *testing.T) {
	assert.Equal(t, "NETFILTER_DROP", DropReasonString(7))
	assert.Equal(t, "UNKNOWN", DropReasonString(999))
	assert.Equal(t, "REASON_UNAVAILABLE", DropReasonString(0))
}
