// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package flow

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sennet-io/sennet-agent/pkg/kernelabi"
)

func TestFormatIPRoundTripsThroughFlowKey(t *testing.T) {
	want := net.IPv4(10, 0, 0, 1).To4()
	b := make([]byte, kernelabi.SizeOfFlowKey)
	binary.LittleEndian.PutUint32(b[0:4], binary.LittleEndian.Uint32(want))
	key, ok := kernelabi.DecodeFlowKey(b)
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.1", FormatIP(key.SrcIP))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512B", FormatBytes(512))
	assert.Equal(t, "1.5KB", FormatBytes(1500))
	assert.Equal(t, "2.0MB", FormatBytes(2_000_000))
	assert.Equal(t, "1.0GB", FormatBytes(1_000_000_000))
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "OUT", DirectionString(kernelabi.FlowDirectionOutbound))
	assert.Equal(t, "IN", DirectionString(kernelabi.FlowDirectionInbound))
	assert.Equal(t, "?", DirectionString(0))
}
