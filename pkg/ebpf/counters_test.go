// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package ebpf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sennet-io/sennet-agent/pkg/kernelabi"
)

func TestReadCountersWithoutManagerReturnsZero(t *testing.T) {
	m := &Manager{}
	got, err := m.ReadCounters()
	require.NoError(t, err)
	assert.Equal(t, kernelabi.PacketCounters{}, got)
}
