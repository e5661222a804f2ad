// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package debugserver

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounters struct {
	rxPackets, rxBytes, txPackets, txBytes, dropCount uint64
}

func (f fakeCounters) RxPackets() uint64 { return f.rxPackets }
func (f fakeCounters) RxBytes() uint64   { return f.rxBytes }
func (f fakeCounters) TxPackets() uint64 { return f.txPackets }
func (f fakeCounters) TxBytes() uint64   { return f.txBytes }
func (f fakeCounters) DropCount() uint64 { return f.dropCount }

func TestServerServesMetrics(t *testing.T) {
	source := fakeCounters{rxPackets: 42, dropCount: 3}
	const addr = "127.0.0.1:18099"
	srv := New(addr, source)

	go func() { _ = srv.ListenAndServe() }()
	defer srv.Shutdown(context.Background())

	var resp *http.Response
	var err error
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err = http.Get("http://" + addr + "/debug/metrics")
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "sennet_rx_packets_total 42")
	assert.Contains(t, string(body), "sennet_drop_count_total 3")
}
