// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package ebpf

import (
	"errors"
	"time"

	"github.com/cilium/ebpf/ringbuf"

	"github.com/sennet-io/sennet-agent/pkg/kernelabi"
)

// Drain reads typed records out of one ring buffer map. It never blocks
// the kernel producer: Poll returns whatever is queued right now (zero
// records is not an error) and a separate goroutine isn't required to
// keep the ring from filling. Reserve failures inside the probe (ring
// full) never reach userspace as an event at all; Discarded only counts
// records this side had to throw away after reading them.
type Drain struct {
	reader    *ringbuf.Reader
	Discarded uint64
}

// NewDrain opens a ring buffer reader for the named map on m. Returns
// false if the map isn't present (optional probe never attached, or
// non-Linux host).
func NewDrain(m *Manager, mapName string) (*Drain, bool) {
	em, ok := m.Map(mapName)
	if !ok {
		return nil, false
	}
	r, err := ringbuf.NewReader(em)
	if err != nil {
		return nil, false
	}
	return &Drain{reader: r}, true
}

// Close releases the underlying ring buffer reader.
func (d *Drain) Close() error {
	if d == nil || d.reader == nil {
		return nil
	}
	return d.reader.Close()
}

// decodeFunc parses one raw ring record; ok is false when the record is
// shorter than its declared size and must be discarded rather than
// partially interpreted.
type decodeFunc[T any] func([]byte) (T, bool)

// drainAll polls d until no record is immediately available, decoding
// each with decode. Malformed records are dropped silently; Drain never
// returns a decode error to the caller since a single bad record must
// not stop the rest of the batch from being processed.
func drainAll[T any](d *Drain, decode decodeFunc[T]) []T {
	var out []T
	if d == nil || d.reader == nil {
		return out
	}
	d.reader.SetDeadline(time.Now())
	for {
		record, err := d.reader.Read()
		if err != nil {
			if errors.Is(err, ringbuf.ErrClosed) {
				return out
			}
			// Deadline exceeded means the ring is momentarily empty.
			return out
		}
		v, ok := decode(record.RawSample)
		if !ok {
			d.Discarded++
			continue
		}
		out = append(out, v)
	}
}

// PollPacketEvents drains whatever large-packet anomaly records are
// currently queued on the EVENTS ring.
func (d *Drain) PollPacketEvents() []kernelabi.PacketEvent {
	return drainAll(d, kernelabi.DecodePacketEvent)
}

// PollDropEvents drains whatever drop records are currently queued on
// the DROP_EVENTS ring.
func (d *Drain) PollDropEvents() []kernelabi.DropEvent {
	return drainAll(d, kernelabi.DecodeDropEvent)
}

// PollNetfilterEvents drains whatever netfilter records are currently
// queued on the NF_EVENTS ring.
func (d *Drain) PollNetfilterEvents() []kernelabi.NetfilterEvent {
	return drainAll(d, kernelabi.DecodeNetfilterEvent)
}

// PollFlowEvents drains whatever NEW/CLOSE edge records are currently
// queued on the FLOW_EVENTS ring.
func (d *Drain) PollFlowEvents() []kernelabi.FlowEvent {
	return drainAll(d, kernelabi.DecodeFlowEvent)
}
