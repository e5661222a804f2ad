// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

// Package ebpf loads the compiled probe object, attaches it to the chosen
// network interface and kernel tracepoints, and exposes its maps to the
// rest of the agent through pinned paths.
package ebpf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	manager "github.com/DataDog/ebpf-manager"
	"github.com/cilium/ebpf"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/sennet-io/sennet-agent/pkg/ebpf/bytecode"
)

// elfMachineBPF is EM_BPF from elf.h; the embedded object must declare
// this machine type.
const elfMachineBPF = 247

// Capabilities reports which optional probes attached successfully.
// Mandatory TC classifiers are assumed present whenever a Manager exists.
type Capabilities struct {
	DropTracing      bool
	NetfilterTracing bool
	FlowTracing      bool
}

// Manager owns the attached probe set for one interface and the paths its
// maps are pinned under. A Manager built by OpenPinned has no attached
// probe set (mgr is nil) and serves maps straight from their pinned
// paths, for read-only CLI tools that run alongside an already-running
// daemon instead of attaching their own probes.
type Manager struct {
	mgr       *manager.Manager
	pinned    map[string]*ebpf.Map
	Interface string
	PinRoot   string
	Caps      Capabilities
}

// OpenPinned opens the maps a running daemon already pinned under
// pinRoot, without loading or attaching any probes. Used by read-only
// subcommands (top, trace, flows) that want the live counters
// and events without competing with the daemon's own attachment.
func OpenPinned(pinRoot string) (*Manager, error) {
	pinned := make(map[string]*ebpf.Map)
	for _, name := range []string{"counters", "events", "drop_events", "nf_events", "flows", "flow_events"} {
		path := filepath.Join(pinRoot, name)
		em, err := ebpf.LoadPinnedMap(path, nil)
		if err != nil {
			continue
		}
		pinned[name] = em
	}
	if len(pinned) == 0 {
		return nil, fmt.Errorf("ebpf: no pinned maps found under %s, is the agent running?", pinRoot)
	}
	return &Manager{pinned: pinned, PinRoot: pinRoot}, nil
}

// optionalProbe describes one best-effort attach point: its manager probe
// spec and the capability flag it sets on success.
type optionalProbe struct {
	probe *manager.Probe
	name  string
	set   func(*Capabilities)
}

// validateELF applies the structural pre-flight checks the loader must
// perform before handing the object to the manager: a misshapen header
// here means a corrupt build artifact, and cilium/ebpf's own parser does
// not distinguish "corrupt" from "unsupported" as cleanly as this check
// does for a byte-identical embedded asset we control end to end.
func validateELF(obj []byte) error {
	const headerSize = 64
	if len(obj) < headerSize {
		return fmt.Errorf("ebpf: object too small to contain an ELF header (%d bytes)", len(obj))
	}
	if !bytes.Equal(obj[:4], []byte{0x7f, 'E', 'L', 'F'}) {
		return fmt.Errorf("ebpf: missing ELF magic")
	}
	if obj[4] != 2 {
		return fmt.Errorf("ebpf: expected ELFCLASS64, got class %d", obj[4])
	}

	ehsize := binary.LittleEndian.Uint16(obj[52:54])
	if ehsize != headerSize {
		return fmt.Errorf("ebpf: unexpected e_ehsize %d, want %d", ehsize, headerSize)
	}

	shentsize := binary.LittleEndian.Uint16(obj[58:60])
	if shentsize != headerSize {
		return fmt.Errorf("ebpf: unexpected e_shentsize %d, want %d", shentsize, headerSize)
	}

	shoff := binary.LittleEndian.Uint64(obj[40:48])
	if shoff > uint64(len(obj)) {
		return fmt.Errorf("ebpf: e_shoff %d past end-of-file (%d bytes)", shoff, len(obj))
	}
	if shoff%8 != 0 {
		return fmt.Errorf("ebpf: e_shoff %d not 8-byte aligned", shoff)
	}

	machine := binary.LittleEndian.Uint16(obj[18:20])
	if machine != elfMachineBPF {
		return fmt.Errorf("ebpf: e_machine %d does not match EM_BPF (%d)", machine, elfMachineBPF)
	}

	return nil
}

// LoadAndAttach validates the embedded probe object, attaches the
// mandatory TC classifiers to iface, and attaches the optional
// tracepoints and kprobes best-effort. pinRoot is the filesystem root all
// maps are pinned under (e.g. /sys/fs/bpf/sennet).
func LoadAndAttach(iface, pinRoot string) (*Manager, error) {
	obj := bytecode.Probes
	if err := validateELF(obj); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(pinRoot, 0o755); err != nil {
		return nil, fmt.Errorf("ebpf: create pin root %s: %w", pinRoot, err)
	}

	mandatory := []*manager.Probe{
		{
			ProbeIdentificationPair: manager.ProbeIdentificationPair{
				EBPFFuncName: "tc_ingress",
				UID:          "sennet",
			},
			EBPFSection:      "tc",
			IfName:           iface,
			NetworkDirection: manager.Ingress,
		},
		{
			ProbeIdentificationPair: manager.ProbeIdentificationPair{
				EBPFFuncName: "tc_egress",
				UID:          "sennet",
			},
			EBPFSection:      "tc",
			IfName:           iface,
			NetworkDirection: manager.Egress,
		},
	}

	caps := Capabilities{}
	optional := []optionalProbe{
		{
			name: "skb/kfree_skb",
			probe: &manager.Probe{
				ProbeIdentificationPair: manager.ProbeIdentificationPair{
					EBPFFuncName: "trace_kfree_skb",
					UID:          "sennet",
				},
				EBPFSection: "tracepoint/skb/kfree_skb",
			},
			set: func(c *Capabilities) { c.DropTracing = true },
		},
		{
			name: "netfilter/nf_hook_slow",
			probe: &manager.Probe{
				ProbeIdentificationPair: manager.ProbeIdentificationPair{
					EBPFFuncName: "trace_nf_hook_slow",
					UID:          "sennet",
				},
				EBPFSection: "tracepoint/netfilter/nf_hook_slow",
			},
			set: func(c *Capabilities) { c.NetfilterTracing = true },
		},
		{
			name: "kprobe/tcp_connect",
			probe: &manager.Probe{
				ProbeIdentificationPair: manager.ProbeIdentificationPair{
					EBPFFuncName: "kprobe_tcp_connect",
					UID:          "sennet",
				},
				EBPFSection: "kprobe/tcp_connect",
			},
			set: func(c *Capabilities) { c.FlowTracing = true },
		},
		{
			name: "kprobe/tcp_set_state",
			probe: &manager.Probe{
				ProbeIdentificationPair: manager.ProbeIdentificationPair{
					EBPFFuncName: "kprobe_tcp_set_state",
					UID:          "sennet",
				},
				EBPFSection: "kprobe/tcp_set_state",
			},
			set: func(c *Capabilities) {}, // flow tracing already flagged by tcp_connect
		},
	}

	allProbes := append([]*manager.Probe{}, mandatory...)
	for _, op := range optional {
		allProbes = append(allProbes, op.probe)
	}

	m := &manager.Manager{
		Probes: allProbes,
		Maps: []*manager.Map{
			{Name: "counters"},
			{Name: "events"},
			{Name: "drop_events"},
			{Name: "nf_events"},
			{Name: "flows"},
			{Name: "flow_events"},
		},
	}

	opts := manager.Options{
		// DefaultKProbeMaxActive bounds concurrent kretprobe instances;
		// 512 matches what the rest of the eBPF pack uses.
		DefaultKProbeMaxActive: 512,
		// Some hosts ship a RLIMIT_MEMLOCK far too low for our map set.
		RLimit: &unix.Rlimit{
			Cur: unix.RLIM_INFINITY,
			Max: unix.RLIM_INFINITY,
		},
		VerifierOptions: ebpf.CollectionOptions{
			Programs: ebpf.ProgramOptions{
				LogSize: 2 * 1024 * 1024,
			},
		},
		ActivatedProbes: []manager.ProbesSelector{
			&manager.ProbeSelector{ProbeIdentificationPair: mandatory[0].ProbeIdentificationPair},
			&manager.ProbeSelector{ProbeIdentificationPair: mandatory[1].ProbeIdentificationPair},
		},
	}

	if err := m.InitWithOptions(bytes.NewReader(obj), opts); err != nil {
		return nil, fmt.Errorf("ebpf: init manager: %w", err)
	}

	if err := m.Start(); err != nil {
		return nil, fmt.Errorf("ebpf: start mandatory probes: %w", err)
	}

	for _, op := range optional {
		p, found, err := m.GetProbe(op.probe.ProbeIdentificationPair)
		if err != nil || !found {
			logrus.WithField("probe", op.name).Warn("optional probe not present in object, skipping")
			continue
		}
		if err := p.Attach(); err != nil {
			logrus.WithError(err).WithField("probe", op.name).Warn("optional probe failed to attach")
			continue
		}
		op.set(&caps)
	}

	if err := pinMaps(m, pinRoot); err != nil {
		logrus.WithError(err).Warn("one or more maps failed to pin")
	}

	return &Manager{mgr: m, Interface: iface, PinRoot: pinRoot, Caps: caps}, nil
}

// pinMaps pins every known map by name under root, tolerating an
// already-existing pin.
func pinMaps(m *manager.Manager, root string) error {
	var firstErr error
	for _, name := range []string{"counters", "events", "drop_events", "nf_events", "flows", "flow_events"} {
		em, found, err := m.GetMap(name)
		if err != nil || !found {
			continue
		}
		path := filepath.Join(root, name)
		if err := em.Pin(path); err != nil && !os.IsExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("pin %s: %w", name, err)
			}
		}
	}
	return firstErr
}

// Counters returns the cilium/ebpf handle for the per-CPU COUNTERS map,
// or nil if it isn't available (manager never started, or non-Linux).
func (m *Manager) Counters() (*ebpf.Map, bool) {
	return m.Map("counters")
}

// Map exposes an arbitrary named map for the event drain and flow tracker.
func (m *Manager) Map(name string) (*ebpf.Map, bool) {
	if m == nil {
		return nil, false
	}
	if m.pinned != nil {
		em, ok := m.pinned[name]
		return em, ok
	}
	if m.mgr == nil {
		return nil, false
	}
	em, found, err := m.mgr.GetMap(name)
	if err != nil || !found {
		return nil, false
	}
	return em, true
}

// Stop detaches every probe (a no-op for a Manager opened with
// OpenPinned, since it never attached any). Pinned maps persist
// (pinning policy is always "keep") so sibling subcommands can still
// read recent state after Stop runs.
func (m *Manager) Stop() error {
	if m == nil || m.mgr == nil {
		return nil
	}
	return m.mgr.Stop(manager.CleanInternal)
}

