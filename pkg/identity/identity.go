// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

// Package identity manages the agent's persistent UUID: created once on
// first boot, read on every subsequent boot, stable for the lifetime of
// the install.
package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const stateFileName = "state.json"

// State is the on-disk identity record.
type State struct {
	AgentID   string `json:"agent_id"`
	Version   string `json:"version"`
	CreatedAt string `json:"created_at"`
}

// Manager owns the loaded identity state and the path it was read from.
type Manager struct {
	state     State
	statePath string
}

// LoadOrCreate reads state.json from stateDir, creating a fresh identity
// (UUID v4, RFC-3339 created_at) if none exists. currentVersion stamps a
// newly created record's version field. A corrupt existing state file is
// a hard error: this agent never silently replaces a stored identity, as
// that would forge a new agent_id the control plane would see as a
// different host.
func LoadOrCreate(stateDir, currentVersion string) (*Manager, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("identity: create state directory %s: %w", stateDir, err)
	}

	statePath := filepath.Join(stateDir, stateFileName)

	if _, err := os.Stat(statePath); err == nil {
		state, err := loadState(statePath)
		if err != nil {
			return nil, fmt.Errorf("identity: load existing state: %w", err)
		}
		return &Manager{state: state, statePath: statePath}, nil
	}

	state := State{
		AgentID:   uuid.NewString(),
		Version:   currentVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := saveState(statePath, state); err != nil {
		return nil, fmt.Errorf("identity: save new state: %w", err)
	}
	return &Manager{state: state, statePath: statePath}, nil
}

func loadState(path string) (State, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("read state file %s: %w", path, err)
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return State{}, fmt.Errorf("parse state file %s: %w", path, err)
	}
	return state, nil
}

// saveState writes state atomically: write to a temp file in the same
// directory, then rename over the target, so a crash mid-write never
// leaves a half-written state.json behind.
func saveState(path string, state State) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write temp state file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmp, path, err)
	}
	return nil
}

// AgentID returns the stable UUID identifying this agent install.
func (m *Manager) AgentID() string { return m.state.AgentID }

// Version returns the version recorded at the last successful upgrade
// (or at first boot).
func (m *Manager) Version() string { return m.state.Version }

// CreatedAt returns the RFC-3339 timestamp of first boot.
func (m *Manager) CreatedAt() string { return m.state.CreatedAt }

// UpdateVersion stamps a new version (after a successful self-upgrade)
// and persists it.
func (m *Manager) UpdateVersion(version string) error {
	m.state.Version = version
	if err := saveState(m.statePath, m.state); err != nil {
		return fmt.Errorf("identity: update version: %w", err)
	}
	return nil
}
