// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package main

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sennet-io/sennet-agent/pkg/config"
	"github.com/sennet-io/sennet-agent/pkg/heartbeat"
)

type fakeVersionUpdater struct {
	version string
	updated string
	err     error
}

func (f *fakeVersionUpdater) Version() string { return f.version }
func (f *fakeVersionUpdater) UpdateVersion(v string) error {
	if f.err != nil {
		return f.err
	}
	f.updated = v
	f.version = v
	return nil
}

type fakeUpgrader struct {
	called  bool
	version string
	err     error
}

func (f *fakeUpgrader) Upgrade(_ context.Context, version string) error {
	f.called = true
	f.version = version
	return f.err
}

func TestCommandHandlerSkipsUpgradeWhenAlreadyCurrent(t *testing.T) {
	idmgr := &fakeVersionUpdater{version: "1.0.0"}
	upgrader := &fakeUpgrader{}
	var active atomic.Pointer[config.Config]
	active.Store(&config.Config{})

	handler := newCommandHandler(&active, idmgr, "", upgrader)
	handler(context.Background(), heartbeat.CommandUpgrade, "1.0.0")

	assert.False(t, upgrader.called)
	assert.Empty(t, idmgr.updated)
}

func TestCommandHandlerInvokesUpgraderOnNewerVersion(t *testing.T) {
	idmgr := &fakeVersionUpdater{version: "1.0.0"}
	upgrader := &fakeUpgrader{}
	var active atomic.Pointer[config.Config]
	active.Store(&config.Config{})

	handler := newCommandHandler(&active, idmgr, "", upgrader)
	handler(context.Background(), heartbeat.CommandUpgrade, "2.0.0")

	assert.True(t, upgrader.called)
	assert.Equal(t, "2.0.0", upgrader.version)
	assert.Equal(t, "2.0.0", idmgr.updated)
}

func TestCommandHandlerSkipsVersionUpdateWhenUpgraderFails(t *testing.T) {
	idmgr := &fakeVersionUpdater{version: "1.0.0"}
	upgrader := &fakeUpgrader{err: assert.AnError}
	var active atomic.Pointer[config.Config]
	active.Store(&config.Config{})

	handler := newCommandHandler(&active, idmgr, "", upgrader)
	handler(context.Background(), heartbeat.CommandUpgrade, "2.0.0")

	assert.Empty(t, idmgr.updated)
}

func TestCommandHandlerReconfigureKeepsOldConfigOnInvalidFile(t *testing.T) {
	idmgr := &fakeVersionUpdater{version: "1.0.0"}
	upgrader := &fakeUpgrader{}
	var active atomic.Pointer[config.Config]
	original := &config.Config{APIKey: "sk_original", ServerURL: "https://original.example.com"}
	active.Store(original)

	handler := newCommandHandler(&active, idmgr, "/nonexistent/sennet/config.yaml", upgrader)
	handler(context.Background(), heartbeat.CommandReconfigure, "")

	require.Same(t, original, active.Load())
}
