// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

// Package upgrade defines the self-upgrade collaborator's interface and
// the re-exec step that hands a freshly replaced binary the running
// process's slot. The collaborator's actual download/verify mechanics
// are an external concern (out of scope for the kernel-telemetry core,
// per the system design); this package owns only the contract the
// heartbeat command dispatcher calls into and the re-exec primitive
// both a real and a test double share.
package upgrade

import (
	"context"
	"fmt"
	"os"
	"syscall"
)

// Upgrader fetches and installs latestVersion in place of the currently
// running binary, returning once the new binary is on disk and ready to
// be exec'd into. It does not itself re-exec; ReExec does that once
// Upgrade has returned successfully.
type Upgrader interface {
	Upgrade(ctx context.Context, latestVersion string) error
}

// Unconfigured is the default Upgrader wired when no self-update
// mechanism has been configured for this install: it reports a clear
// capability error rather than pretending to succeed.
type Unconfigured struct{}

func (Unconfigured) Upgrade(_ context.Context, latestVersion string) error {
	return fmt.Errorf("upgrade: no self-update mechanism configured (requested %s)", latestVersion)
}

// ReExec replaces the current process image with the binary at path,
// preserving argv and the environment, so the new binary takes over the
// same process slot (and with it, the same pinned eBPF map handles and
// agent identity) rather than going through a stop/start cycle that
// would briefly lose counter state.
func ReExec(path string, argv []string) error {
	env := os.Environ()
	if err := syscall.Exec(path, argv, env); err != nil {
		return fmt.Errorf("upgrade: re-exec %s: %w", path, err)
	}
	return nil
}
