// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

// Package sennetingerr classifies agent errors into a small, fixed set
// of kinds so callers can decide what to do with a failure (exit
// fatally, log and continue, downgrade a capability) without string
// matching on error text.
//
// This is built on the standard errors package rather than a
// third-party error-kind library: wrapping with a Kind and unwrapping
// with errors.As is a handful of lines the standard library already
// covers, and nothing in the ecosystem stack this agent otherwise
// depends on offers more than that.
package sennetingerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the agent should react to it.
type Kind int

const (
	// KindUnknown is the zero value; Of returns it for errors that
	// were never wrapped by this package.
	KindUnknown Kind = iota
	// KindConfiguration covers invalid or missing configuration.
	KindConfiguration
	// KindIdentity covers failures reading or writing agent state.
	KindIdentity
	// KindLoader covers eBPF object validation and attach failures.
	KindLoader
	// KindMap covers a pinned map being missing or the wrong shape.
	KindMap
	// KindTransport covers network failures and non-2xx responses
	// talking to the control plane.
	KindTransport
	// KindProtocol covers a control-plane response that could not be
	// parsed or carried an unrecognized command.
	KindProtocol
	// KindCapability covers an optional probe unsupported on the
	// running kernel.
	KindCapability
	// KindPermission covers insufficient privilege (missing
	// CAP_BPF/CAP_NET_ADMIN, unreadable /proc entries, and similar).
	KindPermission
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindIdentity:
		return "identity"
	case KindLoader:
		return "loader"
	case KindMap:
		return "map"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindCapability:
		return "capability"
	case KindPermission:
		return "permission"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap annotates err with kind and an operation name describing where
// the failure happened. Returns nil if err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Of reports the Kind of err, walking the Unwrap chain. Returns
// KindUnknown if neither err nor anything in its chain was wrapped by
// this package.
func Of(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Fatal reports whether an error of this kind should terminate the
// process on startup rather than be logged and handled in place.
func Fatal(kind Kind) bool {
	switch kind {
	case KindConfiguration, KindIdentity, KindLoader:
		return true
	default:
		return false
	}
}
