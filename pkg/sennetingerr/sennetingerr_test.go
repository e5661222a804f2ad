// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package sennetingerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(KindTransport, "heartbeat", nil))
}

func TestOfReturnsWrappedKind(t *testing.T) {
	err := Wrap(KindLoader, "attach", errors.New("verifier rejected program"))
	assert.Equal(t, KindLoader, Of(err))
}

func TestOfReturnsUnknownForPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, Of(errors.New("plain")))
}

func TestOfWalksWrappedChain(t *testing.T) {
	inner := Wrap(KindMap, "lookup", errors.New("map not pinned"))
	outer := fmt.Errorf("reading counters: %w", inner)
	assert.Equal(t, KindMap, Of(outer))
}

func TestFatalClassification(t *testing.T) {
	assert.True(t, Fatal(KindConfiguration))
	assert.True(t, Fatal(KindIdentity))
	assert.True(t, Fatal(KindLoader))
	assert.False(t, Fatal(KindTransport))
	assert.False(t, Fatal(KindCapability))
}

func TestErrorMessageIncludesOp(t *testing.T) {
	err := Wrap(KindConfiguration, "load", errors.New("api_key missing"))
	assert.Contains(t, err.Error(), "load")
	assert.Contains(t, err.Error(), "configuration")
}
