// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscoverInterfaceRejectsNonexistentOverride(t *testing.T) {
	_, err := DiscoverInterface("nonexistent-iface-sennet-test")
	assert.Error(t, err)
}
