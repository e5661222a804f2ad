// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchSignatureFilename(t *testing.T) {
	plugin, ok := matchSignature("10-calico.conflist")
	assert.True(t, ok)
	assert.Equal(t, CNICalico, plugin)
}

func TestMatchSignatureBody(t *testing.T) {
	plugin, ok := matchSignature(`{"type": "cilium-cni"}`)
	assert.True(t, ok)
	assert.Equal(t, CNICilium, plugin)
}

func TestMatchSignatureAWSVariants(t *testing.T) {
	_, ok := matchSignature("aws-cni.conflist")
	assert.True(t, ok)
	plugin, _ := matchSignature("amazon-vpc-cni-plugin")
	assert.Equal(t, CNIAWSVPC, plugin)
}

func TestMatchSignatureNone(t *testing.T) {
	_, ok := matchSignature("totally-custom-plugin")
	assert.False(t, ok)
}

func TestDetectCNIPluginMissingDirIsNotPresent(t *testing.T) {
	// In this test environment /etc/cni/net.d almost certainly doesn't
	// exist, but a host that has one may report any known plugin, so
	// this only checks that DetectCNIPlugin returns one of its tags.
	plugin := DetectCNIPlugin()
	assert.Contains(t, []CNIPlugin{CNINotPresent, CNIUnknown, CNICalico, CNICilium, CNIFlannel, CNIWeave, CNIAWSVPC}, plugin)
}
