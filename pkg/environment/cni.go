// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package environment

import (
	"os"
	"path/filepath"
	"strings"
)

// CNIPlugin is a closed set of recognized CNI plugin tags.
type CNIPlugin string

const (
	CNICalico     CNIPlugin = "calico"
	CNICilium     CNIPlugin = "cilium"
	CNIFlannel    CNIPlugin = "flannel"
	CNIWeave      CNIPlugin = "weave"
	CNIAWSVPC     CNIPlugin = "aws-vpc-cni"
	CNIUnknown    CNIPlugin = "unknown"
	CNINotPresent CNIPlugin = "none"
)

const cniConfigDir = "/etc/cni/net.d"

// cniSignatures maps a substring found in either a config filename or its
// body to the plugin it signposts. Checked in order; first match wins.
var cniSignatures = []struct {
	needle string
	plugin CNIPlugin
}{
	{"calico", CNICalico},
	{"cilium", CNICilium},
	{"flannel", CNIFlannel},
	{"weave", CNIWeave},
	{"aws-cni", CNIAWSVPC},
	{"vpc-cni", CNIAWSVPC},
}

// DetectCNIPlugin inspects the CNI configuration directory's filenames
// and file contents for known plugin signatures. Returns CNINotPresent
// if the directory doesn't exist or is empty, CNIUnknown if config files
// exist but none match a known signature.
func DetectCNIPlugin() CNIPlugin {
	entries, err := os.ReadDir(cniConfigDir)
	if err != nil || len(entries) == 0 {
		return CNINotPresent
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if plugin, ok := matchSignature(name); ok {
			return plugin
		}

		body, err := os.ReadFile(filepath.Join(cniConfigDir, entry.Name()))
		if err != nil {
			continue
		}
		if plugin, ok := matchSignature(strings.ToLower(string(body))); ok {
			return plugin
		}
	}

	return CNIUnknown
}

func matchSignature(haystack string) (CNIPlugin, bool) {
	for _, sig := range cniSignatures {
		if strings.Contains(haystack, sig.needle) {
			return sig.plugin, true
		}
	}
	return "", false
}
