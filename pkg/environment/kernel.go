// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package environment

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const btfPath = "/sys/kernel/btf/vmlinux"

// minCoreKernelMajor/Minor is the lowest kernel version CO-RE is
// considered reliable on (5.10+).
const (
	minCoreKernelMajor = 5
	minCoreKernelMinor = 10
)

// KernelCapabilities summarizes what the running kernel offers the
// probe loader.
type KernelCapabilities struct {
	BTFAvailable    bool
	KernelVersion   string // "major.minor.patch", empty if undetermined
	KernelSupported bool
	COREAvailable   bool
}

// DetectKernelCapabilities reads the host's BTF exposure and kernel
// release string. CO-RE is reported available only when BTF is present
// and the kernel is at or above the minimum supported version.
func DetectKernelCapabilities() KernelCapabilities {
	btf := btfAvailable()
	major, minor, patch, ok := kernelVersion()

	caps := KernelCapabilities{BTFAvailable: btf}
	if ok {
		caps.KernelVersion = strconv.Itoa(major) + "." + strconv.Itoa(minor) + "." + strconv.Itoa(patch)
		caps.KernelSupported = major > minCoreKernelMajor || (major == minCoreKernelMajor && minor >= minCoreKernelMinor)
	}
	caps.COREAvailable = btf && caps.KernelSupported
	return caps
}

func btfAvailable() bool {
	_, err := os.Stat(btfPath)
	return err == nil
}

// kernelVersion reads the running kernel's release string via the
// uname(2) syscall, which looks like "6.8.0-31-generic" or "5.15.0".
// Trailing non-numeric suffixes on a field (e.g. "0-31-generic") are
// trimmed at the first non-digit.
func kernelVersion() (major, minor, patch int, ok bool) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return 0, 0, 0, false
	}
	release := unix.ByteSliceToString(uts.Release[:])

	fields := strings.SplitN(strings.TrimSpace(release), ".", 3)
	if len(fields) < 2 {
		return 0, 0, 0, false
	}

	major, err = strconv.Atoi(leadingDigits(fields[0]))
	if err != nil {
		return 0, 0, 0, false
	}
	minor, err = strconv.Atoi(leadingDigits(fields[1]))
	if err != nil {
		return 0, 0, 0, false
	}
	if len(fields) > 2 {
		patch, _ = strconv.Atoi(leadingDigits(fields[2]))
	}
	return major, minor, patch, true
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}
