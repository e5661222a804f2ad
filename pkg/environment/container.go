// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package environment

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// minContainerIDLen is the shortest id prefix considered plausible; it
// guards against matching a truncated or garbled cgroup path segment.
const minContainerIDLen = 12

// cgroupScopePrefixes maps a systemd-cradle scope prefix to nothing in
// particular - order matters, most specific first, since
// "cri-containerd-" contains "containerd-" as a substring.
var cgroupScopePrefixes = []string{
	"cri-containerd-",
	"containerd-",
	"docker-",
	"libpod-",
	"crio-",
}

// ContainerIDFromPID reads /proc/<pid>/cgroup and returns the container
// id embedded in it, recognizing the path shapes produced by Docker
// (direct cgroupfs and systemd-cradled scope units), containerd, CRI
// containerd, Podman, and CRI-O. Returns "", false when no recognized
// format is found, including when the process isn't containerized at
// all.
func ContainerIDFromPID(pid int) (string, bool) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/cgroup", pid))
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			continue
		}
		path := parts[2]

		if id, ok := strings.CutPrefix(path, "/docker/"); ok {
			if len(id) >= minContainerIDLen {
				return id, true
			}
		}

		if id, ok := idFromScope(path); ok {
			return id, true
		}
	}
	return "", false
}

// idFromScope extracts a container id from a systemd scope-unit cgroup
// path segment, e.g. /system.slice/docker-<id>.scope or
// /kubepods/burstable/pod.../cri-containerd-<id>.scope.
func idFromScope(path string) (string, bool) {
	if !strings.HasSuffix(path, ".scope") {
		return "", false
	}
	for _, prefix := range cgroupScopePrefixes {
		idx := strings.LastIndex(path, prefix)
		if idx < 0 {
			continue
		}
		id := path[idx+len(prefix):]
		id = strings.TrimSuffix(id, ".scope")
		if len(id) >= minContainerIDLen {
			return id, true
		}
	}
	return "", false
}

// IsProcessContainerized reports whether pid's cgroup matches any
// recognized container runtime path shape.
func IsProcessContainerized(pid int) bool {
	_, ok := ContainerIDFromPID(pid)
	return ok
}
