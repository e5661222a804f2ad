// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package podindex

import (
	"context"
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pod(name, namespace, ip string, labels map[string]string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace, Labels: labels},
		Status:     corev1.PodStatus{PodIP: ip},
	}
}

func startedIndex(t *testing.T, objects ...interface{}) (*Index, context.CancelFunc) {
	t.Helper()
	client := fake.NewSimpleClientset()
	for _, obj := range objects {
		switch o := obj.(type) {
		case *corev1.Pod:
			_, err := client.CoreV1().Pods(o.Namespace).Create(context.Background(), o, metav1.CreateOptions{})
			require.NoError(t, err)
		}
	}

	idx := NewIndex(client, "")
	ctx, cancel := context.WithCancel(context.Background())
	go idx.Start(ctx)

	require.True(t, idx.WaitForSync(context.Background(), 5*time.Second))
	return idx, cancel
}

func TestLookupPodByIP(t *testing.T) {
	idx, cancel := startedIndex(t, pod("web-1", "default", "10.0.0.5", map[string]string{"app": "web"}))
	defer cancel()

	info, ok := idx.LookupPodByIP("10.0.0.5")
	require.True(t, ok)
	assert.Equal(t, "web-1", info.Name)
	assert.Equal(t, "default", info.Namespace)
}

func TestLookupPodByIPMiss(t *testing.T) {
	idx, cancel := startedIndex(t, pod("web-1", "default", "10.0.0.5", nil))
	defer cancel()

	_, ok := idx.LookupPodByIP("10.0.0.9")
	assert.False(t, ok)
}

func TestResolveNamespacedName(t *testing.T) {
	idx, cancel := startedIndex(t, pod("web-1", "default", "10.0.0.5", nil))
	defer cancel()

	info, ok := idx.Resolve("default/web-1", "default")
	require.True(t, ok)
	assert.Equal(t, "web-1", info.Name)
}

func TestResolveFallsBackToIP(t *testing.T) {
	idx, cancel := startedIndex(t, pod("web-1", "default", "10.0.0.5", nil))
	defer cancel()

	info, ok := idx.Resolve("10.0.0.5", "default")
	require.True(t, ok)
	assert.Equal(t, "web-1", info.Name)
}

func TestNotReadyBeforeSync(t *testing.T) {
	client := fake.NewSimpleClientset()
	idx := NewIndex(client, "")
	assert.False(t, idx.Ready())

	_, ok := idx.LookupPodByIP("10.0.0.1")
	assert.False(t, ok)
}
