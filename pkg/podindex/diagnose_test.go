// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package podindex

import (
	"context"
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tcpProtocol() *corev1.Protocol {
	p := corev1.ProtocolTCP
	return &p
}

func startedIndexWithPolicies(t *testing.T, pods []*corev1.Pod, policies []*networkingv1.NetworkPolicy) (*Index, context.CancelFunc) {
	t.Helper()
	client := fake.NewSimpleClientset()
	for _, p := range pods {
		_, err := client.CoreV1().Pods(p.Namespace).Create(context.Background(), p, metav1.CreateOptions{})
		require.NoError(t, err)
	}
	for _, p := range policies {
		_, err := client.NetworkingV1().NetworkPolicies(p.Namespace).Create(context.Background(), p, metav1.CreateOptions{})
		require.NoError(t, err)
	}

	idx := NewIndex(client, "")
	ctx, cancel := context.WithCancel(context.Background())
	go idx.Start(ctx)
	require.True(t, idx.WaitForSync(context.Background(), 5*time.Second))
	return idx, cancel
}

func TestDiagnoseAllowsWhenNoPoliciesSelectEitherPod(t *testing.T) {
	pods := []*corev1.Pod{
		pod("client", "default", "10.0.0.1", map[string]string{"app": "client"}),
		pod("server", "default", "10.0.0.2", map[string]string{"app": "server"}),
	}
	idx, cancel := startedIndexWithPolicies(t, pods, nil)
	defer cancel()

	report, err := idx.Diagnose("client", "server", "default", 80, "TCP")
	require.NoError(t, err)
	assert.True(t, report.Allowed)
	assert.Empty(t, report.Policies)
}

func TestDiagnoseDefaultDenyIngressWithoutMatchingRule(t *testing.T) {
	pods := []*corev1.Pod{
		pod("client", "default", "10.0.0.1", map[string]string{"app": "client"}),
		pod("server", "default", "10.0.0.2", map[string]string{"app": "server"}),
	}
	// A NetworkPolicy selecting "server" with no ingress rules is
	// default-deny for ingress: being selected at all switches the pod
	// into deny-all-unless-matched for that direction.
	policy := &networkingv1.NetworkPolicy{
		ObjectMeta: metav1.ObjectMeta{Name: "deny-all", Namespace: "default"},
		Spec: networkingv1.NetworkPolicySpec{
			PodSelector: metav1.LabelSelector{MatchLabels: map[string]string{"app": "server"}},
			PolicyTypes: []networkingv1.PolicyType{networkingv1.PolicyTypeIngress},
		},
	}
	idx, cancel := startedIndexWithPolicies(t, pods, []*networkingv1.NetworkPolicy{policy})
	defer cancel()

	report, err := idx.Diagnose("client", "server", "default", 80, "TCP")
	require.NoError(t, err)
	assert.False(t, report.Allowed)
	require.Len(t, report.Policies, 1)
	assert.Equal(t, DirectionIngress, report.Policies[0].Direction)
}

func TestDiagnoseAllowsWhenIngressRuleMatchesSourceAndPort(t *testing.T) {
	pods := []*corev1.Pod{
		pod("client", "default", "10.0.0.1", map[string]string{"app": "client"}),
		pod("server", "default", "10.0.0.2", map[string]string{"app": "server"}),
	}
	port := intstr.FromInt(80)
	policy := &networkingv1.NetworkPolicy{
		ObjectMeta: metav1.ObjectMeta{Name: "allow-client", Namespace: "default"},
		Spec: networkingv1.NetworkPolicySpec{
			PodSelector: metav1.LabelSelector{MatchLabels: map[string]string{"app": "server"}},
			PolicyTypes: []networkingv1.PolicyType{networkingv1.PolicyTypeIngress},
			Ingress: []networkingv1.NetworkPolicyIngressRule{
				{
					From: []networkingv1.NetworkPolicyPeer{
						{PodSelector: &metav1.LabelSelector{MatchLabels: map[string]string{"app": "client"}}},
					},
					Ports: []networkingv1.NetworkPolicyPort{
						{Protocol: tcpProtocol(), Port: &port},
					},
				},
			},
		},
	}
	idx, cancel := startedIndexWithPolicies(t, pods, []*networkingv1.NetworkPolicy{policy})
	defer cancel()

	report, err := idx.Diagnose("client", "server", "default", 80, "TCP")
	require.NoError(t, err)
	assert.True(t, report.Allowed)
}

func TestDiagnoseBlocksWhenIngressRuleMatchesWrongPort(t *testing.T) {
	pods := []*corev1.Pod{
		pod("client", "default", "10.0.0.1", map[string]string{"app": "client"}),
		pod("server", "default", "10.0.0.2", map[string]string{"app": "server"}),
	}
	port := intstr.FromInt(443)
	policy := &networkingv1.NetworkPolicy{
		ObjectMeta: metav1.ObjectMeta{Name: "allow-client-443", Namespace: "default"},
		Spec: networkingv1.NetworkPolicySpec{
			PodSelector: metav1.LabelSelector{MatchLabels: map[string]string{"app": "server"}},
			PolicyTypes: []networkingv1.PolicyType{networkingv1.PolicyTypeIngress},
			Ingress: []networkingv1.NetworkPolicyIngressRule{
				{
					From:  []networkingv1.NetworkPolicyPeer{{PodSelector: &metav1.LabelSelector{MatchLabels: map[string]string{"app": "client"}}}},
					Ports: []networkingv1.NetworkPolicyPort{{Protocol: tcpProtocol(), Port: &port}},
				},
			},
		},
	}
	idx, cancel := startedIndexWithPolicies(t, pods, []*networkingv1.NetworkPolicy{policy})
	defer cancel()

	report, err := idx.Diagnose("client", "server", "default", 80, "TCP")
	require.NoError(t, err)
	assert.False(t, report.Allowed)
}

func TestDiagnoseReturnsErrNotReadyBeforeSync(t *testing.T) {
	client := fake.NewSimpleClientset()
	idx := NewIndex(client, "")

	_, err := idx.Diagnose("client", "server", "default", 80, "TCP")
	assert.ErrorIs(t, err, ErrNotReady)
}
