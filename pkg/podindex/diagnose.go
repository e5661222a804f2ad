// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package podindex

import (
	"fmt"

	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Direction identifies which side of a NetworkPolicy rule produced a
// verdict.
type Direction string

const (
	DirectionIngress Direction = "ingress"
	DirectionEgress  Direction = "egress"
)

// PolicyVerdict names one policy that was consulted while evaluating
// a connection and which direction of its rules applied.
type PolicyVerdict struct {
	Name      string
	Namespace string
	Direction Direction
}

// Report is the result of a diagnose call.
type Report struct {
	Source    string
	Target    string
	Namespace string
	Allowed   bool
	Policies  []PolicyVerdict
}

// ErrNotReady is returned by Diagnose when the pod index has not
// completed its initial sync. Callers should surface this as "try
// again shortly" rather than retry in a tight loop.
var ErrNotReady = fmt.Errorf("podindex: index has not completed initial sync")

// Diagnose evaluates whether traffic from source to target on the
// given port/protocol would be permitted under standard Kubernetes
// NetworkPolicy semantics: a pod is only restricted in a direction
// once at least one policy selects it for that direction: egress
// rules on the source's policies, ingress rules on the target's.
// A pod selected by no policy in a direction allows all traffic in
// that direction.
func (idx *Index) Diagnose(source, target, namespace string, port int32, protocol string) (Report, error) {
	if !idx.Ready() {
		return Report{}, ErrNotReady
	}

	srcPod, ok := idx.Resolve(source, namespace)
	if !ok {
		return Report{}, fmt.Errorf("podindex: could not resolve source %q", source)
	}
	dstPod, ok := idx.Resolve(target, namespace)
	if !ok {
		return Report{}, fmt.Errorf("podindex: could not resolve target %q", target)
	}

	report := Report{Source: source, Target: target, Namespace: namespace}

	egressAllowed, egressVerdicts, err := idx.evaluateDirection(srcPod, dstPod, port, protocol, networkingv1.PolicyTypeEgress)
	if err != nil {
		return Report{}, err
	}
	ingressAllowed, ingressVerdicts, err := idx.evaluateDirection(dstPod, srcPod, port, protocol, networkingv1.PolicyTypeIngress)
	if err != nil {
		return Report{}, err
	}

	report.Policies = append(report.Policies, egressVerdicts...)
	report.Policies = append(report.Policies, ingressVerdicts...)
	report.Allowed = egressAllowed && ingressAllowed
	return report, nil
}

// evaluateDirection checks subject's policies of the given type
// against peer, returning whether the connection is allowed by that
// side and which policies were consulted.
func (idx *Index) evaluateDirection(subject, peer PodInfo, port int32, protocol string, policyType networkingv1.PolicyType) (bool, []PolicyVerdict, error) {
	policies, err := idx.PoliciesSelecting(subject)
	if err != nil {
		return false, nil, err
	}

	var applicable []*networkingv1.NetworkPolicy
	for _, p := range policies {
		if policyAppliesTo(p, policyType) {
			applicable = append(applicable, p)
		}
	}

	if len(applicable) == 0 {
		return true, nil, nil
	}

	verdicts := make([]PolicyVerdict, 0, len(applicable))
	direction := DirectionEgress
	if policyType == networkingv1.PolicyTypeIngress {
		direction = DirectionIngress
	}
	for _, p := range applicable {
		verdicts = append(verdicts, PolicyVerdict{Name: p.Name, Namespace: p.Namespace, Direction: direction})
	}

	for _, p := range applicable {
		if ruleSetAllows(p, policyType, peer, port, protocol) {
			return true, verdicts, nil
		}
	}
	return false, verdicts, nil
}

func policyAppliesTo(policy *networkingv1.NetworkPolicy, policyType networkingv1.PolicyType) bool {
	if len(policy.Spec.PolicyTypes) == 0 {
		// No explicit PolicyTypes: Ingress always applies; Egress only
		// applies if egress rules are present, per NetworkPolicy defaulting.
		if policyType == networkingv1.PolicyTypeIngress {
			return true
		}
		return len(policy.Spec.Egress) > 0
	}
	for _, t := range policy.Spec.PolicyTypes {
		if t == policyType {
			return true
		}
	}
	return false
}

func ruleSetAllows(policy *networkingv1.NetworkPolicy, policyType networkingv1.PolicyType, peer PodInfo, port int32, protocol string) bool {
	if policyType == networkingv1.PolicyTypeIngress {
		for _, rule := range policy.Spec.Ingress {
			if peerSelectorsMatch(rule.From, peer) && portsMatch(rule.Ports, port, protocol) {
				return true
			}
		}
		return false
	}
	for _, rule := range policy.Spec.Egress {
		if peerSelectorsMatch(rule.To, peer) && portsMatch(rule.Ports, port, protocol) {
			return true
		}
	}
	return false
}

// peerSelectorsMatch reports whether peer matches any of the rule's
// NetworkPolicyPeer entries. An empty peer list means "all sources" /
// "all destinations". Only podSelector entries (and entirely empty
// entries) are evaluated, against the peer's labels alone; an entry
// given only by namespaceSelector or ipBlock never matches.
func peerSelectorsMatch(peers []networkingv1.NetworkPolicyPeer, peer PodInfo) bool {
	if len(peers) == 0 {
		return true
	}
	for _, p := range peers {
		if p.PodSelector == nil && p.NamespaceSelector == nil && p.IPBlock == nil {
			return true
		}
		if p.PodSelector != nil {
			selector, err := metav1.LabelSelectorAsSelector(p.PodSelector)
			if err == nil && selector.Matches(labelsSet(peer.Labels)) {
				return true
			}
		}
	}
	return false
}

// portsMatch reports whether the rule's port list admits (port,
// protocol). An empty port list means "all ports"; a port of 0 matches
// any port entry whose protocol matches.
func portsMatch(rulePorts []networkingv1.NetworkPolicyPort, port int32, protocol string) bool {
	if len(rulePorts) == 0 {
		return true
	}
	for _, rp := range rulePorts {
		if rp.Protocol != nil && string(*rp.Protocol) != protocol {
			continue
		}
		if rp.Port == nil || port == 0 {
			return true
		}
		if rp.Port.IntVal == port {
			return true
		}
	}
	return false
}
