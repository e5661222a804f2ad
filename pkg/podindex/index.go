// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

// Package podindex maintains a read-mostly, informer-backed cache of
// Pods and NetworkPolicies, used to enrich flows with pod identity and
// to answer connectivity questions in diagnose without ever blocking
// the kernel-telemetry data path on a Kubernetes API call.
package podindex

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/kubernetes"
	corelisters "k8s.io/client-go/listers/core/v1"
	networkinglisters "k8s.io/client-go/listers/networking/v1"
	"k8s.io/client-go/tools/cache"
)

const defaultResync = 10 * time.Minute

// policyCacheSize bounds the PoliciesSelecting memoization. Sized for a
// single node's worth of distinct pods between policy changes, not the
// whole cluster.
const policyCacheSize = 512

// PodInfo is the subset of pod metadata the index exposes.
type PodInfo struct {
	Name      string
	Namespace string
	IP        string
	Labels    map[string]string
}

// Index watches Pods and NetworkPolicies across the cluster (or one
// namespace, if restricted) and serves lookups against the informer's
// local cache.
type Index struct {
	factory informers.SharedInformerFactory

	podInformer    cache.SharedIndexInformer
	podLister      corelisters.PodLister
	policyInformer cache.SharedIndexInformer
	policyLister   networkinglisters.NetworkPolicyLister

	// policyCache memoizes PoliciesSelecting by "namespace/name", purged
	// wholesale on any NetworkPolicy add/update/delete so a result never
	// outlives the policy set it was computed against.
	policyCache *lru.Cache[string, []*networkingv1.NetworkPolicy]
}

// NewIndex builds an Index against client. An empty namespace watches
// every namespace the client's credentials can see.
func NewIndex(client kubernetes.Interface, namespace string) *Index {
	var factory informers.SharedInformerFactory
	if namespace == "" {
		factory = informers.NewSharedInformerFactory(client, defaultResync)
	} else {
		factory = informers.NewSharedInformerFactoryWithOptions(client, defaultResync, informers.WithNamespace(namespace))
	}

	pods := factory.Core().V1().Pods()
	policies := factory.Networking().V1().NetworkPolicies()
	policyCache, _ := lru.New[string, []*networkingv1.NetworkPolicy](policyCacheSize)

	idx := &Index{
		factory:        factory,
		podInformer:    pods.Informer(),
		podLister:      pods.Lister(),
		policyInformer: policies.Informer(),
		policyLister:   policies.Lister(),
		policyCache:    policyCache,
	}

	purge := func(interface{}) { idx.policyCache.Purge() }
	idx.policyInformer.AddEventHandler(cache.ResourceEventHandlerFuncs{
		AddFunc:    purge,
		UpdateFunc: func(_, _ interface{}) { idx.policyCache.Purge() },
		DeleteFunc: purge,
	})

	return idx
}

// Start begins the informers and blocks until ctx is canceled. Run it
// in its own goroutine; the index is usable (Ready reports true) once
// the initial list-and-watch sync completes.
func (idx *Index) Start(ctx context.Context) {
	idx.factory.Start(ctx.Done())
	<-ctx.Done()
}

// WaitForSync blocks until the pod and policy caches have completed
// their initial sync or timeout elapses, whichever comes first.
func (idx *Index) WaitForSync(ctx context.Context, timeout time.Duration) bool {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	synced := idx.factory.WaitForCacheSync(waitCtx.Done())
	for _, ok := range synced {
		if !ok {
			return false
		}
	}
	return true
}

// Ready reports whether both informers have completed their initial
// sync. Callers on the hot path (flow enrichment, heartbeat) should
// treat a not-ready index as "no data available" rather than block.
func (idx *Index) Ready() bool {
	return idx.podInformer.HasSynced() && idx.policyInformer.HasSynced()
}

// LookupPodByIP does a linear scan of the cached pods for a matching
// PodIP. The pod count on a single node's worth of telemetry is small
// enough that this beats maintaining a second IP-keyed index in sync.
func (idx *Index) LookupPodByIP(ip string) (PodInfo, bool) {
	if !idx.Ready() {
		return PodInfo{}, false
	}
	pods, err := idx.podLister.List(labels.Everything())
	if err != nil {
		return PodInfo{}, false
	}
	for _, pod := range pods {
		if pod.Status.PodIP == ip {
			return toPodInfo(pod), true
		}
	}
	return PodInfo{}, false
}

// LookupPod resolves a pod by namespace/name.
func (idx *Index) LookupPod(namespace, name string) (PodInfo, bool) {
	if !idx.Ready() {
		return PodInfo{}, false
	}
	pod, err := idx.podLister.Pods(namespace).Get(name)
	if err != nil {
		return PodInfo{}, false
	}
	return toPodInfo(pod), true
}

// Resolve interprets ref as "namespace/name", a bare IP address, or a
// bare pod name in defaultNamespace, returning the matching pod.
func (idx *Index) Resolve(ref, defaultNamespace string) (PodInfo, bool) {
	if ns, name, ok := splitNamespacedName(ref); ok {
		return idx.LookupPod(ns, name)
	}
	if pod, ok := idx.LookupPodByIP(ref); ok {
		return pod, true
	}
	return idx.LookupPod(defaultNamespace, ref)
}

// PoliciesSelecting returns every NetworkPolicy in pod's namespace
// whose podSelector matches pod's labels. Results are memoized per pod
// until the next policy add/update/delete, since diagnose evaluates the
// same pods against the same policy set repeatedly.
func (idx *Index) PoliciesSelecting(pod PodInfo) ([]*networkingv1.NetworkPolicy, error) {
	key := pod.Namespace + "/" + pod.Name
	if cached, ok := idx.policyCache.Get(key); ok {
		return cached, nil
	}

	all, err := idx.policyLister.NetworkPolicies(pod.Namespace).List(labels.Everything())
	if err != nil {
		return nil, fmt.Errorf("podindex: list network policies in %s: %w", pod.Namespace, err)
	}

	var matching []*networkingv1.NetworkPolicy
	for _, policy := range all {
		selector, err := selectorForPolicy(policy)
		if err != nil {
			continue
		}
		if selector.Matches(labelsSet(pod.Labels)) {
			matching = append(matching, policy)
		}
	}
	idx.policyCache.Add(key, matching)
	return matching, nil
}

func selectorForPolicy(policy *networkingv1.NetworkPolicy) (labels.Selector, error) {
	return metav1.LabelSelectorAsSelector(&policy.Spec.PodSelector)
}

func labelsSet(l map[string]string) labels.Set {
	if l == nil {
		return labels.Set{}
	}
	return labels.Set(l)
}

func toPodInfo(pod *corev1.Pod) PodInfo {
	return PodInfo{
		Name:      pod.Name,
		Namespace: pod.Namespace,
		IP:        pod.Status.PodIP,
		Labels:    pod.Labels,
	}
}

func splitNamespacedName(ref string) (namespace, name string, ok bool) {
	for i := 0; i < len(ref); i++ {
		if ref[i] == '/' {
			return ref[:i], ref[i+1:], true
		}
	}
	return "", "", false
}
