// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/sennet-io/sennet-agent/pkg/podindex"
)

// newDiagnoseCommand builds the pod-to-pod policy analysis subcommand:
// it stands up a short-lived pod/NetworkPolicy index, waits for its
// initial sync, and evaluates whether traffic between two pods would be
// permitted under Kubernetes NetworkPolicy semantics.
func newDiagnoseCommand(flags *globalFlags) *cobra.Command {
	var (
		namespace  string
		kubeconfig string
		port       int32
		protocol   string
		syncWait   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "diagnose <source> <target>",
		Short: "Analyze whether NetworkPolicy permits traffic between two pods",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd.Context(), kubeconfig, namespace, args[0], args[1], port, protocol, syncWait, os.Stdout)
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "default", "namespace to resolve source/target pods in")
	cmd.Flags().StringVar(&kubeconfig, "kubeconfig", defaultKubeconfigPath(), "path to kubeconfig (empty uses in-cluster config)")
	cmd.Flags().Int32Var(&port, "port", 0, "destination port to evaluate (0 means any port)")
	cmd.Flags().StringVar(&protocol, "proto", "TCP", "protocol to evaluate (TCP, UDP, SCTP)")
	cmd.Flags().DurationVar(&syncWait, "sync-wait", 10*time.Second, "how long to wait for the pod index's initial sync")
	return cmd
}

func defaultKubeconfigPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".kube", "config")
	}
	return ""
}

func runDiagnose(ctx context.Context, kubeconfigPath, namespace, source, target string, port int32, protocol string, syncWait time.Duration, out *os.File) error {
	client, err := buildKubeClient(kubeconfigPath)
	if err != nil {
		return fmt.Errorf("build kubernetes client: %w", err)
	}

	idx := podindex.NewIndex(client, namespace)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go idx.Start(runCtx)

	if !idx.WaitForSync(runCtx, syncWait) {
		return fmt.Errorf("pod index did not finish its initial sync within %s", syncWait)
	}

	report, err := idx.Diagnose(source, target, namespace, port, protocol)
	if err != nil {
		return fmt.Errorf("diagnose: %w", err)
	}

	printDiagnoseReport(out, report)
	return nil
}

func printDiagnoseReport(out *os.File, report podindex.Report) {
	verdict := "ALLOWED"
	if !report.Allowed {
		verdict = "BLOCKED"
	}
	fmt.Fprintf(out, "%s -> %s (namespace %s): %s\n", report.Source, report.Target, report.Namespace, verdict)
	if len(report.Policies) == 0 {
		fmt.Fprintln(out, "  no NetworkPolicy selects either pod in the relevant direction")
		return
	}
	fmt.Fprintln(out, "  policies consulted:")
	for _, p := range report.Policies {
		fmt.Fprintf(out, "    - %s/%s (%s)\n", p.Namespace, p.Name, p.Direction)
	}
}

// buildKubeClient resolves a kubernetes.Interface the same way kubectl
// does: an explicit kubeconfig file if one exists, falling back to the
// in-cluster service account config when run as a pod.
func buildKubeClient(kubeconfigPath string) (kubernetes.Interface, error) {
	var (
		cfg *rest.Config
		err error
	)
	if kubeconfigPath != "" {
		if _, statErr := os.Stat(kubeconfigPath); statErr == nil {
			cfg, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
		}
	}
	if cfg == nil {
		cfg, err = rest.InClusterConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("resolve kubernetes config: %w", err)
	}
	return kubernetes.NewForConfig(cfg)
}
