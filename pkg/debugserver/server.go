// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

// Package debugserver exposes the running agent's folded packet
// counters and drop statistics on a loopback-only HTTP endpoint, for
// operators running status/top against a live agent. It is disabled
// by default and never required by the control-plane protocol.
package debugserver

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/sennet-io/sennet-agent/pkg/kernelabi"
)

// CounterSource supplies the gauge values this server publishes. The
// debug server polls it on every scrape rather than pushing values
// itself, so a Prometheus scrape always reflects the latest read.
type CounterSource interface {
	RxPackets() uint64
	RxBytes() uint64
	TxPackets() uint64
	TxBytes() uint64
	DropCount() uint64
}

// Server is a loopback-bound HTTP server publishing /debug/metrics.
type Server struct {
	addr     string
	registry *prometheus.Registry
	httpSrv  *http.Server
	log      *logrus.Entry
}

// New builds a Server bound to addr (expected to be a 127.0.0.1 or
// localhost address; callers are responsible for choosing a loopback
// address, this package does not enforce one). source is polled for
// each gauge on every scrape.
func New(addr string, source CounterSource) *Server {
	registry := prometheus.NewRegistry()

	registerGaugeFunc(registry, "sennet_rx_packets_total", "Total packets received.", source.RxPackets)
	registerGaugeFunc(registry, "sennet_rx_bytes_total", "Total bytes received.", source.RxBytes)
	registerGaugeFunc(registry, "sennet_tx_packets_total", "Total packets transmitted.", source.TxPackets)
	registerGaugeFunc(registry, "sennet_tx_bytes_total", "Total bytes transmitted.", source.TxBytes)
	registerGaugeFunc(registry, "sennet_drop_count_total", "Total packets dropped.", source.DropCount)

	mux := http.NewServeMux()
	mux.Handle("/debug/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &Server{
		addr:     addr,
		registry: registry,
		httpSrv:  &http.Server{Addr: addr, Handler: mux},
		log:      logrus.WithField("component", "debugserver"),
	}
}

func registerGaugeFunc(registry *prometheus.Registry, name, help string, read func() uint64) {
	registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: name, Help: help},
		func() float64 { return float64(read()) },
	))
}

// ListenAndServe starts the server and blocks until it stops. Returns
// nil on a clean shutdown via Shutdown, any other error otherwise.
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("debugserver: listen on %s: %w", s.addr, err)
	}
	s.log.WithField("addr", s.addr).Info("debug metrics endpoint listening")

	if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("debugserver: serve: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// CounterFunc adapts a function returning the current folded counters
// into a CounterSource, so a caller only needs a small closure around
// *ebpf.Manager.ReadCounters (which also returns an error) rather than a
// dedicated adapter type.
type CounterFunc func() kernelabi.PacketCounters

func (f CounterFunc) RxPackets() uint64 { return f().RxPackets }
func (f CounterFunc) RxBytes() uint64   { return f().RxBytes }
func (f CounterFunc) TxPackets() uint64 { return f().TxPackets }
func (f CounterFunc) TxBytes() uint64   { return f().TxBytes }
func (f CounterFunc) DropCount() uint64 { return f().DropCount }
