// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package heartbeat

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/sennet-io/sennet-agent/pkg/kernelabi"
	"github.com/sennet-io/sennet-agent/pkg/sennetingerr"
)

// Identity is the subset of identity.Manager the loop needs. Narrowed
// to an interface here so this package never imports pkg/identity.
type Identity interface {
	AgentID() string
	Version() string
}

// MetricsSource supplies the counter snapshot attached to each
// heartbeat. Implemented by *ebpf.Manager in production.
type MetricsSource interface {
	ReadCounters() (kernelabi.PacketCounters, error)
}

// CommandHandler reacts to a command the control plane returns with a
// heartbeat response. latestVersion is only meaningful for
// CommandUpgrade.
type CommandHandler func(ctx context.Context, cmd Command, latestVersion string)

// Loop drives periodic heartbeats against a control plane, retrying
// transient failures with exponential backoff and invoking a handler
// for whatever command comes back.
type Loop struct {
	client    *Client
	identity  Identity
	metrics   MetricsSource
	interval  time.Duration
	handler   CommandHandler
	startedAt time.Time

	log *logrus.Entry
}

// NewLoop builds a heartbeat Loop. metrics may be nil, in which case
// heartbeats are sent without a metrics summary.
func NewLoop(client *Client, identity Identity, metrics MetricsSource, interval time.Duration, handler CommandHandler) *Loop {
	return &Loop{
		client:    client,
		identity:  identity,
		metrics:   metrics,
		interval:  interval,
		handler:   handler,
		startedAt: time.Now(),
		log:       logrus.WithField("component", "heartbeat"),
	}
}

// Run sends heartbeats on the configured interval until ctx is
// canceled. Each heartbeat attempt itself retries transient failures
// with exponential backoff, capped so one slow heartbeat never delays
// the next scheduled tick by more than the backoff's max elapsed time.
func (l *Loop) Run(ctx context.Context) error {
	l.log.WithField("interval", l.interval).Info("starting heartbeat loop")

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	resp, err := l.sendWithRetry(ctx)
	if err != nil {
		l.log.WithError(err).Warn("heartbeat failed after retries")
		return
	}

	l.log.WithFields(logrus.Fields{
		"command":        resp.Command,
		"latest_version": resp.LatestVersion,
	}).Info("heartbeat succeeded")

	cmd, latestVersion := resp.Command, resp.LatestVersion
	if err := validateResponse(resp); err != nil {
		l.log.WithError(err).Warn("malformed heartbeat response, treating as NOOP")
		cmd, latestVersion = CommandNoop, ""
	}

	if l.handler != nil {
		l.handler(ctx, cmd, latestVersion)
	}
}

// validateResponse rejects responses that name a command but omit the
// fields that command requires to act on, per the protocol-error
// handling policy: an UPGRADE command with no latestVersion to upgrade
// to cannot be acted on and is downgraded to NOOP rather than trusted.
func validateResponse(resp Response) error {
	if resp.Command == CommandUpgrade && resp.LatestVersion == "" {
		return sennetingerr.Wrap(sennetingerr.KindProtocol, "heartbeat.validateResponse", fmt.Errorf("upgrade command missing latestVersion"))
	}
	return nil
}

// sendWithRetry sends one heartbeat, retrying transient errors with
// exponential backoff bounded at five minutes total.
func (l *Loop) sendWithRetry(ctx context.Context) (Response, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 60 * time.Second
	b.MaxElapsedTime = 5 * time.Minute

	req := l.buildRequest()

	var resp Response
	op := func() error {
		r, err := l.client.Heartbeat(ctx, req)
		if err != nil {
			l.log.WithError(err).Debug("heartbeat attempt failed, retrying")
			return err
		}
		resp = r
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return Response{}, err
	}
	return resp, nil
}

func (l *Loop) buildRequest() Request {
	req := Request{
		AgentID:        l.identity.AgentID(),
		CurrentVersion: l.identity.Version(),
	}

	if l.metrics == nil {
		return req
	}

	counters, err := l.metrics.ReadCounters()
	if err != nil {
		l.log.WithError(err).Warn("failed to read counters for heartbeat metrics")
		return req
	}

	req.Metrics = &MetricsSummary{
		RxPackets:     counters.RxPackets,
		RxBytes:       counters.RxBytes,
		TxPackets:     counters.TxPackets,
		TxBytes:       counters.TxBytes,
		DropCount:     counters.DropCount,
		UptimeSeconds: uint64(time.Since(l.startedAt).Seconds()),
	}
	return req
}

// DefaultCommandHandler only logs each command: upgrade and reconfigure
// are logged at info level and not acted on, and an unrecognized
// command is logged as a warning.
func DefaultCommandHandler(log *logrus.Entry) CommandHandler {
	return func(_ context.Context, cmd Command, latestVersion string) {
		switch cmd {
		case CommandNoop, "":
			log.Debug("no action required")
		case CommandUpgrade:
			log.WithField("latest_version", latestVersion).Info("upgrade available")
		case CommandReconfigure:
			log.Info("reconfiguration requested")
		default:
			log.WithField("command", cmd).Warn("received unrecognized command")
		}
	}
}
