/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/carverauto/asna/pkg/agent"
	"github.com/carverauto/asna/pkg/alerts"
	"github.com/carverauto/asna/pkg/api"
	"github.com/carverauto/asna/pkg/config"
	"github.com/carverauto/asna/pkg/db"
	"github.com/carverauto/asna/pkg/detector"
	"github.com/carverauto/asna/pkg/grpc"
	"github.com/carverauto/asna/pkg/lifecycle"
	"github.com/carverauto/asna/pkg/metrics"
	"github.com/carverauto/asna/pkg/probe"
	"github.com/carverauto/asna/pkg/recovery"
	"github.com/carverauto/asna/pkg/remediation"
)

// runtime is the fully wired agent plus the surfaces that serve it.
type runtime struct {
	cfg       *config.Config
	logger    *zap.Logger
	agent     *agent.Agent
	scheduler *agent.Scheduler
	reporter  *agent.Reporter
	exporter  *metrics.Exporter
	history   *metrics.History
	journal   *db.Journal
	hub       *api.Hub
	http      *api.Server
	grpc      *grpc.Server
}

func build(cfg *config.Config, logger *zap.Logger, probes *probe.Registry, strategies *recovery.Registry) (*runtime, error) {
	identity, err := cfg.Identity()
	if err != nil {
		return nil, err
	}

	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	prober, err := probes.Get(probe.Mode(cfg.Probe.Mode), probe.Options{
		Privileged:    cfg.Probe.Privileged,
		TCPPort:       cfg.Probe.TCPPort,
		SNMPCommunity: cfg.Probe.SNMPCommunity,
		SNMPPort:      cfg.Probe.SNMPPort,
		PingBinary:    cfg.Probe.PingBinary,
	}, logger)
	if err != nil {
		return nil, err
	}

	det := detector.New(prober, detector.Config{
		ProbeTimeout: cfg.Probe.Timeout,
		ProbeCap:     cfg.Probe.Cap,
		Retries:      cfg.Probe.Retries,
		Concurrency:  cfg.Probe.Concurrency,
	}, logger)

	strategy, err := strategies.New(identity.Strategy, recovery.Settings{Actions: cfg.Recovery.Actions}, newExecutor(cfg, logger), logger)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		exporter: metrics.NewExporter(),
		history:  metrics.NewHistory(cfg.Reporting.HistorySize),
		hub:      api.NewHub(logger, cfg.HTTP.AllowedOrigins...),
	}

	observers := []agent.Observer{rt.exporter, rt.history}

	if cfg.Audit.Enabled {
		rt.journal, err = db.New(cfg.Audit.Path, logger)
		if err != nil {
			return nil, err
		}

		observers = append(observers, rt.journal)
	}

	observers = append(observers, newNotifier(cfg, logger), rt.hub)

	if cfg.GRPC.Enabled {
		rt.grpc = grpc.NewServer(cfg.GRPC.Listen, logger)
		observers = append(observers, grpc.NewHealthReporter(rt.grpc.GetHealthCheck()))
	}

	rt.agent, err = agent.New(identity, policy, det,
		recovery.NewDispatcher(strategy, cfg.Recovery.Timeout, logger),
		agent.WithLogger(logger),
		agent.WithObservers(observers...),
		agent.WithResourceSampler(metrics.NewProcessSampler(logger)),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.scheduler, err = agent.NewScheduler(rt.agent, agent.SchedulerConfig{
		Interval:     cfg.Scheduler.Interval,
		FaultBackoff: cfg.Scheduler.FaultBackoff,
	}, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.reporter = agent.NewReporter(rt.agent, cfg.Reporting.Interval, logger)

	if cfg.HTTP.Enabled {
		opts := []api.Option{
			api.WithHistory(rt.history),
			api.WithHub(rt.hub),
			api.WithMetricsHandler(rt.exporter.Handler()),
			api.WithLogger(logger),
		}

		if rt.journal != nil {
			opts = append(opts, api.WithJournal(rt.journal))
		}

		rt.http = api.NewServer(rt.agent, opts...)
	}

	return rt, nil
}

func newExecutor(cfg *config.Config, logger *zap.Logger) remediation.Executor {
	var exec remediation.Executor = remediation.NewShellExecutor(logger)

	if cfg.Remediation.DryRun {
		exec = remediation.NewDryRun(true, logger)
	}

	if cfg.Remediation.RateLimit > 0 {
		exec = remediation.NewRateLimited(exec, cfg.Remediation.RateLimit, cfg.Remediation.Burst, logger)
	}

	return exec
}

func newNotifier(cfg *config.Config, logger *zap.Logger) *alerts.Notifier {
	services := make([]alerts.AlertService, 0, len(cfg.Alerts.Webhooks)+1)

	for _, wh := range cfg.Alerts.Webhooks {
		services = append(services, alerts.NewWebhookAlerter(wh, logger))
	}

	if cfg.Alerts.Discord.URL != "" {
		services = append(services, alerts.NewDiscordWebhook(cfg.Alerts.Discord.URL, cfg.Alerts.Discord.Cooldown, logger))
	}

	return alerts.NewNotifier(logger, services...)
}

// Components lists the long-running pieces for the enabled surfaces.
func (rt *runtime) Components() []lifecycle.Component {
	components := []lifecycle.Component{
		{Name: "scheduler", Run: rt.scheduler.Start},
		{Name: "reporter", Run: rt.reporter.Start},
	}

	if rt.journal != nil {
		components = append(components, lifecycle.Component{
			Name: "journal-pruning",
			Run: func(ctx context.Context) error {
				return rt.journal.StartPruning(ctx, rt.cfg.Audit.PruneInterval, rt.cfg.Audit.Retention)
			},
		})
	}

	if rt.grpc != nil {
		components = append(components, lifecycle.Component{Name: "grpc", Run: rt.grpc.Start})
	}

	if rt.http != nil {
		components = append(components, lifecycle.Component{
			Name: "http",
			Run: func(ctx context.Context) error {
				return rt.http.Start(ctx, rt.cfg.HTTP.Listen)
			},
		})
	}

	return components
}

// Close releases the journal.
func (rt *runtime) Close() {
	if rt.journal == nil {
		return
	}

	if err := rt.journal.Close(); err != nil {
		rt.logger.Warn("failed to close journal", zap.Error(err))
	}
}
