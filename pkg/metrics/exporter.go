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

// Package metrics exports agent events as Prometheus metrics and keeps a
// short in-memory history of cycles.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carverauto/asna/pkg/models"
)

const namespace = "asna"

var durationBuckets = []float64{0.5, 1, 2.5, 5, 10, 15, 30, 60, 120, 300, 600}

// Exporter turns agent events into Prometheus series on its own registry.
type Exporter struct {
	registry *prometheus.Registry

	cycles           *prometheus.CounterVec
	isolated         *prometheus.GaugeVec
	reachable        *prometheus.GaugeVec
	transitions      *prometheus.CounterVec
	dispatches       *prometheus.CounterVec
	actions          *prometheus.CounterVec
	probes           *prometheus.CounterVec
	mttr             *prometheus.HistogramVec
	detectionLatency *prometheus.HistogramVec
}

// NewExporter registers the agent collectors plus the Go runtime and
// process collectors.
func NewExporter() *Exporter {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := promauto.With(reg)

	return &Exporter{
		registry: reg,
		cycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Completed health-check cycles.",
		}, []string{"device"}),
		isolated: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "isolated",
			Help:      "1 while the device is isolated.",
		}, []string{"device", "role"}),
		reachable: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "targets_reachable",
			Help:      "Targets that answered in the last cycle.",
		}, []string{"device"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Isolation state transitions.",
		}, []string{"device", "transition"}),
		dispatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovery_dispatches_total",
			Help:      "Recovery dispatches by strategy and result.",
		}, []string{"device", "strategy", "result"}),
		actions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovery_actions_total",
			Help:      "Remediation commands run by action and result.",
		}, []string{"device", "action", "result"}),
		probes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Probe results by target.",
		}, []string{"device", "target", "result"}),
		mttr: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mttr_seconds",
			Help:      "Time from isolation to restoration.",
			Buckets:   durationBuckets,
		}, []string{"device"}),
		detectionLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_latency_seconds",
			Help:      "Time from the last healthy cycle to isolation detection.",
			Buckets:   durationBuckets,
		}, []string{"device"}),
	}
}

// Registry exposes the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{Registry: e.registry})
}

func (e *Exporter) HandleEvent(_ context.Context, ev models.Event) {
	device := ev.Identity.DeviceName

	switch ev.Type {
	case models.EventCycle:
		if ev.Cycle == nil {
			return
		}

		e.cycles.WithLabelValues(device).Inc()
		e.reachable.WithLabelValues(device).Set(float64(ev.Cycle.ReachableCount))
		e.isolated.WithLabelValues(device, string(ev.Identity.Role)).Set(boolToFloat(ev.Cycle.Isolated))

		for _, p := range ev.Cycle.Probes {
			e.probes.WithLabelValues(device, p.Target, result(p.Reachable)).Inc()
		}
	case models.EventIsolated:
		e.transitions.WithLabelValues(device, string(models.TransitionIsolated)).Inc()
		e.detectionLatency.WithLabelValues(device).Observe(ev.Duration.Seconds())
	case models.EventRestored:
		e.transitions.WithLabelValues(device, string(models.TransitionRestored)).Inc()
		e.mttr.WithLabelValues(device).Observe(ev.Duration.Seconds())
	case models.EventRecovery:
		if ev.Outcome == nil {
			return
		}

		e.dispatches.WithLabelValues(device, string(ev.Outcome.Strategy), result(ev.Outcome.Succeeded)).Inc()

		for _, a := range ev.Outcome.Attempts {
			e.actions.WithLabelValues(device, a.Action.Name, result(a.Succeeded)).Inc()
		}
	}
}

func result(ok bool) string {
	if ok {
		return "success"
	}

	return "failure"
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
