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

// Package detector probes a role's targets and turns the reachable count
// into an isolation verdict.
package detector

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/asna/pkg/models"
	"github.com/carverauto/asna/pkg/probe"
)

const (
	DefaultProbeTimeout = 2 * time.Second
	DefaultProbeCap     = 5 * time.Second
	DefaultConcurrency  = 8
)

// Config bounds probing. ProbeTimeout applies to each attempt, ProbeCap to
// all attempts against one target.
type Config struct {
	ProbeTimeout time.Duration
	ProbeCap     time.Duration
	Retries      int
	Concurrency  int
}

func (c Config) withDefaults() Config {
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}

	if c.ProbeCap <= 0 {
		c.ProbeCap = DefaultProbeCap
	}

	if c.ProbeCap < c.ProbeTimeout {
		c.ProbeCap = c.ProbeTimeout
	}

	if c.Retries < 0 {
		c.Retries = 0
	}

	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}

	return c
}

// Observation is the raw result of probing a target set.
type Observation struct {
	Reachable int
	Probes    []models.ProbeResult
}

// Detector probes targets concurrently. It holds no isolation state.
type Detector struct {
	prober probe.Prober
	cfg    Config
	logger *zap.Logger
}

func New(prober probe.Prober, cfg Config, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Detector{prober: prober, cfg: cfg.withDefaults(), logger: logger}
}

// Config returns the effective configuration.
func (d *Detector) Config() Config { return d.cfg }

// Observe probes every target and counts how many answered. Probe results
// keep the order of targets. A probe that panics counts as unreachable.
func (d *Detector) Observe(ctx context.Context, targets []string) Observation {
	results := make([]models.ProbeResult, len(targets))

	var g errgroup.Group

	g.SetLimit(d.cfg.Concurrency)

	for i, target := range targets {
		g.Go(func() error {
			results[i] = d.probeTarget(ctx, target)

			return nil
		})
	}

	_ = g.Wait()

	obs := Observation{Probes: results}

	for _, r := range results {
		if r.Reachable {
			obs.Reachable++
		}
	}

	return obs
}

func (d *Detector) probeTarget(ctx context.Context, target string) (result models.ProbeResult) {
	start := time.Now()
	result.Target = target

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("probe panicked", zap.String("target", target), zap.Any("panic", r))

			result.Reachable = false
		}

		result.Duration = time.Since(start)
	}()

	capCtx, cancel := context.WithTimeout(ctx, d.cfg.ProbeCap)
	defer cancel()

	for attempt := 0; attempt <= d.cfg.Retries; attempt++ {
		timeout := d.cfg.ProbeTimeout

		if deadline, ok := capCtx.Deadline(); ok {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				break
			}

			if remaining < timeout {
				timeout = remaining
			}
		}

		result.Attempts++

		if d.prober.Probe(capCtx, target, timeout) {
			result.Reachable = true

			return result
		}

		if capCtx.Err() != nil {
			break
		}
	}

	d.logger.Debug("target unreachable",
		zap.String("target", target),
		zap.Int("attempts", result.Attempts))

	return result
}

// Isolated is the verdict: fewer reachable targets than the threshold.
func Isolated(reachable, threshold int) bool {
	return reachable < threshold
}

// Evaluate maps the previous state and a verdict to a transition.
func Evaluate(wasIsolated bool, reachable, threshold int) models.Transition {
	isolated := Isolated(reachable, threshold)

	switch {
	case !wasIsolated && isolated:
		return models.TransitionIsolated
	case wasIsolated && !isolated:
		return models.TransitionRestored
	default:
		return models.TransitionNone
	}
}
