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

// Package agent runs the isolation state machine for one device: probe the
// role's targets, commit transitions, dispatch recovery on isolation entry
// and publish what happened.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carverauto/asna/pkg/detector"
	"github.com/carverauto/asna/pkg/models"
	"github.com/carverauto/asna/pkg/recovery"
	"github.com/carverauto/asna/pkg/topology"
)

// Agent owns the isolation state of one device. RunCycle is the only
// mutator; cycles are serialized. Readers use Snapshot.
type Agent struct {
	identity   models.Identity
	policy     topology.Policy
	detector   Detector
	dispatcher Dispatcher
	observers  []Observer
	sampler    ResourceSampler
	now        func() time.Time
	logger     *zap.Logger

	cycleMu sync.Mutex

	mu          sync.RWMutex
	isolated    bool
	isolatedAt  time.Time
	lastHealthy time.Time
	lastCheck   time.Time
	attempts    uint64
	metrics     models.Metrics
	// current isolation episode
	episodeCycles    int
	episodeRecovered bool
}

var _ SnapshotSource = (*Agent)(nil)

// New builds a healthy agent with no recovery attempts.
func New(identity models.Identity, policy topology.Policy, det Detector, dispatcher Dispatcher, opts ...Option) (*Agent, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	switch {
	case policy == nil:
		return nil, errNilPolicy
	case det == nil:
		return nil, errNilDetector
	case dispatcher == nil:
		return nil, errNilDispatcher
	}

	a := &Agent{
		identity:   identity,
		policy:     policy,
		detector:   det,
		dispatcher: dispatcher,
		now:        time.Now,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.logger = a.logger.Named(identity.DeviceName)
	a.lastHealthy = a.now()
	a.metrics = models.Metrics{MTTR: []time.Duration{}, DetectionLatency: []time.Duration{}}

	a.logger.Info("agent initialized",
		zap.String("device", identity.DeviceName),
		zap.String("ip", identity.DeviceAddress),
		zap.String("role", string(identity.Role)),
		zap.String("strategy", string(identity.Strategy)))

	return a, nil
}

// Identity returns the device identity.
func (a *Agent) Identity() models.Identity { return a.identity }

// Snapshot returns a consistent copy of identity, state and metrics.
func (a *Agent) Snapshot() models.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.snapshotLocked()
}

func (a *Agent) snapshotLocked() models.Snapshot {
	s := models.Snapshot{
		Identity:         a.identity,
		Isolated:         a.isolated,
		RecoveryAttempts: a.attempts,
		Metrics:          a.metrics.Clone(),
	}

	if !a.lastCheck.IsZero() {
		t := a.lastCheck
		s.LastCheck = &t
	}

	if a.isolated {
		t := a.isolatedAt
		s.IsolatedSince = &t
	}

	return s
}

// RunCycle performs one health-check cycle. Probing happens before any
// state is touched, so a cycle that fails early leaves state as it was.
func (a *Agent) RunCycle(ctx context.Context) (result models.CycleResult, err error) {
	a.cycleMu.Lock()
	defer a.cycleMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("cycle panicked", zap.Any("panic", r), zap.Stack("stack"))

			err = fmt.Errorf("%w: %v", errCyclePanic, r)
		}
	}()

	if err = ctx.Err(); err != nil {
		return result, err
	}

	result.CycleID = uuid.NewString()
	result.StartedAt = a.now()

	role := a.identity.Role
	targets := a.policy.TargetsFor(role)
	threshold := a.policy.ThresholdFor(role)

	if len(targets) == 0 {
		return result, fmt.Errorf("%w: %s", errNoTargets, role)
	}

	if threshold < 1 {
		return result, fmt.Errorf("%w: %s has %d", errBadThreshold, role, threshold)
	}

	obs := a.detector.Observe(ctx, targets)

	// probes fail under a cancelled context; that is not a verdict
	if err = ctx.Err(); err != nil {
		return result, err
	}

	result.ReachableCount = obs.Reachable
	result.TargetCount = len(targets)
	result.Threshold = threshold
	result.Probes = obs.Probes

	var usage models.ResourceUsage
	if a.sampler != nil {
		usage = a.sampler.Sample()
	}

	c := a.commit(obs.Reachable, threshold, usage)

	result.Transition = c.transition
	result.Transitioned = c.transition != models.TransitionNone
	result.Isolated = c.isolated

	var events []models.Event

	switch c.transition {
	case models.TransitionIsolated:
		a.logger.Warn("device isolated; dispatching recovery",
			zap.Int("reachable", obs.Reachable),
			zap.Int("threshold", threshold),
			zap.Duration("detection_latency", c.elapsed))

		events = append(events, a.event(models.EventIsolated, c.at, &result, nil, c.elapsed))

		outcome := a.dispatch(ctx, recovery.RecoveryContext{
			Identity:  a.identity,
			Snapshot:  c.snapshot,
			Targets:   targets,
			Threshold: threshold,
			Cycle:     result,
		})

		a.recordOutcome(outcome)

		events = append(events, a.event(models.EventRecovery, a.now(), nil, &outcome, outcome.Duration))
	case models.TransitionRestored:
		a.logger.Info("connectivity restored",
			zap.Int("reachable", obs.Reachable),
			zap.Int("threshold", threshold),
			zap.Duration("time_to_restore", c.elapsed))

		events = append(events, a.event(models.EventRestored, c.at, &result, nil, c.elapsed))
	case models.TransitionNone:
	}

	result.CompletedAt = a.markChecked()

	a.logger.Debug("cycle complete",
		zap.String("cycle_id", result.CycleID),
		zap.Int("reachable", result.ReachableCount),
		zap.Int("targets", result.TargetCount),
		zap.Bool("isolated", result.Isolated))

	events = append(events, a.event(models.EventCycle, result.CompletedAt, &result, nil, 0))
	a.publish(ctx, events)

	return result, nil
}

type commitResult struct {
	transition models.Transition
	isolated   bool
	at         time.Time
	// detection latency on isolation, time to restore on restoration
	elapsed  time.Duration
	snapshot models.Snapshot
}

// commit applies a verdict to state atomically.
func (a *Agent) commit(reachable, threshold int, usage models.ResourceUsage) commitResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	at := a.now()
	c := commitResult{
		transition: detector.Evaluate(a.isolated, reachable, threshold),
		at:         at,
	}

	switch c.transition {
	case models.TransitionIsolated:
		a.isolated = true
		a.isolatedAt = at
		a.attempts++
		a.episodeCycles = 0
		a.episodeRecovered = false

		c.elapsed = nonNegative(at.Sub(a.lastHealthy))
		a.metrics.DetectionLatency = append(a.metrics.DetectionLatency, c.elapsed)
	case models.TransitionRestored:
		a.isolated = false
		c.elapsed = nonNegative(at.Sub(a.isolatedAt))
		a.metrics.MTTR = append(a.metrics.MTTR, c.elapsed)

		if a.episodeCycles == 1 && !a.episodeRecovered {
			a.metrics.FalsePositives++
		}

		a.isolatedAt = time.Time{}
	case models.TransitionNone:
	}

	if a.isolated {
		a.episodeCycles++
	} else {
		a.lastHealthy = at
	}

	a.metrics.ResourceUsage = usage
	c.isolated = a.isolated
	c.snapshot = a.snapshotLocked()

	return c
}

func (a *Agent) dispatch(ctx context.Context, rc recovery.RecoveryContext) (outcome models.RecoveryOutcome) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("recovery dispatch panicked", zap.Any("panic", r))

			outcome = models.RecoveryOutcome{
				Strategy: a.identity.Strategy,
				Attempts: []models.Attempt{},
				Err:      fmt.Sprintf("%v: %v", errDispatchPanic, r),
			}
		}
	}()

	return a.dispatcher.Recover(ctx, rc)
}

func (a *Agent) recordOutcome(outcome models.RecoveryOutcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.metrics.Dispatches++

	if outcome.Succeeded {
		a.metrics.SuccessfulDispatches++
		a.episodeRecovered = true
	}
}

// markChecked advances the last-check timestamp, never backwards.
func (a *Agent) markChecked() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if now.After(a.lastCheck) {
		a.lastCheck = now
	}

	return a.lastCheck
}

func (a *Agent) event(typ models.EventType, at time.Time, cycle *models.CycleResult, outcome *models.RecoveryOutcome, d time.Duration) models.Event {
	ev := models.Event{
		ID:       uuid.NewString(),
		Type:     typ,
		Time:     at,
		Identity: a.identity,
		Outcome:  outcome,
		Duration: d,
	}

	if cycle != nil {
		c := *cycle
		ev.Cycle = &c
	}

	return ev
}

func (a *Agent) publish(ctx context.Context, events []models.Event) {
	for _, ev := range events {
		for _, o := range a.observers {
			a.notify(ctx, o, ev)
		}
	}
}

func (a *Agent) notify(ctx context.Context, o Observer, ev models.Event) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("observer panicked",
				zap.String("event", string(ev.Type)),
				zap.String("observer", fmt.Sprintf("%T", o)),
				zap.Any("panic", r))
		}
	}()

	o.HandleEvent(ctx, ev)
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}

	return d
}
