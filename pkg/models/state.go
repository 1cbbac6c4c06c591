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

package models

import (
	"encoding/json"
	"time"
)

// TopologyEntry is the expected-neighbour set for one role.
type TopologyEntry struct {
	Targets   []string `json:"targets" mapstructure:"targets"`
	Threshold int      `json:"threshold" mapstructure:"threshold"` // minimum reachable targets to stay healthy
}

// RecoveryAction is a single remediation command tried by the rule-based strategy.
type RecoveryAction struct {
	Name    string        `json:"name" mapstructure:"name"`
	Command string        `json:"command" mapstructure:"command"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// ProbeResult is the outcome of probing one target during a cycle.
type ProbeResult struct {
	Target    string        `json:"target"`
	Reachable bool          `json:"reachable"`
	Attempts  int           `json:"attempts"`
	Duration  time.Duration `json:"duration"`
}

// Transition names a state change produced by a cycle.
type Transition string

const (
	TransitionNone     Transition = "none"
	TransitionIsolated Transition = "isolated"
	TransitionRestored Transition = "restored"
)

// CycleResult summarizes one health-check cycle.
type CycleResult struct {
	CycleID        string        `json:"cycle_id"`
	ReachableCount int           `json:"reachable_count"`
	TargetCount    int           `json:"target_count"`
	Threshold      int           `json:"threshold"`
	Transitioned   bool          `json:"transitioned"`
	Transition     Transition    `json:"transition"`
	Isolated       bool          `json:"is_isolated"`
	Probes         []ProbeResult `json:"probes"`
	StartedAt      time.Time     `json:"started_at"`
	CompletedAt    time.Time     `json:"completed_at"`
}

// Attempt records a single remediation command execution.
type Attempt struct {
	Action    RecoveryAction `json:"action"`
	Succeeded bool           `json:"succeeded"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
}

// RecoveryOutcome is what a strategy reports back to the dispatcher.
type RecoveryOutcome struct {
	DispatchID string        `json:"dispatch_id"`
	Strategy   StrategyKind  `json:"strategy"`
	Succeeded  bool          `json:"succeeded"`
	Attempts   []Attempt     `json:"attempts"`
	Duration   time.Duration `json:"duration"`
	Err        string        `json:"error,omitempty"`
}

// ResourceUsage is the most recent process resource sample.
type ResourceUsage struct {
	CPUSeconds  float64 `json:"cpu"`
	MemoryBytes uint64  `json:"memory"`
}

// Metrics accumulates detection and recovery samples over the agent's lifetime.
// Sample slices are append-only; ResourceUsage is overwritten on every cycle.
type Metrics struct {
	MTTR                 []time.Duration
	DetectionLatency     []time.Duration
	FalsePositives       uint64
	Dispatches           uint64
	SuccessfulDispatches uint64
	ResourceUsage        ResourceUsage
}

// SuccessRate is the fraction of dispatches that reported a successful action.
func (m Metrics) SuccessRate() float64 {
	if m.Dispatches == 0 {
		return 0
	}

	return float64(m.SuccessfulDispatches) / float64(m.Dispatches)
}

// Clone returns a deep copy safe to hand to readers.
func (m *Metrics) Clone() Metrics {
	c := *m
	c.MTTR = append([]time.Duration(nil), m.MTTR...)
	c.DetectionLatency = append([]time.Duration(nil), m.DetectionLatency...)

	return c
}

// MarshalJSON renders durations as seconds, matching the report format
// consumed by the lab dashboards.
func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MTTR             []float64     `json:"mttr"`
		DetectionLatency []float64     `json:"detection_latency"`
		SuccessRate      float64       `json:"recovery_success_rate"`
		FalsePositives   uint64        `json:"false_positives"`
		Dispatches       uint64        `json:"dispatches"`
		ResourceUsage    ResourceUsage `json:"resource_usage"`
	}{
		MTTR:             seconds(m.MTTR),
		DetectionLatency: seconds(m.DetectionLatency),
		SuccessRate:      m.SuccessRate(),
		FalsePositives:   m.FalsePositives,
		Dispatches:       m.Dispatches,
		ResourceUsage:    m.ResourceUsage,
	})
}

func seconds(ds []time.Duration) []float64 {
	out := make([]float64, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Seconds())
	}

	return out
}

// Snapshot is a consistent, read-only copy of an agent's identity and state.
type Snapshot struct {
	Identity
	Isolated         bool       `json:"is_isolated"`
	RecoveryAttempts uint64     `json:"recovery_attempts"`
	LastCheck        *time.Time `json:"last_check"`
	IsolatedSince    *time.Time `json:"isolated_since,omitempty"`
	Metrics          Metrics    `json:"metrics"`
}

// EventType classifies agent events delivered to observers.
type EventType string

const (
	EventCycle    EventType = "cycle"
	EventIsolated EventType = "isolated"
	EventRestored EventType = "restored"
	EventRecovery EventType = "recovery"
)

// Event is published to observers after the agent commits a state change.
type Event struct {
	ID       string           `json:"id"`
	Type     EventType        `json:"type"`
	Time     time.Time        `json:"time"`
	Identity Identity         `json:"identity"`
	Cycle    *CycleResult     `json:"cycle,omitempty"`
	Outcome  *RecoveryOutcome `json:"outcome,omitempty"`
	// Duration carries the detection latency for isolated events and the
	// time to restore for restored events.
	Duration time.Duration `json:"duration,omitempty"`
}
