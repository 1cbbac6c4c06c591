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

// Package agent pkg/agent/interfaces.go
package agent

//go:generate mockgen -destination=mock_agent.go -package=agent github.com/carverauto/asna/pkg/agent Observer,ResourceSampler

import (
	"context"

	"github.com/carverauto/asna/pkg/detector"
	"github.com/carverauto/asna/pkg/models"
	"github.com/carverauto/asna/pkg/recovery"
)

// Detector probes a target set.
type Detector interface {
	Observe(ctx context.Context, targets []string) detector.Observation
}

// Dispatcher runs recovery once per isolation entry.
type Dispatcher interface {
	Recover(ctx context.Context, rc recovery.RecoveryContext) models.RecoveryOutcome
}

// Observer receives every event the agent commits. Observers run on the
// cycle goroutine after state is updated and must not block for long.
type Observer interface {
	HandleEvent(ctx context.Context, event models.Event)
}

// ResourceSampler reports the agent process's resource usage.
type ResourceSampler interface {
	Sample() models.ResourceUsage
}

// SnapshotSource is anything that can report agent state.
type SnapshotSource interface {
	Snapshot() models.Snapshot
}

// Cycler runs one health-check cycle.
type Cycler interface {
	RunCycle(ctx context.Context) (models.CycleResult, error)
}
