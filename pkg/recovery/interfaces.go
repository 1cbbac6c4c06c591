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

// Package recovery selects and runs a recovery strategy when an agent
// enters isolation.
package recovery

//go:generate mockgen -destination=mock_strategy.go -package=recovery github.com/carverauto/asna/pkg/recovery Strategy

import (
	"context"
	"errors"

	"github.com/carverauto/asna/pkg/models"
)

var (
	errUnknownStrategy = errors.New("no strategy registered for kind")
	errStrategyPanic   = errors.New("strategy panicked")
	errNoActions       = errors.New("rule-based strategy has no actions")
)

// RecoveryContext is the read-only view a strategy gets of the agent that
// entered isolation.
type RecoveryContext struct {
	Identity  models.Identity
	Snapshot  models.Snapshot
	Targets   []string
	Threshold int
	Cycle     models.CycleResult
}

// Strategy attempts recovery. Implementations must return within the
// context deadline and must not panic; the dispatcher guards both anyway.
type Strategy interface {
	Kind() models.StrategyKind
	Recover(ctx context.Context, rc RecoveryContext) models.RecoveryOutcome
}
