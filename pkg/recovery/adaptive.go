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

// Package recovery pkg/recovery/adaptive.go
package recovery

import (
	"context"

	"go.uber.org/zap"

	"github.com/carverauto/asna/pkg/models"
	"github.com/carverauto/asna/pkg/remediation"
)

// Adaptive is the placeholder for strategies that choose actions at run
// time (reinforcement learning, federated learning, a language model). It
// honours the Strategy contract and performs no remediation.
type Adaptive struct {
	kind   models.StrategyKind
	logger *zap.Logger
}

var _ Strategy = (*Adaptive)(nil)

func newAdaptive(kind models.StrategyKind, logger *zap.Logger) *Adaptive {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Adaptive{kind: kind, logger: logger}
}

// NewReinforcementLearning returns the reinforcement-learning placeholder.
// The executor parameter keeps the factory signature shared with RuleBased.
func NewReinforcementLearning(_ remediation.Executor, logger *zap.Logger) *Adaptive {
	return newAdaptive(models.StrategyReinforcement, logger)
}

// NewFederatedLearning returns the federated-learning placeholder.
func NewFederatedLearning(_ remediation.Executor, logger *zap.Logger) *Adaptive {
	return newAdaptive(models.StrategyFederated, logger)
}

// NewLanguageModelAssisted returns the language-model-assisted placeholder.
func NewLanguageModelAssisted(_ remediation.Executor, logger *zap.Logger) *Adaptive {
	return newAdaptive(models.StrategyLanguageModel, logger)
}

func (a *Adaptive) Kind() models.StrategyKind { return a.kind }

func (a *Adaptive) Recover(_ context.Context, rc RecoveryContext) models.RecoveryOutcome {
	a.logger.Info("strategy has no action policy; leaving recovery to the next cycle",
		zap.String("strategy", string(a.kind)),
		zap.String("device", rc.Identity.DeviceName),
		zap.Int("targets", len(rc.Targets)),
		zap.Int("reachable", rc.Cycle.ReachableCount))

	return models.RecoveryOutcome{Strategy: a.kind, Attempts: []models.Attempt{}}
}
