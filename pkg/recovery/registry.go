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

// Package recovery pkg/recovery/registry.go
package recovery

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/carverauto/asna/pkg/models"
	"github.com/carverauto/asna/pkg/remediation"
)

// Settings carries strategy configuration that factories may use.
type Settings struct {
	Actions []models.RecoveryAction
}

// Factory builds a strategy bound to an executor.
type Factory func(settings Settings, executor remediation.Executor, logger *zap.Logger) (Strategy, error)

// Registry maps strategy kinds to factories.
type Registry struct {
	factories map[models.StrategyKind]Factory
}

// NewRegistry returns a registry holding every built-in strategy.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[models.StrategyKind]Factory)}

	r.Register(models.StrategyRuleBased, func(s Settings, e remediation.Executor, l *zap.Logger) (Strategy, error) {
		actions := s.Actions
		if len(actions) == 0 {
			actions = DefaultActions()
		}

		return NewRuleBased(actions, e, l), nil
	})
	r.Register(models.StrategyReinforcement, func(_ Settings, e remediation.Executor, l *zap.Logger) (Strategy, error) {
		return NewReinforcementLearning(e, l), nil
	})
	r.Register(models.StrategyFederated, func(_ Settings, e remediation.Executor, l *zap.Logger) (Strategy, error) {
		return NewFederatedLearning(e, l), nil
	})
	r.Register(models.StrategyLanguageModel, func(_ Settings, e remediation.Executor, l *zap.Logger) (Strategy, error) {
		return NewLanguageModelAssisted(e, l), nil
	})

	return r
}

func (r *Registry) Register(kind models.StrategyKind, factory Factory) {
	r.factories[kind] = factory
}

func (r *Registry) New(kind models.StrategyKind, settings Settings, executor remediation.Executor, logger *zap.Logger) (Strategy, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownStrategy, kind)
	}

	return f(settings, executor, logger)
}
