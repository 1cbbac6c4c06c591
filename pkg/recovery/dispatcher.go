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

// Package recovery pkg/recovery/dispatcher.go
package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carverauto/asna/pkg/models"
)

// DefaultTimeout bounds a whole dispatch, across every action a strategy runs.
const DefaultTimeout = 60 * time.Second

// Dispatcher invokes the agent's configured strategy once per isolation
// entry, bounded by a deadline. A panicking strategy yields a failed
// outcome instead of unwinding into the scheduler.
type Dispatcher struct {
	strategy Strategy
	timeout  time.Duration
	logger   *zap.Logger
}

func NewDispatcher(strategy Strategy, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{strategy: strategy, timeout: timeout, logger: logger}
}

// Kind reports the kind of the wrapped strategy.
func (d *Dispatcher) Kind() models.StrategyKind {
	return d.strategy.Kind()
}

func (d *Dispatcher) Recover(ctx context.Context, rc RecoveryContext) (outcome models.RecoveryOutcome) {
	id := uuid.NewString()
	kind := d.strategy.Kind()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.logger.Info("dispatching recovery",
		zap.String("dispatch_id", id),
		zap.String("strategy", string(kind)),
		zap.String("device", rc.Identity.DeviceName),
		zap.Int("reachable", rc.Cycle.ReachableCount),
		zap.Int("threshold", rc.Threshold))

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("recovery strategy panicked",
				zap.String("dispatch_id", id),
				zap.Any("panic", r),
				zap.Stack("stack"))

			outcome = models.RecoveryOutcome{
				Strategy: kind,
				Attempts: []models.Attempt{},
				Err:      fmt.Sprintf("%v: %v", errStrategyPanic, r),
			}
		}

		outcome.DispatchID = id
		outcome.Duration = time.Since(start)

		if outcome.Strategy == "" {
			outcome.Strategy = kind
		}

		if outcome.Attempts == nil {
			outcome.Attempts = []models.Attempt{}
		}

		d.logger.Info("recovery dispatch finished",
			zap.String("dispatch_id", id),
			zap.Bool("succeeded", outcome.Succeeded),
			zap.Int("attempts", len(outcome.Attempts)),
			zap.Duration("elapsed", outcome.Duration))
	}()

	return d.strategy.Recover(ctx, rc)
}
