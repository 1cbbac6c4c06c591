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

// Package recovery pkg/recovery/rule_based.go
package recovery

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/carverauto/asna/pkg/models"
	"github.com/carverauto/asna/pkg/remediation"
)

// DefaultActionTimeout bounds each remediation command.
const DefaultActionTimeout = 10 * time.Second

// DefaultActions is the lab recovery playbook: bounce the uplink, rebuild
// the default route, then drop any firewall rules that could be blackholing
// traffic.
func DefaultActions() []models.RecoveryAction {
	return []models.RecoveryAction{
		{
			Name:    "interface-bounce",
			Command: "ip link set dev eth1 down && sleep 1 && ip link set dev eth1 up",
			Timeout: DefaultActionTimeout,
		},
		{
			Name:    "route-reset",
			Command: "ip route flush table main && ip route add default via 172.20.20.1",
			Timeout: DefaultActionTimeout,
		},
		{
			Name:    "firewall-flush",
			Command: "iptables -F && iptables -X",
			Timeout: DefaultActionTimeout,
		},
	}
}

// RuleBased walks a fixed, ordered action list and stops at the first
// command that succeeds.
type RuleBased struct {
	actions  []models.RecoveryAction
	executor remediation.Executor
	logger   *zap.Logger
}

// NewRuleBased copies actions; a zero action timeout becomes
// DefaultActionTimeout.
func NewRuleBased(actions []models.RecoveryAction, executor remediation.Executor, logger *zap.Logger) *RuleBased {
	if logger == nil {
		logger = zap.NewNop()
	}

	own := make([]models.RecoveryAction, len(actions))
	copy(own, actions)

	for i := range own {
		if own[i].Timeout <= 0 {
			own[i].Timeout = DefaultActionTimeout
		}

		if own[i].Name == "" {
			own[i].Name = own[i].Command
		}
	}

	return &RuleBased{actions: own, executor: executor, logger: logger}
}

func (*RuleBased) Kind() models.StrategyKind { return models.StrategyRuleBased }

// Actions returns a copy of the configured action list.
func (r *RuleBased) Actions() []models.RecoveryAction {
	return append([]models.RecoveryAction(nil), r.actions...)
}

func (r *RuleBased) Recover(ctx context.Context, rc RecoveryContext) models.RecoveryOutcome {
	outcome := models.RecoveryOutcome{
		Strategy: models.StrategyRuleBased,
		Attempts: make([]models.Attempt, 0, len(r.actions)),
	}

	if len(r.actions) == 0 {
		outcome.Err = errNoActions.Error()

		return outcome
	}

	for i, action := range r.actions {
		if ctx.Err() != nil {
			r.logger.Warn("recovery deadline reached before all actions ran",
				zap.String("device", rc.Identity.DeviceName),
				zap.Int("remaining", len(r.actions)-i))

			outcome.Err = ctx.Err().Error()

			break
		}

		start := time.Now()
		ok := r.executor.Execute(ctx, action.Command, action.Timeout)

		outcome.Attempts = append(outcome.Attempts, models.Attempt{
			Action:    action,
			Succeeded: ok,
			StartedAt: start,
			Duration:  time.Since(start),
		})

		r.logger.Info("recovery action attempted",
			zap.String("device", rc.Identity.DeviceName),
			zap.String("action", action.Name),
			zap.Int("step", i+1),
			zap.Int("of", len(r.actions)),
			zap.Bool("succeeded", ok))

		if ok {
			outcome.Succeeded = true

			return outcome
		}
	}

	if !outcome.Succeeded {
		r.logger.Warn("recovery actions exhausted without success; next cycle will re-evaluate",
			zap.String("device", rc.Identity.DeviceName),
			zap.Int("attempts", len(outcome.Attempts)))
	}

	return outcome
}
