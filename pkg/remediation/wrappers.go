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

// Package remediation pkg/remediation/wrappers.go
package remediation

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DryRun logs commands instead of running them and reports Result for each.
type DryRun struct {
	Result bool
	logger *zap.Logger
}

func NewDryRun(result bool, logger *zap.Logger) *DryRun {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DryRun{Result: result, logger: logger}
}

func (d *DryRun) Execute(_ context.Context, command string, timeout time.Duration) bool {
	d.logger.Info("dry run: remediation command skipped",
		zap.String("command", command),
		zap.Duration("timeout", timeout),
		zap.Bool("reported", d.Result))

	return d.Result
}

// RateLimited throttles an Executor so a flapping link cannot hammer the
// host with interface bounces. Waiting for a token counts against the
// command's timeout; a command that cannot get a token in time fails.
type RateLimited struct {
	next    Executor
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRateLimited allows perMinute commands per minute with the given burst.
func NewRateLimited(next Executor, perMinute float64, burst int, logger *zap.Logger) *RateLimited {
	if burst < 1 {
		burst = 1
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perMinute/60), burst),
		logger:  logger,
	}
}

func (r *RateLimited) Execute(ctx context.Context, command string, timeout time.Duration) bool {
	start := time.Now()

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc

		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := r.limiter.Wait(waitCtx); err != nil {
		r.logger.Warn("remediation command throttled",
			zap.String("command", command),
			zap.Error(err))

		return false
	}

	remaining := timeout
	if timeout > 0 {
		remaining = timeout - time.Since(start)
		if remaining <= 0 {
			return false
		}
	}

	return r.next.Execute(ctx, command, remaining)
}
