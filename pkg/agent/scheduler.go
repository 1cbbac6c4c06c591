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

// Package agent pkg/agent/scheduler.go
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultInterval     = 15 * time.Second
	DefaultFaultBackoff = 5 * time.Second
)

// SchedulerConfig holds loop timing.
type SchedulerConfig struct {
	Interval     time.Duration
	FaultBackoff time.Duration
}

// Scheduler drives cycles forever: run one, wait Interval, repeat. A
// faulted cycle is logged and followed by the shorter FaultBackoff.
type Scheduler struct {
	cycler   Cycler
	config   SchedulerConfig
	logger   *zap.Logger
	done     chan struct{}
	stopOnce sync.Once
}

func NewScheduler(cycler Cycler, cfg SchedulerConfig, logger *zap.Logger) (*Scheduler, error) {
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}

	if cfg.FaultBackoff == 0 {
		cfg.FaultBackoff = DefaultFaultBackoff
	}

	if cfg.Interval < 0 || cfg.FaultBackoff < 0 {
		return nil, errInvalidInterval
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cycler: cycler,
		config: cfg,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

// Start runs the loop until ctx is cancelled (returning ctx.Err()) or Stop
// is called (returning nil). The first cycle runs immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("starting health-check loop",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("fault_backoff", s.config.FaultBackoff))

	for {
		wait := s.config.Interval

		if err := s.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			s.logger.Error("health-check cycle failed", zap.Error(err))

			wait = s.config.FaultBackoff
		}

		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()

			return ctx.Err()
		case <-s.done:
			timer.Stop()

			return nil
		case <-timer.C:
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errCyclePanic, r)
		}
	}()

	_, err = s.cycler.RunCycle(ctx)

	return err
}

// Stop ends the loop after the current cycle.
func (s *Scheduler) Stop(_ context.Context) {
	s.stopOnce.Do(func() { close(s.done) })
}
