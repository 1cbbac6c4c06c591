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

// Package agent pkg/agent/reporter.go
package agent

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultReportInterval is how often the reporter logs a metrics snapshot.
const DefaultReportInterval = 60 * time.Second

// Reporter periodically logs the agent's snapshot.
type Reporter struct {
	source   SnapshotSource
	interval time.Duration
	logger   *zap.Logger
}

func NewReporter(source SnapshotSource, interval time.Duration, logger *zap.Logger) *Reporter {
	if interval <= 0 {
		interval = DefaultReportInterval
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reporter{source: source, interval: interval, logger: logger}
}

// Start reports on every tick until ctx is cancelled.
func (r *Reporter) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Report()
		}
	}
}

// Report logs one snapshot.
func (r *Reporter) Report() {
	snap := r.source.Snapshot()

	fields := []zap.Field{
		zap.String("device", snap.DeviceName),
		zap.String("role", string(snap.Role)),
		zap.String("strategy", string(snap.Strategy)),
		zap.Bool("is_isolated", snap.Isolated),
		zap.Uint64("recovery_attempts", snap.RecoveryAttempts),
		zap.Int("mttr_samples", len(snap.Metrics.MTTR)),
		zap.Int("detection_latency_samples", len(snap.Metrics.DetectionLatency)),
		zap.Float64("recovery_success_rate", snap.Metrics.SuccessRate()),
		zap.Uint64("false_positives", snap.Metrics.FalsePositives),
		zap.Float64("cpu_seconds", snap.Metrics.ResourceUsage.CPUSeconds),
		zap.Uint64("memory_bytes", snap.Metrics.ResourceUsage.MemoryBytes),
	}

	if snap.LastCheck != nil {
		fields = append(fields, zap.Time("last_check", *snap.LastCheck))
	}

	r.logger.Info("agent metrics", fields...)
}
