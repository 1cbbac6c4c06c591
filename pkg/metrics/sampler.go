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

// Package metrics pkg/metrics/sampler.go
package metrics

import (
	"runtime"

	"github.com/prometheus/procfs"
	"go.uber.org/zap"

	"github.com/carverauto/asna/pkg/models"
)

// ProcessSampler reads CPU time and resident memory of the current process
// from /proc. Where /proc is unavailable it falls back to the Go runtime's
// view of memory and reports no CPU time.
type ProcessSampler struct {
	logger *zap.Logger
	warned bool
}

func NewProcessSampler(logger *zap.Logger) *ProcessSampler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProcessSampler{logger: logger}
}

func (s *ProcessSampler) Sample() models.ResourceUsage {
	usage, err := s.fromProc()
	if err == nil {
		return usage
	}

	if !s.warned {
		s.logger.Warn("procfs unavailable; falling back to runtime memory stats", zap.Error(err))
		s.warned = true
	}

	var ms runtime.MemStats

	runtime.ReadMemStats(&ms)

	return models.ResourceUsage{MemoryBytes: ms.Sys}
}

func (*ProcessSampler) fromProc() (models.ResourceUsage, error) {
	proc, err := procfs.Self()
	if err != nil {
		return models.ResourceUsage{}, err
	}

	stat, err := proc.Stat()
	if err != nil {
		return models.ResourceUsage{}, err
	}

	rss := stat.ResidentMemory()
	if rss < 0 {
		rss = 0
	}

	return models.ResourceUsage{
		CPUSeconds:  stat.CPUTime(),
		MemoryBytes: uint64(rss),
	}, nil
}
