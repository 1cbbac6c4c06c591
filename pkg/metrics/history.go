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

// Package metrics pkg/metrics/history.go
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/carverauto/asna/pkg/models"
)

// DefaultHistorySize holds an hour of cycles at the default interval.
const DefaultHistorySize = 240

// Point is one cycle in the history.
type Point struct {
	Timestamp time.Time     `json:"timestamp"`
	Reachable int           `json:"reachable"`
	Targets   int           `json:"targets"`
	Isolated  bool          `json:"is_isolated"`
	Duration  time.Duration `json:"duration"`
}

// History is a fixed-size ring buffer of recent cycles.
type History struct {
	mu     sync.RWMutex
	points []Point
	pos    int
	count  int
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}

	return &History{points: make([]Point, size)}
}

// Add records a point, overwriting the oldest once full.
func (h *History) Add(p Point) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.points[h.pos] = p
	h.pos = (h.pos + 1) % len(h.points)

	if h.count < len(h.points) {
		h.count++
	}
}

// Points returns recorded points, newest first.
func (h *History) Points() []Point {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Point, 0, h.count)
	size := len(h.points)

	for i := 0; i < h.count; i++ {
		out = append(out, h.points[(h.pos-1-i+size)%size])
	}

	return out
}

// Last returns the newest point, or nil when empty.
func (h *History) Last() *Point {
	points := h.Points()
	if len(points) == 0 {
		return nil
	}

	return &points[0]
}

func (h *History) HandleEvent(_ context.Context, ev models.Event) {
	if ev.Type != models.EventCycle || ev.Cycle == nil {
		return
	}

	h.Add(Point{
		Timestamp: ev.Cycle.CompletedAt,
		Reachable: ev.Cycle.ReachableCount,
		Targets:   ev.Cycle.TargetCount,
		Isolated:  ev.Cycle.Isolated,
		Duration:  ev.Cycle.CompletedAt.Sub(ev.Cycle.StartedAt),
	})
}
