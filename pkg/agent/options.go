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

// Package agent pkg/agent/options.go
package agent

import (
	"time"

	"go.uber.org/zap"
)

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the base logger; the agent names it after its device.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithObservers appends event observers.
func WithObservers(observers ...Observer) Option {
	return func(a *Agent) {
		for _, o := range observers {
			if o != nil {
				a.observers = append(a.observers, o)
			}
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		if now != nil {
			a.now = now
		}
	}
}

// WithResourceSampler sets the sampler consulted once per cycle.
func WithResourceSampler(sampler ResourceSampler) Option {
	return func(a *Agent) {
		a.sampler = sampler
	}
}
