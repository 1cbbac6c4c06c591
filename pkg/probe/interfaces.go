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

// Package probe pkg/probe/interfaces.go
package probe

//go:generate mockgen -destination=mock_prober.go -package=probe github.com/carverauto/asna/pkg/probe Prober

import (
	"context"
	"time"
)

// Prober reports whether a target answers within timeout. Network-level
// failures (timeouts, resolution errors, permission errors) are reported as
// false, never returned or raised.
type Prober interface {
	Probe(ctx context.Context, address string, timeout time.Duration) bool
}

// Func adapts an ordinary function to the Prober interface.
type Func func(ctx context.Context, address string, timeout time.Duration) bool

// Probe calls f(ctx, address, timeout).
func (f Func) Probe(ctx context.Context, address string, timeout time.Duration) bool {
	return f(ctx, address, timeout)
}
