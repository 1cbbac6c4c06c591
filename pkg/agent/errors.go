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

package agent

import "errors"

var (
	errNilPolicy       = errors.New("topology policy is required")
	errNilDetector     = errors.New("detector is required")
	errNilDispatcher   = errors.New("recovery dispatcher is required")
	errNoTargets       = errors.New("policy returned no targets for role")
	errBadThreshold    = errors.New("policy returned a threshold below 1")
	errCyclePanic      = errors.New("health-check cycle panicked")
	errDispatchPanic   = errors.New("recovery dispatch panicked")
	errInvalidInterval = errors.New("scheduler interval must be positive")
)
