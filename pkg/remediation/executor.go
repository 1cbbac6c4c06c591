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

// Package remediation runs the OS-level commands recovery strategies pick.
package remediation

//go:generate mockgen -destination=mock_executor.go -package=remediation github.com/carverauto/asna/pkg/remediation Executor

import (
	"context"
	"time"
)

// Executor runs a remediation command bounded by timeout and reports whether
// it succeeded. Non-zero exit, start failures and timeouts all report false.
type Executor interface {
	Execute(ctx context.Context, command string, timeout time.Duration) bool
}
