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

// Package remediation pkg/remediation/shell.go
package remediation

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	defaultShell = "/bin/sh"
	// maxLoggedOutput caps how much command output ends up in a log line.
	maxLoggedOutput = 512
)

// ShellExecutor runs commands through /bin/sh -c so compound commands
// ("ip link set dev eth1 down && ip link set dev eth1 up") work unchanged.
type ShellExecutor struct {
	shell  string
	logger *zap.Logger
}

func NewShellExecutor(logger *zap.Logger) *ShellExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ShellExecutor{shell: defaultShell, logger: logger}
}

func (e *ShellExecutor) Execute(ctx context.Context, command string, timeout time.Duration) bool {
	if strings.TrimSpace(command) == "" {
		e.logger.Warn("refusing to run empty remediation command")

		return false
	}

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()

	cmd := exec.CommandContext(ctx, e.shell, "-c", command)
	cmd.WaitDelay = time.Second

	output, err := cmd.CombinedOutput()

	fields := []zap.Field{
		zap.String("command", command),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("output", truncate(string(output))),
	}

	if err != nil {
		var exitErr *exec.ExitError

		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			e.logger.Warn("remediation command timed out", append(fields, zap.Duration("timeout", timeout))...)
		case errors.As(err, &exitErr):
			e.logger.Warn("remediation command failed", append(fields, zap.Int("exit_code", exitErr.ExitCode()))...)
		default:
			e.logger.Error("remediation command could not run", append(fields, zap.Error(err))...)
		}

		return false
	}

	e.logger.Info("remediation command succeeded", fields...)

	return true
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLoggedOutput {
		return s
	}

	cut := maxLoggedOutput
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "..."
}
