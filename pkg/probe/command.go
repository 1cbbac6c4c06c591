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

// Package probe pkg/probe/command.go
package probe

import (
	"context"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	// commandGrace is extra time given to the ping binary beyond its own -W.
	commandGrace = 3 * time.Second
	defaultPing  = "ping"
)

// Runner executes a command and reports its error, if any.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// CommandProber shells out to the system ping binary: one echo request,
// exit status zero means reachable.
type CommandProber struct {
	binary string
	run    Runner
	logger *zap.Logger
}

func NewCommandProber(binary string, logger *zap.Logger) *CommandProber {
	if binary == "" {
		binary = defaultPing
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &CommandProber{binary: binary, run: execRunner, logger: logger}
}

func (p *CommandProber) Probe(ctx context.Context, address string, timeout time.Duration) bool {
	wait := int(timeout.Round(time.Second) / time.Second)
	if wait < 1 {
		wait = 1
	}

	ctx, cancel := context.WithTimeout(ctx, timeout+commandGrace)
	defer cancel()

	err := p.run(ctx, p.binary, "-c", "1", "-W", strconv.Itoa(wait), address)
	if err != nil {
		p.logger.Debug("ping failed", zap.String("target", address), zap.Error(err))

		return false
	}

	return true
}
