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

// Package probe pkg/probe/tcp.go
package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DefaultTCPPort is dialled when a target carries no port.
const DefaultTCPPort = 22

// TCPProber treats a completed TCP handshake as reachability. Targets may
// be "host" or "host:port".
type TCPProber struct {
	port   int
	logger *zap.Logger
}

func NewTCPProber(port int, logger *zap.Logger) *TCPProber {
	if port <= 0 {
		port = DefaultTCPPort
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &TCPProber{port: port, logger: logger}
}

func (p *TCPProber) Probe(ctx context.Context, address string, timeout time.Duration) bool {
	addr := withDefaultPort(address, p.port)

	dialer := net.Dialer{Timeout: timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		p.logger.Debug("tcp probe failed", zap.String("target", addr), zap.Error(err))

		return false
	}

	_ = conn.Close()

	return true
}

func withDefaultPort(address string, port int) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}

	return net.JoinHostPort(address, strconv.Itoa(port))
}
