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

// Package probe pkg/probe/snmp.go
package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/gosnmp/gosnmp"
	"go.uber.org/zap"
)

const (
	// OIDSysUpTime is polled as the liveness signal for SNMP probes.
	OIDSysUpTime = ".1.3.6.1.2.1.1.3.0"

	DefaultSNMPPort      = 161
	DefaultSNMPCommunity = "public"
)

// SNMPProber considers a target reachable when it answers an SNMP GET for
// sysUpTime. It suits lab switches that drop ICMP.
type SNMPProber struct {
	community string
	port      uint16
	logger    *zap.Logger
}

func NewSNMPProber(community string, port int, logger *zap.Logger) *SNMPProber {
	if community == "" {
		community = DefaultSNMPCommunity
	}

	if port <= 0 || port > 65535 {
		port = DefaultSNMPPort
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &SNMPProber{community: community, port: uint16(port), logger: logger}
}

func (p *SNMPProber) Probe(ctx context.Context, address string, timeout time.Duration) bool {
	host, port := address, p.port

	if h, portStr, err := net.SplitHostPort(address); err == nil {
		n, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return false
		}

		host, port = h, uint16(n)
	}

	client := &gosnmp.GoSNMP{
		Target:    host,
		Port:      port,
		Community: p.community,
		Version:   gosnmp.Version2c,
		Timeout:   timeout,
		Retries:   0,
		Context:   ctx,
	}

	if err := client.Connect(); err != nil {
		p.logger.Debug("snmp connect failed", zap.String("target", host), zap.Error(err))

		return false
	}
	defer func() { _ = client.Conn.Close() }()

	packet, err := client.Get([]string{OIDSysUpTime})
	if err != nil {
		p.logger.Debug("snmp get failed", zap.String("target", host), zap.Error(err))

		return false
	}

	return packet.Error == gosnmp.NoError && len(packet.Variables) > 0 &&
		packet.Variables[0].Type != gosnmp.NoSuchObject &&
		packet.Variables[0].Type != gosnmp.NoSuchInstance
}
