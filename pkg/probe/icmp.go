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

// Package probe pkg/probe/icmp.go
package probe

import (
	"context"
	"net"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const (
	maxPacketSize  = 1500
	protocolICMPv4 = 1
)

var echoPayload = []byte("asna-healthcheck")

// ICMPProber sends a single ICMP echo request and waits for the matching
// reply. Unprivileged mode uses datagram ICMP sockets (net.ipv4.ping_group_range);
// privileged mode opens a raw socket.
type ICMPProber struct {
	privileged bool
	id         int
	seq        atomic.Uint32
	logger     *zap.Logger
}

// NewICMPProber returns an ICMP prober. A nil logger disables logging.
func NewICMPProber(privileged bool, logger *zap.Logger) *ICMPProber {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ICMPProber{
		privileged: privileged,
		id:         os.Getpid() & 0xffff,
		logger:     logger,
	}
}

func (p *ICMPProber) Probe(ctx context.Context, address string, timeout time.Duration) bool {
	ip, err := resolveIPv4(ctx, address)
	if err != nil {
		p.logger.Debug("icmp resolve failed", zap.String("target", address), zap.Error(err))

		return false
	}

	network := "udp4"
	if p.privileged {
		network = "ip4:icmp"
	}

	conn, err := icmp.ListenPacket(network, "0.0.0.0")
	if err != nil {
		p.logger.Debug("icmp listen failed", zap.String("network", network), zap.Error(err))

		return false
	}
	defer func() { _ = conn.Close() }()

	if err = conn.SetDeadline(deadline(ctx, timeout)); err != nil {
		return false
	}

	seq := int(p.seq.Add(1) & 0xffff)

	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{ID: p.id, Seq: seq, Data: echoPayload},
	}

	wire, err := msg.Marshal(nil)
	if err != nil {
		return false
	}

	var dst net.Addr = &net.UDPAddr{IP: ip}
	if p.privileged {
		dst = &net.IPAddr{IP: ip}
	}

	if _, err = conn.WriteTo(wire, dst); err != nil {
		p.logger.Debug("icmp send failed", zap.String("target", address), zap.Error(err))

		return false
	}

	buf := make([]byte, maxPacketSize)

	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			// deadline exceeded or socket closed
			return false
		}

		// the kernel rewrites the echo ID on datagram sockets
		if isEchoReply(buf[:n], peer, ip, p.id, seq, p.privileged) {
			return true
		}
	}
}

// isEchoReply reports whether data is the echo reply from want for seq.
func isEchoReply(data []byte, peer net.Addr, want net.IP, id, seq int, checkID bool) bool {
	if !want.Equal(peerIP(peer)) {
		return false
	}

	msg, err := icmp.ParseMessage(protocolICMPv4, data)
	if err != nil || msg.Type != ipv4.ICMPTypeEchoReply {
		return false
	}

	echo, ok := msg.Body.(*icmp.Echo)
	if !ok || echo.Seq != seq {
		return false
	}

	return !checkID || echo.ID == id
}

func peerIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.UDPAddr:
		return a.IP
	case *net.IPAddr:
		return a.IP
	default:
		return nil
	}
}

func resolveIPv4(ctx context.Context, address string) (net.IP, error) {
	if ip := net.ParseIP(address); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}

		return nil, errNotIPv4
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", address)
	if err != nil {
		return nil, err
	}

	if len(ips) == 0 {
		return nil, errNotIPv4
	}

	return ips[0].To4(), nil
}

// deadline is now+timeout, pulled in to the context deadline when that is sooner.
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)

	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}

	return d
}
