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

// Package probe pkg/probe/registry.go
package probe

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	errNoProber = errors.New("no prober registered for mode")
	errNotIPv4  = errors.New("target has no IPv4 address")
)

// Mode selects how targets are probed.
type Mode string

const (
	ModeICMP    Mode = "icmp"
	ModeTCP     Mode = "tcp"
	ModeSNMP    Mode = "snmp"
	ModeCommand Mode = "command"
)

// Options carries the mode-specific knobs a factory may need.
type Options struct {
	Privileged    bool
	TCPPort       int
	SNMPCommunity string
	SNMPPort      int
	PingBinary    string
}

// Factory builds a Prober from options.
type Factory func(opts Options, logger *zap.Logger) (Prober, error)

// Registry maps probe modes to factories.
type Registry struct {
	factories map[Mode]Factory
}

// NewRegistry returns a registry with the built-in modes registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[Mode]Factory)}

	r.Register(ModeICMP, func(opts Options, logger *zap.Logger) (Prober, error) {
		return NewICMPProber(opts.Privileged, logger), nil
	})
	r.Register(ModeTCP, func(opts Options, logger *zap.Logger) (Prober, error) {
		return NewTCPProber(opts.TCPPort, logger), nil
	})
	r.Register(ModeSNMP, func(opts Options, logger *zap.Logger) (Prober, error) {
		return NewSNMPProber(opts.SNMPCommunity, opts.SNMPPort, logger), nil
	})
	r.Register(ModeCommand, func(opts Options, logger *zap.Logger) (Prober, error) {
		return NewCommandProber(opts.PingBinary, logger), nil
	})

	return r
}

func (r *Registry) Register(mode Mode, factory Factory) {
	r.factories[mode] = factory
}

func (r *Registry) Get(mode Mode, opts Options, logger *zap.Logger) (Prober, error) {
	f, ok := r.factories[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errNoProber, mode)
	}

	return f(opts, logger)
}

// Modes lists the registered modes.
func (r *Registry) Modes() []Mode {
	modes := make([]Mode, 0, len(r.factories))
	for m := range r.factories {
		modes = append(modes, m)
	}

	return modes
}
