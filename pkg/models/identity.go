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

// Package models pkg/models/identity.go
package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRole     = errors.New("invalid network role")
	ErrInvalidStrategy = errors.New("invalid recovery strategy")
	ErrMissingDevice   = errors.New("device name is required")
)

// Role is the position of a device in the layered network topology.
type Role string

const (
	RoleCore         Role = "core"
	RoleDistribution Role = "distribution"
	RoleAccess       Role = "access"
	RoleEndpoint     Role = "endpoint"
	RoleServer       Role = "server"
)

// Roles lists every declared role in topology order (upstream first).
func Roles() []Role {
	return []Role{RoleCore, RoleDistribution, RoleAccess, RoleEndpoint, RoleServer}
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	for _, known := range Roles() {
		if r == known {
			return true
		}
	}

	return false
}

// ParseRole converts a configuration value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r.Valid() {
		return r, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// StrategyKind selects the recovery strategy an agent dispatches to.
type StrategyKind string

const (
	StrategyRuleBased     StrategyKind = "rule-based"
	StrategyReinforcement StrategyKind = "reinforcement-learning"
	StrategyFederated     StrategyKind = "federated-learning"
	StrategyLanguageModel StrategyKind = "language-model-assisted"
)

// strategyAliases maps the short tags used by the first generation of lab
// agents (AGENT_TYPE=brute_force etc.) onto strategy kinds.
var strategyAliases = map[string]StrategyKind{
	"brute_force": StrategyRuleBased,
	"rule_based":  StrategyRuleBased,
	"rl":          StrategyReinforcement,
	"fl":          StrategyFederated,
	"tiny_llm":    StrategyLanguageModel,
	"llm":         StrategyLanguageModel,
}

// StrategyKinds lists every supported strategy kind.
func StrategyKinds() []StrategyKind {
	return []StrategyKind{StrategyRuleBased, StrategyReinforcement, StrategyFederated, StrategyLanguageModel}
}

// Valid reports whether k is a canonical strategy kind.
func (k StrategyKind) Valid() bool {
	for _, known := range StrategyKinds() {
		if k == known {
			return true
		}
	}

	return false
}

// ParseStrategyKind converts a configuration value into a StrategyKind.
func ParseStrategyKind(s string) (StrategyKind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if StrategyKind(v).Valid() {
		return StrategyKind(v), nil
	}

	if kind, ok := strategyAliases[v]; ok {
		return kind, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
}

// Identity describes the device an agent runs on. It is fixed at
// construction.
type Identity struct {
	DeviceName    string       `json:"device"`
	DeviceAddress string       `json:"ip"`
	Role          Role         `json:"role"`
	Strategy      StrategyKind `json:"agent_type"`
}

// Validate checks that the identity is complete and uses known enum values.
func (id Identity) Validate() error {
	if strings.TrimSpace(id.DeviceName) == "" {
		return ErrMissingDevice
	}

	if !id.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, id.Role)
	}

	if !id.Strategy.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStrategy, id.Strategy)
	}

	return nil
}
