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

// Package topology maps a device's network role to the neighbours it must be
// able to reach and how many of them are required to count as connected.
package topology

import (
	"errors"
	"fmt"

	"github.com/carverauto/asna/pkg/models"
)

var (
	errNoTargets        = errors.New("role has no health-check targets")
	errInvalidThreshold = errors.New("isolation threshold must be at least 1")
	errUnreachable      = errors.New("isolation threshold exceeds target count")
	errUnknownRole      = errors.New("unknown role in topology override")
)

// DefaultThreshold applies to any role without an explicit entry.
const DefaultThreshold = 1

// Policy answers which targets a role probes and how many must respond.
// Implementations are pure and total.
type Policy interface {
	TargetsFor(role models.Role) []string
	ThresholdFor(role models.Role) int
}

// Table is a static role -> entry lookup with a fallback entry for roles it
// does not know about.
type Table struct {
	entries  map[models.Role]models.TopologyEntry
	fallback models.TopologyEntry
}

var _ Policy = (*Table)(nil)

// DefaultEntries is the containerlab reference topology: core devices check
// external reachability, every other layer checks the layer above it.
func DefaultEntries() map[models.Role]models.TopologyEntry {
	accessLayer := []string{"172.20.20.2", "172.20.20.7"}

	return map[models.Role]models.TopologyEntry{
		models.RoleCore:         {Targets: []string{"8.8.8.8", "1.1.1.1"}, Threshold: 1},
		models.RoleDistribution: {Targets: []string{"172.20.20.8", "172.20.20.11"}, Threshold: 1},
		models.RoleAccess:       {Targets: []string{"172.20.20.3", "172.20.20.12", "172.20.20.13"}, Threshold: 1},
		models.RoleEndpoint:     {Targets: accessLayer, Threshold: 1},
		models.RoleServer:       {Targets: append([]string(nil), accessLayer...), Threshold: 1},
	}
}

// Default returns the reference table.
func Default() *Table {
	t, err := New(nil)
	if err != nil {
		// the built-in entries are validated by tests
		panic(err)
	}

	return t
}

// New builds a table from the defaults with the given per-role overrides
// applied. Overrides replace the whole entry for a role; a zero threshold
// in an override means DefaultThreshold.
func New(overrides map[models.Role]models.TopologyEntry) (*Table, error) {
	entries := DefaultEntries()

	for role, entry := range overrides {
		if !role.Valid() {
			return nil, fmt.Errorf("%w: %q", errUnknownRole, role)
		}

		if entry.Threshold == 0 {
			entry.Threshold = DefaultThreshold
		}

		entries[role] = models.TopologyEntry{
			Targets:   append([]string(nil), entry.Targets...),
			Threshold: entry.Threshold,
		}
	}

	for role, entry := range entries {
		if err := validateEntry(entry); err != nil {
			return nil, fmt.Errorf("role %s: %w", role, err)
		}
	}

	return &Table{
		entries: entries,
		// unknown roles sit at the edge of the topology and check the access layer
		fallback: models.TopologyEntry{
			Targets:   append([]string(nil), entries[models.RoleEndpoint].Targets...),
			Threshold: DefaultThreshold,
		},
	}, nil
}

func validateEntry(entry models.TopologyEntry) error {
	if len(entry.Targets) == 0 {
		return errNoTargets
	}

	if entry.Threshold < 1 {
		return fmt.Errorf("%w: got %d", errInvalidThreshold, entry.Threshold)
	}

	if entry.Threshold > len(entry.Targets) {
		return fmt.Errorf("%w: threshold %d, %d targets", errUnreachable, entry.Threshold, len(entry.Targets))
	}

	return nil
}

// TargetsFor returns a copy of the role's ordered target list.
func (t *Table) TargetsFor(role models.Role) []string {
	return append([]string(nil), t.lookup(role).Targets...)
}

// ThresholdFor returns the minimum number of reachable targets for role.
func (t *Table) ThresholdFor(role models.Role) int {
	return t.lookup(role).Threshold
}

// Entry returns a copy of the entry used for role.
func (t *Table) Entry(role models.Role) models.TopologyEntry {
	e := t.lookup(role)

	return models.TopologyEntry{Targets: append([]string(nil), e.Targets...), Threshold: e.Threshold}
}

func (t *Table) lookup(role models.Role) models.TopologyEntry {
	if e, ok := t.entries[role]; ok {
		return e
	}

	return t.fallback
}
