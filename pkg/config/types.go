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

// Package config pkg/config/types.go
package config

import (
	"time"

	"github.com/carverauto/asna/pkg/alerts"
	"github.com/carverauto/asna/pkg/logger"
	"github.com/carverauto/asna/pkg/models"
)

// Config is the agent's full configuration.
type Config struct {
	Device      DeviceConfig                    `mapstructure:"device" json:"device"`
	Topology    map[string]models.TopologyEntry `mapstructure:"topology" json:"topology,omitempty" validate:"dive"`
	Scheduler   SchedulerConfig                 `mapstructure:"scheduler" json:"scheduler"`
	Probe       ProbeConfig                     `mapstructure:"probe" json:"probe"`
	Recovery    RecoveryConfig                  `mapstructure:"recovery" json:"recovery"`
	Remediation RemediationConfig               `mapstructure:"remediation" json:"remediation"`
	Reporting   ReportingConfig                 `mapstructure:"reporting" json:"reporting"`
	Logging     logger.Config                   `mapstructure:"logging" json:"logging"`
	HTTP        ListenerConfig                  `mapstructure:"http" json:"http"`
	GRPC        ListenerConfig                  `mapstructure:"grpc" json:"grpc"`
	Audit       AuditConfig                     `mapstructure:"audit" json:"audit"`
	Alerts      AlertsConfig                    `mapstructure:"alerts" json:"alerts"`
}

// DeviceConfig identifies the device. Role and strategy are parsed at
// startup; unknown values are fatal.
type DeviceConfig struct {
	Name     string `mapstructure:"name" json:"name" validate:"required"`
	Address  string `mapstructure:"address" json:"address" validate:"omitempty,ip|hostname"`
	Role     string `mapstructure:"role" json:"role" validate:"required"`
	Strategy string `mapstructure:"strategy" json:"strategy" validate:"required"`
}

type SchedulerConfig struct {
	Interval     time.Duration `mapstructure:"interval" json:"interval" validate:"gt=0"`
	FaultBackoff time.Duration `mapstructure:"fault_backoff" json:"fault_backoff" validate:"gt=0"`
}

type ProbeConfig struct {
	Mode          string        `mapstructure:"mode" json:"mode" validate:"oneof=icmp tcp snmp command"`
	Timeout       time.Duration `mapstructure:"timeout" json:"timeout" validate:"gt=0"`
	Cap           time.Duration `mapstructure:"cap" json:"cap" validate:"gtefield=Timeout"`
	Retries       int           `mapstructure:"retries" json:"retries" validate:"gte=0,lte=5"`
	Concurrency   int           `mapstructure:"concurrency" json:"concurrency" validate:"gte=1"`
	Privileged    bool          `mapstructure:"privileged" json:"privileged"`
	TCPPort       int           `mapstructure:"tcp_port" json:"tcp_port" validate:"gte=0,lte=65535"`
	SNMPCommunity string        `mapstructure:"snmp_community" json:"snmp_community"`
	SNMPPort      int           `mapstructure:"snmp_port" json:"snmp_port" validate:"gte=0,lte=65535"`
	PingBinary    string        `mapstructure:"ping_binary" json:"ping_binary"`
}

type RecoveryConfig struct {
	Timeout time.Duration           `mapstructure:"timeout" json:"timeout" validate:"gt=0"`
	Actions []models.RecoveryAction `mapstructure:"actions" json:"actions,omitempty" validate:"dive"`
}

type RemediationConfig struct {
	DryRun bool `mapstructure:"dry_run" json:"dry_run"`
	// RateLimit is commands per minute; zero disables throttling.
	RateLimit float64 `mapstructure:"rate_limit" json:"rate_limit" validate:"gte=0"`
	Burst     int     `mapstructure:"burst" json:"burst" validate:"gte=0"`
}

type ReportingConfig struct {
	Interval    time.Duration `mapstructure:"interval" json:"interval" validate:"gt=0"`
	HistorySize int           `mapstructure:"history_size" json:"history_size" validate:"gte=0"`
}

type ListenerConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Listen  string `mapstructure:"listen" json:"listen" validate:"required_if=Enabled true"`
	// AllowedOrigins lists browser origins, beyond the agent's own host,
	// that may subscribe to the event stream. HTTP listener only.
	AllowedOrigins []string `mapstructure:"allowed_origins" json:"allowed_origins,omitempty"`
}

type AuditConfig struct {
	Enabled       bool          `mapstructure:"enabled" json:"enabled"`
	Path          string        `mapstructure:"path" json:"path" validate:"required_if=Enabled true"`
	Retention     time.Duration `mapstructure:"retention" json:"retention" validate:"gte=0"`
	PruneInterval time.Duration `mapstructure:"prune_interval" json:"prune_interval" validate:"gte=0"`
}

type AlertsConfig struct {
	Webhooks []alerts.WebhookConfig `mapstructure:"webhooks" json:"webhooks,omitempty" validate:"dive"`
	Discord  DiscordConfig          `mapstructure:"discord" json:"discord"`
}

type DiscordConfig struct {
	URL      string        `mapstructure:"url" json:"url" validate:"omitempty,url"`
	Cooldown time.Duration `mapstructure:"cooldown" json:"cooldown" validate:"gte=0"`
}
