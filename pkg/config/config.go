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

// Package config loads agent configuration from a file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/carverauto/asna/pkg/models"
	"github.com/carverauto/asna/pkg/topology"
)

var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	errWebhookURL     = errors.New("enabled webhook has no url")
	errUnknownTopoKey = errors.New("unknown role in topology")
)

// EnvPrefix prefixes every environment override, e.g. ASNA_PROBE_MODE.
const EnvPrefix = "ASNA"

// legacyEnv maps config keys to the bare variables the lab containers set.
var legacyEnv = map[string]string{
	"device.name":     "DEVICE_NAME",
	"device.address":  "DEVICE_IP",
	"device.role":     "DEVICE_ROLE",
	"device.strategy": "AGENT_TYPE",
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("device.name", "unknown")
	v.SetDefault("device.address", "127.0.0.1")
	v.SetDefault("device.role", string(models.RoleEndpoint))
	v.SetDefault("device.strategy", string(models.StrategyRuleBased))

	v.SetDefault("scheduler.interval", 15*time.Second)
	v.SetDefault("scheduler.fault_backoff", 5*time.Second)

	v.SetDefault("probe.mode", "icmp")
	v.SetDefault("probe.timeout", 2*time.Second)
	v.SetDefault("probe.cap", 5*time.Second)
	v.SetDefault("probe.retries", 0)
	v.SetDefault("probe.concurrency", 8)
	v.SetDefault("probe.privileged", false)
	v.SetDefault("probe.tcp_port", 22)
	v.SetDefault("probe.snmp_community", "public")
	v.SetDefault("probe.snmp_port", 161)
	v.SetDefault("probe.ping_binary", "ping")

	v.SetDefault("recovery.timeout", 60*time.Second)

	v.SetDefault("remediation.dry_run", false)
	v.SetDefault("remediation.rate_limit", 0)
	v.SetDefault("remediation.burst", 1)

	v.SetDefault("reporting.interval", 60*time.Second)
	v.SetDefault("reporting.history_size", 240)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 14)
	v.SetDefault("logging.compress", true)

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.listen", ":8080")
	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.listen", ":50061")

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.path", "/var/lib/asna/journal.db")
	v.SetDefault("audit.retention", 7*24*time.Hour)
	v.SetDefault("audit.prune_interval", time.Hour)

	v.SetDefault("alerts.discord.url", "")
	v.SetDefault("alerts.discord.cooldown", 5*time.Minute)
}

// Load reads configuration from path (JSON or YAML by extension) and the
// environment, then validates it. With an empty path it looks for
// asna.{yaml,json} in /etc/asna and the working directory, and runs on
// defaults and environment alone when none exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), legacy); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
	} else {
		v.SetConfigName("asna")
		v.AddConfigPath("/etc/asna")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg any) error {
	if v, ok := cfg.(Validator); ok {
		return v.Validate()
	}

	return nil
}

// Validate checks struct constraints, then the values that need parsing.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if _, err := c.Identity(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	for i, wh := range c.Alerts.Webhooks {
		if wh.Enabled && wh.URL == "" {
			return fmt.Errorf("%w: webhook %d: %w", ErrInvalidConfig, i, errWebhookURL)
		}
	}

	return nil
}

// Identity parses the device section.
func (c *Config) Identity() (models.Identity, error) {
	role, err := models.ParseRole(c.Device.Role)
	if err != nil {
		return models.Identity{}, err
	}

	strategy, err := models.ParseStrategyKind(c.Device.Strategy)
	if err != nil {
		return models.Identity{}, err
	}

	id := models.Identity{
		DeviceName:    strings.TrimSpace(c.Device.Name),
		DeviceAddress: strings.TrimSpace(c.Device.Address),
		Role:          role,
		Strategy:      strategy,
	}

	return id, id.Validate()
}

// Policy builds the topology table with any configured overrides applied.
func (c *Config) Policy() (*topology.Table, error) {
	overrides := make(map[models.Role]models.TopologyEntry, len(c.Topology))

	for key, entry := range c.Topology {
		role, err := models.ParseRole(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errUnknownTopoKey, err)
		}

		overrides[role] = entry
	}

	return topology.New(overrides)
}
