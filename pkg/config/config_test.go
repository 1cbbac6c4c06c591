package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/asna/pkg/models"
)

func clearEnv(t *testing.T) {
	t.Helper()

	for _, name := range []string{
		"DEVICE_NAME", "DEVICE_IP", "DEVICE_ROLE", "AGENT_TYPE",
		"ASNA_DEVICE_NAME", "ASNA_DEVICE_ADDRESS", "ASNA_DEVICE_ROLE", "ASNA_DEVICE_STRATEGY",
		"ASNA_PROBE_MODE",
	} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

const sampleYAML = `
device:
  name: access1
  address: 172.20.20.3
  role: access
  strategy: brute_force
topology:
  access:
    targets: ["10.0.0.1", "10.0.0.2"]
    threshold: 2
scheduler:
  interval: 5s
probe:
  mode: tcp
  tcp_port: 443
recovery:
  timeout: 30s
  actions:
    - name: bounce
      command: ip link set eth1 down && ip link set eth1 up
      timeout: 4s
http:
  allowed_origins: ["https://noc.example.com"]
alerts:
  webhooks:
    - enabled: true
      url: https://hooks.example.com/asna
      cooldown: 1m
`

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, "asna.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Scheduler.Interval)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.FaultBackoff)
	assert.Equal(t, "tcp", cfg.Probe.Mode)
	assert.Equal(t, 443, cfg.Probe.TCPPort)
	assert.Equal(t, 2*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Recovery.Timeout)
	require.Len(t, cfg.Recovery.Actions, 1)
	assert.Equal(t, 4*time.Second, cfg.Recovery.Actions[0].Timeout)
	require.Len(t, cfg.Alerts.Webhooks, 1)
	assert.Equal(t, time.Minute, cfg.Alerts.Webhooks[0].Cooldown)
	assert.Equal(t, []string{"https://noc.example.com"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, ":8080", cfg.HTTP.Listen)

	id, err := cfg.Identity()
	require.NoError(t, err)
	assert.Equal(t, models.Identity{
		DeviceName:    "access1",
		DeviceAddress: "172.20.20.3",
		Role:          models.RoleAccess,
		Strategy:      models.StrategyRuleBased,
	}, id)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, policy.TargetsFor(models.RoleAccess))
	assert.Equal(t, 2, policy.ThresholdFor(models.RoleAccess))
	assert.Equal(t, []string{"8.8.8.8", "1.1.1.1"}, policy.TargetsFor(models.RoleCore))
}

func TestLoadEnvironmentOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEVICE_NAME", "core1")
	t.Setenv("DEVICE_ROLE", "core")
	t.Setenv("AGENT_TYPE", "rl")
	t.Setenv("ASNA_PROBE_MODE", "snmp")

	cfg, err := Load("")
	require.NoError(t, err)

	id, err := cfg.Identity()
	require.NoError(t, err)
	assert.Equal(t, "core1", id.DeviceName)
	assert.Equal(t, models.RoleCore, id.Role)
	assert.Equal(t, models.StrategyReinforcement, id.Strategy)
	assert.Equal(t, "snmp", cfg.Probe.Mode)
	assert.Equal(t, ":8080", cfg.HTTP.Listen)
	assert.Equal(t, 15*time.Second, cfg.Scheduler.Interval)
}

func TestLoadDefaultsDeviceIdentity(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	id, err := cfg.Identity()
	require.NoError(t, err)
	assert.Equal(t, "unknown", id.DeviceName)
	assert.Equal(t, "127.0.0.1", id.DeviceAddress)
	assert.Equal(t, models.RoleEndpoint, id.Role)
	assert.Equal(t, models.StrategyRuleBased, id.Strategy)
}

func TestPrefixedEnvWinsOverLegacy(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEVICE_NAME", "legacy")
	t.Setenv("ASNA_DEVICE_NAME", "prefixed")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Device.Name)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "empty device name",
			body: "device:\n  name: \"\"\n  role: core\n",
		},
		{
			name: "unknown role",
			body: "device:\n  name: x\n  role: edge\n",
		},
		{
			name: "unknown strategy",
			body: "device:\n  name: x\n  strategy: genetic\n",
		},
		{
			name: "unknown probe mode",
			body: "device:\n  name: x\nprobe:\n  mode: arp\n",
		},
		{
			name: "cap below timeout",
			body: "device:\n  name: x\nprobe:\n  timeout: 3s\n  cap: 1s\n",
		},
		{
			name: "threshold above targets",
			body: "device:\n  name: x\ntopology:\n  core:\n    targets: [\"10.0.0.1\"]\n    threshold: 3\n",
		},
		{
			name: "enabled webhook without url",
			body: "device:\n  name: x\nalerts:\n  webhooks:\n    - enabled: true\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			_, err := Load(writeConfig(t, "asna.yaml", tt.body))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadJSON(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, "asna.json", `{"device":{"name":"srv1","role":"server"},"audit":{"enabled":true,"path":"/tmp/j.db"}}`))
	require.NoError(t, err)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, 7*24*time.Hour, cfg.Audit.Retention)
	assert.Equal(t, "server", cfg.Device.Role)
}

func TestValidateConfigSkipsNonValidators(t *testing.T) {
	require.NoError(t, ValidateConfig(struct{}{}))
}
