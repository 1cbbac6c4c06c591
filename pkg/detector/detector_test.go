package detector

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/asna/pkg/models"
	"github.com/carverauto/asna/pkg/probe"
)

var accessTargets = []string{"172.20.20.3", "172.20.20.12", "172.20.20.13"}

func TestObserveCountsReachable(t *testing.T) {
	tests := []struct {
		name      string
		reachable map[string]bool
		want      int
	}{
		{name: "one of three", reachable: map[string]bool{"172.20.20.13": true}, want: 1},
		{name: "none", reachable: map[string]bool{}, want: 0},
		{name: "all", reachable: map[string]bool{"172.20.20.3": true, "172.20.20.12": true, "172.20.20.13": true}, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			p := probe.NewMockProber(ctrl)

			for _, target := range accessTargets {
				p.EXPECT().Probe(gomock.Any(), target, DefaultProbeTimeout).Return(tt.reachable[target])
			}

			obs := New(p, Config{}, nil).Observe(context.Background(), accessTargets)

			assert.Equal(t, tt.want, obs.Reachable)
			require.Len(t, obs.Probes, len(accessTargets))

			for i, r := range obs.Probes {
				assert.Equal(t, accessTargets[i], r.Target)
				assert.Equal(t, tt.reachable[r.Target], r.Reachable)
				assert.Equal(t, 1, r.Attempts)
			}
		})
	}
}

func TestObserveRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := probe.NewMockProber(ctrl)

	gomock.InOrder(
		p.EXPECT().Probe(gomock.Any(), "10.0.0.1", gomock.Any()).Return(false),
		p.EXPECT().Probe(gomock.Any(), "10.0.0.1", gomock.Any()).Return(true),
	)

	obs := New(p, Config{Retries: 2}, nil).Observe(context.Background(), []string{"10.0.0.1"})

	assert.Equal(t, 1, obs.Reachable)
	assert.Equal(t, 2, obs.Probes[0].Attempts)
}

func TestObservePanickingProbeIsUnreachable(t *testing.T) {
	p := probe.Func(func(_ context.Context, address string, _ time.Duration) bool {
		if address == "bad" {
			panic("driver bug")
		}

		return true
	})

	obs := New(p, Config{}, nil).Observe(context.Background(), []string{"good", "bad"})

	assert.Equal(t, 1, obs.Reachable)
	assert.Len(t, obs.Probes, 2)
	assert.False(t, obs.Probes[1].Reachable)
}

func TestObserveCapBoundsRetries(t *testing.T) {
	var calls atomic.Int32

	p := probe.Func(func(ctx context.Context, _ string, timeout time.Duration) bool {
		calls.Add(1)

		select {
		case <-time.After(timeout):
		case <-ctx.Done():
		}

		return false
	})

	cfg := Config{ProbeTimeout: 40 * time.Millisecond, ProbeCap: 100 * time.Millisecond, Retries: 10}

	start := time.Now()
	obs := New(p, cfg, nil).Observe(context.Background(), []string{"10.0.0.1"})

	assert.Equal(t, 0, obs.Reachable)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.LessOrEqual(t, calls.Load(), int32(4))
}

func TestObserveRunsConcurrently(t *testing.T) {
	var (
		inFlight atomic.Int32
		peak     atomic.Int32
	)

	p := probe.Func(func(context.Context, string, time.Duration) bool {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)

		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}

		time.Sleep(50 * time.Millisecond)

		return true
	})

	obs := New(p, Config{Concurrency: 2}, nil).Observe(context.Background(), []string{"a", "b", "c", "d"})

	assert.Equal(t, 4, obs.Reachable)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		wasIsolated bool
		reachable   int
		threshold   int
		want        models.Transition
	}{
		{name: "healthy stays healthy", reachable: 1, threshold: 1, want: models.TransitionNone},
		{name: "healthy becomes isolated", reachable: 0, threshold: 1, want: models.TransitionIsolated},
		{name: "isolated stays isolated", wasIsolated: true, reachable: 1, threshold: 2, want: models.TransitionNone},
		{name: "isolated restored", wasIsolated: true, reachable: 2, threshold: 2, want: models.TransitionRestored},
		{name: "exactly threshold is healthy", reachable: 2, threshold: 2, want: models.TransitionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.wasIsolated, tt.reachable, tt.threshold))
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := New(nil, Config{ProbeTimeout: 3 * time.Second, ProbeCap: time.Second, Retries: -1}, nil).Config()

	assert.Equal(t, 3*time.Second, cfg.ProbeCap)
	assert.Equal(t, 0, cfg.Retries)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
}
