package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/carverauto/asna/pkg/models"
)

type scriptedCycler struct {
	mu     sync.Mutex
	calls  []time.Time
	script []func() error
	ran    chan struct{}
}

func newScriptedCycler(script ...func() error) *scriptedCycler {
	return &scriptedCycler{script: script, ran: make(chan struct{}, 100)}
}

func (c *scriptedCycler) RunCycle(context.Context) (models.CycleResult, error) {
	c.mu.Lock()
	n := len(c.calls)
	c.calls = append(c.calls, time.Now())

	var step func() error
	if n < len(c.script) {
		step = c.script[n]
	}
	c.mu.Unlock()

	defer func() { c.ran <- struct{}{} }()

	if step != nil {
		return models.CycleResult{}, step()
	}

	return models.CycleResult{}, nil
}

func (c *scriptedCycler) waitFor(t *testing.T, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		select {
		case <-c.ran:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for cycle %d", i+1)
		}
	}
}

func TestSchedulerRunsImmediatelyThenWaitsInterval(t *testing.T) {
	cycler := newScriptedCycler()

	s, err := NewScheduler(cycler, SchedulerConfig{Interval: time.Hour, FaultBackoff: time.Millisecond}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	go func() { errCh <- s.Start(ctx) }()

	cycler.waitFor(t, 1)

	// the hour-long interval keeps a second cycle from running
	select {
	case <-cycler.ran:
		t.Fatal("second cycle ran before the interval elapsed")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}

func TestSchedulerBacksOffAfterFault(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	cycler := newScriptedCycler(
		func() error { return errors.New("probe socket exhausted") },
		func() error { panic("nil map write") },
	)

	s, err := NewScheduler(cycler, SchedulerConfig{Interval: time.Hour, FaultBackoff: 10 * time.Millisecond}, zap.New(core))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)

	go func() { errCh <- s.Start(ctx) }()

	// error, then panic, then a clean cycle: all on the short backoff
	cycler.waitFor(t, 3)

	s.Stop(ctx)
	require.NoError(t, <-errCh)

	assert.Equal(t, 2, logs.FilterMessage("health-check cycle failed").Len())
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	s, err := NewScheduler(newScriptedCycler(), SchedulerConfig{}, nil)
	require.NoError(t, err)

	s.Stop(context.Background())
	s.Stop(context.Background())

	assert.Equal(t, DefaultInterval, s.config.Interval)
	assert.Equal(t, DefaultFaultBackoff, s.config.FaultBackoff)
	require.NoError(t, s.Start(context.Background()))
}

func TestSchedulerRejectsNegativeInterval(t *testing.T) {
	_, err := NewScheduler(newScriptedCycler(), SchedulerConfig{Interval: -time.Second}, nil)
	require.ErrorIs(t, err, errInvalidInterval)
}

func TestSchedulerCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := NewScheduler(newScriptedCycler(func() error { return ctx.Err() }), SchedulerConfig{}, nil)
	require.NoError(t, err)

	require.ErrorIs(t, s.Start(ctx), context.Canceled)
}
