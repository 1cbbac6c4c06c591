package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/carverauto/asna/pkg/models"
)

var identity = models.Identity{
	DeviceName: "core1",
	Role:       models.RoleCore,
	Strategy:   models.StrategyRuleBased,
}

func newJournal(t *testing.T) *Journal {
	t.Helper()

	j, err := New(":memory:", nil)
	require.NoError(t, err)

	t.Cleanup(func() { _ = j.Close() })

	return j
}

func TestJournalRecordsEvents(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()
	now := time.Now().UTC()

	j.HandleEvent(ctx, models.Event{
		ID:       "ev-1",
		Type:     models.EventIsolated,
		Time:     now,
		Identity: identity,
		Cycle:    &models.CycleResult{ReachableCount: 0, TargetCount: 2, Threshold: 1},
		Duration: 15 * time.Second,
	})
	j.HandleEvent(ctx, models.Event{
		ID:       "ev-2",
		Type:     models.EventRecovery,
		Time:     now.Add(time.Second),
		Identity: identity,
		Outcome: &models.RecoveryOutcome{
			DispatchID: "d-1",
			Strategy:   models.StrategyRuleBased,
			Succeeded:  true,
			Duration:   3 * time.Second,
			Attempts: []models.Attempt{
				{Action: models.RecoveryAction{Name: "interface-bounce", Command: "ip link"}, StartedAt: now, Duration: time.Second},
				{Action: models.RecoveryAction{Name: "route-reset", Command: "ip route"}, Succeeded: true, StartedAt: now, Duration: 2 * time.Second},
			},
		},
	})
	// cycle events are not journaled
	j.HandleEvent(ctx, models.Event{ID: "ev-3", Type: models.EventCycle, Time: now, Identity: identity, Cycle: &models.CycleResult{}})
	j.HandleEvent(ctx, models.Event{
		ID:       "ev-4",
		Type:     models.EventRestored,
		Time:     now.Add(2 * time.Second),
		Identity: identity,
		Cycle:    &models.CycleResult{ReachableCount: 2, TargetCount: 2, Threshold: 1},
		Duration: 30 * time.Second,
	})

	records, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "ev-4", records[0].ID)
	assert.Equal(t, models.EventRestored, records[0].Type)
	assert.Equal(t, 30*time.Second, records[0].Duration)
	assert.Equal(t, 2, records[0].Reachable)

	assert.Equal(t, "d-1", records[1].ID)
	assert.Equal(t, models.EventRecovery, records[1].Type)
	assert.True(t, records[1].Succeeded)
	assert.Equal(t, 2, records[1].Attempts)
	assert.Equal(t, "rule-based", records[1].Strategy)

	assert.Equal(t, models.EventIsolated, records[2].Type)
	assert.Equal(t, "core1", records[2].Device)
	assert.True(t, now.Equal(records[2].Timestamp))

	attempts, err := j.Attempts(ctx, "d-1")
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "interface-bounce", attempts[0].Action.Name)
	assert.False(t, attempts[0].Succeeded)
	assert.True(t, attempts[1].Succeeded)
}

func TestRecentLimit(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()
	base := time.Now()

	for i := range 5 {
		require.NoError(t, j.RecordTransition(ctx, models.Event{
			ID:       string(rune('a' + i)),
			Type:     models.EventIsolated,
			Time:     base.Add(time.Duration(i) * time.Second),
			Identity: identity,
		}))
	}

	records, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "e", records[0].ID)
	assert.Equal(t, "d", records[1].ID)

	_, err = j.Recent(ctx, -1)
	require.ErrorIs(t, err, ErrInvalidLimit)
}

func TestDuplicateDispatchRollsBack(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	j, err := New(":memory:", zap.New(core))
	require.NoError(t, err)

	t.Cleanup(func() { _ = j.Close() })

	outcome := models.RecoveryOutcome{
		DispatchID: "d-1",
		Strategy:   models.StrategyRuleBased,
		Attempts:   []models.Attempt{{Action: models.RecoveryAction{Name: "a"}}},
	}

	ev := models.Event{ID: "x", Type: models.EventRecovery, Time: time.Now(), Identity: identity, Outcome: &outcome}

	j.HandleEvent(context.Background(), ev)
	j.HandleEvent(context.Background(), ev)

	assert.Equal(t, 1, logs.FilterMessage("failed to journal event").Len())

	attempts, err := j.Attempts(context.Background(), "d-1")
	require.NoError(t, err)
	assert.Len(t, attempts, 1)
}

func TestPrune(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()
	old := time.Now().Add(-10 * 24 * time.Hour)

	require.NoError(t, j.RecordTransition(ctx, models.Event{ID: "old", Type: models.EventIsolated, Time: old, Identity: identity}))
	require.NoError(t, j.RecordTransition(ctx, models.Event{ID: "new", Type: models.EventRestored, Time: time.Now(), Identity: identity}))
	require.NoError(t, j.RecordRecovery(ctx, "core1", old, models.RecoveryOutcome{
		DispatchID: "d-old",
		Attempts:   []models.Attempt{{Action: models.RecoveryAction{Name: "a"}, StartedAt: old}},
	}))

	require.NoError(t, j.Prune(ctx, DefaultRetention))

	records, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].ID)

	attempts, err := j.Attempts(ctx, "d-old")
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestStartPruningStopsOnCancel(t *testing.T) {
	j := newJournal(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, j.StartPruning(ctx, 10*time.Millisecond, time.Hour), context.DeadlineExceeded)
}
