package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/asna/pkg/models"
)

var identity = models.Identity{
	DeviceName: "dist1",
	Role:       models.RoleDistribution,
	Strategy:   models.StrategyRuleBased,
}

func TestExporterCycleEvent(t *testing.T) {
	e := NewExporter()

	e.HandleEvent(context.Background(), models.Event{
		Type:     models.EventCycle,
		Identity: identity,
		Cycle: &models.CycleResult{
			ReachableCount: 1,
			TargetCount:    2,
			Isolated:       false,
			Probes: []models.ProbeResult{
				{Target: "172.20.20.8", Reachable: true},
				{Target: "172.20.20.11", Reachable: false},
			},
		},
	})

	assert.InDelta(t, 1.0, testutil.ToFloat64(e.cycles.WithLabelValues("dist1")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(e.reachable.WithLabelValues("dist1")), 0)
	assert.InDelta(t, 0.0, testutil.ToFloat64(e.isolated.WithLabelValues("dist1", "distribution")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(e.probes.WithLabelValues("dist1", "172.20.20.11", "failure")), 0)
}

func TestExporterTransitionsAndRecovery(t *testing.T) {
	e := NewExporter()
	ctx := context.Background()

	e.HandleEvent(ctx, models.Event{Type: models.EventIsolated, Identity: identity, Duration: 15 * time.Second})
	e.HandleEvent(ctx, models.Event{
		Type:     models.EventRecovery,
		Identity: identity,
		Outcome: &models.RecoveryOutcome{
			Strategy:  models.StrategyRuleBased,
			Succeeded: true,
			Attempts: []models.Attempt{
				{Action: models.RecoveryAction{Name: "interface-bounce"}, Succeeded: false},
				{Action: models.RecoveryAction{Name: "route-reset"}, Succeeded: true},
			},
		},
	})
	e.HandleEvent(ctx, models.Event{Type: models.EventRestored, Identity: identity, Duration: 30 * time.Second})

	assert.InDelta(t, 1.0, testutil.ToFloat64(e.transitions.WithLabelValues("dist1", "isolated")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(e.transitions.WithLabelValues("dist1", "restored")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(e.dispatches.WithLabelValues("dist1", "rule-based", "success")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(e.actions.WithLabelValues("dist1", "interface-bounce", "failure")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(e.mttr, "asna_mttr_seconds"))
	assert.Equal(t, 1, testutil.CollectAndCount(e.detectionLatency, "asna_detection_latency_seconds"))
}

func TestExporterIgnoresIncompleteEvents(t *testing.T) {
	e := NewExporter()

	e.HandleEvent(context.Background(), models.Event{Type: models.EventCycle, Identity: identity})
	e.HandleEvent(context.Background(), models.Event{Type: models.EventRecovery, Identity: identity})

	assert.Equal(t, 0, testutil.CollectAndCount(e.cycles))
	assert.Equal(t, 0, testutil.CollectAndCount(e.dispatches))
}

func TestExporterHandler(t *testing.T) {
	e := NewExporter()
	e.HandleEvent(context.Background(), models.Event{Type: models.EventIsolated, Identity: identity, Duration: time.Second})

	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `asna_transitions_total{device="dist1",transition="isolated"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
