package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/asna/pkg/db"
	"github.com/carverauto/asna/pkg/metrics"
	"github.com/carverauto/asna/pkg/models"
)

func testSnapshot(isolated bool) models.Snapshot {
	return models.Snapshot{
		Identity: models.Identity{
			DeviceName: "access1",
			Role:       models.RoleAccess,
			Strategy:   models.StrategyRuleBased,
		},
		Isolated: isolated,
	}
}

func do(t *testing.T, s http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, target, http.NoBody))

	return rec
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name     string
		isolated bool
		code     int
		status   string
	}{
		{name: "healthy", code: http.StatusOK, status: "ok"},
		{name: "isolated", isolated: true, code: http.StatusServiceUnavailable, status: "isolated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			source := NewMockSnapshotSource(ctrl)
			source.EXPECT().Snapshot().Return(testSnapshot(tt.isolated))

			rec := do(t, NewServer(source), http.MethodGet, "/healthz")

			assert.Equal(t, tt.code, rec.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.status, body["status"])
			assert.Equal(t, "access1", body["device"])
		})
	}
}

func TestStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockSnapshotSource(ctrl)
	source.EXPECT().Snapshot().Return(testSnapshot(true))

	rec := do(t, NewServer(source), http.MethodGet, "/api/status")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "access1", body["device"])
	assert.Equal(t, "access", body["role"])
	assert.Equal(t, true, body["is_isolated"])
	assert.Nil(t, body["last_check"])
}

func TestPreflight(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockSnapshotSource(ctrl)

	rec := do(t, NewServer(source), http.MethodOptions, "/api/status")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockSnapshotSource(ctrl)
	journal := NewMockEventStore(ctrl)

	records := []db.Record{{ID: "1", Type: models.EventIsolated, Device: "access1"}}

	journal.EXPECT().Recent(gomock.Any(), 5).Return(records, nil)
	journal.EXPECT().Recent(gomock.Any(), 0).Return(nil, nil)
	journal.EXPECT().Recent(gomock.Any(), -1).Return(nil, db.ErrInvalidLimit)
	journal.EXPECT().Recent(gomock.Any(), 7).Return(nil, errors.New("disk gone"))

	s := NewServer(source, WithJournal(journal))

	rec := do(t, s, http.MethodGet, "/api/events?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []db.Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, models.EventIsolated, got[0].Type)

	rec = do(t, s, http.MethodGet, "/api/events")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/events?limit=-1").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/events?limit=abc").Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, s, http.MethodGet, "/api/events?limit=7").Code)
}

func TestEventsWithoutJournal(t *testing.T) {
	ctrl := gomock.NewController(t)

	rec := do(t, NewServer(NewMockSnapshotSource(ctrl)), http.MethodGet, "/api/events")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	history := NewMockHistorySource(ctrl)
	history.EXPECT().Points().Return([]metrics.Point{{Reachable: 2, Targets: 3}})

	rec := do(t, NewServer(NewMockSnapshotSource(ctrl), WithHistory(history)), http.MethodGet, "/api/history")

	require.Equal(t, http.StatusOK, rec.Code)

	var got []metrics.Point
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Reachable)
}

func TestMetricsRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	exporter := metrics.NewExporter()

	rec := do(t, NewServer(NewMockSnapshotSource(ctrl), WithMetricsHandler(exporter.Handler())), http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMethodNotAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)

	rec := do(t, NewServer(NewMockSnapshotSource(ctrl)), http.MethodPost, "/api/status")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStream(t *testing.T) {
	ctrl := gomock.NewController(t)
	hub := NewHub(nil)

	ts := httptest.NewServer(NewServer(NewMockSnapshotSource(ctrl), WithHub(hub)))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + streamPath

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
		_ = conn.Close()
	}()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.HandleEvent(context.Background(), models.Event{ID: "ev-1", Type: models.EventRestored})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var ev models.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "ev-1", ev.ID)
	assert.Equal(t, models.EventRestored, ev.Type)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamOrigins(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  func(serverURL string) string
		wantOK  bool
	}{
		{
			name:   "same host",
			origin: func(u string) string { return u },
			wantOK: true,
		},
		{
			name:   "foreign origin",
			origin: func(string) string { return "https://evil.example.com" },
		},
		{
			name:    "configured origin",
			allowed: []string{"https://noc.example.com/"},
			origin:  func(string) string { return "https://NOC.example.com" },
			wantOK:  true,
		},
		{
			name:    "wildcard",
			allowed: []string{"*"},
			origin:  func(string) string { return "https://anywhere.example.net" },
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			hub := NewHub(nil, tt.allowed...)

			ts := httptest.NewServer(NewServer(NewMockSnapshotSource(ctrl), WithHub(hub)))
			defer ts.Close()

			header := http.Header{}
			header.Set("Origin", tt.origin(ts.URL))

			conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+streamPath, header)
			if resp != nil {
				defer func() { _ = resp.Body.Close() }()
			}

			if !tt.wantOK {
				require.ErrorIs(t, err, websocket.ErrBadHandshake)
				require.NotNil(t, resp)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
				assert.Zero(t, hub.Clients())

				return
			}

			require.NoError(t, err)
			defer func() { _ = conn.Close() }()

			assert.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
		})
	}
}

func TestHubDropsForSlowClient(t *testing.T) {
	hub := NewHub(nil)
	c := &client{send: make(chan models.Event, 1)}
	hub.clients[c] = struct{}{}

	hub.HandleEvent(context.Background(), models.Event{ID: "a"})
	hub.HandleEvent(context.Background(), models.Event{ID: "b"})

	require.Len(t, c.send, 1)
	assert.Equal(t, "a", (<-c.send).ID)
}

func TestStartShutsDownOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := NewServer(NewMockSnapshotSource(ctrl))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- s.Start(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
