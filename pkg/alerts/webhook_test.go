package alerts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	mu      sync.Mutex
	bodies  [][]byte
	headers []http.Header
	status  int
}

func (c *capture) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	c.mu.Lock()
	c.bodies = append(c.bodies, body)
	c.headers = append(c.headers, r.Header.Clone())
	status := c.status
	c.mu.Unlock()

	if status == 0 {
		status = http.StatusNoContent
	}

	w.WriteHeader(status)
	_, _ = w.Write([]byte("nope"))
}

func newServer(t *testing.T, status int) (*httptest.Server, *capture) {
	t.Helper()

	c := &capture{status: status}
	srv := httptest.NewServer(http.HandlerFunc(c.handler))
	t.Cleanup(srv.Close)

	return srv, c
}

func TestWebhookAlerterSendsJSON(t *testing.T) {
	srv, c := newServer(t, 0)

	w := NewWebhookAlerter(WebhookConfig{
		Enabled: true,
		URL:     srv.URL,
		Headers: []Header{{Key: "Authorization", Value: "Bearer x"}},
	}, nil)

	err := w.Alert(context.Background(), &WebhookAlert{Level: Warning, Title: "Device Isolated", Device: "core1"})
	require.NoError(t, err)

	require.Len(t, c.bodies, 1)

	var got WebhookAlert
	require.NoError(t, json.Unmarshal(c.bodies[0], &got))
	assert.Equal(t, "core1", got.Device)
	assert.NotEmpty(t, got.Timestamp)
	assert.Equal(t, "application/json", c.headers[0].Get("Content-Type"))
	assert.Equal(t, "Bearer x", c.headers[0].Get("Authorization"))
}

func TestWebhookAlerterCooldown(t *testing.T) {
	srv, c := newServer(t, 0)

	w := NewWebhookAlerter(WebhookConfig{Enabled: true, URL: srv.URL, Cooldown: time.Hour}, nil)
	ctx := context.Background()

	require.NoError(t, w.Alert(ctx, &WebhookAlert{Title: "Device Isolated", Device: "core1"}))
	require.ErrorIs(t, w.Alert(ctx, &WebhookAlert{Title: "Device Isolated", Device: "core1"}), ErrWebhookCooldown)
	// another device is not muted
	require.NoError(t, w.Alert(ctx, &WebhookAlert{Title: "Device Isolated", Device: "core2"}))

	assert.Len(t, c.bodies, 2)
}

func TestWebhookAlerterErrors(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError)

	tests := []struct {
		name    string
		config  WebhookConfig
		wantErr error
	}{
		{name: "disabled", config: WebhookConfig{URL: srv.URL}, wantErr: ErrWebhookDisabled},
		{name: "bad status", config: WebhookConfig{Enabled: true, URL: srv.URL}, wantErr: errWebhookStatus},
		{name: "bad template", config: WebhookConfig{Enabled: true, URL: srv.URL, Template: "{{"}, wantErr: errTemplateParse},
		{name: "template yields invalid json", config: WebhookConfig{Enabled: true, URL: srv.URL, Template: "not json"}, wantErr: errInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewWebhookAlerter(tt.config, nil).Alert(context.Background(), &WebhookAlert{Title: "x"})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDiscordTemplate(t *testing.T) {
	srv, c := newServer(t, 0)

	w := NewDiscordWebhook(srv.URL, 0, nil)

	require.NoError(t, w.Alert(context.Background(), &WebhookAlert{
		Level:   Error,
		Title:   "Recovery Failed",
		Message: "rule-based strategy finished without a successful action",
		Device:  "access1",
		Role:    "access",
		Details: map[string]any{"attempts": 3},
	}))

	var payload struct {
		Embeds []struct {
			Title  string `json:"title"`
			Color  int    `json:"color"`
			Fields []struct {
				Name  string `json:"name"`
				Value any    `json:"value"`
			} `json:"fields"`
		} `json:"embeds"`
	}

	require.NoError(t, json.Unmarshal(c.bodies[0], &payload))
	require.Len(t, payload.Embeds, 1)
	assert.Equal(t, "Recovery Failed", payload.Embeds[0].Title)
	assert.Equal(t, 15158332, payload.Embeds[0].Color)
	assert.Len(t, payload.Embeds[0].Fields, 3)
}

func TestWebhookAlerterCooldownExpires(t *testing.T) {
	srv, c := newServer(t, 0)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	w := NewWebhookAlerter(WebhookConfig{Enabled: true, URL: srv.URL, Cooldown: time.Minute}, nil)
	w.now = func() time.Time { return now }

	ctx := context.Background()

	require.NoError(t, w.Alert(ctx, &WebhookAlert{Title: "Device Restored", Device: "srv1"}))

	now = now.Add(30 * time.Second)
	require.ErrorIs(t, w.Alert(ctx, &WebhookAlert{Title: "Device Restored", Device: "srv1"}), ErrWebhookCooldown)

	now = now.Add(31 * time.Second)
	require.NoError(t, w.Alert(ctx, &WebhookAlert{Title: "Device Restored", Device: "srv1"}))

	assert.Len(t, c.bodies, 2)
}

func TestRenderFailureDoesNotStartCooldown(t *testing.T) {
	srv, c := newServer(t, 0)

	w := NewWebhookAlerter(WebhookConfig{Enabled: true, URL: srv.URL, Cooldown: time.Hour, Template: "{{.Missing.Field}}"}, nil)
	ctx := context.Background()

	require.ErrorIs(t, w.Alert(ctx, &WebhookAlert{Title: "x", Device: "d"}), errTemplateExecution)
	require.ErrorIs(t, w.Alert(ctx, &WebhookAlert{Title: "x", Device: "d"}), errTemplateExecution)

	assert.Empty(t, c.bodies)
}
