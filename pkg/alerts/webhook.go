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

// Package alerts delivers isolation and recovery alerts to webhooks.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"text/template"
	"time"

	"go.uber.org/zap"
)

var (
	ErrWebhookDisabled   = errors.New("webhook alerter is disabled")
	ErrWebhookCooldown   = errors.New("alert is within cooldown period")
	errInvalidJSON       = errors.New("invalid JSON generated")
	errWebhookStatus     = errors.New("webhook returned non-2xx status")
	errTemplateParse     = errors.New("template parsing failed")
	errTemplateExecution = errors.New("template execution failed")
)

const (
	defaultClientTimeout = 10 * time.Second
	maxErrorBody         = 1024

	colorRed    = 0xE74C3C
	colorYellow = 0xFFFF00
	colorBlue   = 0x3498DB
)

type WebhookConfig struct {
	Enabled bool     `json:"enabled" mapstructure:"enabled"`
	URL     string   `json:"url" mapstructure:"url" validate:"omitempty,url"`
	Headers []Header `json:"headers,omitempty" mapstructure:"headers"`
	// Template is a text/template rendering the request body from the
	// alert; it must produce JSON. Empty sends the alert as JSON.
	Template string        `json:"template,omitempty" mapstructure:"template"`
	Cooldown time.Duration `json:"cooldown,omitempty" mapstructure:"cooldown"`
}

type Header struct {
	Key   string `json:"key" mapstructure:"key"`
	Value string `json:"value" mapstructure:"value"`
}

type AlertLevel string

const (
	Info    AlertLevel = "info"
	Warning AlertLevel = "warning"
	Error   AlertLevel = "error"
)

type WebhookAlert struct {
	Level     AlertLevel     `json:"level"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	Device    string         `json:"device"`
	Role      string         `json:"role"`
	Details   map[string]any `json:"details,omitempty"`
}

// WebhookAlerter posts alerts as JSON, either the alert itself or the
// output of a configured template. Repeats of the same title for the same
// device are suppressed for Cooldown.
type WebhookAlerter struct {
	config      WebhookConfig
	client      *http.Client
	tmpl        *template.Template
	templateErr error
	now         func() time.Time
	logger      *zap.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
}

var _ AlertService = (*WebhookAlerter)(nil)

// NewWebhookAlerter compiles the template once; a template that does not
// parse makes every Alert call fail with errTemplateParse.
func NewWebhookAlerter(config WebhookConfig, logger *zap.Logger) *WebhookAlerter {
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &WebhookAlerter{
		config:   config,
		client:   &http.Client{Timeout: defaultClientTimeout},
		now:      time.Now,
		logger:   logger,
		lastSent: make(map[string]time.Time),
	}

	if config.Template != "" {
		w.tmpl, w.templateErr = template.New("webhook").Funcs(templateFuncs).Parse(config.Template)
		if w.templateErr != nil {
			logger.Error("webhook template does not parse", zap.Error(w.templateErr))
		}
	}

	return w
}

var templateFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("JSON marshaling failed: %w", err)
		}

		return string(b), nil
	},
	"str": func(v any) string { return fmt.Sprint(v) },
	"color": func(level AlertLevel) int {
		switch level {
		case Error:
			return colorRed
		case Warning:
			return colorYellow
		case Info:
			return colorBlue
		default:
			return colorBlue
		}
	},
}

func (w *WebhookAlerter) IsEnabled() bool {
	return w.config.Enabled
}

func (w *WebhookAlerter) Alert(ctx context.Context, alert *WebhookAlert) error {
	if !w.IsEnabled() {
		return ErrWebhookDisabled
	}

	if w.templateErr != nil {
		return fmt.Errorf("%w: %w", errTemplateParse, w.templateErr)
	}

	// one flapping device must not mute the others
	key := alert.Device + "/" + alert.Title
	if !w.reserve(key) {
		return ErrWebhookCooldown
	}

	if alert.Timestamp == "" {
		alert.Timestamp = w.now().UTC().Format(time.RFC3339)
	}

	payload, err := w.render(alert)
	if err != nil {
		w.release(key)

		return fmt.Errorf("failed to prepare payload: %w", err)
	}

	return w.sendRequest(ctx, payload)
}

// reserve records a send for key unless one happened within the cooldown.
func (w *WebhookAlerter) reserve(key string) bool {
	if w.config.Cooldown <= 0 {
		return true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if last, ok := w.lastSent[key]; ok && now.Sub(last) < w.config.Cooldown {
		return false
	}

	w.lastSent[key] = now

	return true
}

func (w *WebhookAlerter) release(key string) {
	w.mu.Lock()
	delete(w.lastSent, key)
	w.mu.Unlock()
}

func (w *WebhookAlerter) render(alert *WebhookAlert) ([]byte, error) {
	if w.tmpl == nil {
		return json.Marshal(alert)
	}

	var buf bytes.Buffer
	if err := w.tmpl.Execute(&buf, alert); err != nil {
		return nil, fmt.Errorf("%w: %w", errTemplateExecution, err)
	}

	if !json.Valid(buf.Bytes()) {
		return nil, errInvalidJSON
	}

	return buf.Bytes(), nil
}

func (w *WebhookAlerter) sendRequest(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	w.setHeaders(req)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			w.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return fmt.Errorf("%w: status=%d body=%s", errWebhookStatus, resp.StatusCode, body)
	}

	return nil
}

func (w *WebhookAlerter) setHeaders(req *http.Request) {
	hasContentType := false

	for _, header := range w.config.Headers {
		if strings.EqualFold(header.Key, "content-type") {
			hasContentType = true
		}

		req.Header.Set(header.Key, header.Value)
	}

	if !hasContentType {
		req.Header.Set("Content-Type", "application/json")
	}
}
