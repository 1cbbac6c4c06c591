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

// Package alerts pkg/alerts/notifier.go
package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/carverauto/asna/pkg/models"
)

// Notifier turns agent events into alerts: a warning on isolation, info on
// restoration and an error when a dispatch ends without a successful
// action.
type Notifier struct {
	services []AlertService
	logger   *zap.Logger
}

func NewNotifier(logger *zap.Logger, services ...AlertService) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}

	enabled := make([]AlertService, 0, len(services))

	for _, s := range services {
		if s != nil && s.IsEnabled() {
			enabled = append(enabled, s)
		}
	}

	return &Notifier{services: enabled, logger: logger}
}

func (n *Notifier) HandleEvent(ctx context.Context, ev models.Event) {
	alert := buildAlert(ev)
	if alert == nil {
		return
	}

	for _, s := range n.services {
		// each service gets its own copy since Alert may fill in defaults
		a := *alert

		err := s.Alert(ctx, &a)

		switch {
		case err == nil:
		case errors.Is(err, ErrWebhookCooldown), errors.Is(err, ErrWebhookDisabled):
			n.logger.Debug("alert suppressed", zap.String("title", a.Title), zap.Error(err))
		default:
			n.logger.Error("failed to send alert", zap.String("title", a.Title), zap.Error(err))
		}
	}
}

func buildAlert(ev models.Event) *WebhookAlert {
	alert := &WebhookAlert{
		Timestamp: ev.Time.UTC().Format(time.RFC3339),
		Device:    ev.Identity.DeviceName,
		Role:      string(ev.Identity.Role),
		Details:   map[string]any{"ip": ev.Identity.DeviceAddress},
	}

	switch ev.Type {
	case models.EventIsolated:
		alert.Level = Warning
		alert.Title = "Device Isolated"
		alert.Message = fmt.Sprintf("%s lost connectivity to its %s neighbours", ev.Identity.DeviceName, ev.Identity.Role)

		if ev.Cycle != nil {
			alert.Details["reachable"] = ev.Cycle.ReachableCount
			alert.Details["threshold"] = ev.Cycle.Threshold
		}

		alert.Details["detection_latency"] = ev.Duration.String()
	case models.EventRestored:
		alert.Level = Info
		alert.Title = "Device Restored"
		alert.Message = fmt.Sprintf("%s regained connectivity after %s", ev.Identity.DeviceName, ev.Duration.Round(time.Second))
		alert.Details["mttr"] = ev.Duration.String()
	case models.EventRecovery:
		if ev.Outcome == nil || ev.Outcome.Succeeded {
			return nil
		}

		alert.Level = Error
		alert.Title = "Recovery Failed"
		alert.Message = fmt.Sprintf("%s strategy finished without a successful action on %s",
			ev.Outcome.Strategy, ev.Identity.DeviceName)
		alert.Details["attempts"] = len(ev.Outcome.Attempts)
		alert.Details["dispatch_id"] = ev.Outcome.DispatchID

		if ev.Outcome.Err != "" {
			alert.Details["error"] = ev.Outcome.Err
		}
	case models.EventCycle:
		return nil
	default:
		return nil
	}

	return alert
}
