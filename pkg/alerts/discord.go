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

package alerts

import (
	"time"

	"go.uber.org/zap"
)

// DiscordTemplate renders an alert as a single Discord embed. Discord
// requires string field values, hence str.
const DiscordTemplate = `{
  "username": "asna",
  "embeds": [{
    "title": {{json .Title}},
    "description": {{json .Message}},
    "color": {{color .Level}},
    "timestamp": {{json .Timestamp}},
    "footer": {"text": {{json (printf "%s alert" .Level)}}},
    "fields": [
      {"name": "Device", "value": {{json .Device}}, "inline": true},
      {"name": "Role", "value": {{json .Role}}, "inline": true}
      {{- range $key, $value := .Details}},
      {"name": {{json $key}}, "value": {{json (str $value)}}, "inline": true}
      {{- end}}
    ]
  }]
}`

// NewDiscordWebhook posts alerts to a Discord incoming webhook.
func NewDiscordWebhook(webhookURL string, cooldown time.Duration, logger *zap.Logger) *WebhookAlerter {
	return NewWebhookAlerter(WebhookConfig{
		Enabled:  true,
		URL:      webhookURL,
		Template: DiscordTemplate,
		Cooldown: cooldown,
	}, logger)
}
