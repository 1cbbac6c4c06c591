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

package grpc

import (
	"context"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/carverauto/asna/pkg/models"
)

// AgentService is the health service name reported for the agent.
const AgentService = "asna.Agent"

// HealthReporter mirrors isolation state into the health service:
// SERVING while connected, NOT_SERVING while isolated.
type HealthReporter struct {
	hs *health.Server
}

// NewHealthReporter starts the agent service in SERVING.
func NewHealthReporter(hs *health.Server) *HealthReporter {
	hs.SetServingStatus(AgentService, healthpb.HealthCheckResponse_SERVING)

	return &HealthReporter{hs: hs}
}

func (r *HealthReporter) HandleEvent(_ context.Context, ev models.Event) {
	switch ev.Type {
	case models.EventIsolated:
		r.hs.SetServingStatus(AgentService, healthpb.HealthCheckResponse_NOT_SERVING)
	case models.EventRestored:
		r.hs.SetServingStatus(AgentService, healthpb.HealthCheckResponse_SERVING)
	case models.EventCycle, models.EventRecovery:
	}
}
