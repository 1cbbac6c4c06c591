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

package api

//go:generate mockgen -destination=mock_api.go -package=api github.com/carverauto/asna/pkg/api SnapshotSource,EventStore,HistorySource

import (
	"context"

	"github.com/carverauto/asna/pkg/db"
	"github.com/carverauto/asna/pkg/metrics"
	"github.com/carverauto/asna/pkg/models"
)

// SnapshotSource supplies the agent state served on /api/status.
type SnapshotSource interface {
	Snapshot() models.Snapshot
}

// EventStore supplies journal entries for /api/events.
type EventStore interface {
	Recent(ctx context.Context, limit int) ([]db.Record, error)
}

// HistorySource supplies recent cycle points for /api/history.
type HistorySource interface {
	Points() []metrics.Point
}
