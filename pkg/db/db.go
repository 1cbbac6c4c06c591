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

// Package db is the agent's audit journal: an append-only SQLite record of
// isolation transitions and recovery attempts. It is never read back into
// agent state.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"go.uber.org/zap"

	"github.com/carverauto/asna/pkg/models"
)

const (
	// DefaultLimit caps Recent when the caller asks for nothing specific.
	DefaultLimit = 50
	// MaxLimit caps Recent regardless of what the caller asks for.
	MaxLimit = 1000

	createTablesSQL = `
	CREATE TABLE IF NOT EXISTS transitions (
		id TEXT PRIMARY KEY,
		device TEXT NOT NULL,
		role TEXT NOT NULL,
		transition TEXT NOT NULL,
		reachable INTEGER NOT NULL,
		targets INTEGER NOT NULL,
		threshold INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		timestamp INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recoveries (
		dispatch_id TEXT PRIMARY KEY,
		device TEXT NOT NULL,
		strategy TEXT NOT NULL,
		succeeded BOOLEAN NOT NULL DEFAULT 0,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		timestamp INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recovery_attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dispatch_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		action TEXT NOT NULL,
		command TEXT NOT NULL,
		succeeded BOOLEAN NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		timestamp INTEGER NOT NULL,
		FOREIGN KEY (dispatch_id) REFERENCES recoveries(dispatch_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_transitions_time ON transitions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_recoveries_time ON recoveries(timestamp);
	CREATE INDEX IF NOT EXISTS idx_recovery_attempts_dispatch ON recovery_attempts(dispatch_id, step);

	PRAGMA foreign_keys=ON;
	`

	recentSQL = `
	SELECT id, kind, device, timestamp, duration_ms, reachable, targets, strategy, succeeded, attempts, error
	FROM (
		SELECT id, transition AS kind, device, timestamp, duration_ms, reachable, targets,
			'' AS strategy, 0 AS succeeded, 0 AS attempts, '' AS error
		FROM transitions
		UNION ALL
		SELECT dispatch_id, 'recovery', device, timestamp, duration_ms, 0, 0,
			strategy, succeeded, attempt_count, error
		FROM recoveries
	)
	ORDER BY timestamp DESC
	LIMIT ?`
)

// Record is one journal row as served to API clients.
type Record struct {
	ID        string           `json:"id"`
	Type      models.EventType `json:"type"`
	Device    string           `json:"device"`
	Timestamp time.Time        `json:"timestamp"`
	Duration  time.Duration    `json:"duration"`
	Reachable int              `json:"reachable,omitempty"`
	Targets   int              `json:"targets,omitempty"`
	Strategy  string           `json:"strategy,omitempty"`
	Succeeded bool             `json:"succeeded,omitempty"`
	Attempts  int              `json:"attempts,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// Journal persists agent events to SQLite.
type Journal struct {
	db     *sql.DB
	logger *zap.Logger
}

// New opens (creating if needed) the journal at path. ":memory:" is
// accepted for tests.
func New(path string, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedOpenDB, err)
	}

	// sqlite allows one writer; a single connection also keeps ":memory:" coherent
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = sqlDB.Close()

		return nil, fmt.Errorf("%w: %w", ErrFailedToEnableWAL, err)
	}

	if _, err := sqlDB.Exec(createTablesSQL); err != nil {
		_ = sqlDB.Close()

		return nil, fmt.Errorf("%w: %w", ErrFailedToInit, err)
	}

	return &Journal{db: sqlDB, logger: logger}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// HandleEvent records transitions and recoveries. Write failures are
// logged and dropped.
func (j *Journal) HandleEvent(ctx context.Context, ev models.Event) {
	var err error

	switch ev.Type {
	case models.EventIsolated, models.EventRestored:
		err = j.RecordTransition(ctx, ev)
	case models.EventRecovery:
		if ev.Outcome != nil {
			err = j.RecordRecovery(ctx, ev.Identity.DeviceName, ev.Time, *ev.Outcome)
		}
	case models.EventCycle:
	}

	if err != nil {
		j.logger.Error("failed to journal event",
			zap.String("event", string(ev.Type)),
			zap.String("id", ev.ID),
			zap.Error(err))
	}
}

// RecordTransition stores an isolated or restored event.
func (j *Journal) RecordTransition(ctx context.Context, ev models.Event) error {
	var reachable, targets, threshold int
	if ev.Cycle != nil {
		reachable, targets, threshold = ev.Cycle.ReachableCount, ev.Cycle.TargetCount, ev.Cycle.Threshold
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO transitions (id, device, role, transition, reachable, targets, threshold, duration_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Identity.DeviceName, string(ev.Identity.Role), string(ev.Type),
		reachable, targets, threshold, ev.Duration.Milliseconds(), ev.Time.UnixNano())
	if err != nil {
		return fmt.Errorf("%w transition: %w", ErrFailedToInsert, err)
	}

	return nil
}

// RecordRecovery stores a dispatch and each of its attempts in one
// transaction.
func (j *Journal) RecordRecovery(ctx context.Context, device string, at time.Time, outcome models.RecoveryOutcome) (err error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToBeginTx, err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				j.logger.Warn("failed to rollback", zap.Error(rbErr))
			}

			return
		}

		err = tx.Commit()
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO recoveries (dispatch_id, device, strategy, succeeded, attempt_count, duration_ms, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		outcome.DispatchID, device, string(outcome.Strategy), outcome.Succeeded,
		len(outcome.Attempts), outcome.Duration.Milliseconds(), outcome.Err, at.UnixNano()); err != nil {
		return fmt.Errorf("%w recovery: %w", ErrFailedToInsert, err)
	}

	for i, a := range outcome.Attempts {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO recovery_attempts (dispatch_id, step, action, command, succeeded, duration_ms, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			outcome.DispatchID, i+1, a.Action.Name, a.Action.Command, a.Succeeded,
			a.Duration.Milliseconds(), a.StartedAt.UnixNano()); err != nil {
			return fmt.Errorf("%w recovery attempt: %w", ErrFailedToInsert, err)
		}
	}

	return nil
}

// Recent returns the newest transitions and recoveries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	if limit == 0 {
		limit = DefaultLimit
	}

	if limit > MaxLimit {
		limit = MaxLimit
	}

	rows, err := j.db.QueryContext(ctx, recentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToQuery, err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]Record, 0, limit)

	for rows.Next() {
		var (
			r         Record
			kind      string
			ts, durMS int64
		)

		if err := rows.Scan(&r.ID, &kind, &r.Device, &ts, &durMS, &r.Reachable, &r.Targets,
			&r.Strategy, &r.Succeeded, &r.Attempts, &r.Error); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFailedToScan, err)
		}

		r.Type = models.EventType(kind)
		r.Timestamp = time.Unix(0, ts).UTC()
		r.Duration = time.Duration(durMS) * time.Millisecond

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToQuery, err)
	}

	return records, nil
}

// Attempts returns the recorded attempts of one dispatch in execution order.
func (j *Journal) Attempts(ctx context.Context, dispatchID string) ([]models.Attempt, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT action, command, succeeded, duration_ms, timestamp
		FROM recovery_attempts
		WHERE dispatch_id = ?
		ORDER BY step`, dispatchID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToQuery, err)
	}
	defer func() { _ = rows.Close() }()

	var attempts []models.Attempt

	for rows.Next() {
		var (
			a         models.Attempt
			durMS, ts int64
		)

		if err := rows.Scan(&a.Action.Name, &a.Action.Command, &a.Succeeded, &durMS, &ts); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFailedToScan, err)
		}

		a.Duration = time.Duration(durMS) * time.Millisecond
		a.StartedAt = time.Unix(0, ts).UTC()

		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}
