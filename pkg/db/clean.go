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

// Package db pkg/db/clean.go
package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultRetention     = 7 * 24 * time.Hour
	DefaultPruneInterval = time.Hour
)

// Prune deletes journal rows older than retention.
func (j *Journal) Prune(ctx context.Context, retention time.Duration) (err error) {
	cutoff := time.Now().Add(-retention).UnixNano()

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

	if _, err = tx.ExecContext(ctx, "DELETE FROM transitions WHERE timestamp < ?", cutoff); err != nil {
		return fmt.Errorf("%w transitions: %w", ErrFailedToClean, err)
	}

	if _, err = tx.ExecContext(ctx,
		"DELETE FROM recovery_attempts WHERE dispatch_id IN (SELECT dispatch_id FROM recoveries WHERE timestamp < ?)",
		cutoff); err != nil {
		return fmt.Errorf("%w recovery attempts: %w", ErrFailedToClean, err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM recoveries WHERE timestamp < ?", cutoff); err != nil {
		return fmt.Errorf("%w recoveries: %w", ErrFailedToClean, err)
	}

	return nil
}

// StartPruning prunes on every interval until ctx is cancelled.
func (j *Journal) StartPruning(ctx context.Context, interval, retention time.Duration) error {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}

	if retention <= 0 {
		retention = DefaultRetention
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := j.Prune(ctx, retention); err != nil {
				j.logger.Error("journal prune failed", zap.Error(err))
			}
		}
	}
}
