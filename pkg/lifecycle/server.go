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

// Package lifecycle runs the agent's long-lived components until a signal
// arrives or one of them fails.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const ShutdownTimeout = 10 * time.Second

var errShutdownTimeout = errors.New("components did not stop before the shutdown timeout")

// Component is a blocking unit of work that returns when ctx is cancelled.
type Component struct {
	Name string
	Run  func(ctx context.Context) error
}

// ServerOptions holds what RunServer starts.
type ServerOptions struct {
	ServiceName string
	Components  []Component
	Logger      *zap.Logger
	// Signals overrides the shutdown signals; defaults to SIGINT and SIGTERM.
	Signals []os.Signal
	// ShutdownTimeout bounds how long components get to return after
	// cancellation.
	ShutdownTimeout time.Duration
}

// RunServer starts every component and blocks until a shutdown signal,
// parent cancellation, or the first component error. A component that
// returns its context's error after shutdown began is not an error.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	signals := opts.Signals
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = ShutdownTimeout
	}

	sigCtx, stop := signal.NotifyContext(ctx, signals...)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)

	logger.Info("starting service", zap.String("service", opts.ServiceName), zap.Int("components", len(opts.Components)))

	for _, c := range opts.Components {
		g.Go(func() error {
			logger.Debug("component starting", zap.String("component", c.Name))

			err := c.Run(gctx)
			if err != nil && !stoppedByContext(gctx, err) {
				logger.Error("component failed", zap.String("component", c.Name), zap.Error(err))

				return fmt.Errorf("%s: %w", c.Name, err)
			}

			logger.Debug("component stopped", zap.String("component", c.Name))

			return nil
		})
	}

	<-gctx.Done()

	if ctx.Err() == nil && sigCtx.Err() != nil {
		logger.Info("received shutdown signal, stopping", zap.String("service", opts.ServiceName))
	}

	done := make(chan error, 1)

	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-time.After(timeout):
		return errShutdownTimeout
	}

	logger.Info("service stopped", zap.String("service", opts.ServiceName))

	return ctx.Err()
}

func stoppedByContext(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}

	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
