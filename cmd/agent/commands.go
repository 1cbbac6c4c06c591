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

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carverauto/asna/pkg/config"
	"github.com/carverauto/asna/pkg/lifecycle"
	"github.com/carverauto/asna/pkg/logger"
	"github.com/carverauto/asna/pkg/probe"
	"github.com/carverauto/asna/pkg/recovery"
)

// Overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// exitIsolated is returned by check when the device is isolated.
const exitIsolated = 2

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "asna-agent",
		Short:         "Autonomous self-healing network agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (yaml or json)")

	root.AddCommand(
		newRunCmd(&configPath),
		newCheckCmd(&configPath),
		newValidateCmd(&configPath),
		newVersionCmd(),
	)

	return root
}

func loadConfig(path string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}

	return cfg, log, nil
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the detection and recovery loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			defer func() { _ = log.Sync() }()

			rt, err := build(cfg, log, probe.NewRegistry(), recovery.NewRegistry())
			if err != nil {
				log.Error("failed to build agent", zap.Error(err))
				return err
			}

			defer rt.Close()

			return run(cmd.Context(), rt)
		},
	}
}

// run starts every enabled component and blocks until shutdown.
func run(ctx context.Context, rt *runtime) error {
	if ctx == nil {
		ctx = context.Background()
	}

	err := lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ServiceName: "asna-agent",
		Components:  rt.Components(),
		Logger:      rt.logger,
	})
	if err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}

func newCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a single health-check cycle and report the result",
		Long: "Runs one cycle with remediation in dry-run mode, prints the cycle " +
			"result as JSON and exits 2 when the device is isolated.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			defer func() { _ = log.Sync() }()

			cfg.Remediation.DryRun = true
			cfg.Audit.Enabled = false
			cfg.HTTP.Enabled = false
			cfg.GRPC.Enabled = false

			rt, err := build(cfg, log, probe.NewRegistry(), recovery.NewRegistry())
			if err != nil {
				return err
			}

			defer rt.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			result, err := rt.agent.RunCycle(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if err := enc.Encode(result); err != nil {
				return err
			}

			if result.Isolated {
				return &exitError{code: exitIsolated}
			}

			return nil
		},
	}
}

func newValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and print the effective settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			policy, err := cfg.Policy()
			if err != nil {
				return err
			}

			id, err := cfg.Identity()
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(map[string]any{
				"identity": id,
				"topology": policy.Entry(id.Role),
				"config":   cfg,
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the agent version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
