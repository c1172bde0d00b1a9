// Copyright 2026 The Internalize Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/internalize/internalize/internal/config"
	"github.com/internalize/internalize/internal/observability/logger"
	"github.com/internalize/internalize/internal/store/postgres"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "internalize",
		Short:         "Multi-tenant configuration item inventory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newBootstrapCmd())
	cmd.AddCommand(newLoadCmd())
	return cmd
}

// Execute runs the command line until SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// loadConfig reads the configuration and installs the default logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		OTEL:        cfg.Observability.OTELEnabled,
	})
	return cfg, nil
}

func openDB(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	db, err := postgres.New(ctx, cfg.Database.Postgres())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.InfoContext(ctx, "connected to database", logger.Component("postgres"))
	return db, nil
}
