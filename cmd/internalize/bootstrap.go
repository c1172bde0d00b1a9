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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/internalize/internalize/internal/audit"
)

func newBootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create or promote the superuser named by BOOTSTRAP_ADMIN_*",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			accounts := newAccountService(cfg, db, audit.NewSlogLogger())
			b := cfg.Bootstrap
			user, created, err := accounts.BootstrapSuperuser(cmd.Context(), b.AdminUsername, b.AdminEmail, b.AdminPassword)
			if err != nil {
				return fmt.Errorf("bootstrap failed: %w", err)
			}

			verb := "ensured"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "superuser %q %s (id %d)\n", user.Username, verb, user.ID)
			return nil
		},
	}
}
