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
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/internalize/internalize/internal/audit"
	"github.com/internalize/internalize/internal/inventory"
	"github.com/internalize/internalize/internal/loader"
	"github.com/internalize/internalize/internal/observability/logger"
	"github.com/internalize/internalize/internal/store/memory"
)

type loadOptions struct {
	Client       string
	File         string
	CreateClient bool
	DryRun       bool
}

func newLoadCmd() *cobra.Command {
	var opts loadOptions

	cmd := &cobra.Command{
		Use:   "load --client <name> --file <path>",
		Short: "Load a CI workbook for a client",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(opts.Client) == "" {
				return errors.New("--client must not be blank")
			}

			f, err := os.Open(opts.File)
			if err != nil {
				return err
			}
			defer f.Close()

			if opts.DryRun {
				logger.InitLogger(logger.Config{Level: "warn", Format: "text", ServiceName: "internalize", Output: cmd.ErrOrStderr()})
				store := memory.New()
				return runLoad(cmd.Context(), cmd.OutOrStdout(), store.Repositories(), store, opts.Client, true, f)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			return runLoad(cmd.Context(), cmd.OutOrStdout(), db.Repositories(), db, opts.Client, opts.CreateClient, f)
		},
	}

	cmd.Flags().StringVar(&opts.Client, "client", "", "name of the owning client")
	cmd.Flags().StringVar(&opts.File, "file", "", "path of the .xlsx workbook")
	cmd.Flags().BoolVar(&opts.CreateClient, "create-client", false, "create the client when it does not exist")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "validate against an empty in-memory store, write nothing")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// runLoad resolves the client and runs the loader, printing the summary and
// every rejected row to out.
func runLoad(ctx context.Context, out io.Writer, repos inventory.Repositories, tx inventory.TxRunner, clientName string, create bool, r io.Reader) error {
	svc := inventory.NewService(repos, audit.NewSlogLogger())

	client, err := svc.GetClientByName(ctx, clientName)
	switch {
	case errors.Is(err, inventory.ErrClientNotFound) && create:
		if client, err = svc.CreateClient(ctx, audit.ActorSystem, clientName); err != nil {
			return err
		}
		fmt.Fprintf(out, "created client %q (id %d)\n", client.Name, client.ID)
	case err != nil:
		return fmt.Errorf("client %q: %w", clientName, err)
	}

	res, err := loader.New(tx).Load(ctx, client, r)
	if res != nil {
		fmt.Fprintln(out, res.Summary())
		for _, rowErr := range res.Errors {
			fmt.Fprintf(out, "row %d: %s\n", rowErr.Row, rowErr.Message())
		}
	}
	return err
}
