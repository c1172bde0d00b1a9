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

// Package loader bulk-creates CIs for one client from an .xlsx workbook.
//
// Every non-blank row of the "cis" sheet is stored in its own transaction.
// Rows rejected for integrity violations or undecodable cells are collected
// in the Result and the run goes on; any other failure stops the run while
// keeping the rows already committed.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/internalize/internalize/internal/inventory"
	"github.com/internalize/internalize/internal/observability/logger"
)

// Loader runs uploads against a transactional store.
type Loader struct {
	store  inventory.TxRunner
	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for run and row events.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) {
		ld.logger = l
	}
}

// WithTracer sets the tracer used for the run span.
func WithTracer(t trace.Tracer) Option {
	return func(ld *Loader) {
		ld.tracer = t
	}
}

// New creates a loader.
func New(store inventory.TxRunner, opts ...Option) *Loader {
	l := &Loader{
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer("internalize/loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(logger.Component("loader"))
	return l
}

// Load reads the workbook and saves its rows for client. Unreadable
// workbooks and missing sheets fail before anything is stored.
func (l *Loader) Load(ctx context.Context, client *inventory.Client, r io.Reader) (*Result, error) {
	wb, err := ReadWorkbook(r)
	if err != nil {
		return nil, err
	}
	return l.Save(ctx, client, wb)
}

// Save stores the rows of an already parsed workbook. On a fatal error the
// partial result is returned together with the error.
func (l *Loader) Save(ctx context.Context, client *inventory.Client, wb *Workbook) (*Result, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: client is required", inventory.ErrInvalidInput)
	}

	res := newResult(client.ID)
	ctx, span := l.tracer.Start(ctx, "loader.Save", trace.WithAttributes(
		attribute.String("run_id", res.RunID.String()),
		attribute.Int64("client_id", client.ID),
		attribute.Int("rows", len(wb.CIs)),
	))
	defer span.End()

	log := l.logger.With(logger.RunID(res.RunID.String()), logger.ClientID(client.ID))
	log.InfoContext(ctx, "upload started", slog.Int("rows", len(wb.CIs)), slog.Int("appliance_rows", len(wb.Appliances)))

	resolver := NewResolver(client, wb.Appliances)
	for _, row := range wb.CIs {
		if row.Blank() {
			continue
		}

		ci, err := l.saveRow(ctx, client, resolver, row)
		switch {
		case err == nil:
			res.Created = append(res.Created, ci)
		case errors.Is(err, inventory.ErrIntegrity), errors.Is(err, ErrInvalidRow):
			log.WarnContext(ctx, "row rejected", logger.Sheet(SheetCIs), logger.Row(row.Number), logger.Error(err))
			res.Errors = append(res.Errors, RowError{Row: row.Number, Values: row.Cells, Err: err})
		default:
			res.FinishedAt = timeNow()
			span.RecordError(err)
			span.SetStatus(codes.Error, "upload aborted")
			log.ErrorContext(ctx, "upload aborted", logger.Sheet(SheetCIs), logger.Row(row.Number), logger.Error(err))
			return res, fmt.Errorf("row %d: %w", row.Number, err)
		}
	}

	res.FinishedAt = timeNow()
	span.SetAttributes(
		attribute.Int("created", res.Succeeded()),
		attribute.Int("failed", res.Failed()),
	)
	log.InfoContext(ctx, "upload finished",
		slog.Int("created", res.Succeeded()),
		slog.Int("failed", res.Failed()),
		logger.Duration(res.Duration().Milliseconds()),
	)
	return res, nil
}

// saveRow stores one CI row and its appliances in a single transaction.
func (l *Loader) saveRow(ctx context.Context, client *inventory.Client, resolver *Resolver, row SheetRow) (*inventory.CI, error) {
	decoded, err := Decode[CIRow](row.Cells)
	if err != nil {
		return nil, err
	}
	if err := decoded.Validate(); err != nil {
		return nil, err
	}

	var ci *inventory.CI
	err = l.store.WithinTx(ctx, func(ctx context.Context, tx inventory.Tx) error {
		place, err := resolver.Place(ctx, tx, decoded.Place, decoded.PlaceDescription)
		if err != nil {
			return err
		}

		candidate := &inventory.CI{
			ClientID:       client.ID,
			PlaceID:        place.ID,
			Hostname:       decoded.Hostname,
			IP:             decoded.IP.String(),
			Description:    decoded.Description,
			Deployed:       decoded.Deployed,
			BusinessImpact: decoded.BusinessImpact,
			Status:         inventory.StatusCreated,
			Credentials:    decoded.Credentials(),
			Place:          place,
		}
		if decoded.HasContract() {
			contract, err := resolver.Contract(ctx, tx, decoded.Contract,
				*decoded.ContractBegin, *decoded.ContractEnd, decoded.ContractDescription)
			if err != nil {
				return err
			}
			candidate.ContractID = &contract.ID
			candidate.Contract = contract
		}

		if err := tx.CreateCI(ctx, candidate); err != nil {
			return fmt.Errorf("failed to create ci %q: %w", candidate.Hostname, err)
		}

		appliances, err := resolver.Appliances(ctx, tx, decoded.Hostname)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(appliances))
		for _, a := range appliances {
			ids = append(ids, a.ID)
		}
		if err := tx.SetCIAppliances(ctx, candidate.ID, ids); err != nil {
			return fmt.Errorf("failed to attach appliances to ci %q: %w", candidate.Hostname, err)
		}
		candidate.Appliances = appliances

		ci = candidate
		return nil
	})
	if err != nil {
		resolver.Rollback()
		return nil, err
	}
	resolver.Commit()
	return ci, nil
}
