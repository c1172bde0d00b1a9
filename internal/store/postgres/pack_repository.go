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

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/internalize/internalize/internal/inventory"
	"github.com/internalize/internalize/internal/pack"
)

// PackRepository implements pack.Repository
type PackRepository struct {
	db *DB
}

// NewPackRepository creates a new pack repository
func NewPackRepository(db *DB) *PackRepository {
	return &PackRepository{db: db}
}

const packColumns = `id, client_id, responsible_id, approved, approved_by, approved_at, created_at`

// Create inserts the pack and moves its CIs to SENT
func (r *PackRepository) Create(ctx context.Context, p *pack.Pack, ciIDs []int64) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO packs (client_id, responsible_id, created_at)
			VALUES ($1, $2, $3)
			RETURNING id
		`, p.ClientID, p.ResponsibleID, p.CreatedAt).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("failed to insert pack: %w", mapError(err))
		}

		tag, err := tx.Exec(ctx, `
			UPDATE cis SET pack_id = $1, status = $2
			WHERE id = ANY($3) AND client_id = $4 AND status = $5
		`, p.ID, int16(inventory.StatusSent), ciIDs, p.ClientID, int16(inventory.StatusCreated))
		if err != nil {
			return fmt.Errorf("failed to assign pack: %w", mapError(err))
		}
		if tag.RowsAffected() != int64(len(ciIDs)) {
			return pack.ErrCINotEligible
		}
		return nil
	})
}

// GetByID retrieves a pack with its CI IDs
func (r *PackRepository) GetByID(ctx context.Context, id int64) (*pack.Pack, error) {
	var p pack.Pack
	if err := r.db.get(ctx, &p, `SELECT `+packColumns+` FROM packs WHERE id = $1`, id); err != nil {
		if notFound(err) {
			return nil, pack.ErrPackNotFound
		}
		return nil, fmt.Errorf("failed to get pack: %w", err)
	}

	p.CIIDs = []int64{}
	if err := r.db.selectAll(ctx, &p.CIIDs, `SELECT id FROM cis WHERE pack_id = $1 ORDER BY id`, id); err != nil {
		return nil, fmt.Errorf("failed to list pack items: %w", err)
	}
	return &p, nil
}

// Approve marks the pack and its CIs approved
func (r *PackRepository) Approve(ctx context.Context, id, approvedBy int64, at time.Time) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		var approved bool
		err := tx.QueryRow(ctx, `SELECT approved FROM packs WHERE id = $1 FOR UPDATE`, id).Scan(&approved)
		if err != nil {
			if notFound(err) {
				return pack.ErrPackNotFound
			}
			return fmt.Errorf("failed to lock pack: %w", err)
		}
		if approved {
			return pack.ErrAlreadyApproved
		}

		if _, err := tx.Exec(ctx, `
			UPDATE packs SET approved = TRUE, approved_by = $2, approved_at = $3
			WHERE id = $1
		`, id, approvedBy, at); err != nil {
			return fmt.Errorf("failed to approve pack: %w", mapError(err))
		}
		if _, err := tx.Exec(ctx, `UPDATE cis SET status = $2 WHERE pack_id = $1`,
			id, int16(inventory.StatusApproved)); err != nil {
			return fmt.Errorf("failed to approve pack items: %w", mapError(err))
		}
		return nil
	})
}

// ApproveCIs sets the given CIs to APPROVED
func (r *PackRepository) ApproveCIs(ctx context.Context, ciIDs []int64) (int64, error) {
	tag, err := r.db.exec(ctx, `UPDATE cis SET status = $1 WHERE id = ANY($2) AND status <> $1`,
		int16(inventory.StatusApproved), ciIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to approve configuration items: %w", mapError(err))
	}
	return tag.RowsAffected(), nil
}
