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

	"github.com/jackc/pgx/v5"

	"github.com/internalize/internalize/internal/inventory"
)

// PlaceRepository implements inventory.PlaceRepository
type PlaceRepository struct {
	db *DB
}

// NewPlaceRepository creates a new place repository
func NewPlaceRepository(db *DB) *PlaceRepository {
	return &PlaceRepository{db: db}
}

// Create creates a new place
func (r *PlaceRepository) Create(ctx context.Context, place *inventory.Place) error {
	err := r.db.pool.QueryRow(ctx, `
		INSERT INTO places (client_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id
	`, place.ClientID, place.Name, place.Description).Scan(&place.ID)
	if err != nil {
		return fmt.Errorf("failed to create place: %w", mapError(err))
	}
	return nil
}

// Update updates name and description of a place
func (r *PlaceRepository) Update(ctx context.Context, place *inventory.Place) error {
	tag, err := r.db.exec(ctx, `
		UPDATE places SET client_id = $2, name = $3, description = $4
		WHERE id = $1
	`, place.ID, place.ClientID, place.Name, place.Description)
	if err != nil {
		return fmt.Errorf("failed to update place: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrPlaceNotFound
	}
	return nil
}

// GetByID retrieves a place by ID
func (r *PlaceRepository) GetByID(ctx context.Context, id int64) (*inventory.Place, error) {
	var place inventory.Place
	err := r.db.get(ctx, &place, `SELECT id, client_id, name, description FROM places WHERE id = $1`, id)
	if err != nil {
		if notFound(err) {
			return nil, inventory.ErrPlaceNotFound
		}
		return nil, fmt.Errorf("failed to get place: %w", err)
	}
	return &place, nil
}

// List lists the places visible in scope ordered by name
func (r *PlaceRepository) List(ctx context.Context, scope inventory.Scope) ([]*inventory.Place, error) {
	places := []*inventory.Place{}
	err := r.db.selectAll(ctx, &places, `
		SELECT id, client_id, name, description
		FROM places
		WHERE $1 OR client_id = $2
		ORDER BY name, id
	`, scope.All, scope.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	return places, nil
}

// ManufacturerRepository implements inventory.ManufacturerRepository
type ManufacturerRepository struct {
	db *DB
}

// NewManufacturerRepository creates a new manufacturer repository
func NewManufacturerRepository(db *DB) *ManufacturerRepository {
	return &ManufacturerRepository{db: db}
}

// GetByID retrieves a manufacturer by ID
func (r *ManufacturerRepository) GetByID(ctx context.Context, id int64) (*inventory.Manufacturer, error) {
	var m inventory.Manufacturer
	if err := r.db.get(ctx, &m, `SELECT id, name FROM manufacturers WHERE id = $1`, id); err != nil {
		if notFound(err) {
			return nil, inventory.ErrManufacturerNotFound
		}
		return nil, fmt.Errorf("failed to get manufacturer: %w", err)
	}
	return &m, nil
}

// CountAppliances counts the manufacturer's appliances visible in scope
func (r *ManufacturerRepository) CountAppliances(ctx context.Context, id int64, scope inventory.Scope) (int, error) {
	var n int
	err := r.db.pool.QueryRow(ctx, `
		SELECT count(*) FROM appliances
		WHERE manufacturer_id = $1 AND ($2 OR client_id = $3)
	`, id, scope.All, scope.ClientID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count appliances: %w", err)
	}
	return n, nil
}

// ContractRepository implements inventory.ContractRepository
type ContractRepository struct {
	db *DB
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *DB) *ContractRepository {
	return &ContractRepository{db: db}
}

const contractColumns = `id, client_id, name, begin_date, end_date, description`

// GetByID retrieves a contract by ID
func (r *ContractRepository) GetByID(ctx context.Context, id int64) (*inventory.Contract, error) {
	var c inventory.Contract
	if err := r.db.get(ctx, &c, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id); err != nil {
		if notFound(err) {
			return nil, inventory.ErrContractNotFound
		}
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return &c, nil
}

// ApplianceRepository implements inventory.ApplianceRepository
type ApplianceRepository struct {
	db *DB
}

// NewApplianceRepository creates a new appliance repository
func NewApplianceRepository(db *DB) *ApplianceRepository {
	return &ApplianceRepository{db: db}
}

// applianceRow is an appliance joined with its manufacturer name.
type applianceRow struct {
	inventory.Appliance
	ManufacturerName *string `db:"manufacturer_name"`
}

func (row *applianceRow) appliance() *inventory.Appliance {
	a := row.Appliance
	if a.ManufacturerID != nil && row.ManufacturerName != nil {
		a.Manufacturer = &inventory.Manufacturer{ID: *a.ManufacturerID, Name: *row.ManufacturerName}
	}
	return &a
}

func appliances(rows []*applianceRow) []*inventory.Appliance {
	out := make([]*inventory.Appliance, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.appliance())
	}
	return out
}

const applianceSelect = `
	SELECT a.id, a.client_id, a.serial_number, a.manufacturer_id, a.model, a.virtual,
	       m.name AS manufacturer_name
	FROM appliances a
	LEFT JOIN manufacturers m ON m.id = a.manufacturer_id
`

// Create creates a new appliance
func (r *ApplianceRepository) Create(ctx context.Context, a *inventory.Appliance) error {
	err := r.db.pool.QueryRow(ctx, `
		INSERT INTO appliances (client_id, serial_number, manufacturer_id, model, virtual)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, a.ClientID, a.SerialNumber, a.ManufacturerID, a.Model, a.Virtual).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create appliance: %w", mapError(err))
	}
	return nil
}

// Update updates an appliance
func (r *ApplianceRepository) Update(ctx context.Context, a *inventory.Appliance) error {
	tag, err := r.db.exec(ctx, `
		UPDATE appliances
		SET client_id = $2, serial_number = $3, manufacturer_id = $4, model = $5, virtual = $6
		WHERE id = $1
	`, a.ID, a.ClientID, a.SerialNumber, a.ManufacturerID, a.Model, a.Virtual)
	if err != nil {
		return fmt.Errorf("failed to update appliance: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrApplianceNotFound
	}
	return nil
}

// GetByID retrieves an appliance with its manufacturer
func (r *ApplianceRepository) GetByID(ctx context.Context, id int64) (*inventory.Appliance, error) {
	var row applianceRow
	if err := r.db.get(ctx, &row, applianceSelect+` WHERE a.id = $1`, id); err != nil {
		if notFound(err) {
			return nil, inventory.ErrApplianceNotFound
		}
		return nil, fmt.Errorf("failed to get appliance: %w", err)
	}
	return row.appliance(), nil
}

// List lists the appliances visible in scope ordered by serial number
func (r *ApplianceRepository) List(ctx context.Context, scope inventory.Scope) ([]*inventory.Appliance, error) {
	var rows []*applianceRow
	err := r.db.selectAll(ctx, &rows, applianceSelect+`
		WHERE $1 OR a.client_id = $2
		ORDER BY a.serial_number
	`, scope.All, scope.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appliances: %w", err)
	}
	return appliances(rows), nil
}

// ListByCI lists the appliances attached to a CI
func (r *ApplianceRepository) ListByCI(ctx context.Context, ciID int64) ([]*inventory.Appliance, error) {
	var rows []*applianceRow
	err := r.db.selectAll(ctx, &rows, applianceSelect+`
		JOIN ci_appliances ca ON ca.appliance_id = a.id
		WHERE ca.ci_id = $1
		ORDER BY a.id
	`, ciID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ci appliances: %w", err)
	}
	return appliances(rows), nil
}

// CIRepository implements inventory.CIRepository
type CIRepository struct {
	db *DB
}

// NewCIRepository creates a new CI repository
func NewCIRepository(db *DB) *CIRepository {
	return &CIRepository{db: db}
}

const ciColumns = `id, client_id, place_id, contract_id, pack_id, hostname, host(ip) AS ip,
	description, deployed, business_impact, status,
	username, password, enable_password, instructions, created_at`

// Create inserts the CI and its appliance links in one transaction
func (r *CIRepository) Create(ctx context.Context, ci *inventory.CI, applianceIDs []int64) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		if err := insertCI(ctx, tx, ci); err != nil {
			return err
		}
		return replaceCIAppliances(ctx, tx, ci.ID, applianceIDs)
	})
}

// GetByID retrieves a CI by ID
func (r *CIRepository) GetByID(ctx context.Context, id int64) (*inventory.CI, error) {
	var ci inventory.CI
	if err := r.db.get(ctx, &ci, `SELECT `+ciColumns+` FROM cis WHERE id = $1`, id); err != nil {
		if notFound(err) {
			return nil, inventory.ErrCINotFound
		}
		return nil, fmt.Errorf("failed to get configuration item: %w", err)
	}
	return &ci, nil
}

// List lists the CIs in status visible in scope ordered by ID
func (r *CIRepository) List(ctx context.Context, scope inventory.Scope, status inventory.Status) ([]*inventory.CI, error) {
	cis := []*inventory.CI{}
	err := r.db.selectAll(ctx, &cis, `
		SELECT `+ciColumns+`
		FROM cis
		WHERE status = $1 AND ($2 OR client_id = $3)
		ORDER BY id
	`, int16(status), scope.All, scope.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list configuration items: %w", err)
	}
	return cis, nil
}

func insertCI(ctx context.Context, q querier, ci *inventory.CI) error {
	err := q.QueryRow(ctx, `
		INSERT INTO cis (
			client_id, place_id, contract_id, pack_id, hostname, ip, description,
			deployed, business_impact, status,
			username, password, enable_password, instructions
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`,
		ci.ClientID, ci.PlaceID, ci.ContractID, ci.PackID, ci.Hostname, ci.IP, ci.Description,
		ci.Deployed, int16(ci.BusinessImpact), int16(ci.Status),
		ci.Username, ci.Password, ci.EnablePassword, ci.Instructions,
	).Scan(&ci.ID, &ci.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert configuration item: %w", mapError(err))
	}
	return nil
}

func replaceCIAppliances(ctx context.Context, q querier, ciID int64, applianceIDs []int64) error {
	if _, err := q.Exec(ctx, `DELETE FROM ci_appliances WHERE ci_id = $1`, ciID); err != nil {
		return fmt.Errorf("failed to clear ci appliances: %w", mapError(err))
	}
	if len(applianceIDs) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `
		INSERT INTO ci_appliances (ci_id, appliance_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`, ciID, applianceIDs)
	if err != nil {
		return fmt.Errorf("failed to link ci appliances: %w", mapError(err))
	}
	return nil
}
