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

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/internalize/internalize/internal/inventory"
)

// WithinTx implements inventory.TxRunner. pgx rolls back when fn fails or panics.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, tx inventory.Tx) error) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// txRepo implements inventory.Tx on a single pgx transaction.
type txRepo struct {
	tx pgx.Tx
}

// Get-or-create statements insert with ON CONFLICT DO NOTHING and fall back
// to a select when the row already existed.

func (t *txRepo) GetOrCreatePlace(ctx context.Context, place *inventory.Place) (*inventory.Place, error) {
	var p inventory.Place
	err := pgxscan.Get(ctx, t.tx, &p, `
		INSERT INTO places (client_id, name, description)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT places_client_id_name_key DO NOTHING
		RETURNING id, client_id, name, description
	`, place.ClientID, place.Name, place.Description)
	if err == nil {
		return &p, nil
	}
	if !notFound(err) {
		return nil, fmt.Errorf("failed to insert place: %w", mapError(err))
	}

	err = pgxscan.Get(ctx, t.tx, &p, `
		SELECT id, client_id, name, description FROM places
		WHERE client_id = $1 AND name = $2
	`, place.ClientID, place.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get place: %w", err)
	}
	return &p, nil
}

func (t *txRepo) GetOrCreateContract(ctx context.Context, contract *inventory.Contract) (*inventory.Contract, error) {
	var c inventory.Contract
	err := pgxscan.Get(ctx, t.tx, &c, `
		INSERT INTO contracts (client_id, name, begin_date, end_date, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT contracts_client_id_name_key DO NOTHING
		RETURNING `+contractColumns,
		contract.ClientID, contract.Name, contract.Begin, contract.End, contract.Description)
	if err == nil {
		return &c, nil
	}
	if !notFound(err) {
		return nil, fmt.Errorf("failed to insert contract: %w", mapError(err))
	}

	err = pgxscan.Get(ctx, t.tx, &c, `
		SELECT `+contractColumns+` FROM contracts
		WHERE client_id = $1 AND name = $2
	`, contract.ClientID, contract.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return &c, nil
}

func (t *txRepo) GetOrCreateManufacturer(ctx context.Context, name string) (*inventory.Manufacturer, error) {
	var m inventory.Manufacturer
	err := pgxscan.Get(ctx, t.tx, &m, `
		INSERT INTO manufacturers (name) VALUES ($1)
		ON CONFLICT ON CONSTRAINT manufacturers_name_key DO NOTHING
		RETURNING id, name
	`, name)
	if err == nil {
		return &m, nil
	}
	if !notFound(err) {
		return nil, fmt.Errorf("failed to insert manufacturer: %w", mapError(err))
	}

	if err := pgxscan.Get(ctx, t.tx, &m, `SELECT id, name FROM manufacturers WHERE name = $1`, name); err != nil {
		return nil, fmt.Errorf("failed to get manufacturer: %w", err)
	}
	return &m, nil
}

// GetOrCreateAppliance keys appliances by serial number. An existing serial
// of another client surfaces as the unique violation the insert would raise.
func (t *txRepo) GetOrCreateAppliance(ctx context.Context, appliance *inventory.Appliance) (*inventory.Appliance, error) {
	var row applianceRow
	err := pgxscan.Get(ctx, t.tx, &row, applianceSelect+` WHERE a.serial_number = $1`, appliance.SerialNumber)
	switch {
	case err == nil:
		if row.ClientID != appliance.ClientID {
			return nil, &inventory.IntegrityError{
				Code:       inventory.CodeUniqueViolation,
				Constraint: "appliances_serial_number_key",
				Err: fmt.Errorf("duplicate key value violates unique constraint %q: serial number %q belongs to another client",
					"appliances_serial_number_key", appliance.SerialNumber),
			}
		}
		return row.appliance(), nil
	case !notFound(err):
		return nil, fmt.Errorf("failed to get appliance: %w", err)
	}

	a := *appliance
	err = t.tx.QueryRow(ctx, `
		INSERT INTO appliances (client_id, serial_number, manufacturer_id, model, virtual)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, a.ClientID, a.SerialNumber, a.ManufacturerID, a.Model, a.Virtual).Scan(&a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert appliance: %w", mapError(err))
	}
	return &a, nil
}

func (t *txRepo) CreateCI(ctx context.Context, ci *inventory.CI) error {
	return insertCI(ctx, t.tx, ci)
}

func (t *txRepo) SetCIAppliances(ctx context.Context, ciID int64, applianceIDs []int64) error {
	return replaceCIAppliances(ctx, t.tx, ciID, applianceIDs)
}
