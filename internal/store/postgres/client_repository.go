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

	"github.com/internalize/internalize/internal/inventory"
)

// ClientRepository implements inventory.ClientRepository
type ClientRepository struct {
	db *DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// Create creates a new client
func (r *ClientRepository) Create(ctx context.Context, client *inventory.Client) error {
	err := r.db.pool.QueryRow(ctx, `
		INSERT INTO clients (name) VALUES ($1)
		RETURNING id, created_at
	`, client.Name).Scan(&client.ID, &client.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", mapError(err))
	}
	return nil
}

// GetByID retrieves a client by ID
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*inventory.Client, error) {
	return r.getBy(ctx, "id = $1", id)
}

// GetByName retrieves a client by name
func (r *ClientRepository) GetByName(ctx context.Context, name string) (*inventory.Client, error) {
	return r.getBy(ctx, "name = $1", name)
}

func (r *ClientRepository) getBy(ctx context.Context, where string, arg any) (*inventory.Client, error) {
	var client inventory.Client
	err := r.db.get(ctx, &client, `SELECT id, name, created_at FROM clients WHERE `+where, arg)
	if err != nil {
		if notFound(err) {
			return nil, inventory.ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &client, nil
}

// List lists all clients ordered by name
func (r *ClientRepository) List(ctx context.Context) ([]*inventory.Client, error) {
	clients := []*inventory.Client{}
	if err := r.db.selectAll(ctx, &clients, `SELECT id, name, created_at FROM clients ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}
