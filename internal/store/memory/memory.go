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

// Package memory is an in-process store. It enforces the same unique
// constraints as the PostgreSQL schema and reports violations as
// inventory.IntegrityError, which makes it usable for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/internalize/internalize/internal/inventory"
)

// Constraint names shared with the SQL schema
const (
	ConstraintClientName       = "clients_name_key"
	ConstraintPlaceName        = "places_client_id_name_key"
	ConstraintContractName     = "contracts_client_id_name_key"
	ConstraintManufacturerName = "manufacturers_name_key"
	ConstraintApplianceSerial  = "appliances_serial_number_key"
	ConstraintCI               = "unique_client_hostname_ip_description"
)

type ciKey struct {
	clientID    int64
	hostname    string
	ip          string
	description string
}

type state struct {
	seq           int64
	clients       map[int64]inventory.Client
	places        map[int64]inventory.Place
	manufacturers map[int64]inventory.Manufacturer
	contracts     map[int64]inventory.Contract
	appliances    map[int64]inventory.Appliance
	cis           map[int64]inventory.CI
	ciAppliances  map[int64][]int64
}

func newState() *state {
	return &state{
		clients:       map[int64]inventory.Client{},
		places:        map[int64]inventory.Place{},
		manufacturers: map[int64]inventory.Manufacturer{},
		contracts:     map[int64]inventory.Contract{},
		appliances:    map[int64]inventory.Appliance{},
		cis:           map[int64]inventory.CI{},
		ciAppliances:  map[int64][]int64{},
	}
}

func (s *state) clone() *state {
	links := make(map[int64][]int64, len(s.ciAppliances))
	for k, v := range s.ciAppliances {
		links[k] = slices.Clone(v)
	}
	return &state{
		seq:           s.seq,
		clients:       maps.Clone(s.clients),
		places:        maps.Clone(s.places),
		manufacturers: maps.Clone(s.manufacturers),
		contracts:     maps.Clone(s.contracts),
		appliances:    maps.Clone(s.appliances),
		cis:           maps.Clone(s.cis),
		ciAppliances:  links,
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// Store keeps all inventory data in memory. Transactions are serialized.
type Store struct {
	mu       sync.Mutex
	state    *state
	accounts *accounts
}

// New creates an empty store.
func New() *Store {
	return &Store{state: newState(), accounts: newAccounts()}
}

func unique(constraint string) error {
	return &inventory.IntegrityError{
		Code:       inventory.CodeUniqueViolation,
		Constraint: constraint,
		Err:        fmt.Errorf("duplicate key value violates unique constraint %q", constraint),
	}
}

func foreignKey(constraint string) error {
	return &inventory.IntegrityError{
		Code:       inventory.CodeForeignKeyViolation,
		Constraint: constraint,
		Err:        fmt.Errorf("insert or update violates foreign key constraint %q", constraint),
	}
}

// WithinTx runs fn against a snapshot that replaces the store state only
// when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx inventory.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.state.clone()
	if err := fn(ctx, &txn{st: snapshot}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = snapshot
	return nil
}

// Clients

func (s *Store) Create(ctx context.Context, client *inventory.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.state.clients {
		if c.Name == client.Name {
			return unique(ConstraintClientName)
		}
	}
	client.ID = s.state.nextID()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now()
	}
	c := *client
	c.Places = nil
	s.state.clients[c.ID] = c
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*inventory.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.state.clients[id]
	if !ok {
		return nil, inventory.ErrClientNotFound
	}
	return &c, nil
}

func (s *Store) GetByName(ctx context.Context, name string) (*inventory.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.state.clients {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, inventory.ErrClientNotFound
}

func (s *Store) List(ctx context.Context) ([]*inventory.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*inventory.Client, 0, len(s.state.clients))
	for _, c := range s.state.clients {
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Repositories returns the store as the repository set of the inventory
// service.
func (s *Store) Repositories() inventory.Repositories {
	return inventory.Repositories{
		Clients:       s,
		Places:        placeRepo{s},
		Manufacturers: manufacturerRepo{s},
		Contracts:     contractRepo{s},
		Appliances:    applianceRepo{s},
		CIs:           ciRepo{s},
	}
}

// Counts reports the number of stored rows per entity. It is meant for
// tests and dry-run summaries.
func (s *Store) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	links := 0
	for _, ids := range s.state.ciAppliances {
		links += len(ids)
	}
	return map[string]int{
		"clients":       len(s.state.clients),
		"places":        len(s.state.places),
		"manufacturers": len(s.state.manufacturers),
		"contracts":     len(s.state.contracts),
		"appliances":    len(s.state.appliances),
		"cis":           len(s.state.cis),
		"ci_appliances": links,
	}
}
