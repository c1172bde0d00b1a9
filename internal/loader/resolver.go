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

package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/internalize/internalize/internal/inventory"
)

type cacheKind int

const (
	kindPlace cacheKind = iota
	kindContract
	kindManufacturer
)

type cacheEntry struct {
	kind cacheKind
	key  string
}

// Resolver turns the natural keys of a row into stored entities. Places,
// contracts and manufacturers are memoized for the lifetime of one run so
// every row naming the same key gets the same pointer. Appliances always go
// to storage.
//
// Entries added while a row transaction is open stay pending until Commit;
// Rollback forgets them because the rows they point to no longer exist.
type Resolver struct {
	client        *inventory.Client
	appliances    map[string][]applianceEntry
	places        map[string]*inventory.Place
	contracts     map[string]*inventory.Contract
	manufacturers map[string]*inventory.Manufacturer
	pending       []cacheEntry
}

// NewResolver creates a resolver for one run over the given appliance rows.
func NewResolver(client *inventory.Client, applianceRows []SheetRow) *Resolver {
	return &Resolver{
		client:        client,
		appliances:    indexAppliances(applianceRows),
		places:        make(map[string]*inventory.Place),
		contracts:     make(map[string]*inventory.Contract),
		manufacturers: make(map[string]*inventory.Manufacturer),
	}
}

// Place resolves the client's place by name, creating it when missing.
func (r *Resolver) Place(ctx context.Context, tx inventory.Tx, name, description string) (*inventory.Place, error) {
	if p, ok := r.places[name]; ok {
		return p, nil
	}
	p, err := tx.GetOrCreatePlace(ctx, &inventory.Place{
		ClientID:    r.client.ID,
		Name:        name,
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve place %q: %w", name, err)
	}
	r.places[name] = p
	r.pending = append(r.pending, cacheEntry{kindPlace, name})
	return p, nil
}

// Contract resolves the client's contract by name, creating it when missing.
func (r *Resolver) Contract(ctx context.Context, tx inventory.Tx, name string, begin, end time.Time, description string) (*inventory.Contract, error) {
	if c, ok := r.contracts[name]; ok {
		return c, nil
	}
	c, err := tx.GetOrCreateContract(ctx, &inventory.Contract{
		ClientID:    r.client.ID,
		Name:        name,
		Begin:       begin,
		End:         end,
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve contract %q: %w", name, err)
	}
	r.contracts[name] = c
	r.pending = append(r.pending, cacheEntry{kindContract, name})
	return c, nil
}

// Manufacturer resolves a manufacturer by its global name.
func (r *Resolver) Manufacturer(ctx context.Context, tx inventory.Tx, name string) (*inventory.Manufacturer, error) {
	if m, ok := r.manufacturers[name]; ok {
		return m, nil
	}
	m, err := tx.GetOrCreateManufacturer(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manufacturer %q: %w", name, err)
	}
	r.manufacturers[name] = m
	r.pending = append(r.pending, cacheEntry{kindManufacturer, name})
	return m, nil
}

// Appliances resolves every appliance row whose hostname equals hostname
// exactly. The result is a set in sheet order: rows repeating a serial yield
// the appliance once. A hostname without appliance rows yields an empty set.
// An appliance row that failed to decode rejects the CI row that uses it.
func (r *Resolver) Appliances(ctx context.Context, tx inventory.Tx, hostname string) ([]*inventory.Appliance, error) {
	entries := r.appliances[hostname]
	out := make([]*inventory.Appliance, 0, len(entries))
	seen := make(map[int64]bool, len(entries))
	for _, e := range entries {
		if e.err != nil {
			return nil, fmt.Errorf("appliances row %d: %w", e.number, e.err)
		}

		a := &inventory.Appliance{
			ClientID:     r.client.ID,
			SerialNumber: e.row.SerialNumber,
			Model:        e.row.Model,
			Virtual:      e.row.Virtual,
		}
		if e.row.Manufacturer != "" {
			m, err := r.Manufacturer(ctx, tx, e.row.Manufacturer)
			if err != nil {
				return nil, err
			}
			a.ManufacturerID = &m.ID
			a.Manufacturer = m
		}

		resolved, err := tx.GetOrCreateAppliance(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve appliance %q: %w", e.row.SerialNumber, err)
		}
		if seen[resolved.ID] {
			continue
		}
		seen[resolved.ID] = true
		if resolved.Manufacturer == nil {
			resolved.Manufacturer = a.Manufacturer
		}
		out = append(out, resolved)
	}
	return out, nil
}

// Commit keeps the entries resolved since the last Commit or Rollback.
func (r *Resolver) Commit() {
	r.pending = r.pending[:0]
}

// Rollback drops the entries resolved since the last Commit or Rollback.
func (r *Resolver) Rollback() {
	for _, e := range r.pending {
		switch e.kind {
		case kindPlace:
			delete(r.places, e.key)
		case kindContract:
			delete(r.contracts, e.key)
		case kindManufacturer:
			delete(r.manufacturers, e.key)
		}
	}
	r.pending = r.pending[:0]
}
