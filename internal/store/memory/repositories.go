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

package memory

import (
	"context"
	"sort"

	"github.com/internalize/internalize/internal/inventory"
)

type placeRepo struct{ s *Store }

func (r placeRepo) Create(ctx context.Context, place *inventory.Place) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := r.s.state
	if _, ok := st.clients[place.ClientID]; !ok {
		return foreignKey("places_client_id_fkey")
	}
	for _, p := range st.places {
		if p.ClientID == place.ClientID && p.Name == place.Name {
			return unique(ConstraintPlaceName)
		}
	}
	place.ID = st.nextID()
	st.places[place.ID] = *place
	return nil
}

func (r placeRepo) Update(ctx context.Context, place *inventory.Place) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := r.s.state
	if _, ok := st.places[place.ID]; !ok {
		return inventory.ErrPlaceNotFound
	}
	for _, p := range st.places {
		if p.ID != place.ID && p.ClientID == place.ClientID && p.Name == place.Name {
			return unique(ConstraintPlaceName)
		}
	}
	st.places[place.ID] = *place
	return nil
}

func (r placeRepo) GetByID(ctx context.Context, id int64) (*inventory.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.state.places[id]
	if !ok {
		return nil, inventory.ErrPlaceNotFound
	}
	return &p, nil
}

func (r placeRepo) List(ctx context.Context, scope inventory.Scope) ([]*inventory.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*inventory.Place{}
	for _, p := range r.s.state.places {
		if scope.Allows(p.ClientID) {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type manufacturerRepo struct{ s *Store }

func (r manufacturerRepo) GetByID(ctx context.Context, id int64) (*inventory.Manufacturer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.state.manufacturers[id]
	if !ok {
		return nil, inventory.ErrManufacturerNotFound
	}
	return &m, nil
}

func (r manufacturerRepo) CountAppliances(ctx context.Context, id int64, scope inventory.Scope) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, a := range r.s.state.appliances {
		if a.ManufacturerID != nil && *a.ManufacturerID == id && scope.Allows(a.ClientID) {
			n++
		}
	}
	return n, nil
}

type contractRepo struct{ s *Store }

func (r contractRepo) GetByID(ctx context.Context, id int64) (*inventory.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.state.contracts[id]
	if !ok {
		return nil, inventory.ErrContractNotFound
	}
	return &c, nil
}

type applianceRepo struct{ s *Store }

func (r applianceRepo) Create(ctx context.Context, appliance *inventory.Appliance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := r.s.state
	for _, a := range st.appliances {
		if a.SerialNumber == appliance.SerialNumber {
			return unique(ConstraintApplianceSerial)
		}
	}
	appliance.ID = st.nextID()
	stored := *appliance
	stored.Manufacturer = nil
	st.appliances[appliance.ID] = stored
	return nil
}

func (r applianceRepo) Update(ctx context.Context, appliance *inventory.Appliance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := r.s.state
	if _, ok := st.appliances[appliance.ID]; !ok {
		return inventory.ErrApplianceNotFound
	}
	for _, a := range st.appliances {
		if a.ID != appliance.ID && a.SerialNumber == appliance.SerialNumber {
			return unique(ConstraintApplianceSerial)
		}
	}
	stored := *appliance
	stored.Manufacturer = nil
	st.appliances[appliance.ID] = stored
	return nil
}

func (r applianceRepo) GetByID(ctx context.Context, id int64) (*inventory.Appliance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.state.appliances[id]
	if !ok {
		return nil, inventory.ErrApplianceNotFound
	}
	return r.withManufacturer(a), nil
}

func (r applianceRepo) List(ctx context.Context, scope inventory.Scope) ([]*inventory.Appliance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*inventory.Appliance{}
	for _, a := range r.s.state.appliances {
		if scope.Allows(a.ClientID) {
			out = append(out, r.withManufacturer(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SerialNumber < out[j].SerialNumber })
	return out, nil
}

func (r applianceRepo) ListByCI(ctx context.Context, ciID int64) ([]*inventory.Appliance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := r.s.state.ciAppliances[ciID]
	out := make([]*inventory.Appliance, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.s.state.appliances[id]; ok {
			out = append(out, r.withManufacturer(a))
		}
	}
	return out, nil
}

// withManufacturer must be called with the store lock held.
func (r applianceRepo) withManufacturer(a inventory.Appliance) *inventory.Appliance {
	if a.ManufacturerID != nil {
		if m, ok := r.s.state.manufacturers[*a.ManufacturerID]; ok {
			a.Manufacturer = &m
		}
	}
	return &a
}

type ciRepo struct{ s *Store }

func (r ciRepo) Create(ctx context.Context, ci *inventory.CI, applianceIDs []int64) error {
	return r.s.WithinTx(ctx, func(ctx context.Context, tx inventory.Tx) error {
		if err := tx.CreateCI(ctx, ci); err != nil {
			return err
		}
		return tx.SetCIAppliances(ctx, ci.ID, applianceIDs)
	})
}

func (r ciRepo) GetByID(ctx context.Context, id int64) (*inventory.CI, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ci, ok := r.s.state.cis[id]
	if !ok {
		return nil, inventory.ErrCINotFound
	}
	return &ci, nil
}

func (r ciRepo) List(ctx context.Context, scope inventory.Scope, status inventory.Status) ([]*inventory.CI, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*inventory.CI{}
	for _, ci := range r.s.state.cis {
		if ci.Status == status && scope.Allows(ci.ClientID) {
			out = append(out, &ci)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
