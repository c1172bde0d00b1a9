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
	"slices"
	"time"

	"github.com/internalize/internalize/internal/inventory"
)

// txn works on a private snapshot of the store state.
type txn struct {
	st *state
}

func (t *txn) GetOrCreatePlace(ctx context.Context, place *inventory.Place) (*inventory.Place, error) {
	if _, ok := t.st.clients[place.ClientID]; !ok {
		return nil, foreignKey("places_client_id_fkey")
	}
	for _, p := range t.st.places {
		if p.ClientID == place.ClientID && p.Name == place.Name {
			return &p, nil
		}
	}
	p := *place
	p.ID = t.st.nextID()
	t.st.places[p.ID] = p
	return &p, nil
}

func (t *txn) GetOrCreateContract(ctx context.Context, contract *inventory.Contract) (*inventory.Contract, error) {
	if _, ok := t.st.clients[contract.ClientID]; !ok {
		return nil, foreignKey("contracts_client_id_fkey")
	}
	for _, c := range t.st.contracts {
		if c.ClientID == contract.ClientID && c.Name == contract.Name {
			return &c, nil
		}
	}
	c := *contract
	c.ID = t.st.nextID()
	t.st.contracts[c.ID] = c
	return &c, nil
}

func (t *txn) GetOrCreateManufacturer(ctx context.Context, name string) (*inventory.Manufacturer, error) {
	for _, m := range t.st.manufacturers {
		if m.Name == name {
			return &m, nil
		}
	}
	m := inventory.Manufacturer{ID: t.st.nextID(), Name: name}
	t.st.manufacturers[m.ID] = m
	return &m, nil
}

func (t *txn) GetOrCreateAppliance(ctx context.Context, appliance *inventory.Appliance) (*inventory.Appliance, error) {
	for _, a := range t.st.appliances {
		if a.SerialNumber != appliance.SerialNumber {
			continue
		}
		if a.ClientID != appliance.ClientID {
			return nil, unique(ConstraintApplianceSerial)
		}
		a.Manufacturer = nil
		if a.ManufacturerID != nil {
			if m, ok := t.st.manufacturers[*a.ManufacturerID]; ok {
				a.Manufacturer = &m
			}
		}
		return &a, nil
	}

	if _, ok := t.st.clients[appliance.ClientID]; !ok {
		return nil, foreignKey("appliances_client_id_fkey")
	}
	a := *appliance
	a.ID = t.st.nextID()
	stored := a
	stored.Manufacturer = nil
	t.st.appliances[a.ID] = stored
	return &a, nil
}

func (t *txn) CreateCI(ctx context.Context, ci *inventory.CI) error {
	return insertCI(t.st, ci)
}

func (t *txn) SetCIAppliances(ctx context.Context, ciID int64, applianceIDs []int64) error {
	return setLinks(t.st, ciID, applianceIDs)
}

func insertCI(st *state, ci *inventory.CI) error {
	if _, ok := st.clients[ci.ClientID]; !ok {
		return foreignKey("cis_client_id_fkey")
	}
	if _, ok := st.places[ci.PlaceID]; !ok {
		return foreignKey("cis_place_id_fkey")
	}
	if ci.ContractID != nil {
		if _, ok := st.contracts[*ci.ContractID]; !ok {
			return foreignKey("cis_contract_id_fkey")
		}
	}
	key := ciKey{ci.ClientID, ci.Hostname, ci.IP, ci.Description}
	for _, existing := range st.cis {
		if (ciKey{existing.ClientID, existing.Hostname, existing.IP, existing.Description}) == key {
			return unique(ConstraintCI)
		}
	}

	ci.ID = st.nextID()
	if ci.CreatedAt.IsZero() {
		ci.CreatedAt = time.Now()
	}
	stored := *ci
	stored.Place, stored.Contract, stored.Appliances = nil, nil, nil
	st.cis[ci.ID] = stored
	return nil
}

func setLinks(st *state, ciID int64, applianceIDs []int64) error {
	if _, ok := st.cis[ciID]; !ok {
		return foreignKey("ci_appliances_ci_id_fkey")
	}
	links := make([]int64, 0, len(applianceIDs))
	for _, id := range applianceIDs {
		if _, ok := st.appliances[id]; !ok {
			return foreignKey("ci_appliances_appliance_id_fkey")
		}
		// primary key (ci_id, appliance_id)
		if !slices.Contains(links, id) {
			links = append(links, id)
		}
	}
	st.ciAppliances[ciID] = links
	return nil
}
