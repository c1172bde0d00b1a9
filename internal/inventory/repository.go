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

package inventory

import "context"

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	// Create creates a new client
	Create(ctx context.Context, client *Client) error

	// GetByID retrieves a client by ID
	GetByID(ctx context.Context, id int64) (*Client, error)

	// GetByName retrieves a client by its unique name
	GetByName(ctx context.Context, name string) (*Client, error)

	// List lists all clients ordered by name
	List(ctx context.Context) ([]*Client, error)
}

// PlaceRepository defines the interface for place persistence
type PlaceRepository interface {
	Create(ctx context.Context, place *Place) error
	Update(ctx context.Context, place *Place) error
	GetByID(ctx context.Context, id int64) (*Place, error)
	List(ctx context.Context, scope Scope) ([]*Place, error)
}

// ManufacturerRepository defines the interface for manufacturer persistence
type ManufacturerRepository interface {
	GetByID(ctx context.Context, id int64) (*Manufacturer, error)

	// CountAppliances counts the appliances of the manufacturer visible in scope
	CountAppliances(ctx context.Context, id int64, scope Scope) (int, error)
}

// ContractRepository defines the interface for contract persistence
type ContractRepository interface {
	GetByID(ctx context.Context, id int64) (*Contract, error)
}

// ApplianceRepository defines the interface for appliance persistence
type ApplianceRepository interface {
	Create(ctx context.Context, appliance *Appliance) error
	Update(ctx context.Context, appliance *Appliance) error
	GetByID(ctx context.Context, id int64) (*Appliance, error)
	List(ctx context.Context, scope Scope) ([]*Appliance, error)

	// ListByCI lists the appliances attached to a CI
	ListByCI(ctx context.Context, ciID int64) ([]*Appliance, error)
}

// CIRepository defines the interface for CI persistence
type CIRepository interface {
	// Create inserts the CI and links its appliances in one transaction
	Create(ctx context.Context, ci *CI, applianceIDs []int64) error

	GetByID(ctx context.Context, id int64) (*CI, error)
	List(ctx context.Context, scope Scope, status Status) ([]*CI, error)
}

// Tx is a unit of work. Everything done through a Tx commits or rolls back together.
type Tx interface {
	// GetOrCreatePlace returns the place named place.Name for place.ClientID,
	// creating it with the given description when missing.
	GetOrCreatePlace(ctx context.Context, place *Place) (*Place, error)

	// GetOrCreateContract returns the client's contract named contract.Name,
	// creating it with the given dates and description when missing.
	GetOrCreateContract(ctx context.Context, contract *Contract) (*Contract, error)

	GetOrCreateManufacturer(ctx context.Context, name string) (*Manufacturer, error)

	// GetOrCreateAppliance looks the appliance up by (ClientID, SerialNumber).
	// A serial number owned by another client is an integrity violation.
	GetOrCreateAppliance(ctx context.Context, appliance *Appliance) (*Appliance, error)

	CreateCI(ctx context.Context, ci *CI) error

	// SetCIAppliances replaces the appliance set of a CI
	SetCIAppliances(ctx context.Context, ciID int64, applianceIDs []int64) error
}

// TxRunner opens transactions.
type TxRunner interface {
	// WithinTx runs fn in a transaction. It commits when fn returns nil and
	// rolls back on any error or panic.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
