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

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrClientNotFound       = errors.New("client not found")
	ErrPlaceNotFound        = errors.New("place not found")
	ErrManufacturerNotFound = errors.New("manufacturer not found")
	ErrContractNotFound     = errors.New("contract not found")
	ErrApplianceNotFound    = errors.New("appliance not found")
	ErrCINotFound           = errors.New("configuration item not found")
	ErrInvalidInput         = errors.New("invalid input")
)

// Tenancy Principles:
// 1. Client is the tenant boundary. Every entity except Manufacturer belongs to exactly one Client.
// 2. A lookup that crosses the boundary reports "not found", never "forbidden".
// 3. Only Scope.All (superusers) may read across clients.

// Client is the owning organization of places, appliances, contracts and CIs.
type Client struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Places    []*Place  `json:"places,omitempty" db:"-"`
}

// Place is a site of a Client. Name is unique within the Client.
type Place struct {
	ID          int64  `json:"id" db:"id"`
	ClientID    int64  `json:"client_id" db:"client_id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

// Manufacturer is global reference data shared by all clients.
type Manufacturer struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Contract covers one or more CIs of a Client.
type Contract struct {
	ID          int64     `json:"id" db:"id"`
	ClientID    int64     `json:"client_id" db:"client_id"`
	Name        string    `json:"name" db:"name"`
	Begin       time.Time `json:"begin" db:"begin_date"`
	End         time.Time `json:"end" db:"end_date"`
	Description string    `json:"description" db:"description"`
}

// Appliance is a physical or virtual box that makes up a CI.
// SerialNumber is unique across all clients.
type Appliance struct {
	ID             int64         `json:"id" db:"id"`
	ClientID       int64         `json:"client_id" db:"client_id"`
	SerialNumber   string        `json:"serial_number" db:"serial_number"`
	ManufacturerID *int64        `json:"manufacturer_id,omitempty" db:"manufacturer_id"`
	Model          string        `json:"model" db:"model"`
	Virtual        bool          `json:"virtual" db:"virtual"`
	Manufacturer   *Manufacturer `json:"manufacturer,omitempty" db:"-"`
}

// Credentials are the login details stored with a CI.
type Credentials struct {
	Username       string `json:"username" db:"username"`
	Password       string `json:"password" db:"password"`
	EnablePassword string `json:"enable_password" db:"enable_password"`
	Instructions   string `json:"instructions" db:"instructions"`
}

// CI is a Configuration Item: a tracked host together with its deployment
// metadata and credentials. (ClientID, Hostname, IP, Description) is unique.
type CI struct {
	ID             int64          `json:"id" db:"id"`
	ClientID       int64          `json:"client_id" db:"client_id"`
	PlaceID        int64          `json:"place_id" db:"place_id"`
	ContractID     *int64         `json:"contract_id,omitempty" db:"contract_id"`
	PackID         *int64         `json:"pack_id,omitempty" db:"pack_id"`
	Hostname       string         `json:"hostname" db:"hostname"`
	IP             string         `json:"ip" db:"ip"`
	Description    string         `json:"description" db:"description"`
	Deployed       bool           `json:"deployed" db:"deployed"`
	BusinessImpact BusinessImpact `json:"business_impact" db:"business_impact"`
	Status         Status         `json:"status" db:"status"`
	Credentials
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Place      *Place       `json:"place,omitempty" db:"-"`
	Contract   *Contract    `json:"contract,omitempty" db:"-"`
	Appliances []*Appliance `json:"appliances" db:"-"`
}

// ApplianceIDs returns the IDs of the attached appliances in order.
func (c *CI) ApplianceIDs() []int64 {
	ids := make([]int64, 0, len(c.Appliances))
	for _, a := range c.Appliances {
		ids = append(ids, a.ID)
	}
	return ids
}

// Scope restricts reads and writes to the caller's client.
type Scope struct {
	ClientID int64
	All      bool
}

// ClientScope returns a scope bound to a single client.
func ClientScope(clientID int64) Scope {
	return Scope{ClientID: clientID}
}

// AllClients returns the unrestricted scope used by superusers.
func AllClients() Scope {
	return Scope{All: true}
}

// Allows reports whether an entity owned by clientID is visible in the scope.
func (s Scope) Allows(clientID int64) bool {
	return s.All || s.ClientID == clientID
}
