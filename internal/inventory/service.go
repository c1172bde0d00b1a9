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
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/internalize/internalize/internal/audit"
)

// Repositories groups the storage dependencies of the Service.
type Repositories struct {
	Clients       ClientRepository
	Places        PlaceRepository
	Manufacturers ManufacturerRepository
	Contracts     ContractRepository
	Appliances    ApplianceRepository
	CIs           CIRepository
}

// Service provides inventory business logic
type Service struct {
	repos       Repositories
	auditLogger audit.Logger
}

// NewService creates a new inventory service
func NewService(repos Repositories, auditLogger audit.Logger) *Service {
	return &Service{
		repos:       repos,
		auditLogger: auditLogger,
	}
}

// PlaceInput carries the writable fields of a Place. ClientID is only
// honoured for unrestricted scopes.
type PlaceInput struct {
	ClientID    int64
	Name        string
	Description string
}

// ApplianceInput carries the writable fields of an Appliance.
type ApplianceInput struct {
	ClientID       int64
	SerialNumber   string
	ManufacturerID *int64
	Model          string
	Virtual        bool
}

// CIInput carries the writable fields of a CI.
type CIInput struct {
	ClientID       int64
	PlaceID        int64
	ContractID     *int64
	ApplianceIDs   []int64
	Hostname       string
	IP             string
	Description    string
	Deployed       bool
	BusinessImpact BusinessImpact
	Credentials    Credentials
}

// ManufacturerDetail is a manufacturer with the number of appliances the
// caller can see.
type ManufacturerDetail struct {
	Manufacturer
	ApplianceCount int `json:"appliance_count"`
}

// CreateClient creates a new client
func (s *Service) CreateClient(ctx context.Context, actorID int64, name string) (*Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: client name is required", ErrInvalidInput)
	}

	client := &Client{Name: name, CreatedAt: time.Now()}
	if err := s.repos.Clients.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeClientCreated,
		ClientID: client.ID,
		ActorID:  actorID,
		Resource: "client",
		Metadata: map[string]any{"name": client.Name},
	})

	return client, nil
}

// GetClient retrieves a client with its places
func (s *Service) GetClient(ctx context.Context, scope Scope, id int64) (*Client, error) {
	if !scope.Allows(id) {
		return nil, ErrClientNotFound
	}
	client, err := s.repos.Clients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	places, err := s.repos.Places.List(ctx, ClientScope(id))
	if err != nil {
		return nil, fmt.Errorf("failed to list client places: %w", err)
	}
	client.Places = places
	return client, nil
}

// GetClientByName retrieves a client by its unique name
func (s *Service) GetClientByName(ctx context.Context, name string) (*Client, error) {
	return s.repos.Clients.GetByName(ctx, strings.TrimSpace(name))
}

// ListClients lists the clients visible in scope
func (s *Service) ListClients(ctx context.Context, scope Scope) ([]*Client, error) {
	if !scope.All {
		client, err := s.repos.Clients.GetByID(ctx, scope.ClientID)
		if err != nil {
			return nil, err
		}
		return []*Client{client}, nil
	}
	return s.repos.Clients.List(ctx)
}

// CreatePlace registers a new place for the caller's client
func (s *Service) CreatePlace(ctx context.Context, scope Scope, actorID int64, in PlaceInput) (*Place, error) {
	clientID, err := targetClient(scope, in.ClientID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: place name is required", ErrInvalidInput)
	}

	place := &Place{
		ClientID:    clientID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.repos.Places.Create(ctx, place); err != nil {
		return nil, fmt.Errorf("failed to create place: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePlaceCreated,
		ClientID: clientID,
		ActorID:  actorID,
		Resource: "place",
		Metadata: map[string]any{"place_id": place.ID, "name": place.Name},
	})

	return place, nil
}

// UpdatePlace renames or re-describes a place of the caller's client
func (s *Service) UpdatePlace(ctx context.Context, scope Scope, actorID, id int64, in PlaceInput) (*Place, error) {
	place, err := s.repos.Places.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(place.ClientID) {
		return nil, ErrPlaceNotFound
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: place name is required", ErrInvalidInput)
	}

	place.Name = name
	place.Description = strings.TrimSpace(in.Description)
	if err := s.repos.Places.Update(ctx, place); err != nil {
		return nil, fmt.Errorf("failed to update place: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePlaceUpdated,
		ClientID: place.ClientID,
		ActorID:  actorID,
		Resource: "place",
		Metadata: map[string]any{"place_id": place.ID},
	})

	return place, nil
}

// ListPlaces lists the places visible in scope
func (s *Service) ListPlaces(ctx context.Context, scope Scope) ([]*Place, error) {
	return s.repos.Places.List(ctx, scope)
}

// GetManufacturer retrieves a manufacturer and counts the appliances of it
// that the caller can see.
func (s *Service) GetManufacturer(ctx context.Context, scope Scope, id int64) (*ManufacturerDetail, error) {
	m, err := s.repos.Manufacturers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.repos.Manufacturers.CountAppliances(ctx, id, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to count appliances: %w", err)
	}
	return &ManufacturerDetail{Manufacturer: *m, ApplianceCount: count}, nil
}

// ListAppliances lists the appliances visible in scope
func (s *Service) ListAppliances(ctx context.Context, scope Scope) ([]*Appliance, error) {
	return s.repos.Appliances.List(ctx, scope)
}

// CreateAppliance registers an appliance for the caller's client
func (s *Service) CreateAppliance(ctx context.Context, scope Scope, actorID int64, in ApplianceInput) (*Appliance, error) {
	clientID, err := targetClient(scope, in.ClientID)
	if err != nil {
		return nil, err
	}
	appliance := &Appliance{ClientID: clientID}
	if err := s.applyAppliance(ctx, appliance, in); err != nil {
		return nil, err
	}
	if err := s.repos.Appliances.Create(ctx, appliance); err != nil {
		return nil, fmt.Errorf("failed to create appliance: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeApplianceCreated,
		ClientID: clientID,
		ActorID:  actorID,
		Resource: "appliance",
		Metadata: map[string]any{"appliance_id": appliance.ID, "serial_number": appliance.SerialNumber},
	})

	return appliance, nil
}

// UpdateAppliance edits an appliance of the caller's client
func (s *Service) UpdateAppliance(ctx context.Context, scope Scope, actorID, id int64, in ApplianceInput) (*Appliance, error) {
	appliance, err := s.repos.Appliances.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(appliance.ClientID) {
		return nil, ErrApplianceNotFound
	}
	if err := s.applyAppliance(ctx, appliance, in); err != nil {
		return nil, err
	}
	if err := s.repos.Appliances.Update(ctx, appliance); err != nil {
		return nil, fmt.Errorf("failed to update appliance: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeApplianceUpdated,
		ClientID: appliance.ClientID,
		ActorID:  actorID,
		Resource: "appliance",
		Metadata: map[string]any{"appliance_id": appliance.ID},
	})

	return appliance, nil
}

func (s *Service) applyAppliance(ctx context.Context, a *Appliance, in ApplianceInput) error {
	serial := strings.TrimSpace(in.SerialNumber)
	if serial == "" {
		return fmt.Errorf("%w: serial number is required", ErrInvalidInput)
	}
	if in.ManufacturerID != nil {
		m, err := s.repos.Manufacturers.GetByID(ctx, *in.ManufacturerID)
		if err != nil {
			return err
		}
		a.Manufacturer = m
	} else {
		a.Manufacturer = nil
	}
	a.SerialNumber = serial
	a.ManufacturerID = in.ManufacturerID
	a.Model = strings.TrimSpace(in.Model)
	a.Virtual = in.Virtual
	return nil
}

// ListCIs lists the CIs in a lifecycle status visible in scope
func (s *Service) ListCIs(ctx context.Context, scope Scope, status Status) ([]*CI, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, status)
	}
	return s.repos.CIs.List(ctx, scope, status)
}

// GetCI retrieves a CI with its place, contract and appliances. CIs of other
// clients are reported as not found.
func (s *Service) GetCI(ctx context.Context, scope Scope, id int64) (*CI, error) {
	ci, err := s.repos.CIs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(ci.ClientID) {
		return nil, ErrCINotFound
	}

	if ci.Place, err = s.repos.Places.GetByID(ctx, ci.PlaceID); err != nil {
		return nil, fmt.Errorf("failed to load place: %w", err)
	}
	if ci.ContractID != nil {
		if ci.Contract, err = s.repos.Contracts.GetByID(ctx, *ci.ContractID); err != nil {
			return nil, fmt.Errorf("failed to load contract: %w", err)
		}
	}
	if ci.Appliances, err = s.repos.Appliances.ListByCI(ctx, ci.ID); err != nil {
		return nil, fmt.Errorf("failed to load appliances: %w", err)
	}
	return ci, nil
}

// CreateCI registers a CI by hand. Place, contract and appliances must all
// belong to the caller's client.
func (s *Service) CreateCI(ctx context.Context, scope Scope, actorID int64, in CIInput) (*CI, error) {
	clientID, err := targetClient(scope, in.ClientID)
	if err != nil {
		return nil, err
	}

	hostname := strings.TrimSpace(in.Hostname)
	if hostname == "" {
		return nil, fmt.Errorf("%w: hostname is required", ErrInvalidInput)
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(in.IP))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ip address %q", ErrInvalidInput, in.IP)
	}
	if !in.BusinessImpact.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, ErrUnknownBusinessImpact)
	}

	place, err := s.repos.Places.GetByID(ctx, in.PlaceID)
	if err != nil {
		return nil, err
	}
	if place.ClientID != clientID {
		return nil, ErrPlaceNotFound
	}

	var contract *Contract
	if in.ContractID != nil {
		contract, err = s.repos.Contracts.GetByID(ctx, *in.ContractID)
		if err != nil {
			return nil, err
		}
		if contract.ClientID != clientID {
			return nil, ErrContractNotFound
		}
	}

	appliances := make([]*Appliance, 0, len(in.ApplianceIDs))
	for _, id := range dedupe(in.ApplianceIDs) {
		a, err := s.repos.Appliances.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if a.ClientID != clientID {
			return nil, ErrApplianceNotFound
		}
		appliances = append(appliances, a)
	}

	ci := &CI{
		ClientID:       clientID,
		PlaceID:        place.ID,
		ContractID:     in.ContractID,
		Hostname:       hostname,
		IP:             addr.String(),
		Description:    strings.TrimSpace(in.Description),
		Deployed:       in.Deployed,
		BusinessImpact: in.BusinessImpact,
		Status:         StatusCreated,
		Credentials:    in.Credentials,
		CreatedAt:      time.Now(),
		Place:          place,
		Contract:       contract,
		Appliances:     appliances,
	}
	if err := s.repos.CIs.Create(ctx, ci, ci.ApplianceIDs()); err != nil {
		return nil, fmt.Errorf("failed to create configuration item: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeCICreated,
		ClientID: clientID,
		ActorID:  actorID,
		Resource: "ci",
		Metadata: map[string]any{"ci_id": ci.ID, "hostname": ci.Hostname},
	})

	return ci, nil
}

// targetClient picks the client a write applies to. Client-bound scopes
// always write to their own client; unrestricted scopes must name one.
func targetClient(scope Scope, requested int64) (int64, error) {
	if !scope.All {
		if requested != 0 && requested != scope.ClientID {
			return 0, ErrClientNotFound
		}
		return scope.ClientID, nil
	}
	if requested == 0 {
		return 0, fmt.Errorf("%w: client_id is required", ErrInvalidInput)
	}
	return requested, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// IsNotFound reports whether err is one of the inventory not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrPlaceNotFound) ||
		errors.Is(err, ErrManufacturerNotFound) ||
		errors.Is(err, ErrContractNotFound) ||
		errors.Is(err, ErrApplianceNotFound) ||
		errors.Is(err, ErrCINotFound)
}
