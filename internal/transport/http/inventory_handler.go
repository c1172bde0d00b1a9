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

package http

import (
	"net/http"

	"github.com/internalize/internalize/internal/inventory"
)

// PlaceRequest is the body of place writes. ClientID is only read for
// superusers.
type PlaceRequest struct {
	ClientID    int64  `json:"client_id" validate:"gte=0"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

func (p PlaceRequest) input() inventory.PlaceInput {
	return inventory.PlaceInput{ClientID: p.ClientID, Name: p.Name, Description: p.Description}
}

// ListPlaces lists the places of the caller's client
func (h *Handler) ListPlaces(w http.ResponseWriter, r *http.Request) {
	scope, err := GetScope(r.Context())
	if err != nil {
		respondError(w, http.StatusForbidden, msgNotApproved)
		return
	}
	places, err := h.inventory.ListPlaces(r.Context(), scope)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to list places")
		return
	}
	respondJSON(w, http.StatusOK, places)
}

// CreatePlace registers a place
func (h *Handler) CreatePlace(w http.ResponseWriter, r *http.Request) {
	scope, err := GetScope(r.Context())
	if err != nil {
		respondError(w, http.StatusForbidden, msgNotApproved)
		return
	}
	var req PlaceRequest
	if !h.decode(w, r, &req) {
		return
	}

	place, err := h.inventory.CreatePlace(r.Context(), scope, GetUserID(r.Context()), req.input())
	if err != nil {
		h.respondServiceError(w, r, err, "failed to create place")
		return
	}
	respondJSON(w, http.StatusCreated, place)
}

// UpdatePlace changes the name or description of a place
func (h *Handler) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	scope, err := GetScope(r.Context())
	if err != nil {
		respondError(w, http.StatusForbidden, msgNotApproved)
		return
	}
	id, ok := idParam(w, r, "placeID")
	if !ok {
		return
	}
	var req PlaceRequest
	if !h.decode(w, r, &req) {
		return
	}

	place, err := h.inventory.UpdatePlace(r.Context(), scope, GetUserID(r.Context()), id, req.input())
	if err != nil {
		h.respondServiceError(w, r, err, "failed to update place")
		return
	}
	respondJSON(w, http.StatusOK, place)
}

// ApplianceRequest is the body of appliance writes
type ApplianceRequest struct {
	ClientID       int64  `json:"client_id" validate:"gte=0"`
	SerialNumber   string `json:"serial_number" validate:"required,max=255"`
	ManufacturerID *int64 `json:"manufacturer_id" validate:"omitempty,gt=0"`
	Model          string `json:"model" validate:"max=255"`
	Virtual        bool   `json:"virtual"`
}

func (a ApplianceRequest) input() inventory.ApplianceInput {
	return inventory.ApplianceInput{
		ClientID:       a.ClientID,
		SerialNumber:   a.SerialNumber,
		ManufacturerID: a.ManufacturerID,
		Model:          a.Model,
		Virtual:        a.Virtual,
	}
}

// ListAppliances lists the appliances visible to the caller
func (h *Handler) ListAppliances(w http.ResponseWriter, r *http.Request) {
	scope, err := GetScope(r.Context())
	if err != nil {
		respondError(w, http.StatusForbidden, msgNotApproved)
		return
	}
	appliances, err := h.inventory.ListAppliances(r.Context(), scope)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to list appliances")
		return
	}
	respondJSON(w, http.StatusOK, appliances)
}

// CreateAppliance registers an appliance
func (h *Handler) CreateAppliance(w http.ResponseWriter, r *http.Request) {
	scope, err := GetScope(r.Context())
	if err != nil {
		respondError(w, http.StatusForbidden, msgNotApproved)
		return
	}
	var req ApplianceRequest
	if !h.decode(w, r, &req) {
		return
	}

	appliance, err := h.inventory.CreateAppliance(r.Context(), scope, GetUserID(r.Context()), req.input())
	if err != nil {
		h.respondServiceError(w, r, err, "failed to create appliance")
		return
	}
	respondJSON(w, http.StatusCreated, appliance)
}

// UpdateAppliance edits an appliance of the caller's client
func (h *Handler) UpdateAppliance(w http.ResponseWriter, r *http.Request) {
	scope, err := GetScope(r.Context())
	if err != nil {
		respondError(w, http.StatusForbidden, msgNotApproved)
		return
	}
	id, ok := idParam(w, r, "applianceID")
	if !ok {
		return
	}
	var req ApplianceRequest
	if !h.decode(w, r, &req) {
		return
	}

	appliance, err := h.inventory.UpdateAppliance(r.Context(), scope, GetUserID(r.Context()), id, req.input())
	if err != nil {
		h.respondServiceError(w, r, err, "failed to update appliance")
		return
	}
	respondJSON(w, http.StatusOK, appliance)
}

// GetManufacturer returns a manufacturer with the caller's appliance count
func (h *Handler) GetManufacturer(w http.ResponseWriter, r *http.Request) {
	scope, err := GetScope(r.Context())
	if err != nil {
		respondError(w, http.StatusForbidden, msgNotApproved)
		return
	}
	id, ok := idParam(w, r, "manufacturerID")
	if !ok {
		return
	}

	m, err := h.inventory.GetManufacturer(r.Context(), scope, id)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to get manufacturer")
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// ClientRequest is the body of POST /clients
type ClientRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// ListClients lists the clients visible to the caller
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	scope, err := GetScope(r.Context())
	if err != nil {
		respondError(w, http.StatusForbidden, msgNotApproved)
		return
	}
	clients, err := h.inventory.ListClients(r.Context(), scope)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to list clients")
		return
	}
	respondJSON(w, http.StatusOK, clients)
}

// GetClient returns a client with its places
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	scope, err := GetScope(r.Context())
	if err != nil {
		respondError(w, http.StatusForbidden, msgNotApproved)
		return
	}
	id, ok := idParam(w, r, "clientID")
	if !ok {
		return
	}

	client, err := h.inventory.GetClient(r.Context(), scope, id)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to get client")
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// CreateClient creates a client. Superuser only.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if !h.decode(w, r, &req) {
		return
	}

	client, err := h.inventory.CreateClient(r.Context(), GetUserID(r.Context()), req.Name)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to create client")
		return
	}
	respondJSON(w, http.StatusCreated, client)
}

// AssignClientRequest is the body of POST /users/{userID}/client
type AssignClientRequest struct {
	ClientID int64 `json:"client_id" validate:"required,gt=0"`
}

// AssignClient approves a user by attaching it to a client. Superuser only.
func (h *Handler) AssignClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userID")
	if !ok {
		return
	}
	var req AssignClientRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.accounts.AssignClient(r.Context(), GetUser(r.Context()), userID, req.ClientID)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to assign client")
		return
	}
	respondJSON(w, http.StatusOK, newUserResponse(user))
}
