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
)

// SendPack sends CREATED CIs for approval with the caller as responsible
func (h *Handler) SendPack(w http.ResponseWriter, r *http.Request) {
	var req CIIDsRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.packs.Send(r.Context(), GetUser(r.Context()), req.CIIDs)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to send pack")
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// GetPack returns a pack of the caller's client
func (h *Handler) GetPack(w http.ResponseWriter, r *http.Request) {
	scope, err := GetScope(r.Context())
	if err != nil {
		respondError(w, http.StatusForbidden, msgNotApproved)
		return
	}
	id, ok := idParam(w, r, "packID")
	if !ok {
		return
	}

	p, err := h.packs.Get(r.Context(), scope, id)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to get pack")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// ApprovePack approves a pack and its CIs. Superuser only.
func (h *Handler) ApprovePack(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "packID")
	if !ok {
		return
	}

	p, err := h.packs.Approve(r.Context(), GetUser(r.Context()), id)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to approve pack")
		return
	}
	respondJSON(w, http.StatusOK, p)
}
