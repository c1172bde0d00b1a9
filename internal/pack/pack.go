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

// Package pack groups CIs that a client sends for approval.
package pack

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPackNotFound    = errors.New("pack not found")
	ErrEmptyPack       = errors.New("pack needs at least one configuration item")
	ErrCINotEligible   = errors.New("configuration item cannot be sent")
	ErrMixedClients    = errors.New("configuration items belong to different clients")
	ErrAlreadyApproved = errors.New("pack is already approved")
)

// Pack is a set of CIs sent together for approval.
type Pack struct {
	ID            int64      `json:"id" db:"id"`
	ClientID      int64      `json:"client_id" db:"client_id"`
	ResponsibleID int64      `json:"responsible_id" db:"responsible_id"`
	Approved      bool       `json:"approved" db:"approved"`
	ApprovedBy    *int64     `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	CIIDs         []int64    `json:"ci_ids" db:"-"`
}

// Repository defines the interface for pack persistence
type Repository interface {
	// Create inserts the pack and moves the given CREATED CIs of the pack's
	// client to SENT in one transaction. If any CI is missing, owned by
	// another client or not CREATED, nothing is written and
	// ErrCINotEligible is returned.
	Create(ctx context.Context, p *Pack, ciIDs []int64) error

	// GetByID returns the pack with its CI IDs
	GetByID(ctx context.Context, id int64) (*Pack, error)

	// Approve marks the pack approved and its CIs APPROVED. It returns
	// ErrAlreadyApproved when the pack was approved before.
	Approve(ctx context.Context, id, approvedBy int64, at time.Time) error

	// ApproveCIs sets the given CIs to APPROVED and reports how many changed
	ApproveCIs(ctx context.Context, ciIDs []int64) (int64, error)
}
