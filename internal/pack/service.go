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

package pack

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/internalize/internalize/internal/account"
	"github.com/internalize/internalize/internal/audit"
	"github.com/internalize/internalize/internal/events"
	"github.com/internalize/internalize/internal/inventory"
	"github.com/internalize/internalize/internal/observability/logger"
)

// CILookup reads CIs for eligibility checks.
type CILookup interface {
	GetByID(ctx context.Context, id int64) (*inventory.CI, error)
}

// Service provides the send and approve workflow
type Service struct {
	repo        Repository
	cis         CILookup
	auditLogger audit.Logger
	publisher   events.Publisher
	now         func() time.Time
}

// NewService creates a new pack service
func NewService(repo Repository, cis CILookup, auditLogger audit.Logger, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		repo:        repo,
		cis:         cis,
		auditLogger: auditLogger,
		publisher:   publisher,
		now:         time.Now,
	}
}

// Send creates a pack of CREATED CIs with the actor as responsible. Every CI
// must be visible to the actor and all of them must belong to one client.
func (s *Service) Send(ctx context.Context, actor *account.User, ciIDs []int64) (*Pack, error) {
	scope, err := actor.Scope()
	if err != nil {
		return nil, err
	}
	ids := unique(ciIDs)
	if len(ids) == 0 {
		return nil, ErrEmptyPack
	}

	var clientID int64
	for i, id := range ids {
		ci, err := s.cis.GetByID(ctx, id)
		if err != nil {
			if inventory.IsNotFound(err) {
				return nil, fmt.Errorf("%w: %d", ErrCINotEligible, id)
			}
			return nil, err
		}
		if !scope.Allows(ci.ClientID) {
			return nil, fmt.Errorf("%w: %d", ErrCINotEligible, id)
		}
		if ci.Status != inventory.StatusCreated {
			return nil, fmt.Errorf("%w: %d is %s", ErrCINotEligible, id, ci.Status)
		}
		if i == 0 {
			clientID = ci.ClientID
		} else if ci.ClientID != clientID {
			return nil, ErrMixedClients
		}
	}

	p := &Pack{
		ClientID:      clientID,
		ResponsibleID: actor.ID,
		CreatedAt:     s.now(),
	}
	if err := s.repo.Create(ctx, p, ids); err != nil {
		return nil, fmt.Errorf("failed to create pack: %w", err)
	}
	p.CIIDs = ids

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePackSent,
		ClientID: clientID,
		ActorID:  actor.ID,
		Resource: "pack",
		Metadata: map[string]any{"pack_id": p.ID, audit.AttrCIIDs: ids},
	})
	s.publish(ctx, events.SubjectPackSent, events.PackSent{
		PackID:        p.ID,
		ClientID:      clientID,
		ResponsibleID: actor.ID,
		CIIDs:         ids,
		At:            p.CreatedAt,
	})
	return p, nil
}

// Get returns a pack visible in scope
func (s *Service) Get(ctx context.Context, scope inventory.Scope, id int64) (*Pack, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(p.ClientID) {
		return nil, ErrPackNotFound
	}
	return p, nil
}

// Approve approves a pack and all of its CIs. Superuser only.
func (s *Service) Approve(ctx context.Context, actor *account.User, packID int64) (*Pack, error) {
	if actor == nil || !actor.IsSuperuser {
		return nil, account.ErrForbidden
	}

	p, err := s.repo.GetByID(ctx, packID)
	if err != nil {
		return nil, err
	}
	if p.Approved {
		return nil, ErrAlreadyApproved
	}

	now := s.now()
	if err := s.repo.Approve(ctx, p.ID, actor.ID, now); err != nil {
		return nil, err
	}
	p.Approved = true
	p.ApprovedBy = &actor.ID
	p.ApprovedAt = &now

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePackApproved,
		ClientID: p.ClientID,
		ActorID:  actor.ID,
		Resource: "pack",
		Metadata: map[string]any{"pack_id": p.ID},
	})
	s.publish(ctx, events.SubjectPackApproved, events.PackApproved{
		PackID:     p.ID,
		ClientID:   p.ClientID,
		ApprovedBy: actor.ID,
		At:         now,
	})
	return p, nil
}

// ApproveCIs approves CIs directly, outside of any pack. Superuser only.
func (s *Service) ApproveCIs(ctx context.Context, actor *account.User, ciIDs []int64) (int64, error) {
	if actor == nil || !actor.IsSuperuser {
		return 0, account.ErrForbidden
	}
	ids := unique(ciIDs)
	if len(ids) == 0 {
		return 0, ErrEmptyPack
	}

	n, err := s.repo.ApproveCIs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to approve configuration items: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeCIsApproved,
		ActorID:  actor.ID,
		Resource: "ci",
		Metadata: map[string]any{audit.AttrCIIDs: ids, "approved": n},
	})
	return n, nil
}

// publish never fails the caller: events are notifications only.
func (s *Service) publish(ctx context.Context, subject string, v any) {
	if err := s.publisher.Publish(ctx, subject, v); err != nil {
		slog.WarnContext(ctx, "failed to publish event",
			logger.Component("pack"),
			slog.String("subject", subject),
			logger.Error(err),
		)
	}
}

func unique(ids []int64) []int64 {
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
