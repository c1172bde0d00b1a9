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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/internalize/internalize/internal/account"
	"github.com/internalize/internalize/internal/audit"
	"github.com/internalize/internalize/internal/events"
	"github.com/internalize/internalize/internal/inventory"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, p *Pack, ciIDs []int64) error {
	args := m.Called(ctx, p, ciIDs)
	if args.Error(0) == nil {
		p.ID = 10
	}
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*Pack, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Pack), args.Error(1)
}

func (m *MockRepository) Approve(ctx context.Context, id, approvedBy int64, at time.Time) error {
	return m.Called(ctx, id, approvedBy, at).Error(0)
}

func (m *MockRepository) ApproveCIs(ctx context.Context, ciIDs []int64) (int64, error) {
	args := m.Called(ctx, ciIDs)
	return args.Get(0).(int64), args.Error(1)
}

type MockCIs struct {
	mock.Mock
}

func (m *MockCIs) GetByID(ctx context.Context, id int64) (*inventory.CI, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.CI), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, v any) error {
	return m.Called(ctx, subject, v).Error(0)
}

type fixture struct {
	repo *MockRepository
	cis  *MockCIs
	pub  *MockPublisher
	svc  *Service
	now  time.Time
}

func newFixture() *fixture {
	f := &fixture{
		repo: new(MockRepository),
		cis:  new(MockCIs),
		pub:  new(MockPublisher),
		now:  time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.repo, f.cis, audit.NewSlogLogger(), f.pub)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func clientUser(id, clientID int64) *account.User {
	return &account.User{ID: id, Username: "u", ClientID: &clientID}
}

// TestPurpose: Validates sending CREATED CIs of the caller's client.
// Scope: Unit Test
// Expected: The pack is created for the client with the caller responsible; duplicates are collapsed; pack_sent is published.
// Test Case ID: PCK-01
func TestService_Send(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	actor := clientUser(5, 1)

	f.cis.On("GetByID", ctx, int64(1)).Return(&inventory.CI{ID: 1, ClientID: 1, Status: inventory.StatusCreated}, nil)
	f.cis.On("GetByID", ctx, int64(2)).Return(&inventory.CI{ID: 2, ClientID: 1, Status: inventory.StatusCreated}, nil)
	f.repo.On("Create", ctx, mock.MatchedBy(func(p *Pack) bool {
		return p.ClientID == 1 && p.ResponsibleID == 5
	}), []int64{1, 2}).Return(nil)
	f.pub.On("Publish", ctx, events.SubjectPackSent, mock.MatchedBy(func(e events.PackSent) bool {
		return e.PackID == 10 && e.ClientID == 1 && len(e.CIIDs) == 2
	})).Return(nil)

	p, err := f.svc.Send(ctx, actor, []int64{1, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.ID)
	assert.Equal(t, []int64{1, 2}, p.CIIDs)
	assert.Equal(t, f.now, p.CreatedAt)

	f.repo.AssertExpectations(t)
	f.pub.AssertExpectations(t)
}

// TestPurpose: Validates the CIs that cannot be sent.
// Scope: Unit Test
// Security: Tenant isolation
// Expected: Foreign, missing, already sent and mixed-client CIs are rejected without creating a pack.
// Test Case ID: PCK-02
func TestService_Send_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	actor := clientUser(5, 1)
	admin := &account.User{ID: 9, IsSuperuser: true}

	f.cis.On("GetByID", ctx, int64(1)).Return(&inventory.CI{ID: 1, ClientID: 1, Status: inventory.StatusCreated}, nil)
	f.cis.On("GetByID", ctx, int64(2)).Return(&inventory.CI{ID: 2, ClientID: 2, Status: inventory.StatusCreated}, nil)
	f.cis.On("GetByID", ctx, int64(3)).Return(&inventory.CI{ID: 3, ClientID: 1, Status: inventory.StatusSent}, nil)
	f.cis.On("GetByID", ctx, int64(4)).Return(nil, inventory.ErrCINotFound)

	_, err := f.svc.Send(ctx, actor, nil)
	assert.ErrorIs(t, err, ErrEmptyPack)

	_, err = f.svc.Send(ctx, actor, []int64{1, 2})
	assert.ErrorIs(t, err, ErrCINotEligible)

	_, err = f.svc.Send(ctx, actor, []int64{3})
	assert.ErrorIs(t, err, ErrCINotEligible)
	assert.Contains(t, err.Error(), "sent")

	_, err = f.svc.Send(ctx, actor, []int64{4})
	assert.ErrorIs(t, err, ErrCINotEligible)

	_, err = f.svc.Send(ctx, admin, []int64{1, 2})
	assert.ErrorIs(t, err, ErrMixedClients)

	_, err = f.svc.Send(ctx, &account.User{ID: 7}, []int64{1})
	assert.ErrorIs(t, err, account.ErrNotApproved)

	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

// TestPurpose: Validates pack approval.
// Scope: Unit Test
// Security: Only superusers approve
// Expected: Clients are forbidden; the first approval succeeds and publishes; a second one fails.
// Test Case ID: PCK-03
func TestService_Approve(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := &account.User{ID: 9, IsSuperuser: true}

	_, err := f.svc.Approve(ctx, clientUser(5, 1), 10)
	assert.ErrorIs(t, err, account.ErrForbidden)

	f.repo.On("GetByID", ctx, int64(10)).Return(&Pack{ID: 10, ClientID: 1}, nil).Once()
	f.repo.On("Approve", ctx, int64(10), int64(9), f.now).Return(nil).Once()
	f.pub.On("Publish", ctx, events.SubjectPackApproved, mock.Anything).Return(errors.New("nats down")).Once()

	p, err := f.svc.Approve(ctx, admin, 10)
	require.NoError(t, err)
	assert.True(t, p.Approved)
	require.NotNil(t, p.ApprovedBy)
	assert.Equal(t, int64(9), *p.ApprovedBy)

	f.repo.On("GetByID", ctx, int64(10)).Return(&Pack{ID: 10, ClientID: 1, Approved: true}, nil).Once()
	_, err = f.svc.Approve(ctx, admin, 10)
	assert.ErrorIs(t, err, ErrAlreadyApproved)

	f.repo.AssertExpectations(t)
}

// TestPurpose: Validates tenant scoping of pack reads.
// Scope: Unit Test
// Security: Tenant isolation
// Expected: Packs of other clients are not found.
// Test Case ID: PCK-04
func TestService_Get(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.repo.On("GetByID", ctx, int64(10)).Return(&Pack{ID: 10, ClientID: 2}, nil)

	_, err := f.svc.Get(ctx, inventory.ClientScope(1), 10)
	assert.ErrorIs(t, err, ErrPackNotFound)

	p, err := f.svc.Get(ctx, inventory.AllClients(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.ID)
}

// TestPurpose: Validates the bulk approval action.
// Scope: Unit Test
// Expected: Superusers approve the distinct IDs; others are forbidden.
// Test Case ID: PCK-05
func TestService_ApproveCIs(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := &account.User{ID: 9, IsSuperuser: true}

	_, err := f.svc.ApproveCIs(ctx, clientUser(5, 1), []int64{1})
	assert.ErrorIs(t, err, account.ErrForbidden)
	_, err = f.svc.ApproveCIs(ctx, admin, nil)
	assert.ErrorIs(t, err, ErrEmptyPack)

	f.repo.On("ApproveCIs", ctx, []int64{3, 4}).Return(int64(2), nil)
	n, err := f.svc.ApproveCIs(ctx, admin, []int64{3, 4, 3})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
