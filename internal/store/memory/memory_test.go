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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/internalize/internalize/internal/account"
	"github.com/internalize/internalize/internal/inventory"
	"github.com/internalize/internalize/internal/pack"
)

func seedCI(t *testing.T, s *Store, clientID int64, hostname string) *inventory.CI {
	t.Helper()
	ctx := context.Background()
	var ci *inventory.CI
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx inventory.Tx) error {
		place, err := tx.GetOrCreatePlace(ctx, &inventory.Place{ClientID: clientID, Name: "HQ"})
		if err != nil {
			return err
		}
		ci = &inventory.CI{ClientID: clientID, PlaceID: place.ID, Hostname: hostname, IP: "10.0.0.1"}
		return tx.CreateCI(ctx, ci)
	}))
	return ci
}

// TestPurpose: Validates that a failed transaction leaves the store untouched.
// Scope: Unit Test
// Expected: Rows written before the error are discarded; constraint violations are IntegrityErrors.
// Test Case ID: MEM-01
func TestStore_WithinTx_Rollback(t *testing.T) {
	ctx := context.Background()
	s := New()
	client := &inventory.Client{Name: "Acme"}
	require.NoError(t, s.Create(ctx, client))
	assert.True(t, inventory.IsUniqueViolation(s.Create(ctx, &inventory.Client{Name: "Acme"})))

	errBoom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx inventory.Tx) error {
		if _, err := tx.GetOrCreatePlace(ctx, &inventory.Place{ClientID: client.ID, Name: "HQ"}); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, s.Counts()["places"])

	err = s.WithinTx(ctx, func(ctx context.Context, tx inventory.Tx) error {
		_, err := tx.GetOrCreatePlace(ctx, &inventory.Place{ClientID: 999, Name: "HQ"})
		return err
	})
	assert.ErrorIs(t, err, inventory.ErrIntegrity)
	assert.False(t, inventory.IsUniqueViolation(err))
}

// TestPurpose: Validates the in-memory pack workflow.
// Scope: Unit Test
// Security: Tenant isolation
// Expected: Only CREATED CIs of the pack's client are sent; approval is applied once.
// Test Case ID: MEM-02
func TestStore_Packs(t *testing.T) {
	ctx := context.Background()
	s := New()
	acme := &inventory.Client{Name: "Acme"}
	globex := &inventory.Client{Name: "Globex"}
	require.NoError(t, s.Create(ctx, acme))
	require.NoError(t, s.Create(ctx, globex))
	own := seedCI(t, s, acme.ID, "router")
	foreign := seedCI(t, s, globex.ID, "switch")

	packs := s.Packs()
	err := packs.Create(ctx, &pack.Pack{ClientID: acme.ID}, []int64{own.ID, foreign.ID})
	assert.ErrorIs(t, err, pack.ErrCINotEligible)

	p := &pack.Pack{ClientID: acme.ID, ResponsibleID: 1}
	require.NoError(t, packs.Create(ctx, p, []int64{own.ID}))

	got, err := packs.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{own.ID}, got.CIIDs)

	ci, err := s.Repositories().CIs.GetByID(ctx, own.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusSent, ci.Status)

	require.NoError(t, packs.Approve(ctx, p.ID, 9, time.Now()))
	assert.ErrorIs(t, packs.Approve(ctx, p.ID, 9, time.Now()), pack.ErrAlreadyApproved)

	approved, err := s.Repositories().CIs.List(ctx, inventory.AllClients(), inventory.StatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, own.ID, approved[0].ID)

	n, err := packs.ApproveCIs(ctx, []int64{own.ID, foreign.ID, 12345})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// TestPurpose: Validates in-memory users and sessions.
// Scope: Unit Test
// Expected: Usernames are unique; client assignment requires an existing client; expired sessions are purged.
// Test Case ID: MEM-03
func TestStore_UsersAndSessions(t *testing.T) {
	ctx := context.Background()
	s := New()
	users := s.Users()
	sessions := s.Sessions()

	u := &account.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, users.Create(ctx, u, &account.Credentials{PasswordHash: "h"}))
	err := users.Create(ctx, &account.User{Username: "alice", Email: "x@example.com"}, &account.Credentials{})
	assert.True(t, inventory.IsUniqueViolation(err))

	assert.ErrorIs(t, users.SetClient(ctx, u.ID, 777), inventory.ErrIntegrity)
	client := &inventory.Client{Name: "Acme"}
	require.NoError(t, s.Create(ctx, client))
	require.NoError(t, users.SetClient(ctx, u.ID, client.ID))

	got, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got.ClientID)
	assert.Equal(t, client.ID, *got.ClientID)

	now := time.Now()
	require.NoError(t, sessions.Create(ctx, &account.Session{ID: "a", UserID: u.ID, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, sessions.Create(ctx, &account.Session{ID: "b", UserID: u.ID, ExpiresAt: now.Add(-time.Hour)}))
	n, err := sessions.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = sessions.Get(ctx, "b")
	assert.ErrorIs(t, err, account.ErrSessionNotFound)
	require.NoError(t, sessions.Delete(ctx, "a"))
	_, err = sessions.Get(ctx, "a")
	assert.ErrorIs(t, err, account.ErrSessionNotFound)
}

// TestPurpose: Validates that CI appliance links behave like a (ci_id, appliance_id) key.
// Scope: Unit Test
// Expected: Repeated appliance IDs are stored once, in first-seen order; unknown IDs fail the foreign key.
// Test Case ID: MEM-04
func TestStore_SetCIAppliances(t *testing.T) {
	ctx := context.Background()
	s := New()
	client := &inventory.Client{Name: "Acme"}
	require.NoError(t, s.Create(ctx, client))
	ci := seedCI(t, s, client.ID, "wlc1")

	var first, second *inventory.Appliance
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx inventory.Tx) error {
		var err error
		if first, err = tx.GetOrCreateAppliance(ctx, &inventory.Appliance{ClientID: client.ID, SerialNumber: "FOX123"}); err != nil {
			return err
		}
		if second, err = tx.GetOrCreateAppliance(ctx, &inventory.Appliance{ClientID: client.ID, SerialNumber: "FOX124"}); err != nil {
			return err
		}
		return tx.SetCIAppliances(ctx, ci.ID, []int64{second.ID, first.ID, second.ID})
	}))

	assert.Equal(t, 2, s.Counts()["ci_appliances"])
	linked, err := s.Repositories().Appliances.ListByCI(ctx, ci.ID)
	require.NoError(t, err)
	require.Len(t, linked, 2)
	assert.Equal(t, "FOX124", linked[0].SerialNumber)
	assert.Equal(t, "FOX123", linked[1].SerialNumber)

	err = s.WithinTx(ctx, func(ctx context.Context, tx inventory.Tx) error {
		return tx.SetCIAppliances(ctx, ci.ID, []int64{first.ID, 999})
	})
	assert.ErrorIs(t, err, inventory.ErrIntegrity)
	assert.Equal(t, 2, s.Counts()["ci_appliances"])
}
