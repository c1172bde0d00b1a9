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

	"github.com/internalize/internalize/internal/account"
	"github.com/internalize/internalize/internal/inventory"
	"github.com/internalize/internalize/internal/pack"
)

type accounts struct {
	users       map[int64]account.User
	credentials map[int64]account.Credentials
	sessions    map[string]account.Session
	packs       map[int64]pack.Pack
}

func newAccounts() *accounts {
	return &accounts{
		users:       map[int64]account.User{},
		credentials: map[int64]account.Credentials{},
		sessions:    map[string]account.Session{},
		packs:       map[int64]pack.Pack{},
	}
}

// Users returns the store as an account.UserRepository.
func (s *Store) Users() account.UserRepository { return userRepo{s} }

// Sessions returns the store as an account.SessionRepository.
func (s *Store) Sessions() account.SessionRepository { return sessionRepo{s} }

// Packs returns the store as a pack.Repository.
func (s *Store) Packs() pack.Repository { return packRepo{s} }

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, user *account.User, credentials *account.Credentials) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.accounts.users {
		if u.Username == user.Username {
			return unique("users_username_key")
		}
		if u.Email == user.Email {
			return unique("users_email_key")
		}
	}
	now := time.Now()
	user.ID = r.s.state.nextID()
	user.CreatedAt, user.UpdatedAt = now, now
	credentials.UserID = user.ID
	credentials.UpdatedAt = now
	r.s.accounts.users[user.ID] = *user
	r.s.accounts.credentials[user.ID] = *credentials
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id int64) (*account.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.accounts.users[id]
	if !ok {
		return nil, account.ErrUserNotFound
	}
	return &u, nil
}

func (r userRepo) GetByUsername(ctx context.Context, username string) (*account.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.accounts.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, account.ErrUserNotFound
}

func (r userRepo) GetCredentials(ctx context.Context, userID int64) (*account.Credentials, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.accounts.credentials[userID]
	if !ok {
		return nil, account.ErrUserNotFound
	}
	return &c, nil
}

func (r userRepo) UpdateLockout(ctx context.Context, userID int64, failedAttempts int, lockedUntil *time.Time) error {
	return r.update(userID, func(u *account.User) {
		u.FailedLoginAttempts = failedAttempts
		u.LockedUntil = lockedUntil
	})
}

func (r userRepo) SetClient(ctx context.Context, userID, clientID int64) error {
	r.s.mu.Lock()
	_, ok := r.s.state.clients[clientID]
	r.s.mu.Unlock()
	if !ok {
		return foreignKey("users_client_id_fkey")
	}
	return r.update(userID, func(u *account.User) { u.ClientID = &clientID })
}

func (r userRepo) SetSuperuser(ctx context.Context, userID int64, superuser bool) error {
	return r.update(userID, func(u *account.User) { u.IsSuperuser = superuser })
}

func (r userRepo) update(userID int64, fn func(u *account.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.accounts.users[userID]
	if !ok {
		return account.ErrUserNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	r.s.accounts.users[userID] = u
	return nil
}

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(ctx context.Context, sess *account.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts.users[sess.UserID]; !ok {
		return foreignKey("sessions_user_id_fkey")
	}
	if _, ok := r.s.accounts.sessions[sess.ID]; ok {
		return unique("sessions_pkey")
	}
	r.s.accounts.sessions[sess.ID] = *sess
	return nil
}

func (r sessionRepo) Get(ctx context.Context, sessionID string) (*account.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.accounts.sessions[sessionID]
	if !ok {
		return nil, account.ErrSessionNotFound
	}
	return &sess, nil
}

func (r sessionRepo) Touch(ctx context.Context, sessionID string, lastSeenAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.accounts.sessions[sessionID]
	if !ok {
		return account.ErrSessionNotFound
	}
	sess.LastSeenAt = lastSeenAt
	r.s.accounts.sessions[sessionID] = sess
	return nil
}

func (r sessionRepo) Delete(ctx context.Context, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.accounts.sessions, sessionID)
	return nil
}

func (r sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, sess := range r.s.accounts.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(r.s.accounts.sessions, id)
			n++
		}
	}
	return n, nil
}

type packRepo struct{ s *Store }

func (r packRepo) Create(ctx context.Context, p *pack.Pack, ciIDs []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := r.s.state
	for _, id := range ciIDs {
		ci, ok := st.cis[id]
		if !ok || ci.ClientID != p.ClientID || ci.Status != inventory.StatusCreated {
			return pack.ErrCINotEligible
		}
	}

	p.ID = st.nextID()
	for _, id := range ciIDs {
		ci := st.cis[id]
		packID := p.ID
		ci.PackID = &packID
		ci.Status = inventory.StatusSent
		st.cis[id] = ci
	}
	stored := *p
	stored.CIIDs = nil
	r.s.accounts.packs[p.ID] = stored
	return nil
}

func (r packRepo) GetByID(ctx context.Context, id int64) (*pack.Pack, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.accounts.packs[id]
	if !ok {
		return nil, pack.ErrPackNotFound
	}
	p.CIIDs = r.packItems(id)
	return &p, nil
}

func (r packRepo) Approve(ctx context.Context, id, approvedBy int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.accounts.packs[id]
	if !ok {
		return pack.ErrPackNotFound
	}
	if p.Approved {
		return pack.ErrAlreadyApproved
	}
	p.Approved = true
	p.ApprovedBy = &approvedBy
	p.ApprovedAt = &at
	r.s.accounts.packs[id] = p
	r.setStatus(inventory.StatusApproved, r.packItems(id)...)
	return nil
}

func (r packRepo) ApproveCIs(ctx context.Context, ciIDs []int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.setStatus(inventory.StatusApproved, ciIDs...), nil
}

// packItems must be called with the store lock held.
func (r packRepo) packItems(id int64) []int64 {
	ids := []int64{}
	for _, ci := range r.s.state.cis {
		if ci.PackID != nil && *ci.PackID == id {
			ids = append(ids, ci.ID)
		}
	}
	slices.Sort(ids)
	return ids
}

// setStatus must be called with the store lock held.
func (r packRepo) setStatus(status inventory.Status, ids ...int64) int64 {
	var n int64
	for _, id := range ids {
		if ci, ok := r.s.state.cis[id]; ok && ci.Status != status {
			ci.Status = status
			r.s.state.cis[id] = ci
			n++
		}
	}
	return n
}
