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

package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/internalize/internalize/internal/audit"
	"github.com/internalize/internalize/internal/inventory"
)

// ClientLookup resolves the client a user is assigned to.
type ClientLookup interface {
	GetByID(ctx context.Context, id int64) (*inventory.Client, error)
}

// Service provides account business logic
type Service struct {
	repo               UserRepository
	clients            ClientLookup
	hasher             *PasswordHasher
	auditLogger        audit.Logger
	lockoutMaxAttempts int
	lockoutDuration    time.Duration
	now                func() time.Time
}

// NewService creates a new account service
func NewService(
	repo UserRepository,
	clients ClientLookup,
	hasher *PasswordHasher,
	auditLogger audit.Logger,
	lockoutMaxAttempts int,
	lockoutDuration time.Duration,
) *Service {
	return &Service{
		repo:               repo,
		clients:            clients,
		hasher:             hasher,
		auditLogger:        auditLogger,
		lockoutMaxAttempts: lockoutMaxAttempts,
		lockoutDuration:    lockoutDuration,
		now:                time.Now,
	}
}

// RegisterInput carries the sign-up form.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates an unapproved user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	username := strings.TrimSpace(in.Username)
	if !isValidUsername(username) {
		return nil, ErrInvalidUsername
	}
	email := strings.TrimSpace(in.Email)
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !isStrongPassword(in.Password) {
		return nil, ErrWeakPassword
	}

	if existing, err := s.repo.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, ErrUserAlreadyExists
	}

	user, err := s.create(ctx, username, email, in.Password, false)
	if err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserRegistered,
		ActorID:  user.ID,
		Resource: "user",
		Metadata: map[string]any{audit.AttrUsername: username},
	})
	return user, nil
}

func (s *Service) create(ctx context.Context, username, email, password string, superuser bool) (*User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &User{
		Username:    username,
		Email:       email,
		IsSuperuser: superuser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, user, &Credentials{PasswordHash: hash, UpdatedAt: now}); err != nil {
		if inventory.IsUniqueViolation(err) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate checks a username and password. Repeated failures lock the
// account for the configured duration.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			Resource: "login",
			Metadata: map[string]any{
				audit.AttrReason:   "user_not_found",
				audit.AttrUsername: username,
			},
		})
		return nil, ErrInvalidCredentials
	}

	if user.IsLocked(s.now()) {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			ClientID: clientOf(user),
			ActorID:  user.ID,
			Resource: "login",
			Metadata: map[string]any{audit.AttrReason: "locked_out"},
		})
		return nil, ErrAccountLocked
	}

	credentials, err := s.repo.GetCredentials(ctx, user.ID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	valid, err := s.hasher.Verify(password, credentials.PasswordHash)
	if err != nil || !valid {
		attempts := user.FailedLoginAttempts + 1
		var lockedUntil *time.Time
		if attempts >= s.lockoutMaxAttempts {
			until := s.now().Add(s.lockoutDuration)
			lockedUntil = &until
			s.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeUserLocked,
				ClientID: clientOf(user),
				ActorID:  user.ID,
				Resource: "login",
				Metadata: map[string]any{audit.AttrAttempts: attempts},
			})
		}
		_ = s.repo.UpdateLockout(ctx, user.ID, attempts, lockedUntil)

		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			ClientID: clientOf(user),
			ActorID:  user.ID,
			Resource: "login",
			Metadata: map[string]any{
				audit.AttrReason:   "invalid_password",
				audit.AttrAttempts: attempts,
			},
		})
		return nil, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		_ = s.repo.UpdateLockout(ctx, user.ID, 0, nil)
		user.FailedLoginAttempts, user.LockedUntil = 0, nil
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginSuccess,
		ClientID: clientOf(user),
		ActorID:  user.ID,
		Resource: "login",
	})
	return user, nil
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(ctx context.Context, userID int64) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// AssignClient approves a user by attaching it to a client. Only superusers
// may do this.
func (s *Service) AssignClient(ctx context.Context, actor *User, userID, clientID int64) (*User, error) {
	if actor == nil || !actor.IsSuperuser {
		return nil, ErrForbidden
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.clients.GetByID(ctx, clientID); err != nil {
		return nil, err
	}
	if err := s.repo.SetClient(ctx, user.ID, clientID); err != nil {
		return nil, fmt.Errorf("failed to assign client: %w", err)
	}
	user.ClientID = &clientID

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserApproved,
		ClientID: clientID,
		ActorID:  actor.ID,
		Resource: "user",
		Metadata: map[string]any{audit.AttrUserID: user.ID},
	})
	return user, nil
}

// BootstrapSuperuser makes sure a superuser named username exists. An
// existing user is promoted and keeps its password; otherwise the user is
// created with password. The boolean reports whether a user was created.
func (s *Service) BootstrapSuperuser(ctx context.Context, username, email, password string) (*User, bool, error) {
	username = strings.TrimSpace(username)
	if !isValidUsername(username) {
		return nil, false, ErrInvalidUsername
	}

	existing, err := s.repo.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if !existing.IsSuperuser {
			if err := s.repo.SetSuperuser(ctx, existing.ID, true); err != nil {
				return nil, false, fmt.Errorf("failed to promote user: %w", err)
			}
			existing.IsSuperuser = true
			s.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeSuperuserCreated,
				ActorID:  audit.ActorSystem,
				Resource: "user",
				Metadata: map[string]any{audit.AttrUserID: existing.ID, audit.AttrUsername: username},
			})
		}
		return existing, false, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, false, fmt.Errorf("failed to look up bootstrap user: %w", err)
	}

	if !isValidEmail(email) {
		return nil, false, ErrInvalidEmail
	}
	if !isStrongPassword(password) {
		return nil, false, ErrWeakPassword
	}
	user, err := s.create(ctx, username, strings.TrimSpace(email), password, true)
	if err != nil {
		return nil, false, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSuperuserCreated,
		ActorID:  audit.ActorSystem,
		Resource: "user",
		Metadata: map[string]any{audit.AttrUserID: user.ID, audit.AttrUsername: username},
	})
	return user, true, nil
}

func clientOf(u *User) int64 {
	if u.ClientID == nil {
		return 0
	}
	return *u.ClientID
}

func isValidUsername(username string) bool {
	if username == "" || len(username) > 150 {
		return false
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("@.+-_", r):
		default:
			return false
		}
	}
	return true
}

func isValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1 && len(email) < 255
}

func isStrongPassword(password string) bool {
	return len(password) >= 8
}
