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
	"time"

	"github.com/internalize/internalize/internal/inventory"
)

// Domain errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password does not meet security requirements")
	ErrAccountLocked      = errors.New("account is locked")
	ErrNotApproved        = errors.New("account is not approved")
	ErrForbidden          = errors.New("forbidden")
)

// Approval Principles:
// 1. A new user belongs to no client and can do nothing but look at itself.
// 2. A superuser approves a user by assigning it a client.
// 3. Superusers are approved without a client and see every client.

// User is an account of the web application.
type User struct {
	ID                  int64      `json:"id" db:"id"`
	Username            string     `json:"username" db:"username"`
	Email               string     `json:"email" db:"email"`
	ClientID            *int64     `json:"client_id,omitempty" db:"client_id"`
	IsSuperuser         bool       `json:"is_superuser" db:"is_superuser"`
	FailedLoginAttempts int        `json:"-" db:"failed_login_attempts"`
	LockedUntil         *time.Time `json:"-" db:"locked_until"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// IsApproved reports whether the user may work with inventory data.
func (u *User) IsApproved() bool {
	return u.ClientID != nil || u.IsSuperuser
}

// Scope returns the inventory scope of the user.
func (u *User) Scope() (inventory.Scope, error) {
	switch {
	case u.IsSuperuser:
		return inventory.AllClients(), nil
	case u.ClientID != nil:
		return inventory.ClientScope(*u.ClientID), nil
	}
	return inventory.Scope{}, ErrNotApproved
}

// IsLocked reports whether the account is locked at time now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// Credentials holds the password of a user.
type Credentials struct {
	UserID       int64     `db:"user_id"`
	PasswordHash string    `db:"password_hash"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a user together with its credentials
	Create(ctx context.Context, user *User, credentials *Credentials) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByUsername retrieves a user by its unique username
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetCredentials retrieves user credentials
	GetCredentials(ctx context.Context, userID int64) (*Credentials, error)

	// UpdateLockout updates user lockout status
	UpdateLockout(ctx context.Context, userID int64, failedAttempts int, lockedUntil *time.Time) error

	// SetClient assigns the user to a client
	SetClient(ctx context.Context, userID, clientID int64) error

	// SetSuperuser grants or revokes superuser status
	SetSuperuser(ctx context.Context, userID int64, superuser bool) error
}
