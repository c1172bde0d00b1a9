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

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/internalize/internalize/internal/account"
)

// UserRepository implements account.UserRepository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, client_id, is_superuser,
	failed_login_attempts, locked_until, created_at, updated_at`

// Create creates a new user with its credentials
func (r *UserRepository) Create(ctx context.Context, user *account.User, credentials *account.Credentials) error {
	now := time.Now()
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (username, email, client_id, is_superuser, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			RETURNING id
		`, user.Username, user.Email, user.ClientID, user.IsSuperuser, now).Scan(&user.ID)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", mapError(err))
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO user_credentials (user_id, password_hash, updated_at)
			VALUES ($1, $2, $3)
		`, user.ID, credentials.PasswordHash, now)
		if err != nil {
			return fmt.Errorf("failed to insert credentials: %w", mapError(err))
		}

		user.CreatedAt = now
		user.UpdatedAt = now
		credentials.UserID = user.ID
		credentials.UpdatedAt = now
		return nil
	})
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*account.User, error) {
	return r.getBy(ctx, "id = $1", id)
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*account.User, error) {
	return r.getBy(ctx, "username = $1", username)
}

func (r *UserRepository) getBy(ctx context.Context, where string, arg any) (*account.User, error) {
	var user account.User
	if err := r.db.get(ctx, &user, `SELECT `+userColumns+` FROM users WHERE `+where, arg); err != nil {
		if notFound(err) {
			return nil, account.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetCredentials retrieves user credentials
func (r *UserRepository) GetCredentials(ctx context.Context, userID int64) (*account.Credentials, error) {
	var creds account.Credentials
	err := r.db.get(ctx, &creds, `
		SELECT user_id, password_hash, updated_at
		FROM user_credentials
		WHERE user_id = $1
	`, userID)
	if err != nil {
		if notFound(err) {
			return nil, account.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	return &creds, nil
}

// UpdateLockout updates user lockout status
func (r *UserRepository) UpdateLockout(ctx context.Context, userID int64, failedAttempts int, lockedUntil *time.Time) error {
	return r.update(ctx, `
		UPDATE users SET failed_login_attempts = $2, locked_until = $3, updated_at = now()
		WHERE id = $1
	`, userID, failedAttempts, lockedUntil)
}

// SetClient assigns the user to a client
func (r *UserRepository) SetClient(ctx context.Context, userID, clientID int64) error {
	return r.update(ctx, `UPDATE users SET client_id = $2, updated_at = now() WHERE id = $1`, userID, clientID)
}

// SetSuperuser grants or revokes superuser status
func (r *UserRepository) SetSuperuser(ctx context.Context, userID int64, superuser bool) error {
	return r.update(ctx, `UPDATE users SET is_superuser = $2, updated_at = now() WHERE id = $1`, userID, superuser)
}

func (r *UserRepository) update(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return account.ErrUserNotFound
	}
	return nil
}
