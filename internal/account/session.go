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
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Session represents a logged in browser
type Session struct {
	ID         string    `db:"id"`
	UserID     int64     `db:"user_id"`
	IPAddress  string    `db:"ip_address"`
	UserAgent  string    `db:"user_agent"`
	ExpiresAt  time.Time `db:"expires_at"`
	CreatedAt  time.Time `db:"created_at"`
	LastSeenAt time.Time `db:"last_seen_at"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsIdle checks if the session has been idle for too long
func (s *Session) IsIdle(now time.Time, idleTimeout time.Duration) bool {
	return idleTimeout > 0 && now.Sub(s.LastSeenAt) > idleTimeout
}

// SessionRepository defines the interface for session persistence
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Touch updates the last seen time of a session
	Touch(ctx context.Context, sessionID string, lastSeenAt time.Time) error

	Delete(ctx context.Context, sessionID string) error

	// DeleteExpired removes every session expired at now and reports how many
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionService manages session lifetimes
type SessionService struct {
	repo        SessionRepository
	lifetime    time.Duration
	idleTimeout time.Duration
	now         func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(repo SessionRepository, lifetime, idleTimeout time.Duration) *SessionService {
	return &SessionService{
		repo:        repo,
		lifetime:    lifetime,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Create opens a session for userID
func (s *SessionService) Create(ctx context.Context, userID int64, ipAddress, userAgent string) (*Session, error) {
	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		ExpiresAt:  now.Add(s.lifetime),
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// Get returns a live session. Expired and idle sessions are deleted and
// reported as ErrSessionExpired.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if sess.IsExpired(now) || sess.IsIdle(now, s.idleTimeout) {
		_ = s.repo.Delete(ctx, sessionID)
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// Refresh records activity on a session
func (s *SessionService) Refresh(ctx context.Context, sess *Session) error {
	now := s.now()
	if err := s.repo.Touch(ctx, sess.ID, now); err != nil {
		return fmt.Errorf("failed to refresh session: %w", err)
	}
	sess.LastSeenAt = now
	return nil
}

// Destroy ends a session
func (s *SessionService) Destroy(ctx context.Context, sessionID string) error {
	return s.repo.Delete(ctx, sessionID)
}

// CleanupExpired purges expired sessions
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

// Lifetime returns the maximum session age, used for cookie expiry
func (s *SessionService) Lifetime() time.Duration {
	return s.lifetime
}
