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

package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Event types
const (
	TypeLoginSuccess     = "login_success"
	TypeLoginFailed      = "login_failed"
	TypeLogout           = "logout"
	TypeUserRegistered   = "user_registered"
	TypeUserLocked       = "user_locked"
	TypeUserApproved     = "user_approved"
	TypeSuperuserCreated = "superuser_bootstrap"
	TypeClientCreated    = "client_created"
	TypePlaceCreated     = "place_created"
	TypePlaceUpdated     = "place_updated"
	TypeApplianceCreated = "appliance_created"
	TypeApplianceUpdated = "appliance_updated"
	TypeCICreated        = "ci_created"
	TypeCIUpload         = "ci_upload"
	TypePackSent         = "pack_sent"
	TypePackApproved     = "pack_approved"
	TypeCIsApproved      = "cis_approved"
)

// Metadata keys
const (
	AttrReason   = "reason"
	AttrAttempts = "attempts"
	AttrUsername = "username"
	AttrRunID    = "run_id"
	AttrCreated  = "created"
	AttrFailed   = "failed"
	AttrCIIDs    = "ci_ids"
	AttrUserID   = "user_id"
)

// ActorSystem marks events raised by the service itself (bootstrap, CLI loads).
const ActorSystem int64 = 0

// Event represents an auditable action
type Event struct {
	Type      string
	ClientID  int64
	ActorID   int64
	Resource  string
	Metadata  map[string]any
	Timestamp time.Time
	IPAddress string
	UserAgent string
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using slog
type SlogLogger struct{}

// NewSlogLogger creates a new audit logger
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.Int64("client_id", event.ClientID),
		slog.Int64("actor_id", event.ActorID),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
	}

	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}

	if len(event.Metadata) > 0 {
		group := []any{}
		for k, v := range event.Metadata {
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	slog.InfoContext(ctx, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
}

var secretFragments = []string{"password", "secret", "token", "key", "authorization", "hash", "credential"}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	key = strings.ToLower(key)
	for _, s := range secretFragments {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}
