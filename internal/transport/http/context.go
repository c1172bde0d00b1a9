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

package http

import (
	"context"

	"github.com/internalize/internalize/internal/account"
	"github.com/internalize/internalize/internal/inventory"
)

type contextKey string

const (
	userKey      contextKey = "user"
	sessionIDKey contextKey = "session_id"
)

// GetUser retrieves the authenticated user from context.
func GetUser(ctx context.Context) *account.User {
	if val, ok := ctx.Value(userKey).(*account.User); ok {
		return val
	}
	return nil
}

// GetUserID retrieves the authenticated user ID from context, 0 when anonymous.
func GetUserID(ctx context.Context) int64 {
	if u := GetUser(ctx); u != nil {
		return u.ID
	}
	return 0
}

// GetSessionID retrieves the Session ID from context.
func GetSessionID(ctx context.Context) string {
	if val, ok := ctx.Value(sessionIDKey).(string); ok {
		return val
	}
	return ""
}

// GetScope returns the inventory scope of the authenticated user. Routes
// behind RequireApproved always have one.
func GetScope(ctx context.Context) (inventory.Scope, error) {
	u := GetUser(ctx)
	if u == nil {
		return inventory.Scope{}, account.ErrNotApproved
	}
	return u.Scope()
}
