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

package main

import (
	"github.com/internalize/internalize/internal/account"
	"github.com/internalize/internalize/internal/audit"
	"github.com/internalize/internalize/internal/config"
	"github.com/internalize/internalize/internal/store/postgres"
)

func newAccountService(cfg *config.Config, db *postgres.DB, auditLogger audit.Logger) *account.Service {
	hasher := account.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)
	return account.NewService(
		postgres.NewUserRepository(db),
		postgres.NewClientRepository(db),
		hasher,
		auditLogger,
		cfg.Security.LockoutMaxAttempts,
		cfg.Security.LockoutDuration,
	)
}
