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

package inventory

import "errors"

// ErrIntegrity matches any storage integrity violation (SQLSTATE class 23).
var ErrIntegrity = errors.New("integrity violation")

// Integrity violation codes
const (
	CodeNotNullViolation    = "23502"
	CodeForeignKeyViolation = "23503"
	CodeUniqueViolation     = "23505"
	CodeCheckViolation      = "23514"
)

// IntegrityError carries the storage error that broke a constraint.
// errors.Is(err, ErrIntegrity) holds for every IntegrityError.
type IntegrityError struct {
	Code       string
	Constraint string
	Err        error
}

func (e *IntegrityError) Error() string {
	if e.Err == nil {
		return ErrIntegrity.Error() + ": " + e.Constraint
	}
	return e.Err.Error()
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// IsUniqueViolation reports whether err is a duplicate-key violation.
func IsUniqueViolation(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie) && ie.Code == CodeUniqueViolation
}
