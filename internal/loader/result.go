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

package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/internalize/internalize/internal/inventory"
)

// Error kinds reported for rejected rows
const (
	KindIntegrity = "integrity"
	KindInvalid   = "invalid"
)

// RowError is a rejected row of the "cis" sheet.
type RowError struct {
	Row    int // sheet row number, header is row 1
	Values []string
	Err    error
}

// Message returns the error text shown to the user.
func (e RowError) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Kind classifies the rejection.
func (e RowError) Kind() string {
	if errors.Is(e.Err, inventory.ErrIntegrity) {
		return KindIntegrity
	}
	return KindInvalid
}

func (e RowError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Row    int      `json:"row"`
		Values []string `json:"values"`
		Error  string   `json:"error"`
		Kind   string   `json:"kind"`
	}{e.Row, e.Values, e.Message(), e.Kind()})
}

// Result is the outcome of one run. Both lists follow sheet order.
type Result struct {
	RunID      uuid.UUID       `json:"run_id"`
	ClientID   int64           `json:"client_id"`
	Created    []*inventory.CI `json:"created"`
	Errors     []RowError      `json:"errors"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

var timeNow = func() time.Time { return time.Now().UTC() }

func newResult(clientID int64) *Result {
	return &Result{
		RunID:     uuid.New(),
		ClientID:  clientID,
		Created:   []*inventory.CI{},
		Errors:    []RowError{},
		StartedAt: timeNow(),
	}
}

// Attempted is the number of non-blank rows processed.
func (r *Result) Attempted() int {
	return len(r.Created) + len(r.Errors)
}

func (r *Result) Succeeded() int {
	return len(r.Created)
}

func (r *Result) Failed() int {
	return len(r.Errors)
}

// Duration of the run, zero while it is in progress.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary renders the counts the way they are reported to the uploader.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d items loaded, %d rows failed", r.Succeeded(), r.Failed())
}
