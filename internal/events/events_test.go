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

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates the wire form of upload events.
// Scope: Unit Test
// Expected: Field names are snake_case and the archive key is omitted when empty.
// Test Case ID: EVT-01
func TestUploadCompleted_JSON(t *testing.T) {
	runID := uuid.MustParse("0190d6a2-7c1e-7000-8000-000000000001")
	out, err := json.Marshal(UploadCompleted{
		RunID:    runID,
		ClientID: 3,
		Created:  5,
		Failed:   2,
		At:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"run_id": "0190d6a2-7c1e-7000-8000-000000000001",
		"client_id": 3,
		"created": 5,
		"failed": 2,
		"aborted": false,
		"at": "2026-01-02T03:04:05Z"
	}`, string(out))
}

// TestPurpose: Validates publishing without a NATS connection.
// Scope: Unit Test
// Expected: Noop accepts events; a nil Bus reports ErrNilBus instead of panicking.
// Test Case ID: EVT-02
func TestPublishers_WithoutServer(t *testing.T) {
	ctx := context.Background()
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(ctx, SubjectPackSent, PackSent{PackID: 1}))

	var b *Bus
	assert.ErrorIs(t, b.Publish(ctx, SubjectPackSent, PackSent{}), ErrNilBus)
	assert.ErrorIs(t, b.EnsureStream(ctx), ErrNilBus)
	assert.NotPanics(t, b.Close)
}
