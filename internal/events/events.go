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

// Package events publishes inventory notifications on NATS JetStream.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Stream and subjects
const (
	StreamName = "CIS"

	SubjectUploadCompleted = "cis.upload.completed"
	SubjectPackSent        = "cis.pack.sent"
	SubjectPackApproved    = "cis.pack.approved"
)

// Publisher sends an event encoded as JSON.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
}

// UploadCompleted is published after every upload run.
type UploadCompleted struct {
	RunID      uuid.UUID `json:"run_id"`
	ClientID   int64     `json:"client_id"`
	Created    int       `json:"created"`
	Failed     int       `json:"failed"`
	Aborted    bool      `json:"aborted"`
	ArchiveKey string    `json:"archive_key,omitempty"`
	At         time.Time `json:"at"`
}

// PackSent is published when CIs are sent for approval.
type PackSent struct {
	PackID        int64     `json:"pack_id"`
	ClientID      int64     `json:"client_id"`
	ResponsibleID int64     `json:"responsible_id"`
	CIIDs         []int64   `json:"ci_ids"`
	At            time.Time `json:"at"`
}

// PackApproved is published when a superuser approves a pack.
type PackApproved struct {
	PackID     int64     `json:"pack_id"`
	ClientID   int64     `json:"client_id"`
	ApprovedBy int64     `json:"approved_by"`
	At         time.Time `json:"at"`
}

// Noop drops every event. It is used when no NATS server is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
