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

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownBusinessImpact = errors.New("unknown business impact")
	ErrUnknownStatus         = errors.New("unknown status")
)

// BusinessImpact ranks how much a client depends on a CI.
type BusinessImpact int16

const (
	ImpactLow BusinessImpact = iota
	ImpactMedium
	ImpactHigh
)

var businessImpactLabels = map[string]BusinessImpact{
	"low":    ImpactLow,
	"medium": ImpactMedium,
	"high":   ImpactHigh,
}

// ParseBusinessImpact looks a label up case-insensitively. The second result
// is false for labels outside low/medium/high.
func ParseBusinessImpact(label string) (BusinessImpact, bool) {
	impact, ok := businessImpactLabels[strings.ToLower(strings.TrimSpace(label))]
	return impact, ok
}

func (b BusinessImpact) String() string {
	switch b {
	case ImpactLow:
		return "low"
	case ImpactMedium:
		return "medium"
	case ImpactHigh:
		return "high"
	}
	return "BusinessImpact(" + strconv.Itoa(int(b)) + ")"
}

// Valid reports whether b is one of the declared levels.
func (b BusinessImpact) Valid() bool {
	return b >= ImpactLow && b <= ImpactHigh
}

func (b BusinessImpact) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBusinessImpact, b)
	}
	return []byte(b.String()), nil
}

// UnmarshalText accepts a label ("High") or its numeric level ("2").
func (b *BusinessImpact) UnmarshalText(text []byte) error {
	s := string(text)
	if impact, ok := ParseBusinessImpact(s); ok {
		*b = impact
		return nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && BusinessImpact(n).Valid() {
		*b = BusinessImpact(n)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownBusinessImpact, s)
}

// Status is the lifecycle of a CI in the pack workflow.
type Status int16

const (
	StatusCreated Status = iota
	StatusSent
	StatusApproved
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusSent:
		return "sent"
	case StatusApproved:
		return "approved"
	}
	return "Status(" + strconv.Itoa(int(s)) + ")"
}

func (s Status) Valid() bool {
	return s >= StatusCreated && s <= StatusApproved
}

// ParseStatus accepts either the numeric code ("0") or the name ("created").
func ParseStatus(v string) (Status, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if n, err := strconv.Atoi(v); err == nil {
		if s := Status(n); s.Valid() {
			return s, nil
		}
		return 0, fmt.Errorf("%w: %s", ErrUnknownStatus, v)
	}
	for _, s := range []Status{StatusCreated, StatusSent, StatusApproved} {
		if s.String() == v {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownStatus, v)
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, s)
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
