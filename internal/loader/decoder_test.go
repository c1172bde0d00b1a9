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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/internalize/internalize/internal/inventory"
)

// TestPurpose: Validates decoding of a complete CI row into typed fields.
// Scope: Unit Test
// Expected: Every column lands in its field with the right type.
// Test Case ID: LDR-01
func TestDecode_CIRow(t *testing.T) {
	row, err := Decode[CIRow](baseCI())
	require.NoError(t, err)

	assert.Equal(t, "router_sp", row.Hostname)
	assert.Equal(t, "172.16.5.10", row.IP.String())
	assert.Equal(t, "Main Router", row.Description)
	assert.True(t, row.Deployed)
	assert.Equal(t, inventory.ImpactHigh, row.BusinessImpact)
	assert.Equal(t, "SP", row.Place)
	assert.Equal(t, "Center", row.PlaceDescription)
	assert.Equal(t, "SP-001", row.Contract)
	require.NotNil(t, row.ContractBegin)
	require.NotNil(t, row.ContractEnd)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), *row.ContractBegin)
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), *row.ContractEnd)
	assert.Equal(t, inventory.Credentials{
		Username:       "admin",
		Password:       "admin",
		EnablePassword: "enable",
		Instructions:   "Instructions",
	}, row.Credentials())
	assert.NoError(t, row.Validate())
}

// TestPurpose: Validates checkbox-style truthiness of flag cells.
// Scope: Unit Test
// Expected: Blank and spelled-out negatives are false, any other mark is true.
// Test Case ID: LDR-02
func TestDecode_Truthiness(t *testing.T) {
	tests := []struct {
		cell string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"0", false},
		{"false", false},
		{"No", false},
		{"n", false},
		{"x", true},
		{"X", true},
		{"1", true},
		{"TRUE", true},
		{"yes", true},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			row, err := Decode[ApplianceRow]([]string{"fw", "687F", "F5", "BIG-IP", tt.cell})
			require.NoError(t, err)
			assert.Equal(t, tt.want, row.Virtual)
		})
	}
}

// TestPurpose: Validates that business impact labels are case-insensitive and
// unknown labels reject the row.
// Scope: Unit Test
// Expected: High/high/HIGH decode alike; "critical" and numeric levels yield ErrInvalidRow.
// Test Case ID: LDR-03
func TestDecode_BusinessImpact(t *testing.T) {
	for _, label := range []string{"High", "high", "HIGH"} {
		row, err := Decode[CIRow](withCells(baseCI(), map[int]string{4: label}))
		require.NoError(t, err, label)
		assert.Equal(t, inventory.ImpactHigh, row.BusinessImpact, label)
	}

	_, err := Decode[CIRow](withCells(baseCI(), map[int]string{4: "critical"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRow)
	assert.ErrorIs(t, err, inventory.ErrUnknownBusinessImpact)

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 4, de.Column)
	assert.Equal(t, "business_impact", de.Field)
	assert.Contains(t, err.Error(), "column E")

	for _, level := range []string{"0", "2", " 1 "} {
		_, err := Decode[CIRow](withCells(baseCI(), map[int]string{4: level}))
		assert.ErrorIs(t, err, ErrInvalidRow, level)
		assert.ErrorIs(t, err, inventory.ErrUnknownBusinessImpact, level)
	}
}

// TestPurpose: Validates rejection of rows that do not fit the column schema.
// Scope: Unit Test
// Expected: Missing required cells, bad values and extra cells yield ErrInvalidRow.
// Test Case ID: LDR-04
func TestDecode_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		cells   []string
		wantErr error
	}{
		{"missing hostname", withCells(baseCI(), map[int]string{0: ""}), ErrMissingValue},
		{"missing ip", withCells(baseCI(), map[int]string{1: " "}), ErrMissingValue},
		{"missing place", withCells(baseCI(), map[int]string{5: ""}), ErrMissingValue},
		{"bad date", withCells(baseCI(), map[int]string{8: "someday"}), ErrInvalidDate},
		{"extra column", append(baseCI(), "surplus"), ErrUnexpectedValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode[CIRow](tt.cells)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRow)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("bad ip", func(t *testing.T) {
		_, err := Decode[CIRow](withCells(baseCI(), map[int]string{1: "300.1.1.1"}))
		assert.ErrorIs(t, err, ErrInvalidRow)
	})
}

// TestPurpose: Validates that short rows are padded and trailing blanks ignored.
// Scope: Unit Test
// Expected: Optional columns default to zero values.
// Test Case ID: LDR-05
func TestDecode_ShortAndPaddedRows(t *testing.T) {
	row, err := Decode[CIRow]([]string{"sw1", "10.0.0.1", "", "", "low", "HQ"})
	require.NoError(t, err)
	assert.Equal(t, "sw1", row.Hostname)
	assert.False(t, row.Deployed)
	assert.Equal(t, inventory.ImpactLow, row.BusinessImpact)
	assert.False(t, row.HasContract())
	assert.Nil(t, row.ContractBegin)
	assert.NoError(t, row.Validate())

	_, err = Decode[ApplianceRow]([]string{"sw1", "SN1", "", "", "", "", "  "})
	assert.NoError(t, err)
}

// TestPurpose: Validates the date formats accepted for contract columns.
// Scope: Unit Test
// Expected: ISO dates, US dates and Excel serial numbers resolve to the same day.
// Test Case ID: LDR-06
func TestParseDate(t *testing.T) {
	want := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2021-01-01", "2021-01-01 00:00:00", "01/01/2021", "44197"} {
		got, err := parseDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := parseDate("tomorrow")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

// TestPurpose: Validates the contract rules spanning several columns.
// Scope: Unit Test
// Expected: A named contract needs both dates and must not end before it begins;
// a zoned IPv6 address is rejected.
// Test Case ID: LDR-07
func TestCIRow_Validate(t *testing.T) {
	row, err := Decode[CIRow](withCells(baseCI(), map[int]string{9: ""}))
	require.NoError(t, err)
	err = row.Validate()
	assert.ErrorIs(t, err, ErrInvalidRow)
	assert.ErrorIs(t, err, ErrContractDates)

	row, err = Decode[CIRow](withCells(baseCI(), map[int]string{8: "2023-01-01"}))
	require.NoError(t, err)
	err = row.Validate()
	assert.ErrorIs(t, err, ErrInvalidRow)
	assert.ErrorIs(t, err, ErrContractRange)

	row, err = Decode[CIRow](withCells(baseCI(), map[int]string{1: "fe80::1%eth0"}))
	require.NoError(t, err)
	err = row.Validate()
	assert.ErrorIs(t, err, ErrInvalidRow)
	assert.ErrorIs(t, err, ErrZonedAddress)

	row, err = Decode[CIRow](withCells(baseCI(), map[int]string{1: "fe80::1"}))
	require.NoError(t, err)
	assert.NoError(t, row.Validate())
}
