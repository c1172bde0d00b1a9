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
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var ciHeader = []string{
	"hostname", "ip", "description", "deployed", "business_impact",
	"place", "place_description", "contract", "contract_begin", "contract_end",
	"contract_description", "username", "password", "enable_password", "instructions",
}

var applianceHeader = []string{"ci_hostname", "serial_number", "manufacturer", "model", "virtual"}

// baseCI is the router_sp row; the other fixture rows are variations of it.
func baseCI() []string {
	return []string{
		"router_sp", "172.16.5.10", "Main Router", "x", "high",
		"SP", "Center", "SP-001", "2021-01-01", "2022-01-01",
		"Contract Details", "admin", "admin", "enable", "Instructions",
	}
}

func withCells(row []string, changes map[int]string) []string {
	out := append([]string(nil), row...)
	for i, v := range changes {
		out[i] = v
	}
	return out
}

// fixtureCIs returns five CI rows over four places and four contracts.
func fixtureCIs() [][]string {
	base := baseCI()
	return [][]string{
		base,
		withCells(base, map[int]string{0: "router_bh", 1: "172.16.6.10", 5: "BH", 7: "BH-001"}),
		withCells(base, map[int]string{0: "wlc1", 1: "172.16.10.10", 2: "Controller Floor 1", 5: "NY1", 6: "Main", 7: "NY-001"}),
		withCells(base, map[int]string{0: "wlc2", 1: "172.16.10.11", 2: "Controller Floor 2", 5: "NY2", 6: "Secondary", 7: "NY-002"}),
		withCells(base, map[int]string{0: "fw", 1: "10.10.20.20", 2: "Firewall"}),
	}
}

// fixtureAppliances returns six appliance rows from two manufacturers.
func fixtureAppliances() [][]string {
	return [][]string{
		{"wlc1", "FOX123", "Cisco", "3560", "x"},
		{"wlc1", "FOX124", "Cisco", "3560", "x"},
		{"wlc2", "FOX125", "Cisco", "3560", "x"},
		{"router_sp", "TYF987", "Cisco", "2960", "x"},
		{"router_bh", "TYF654", "Cisco", "2960", "x"},
		{"fw", "687F", "F5", "BIG-IP", ""},
	}
}

// buildWorkbook writes an .xlsx with both sheets and a header row on each.
func buildWorkbook(t *testing.T, cis, appliances [][]string) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", SheetCIs))
	_, err := f.NewSheet(SheetAppliances)
	require.NoError(t, err)

	writeSheet(t, f, SheetCIs, ciHeader, cis)
	writeSheet(t, f, SheetAppliances, applianceHeader, appliances)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func writeSheet(t *testing.T, f *excelize.File, sheet string, header []string, rows [][]string) {
	t.Helper()
	all := append([][]string{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		require.NoError(t, f.SetSheetRow(sheet, cell, &values))
	}
}

func sheetRows(rows [][]string) []SheetRow {
	out := make([]SheetRow, len(rows))
	for i, cells := range rows {
		out[i] = SheetRow{Number: i + 2, Cells: cells}
	}
	return out
}
