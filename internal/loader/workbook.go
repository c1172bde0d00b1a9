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
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet names
const (
	SheetCIs        = "cis"
	SheetAppliances = "appliances"
)

var (
	ErrInvalidWorkbook = errors.New("invalid workbook")
	ErrSheetNotFound   = errors.New("sheet not found")
)

// SheetRow is a data row together with its 1-based row number in the sheet.
type SheetRow struct {
	Number int
	Cells  []string
}

// Cell returns the trimmed value at a zero-based column, or "" past the end.
func (r SheetRow) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[i])
}

// Blank reports whether every cell of the row is empty.
func (r SheetRow) Blank() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Workbook holds the data rows of both sheets, header rows excluded.
type Workbook struct {
	CIs        []SheetRow
	Appliances []SheetRow
}

// ReadWorkbook parses an .xlsx document. Both sheets must exist; the first row
// of each is a header and is skipped.
func ReadWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	cis, err := readSheet(f, SheetCIs)
	if err != nil {
		return nil, err
	}
	appliances, err := readSheet(f, SheetAppliances)
	if err != nil {
		return nil, err
	}
	return &Workbook{CIs: cis, Appliances: appliances}, nil
}

func readSheet(f *excelize.File, name string) ([]SheetRow, error) {
	idx, err := f.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}

	// Raw values keep dates as serial numbers instead of locale-formatted text.
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %w", ErrInvalidWorkbook, name, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	out := make([]SheetRow, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		out = append(out, SheetRow{Number: i + 2, Cells: cells})
	}
	return out, nil
}
