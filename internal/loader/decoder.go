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
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/internalize/internalize/internal/inventory"
)

// Decoding errors
var (
	ErrInvalidRow      = errors.New("invalid row")
	ErrMissingValue    = errors.New("value is required")
	ErrUnexpectedValue = errors.New("value outside of the sheet columns")
	ErrInvalidDate     = errors.New("invalid date")
)

// DecodeError points at the cell that could not be decoded.
type DecodeError struct {
	Column int // zero-based
	Field  string
	Value  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("column %s (%s): %v", columnName(e.Column), e.Field, e.Err)
	}
	return fmt.Sprintf("column %s (%s): %q: %v", columnName(e.Column), e.Field, e.Value, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// columnName renders a zero-based index as a spreadsheet column letter.
func columnName(index int) string {
	name, err := excelize.ColumnNumberToName(index + 1)
	if err != nil {
		return strconv.Itoa(index)
	}
	return name
}

type column struct {
	field    int
	index    int
	name     string
	required bool
}

type schema struct {
	columns []column
	width   int
}

var schemas sync.Map // reflect.Type -> *schema

// schemaOf compiles the `col:"<index>[,required]"` tags of a row struct.
func schemaOf(t reflect.Type) (*schema, error) {
	if s, ok := schemas.Load(t); ok {
		return s.(*schema), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("loader: row type %s is not a struct", t)
	}

	s := &schema{}
	seen := map[int]string{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup("col")
		if !ok || tag == "-" {
			continue
		}
		parts := strings.Split(tag, ",")
		index, err := strconv.Atoi(parts[0])
		if err != nil || index < 0 {
			return nil, fmt.Errorf("loader: bad col tag %q on %s.%s", tag, t.Name(), f.Name)
		}
		if other, dup := seen[index]; dup {
			return nil, fmt.Errorf("loader: column %d mapped twice (%s, %s)", index, other, f.Name)
		}
		seen[index] = f.Name
		c := column{field: i, index: index, name: fieldName(f)}
		for _, opt := range parts[1:] {
			if opt == "required" {
				c.required = true
			}
		}
		s.columns = append(s.columns, c)
		if index+1 > s.width {
			s.width = index + 1
		}
	}

	actual, _ := schemas.LoadOrStore(t, s)
	return actual.(*schema), nil
}

func fieldName(f reflect.StructField) string {
	if name := f.Tag.Get("name"); name != "" {
		return name
	}
	return strings.ToLower(f.Name)
}

// Decode maps one sheet row onto a tagged row struct. Short rows are padded
// with blanks; non-blank cells past the last declared column, blank required
// cells and cells that do not parse reject the row with ErrInvalidRow.
func Decode[T any](cells []string) (T, error) {
	var row T
	s, err := schemaOf(reflect.TypeOf(row))
	if err != nil {
		return row, err
	}

	for i := s.width; i < len(cells); i++ {
		if v := strings.TrimSpace(cells[i]); v != "" {
			return row, invalid(&DecodeError{Column: i, Field: "-", Value: v, Err: ErrUnexpectedValue})
		}
	}

	rv := reflect.ValueOf(&row).Elem()
	for _, c := range s.columns {
		raw := ""
		if c.index < len(cells) {
			raw = strings.TrimSpace(cells[c.index])
		}
		if raw == "" && c.required {
			return row, invalid(&DecodeError{Column: c.index, Field: c.name, Err: ErrMissingValue})
		}
		if err := setCell(rv.Field(c.field), raw); err != nil {
			return row, invalid(&DecodeError{Column: c.index, Field: c.name, Value: raw, Err: err})
		}
	}
	return row, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidRow, err)
}

var (
	timeType        = reflect.TypeOf(time.Time{})
	unmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// cellParsers take precedence over TextUnmarshaler for types whose sheet
// form is narrower than their API form.
var cellParsers = map[reflect.Type]func(raw string) (any, error){
	reflect.TypeOf(inventory.BusinessImpact(0)): parseImpactLabel,
}

// parseImpactLabel accepts the labels low, medium and high only. Numeric
// levels are valid in the API but not in a workbook.
func parseImpactLabel(raw string) (any, error) {
	impact, ok := inventory.ParseBusinessImpact(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %q", inventory.ErrUnknownBusinessImpact, raw)
	}
	return impact, nil
}

func setCell(v reflect.Value, raw string) error {
	if parse, ok := cellParsers[v.Type()]; ok {
		if raw == "" {
			return nil
		}
		val, err := parse(raw)
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(val))
		return nil
	}

	switch {
	case v.Type() == timeType:
		if raw == "" {
			return nil
		}
		t, err := parseDate(raw)
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(t))
		return nil
	case v.Kind() == reflect.Pointer && v.Type().Elem() == timeType:
		if raw == "" {
			return nil
		}
		t, err := parseDate(raw)
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(&t))
		return nil
	case reflect.PointerTo(v.Type()).Implements(unmarshalerType):
		if raw == "" {
			return nil
		}
		return v.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw))
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		v.SetBool(truthy(raw))
	default:
		return fmt.Errorf("unsupported field type %s", v.Type())
	}
	return nil
}

// truthy follows checkbox semantics: any mark counts unless it spells out a
// negative.
func truthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false", "no", "n":
		return false
	}
	return true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"1/2/06",
	"01-02-06",
}

// parseDate accepts the text layouts spreadsheets commonly produce as well as
// raw Excel serial day numbers.
func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return truncateDay(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return truncateDay(t), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
