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
	"net/netip"
	"time"

	"github.com/internalize/internalize/internal/inventory"
)

var (
	ErrContractDates = errors.New("contract needs begin and end dates")
	ErrContractRange = errors.New("contract ends before it begins")
	ErrZonedAddress  = errors.New("ip address must not carry a zone")
)

// CIRow is one data row of the "cis" sheet.
type CIRow struct {
	Hostname            string                   `col:"0,required"`
	IP                  netip.Addr               `col:"1,required"`
	Description         string                   `col:"2"`
	Deployed            bool                     `col:"3"`
	BusinessImpact      inventory.BusinessImpact `col:"4,required" name:"business_impact"`
	Place               string                   `col:"5,required"`
	PlaceDescription    string                   `col:"6" name:"place_description"`
	Contract            string                   `col:"7"`
	ContractBegin       *time.Time               `col:"8" name:"contract_begin"`
	ContractEnd         *time.Time               `col:"9" name:"contract_end"`
	ContractDescription string                   `col:"10" name:"contract_description"`
	Username            string                   `col:"11"`
	Password            string                   `col:"12"`
	EnablePassword      string                   `col:"13" name:"enable_password"`
	Instructions        string                   `col:"14"`
}

// Validate checks the rules that span more than one column.
func (r *CIRow) Validate() error {
	if r.IP.Zone() != "" {
		return invalid(&DecodeError{Column: 1, Field: "ip", Value: r.IP.String(), Err: ErrZonedAddress})
	}
	if r.Contract == "" {
		return nil
	}
	if r.ContractBegin == nil || r.ContractEnd == nil {
		return invalid(&DecodeError{Column: 8, Field: "contract_begin", Err: ErrContractDates})
	}
	if r.ContractEnd.Before(*r.ContractBegin) {
		return invalid(&DecodeError{Column: 9, Field: "contract_end", Err: ErrContractRange})
	}
	return nil
}

// HasContract reports whether the row references a contract.
func (r *CIRow) HasContract() bool {
	return r.Contract != ""
}

// Credentials returns the credential columns of the row.
func (r *CIRow) Credentials() inventory.Credentials {
	return inventory.Credentials{
		Username:       r.Username,
		Password:       r.Password,
		EnablePassword: r.EnablePassword,
		Instructions:   r.Instructions,
	}
}

// ApplianceRow is one data row of the "appliances" sheet.
type ApplianceRow struct {
	Hostname     string `col:"0,required"`
	SerialNumber string `col:"1,required" name:"serial_number"`
	Manufacturer string `col:"2"`
	Model        string `col:"3"`
	Virtual      bool   `col:"4"`
}

// applianceEntry keeps a decoded appliance row, or the reason it could not be
// decoded, under its sheet row number.
type applianceEntry struct {
	number int
	row    ApplianceRow
	err    error
}

// indexAppliances groups the appliance rows by the raw hostname cell, keeping
// sheet order inside each group. Rows without a hostname cannot match any CI
// and are dropped.
func indexAppliances(rows []SheetRow) map[string][]applianceEntry {
	index := make(map[string][]applianceEntry)
	for _, r := range rows {
		if r.Blank() {
			continue
		}
		hostname := r.Cell(0)
		if hostname == "" {
			continue
		}
		decoded, err := Decode[ApplianceRow](r.Cells)
		index[hostname] = append(index[hostname], applianceEntry{number: r.Number, row: decoded, err: err})
	}
	return index
}
