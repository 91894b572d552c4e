// Copyright 2025 venslabs
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

package outputhandler

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/venslabs/fossmerge/pkg/compare"
)

// CompareSheet is the worksheet holding a comparison.
const CompareSheet = "BOM_compare"

type xlsxOutputHandler struct {
	w    io.Writer
	rows []Row
}

// NewXLSXOutputHandler returns an OutputHandler writing a one-sheet workbook.
// A comparison without differences produces a single Same row.
func NewXLSXOutputHandler(w io.Writer) OutputHandler {
	return &xlsxOutputHandler{w: w}
}

func (h *xlsxOutputHandler) HandleComparison(res *compare.Result) error {
	h.rows = append(h.rows, Rows(res)...)
	return nil
}

func (h *xlsxOutputHandler) Close() error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName(f.GetSheetName(0), CompareSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(CompareSheet, "A1", &Header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(CompareSheet, "A1", last, bold); err != nil {
		return err
	}

	rows := h.rows
	if len(rows) == 0 {
		rows = []Row{SameRow}
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		cells := r.Cells()
		if err := f.SetSheetRow(CompareSheet, cell, &cells); err != nil {
			return err
		}
	}
	return f.Write(h.w)
}
