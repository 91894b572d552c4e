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

package reportwriter

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/venslabs/fossmerge/pkg/api/types"
	"github.com/venslabs/fossmerge/pkg/inventory"
)

// ScannerInfoSheet holds the cover of the run.
const ScannerInfoSheet = "Scanner Info"

var reportHeader = []string{
	"ID",
	"Source Name or Path",
	inventory.ColumnOSSName,
	inventory.ColumnOSSVersion,
	inventory.ColumnLicense,
	inventory.ColumnDownloadLocation,
	inventory.ColumnHomepage,
	inventory.ColumnCopyrightText,
	inventory.ColumnExclude,
	inventory.ColumnComment,
}

const excludeMark = "Exclude"

// writeXLSX writes one sheet per category, one row per component, and a
// Scanner Info sheet. A finding without components still gets a row so that
// the scanned path shows up.
func writeXLSX(w io.Writer, agg *types.ScanAggregate, opts Options) error {
	agg = visible(agg, opts)

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	first := f.GetSheetName(0)
	renamed := false
	addSheet := func(name string) error {
		if !renamed {
			renamed = true
			return f.SetSheetName(first, name)
		}
		_, err := f.NewSheet(name)
		return err
	}

	for _, c := range agg.Categories() {
		sheet := c.SheetName()
		if err := addSheet(sheet); err != nil {
			return err
		}
		if err := setRow(f, sheet, 1, reportHeader); err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(len(reportHeader), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return err
		}
		row := 2
		for _, finding := range agg.Findings[c] {
			comps := finding.Components
			if len(comps) == 0 {
				comps = []types.Component{{}}
			}
			for _, comp := range comps {
				if err := setRow(f, sheet, row, reportRow(row-1, finding, comp)); err != nil {
					return err
				}
				row++
			}
		}
	}

	if err := addSheet(ScannerInfoSheet); err != nil {
		return err
	}
	cover := agg.Cover
	info := [][]string{
		{"Tool", cover.Tool},
		{"Start time", cover.StartTime.Format(time.DateTime)},
		{"Analyzed path", cover.InputPath},
		{"Excluded path", strings.Join(cover.Exclude, ", ")},
		{"Comment", cover.Comment},
	}
	for i, r := range info {
		if err := setRow(f, ScannerInfoSheet, i+1, r); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(ScannerInfoSheet, "A1", "A5", bold); err != nil {
		return err
	}
	return f.Write(w)
}

func reportRow(id int, finding types.Finding, comp types.Component) []string {
	exclude := ""
	if finding.Excluded || comp.Excluded {
		exclude = excludeMark
	}
	var comments []string
	for _, s := range []string{comp.Comment, finding.Comment} {
		if s != "" {
			comments = append(comments, s)
		}
	}
	return []string{
		strconv.Itoa(id),
		finding.Path,
		comp.Name,
		comp.Version,
		strings.Join(comp.Licenses, ","),
		comp.DownloadLocation,
		comp.Homepage,
		comp.CopyrightText,
		exclude,
		strings.Join(comments, "/"),
	}
}

func setRow(f *excelize.File, sheet string, row int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
