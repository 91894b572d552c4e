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

package inventory

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/venslabs/fossmerge/pkg/api/types"
)

// Column headers of a FOSSLight OSS report.
const (
	ColumnOSSName          = "OSS Name"
	ColumnOSSVersion       = "OSS Version"
	ColumnLicense          = "License"
	ColumnDownloadLocation = "Download Location"
	ColumnHomepage         = "Homepage"
	ColumnCopyrightText    = "Copyright Text"
	ColumnExclude          = "Exclude"
	ColumnComment          = "Comment"
)

// headerSearchRows bounds how far down a sheet the header row is looked for.
const headerSearchRows = 5

// LoadXLSX reads the components of every sheet that has an `OSS Name` column.
// Sheets without one (cover pages, notices) are skipped.
func LoadXLSX(path string) ([]types.Component, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	var comps []types.Component
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q of %q: %w", sheet, path, err)
		}
		sheetComps, ok := componentsFromRows(rows)
		if !ok {
			slog.Debug("Skipping sheet without an OSS Name column", "file", path, "sheet", sheet)
			continue
		}
		comps = append(comps, sheetComps...)
	}
	return comps, nil
}

func componentsFromRows(rows [][]string) ([]types.Component, bool) {
	headerRow := -1
	cols := map[string]int{}
	for i := 0; i < len(rows) && i < headerSearchRows; i++ {
		for _, v := range rows[i] {
			if strings.TrimSpace(v) == ColumnOSSName {
				headerRow = i
			}
		}
		if headerRow >= 0 {
			for j, v := range rows[i] {
				cols[strings.TrimSpace(v)] = j
			}
			break
		}
	}
	if headerRow < 0 {
		return nil, false
	}

	cell := func(row []string, name string) string {
		j, ok := cols[name]
		if !ok || j >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[j])
	}

	var comps []types.Component
	for _, row := range rows[headerRow+1:] {
		c := types.Component{
			Name:             cell(row, ColumnOSSName),
			Version:          cell(row, ColumnOSSVersion),
			Licenses:         splitLicenses(cell(row, ColumnLicense)),
			DownloadLocation: cell(row, ColumnDownloadLocation),
			Homepage:         cell(row, ColumnHomepage),
			CopyrightText:    cell(row, ColumnCopyrightText),
			Comment:          cell(row, ColumnComment),
			Excluded:         isExcludeMark(cell(row, ColumnExclude)),
		}
		if c.Name == "" && c.Version == "" && len(c.Licenses) == 0 {
			continue
		}
		comps = append(comps, c)
	}
	return comps, true
}

func splitLicenses(s string) []string {
	return types.NormalizeLicenses(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n'
	}))
}

func isExcludeMark(s string) bool {
	switch strings.ToLower(s) {
	case "", "false", "0", "no", "n":
		return false
	}
	return true
}
