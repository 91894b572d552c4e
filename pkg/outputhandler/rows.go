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
	"strings"

	"github.com/venslabs/fossmerge/pkg/compare"
)

// Comparison statuses as written in the Status column.
const (
	StatusAdd    = "add"
	StatusDelete = "delete"
	StatusChange = "change"
	StatusSame   = "Same"
)

// Header is the column header of tabular comparison outputs.
var Header = []string{"Status", "OSS_Before", "License_Before", "OSS_After", "License_After"}

// Row is one line of a tabular comparison output.
type Row struct {
	Status        string
	OSSBefore     string
	LicenseBefore string
	OSSAfter      string
	LicenseAfter  string
}

func (r Row) Cells() []string {
	return []string{r.Status, r.OSSBefore, r.LicenseBefore, r.OSSAfter, r.LicenseAfter}
}

// SameRow is emitted when a comparison found no difference.
var SameRow = Row{Status: StatusSame}

// Rows flattens res into table rows: additions, then deletions, then changes.
func Rows(res *compare.Result) []Row {
	if res == nil {
		return nil
	}
	rows := make([]Row, 0, res.Total())
	for _, e := range res.Added {
		rows = append(rows, Row{
			Status:       StatusAdd,
			OSSAfter:     ossLabel(e.Name, e.Version),
			LicenseAfter: strings.Join(e.License, ", "),
		})
	}
	for _, e := range res.Removed {
		rows = append(rows, Row{
			Status:        StatusDelete,
			OSSBefore:     ossLabel(e.Name, e.Version),
			LicenseBefore: strings.Join(e.License, ", "),
		})
	}
	for _, c := range res.Changed {
		ossBefore, licBefore := variantCells(c.Name, c.Prev)
		ossAfter, licAfter := variantCells(c.Name, c.Now)
		rows = append(rows, Row{
			Status:        StatusChange,
			OSSBefore:     ossBefore,
			LicenseBefore: licBefore,
			OSSAfter:      ossAfter,
			LicenseAfter:  licAfter,
		})
	}
	return rows
}

func variantCells(name string, vs []compare.Variant) (oss, lic string) {
	names := make([]string, 0, len(vs))
	lics := make([]string, 0, len(vs))
	for _, v := range vs {
		names = append(names, ossLabel(name, v.Version))
		lics = append(lics, strings.Join(v.License, ", "))
	}
	return strings.Join(names, " / "), strings.Join(lics, " / ")
}

// ossLabel renders name(version), or just name when the version is empty.
func ossLabel(name, version string) string {
	if version == "" {
		return name
	}
	return name + "(" + version + ")"
}
