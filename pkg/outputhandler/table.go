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
	"os"

	"github.com/aquasecurity/table"
	"github.com/aquasecurity/tml"

	"github.com/venslabs/fossmerge/pkg/compare"
)

type tableOutputHandler struct {
	w     io.Writer
	color bool
	rows  []Row
}

// NewTableOutputHandler returns an OutputHandler printing the comparison as a
// terminal table. Statuses are colored when color is set.
func NewTableOutputHandler(w io.Writer, color bool) OutputHandler {
	if w == nil {
		w = os.Stdout
	}
	return &tableOutputHandler{w: w, color: color}
}

func (h *tableOutputHandler) HandleComparison(res *compare.Result) error {
	h.rows = append(h.rows, Rows(res)...)
	return nil
}

func (h *tableOutputHandler) Close() error {
	t := table.New(h.w)
	t.SetHeaders(Header...)
	t.SetRowLines(false)

	rows := h.rows
	if len(rows) == 0 {
		rows = []Row{SameRow}
	}
	for _, r := range rows {
		cells := r.Cells()
		if h.color {
			cells[0] = colorStatus(r.Status)
		}
		t.AddRow(cells...)
	}
	t.Render()
	return nil
}

func colorStatus(status string) string {
	switch status {
	case StatusAdd:
		return tml.Sprintf("<green>add</green>")
	case StatusDelete:
		return tml.Sprintf("<red>delete</red>")
	case StatusChange:
		return tml.Sprintf("<yellow>change</yellow>")
	default:
		return status
	}
}
