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
	"embed"
	"html/template"
	"io"
	"log/slog"

	"github.com/venslabs/fossmerge/pkg/compare"
)

// DefaultHTMLRowLimit is the number of rows shown before the HTML table is cut.
const DefaultHTMLRowLimit = 100

//go:embed templates/*
var templates embed.FS

var htmlTemplate = template.Must(template.New("").ParseFS(templates, "templates/*.gohtml"))

// Meta describes the inputs of a comparison.
type Meta struct {
	Before string
	After  string
}

type htmlReport struct {
	Meta
	Header    []string
	Rows      []Row
	Truncated bool
}

type htmlOutputHandler struct {
	w     io.Writer
	meta  Meta
	limit int
	rows  []Row
}

// NewHTMLOutputHandler returns an OutputHandler rendering the comparison as
// an HTML page. At most limit rows are rendered; a warning paragraph replaces
// the rest. A limit <= 0 means DefaultHTMLRowLimit.
func NewHTMLOutputHandler(w io.Writer, meta Meta, limit int) OutputHandler {
	if limit <= 0 {
		limit = DefaultHTMLRowLimit
	}
	return &htmlOutputHandler{w: w, meta: meta, limit: limit}
}

func (h *htmlOutputHandler) HandleComparison(res *compare.Result) error {
	h.rows = append(h.rows, Rows(res)...)
	return nil
}

func (h *htmlOutputHandler) Close() error {
	report := htmlReport{Meta: h.meta, Header: Header, Rows: h.rows}
	if len(report.Rows) > h.limit {
		slog.Warn("Too many differences for the html table, see the xlsx file for the full result",
			"rows", len(report.Rows), "limit", h.limit)
		report.Rows = report.Rows[:h.limit]
		report.Truncated = true
	}
	return htmlTemplate.ExecuteTemplate(h.w, "bom_compare.gohtml", report)
}
