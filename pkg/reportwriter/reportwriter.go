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

// Package reportwriter writes the merged report of a scan.
package reportwriter

import (
	"fmt"
	"io"
	"strings"

	"github.com/venslabs/fossmerge/pkg/api/types"
	"github.com/venslabs/fossmerge/pkg/outputhandler"
)

// Merged report formats.
const (
	FormatYAML      = "yaml"
	FormatJSON      = "json"
	FormatXLSX      = "xlsx"
	FormatCycloneDX = "cyclonedx"
	FormatSPDX      = "spdx"
)

// Options controls what ends up in the report.
type Options struct {
	// KeepExcluded keeps excluded findings and components, flagged as such.
	KeepExcluded bool
	// ToolVersion is recorded as the producing tool version in SBOM formats.
	ToolVersion string
}

type writerFunc func(io.Writer, *types.ScanAggregate, Options) error

var writers = map[string]writerFunc{
	FormatYAML:      writeYAML,
	FormatJSON:      writeJSON,
	FormatXLSX:      writeXLSX,
	FormatCycloneDX: writeCycloneDX,
	FormatSPDX:      writeSPDX,
}

// ParseFormat normalizes a format name. An empty format selects xlsx.
func ParseFormat(s string) (string, error) {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	switch f {
	case "":
		return FormatXLSX, nil
	case "yml":
		return FormatYAML, nil
	case "cdx":
		return FormatCycloneDX, nil
	}
	if _, ok := writers[f]; !ok {
		return "", fmt.Errorf("%w %q", outputhandler.ErrUnsupportedFormat, s)
	}
	return f, nil
}

// Extension returns the file extension, dot included, of a format.
func Extension(format string) string {
	switch format {
	case FormatCycloneDX:
		return ".cdx.json"
	case FormatSPDX:
		return ".spdx.json"
	}
	return "." + format
}

// DefaultFileName returns the report file name used when none is given.
func DefaultFileName(stamp, format string) string {
	return "fosslight_report_" + stamp + Extension(format)
}

// Write renders agg to path. The file is replaced atomically.
func Write(path, format string, agg *types.ScanAggregate, opts Options) error {
	format, err := ParseFormat(format)
	if err != nil {
		return err
	}
	w := writers[format]
	if err := outputhandler.WriteFile(path, func(out io.Writer) error {
		return w(out, agg, opts)
	}); err != nil {
		return fmt.Errorf("failed to write %s report %q: %w", format, path, err)
	}
	return nil
}

// visible returns a copy of agg without the excluded findings and components,
// or agg itself when they are kept.
func visible(agg *types.ScanAggregate, opts Options) *types.ScanAggregate {
	if opts.KeepExcluded {
		return agg
	}
	out := types.NewScanAggregate(agg.Cover)
	for _, c := range agg.Categories() {
		findings := make([]types.Finding, 0, len(agg.Findings[c]))
		for _, f := range agg.Findings[c] {
			if f.Excluded {
				continue
			}
			f = f.Clone()
			kept := f.Components[:0]
			for _, comp := range f.Components {
				if !comp.Excluded {
					kept = append(kept, comp)
				}
			}
			f.Components = kept
			findings = append(findings, f)
		}
		out.Append(c, findings...)
	}
	return out
}

// packageKey identifies a distinct package in SBOM formats.
type packageKey struct {
	name    string
	version string
}

// packages merges the named components of agg by name and version, in report
// order. Licenses are unioned.
func packages(agg *types.ScanAggregate) []types.Component {
	var out []types.Component
	index := make(map[packageKey]int)
	for _, comp := range agg.Components(true) {
		if comp.Name == "" {
			continue
		}
		k := packageKey{comp.Name, comp.Version}
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, comp)
			continue
		}
		for _, l := range comp.Licenses {
			out[i].AddLicense(l)
		}
		if out[i].Homepage == "" {
			out[i].Homepage = comp.Homepage
		}
		if out[i].DownloadLocation == "" {
			out[i].DownloadLocation = comp.DownloadLocation
		}
		if out[i].CopyrightText == "" {
			out[i].CopyrightText = comp.CopyrightText
		}
	}
	return out
}
