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

package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/venslabs/fossmerge/cmd/fossmerge/version"
	"github.com/venslabs/fossmerge/pkg/api/types"
	"github.com/venslabs/fossmerge/pkg/reconcile"
	"github.com/venslabs/fossmerge/pkg/reportwriter"
	"github.com/venslabs/fossmerge/pkg/scanner"
	"github.com/venslabs/fossmerge/pkg/session"
)

// ResolveOutput splits an --output value into a directory and a file name
// and settles the format. An output with an extension that is not an existing
// directory names the file; its extension gives the format when none is set
// and must agree with it otherwise.
func ResolveOutput(output, format string, parse func(string) (string, error)) (dir, file, resolved string, err error) {
	if output == "" {
		resolved, err = parse(format)
		return ".", "", resolved, err
	}
	ext := outputExt(output)
	if st, statErr := os.Stat(output); ext == "" || (statErr == nil && st.IsDir()) {
		resolved, err = parse(format)
		return output, "", resolved, err
	}
	extFormat, err := parse(ext)
	if err != nil {
		return "", "", "", err
	}
	resolved = extFormat
	if format != "" {
		if resolved, err = parse(format); err != nil {
			return "", "", "", err
		}
		if resolved != extFormat {
			return "", "", "", fmt.Errorf("the extension of %q does not match the format %q", output, format)
		}
	}
	return filepath.Dir(output), filepath.Base(output), resolved, nil
}

// outputExt is the extension of a file name, with the SBOM double extensions
// reduced to their format name.
func outputExt(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".cdx.json"):
		return ".cdx"
	case strings.HasSuffix(lower, ".spdx.json"):
		return ".spdx"
	}
	return filepath.Ext(name)
}

// FinishOptions describes how a merged aggregate is turned into a report.
type FinishOptions struct {
	Exclude      []string
	File         string
	Format       string
	KeepExcluded bool
	Statuses     []scanner.Status
}

// Finish excludes the paths matching the exclusion globs, reconciles the
// aggregate, writes the merged report and logs a summary of the run.
func Finish(ctx context.Context, sess *session.Session, agg *types.ScanAggregate, o FinishOptions) (string, error) {
	excluder, err := scanner.NewExcluder(o.Exclude)
	if err != nil {
		return "", err
	}
	if n := excluder.Apply(agg); n > 0 {
		slog.InfoContext(ctx, "Excluded findings matching the exclude patterns", "count", n)
	}
	sum := reconcile.Reconcile(agg, reconcile.Options{})

	file := o.File
	if file == "" {
		file = reportwriter.DefaultFileName(sess.Stamp(), o.Format)
	}
	out := sess.Path(file)
	if err := reportwriter.Write(out, o.Format, agg, reportwriter.Options{
		KeepExcluded: o.KeepExcluded,
		ToolVersion:  version.GetVersion(),
	}); err != nil {
		return "", err
	}

	logSummary(ctx, sess, agg, out, sum, o.Statuses)
	return out, nil
}

type runSummary struct {
	Tool         string            `yaml:"Tool"`
	StartTime    string            `yaml:"Start time"`
	AnalyzedPath string            `yaml:"Analyzed path,omitempty"`
	OutputFile   string            `yaml:"Output file"`
	Scanners     map[string]string `yaml:"Scanners,omitempty"`
	Components   map[string]int    `yaml:"Components"`
	Excluded     int               `yaml:"Excluded by reconciliation"`
	Merged       int               `yaml:"Loaded from source"`
	Elapsed      string            `yaml:"Elapsed"`
}

func logSummary(ctx context.Context, sess *session.Session, agg *types.ScanAggregate, out string, sum reconcile.Summary, statuses []scanner.Status) {
	s := runSummary{
		Tool:         agg.Cover.Tool,
		StartTime:    sess.Start.Format(time.DateTime),
		AnalyzedPath: agg.Cover.InputPath,
		OutputFile:   out,
		Components:   make(map[string]int),
		Excluded:     sum.Excluded,
		Merged:       sum.Merged,
		Elapsed:      time.Since(sess.Start).Round(time.Millisecond).String(),
	}
	for _, c := range agg.Categories() {
		n := 0
		for _, f := range agg.Findings[c] {
			n += len(f.Components)
		}
		s.Components[c.String()] = n
	}
	for _, st := range statuses {
		if s.Scanners == nil {
			s.Scanners = make(map[string]string)
		}
		state := fmt.Sprintf("ok (%d findings, %s)", st.Findings, st.Duration.Round(time.Millisecond))
		if st.Err != nil {
			state = "failed: " + st.Err.Error()
		}
		s.Scanners[st.Scanner] = state
	}
	b, err := yaml.Marshal(s)
	if err != nil {
		slog.DebugContext(ctx, "Failed to marshal the run summary", "error", err)
		return
	}
	slog.InfoContext(ctx, "Result\n"+strings.TrimSpace(string(b)))
}
