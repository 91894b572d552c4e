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

package merge

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/venslabs/fossmerge/cmd/fossmerge/commands/scan"
	"github.com/venslabs/fossmerge/pkg/api/types"
	"github.com/venslabs/fossmerge/pkg/inventory"
	"github.com/venslabs/fossmerge/pkg/reportwriter"
	"github.com/venslabs/fossmerge/pkg/scanner"
	"github.com/venslabs/fossmerge/pkg/session"
)

// categoryFlags maps each input flag to the category of its findings.
var categoryFlags = []struct {
	name     string
	category types.Category
}{
	{"source", types.CategorySource},
	{"binary", types.CategoryBinary},
	{"dependency", types.CategoryDependency},
	{"precheck", types.CategoryPrecheck},
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge existing scanner reports into one report",
		Long: `Merge the YAML reports previously written by the scanners, without running them.
The findings are reconciled exactly as in a scan.`,
		Example:               Example(),
		Args:                  cobra.NoArgs,
		RunE:                  action,
		DisableFlagsInUseLine: true,
	}

	flags := cmd.Flags()
	for _, f := range categoryFlags {
		flags.String(f.name, "", fmt.Sprintf("YAML report of the %s scanner", f.name))
	}
	flags.String("root", "", "Path prefix stripped from the report paths")
	flags.StringP("output", "o", "", "Output directory or file")
	flags.StringP("format", "f", "", "Report format")
	flags.StringSliceP("exclude", "e", nil, "Glob of paths to exclude (repeatable)")
	flags.Bool("keep-excluded", false, "Keep excluded components in the report")

	return cmd
}

func Example() string {
	return "fossmerge merge --source src.yaml --binary bin.yaml -o merged.xlsx"
}

// Load builds an aggregate from the scanner reports in files, keyed by category.
func Load(files map[types.Category]string, root string, cover types.Cover) (*types.ScanAggregate, error) {
	agg := types.NewScanAggregate(cover)
	for _, c := range types.Categories {
		path, ok := files[c]
		if !ok {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		entries, err := inventory.DecodeYAML(f)
		f.Close() //nolint:errcheck
		if err != nil {
			return nil, fmt.Errorf("failed to parse %q: %w", path, err)
		}
		findings := scanner.GroupFindings(entries, root)
		slog.Debug("Loaded scanner report", "category", c, "file", path, "findings", len(findings))
		agg.Append(c, findings...)
	}
	return agg, nil
}

func action(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	files := make(map[types.Category]string)
	for _, f := range categoryFlags {
		if v, _ := flags.GetString(f.name); v != "" {
			files[f.category] = v
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("at least one of --source, --binary, --dependency or --precheck is required")
	}
	root, _ := flags.GetString("root")
	output, _ := flags.GetString("output")
	format, _ := flags.GetString("format")
	exclude, _ := flags.GetStringSlice("exclude")
	keepExcluded, _ := flags.GetBool("keep-excluded")

	dir, file, format, err := scan.ResolveOutput(output, format, reportwriter.ParseFormat)
	if err != nil {
		return err
	}
	sess := session.New(dir, true)

	agg, err := Load(files, root, types.Cover{
		Tool:      cmd.Root().Name(),
		StartTime: sess.Start,
		InputPath: root,
		Exclude:   exclude,
	})
	if err != nil {
		return err
	}
	_, err = scan.Finish(ctx, sess, agg, scan.FinishOptions{
		Exclude:      exclude,
		File:         file,
		Format:       format,
		KeepExcluded: keepExcluded,
	})
	return err
}
