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

package compare

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/venslabs/fossmerge/cmd/fossmerge/commands/scan"
	"github.com/venslabs/fossmerge/pkg/compare"
	"github.com/venslabs/fossmerge/pkg/inventory"
	"github.com/venslabs/fossmerge/pkg/outputhandler"
	"github.com/venslabs/fossmerge/pkg/session"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare BEFORE AFTER",
		Short: "Compare two reports",
		Long: `Compare the components of two reports and write what was added, deleted or changed.
Both reports must have the same extension: .yaml, .xlsx or .json (CycloneDX).`,
		Example:               Example(),
		Args:                  cobra.ExactArgs(2),
		RunE:                  action,
		DisableFlagsInUseLine: true,
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Output directory or file")
	flags.StringP("format", "f", "",
		fmt.Sprintf("Output format (%s, %s, %s, %s)", outputhandler.FormatXLSX, outputhandler.FormatHTML, outputhandler.FormatJSON, outputhandler.FormatYAML))
	flags.Bool("strict", false, "Fail when a report cannot be read instead of comparing against an empty one")
	flags.Bool("no-table", false, "Do not print the result table")

	return cmd
}

func Example() string {
	return "fossmerge compare before.yaml after.yaml -f html -o out"
}

func action(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	output, _ := flags.GetString("output")
	format, _ := flags.GetString("format")
	strict, _ := flags.GetBool("strict")
	noTable, _ := flags.GetBool("no-table")

	dir, file, format, err := scan.ResolveOutput(output, format, outputhandler.ParseFormat)
	if err != nil {
		return err
	}
	sess := session.New(dir, true)

	before, after := args[0], args[1]
	slog.InfoContext(ctx, "Start compare mode", "before", before, "after", after)
	prev, now, err := inventory.LoadPair(before, after, inventory.Options{Strict: strict})
	if err != nil {
		return err
	}
	res := compare.Compare(prev, now)

	if file == "" {
		file = outputhandler.DefaultComparisonFileName(sess.Stamp(), format)
	}
	written, err := outputhandler.WriteComparison(sess.Path(file), format, res, outputhandler.Meta{Before: before, After: after})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Success to write compared result", "file", written)
	slog.InfoContext(ctx, res.Summary())

	if noTable {
		return nil
	}
	return printTable(cmd.OutOrStdout(), res)
}

func printTable(w io.Writer, res *compare.Result) error {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	h := outputhandler.NewTableOutputHandler(w, color)
	if err := h.HandleComparison(res); err != nil {
		return err
	}
	return h.Close()
}
