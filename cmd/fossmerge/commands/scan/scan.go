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
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/venslabs/fossmerge/pkg/api/types"
	"github.com/venslabs/fossmerge/pkg/envutil"
	"github.com/venslabs/fossmerge/pkg/logutil"
	"github.com/venslabs/fossmerge/pkg/reportwriter"
	"github.com/venslabs/fossmerge/pkg/scanner"
	"github.com/venslabs/fossmerge/pkg/session"
	"github.com/venslabs/fossmerge/pkg/settings"
)

// ModeAll runs every scanner.
const ModeAll = "all"

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [MODE...]",
		Short: "Run the scanners and write a merged report",
		Long: `Run the source, binary, dependency and prechecker scanners on a path, reconcile their
findings and write one merged report.

MODE is one of all (default), source|src, binary|bin, dependency|dep, prechecker|reuse.`,
		Example: Example(),
		RunE:    action,
	}

	flags := cmd.Flags()
	flags.StringP("path", "p", ".", "Path to analyze")
	flags.StringP("output", "o", envutil.String("FOSSMERGE_OUTPUT", ""), "Output directory or file [$FOSSMERGE_OUTPUT]")
	flags.StringP("format", "f", envutil.String("FOSSMERGE_FORMAT", ""),
		fmt.Sprintf("Report format (%s, %s, %s, %s, %s) [$FOSSMERGE_FORMAT]",
			reportwriter.FormatXLSX, reportwriter.FormatYAML, reportwriter.FormatJSON, reportwriter.FormatCycloneDX, reportwriter.FormatSPDX))
	flags.StringSliceP("exclude", "e", nil, "Glob of paths to exclude, relative to --path (repeatable)")
	flags.StringP("setting", "s", "", "Settings file (YAML or JSON)")
	flags.BoolP("raw", "r", false, "Keep raw scanner outputs and excluded components")
	flags.BoolP("timer", "t", false, "Log the elapsed time while scanning")
	flags.IntP("core", "c", -1, "Number of scanners run at once (-1: all)")
	flags.Duration("timeout", envutil.Duration("FOSSMERGE_TIMEOUT", 0), "Timeout of each scanner, 0 for none [$FOSSMERGE_TIMEOUT]")
	flags.StringP("dep-argument", "d", "", "Extra arguments of the dependency scanner, e.g. \"-m 'npm'\"")
	flags.Bool("no-log", false, "Do not write the run log under fosslight_log in the output directory")

	return cmd
}

func Example() string {
	return "fossmerge scan source binary -p ./project -o out -f yaml -e 'test/**'"
}

type config struct {
	modes       []string
	path        string
	output      string
	format      string
	exclude     []string
	raw         bool
	timer       bool
	core        int
	timeout     time.Duration
	depArgument string
	noLog       bool
	scanners    map[types.Category]settings.Scanner
}

// loadConfig reads the flags and fills every flag left unset from the
// settings file.
func loadConfig(cmd *cobra.Command, args []string) (*config, error) {
	flags := cmd.Flags()
	c := &config{modes: args}
	c.path, _ = flags.GetString("path")
	c.output, _ = flags.GetString("output")
	c.format, _ = flags.GetString("format")
	c.exclude, _ = flags.GetStringSlice("exclude")
	c.raw, _ = flags.GetBool("raw")
	c.timer, _ = flags.GetBool("timer")
	c.core, _ = flags.GetInt("core")
	c.timeout, _ = flags.GetDuration("timeout")
	c.depArgument, _ = flags.GetString("dep-argument")
	c.noLog, _ = flags.GetBool("no-log")

	settingPath, _ := flags.GetString("setting")
	if settingPath == "" {
		return c, nil
	}
	s, err := settings.Load(settingPath)
	if err != nil {
		return nil, err
	}
	apply(c, s, flags.Changed)
	return c, nil
}

// apply copies the settings whose flag was not given on the command line.
func apply(c *config, s *settings.Settings, changed func(string) bool) {
	if len(c.modes) == 0 && len(s.Mode) > 0 {
		c.modes = s.Mode
	}
	if !changed("path") && len(s.Path) > 0 {
		c.path = s.Path[0]
		if len(s.Path) > 1 {
			slog.Warn("Only the first path of the setting file is analyzed", "path", c.path)
		}
	}
	if !changed("output") && s.Output != "" {
		c.output = s.Output
	}
	if !changed("format") && s.Format != "" {
		c.format = s.Format
	}
	if !changed("exclude") && len(s.Exclude) > 0 {
		c.exclude = s.Exclude
	}
	if !changed("raw") && s.Raw {
		c.raw = true
	}
	if !changed("timer") && s.Timer {
		c.timer = true
	}
	if !changed("core") && s.Core > 0 {
		c.core = s.Core
	}
	if !changed("timeout") && s.Timeout > 0 {
		c.timeout = s.Timeout
	}
	if !changed("dep-argument") && s.DepArgument != "" {
		c.depArgument = s.DepArgument
	}
	c.scanners = s.Scanners
}

// ParseModes returns the categories selected by modes, in report order.
func ParseModes(modes []string) ([]types.Category, error) {
	if len(modes) == 0 {
		return slices.Clone(types.Categories), nil
	}
	selected := make(map[types.Category]bool)
	for _, m := range modes {
		if strings.EqualFold(m, ModeAll) {
			return slices.Clone(types.Categories), nil
		}
		c, err := types.ParseCategory(m)
		if err != nil {
			return nil, fmt.Errorf("unknown mode %q", m)
		}
		selected[c] = true
	}
	var out []types.Category
	for _, c := range types.Categories {
		if selected[c] {
			out = append(out, c)
		}
	}
	return out, nil
}

func newScanners(categories []types.Category, overrides map[types.Category]settings.Scanner) ([]scanner.Scanner, error) {
	var out []scanner.Scanner
	for _, c := range categories {
		o := overrides[c]
		if o.Disabled {
			slog.Info("Scanner disabled by the setting file", "category", c)
			continue
		}
		s, err := scanner.NewCommand(c, o.Command)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func action(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	categories, err := ParseModes(c.modes)
	if err != nil {
		return err
	}
	scanners, err := newScanners(categories, c.scanners)
	if err != nil {
		return err
	}
	dir, file, format, err := ResolveOutput(c.output, c.format, reportwriter.ParseFormat)
	if err != nil {
		return err
	}
	root, err := filepath.Abs(c.path)
	if err != nil {
		return err
	}

	sess := session.New(dir, c.raw)
	if err := sess.Prepare(); err != nil {
		return fmt.Errorf("failed to create the output directory: %w", err)
	}
	defer sess.Cleanup()
	if !c.noLog {
		f, err := sess.OpenLog()
		if err != nil {
			slog.WarnContext(ctx, "Failed to create the log file", "error", err)
		} else {
			defer f.Close() //nolint:errcheck
			defer logutil.TeeDefault(f)()
			slog.DebugContext(ctx, "Writing the run log", "file", sess.LogPath())
		}
	}

	cover := types.Cover{
		Tool:      cmd.Root().Name(),
		StartTime: sess.Start,
		InputPath: root,
		Exclude:   c.exclude,
	}
	target := scanner.Target{Path: root, RawDir: sess.RawDir(), DepArgument: c.depArgument}
	slog.InfoContext(ctx, "Start to scan", "path", root, "scanners", len(scanners))
	agg, statuses, err := scanner.Run(ctx, scanners, target, cover, scanner.RunOptions{
		Timeout:     c.timeout,
		Concurrency: c.core,
		Progress:    c.timer,
	})
	if err != nil {
		return err
	}

	_, err = Finish(ctx, sess, agg, FinishOptions{
		Exclude:      c.exclude,
		File:         file,
		Format:       format,
		KeepExcluded: c.raw,
		Statuses:     statuses,
	})
	return err
}
