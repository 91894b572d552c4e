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

package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/venslabs/fossmerge/pkg/api/types"
	"github.com/venslabs/fossmerge/pkg/inventory"
	"github.com/venslabs/fossmerge/pkg/reconcile"
)

// Placeholders expanded in command templates.
const (
	PlaceholderPath   = "{path}"
	PlaceholderOutput = "{output}"
	// PlaceholderArgs is replaced by the dependency arguments, one argument
	// per word, or dropped when there are none.
	PlaceholderArgs = "{args}"
)

// DefaultCommands are the FOSSLight tools invoked for each category. Each
// writes a YAML report to {output}.
var DefaultCommands = map[types.Category][]string{
	types.CategorySource:     {"fosslight_source", "-p", PlaceholderPath, "-o", PlaceholderOutput, "-f", "yaml"},
	types.CategoryBinary:     {"fosslight_binary", "-p", PlaceholderPath, "-o", PlaceholderOutput, "-f", "yaml"},
	types.CategoryDependency: {"fosslight_dependency", "-p", PlaceholderPath, "-o", PlaceholderOutput, "-f", "yaml", PlaceholderArgs},
	types.CategoryPrecheck:   {"fosslight_prechecker", "lint", "-p", PlaceholderPath, "-o", PlaceholderOutput, "-f", "yaml"},
}

// Command is a Scanner backed by an external tool.
type Command struct {
	category types.Category
	argv     []string
}

// NewCommand returns a Scanner running argv, or the default tool of the
// category when argv is empty.
func NewCommand(c types.Category, argv []string) (*Command, error) {
	if len(argv) == 0 {
		argv = DefaultCommands[c]
	}
	if len(argv) == 0 || argv[0] == "" {
		return nil, fmt.Errorf("no command configured for the %s scanner", c)
	}
	return &Command{category: c, argv: argv}, nil
}

func (s *Command) Category() types.Category { return s.category }

func (s *Command) Name() string { return filepath.Base(s.argv[0]) }

func (s *Command) outputPath(target Target) string {
	return filepath.Join(target.RawDir, fmt.Sprintf("fosslight_%s.yaml", strings.ToLower(string(s.category))))
}

// Args expands the command template for target.
func (s *Command) Args(target Target) ([]string, error) {
	extra, err := SplitArgs(target.DepArgument)
	if err != nil {
		return nil, fmt.Errorf("invalid dependency arguments: %w", err)
	}
	out := make([]string, 0, len(s.argv)+len(extra))
	for _, a := range s.argv {
		if a == PlaceholderArgs {
			out = append(out, extra...)
			continue
		}
		a = strings.ReplaceAll(a, PlaceholderPath, target.Path)
		a = strings.ReplaceAll(a, PlaceholderOutput, s.outputPath(target))
		out = append(out, a)
	}
	return out, nil
}

// absTarget resolves the target directories against the working directory.
// The tool runs inside the scanned tree, so relative paths would point
// somewhere else for it.
func absTarget(target Target) (Target, error) {
	var err error
	if target.Path, err = filepath.Abs(target.Path); err != nil {
		return target, err
	}
	if target.RawDir, err = filepath.Abs(target.RawDir); err != nil {
		return target, err
	}
	return target, nil
}

func (s *Command) Scan(ctx context.Context, target Target) ([]types.Finding, error) {
	target, err := absTarget(target)
	if err != nil {
		return nil, err
	}
	argv, err := s.Args(target)
	if err != nil {
		return nil, err
	}
	output := s.outputPath(target)
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Start to run "+s.Name(), "category", s.category, "path", target.Path)
	res, runErr := runProcess(ctx, argv, target.Path)
	slog.DebugContext(ctx, "Scanner finished", "scanner", s.Name(), "exit", res.ExitCode, "duration", res.Duration)

	runLog := filepath.Join(target.RawDir, fmt.Sprintf("%s-run.txt", s.Name()))
	logContent := fmt.Sprintf("COMMAND: %s\nSTDOUT:\n%s\nSTDERR:\n%s\nEXIT: %d\nERROR: %v\n",
		strings.Join(argv, " "), res.Stdout, res.Stderr, res.ExitCode, runErr)
	if err := os.WriteFile(runLog, []byte(logContent), 0o644); err != nil {
		slog.DebugContext(ctx, "Failed to write the run log", "file", runLog, "error", err)
	}

	switch {
	case res.ExitCode == exitCodeNotFound:
		return nil, fmt.Errorf("%w: %s: %v", ErrToolNotFound, argv[0], runErr)
	case res.ExitCode == exitCodeTimeout:
		return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, s.Name(), res.Duration.Round(time.Millisecond))
	case runErr != nil:
		return nil, fmt.Errorf("%s failed (code %d): %w: %s", s.Name(), res.ExitCode, runErr, lastLine(res.Stderr))
	}

	f, err := os.Open(output)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s did not write its report %q", s.Name(), output)
		}
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	entries, err := inventory.DecodeYAML(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse the %s report %q: %w", s.Name(), output, err)
	}
	return GroupFindings(entries, target.Path), nil
}

// GroupFindings turns report entries into one finding per source path, in
// order of first appearance. Paths are made relative to root. An entry
// listing several paths contributes a component to each of them.
func GroupFindings(entries []inventory.Entry, root string) []types.Finding {
	var findings []types.Finding
	index := make(map[string]int)
	add := func(p string, c types.Component) {
		if p != "" {
			p = reconcile.NormalizePath(root, p)
		}
		i, ok := index[p]
		if !ok {
			i = len(findings)
			index[p] = i
			findings = append(findings, types.Finding{Path: p})
		}
		findings[i].Components = append(findings[i].Components, c)
	}
	for _, e := range entries {
		paths := e.SourcePaths
		if len(paths) == 0 {
			paths = inventory.StringList{""}
		}
		for _, p := range paths {
			add(p, e.Component())
		}
	}
	return findings
}

// SplitArgs splits s into words with shell quoting and escapes. Variables
// and backquotes are not expanded.
func SplitArgs(s string) ([]string, error) {
	args, err := shellwords.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, s)
	}
	return args, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
