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

// Package reconcile resolves overlapping SOURCE and BINARY findings that
// describe the same file, and flags findings under package-manager working
// directories as excluded.
package reconcile

import (
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/venslabs/fossmerge/pkg/api/types"
)

// LoadedFromSourceNote is appended to the comment of a BINARY finding that
// received its components from the SOURCE finding at the same path.
const LoadedFromSourceNote = "Loaded from SRC OSS info"

// excludedDirs are dependency-manager working directories treated as noise.
var excludedDirs = []string{"venv", "node_modules", "Pods", "Carthage"}

// Options tunes how paths are compared.
type Options struct {
	// Root is the workspace root stripped from paths before comparison.
	Root string
	// FoldCase compares paths case-insensitively.
	FoldCase bool
}

// Summary reports what Reconcile changed.
type Summary struct {
	Excluded int
	Merged   int
}

// Reconcile flags excluded directories and folds licensed SOURCE findings into
// unlicensed BINARY findings at the same path. agg is modified in place.
//
// When either SOURCE or BINARY is absent the aggregate is left untouched.
// Calling Reconcile again on its own result changes nothing.
func Reconcile(agg *types.ScanAggregate, opts Options) Summary {
	var sum Summary
	if !agg.Has(types.CategorySource) || !agg.Has(types.CategoryBinary) {
		slog.Debug("Skipping reconciliation, source or binary result is missing")
		return sum
	}

	for _, c := range []types.Category{types.CategorySource, types.CategoryBinary} {
		findings := agg.Findings[c]
		for i := range findings {
			if findings[i].Excluded {
				continue
			}
			if IsExcludedDir(NormalizePath(opts.Root, findings[i].Path), false) {
				findings[i].SetExcluded()
				sum.Excluded++
			}
		}
	}

	src := agg.Findings[types.CategorySource]
	bin := agg.Findings[types.CategoryBinary]

	binByKey := make(map[string][]int, len(bin))
	for i, b := range bin {
		if b.Excluded {
			continue
		}
		k := opts.key(b.Path)
		binByKey[k] = append(binByKey[k], i)
	}

	var drop []int
	for si, s := range src {
		if s.Excluded || !s.AllLicensed() {
			continue
		}
		merged := false
		for _, bi := range binByKey[opts.key(s.Path)] {
			b := &bin[bi]
			if !b.NoneLicensed() {
				continue
			}
			// Each binary gets its own copy; the source list must not be shared.
			comps := types.CloneComponents(s.Components)
			for i := range comps {
				comps[i].Excluded = b.Excluded
			}
			b.Components = comps
			b.Comment = appendNote(b.Comment, LoadedFromSourceNote)
			merged = true
		}
		if merged {
			drop = append(drop, si)
			sum.Merged++
		}
	}

	slices.Reverse(drop)
	for _, i := range drop {
		src = slices.Delete(src, i, i+1)
	}
	agg.Findings[types.CategorySource] = src

	if sum.Merged > 0 {
		slog.Info("Reconciled source and binary results", "merged", sum.Merged, "excluded", sum.Excluded)
	} else {
		slog.Debug("Nothing to reconcile between source and binary results", "excluded", sum.Excluded)
	}
	return sum
}

// IsExcludedDir reports whether p has a path segment naming a package-manager
// working directory. An upstream exclusion is kept as is.
func IsExcludedDir(p string, alreadyExcluded bool) bool {
	if alreadyExcluded {
		return true
	}
	for _, seg := range strings.Split(strings.ReplaceAll(p, "\\", "/"), "/") {
		if slices.Contains(excludedDirs, seg) {
			return true
		}
	}
	return false
}

// NormalizePath converts p to a clean, slash separated path relative to root.
func NormalizePath(root, p string) string {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if root != "" {
		r := path.Clean(strings.ReplaceAll(root, "\\", "/"))
		if r != "." && r != "/" {
			if rel, ok := strings.CutPrefix(p, r+"/"); ok {
				p = rel
			} else if p == r {
				p = "."
			}
		}
	}
	return strings.TrimPrefix(p, "./")
}

func (o Options) key(p string) string {
	k := NormalizePath(o.Root, p)
	if o.FoldCase {
		k = strings.ToLower(k)
	}
	return k
}

func appendNote(comment, note string) string {
	switch {
	case comment == "":
		return note
	case strings.Contains(comment, note):
		return comment
	default:
		return comment + "/" + note
	}
}
