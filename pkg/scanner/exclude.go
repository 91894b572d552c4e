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
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/venslabs/fossmerge/pkg/api/types"
)

// Excluder matches finding paths against exclusion globs. `*` does not cross
// a slash while `**` does. A pattern matching a directory excludes everything
// below it.
type Excluder struct {
	patterns []string
	globs    []glob.Glob
}

func NewExcluder(patterns []string) (*Excluder, error) {
	e := &Excluder{}
	for _, p := range patterns {
		p = strings.TrimSuffix(strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "./"), "/")
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		e.patterns = append(e.patterns, p)
		e.globs = append(e.globs, g)
	}
	return e, nil
}

// Match reports whether p or one of its parent directories matches a pattern.
func (e *Excluder) Match(p string) bool {
	if e == nil || len(e.globs) == 0 || p == "" {
		return false
	}
	for candidate := p; ; {
		for _, g := range e.globs {
			if g.Match(candidate) {
				return true
			}
		}
		i := strings.LastIndexByte(candidate, '/')
		if i <= 0 {
			return false
		}
		candidate = candidate[:i]
	}
}

// Apply marks the matching findings of agg excluded and returns how many were
// newly excluded.
func (e *Excluder) Apply(agg *types.ScanAggregate) int {
	n := 0
	for _, c := range agg.Categories() {
		findings := agg.Findings[c]
		for i := range findings {
			if findings[i].Excluded || !e.Match(findings[i].Path) {
				continue
			}
			findings[i].SetExcluded()
			n++
		}
	}
	return n
}
