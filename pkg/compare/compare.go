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

// Package compare computes what changed between two component inventories.
package compare

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/venslabs/fossmerge/pkg/api/types"
)

// Entry is a component present on only one side of a comparison.
type Entry struct {
	License []string `json:"license" yaml:"license"`
	Name    string   `json:"name" yaml:"name"`
	Version string   `json:"version" yaml:"version"`
}

// Variant is one version/license pair of a component name.
type Variant struct {
	License []string `json:"license" yaml:"license"`
	Version string   `json:"version" yaml:"version"`
}

// Change groups every variant of a name before and after, when they differ.
type Change struct {
	Name string    `json:"name" yaml:"name"`
	Now  []Variant `json:"now" yaml:"now"`
	Prev []Variant `json:"prev" yaml:"prev"`
}

// Result holds the three buckets of a comparison. Fields are declared in
// key order so encoders emit sorted keys.
type Result struct {
	Added   []Entry  `json:"add" yaml:"add"`
	Changed []Change `json:"change" yaml:"change"`
	Removed []Entry  `json:"delete" yaml:"delete"`
}

// Total returns the number of names that differ between the two inventories.
func (r *Result) Total() int {
	return len(r.Added) + len(r.Removed) + len(r.Changed)
}

// Summary describes the result in one line.
func (r *Result) Summary() string {
	if r.Total() == 0 {
		return "all oss lists are the same."
	}
	return fmt.Sprintf("total %d oss updated (add: %d, delete: %d, change: %d)",
		r.Total(), len(r.Added), len(r.Removed), len(r.Changed))
}

// Compare computes the Added, Removed and Changed buckets between before and
// after. Excluded components are ignored. The inputs are not modified, and the
// result only depends on the set of variants per name, so comparing an
// inventory with itself always yields an empty result.
func Compare(before, after []types.Component) *Result {
	prev := group(before)
	now := group(after)

	res := &Result{
		Added:   []Entry{},
		Changed: []Change{},
		Removed: []Entry{},
	}
	for _, name := range sortedNames(now) {
		if _, ok := prev[name]; !ok {
			res.Added = append(res.Added, entryOf(name, now[name]))
		}
	}
	for _, name := range sortedNames(prev) {
		p := prev[name]
		n, ok := now[name]
		if !ok {
			res.Removed = append(res.Removed, entryOf(name, p))
			continue
		}
		if !slices.EqualFunc(p, n, sameVariant) {
			res.Changed = append(res.Changed, Change{Name: name, Prev: variants(p), Now: variants(n)})
		}
	}
	return res
}

// keyed is a Variant with its licenses kept in scanner order for display
// and a sorted copy used to compare and order variants.
type keyed struct {
	Variant
	key []string
}

// group maps each name to its distinct variants sorted by version and license set.
func group(comps []types.Component) map[string][]keyed {
	out := make(map[string][]keyed)
	for _, c := range comps {
		if c.Excluded {
			continue
		}
		lic := types.NormalizeLicenses(c.Licenses)
		if lic == nil {
			lic = []string{}
		}
		key := slices.Clone(lic)
		slices.Sort(key)
		v := keyed{Variant: Variant{Version: c.Version, License: lic}, key: key}
		if !slices.ContainsFunc(out[c.Name], func(o keyed) bool { return sameVariant(o, v) }) {
			out[c.Name] = append(out[c.Name], v)
		}
	}
	for _, vs := range out {
		slices.SortFunc(vs, compareVariant)
	}
	return out
}

func variants(vs []keyed) []Variant {
	out := make([]Variant, len(vs))
	for i, v := range vs {
		out[i] = Variant{Version: v.Version, License: slices.Clone(v.License)}
	}
	return out
}

func entryOf(name string, vs []keyed) Entry {
	if len(vs) == 1 {
		return Entry{Name: name, Version: vs[0].Version, License: slices.Clone(vs[0].License)}
	}
	var versions []string
	var lic types.Component
	for _, v := range vs {
		if !slices.Contains(versions, v.Version) {
			versions = append(versions, v.Version)
		}
		for _, l := range v.License {
			lic.AddLicense(l)
		}
	}
	if lic.Licenses == nil {
		lic.Licenses = []string{}
	}
	return Entry{Name: name, Version: strings.Join(versions, ", "), License: lic.Licenses}
}

func sameVariant(a, b keyed) bool {
	return a.Version == b.Version && slices.Equal(a.key, b.key)
}

func compareVariant(a, b keyed) int {
	if c := cmp.Compare(a.Version, b.Version); c != 0 {
		return c
	}
	return slices.Compare(a.key, b.key)
}

func sortedNames(m map[string][]keyed) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
