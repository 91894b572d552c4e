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

package reportwriter

import (
	"io"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/venslabs/fossmerge/pkg/api/types"
	"github.com/venslabs/fossmerge/pkg/inventory"
)

// writeYAML writes the FOSSLight mapping of component names to entries. Equal
// components found at several paths share one entry listing every path.
func writeYAML(w io.Writer, agg *types.ScanAggregate, opts Options) error {
	agg = visible(agg, opts)

	type group struct {
		name    string
		entries []*inventory.Entry
		index   map[string]*inventory.Entry
	}
	var groups []*group
	byName := make(map[string]*group)

	for _, c := range agg.Categories() {
		for _, f := range agg.Findings[c] {
			for _, comp := range f.Components {
				g, ok := byName[comp.Name]
				if !ok {
					g = &group{name: comp.Name, index: make(map[string]*inventory.Entry)}
					byName[comp.Name] = g
					groups = append(groups, g)
				}
				e := entryOf(comp, f.Excluded)
				k := entryKey(e)
				if prev, ok := g.index[k]; ok {
					if f.Path != "" && !slices.Contains(prev.SourcePaths, f.Path) {
						prev.SourcePaths = append(prev.SourcePaths, f.Path)
					}
					continue
				}
				if f.Path != "" {
					e.SourcePaths = inventory.StringList{f.Path}
				}
				g.index[k] = e
				g.entries = append(g.entries, e)
			}
		}
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, g := range groups {
		key := g.name
		if key == "" {
			key = inventory.UnnamedKey
		}
		var val yaml.Node
		if err := val.Encode(g.entries); err != nil {
			return err
		}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, &val)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return err
	}
	return enc.Close()
}

func entryOf(c types.Component, findingExcluded bool) *inventory.Entry {
	return &inventory.Entry{
		Version:          c.Version,
		License:          inventory.StringList(c.Licenses),
		DownloadLocation: c.DownloadLocation,
		Homepage:         c.Homepage,
		CopyrightText:    c.CopyrightText,
		Comment:          c.Comment,
		Exclude:          c.Excluded || findingExcluded,
	}
}

func entryKey(e *inventory.Entry) string {
	return strings.Join([]string{
		e.Version,
		strings.Join(e.License, ","),
		e.DownloadLocation,
		e.Homepage,
		e.CopyrightText,
		e.Comment,
		boolMark(e.Exclude),
	}, "\x00")
}

func boolMark(b bool) string {
	if b {
		return "1"
	}
	return ""
}
