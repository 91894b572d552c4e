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

package inventory

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/venslabs/fossmerge/pkg/api/types"
)

// UnnamedKey stands for an empty component name when names are used as YAML keys.
const UnnamedKey = "-"

// Entry is one component record of a FOSSLight style YAML report.
//
// Example YAML (name keyed form):
//
//	zlib:
//	  - version: 1.3
//	    source_name_or_path:
//	      - third_party/zlib/inflate.c
//	    license: [Zlib]
//	    download_location: https://github.com/madler/zlib
//
// A top-level sequence of entries carrying `name`, or a mapping with an
// `oss_list` or `components` sequence, is accepted as well.
type Entry struct {
	Name             string     `yaml:"name,omitempty"`
	Version          string     `yaml:"version"`
	SourcePaths      StringList `yaml:"source_name_or_path,omitempty"`
	License          StringList `yaml:"license"`
	DownloadLocation string     `yaml:"download_location,omitempty"`
	Homepage         string     `yaml:"homepage,omitempty"`
	CopyrightText    string     `yaml:"copyright_text,omitempty"`
	Comment          string     `yaml:"comment,omitempty"`
	Exclude          bool       `yaml:"exclude,omitempty"`
}

// StringList decodes either a scalar or a sequence of scalars.
type StringList []string

func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || value.Value == "" {
			*l = nil
			return nil
		}
		*l = StringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := value.Decode(&out); err != nil {
			return err
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
}

// Component converts the entry. Comma separated license strings are split.
func (e Entry) Component() types.Component {
	var lics []string
	for _, l := range e.License {
		lics = append(lics, strings.Split(l, ",")...)
	}
	return types.Component{
		Name:             e.Name,
		Version:          e.Version,
		Licenses:         types.NormalizeLicenses(lics),
		DownloadLocation: e.DownloadLocation,
		Homepage:         e.Homepage,
		CopyrightText:    e.CopyrightText,
		Comment:          e.Comment,
		Excluded:         e.Exclude,
	}
}

// DecodeYAML reads every entry of a FOSSLight style YAML report.
func DecodeYAML(r io.Reader) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]

	switch root.Kind {
	case yaml.SequenceNode:
		var entries []Entry
		if err := root.Decode(&entries); err != nil {
			return nil, err
		}
		return entries, nil
	case yaml.MappingNode:
		return decodeMapping(root)
	case yaml.ScalarNode:
		if root.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("line %d: unexpected YAML document shape", root.Line)
}

func decodeMapping(root *yaml.Node) ([]Entry, error) {
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		if (key == "oss_list" || key == "components") && val.Kind == yaml.SequenceNode {
			var entries []Entry
			if err := val.Decode(&entries); err != nil {
				return nil, err
			}
			return entries, nil
		}
	}

	var entries []Entry
	for i := 0; i+1 < len(root.Content); i += 2 {
		name, val := root.Content[i].Value, root.Content[i+1]
		if name == UnnamedKey {
			name = ""
		}
		var group []Entry
		switch val.Kind {
		case yaml.SequenceNode:
			if err := val.Decode(&group); err != nil {
				return nil, fmt.Errorf("component %q: %w", name, err)
			}
		case yaml.MappingNode:
			var e Entry
			if err := val.Decode(&e); err != nil {
				return nil, fmt.Errorf("component %q: %w", name, err)
			}
			group = []Entry{e}
		default:
			return nil, fmt.Errorf("line %d: component %q must map to a list of entries", val.Line, name)
		}
		for _, e := range group {
			if e.Name == "" {
				e.Name = name
			}
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// LoadYAML reads the components of a YAML report.
func LoadYAML(path string) ([]types.Component, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	entries, err := DecodeYAML(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}
	comps := make([]types.Component, 0, len(entries))
	for _, e := range entries {
		comps = append(comps, e.Component())
	}
	return comps, nil
}
