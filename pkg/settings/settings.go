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

// Package settings loads the optional settings file of a scan.
package settings

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/venslabs/fossmerge/pkg/api/types"
)

// IncorrectFormatWarning is logged when some values of a settings file are ignored.
const IncorrectFormatWarning = "Ignoring some values with incorrect format in the setting file."

// Settings is the content of a settings file. YAML and JSON files are both
// accepted.
//
// Example:
//
//	mode: [source, binary]
//	path: [/path/to/scan]
//	output: out
//	format: xlsx
//	exclude: ["test/**", "*.md"]
//	raw: true
//	core: 4
//	timeout: 30m
//	scanners:
//	  binary:
//	    command: [fosslight_binary, -p, "{path}", -o, "{output}", -f, yaml]
//	  precheck:
//	    disabled: true
//
// A value of the wrong type is ignored and its default kept, and the other
// values still apply.
type Settings struct {
	Mode        []string
	Path        []string
	Output      string
	Format      string
	Exclude     []string
	DepArgument string
	Raw         bool
	Timer       bool
	// Core bounds how many scanners run at once. -1 means no bound.
	Core     int
	Timeout  time.Duration
	Scanners map[types.Category]Scanner
}

// Scanner overrides the invocation of one scanner.
type Scanner struct {
	Command  []string `yaml:"command" json:"command"`
	Disabled bool     `yaml:"disabled" json:"disabled"`
}

func Default() *Settings {
	return &Settings{Core: -1}
}

// Load parses the settings file at path.
func Load(path string) (*Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("failed to parse setting file %q: %w", path, err)
	}
	return s, nil
}

// Parse decodes settings from YAML or JSON data. Only a malformed document is
// an error.
func Parse(data []byte) (*Settings, error) {
	s := Default()
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return s, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: the setting file must be a mapping", root.Line)
	}

	incorrect := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		ok := true
		switch key {
		case "mode":
			ok = decodeStrings(val, &s.Mode)
		case "path":
			ok = decodeStrings(val, &s.Path)
		case "exclude":
			ok = decodeStrings(val, &s.Exclude)
		case "output":
			ok = decodeString(val, &s.Output)
		case "format":
			ok = decodeString(val, &s.Format)
		case "dep_argument":
			ok = decodeString(val, &s.DepArgument)
		case "raw":
			ok = decodeBool(val, &s.Raw)
		case "timer":
			ok = decodeBool(val, &s.Timer)
		case "core":
			ok = decodeInt(val, &s.Core)
		case "timeout":
			ok = decodeDuration(val, &s.Timeout)
		case "scanners":
			ok = decodeScanners(val, s)
		default:
			slog.Debug("Unknown key in the setting file", "key", key)
		}
		if !ok {
			slog.Debug("Ignoring setting", "key", key, "line", val.Line)
			incorrect = true
		}
	}
	if incorrect {
		slog.Warn(IncorrectFormatWarning)
	}
	return s, nil
}

func isStr(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
}

func decodeString(n *yaml.Node, out *string) bool {
	if !isStr(n) {
		return false
	}
	*out = n.Value
	return true
}

func decodeStrings(n *yaml.Node, out *[]string) bool {
	if n.Kind != yaml.SequenceNode {
		return false
	}
	l := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		if !isStr(item) {
			return false
		}
		l = append(l, item.Value)
	}
	*out = l
	return true
}

func decodeBool(n *yaml.Node, out *bool) bool {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!bool" {
		return false
	}
	return n.Decode(out) == nil
}

func decodeInt(n *yaml.Node, out *int) bool {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" {
		return false
	}
	return n.Decode(out) == nil
}

// decodeDuration accepts a Go duration string or a number of seconds.
func decodeDuration(n *yaml.Node, out *time.Duration) bool {
	if n.Kind != yaml.ScalarNode {
		return false
	}
	switch n.ShortTag() {
	case "!!str":
		d, err := time.ParseDuration(n.Value)
		if err != nil {
			return false
		}
		*out = d
		return true
	case "!!int":
		var secs int
		if err := n.Decode(&secs); err != nil {
			return false
		}
		*out = time.Duration(secs) * time.Second
		return true
	}
	return false
}

func decodeScanners(n *yaml.Node, s *Settings) bool {
	if n.Kind != yaml.MappingNode {
		return false
	}
	ok := true
	for i := 0; i+1 < len(n.Content); i += 2 {
		c, err := types.ParseCategory(n.Content[i].Value)
		if err != nil {
			ok = false
			continue
		}
		var sc Scanner
		if err := n.Content[i+1].Decode(&sc); err != nil {
			ok = false
			continue
		}
		if s.Scanners == nil {
			s.Scanners = make(map[types.Category]Scanner)
		}
		s.Scanners[c] = sc
	}
	return ok
}
