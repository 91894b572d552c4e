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
	"encoding/json"
	"fmt"
	"os"

	"github.com/CycloneDX/cyclonedx-go"

	"github.com/venslabs/fossmerge/pkg/api/types"
)

// LoadCycloneDX reads the components of a CycloneDX JSON SBOM.
//
// The file is streamed: only the entries of the top-level `components` array
// are decoded, one at a time, and every other root field is skipped. Nested
// components are flattened.
func LoadCycloneDX(path string) ([]types.Component, error) {
	var comps []types.Component
	err := streamComponents(path, func(c cyclonedx.Component) error {
		comps = appendCycloneDXComponent(comps, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}
	return comps, nil
}

func appendCycloneDXComponent(out []types.Component, c cyclonedx.Component) []types.Component {
	switch c.Type {
	case cyclonedx.ComponentTypeLibrary, cyclonedx.ComponentTypeFramework, cyclonedx.ComponentTypeApplication, "":
		comp := types.Component{
			Name:          c.Name,
			Version:       c.Version,
			CopyrightText: c.Copyright,
		}
		if c.Group != "" {
			comp.Name = c.Group + "/" + c.Name
		}
		if c.Licenses != nil {
			for _, lc := range *c.Licenses {
				switch {
				case lc.Expression != "":
					comp.AddLicense(lc.Expression)
				case lc.License != nil && lc.License.ID != "":
					comp.AddLicense(lc.License.ID)
				case lc.License != nil:
					comp.AddLicense(lc.License.Name)
				}
			}
		}
		if c.ExternalReferences != nil {
			for _, ref := range *c.ExternalReferences {
				switch ref.Type {
				case cyclonedx.ERTypeWebsite:
					comp.Homepage = ref.URL
				case cyclonedx.ERTypeDistribution, cyclonedx.ERTypeVCS:
					if comp.DownloadLocation == "" {
						comp.DownloadLocation = ref.URL
					}
				}
			}
		}
		out = append(out, comp)
	}
	if c.Components != nil {
		for _, sub := range *c.Components {
			out = appendCycloneDXComponent(out, sub)
		}
	}
	return out
}

// streamComponents invokes cb for each entry of the `components` array
// without loading the whole SBOM in memory.
func streamComponents(path string, cb func(cyclonedx.Component) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	dec := json.NewDecoder(f)
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("invalid CycloneDX JSON: expected object start")
	}
	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := t.(string)
		if !ok {
			return fmt.Errorf("invalid key token")
		}
		if key != "components" {
			if err := skipAny(dec); err != nil {
				return err
			}
			continue
		}
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if tok == nil {
			continue
		}
		if d, ok := tok.(json.Delim); !ok || d != '[' {
			return fmt.Errorf("invalid components array")
		}
		for dec.More() {
			var c cyclonedx.Component
			if err := dec.Decode(&c); err != nil {
				return err
			}
			if err := cb(c); err != nil {
				return err
			}
		}
		// closing ']'
		if _, err := dec.Token(); err != nil {
			return err
		}
	}
	// closing '}' of the root object
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// skipAny consumes the next JSON value in full, whether scalar, object or array.
func skipAny(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, isDelim := tok.(json.Delim)
	if !isDelim || (d != '{' && d != '[') {
		return nil
	}
	for depth := 1; depth > 0; {
		t, err := dec.Token()
		if err != nil {
			return err
		}
		switch t {
		case json.Delim('{'), json.Delim('['):
			depth++
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
	}
	return nil
}
