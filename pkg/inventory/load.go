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

// Package inventory loads component inventories from previously generated
// reports so that they can be compared.
package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/venslabs/fossmerge/pkg/api/types"
)

// Supported inventory extensions.
const (
	ExtYAML = ".yaml"
	ExtXLSX = ".xlsx"
	ExtJSON = ".json"
)

var (
	ErrExtensionMismatch    = errors.New("extensions must match")
	ErrUnsupportedExtension = errors.New("unsupported inventory extension")
)

// Options controls how inventories are loaded.
type Options struct {
	// Strict makes a missing or unreadable inventory an error. By default such
	// an inventory is logged and treated as empty, which turns every component
	// of the other side into an added or removed entry.
	Strict bool
}

// Ext returns the lower-cased extension of path, with `.yml` reported as `.yaml`.
func Ext(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yml" {
		return ExtYAML
	}
	return ext
}

// Load reads the inventory at path according to its extension.
func Load(path string, opts Options) ([]types.Component, error) {
	var load func(string) ([]types.Component, error)
	switch ext := Ext(path); ext {
	case ExtYAML:
		load = LoadYAML
	case ExtXLSX:
		load = LoadXLSX
	case ExtJSON:
		load = LoadCycloneDX
	default:
		return nil, fmt.Errorf("%w %q (%s)", ErrUnsupportedExtension, ext, path)
	}

	comps, err := load(path)
	if err != nil {
		if opts.Strict {
			return nil, fmt.Errorf("failed to load inventory %q: %w", path, err)
		}
		slog.Warn("Cannot read inventory, comparing against an empty one", "file", path, "error", err)
		return nil, nil
	}
	return comps, nil
}

// LoadPair loads the before and after inventories of a comparison. Both files
// must share the same extension.
func LoadPair(before, after string, opts Options) (prev, now []types.Component, err error) {
	if Ext(before) != Ext(after) {
		return nil, nil, fmt.Errorf("%w: %q and %q", ErrExtensionMismatch, before, after)
	}
	if prev, err = Load(before, opts); err != nil {
		return nil, nil, err
	}
	if now, err = Load(after, opts); err != nil {
		return nil, nil, err
	}
	return prev, now, nil
}
