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

package outputhandler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"

	"github.com/venslabs/fossmerge/pkg/compare"
)

// Comparison output formats.
const (
	FormatXLSX = "xlsx"
	FormatHTML = "html"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var ErrUnsupportedFormat = errors.New("unsupported output format")

// ParseFormat normalizes a user supplied format or file extension. An empty
// format selects xlsx.
func ParseFormat(s string) (string, error) {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	switch f {
	case "":
		return FormatXLSX, nil
	case "yml":
		return FormatYAML, nil
	case FormatXLSX, FormatHTML, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnsupportedFormat, s)
}

// DefaultComparisonFileName returns the file name used when no output file
// is given.
func DefaultComparisonFileName(stamp, format string) string {
	return fmt.Sprintf("fosslight_compare_%s.%s", stamp, format)
}

// WriteComparison renders res to path in the given format and returns the
// written file(s). The html format also writes the complete result to an
// xlsx file next to path, and both paths are returned, comma separated.
//
// Files are replaced atomically: on failure nothing is left at path. When
// the html file cannot be written, its xlsx companion is removed too.
func WriteComparison(path, format string, res *compare.Result, meta Meta) (string, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return "", err
	}

	var newHandler func(io.Writer) OutputHandler
	switch format {
	case FormatXLSX:
		newHandler = NewXLSXOutputHandler
	case FormatJSON:
		newHandler = NewJSONOutputHandler
	case FormatYAML:
		newHandler = NewYAMLOutputHandler
	case FormatHTML:
		xlsxPath := strings.TrimSuffix(path, filepath.Ext(path)) + "." + FormatXLSX
		if err := writeComparison(xlsxPath, NewXLSXOutputHandler, res); err != nil {
			return "", fmt.Errorf("failed to write %q: %w", xlsxPath, err)
		}
		slog.Info("In html format, the xlsx file is generated as well", "file", xlsxPath)
		htmlHandler := func(w io.Writer) OutputHandler {
			return NewHTMLOutputHandler(w, meta, DefaultHTMLRowLimit)
		}
		if err := writeComparison(path, htmlHandler, res); err != nil {
			if rmErr := os.Remove(xlsxPath); rmErr != nil {
				slog.Debug("Failed to remove the xlsx file", "file", xlsxPath, "error", rmErr)
			}
			return "", fmt.Errorf("failed to write %q: %w", path, err)
		}
		return xlsxPath + ", " + path, nil
	}

	if err := writeComparison(path, newHandler, res); err != nil {
		return "", fmt.Errorf("failed to write %q: %w", path, err)
	}
	return path, nil
}

func writeComparison(path string, newHandler func(io.Writer) OutputHandler, res *compare.Result) error {
	return WriteFile(path, func(w io.Writer) error {
		h := newHandler(w)
		if err := h.HandleComparison(res); err != nil {
			return err
		}
		return h.Close()
	})
}

// WriteFile creates the parent directory of path, lets render fill a pending
// temporary file and renames it over path once render succeeded. The temporary
// file is removed on every failure path.
func WriteFile(path string, render func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	t, err := renameio.TempFile("", path)
	if err != nil {
		return err
	}
	defer t.Cleanup() //nolint:errcheck
	if err := t.Chmod(0o644); err != nil {
		return err
	}
	if err := render(t); err != nil {
		return err
	}
	return t.CloseAtomicallyReplace()
}
