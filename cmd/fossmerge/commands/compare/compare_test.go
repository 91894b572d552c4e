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

package compare

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venslabs/fossmerge/pkg/inventory"
)

const beforeYAML = `
libfoo:
  - version: "1.0"
    license: [MIT]
libbar:
  - version: "2.0"
    license: [Apache-2.0]
`

const afterYAML = `
libfoo:
  - version: "1.1"
    license: [MIT]
libbaz:
  - version: "0.1"
    license: [BSD-3-Clause]
`

func writeInputs(t *testing.T, ext string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	before := filepath.Join(dir, "before"+ext)
	after := filepath.Join(dir, "after"+ext)
	require.NoError(t, os.WriteFile(before, []byte(beforeYAML), 0644))
	require.NoError(t, os.WriteFile(after, []byte(afterYAML), 0644))
	return before, after
}

func TestCompareCommandJSON(t *testing.T) {
	before, after := writeInputs(t, ".yaml")
	out := filepath.Join(t.TempDir(), "result.json")

	var stdout bytes.Buffer
	cmd := New()
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{before, after, "-o", out})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"name": "libbaz"`)
	assert.Contains(t, s, `"name": "libbar"`)
	assert.Contains(t, stdout.String(), "libfoo(1.0)")
	assert.Contains(t, stdout.String(), "libfoo(1.1)")
}

func TestCompareCommandDefaultName(t *testing.T) {
	before, after := writeInputs(t, ".yaml")
	outDir := t.TempDir()

	cmd := New()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{before, after, "-o", outDir, "-f", "html"})
	require.NoError(t, cmd.Execute())

	html, err := filepath.Glob(filepath.Join(outDir, "fosslight_compare_*.html"))
	require.NoError(t, err)
	assert.Len(t, html, 1)
	xlsx, err := filepath.Glob(filepath.Join(outDir, "fosslight_compare_*.xlsx"))
	require.NoError(t, err)
	require.Len(t, xlsx, 1)
	assert.Equal(t, strings.TrimSuffix(html[0], ".html"), strings.TrimSuffix(xlsx[0], ".xlsx"))
}

func TestCompareCommandExtensionMismatch(t *testing.T) {
	before, _ := writeInputs(t, ".yaml")
	outDir := t.TempDir()

	cmd := New()
	cmd.SetArgs([]string{before, "after.xlsx", "-o", outDir, "--no-table"})
	err := cmd.Execute()
	assert.ErrorIs(t, err, inventory.ErrExtensionMismatch)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompareCommandMissingInput(t *testing.T) {
	before, _ := writeInputs(t, ".yaml")
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	out := filepath.Join(t.TempDir(), "result.yaml")

	cmd := New()
	cmd.SetArgs([]string{before, missing, "-o", out, "--no-table"})
	require.NoError(t, cmd.Execute())
	res, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(res), "delete:\n")

	strict := New()
	strict.SetArgs([]string{before, missing, "-o", out, "--no-table", "--strict"})
	assert.Error(t, strict.Execute())
}
