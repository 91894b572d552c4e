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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/venslabs/fossmerge/pkg/api/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestDecodeYAML(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []Entry
	}{
		{
			name: "name keyed",
			doc: `
zlib:
  - version: 1.3
    source_name_or_path: [third_party/zlib/inflate.c, third_party/zlib/deflate.c]
    license: [Zlib]
"-":
  - version: ""
    license: MIT
    source_name_or_path: lib/a.so
`,
			want: []Entry{
				{Name: "zlib", Version: "1.3", SourcePaths: StringList{"third_party/zlib/inflate.c", "third_party/zlib/deflate.c"}, License: StringList{"Zlib"}},
				{Name: "", Version: "", SourcePaths: StringList{"lib/a.so"}, License: StringList{"MIT"}},
			},
		},
		{
			name: "sequence",
			doc: `
- name: libfoo
  version: "1.0"
  license: [MIT]
  exclude: true
`,
			want: []Entry{{Name: "libfoo", Version: "1.0", License: StringList{"MIT"}, Exclude: true}},
		},
		{
			name: "oss_list",
			doc: `
oss_list:
  - name: test
    version: "1.0"
    license: MIT
`,
			want: []Entry{{Name: "test", Version: "1.0", License: StringList{"MIT"}}},
		},
		{
			name: "empty document",
			doc:  "",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeYAML(strings.NewReader(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeYAMLRejectsScalarComponent(t *testing.T) {
	_, err := DecodeYAML(strings.NewReader("zlib: 1.3\n"))
	assert.Error(t, err)
}

func TestEntryComponentSplitsLicenses(t *testing.T) {
	e := Entry{Name: "a", License: StringList{"MIT, Apache-2.0", "MIT"}}
	assert.Equal(t, []string{"MIT", "Apache-2.0"}, e.Component().Licenses)
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck
	require.NoError(t, f.SetSheetName("Sheet1", "Scanner Info"))
	require.NoError(t, f.SetSheetRow("Scanner Info", "A1", &[]any{"Tool", "fossmerge"}))

	_, err := f.NewSheet("SRC_FL_Source")
	require.NoError(t, err)
	rows := [][]any{
		{"ID", "Source Name or Path", "OSS Name", "OSS Version", "License", "Download Location", "Homepage", "Copyright Text", "Exclude", "Comment"},
		{1, "a.c", "libfoo", "1.0", "MIT,Apache-2.0", "", "", "", "", ""},
		{2, "venv/b.py", "six", "1.16", "MIT", "", "", "", "Exclude", ""},
		{3, "", "", "", "", "", "", "", "", ""},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("SRC_FL_Source", cell, &r))
	}
	p := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, f.SaveAs(p))

	comps, err := LoadXLSX(p)
	require.NoError(t, err)
	assert.Equal(t, []types.Component{
		{Name: "libfoo", Version: "1.0", Licenses: []string{"MIT", "Apache-2.0"}},
		{Name: "six", Version: "1.16", Licenses: []string{"MIT"}, Excluded: true},
	}, comps)
}

func TestLoadCycloneDX(t *testing.T) {
	p := writeFile(t, "bom.cdx.json", `{
  "bomFormat": "CycloneDX",
  "specVersion": "1.5",
  "metadata": {"component": {"type": "application", "name": "app", "purl": "pkg:generic/app@1"}},
  "components": [
    {"type": "library", "name": "zlib", "version": "1.3", "licenses": [{"license": {"id": "Zlib"}}],
     "externalReferences": [{"type": "website", "url": "https://zlib.net"}]},
    {"type": "library", "group": "org.apache", "name": "commons", "version": "2",
     "licenses": [{"expression": "Apache-2.0 OR MIT"}],
     "components": [{"type": "library", "name": "inner", "version": "0.1"}]},
    {"type": "file", "name": "README"}
  ],
  "dependencies": []
}`)
	comps, err := LoadCycloneDX(p)
	require.NoError(t, err)
	assert.Equal(t, []types.Component{
		{Name: "zlib", Version: "1.3", Licenses: []string{"Zlib"}, Homepage: "https://zlib.net"},
		{Name: "org.apache/commons", Version: "2", Licenses: []string{"Apache-2.0 OR MIT"}},
		{Name: "inner", Version: "0.1"},
	}, comps)
}

func TestLoadPairExtensionMismatch(t *testing.T) {
	before := writeFile(t, "before.yaml", "- name: test\n  version: '1.0'\n  license: MIT\n")
	after := writeFile(t, "after.xlsx", "")
	_, _, err := LoadPair(before, after, Options{})
	assert.ErrorIs(t, err, ErrExtensionMismatch)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load(writeFile(t, "before.txt", "x"), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
}

func TestLoadMissingInventory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	comps, err := Load(missing, Options{})
	require.NoError(t, err)
	assert.Empty(t, comps)

	_, err = Load(missing, Options{Strict: true})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExt(t *testing.T) {
	assert.Equal(t, ExtYAML, Ext("a/b/report.YML"))
	assert.Equal(t, ExtXLSX, Ext("report.xlsx"))
	assert.Equal(t, "", Ext("report"))
}
