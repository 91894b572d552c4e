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
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venslabs/fossmerge/pkg/api/types"
	"github.com/venslabs/fossmerge/pkg/inventory"
)

type fakeScanner struct {
	category types.Category
	findings []types.Finding
	err      error
	delay    time.Duration
	running  *atomic.Int32
	maxSeen  *atomic.Int32
}

func (f *fakeScanner) Category() types.Category { return f.category }
func (f *fakeScanner) Name() string             { return "fake-" + strings.ToLower(string(f.category)) }

func (f *fakeScanner) Scan(ctx context.Context, _ Target) ([]types.Finding, error) {
	if f.running != nil {
		n := f.running.Add(1)
		defer f.running.Add(-1)
		for {
			m := f.maxSeen.Load()
			if n <= m || f.maxSeen.CompareAndSwap(m, n) {
				break
			}
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.findings, f.err
}

func TestRunOrdersByCategory(t *testing.T) {
	scanners := []Scanner{
		&fakeScanner{category: types.CategoryDependency, findings: []types.Finding{{Path: "go.mod"}}},
		&fakeScanner{category: types.CategorySource, findings: []types.Finding{{Path: "a.c"}}, delay: 20 * time.Millisecond},
		&fakeScanner{category: types.CategoryBinary},
	}
	agg, statuses, err := Run(context.Background(), scanners, Target{}, types.Cover{Tool: "test"}, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, []types.Category{types.CategorySource, types.CategoryBinary, types.CategoryDependency}, agg.Categories())
	assert.Equal(t, types.CategorySource, agg.Findings[types.CategorySource][0].Category)
	assert.True(t, agg.Has(types.CategoryBinary))
	require.Len(t, statuses, 3)
	assert.Equal(t, types.CategorySource, statuses[0].Category)
	assert.Equal(t, 1, statuses[0].Findings)
}

func TestRunPartialFailure(t *testing.T) {
	scanners := []Scanner{
		&fakeScanner{category: types.CategorySource, findings: []types.Finding{{Path: "a.c"}}},
		&fakeScanner{category: types.CategoryBinary, err: ErrToolNotFound},
	}
	agg, statuses, err := Run(context.Background(), scanners, Target{}, types.Cover{}, RunOptions{})
	require.NoError(t, err)
	assert.True(t, agg.Has(types.CategorySource))
	assert.False(t, agg.Has(types.CategoryBinary))
	assert.ErrorIs(t, statuses[1].Err, ErrToolNotFound)
}

func TestRunAllFailed(t *testing.T) {
	scanners := []Scanner{
		&fakeScanner{category: types.CategorySource, err: errors.New("boom")},
		&fakeScanner{category: types.CategoryBinary, err: ErrToolNotFound},
	}
	_, _, err := Run(context.Background(), scanners, Target{}, types.Cover{}, RunOptions{})
	assert.ErrorIs(t, err, ErrToolNotFound)

	_, _, err = Run(context.Background(), nil, Target{}, types.Cover{}, RunOptions{})
	assert.ErrorIs(t, err, ErrNoScanner)
}

func TestRunTimeoutAndConcurrency(t *testing.T) {
	var running, maxSeen atomic.Int32
	var scanners []Scanner
	for _, c := range types.Categories {
		scanners = append(scanners, &fakeScanner{category: c, delay: 30 * time.Millisecond, running: &running, maxSeen: &maxSeen})
	}
	agg, _, err := Run(context.Background(), scanners, Target{}, types.Cover{}, RunOptions{Concurrency: 2, Progress: true})
	require.NoError(t, err)
	assert.Len(t, agg.Categories(), 4)
	assert.LessOrEqual(t, maxSeen.Load(), int32(2))

	slow := []Scanner{
		&fakeScanner{category: types.CategorySource, delay: time.Minute},
		&fakeScanner{category: types.CategoryBinary},
	}
	agg, statuses, err := Run(context.Background(), slow, Target{}, types.Cover{}, RunOptions{Timeout: 20 * time.Millisecond})
	require.NoError(t, err)
	assert.False(t, agg.Has(types.CategorySource))
	assert.ErrorIs(t, statuses[0].Err, context.DeadlineExceeded)
}

func TestExcluder(t *testing.T) {
	e, err := NewExcluder([]string{"test/**", "*.md", "./vendor/", "docs"})
	require.NoError(t, err)

	for p, want := range map[string]bool{
		"test/a/b.c":      true,
		"README.md":       true,
		"sub/README.md":   false,
		"vendor/x/y.go":   true,
		"docs":            true,
		"docs/index.html": true,
		"src/docs.c":      false,
		"":                false,
	} {
		assert.Equal(t, want, e.Match(p), p)
	}

	_, err = NewExcluder([]string{"[a-"})
	assert.Error(t, err)
}

func TestExcluderApply(t *testing.T) {
	agg := types.NewScanAggregate(types.Cover{})
	agg.Append(types.CategorySource,
		types.Finding{Path: "test/a.c", Components: []types.Component{{Name: "a"}}},
		types.Finding{Path: "src/b.c", Components: []types.Component{{Name: "b"}}},
	)
	e, err := NewExcluder([]string{"test"})
	require.NoError(t, err)
	assert.Equal(t, 1, e.Apply(agg))
	assert.Equal(t, 0, e.Apply(agg))

	src := agg.Findings[types.CategorySource]
	assert.True(t, src[0].Excluded)
	assert.True(t, src[0].Components[0].Excluded)
	assert.False(t, src[1].Excluded)
}

func TestGroupFindings(t *testing.T) {
	entries := []inventory.Entry{
		{Name: "zlib", Version: "1.3", SourcePaths: inventory.StringList{"/work/src/a.c", "/work/src/b.c"}, License: inventory.StringList{"Zlib"}},
		{Name: "libpng", SourcePaths: inventory.StringList{"/work/src/a.c"}, License: inventory.StringList{"Libpng"}},
		{Name: "orphan", License: inventory.StringList{"MIT"}},
	}
	want := []types.Finding{
		{Path: "src/a.c", Components: []types.Component{
			{Name: "zlib", Version: "1.3", Licenses: []string{"Zlib"}},
			{Name: "libpng", Licenses: []string{"Libpng"}},
		}},
		{Path: "src/b.c", Components: []types.Component{{Name: "zlib", Version: "1.3", Licenses: []string{"Zlib"}}}},
		{Path: "", Components: []types.Component{{Name: "orphan", Licenses: []string{"MIT"}}}},
	}
	if diff := cmp.Diff(want, GroupFindings(entries, "/work")); diff != "" {
		t.Errorf("GroupFindings() mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{in: "", want: []string{}},
		{in: "-m 'npm' -a 'source venv/bin/activate'", want: []string{"-m", "npm", "-a", "source venv/bin/activate"}},
		{in: `-n "my app"  -t tok`, want: []string{"-n", "my app", "-t", "tok"}},
		{in: `-c my\ dir -n "say \"hi\""`, want: []string{"-c", "my dir", "-n", `say "hi"`}},
		{in: `-a 'C:\tools'`, want: []string{"-a", `C:\tools`}},
		{in: "-m 'npm", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := SplitArgs(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandArgs(t *testing.T) {
	s, err := NewCommand(types.CategoryDependency, nil)
	require.NoError(t, err)
	assert.Equal(t, "fosslight_dependency", s.Name())

	args, err := s.Args(Target{Path: "/src", RawDir: "/raw", DepArgument: "-m 'pip'"})
	require.NoError(t, err)
	assert.Equal(t, []string{"fosslight_dependency", "-p", "/src", "-o", filepath.Join("/raw", "fosslight_dependency.yaml"), "-f", "yaml", "-m", "pip"}, args)

	_, err = NewCommand(types.Category("OTHER"), nil)
	assert.Error(t, err)
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
}

func TestCommandScan(t *testing.T) {
	requireShell(t)
	root := t.TempDir()
	raw := t.TempDir()
	script := `cat > {output} <<'EOF'
zlib:
  - version: "1.3"
    source_name_or_path: {path}/third_party/inflate.c
    license: [Zlib]
EOF`
	s, err := NewCommand(types.CategorySource, []string{"sh", "-c", script})
	require.NoError(t, err)

	findings, err := s.Scan(context.Background(), Target{Path: root, RawDir: raw})
	require.NoError(t, err)
	assert.Equal(t, []types.Finding{{
		Path:       "third_party/inflate.c",
		Components: []types.Component{{Name: "zlib", Version: "1.3", Licenses: []string{"Zlib"}}},
	}}, findings)
	assert.FileExists(t, filepath.Join(raw, "sh-run.txt"))
}

func TestCommandScanRelativeRawDir(t *testing.T) {
	requireShell(t)
	root := t.TempDir()
	wd := t.TempDir()
	t.Chdir(wd)
	script := `cat > {output} <<'EOF'
zlib:
  - version: "1.3"
    source_name_or_path: src/inflate.c
    license: Zlib
EOF`
	s, err := NewCommand(types.CategorySource, []string{"sh", "-c", script})
	require.NoError(t, err)

	raw := "fosslight_raw_data_20260101_000000"
	findings, err := s.Scan(context.Background(), Target{Path: root, RawDir: raw})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "src/inflate.c", findings[0].Path)
	assert.FileExists(t, filepath.Join(wd, raw, "fosslight_source.yaml"))
	assert.NoFileExists(t, filepath.Join(root, raw, "fosslight_source.yaml"))
}

func TestCommandScanErrors(t *testing.T) {
	requireShell(t)
	target := Target{Path: t.TempDir(), RawDir: t.TempDir()}

	missing, err := NewCommand(types.CategoryBinary, []string{"fossmerge-no-such-scanner"})
	require.NoError(t, err)
	_, err = missing.Scan(context.Background(), target)
	assert.ErrorIs(t, err, ErrToolNotFound)

	slow, err := NewCommand(types.CategoryBinary, []string{"sleep", "5"})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = slow.Scan(ctx, target)
	assert.ErrorIs(t, err, ErrTimeout)

	failing, err := NewCommand(types.CategoryBinary, []string{"sh", "-c", "echo broken >&2; exit 3"})
	require.NoError(t, err)
	_, err = failing.Scan(context.Background(), target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	silent, err := NewCommand(types.CategoryBinary, []string{"true"})
	require.NoError(t, err)
	_, err = silent.Scan(context.Background(), target)
	assert.Error(t, err)

	log, err := os.ReadFile(filepath.Join(target.RawDir, "sh-run.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(log), "EXIT: 3")
}
