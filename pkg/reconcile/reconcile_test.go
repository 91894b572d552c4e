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

package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venslabs/fossmerge/pkg/api/types"
)

func newAggregate(src, bin []types.Finding) *types.ScanAggregate {
	agg := types.NewScanAggregate(types.Cover{Tool: "test"})
	if src != nil {
		agg.Append(types.CategorySource, src...)
	}
	if bin != nil {
		agg.Append(types.CategoryBinary, bin...)
	}
	return agg
}

func TestReconcileLoadsSourceInfoIntoBinary(t *testing.T) {
	srcComps := []types.Component{{Name: "a", Licenses: []string{"Apache-2.0"}}}
	agg := newAggregate(
		[]types.Finding{
			{Path: "lib/a.so", Components: types.CloneComponents(srcComps)},
			{Path: "src/main.c", Components: []types.Component{{Name: "main", Licenses: []string{"MIT"}}}},
		},
		[]types.Finding{
			{Path: "lib/a.so", Components: []types.Component{{Name: "", Licenses: nil}}},
		},
	)

	sum := Reconcile(agg, Options{})
	assert.Equal(t, 1, sum.Merged)

	src := agg.Findings[types.CategorySource]
	require.Len(t, src, 1)
	assert.Equal(t, "src/main.c", src[0].Path)

	bin := agg.Findings[types.CategoryBinary]
	require.Len(t, bin, 1)
	if diff := cmp.Diff(srcComps, bin[0].Components); diff != "" {
		t.Errorf("binary components mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, LoadedFromSourceNote, bin[0].Comment)
}

func TestReconcileIsIdempotent(t *testing.T) {
	agg := newAggregate(
		[]types.Finding{{Path: "lib/a.so", Components: []types.Component{{Name: "a", Licenses: []string{"MIT"}}}}},
		[]types.Finding{{Path: "lib/a.so", Comment: "stripped", Components: []types.Component{{}}}},
	)
	Reconcile(agg, Options{})
	want := agg.Findings[types.CategoryBinary][0].Clone()

	sum := Reconcile(agg, Options{})
	assert.Zero(t, sum.Merged)
	assert.Empty(t, agg.Findings[types.CategorySource])
	assert.Equal(t, want, agg.Findings[types.CategoryBinary][0])
	assert.Equal(t, "stripped/"+LoadedFromSourceNote, want.Comment)
}

func TestReconcileCopiesInsteadOfAliasing(t *testing.T) {
	agg := newAggregate(
		[]types.Finding{{Path: "lib/a.so", Components: []types.Component{{Name: "a", Licenses: []string{"MIT"}}}}},
		[]types.Finding{
			{Path: "lib/a.so", Components: []types.Component{{}}},
			{Path: "lib/a.so", Components: nil},
		},
	)
	Reconcile(agg, Options{})
	bin := agg.Findings[types.CategoryBinary]
	bin[0].Components[0].Licenses[0] = "changed"
	assert.Equal(t, "MIT", bin[1].Components[0].Licenses[0])
}

func TestReconcileLeavesAmbiguousPairsAlone(t *testing.T) {
	tests := []struct {
		name string
		src  types.Finding
		bin  types.Finding
	}{
		{
			name: "both licensed",
			src:  types.Finding{Path: "lib/a.so", Components: []types.Component{{Name: "a", Licenses: []string{"MIT"}}}},
			bin:  types.Finding{Path: "lib/a.so", Components: []types.Component{{Name: "a", Licenses: []string{"BSD-3-Clause"}}}},
		},
		{
			name: "only binary licensed",
			src:  types.Finding{Path: "lib/a.so", Components: []types.Component{{Name: "a"}}},
			bin:  types.Finding{Path: "lib/a.so", Components: []types.Component{{Name: "a", Licenses: []string{"MIT"}}}},
		},
		{
			name: "source partially licensed",
			src:  types.Finding{Path: "lib/a.so", Components: []types.Component{{Name: "a", Licenses: []string{"MIT"}}, {Name: "b"}}},
			bin:  types.Finding{Path: "lib/a.so", Components: []types.Component{{}}},
		},
		{
			name: "binary excluded upstream",
			src:  types.Finding{Path: "lib/a.so", Components: []types.Component{{Name: "a", Licenses: []string{"MIT"}}}},
			bin:  types.Finding{Path: "lib/a.so", Excluded: true, Components: []types.Component{{Excluded: true}}},
		},
		{
			name: "different paths",
			src:  types.Finding{Path: "lib/a.so", Components: []types.Component{{Name: "a", Licenses: []string{"MIT"}}}},
			bin:  types.Finding{Path: "lib/b.so", Components: []types.Component{{}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := newAggregate([]types.Finding{tt.src.Clone()}, []types.Finding{tt.bin.Clone()})
			sum := Reconcile(agg, Options{})
			assert.Zero(t, sum.Merged)

			wantSrc := tt.src.Clone()
			wantSrc.Category = types.CategorySource
			wantBin := tt.bin.Clone()
			wantBin.Category = types.CategoryBinary
			assert.Equal(t, []types.Finding{wantSrc}, agg.Findings[types.CategorySource])
			assert.Equal(t, []types.Finding{wantBin}, agg.Findings[types.CategoryBinary])
		})
	}
}

func TestReconcileNoOpWhenCategoryMissing(t *testing.T) {
	agg := newAggregate(
		[]types.Finding{{Path: "node_modules/x/index.js", Components: []types.Component{{Name: "x", Licenses: []string{"MIT"}}}}},
		nil,
	)
	agg.Append(types.CategoryDependency, types.Finding{Path: "package.json"})

	sum := Reconcile(agg, Options{})
	assert.Equal(t, Summary{}, sum)
	assert.False(t, agg.Findings[types.CategorySource][0].Excluded)
}

func TestReconcileNormalizesPaths(t *testing.T) {
	agg := newAggregate(
		[]types.Finding{{Path: `/work/proj/lib\A.so`, Components: []types.Component{{Name: "a", Licenses: []string{"MIT"}}}}},
		[]types.Finding{{Path: "./lib/a.so", Components: []types.Component{{}}}},
	)

	assert.Zero(t, Reconcile(agg, Options{Root: "/work/proj"}).Merged, "case differs")
	assert.Equal(t, 1, Reconcile(agg, Options{Root: "/work/proj", FoldCase: true}).Merged)
	assert.Empty(t, agg.Findings[types.CategorySource])
}

func TestReconcileExcludesPackageManagerDirs(t *testing.T) {
	agg := newAggregate(
		[]types.Finding{
			{Path: "web/node_modules/left-pad/index.js", Components: []types.Component{{Name: "left-pad", Licenses: []string{"WTFPL"}}}},
			{Path: "tools/my_node_modules_helper.py", Components: []types.Component{{Name: "helper"}}},
		},
		[]types.Finding{
			{Path: "ios/Pods/AFNetworking/lib.a", Components: []types.Component{{}}},
		},
	)
	sum := Reconcile(agg, Options{})
	assert.Equal(t, 2, sum.Excluded)

	src := agg.Findings[types.CategorySource]
	assert.True(t, src[0].Excluded)
	assert.True(t, src[0].Components[0].Excluded)
	assert.False(t, src[1].Excluded)
	assert.True(t, agg.Findings[types.CategoryBinary][0].Components[0].Excluded)
}

func TestIsExcludedDir(t *testing.T) {
	tests := []struct {
		path     string
		excluded bool
		want     bool
	}{
		{"project/venv/file.py", false, true},
		{"project/node_modules/file.js", false, true},
		{"project/Pods/file.m", false, true},
		{"project/Carthage/file.swift", false, true},
		{`project\Carthage\file.swift`, false, true},
		{"project/src/file.py", false, false},
		{"project/src/file.py", true, true},
		{"project/venv/file.py", true, true},
		{"project/my_node_modules_helper.py", false, false},
		{"project/pods/file.m", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExcludedDir(tt.path, tt.excluded))
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		root, path, want string
	}{
		{"", "./lib/a.so", "lib/a.so"},
		{"", `lib\a.so`, "lib/a.so"},
		{"/src", "/src/lib/a.so", "lib/a.so"},
		{`C:\src`, `C:\src\lib\a.so`, "lib/a.so"},
		{"/src", "/srcx/a.so", "/srcx/a.so"},
		{"/src/", "/src/a//b.so", "a/b.so"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePath(tt.root, tt.path), "%s + %s", tt.root, tt.path)
	}
}
