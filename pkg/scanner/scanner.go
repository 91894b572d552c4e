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

// Package scanner runs the analysis tools of a scan and collects their
// findings.
package scanner

import (
	"context"
	"errors"

	"github.com/venslabs/fossmerge/pkg/api/types"
)

var (
	ErrToolNotFound = errors.New("scanner executable not found")
	ErrTimeout      = errors.New("scanner timed out")
	ErrNoScanner    = errors.New("no scanner to run")
)

// Target is what a scanner analyzes and where it may write.
type Target struct {
	// Path is the root directory to scan.
	Path string
	// RawDir receives tool outputs and run logs.
	RawDir string
	// DepArgument holds extra arguments for the dependency scanner.
	DepArgument string
}

// Scanner produces the findings of one category.
//
// Implementations return their own findings and never touch a shared
// aggregate; Run collects the results once every scanner has returned.
type Scanner interface {
	Category() types.Category
	Name() string
	Scan(ctx context.Context, target Target) ([]types.Finding, error)
}
