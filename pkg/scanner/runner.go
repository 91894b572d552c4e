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
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/venslabs/fossmerge/pkg/api/types"
)

// ProgressInterval is how often a running scan reports its elapsed time when
// progress reporting is on.
var ProgressInterval = 10 * time.Second

// RunOptions controls how scanners are run.
type RunOptions struct {
	// Timeout bounds each scanner. Zero means no bound.
	Timeout time.Duration
	// Concurrency bounds how many scanners run at once. Zero or less means
	// all at once.
	Concurrency int
	// Progress logs the elapsed time periodically until every scanner returned.
	Progress bool
}

// Status is the outcome of one scanner.
type Status struct {
	Category types.Category
	Scanner  string
	Findings int
	Duration time.Duration
	Err      error
}

// Run executes scanners concurrently and waits for all of them before
// building the aggregate, so the aggregate is only touched from this
// goroutine. Results are appended in category order.
//
// A failing scanner is logged and its category stays absent from the
// aggregate. Run fails only when every scanner failed.
func Run(ctx context.Context, scanners []Scanner, target Target, cover types.Cover, opts RunOptions) (*types.ScanAggregate, []Status, error) {
	if len(scanners) == 0 {
		return nil, nil, ErrNoScanner
	}
	scanners = slices.Clone(scanners)
	slices.SortStableFunc(scanners, func(a, b Scanner) int {
		return cmp.Compare(categoryRank(a.Category()), categoryRank(b.Category()))
	})

	results := make([][]types.Finding, len(scanners))
	statuses := make([]Status, len(scanners))

	var g errgroup.Group
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	stopProgress := startProgress(ctx, opts.Progress)
	for i, s := range scanners {
		g.Go(func() error {
			sctx := ctx
			if opts.Timeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(ctx, opts.Timeout)
				defer cancel()
			}
			start := time.Now()
			findings, err := s.Scan(sctx, target)
			statuses[i] = Status{
				Category: s.Category(),
				Scanner:  s.Name(),
				Findings: len(findings),
				Duration: time.Since(start),
				Err:      err,
			}
			if err != nil {
				slog.WarnContext(ctx, "Scanner failed, its category is left out of the report",
					"scanner", s.Name(), "category", s.Category(), "error", err)
				return nil
			}
			results[i] = findings
			return nil
		})
	}
	_ = g.Wait()
	stopProgress()

	agg := types.NewScanAggregate(cover)
	var errs []error
	for i, st := range statuses {
		if st.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", st.Scanner, st.Err))
			continue
		}
		agg.Append(st.Category, results[i]...)
	}
	if len(errs) == len(scanners) {
		return nil, statuses, errors.Join(errs...)
	}
	return agg, statuses, nil
}

func categoryRank(c types.Category) int {
	if i := slices.Index(types.Categories, c); i >= 0 {
		return i
	}
	return len(types.Categories)
}

// startProgress logs the elapsed time every ProgressInterval until the
// returned function is called.
func startProgress(ctx context.Context, enabled bool) func() {
	if !enabled {
		return func() {}
	}
	start := time.Now()
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		t := time.NewTicker(ProgressInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-t.C:
				slog.InfoContext(ctx, "Scanning", "elapsed", time.Since(start).Round(time.Second))
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
	}
}
