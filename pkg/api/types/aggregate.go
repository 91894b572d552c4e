package types

import (
	"slices"
	"time"
)

// Cover records provenance for one orchestration run.
type Cover struct {
	Tool      string    `json:"tool" yaml:"tool"`
	StartTime time.Time `json:"start_time" yaml:"start_time"`
	InputPath string    `json:"input_path" yaml:"input_path"`
	Exclude   []string  `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Comment   string    `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// ScanAggregate holds every Finding of one run, keyed by category.
//
// It is populated by one Append per scanner invocation and is not safe for
// concurrent use.
type ScanAggregate struct {
	Cover    Cover                  `json:"cover" yaml:"cover"`
	Findings map[Category][]Finding `json:"findings" yaml:"findings"`
}

func NewScanAggregate(cover Cover) *ScanAggregate {
	return &ScanAggregate{
		Cover:    cover,
		Findings: make(map[Category][]Finding),
	}
}

// Append records the findings of one scanner invocation. The category becomes
// present even when findings is empty, since the scanner did run. The
// category is set on the stored copies, findings itself is left untouched.
func (a *ScanAggregate) Append(c Category, findings ...Finding) {
	if a.Findings == nil {
		a.Findings = make(map[Category][]Finding)
	}
	n := len(a.Findings[c])
	stored := append(a.Findings[c], findings...)
	for i := n; i < len(stored); i++ {
		stored[i].Category = c
	}
	a.Findings[c] = stored
}

// Has reports whether a scanner of category c contributed to the aggregate.
func (a *ScanAggregate) Has(c Category) bool {
	if a == nil || a.Findings == nil {
		return false
	}
	_, ok := a.Findings[c]
	return ok
}

// Categories returns the present categories in report order, followed by any
// non-standard categories sorted by name.
func (a *ScanAggregate) Categories() []Category {
	var out []Category
	seen := make(map[Category]bool)
	for _, c := range Categories {
		if a.Has(c) {
			out = append(out, c)
			seen[c] = true
		}
	}
	var extra []Category
	for c := range a.Findings {
		if !seen[c] {
			extra = append(extra, c)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// Components flattens the aggregate into an inventory. Excluded findings and
// components are skipped unless includeExcluded is set.
func (a *ScanAggregate) Components(includeExcluded bool) []Component {
	var out []Component
	for _, c := range a.Categories() {
		for _, f := range a.Findings[c] {
			if f.Excluded && !includeExcluded {
				continue
			}
			for _, comp := range f.Components {
				if comp.Excluded && !includeExcluded {
					continue
				}
				out = append(out, comp.Clone())
			}
		}
	}
	return out
}
