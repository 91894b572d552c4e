package types

import "strings"

// Component is a single open-source component attribution reported by a scanner.
// Two components have the same identity when Name and Version match; licenses
// do not take part in identity.
type Component struct {
	Name             string   `json:"name" yaml:"name"`
	Version          string   `json:"version" yaml:"version"`
	Licenses         []string `json:"license" yaml:"license"`
	DownloadLocation string   `json:"download_location,omitempty" yaml:"download_location,omitempty"`
	Homepage         string   `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	CopyrightText    string   `json:"copyright_text,omitempty" yaml:"copyright_text,omitempty"`
	Comment          string   `json:"comment,omitempty" yaml:"comment,omitempty"`
	// Excluded is a soft delete: the component is kept in raw data but left out
	// of rendered reports.
	Excluded bool `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// SameIdentity reports whether c and o refer to the same component.
func (c Component) SameIdentity(o Component) bool {
	return c.Name == o.Name && c.Version == o.Version
}

func (c Component) HasLicense() bool {
	return len(c.Licenses) > 0
}

// AddLicense appends a license unless it is empty or already present.
func (c *Component) AddLicense(l string) {
	if l == "" {
		return
	}
	for _, existing := range c.Licenses {
		if existing == l {
			return
		}
	}
	c.Licenses = append(c.Licenses, l)
}

// Clone returns a deep copy of c.
func (c Component) Clone() Component {
	out := c
	if c.Licenses != nil {
		out.Licenses = append([]string(nil), c.Licenses...)
	}
	return out
}

// NormalizeLicenses trims blanks and drops duplicates while keeping the first-seen order.
func NormalizeLicenses(in []string) []string {
	var c Component
	for _, l := range in {
		c.AddLicense(strings.TrimSpace(l))
	}
	return c.Licenses
}
