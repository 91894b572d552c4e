package types

// Finding is one scanner's report about one file or binary path.
type Finding struct {
	// Path is slash separated and relative to the scanned root.
	Path       string      `json:"source_name_or_path" yaml:"source_name_or_path"`
	Category   Category    `json:"category" yaml:"category"`
	Components []Component `json:"oss_items" yaml:"oss_items"`
	Excluded   bool        `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Comment    string      `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// AllLicensed reports whether the finding has components and every one of them carries a license.
func (f Finding) AllLicensed() bool {
	if len(f.Components) == 0 {
		return false
	}
	for _, c := range f.Components {
		if !c.HasLicense() {
			return false
		}
	}
	return true
}

// NoneLicensed reports whether no component of the finding carries a license.
// A finding without components has no license either.
func (f Finding) NoneLicensed() bool {
	for _, c := range f.Components {
		if c.HasLicense() {
			return false
		}
	}
	return true
}

// SetExcluded flags the finding and all of its components.
func (f *Finding) SetExcluded() {
	f.Excluded = true
	for i := range f.Components {
		f.Components[i].Excluded = true
	}
}

// Clone returns a deep copy of f.
func (f Finding) Clone() Finding {
	out := f
	out.Components = CloneComponents(f.Components)
	return out
}

// CloneComponents deep-copies a component list so the copy shares no backing arrays with in.
func CloneComponents(in []Component) []Component {
	if in == nil {
		return nil
	}
	out := make([]Component, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
