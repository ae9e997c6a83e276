package entities

// Flag is a diagnostic marker attached to a derived value. The set is closed:
// collaborators match on these strings for warning styling.
type Flag string

const (
	FlagMissingABV             Flag = "missing_abv"
	FlagMissingVolume          Flag = "missing_volume"
	FlagNeedsDensityConversion Flag = "needs_density_conversion"
	FlagKpiIncompleteData      Flag = "kpi_incomplete_data"
	FlagLalDiscrepancy         Flag = "lal_discrepancy"
)

// Flags is an ordered list of diagnostic flags
type Flags []Flag

// Contains reports whether f is present
func (fs Flags) Contains(f Flag) bool {
	for _, existing := range fs {
		if existing == f {
			return true
		}
	}
	return false
}

// Merge appends the given flags, skipping ones already present.
// The receiver is not modified.
func (fs Flags) Merge(others ...Flags) Flags {
	merged := make(Flags, 0, len(fs))
	for _, f := range fs {
		if !merged.Contains(f) {
			merged = append(merged, f)
		}
	}
	for _, other := range others {
		for _, f := range other {
			if !merged.Contains(f) {
				merged = append(merged, f)
			}
		}
	}
	return merged
}

// Strings returns the flags as plain strings
func (fs Flags) Strings() []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	return out
}

// LalResult is a derived value plus the flags explaining why it may be null
type LalResult struct {
	Value Quantity `json:"value"`
	Flags Flags    `json:"flags"`
}
