package entities

// Patch is a partial-update field: unset leaves the target untouched, set
// replaces it (a null value clears it).
type Patch struct {
	set   bool
	value Quantity
}

// Set returns a patch that replaces the field with q
func Set(q Quantity) Patch {
	return Patch{set: true, value: q}
}

// SetFloat returns a patch that replaces the field with f (NaN clears it)
func SetFloat(f float64) Patch {
	return Set(QuantityOf(f))
}

// Clear returns a patch that sets the field to null
func Clear() Patch {
	return Patch{set: true}
}

// IsSet reports whether the patch changes its field
func (p Patch) IsSet() bool {
	return p.set
}

// Apply returns the patched value of current
func (p Patch) Apply(current Quantity) Quantity {
	if !p.set {
		return current
	}
	return p.value
}

// MeasurementPatch is a partial update of a cut's consolidated measurement
type MeasurementPatch struct {
	VolumeL    Patch
	ABVPercent Patch
	LAL        Patch
	Density    Patch
}

// Apply returns m with the patch applied
func (p MeasurementPatch) Apply(m Measurement) Measurement {
	return Measurement{
		VolumeL:    p.VolumeL.Apply(m.VolumeL),
		ABVPercent: p.ABVPercent.Apply(m.ABVPercent),
		LAL:        p.LAL.Apply(m.LAL),
		Density:    p.Density.Apply(m.Density),
	}
}
