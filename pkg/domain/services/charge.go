package services

import (
	"github.com/shopspring/decimal"

	"github.com/stillhouse/lalcalc/pkg/domain/entities"
)

// ComputeChargeTotal sums the still charge components. Each component LAL is
// resolved like any other reading; the blended ABV is derived from the summed
// LAL and volume. Unresolvable components leave the total LAL null.
func ComputeChargeTotal(components []entities.ChargeComponent) (entities.ChargeTotal, entities.Flags) {
	if len(components) == 0 {
		return entities.ChargeTotal{}, entities.Flags{entities.FlagMissingVolume}
	}

	volume := decimal.Zero
	lal := decimal.Zero
	volumeKnown, lalKnown := true, true
	flags := entities.Flags{}

	for _, c := range components {
		if c.VolumeL.Valid() {
			volume = volume.Add(c.VolumeL.Decimal())
		} else {
			volumeKnown = false
		}

		r := CalcLal(c.VolumeL, c.ABVPercent, c.LAL, entities.Null())
		if r.Value.IsNull() {
			lalKnown = false
			flags = flags.Merge(r.Flags)
			continue
		}
		lal = lal.Add(r.Value.Decimal())
	}

	total := entities.ChargeTotal{}
	if volumeKnown {
		total.VolumeL = entities.QuantityFromDecimal(volume)
	}
	if lalKnown {
		total.LAL = entities.QuantityFromDecimal(lal.Round(LalPlaces))
	}
	if volumeKnown && lalKnown && volume.IsPositive() {
		total.ABVPercent = entities.QuantityFromDecimal(lal.Mul(hundred).Div(volume).Round(LalPlaces))
	}
	return total, flags
}

// FillChargeTotal returns the charge with any missing total figures derived
// from its components. Recorded totals are kept.
func FillChargeTotal(charge entities.Charge) entities.Charge {
	derived, _ := ComputeChargeTotal(charge.Components)
	out := charge
	out.Components = append([]entities.ChargeComponent(nil), charge.Components...)
	if out.Total.VolumeL.IsNull() {
		out.Total.VolumeL = derived.VolumeL
	}
	if out.Total.ABVPercent.IsNull() {
		out.Total.ABVPercent = derived.ABVPercent
	}
	if out.Total.LAL.IsNull() {
		out.Total.LAL = derived.LAL
	}
	return out
}
