package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stillhouse/lalcalc/pkg/domain/entities"
)

// DilutionTolerance absorbs rounding through multi-step dilution chains
var DilutionTolerance = decimal.RequireFromString("0.5")

// CheckDilutionInvariance compares the hearts LAL entering dilution with the
// final bottled LAL. Adding water must not change LAL; a gap beyond
// DilutionTolerance is flagged lal_discrepancy. When either side is missing
// nothing is flagged, but the final LAL is still returned for display.
func CheckDilutionInvariance(batch entities.Batch) entities.LalResult {
	finalLAL := batch.FinalOutputLAL()
	hearts := ComputeHeartsLal(batch.Cuts)

	if finalLAL.IsNull() || hearts.Value.IsNull() {
		return entities.LalResult{Value: finalLAL, Flags: entities.Flags{}}
	}

	gap := hearts.Value.Decimal().Sub(finalLAL.Decimal()).Abs()
	if gap.GreaterThan(DilutionTolerance) {
		return entities.LalResult{Value: finalLAL, Flags: entities.Flags{entities.FlagLalDiscrepancy}}
	}
	return entities.LalResult{Value: finalLAL, Flags: entities.Flags{}}
}

// WaterNeeded returns the litres of water that bring volume from currentABV
// down to targetABV. It is zero when the spirit is already at or below the
// target and null when an input is missing or the target is not positive.
func WaterNeeded(volume, currentABV, targetABV entities.Quantity) entities.Quantity {
	if volume.IsNull() || currentABV.IsNull() || targetABV.IsNull() {
		return entities.Null()
	}
	target := targetABV.Decimal()
	if !target.IsPositive() {
		return entities.Null()
	}
	current := currentABV.Decimal()
	if current.LessThanOrEqual(target) {
		return entities.QuantityFromDecimal(decimal.Zero)
	}
	return entities.QuantityFromDecimal(volume.Decimal().Mul(current.Sub(target)).Div(target))
}

// ApplyDilutionStep adds water to a reading. LAL is carried over unchanged;
// volume grows and ABV is recomputed from the conserved LAL.
func ApplyDilutionStep(source entities.Measurement, waterL entities.Quantity) (entities.Measurement, error) {
	if waterL.IsNegative() {
		return entities.Measurement{}, fmt.Errorf("water added cannot be negative, got %s", waterL)
	}
	if source.VolumeL.IsNull() {
		return entities.Measurement{}, fmt.Errorf("source volume is required")
	}

	lal := CalcMeasurementLal(source)
	if lal.Value.IsNull() {
		return entities.Measurement{}, fmt.Errorf("source LAL cannot be resolved: %v", lal.Flags.Strings())
	}

	volume := source.VolumeL.Decimal().Add(waterL.Decimal())
	out := entities.Measurement{
		VolumeL: entities.QuantityFromDecimal(volume),
		LAL:     lal.Value,
	}
	if volume.IsPositive() {
		out.ABVPercent = entities.QuantityFromDecimal(lal.Value.Decimal().Mul(hundred).Div(volume))
	}
	return out, nil
}
