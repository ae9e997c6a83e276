package services

import (
	"github.com/shopspring/decimal"

	"github.com/stillhouse/lalcalc/pkg/domain/entities"
)

// SumSegmentsLal sums the resolved LAL of each segment. Segments that cannot
// be resolved contribute their flags instead of a silent zero. The value is
// null when there are no segments or none resolves.
func SumSegmentsLal(segments []entities.Segment) entities.LalResult {
	total := decimal.Zero
	resolved := 0
	flags := entities.Flags{}

	for _, seg := range segments {
		r := CalcMeasurementLal(seg.Measurement)
		if r.Value.IsNull() {
			flags = flags.Merge(r.Flags)
			continue
		}
		total = total.Add(r.Value.Decimal())
		resolved++
	}

	if resolved == 0 {
		if len(segments) == 0 {
			return entities.LalResult{Value: entities.Null(), Flags: entities.Flags{}}
		}
		return entities.LalResult{Value: entities.Null(), Flags: flags}
	}

	return entities.LalResult{
		Value: entities.QuantityFromDecimal(total.Round(LalPlaces)),
		Flags: flags,
	}
}

// ComputePhaseLal resolves the LAL of one cut: a recorded phase LAL first,
// then the segment sum, then the consolidated volume and ABV. A blended
// measurement and its segments resolve to the same LAL when consistent.
func ComputePhaseLal(phase entities.CutPhase) entities.LalResult {
	if phase.LAL.Valid() {
		return entities.LalResult{Value: phase.LAL, Flags: entities.Flags{}}
	}
	if phase.HasSegments() {
		return SumSegmentsLal(phase.Segments)
	}
	return CalcMeasurementLal(phase.Measurement)
}

// ComputeForeshotsLal resolves the foreshots LAL
func ComputeForeshotsLal(cuts entities.Cuts) entities.LalResult {
	return ComputePhaseLal(cuts.Foreshots)
}

// ComputeHeadsLal resolves the heads LAL
func ComputeHeadsLal(cuts entities.Cuts) entities.LalResult {
	return ComputePhaseLal(cuts.Heads)
}

// ComputeHeartsLal resolves the hearts LAL
func ComputeHeartsLal(cuts entities.Cuts) entities.LalResult {
	return ComputePhaseLal(cuts.Hearts)
}

// ComputeTailsLal resolves the tails LAL
func ComputeTailsLal(cuts entities.Cuts) entities.LalResult {
	return ComputePhaseLal(cuts.Tails)
}
