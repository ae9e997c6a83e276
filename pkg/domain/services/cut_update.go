package services

import "github.com/stillhouse/lalcalc/pkg/domain/entities"

// ApplyLalOnCutUpdate returns a copy of batch with the patch applied to one
// cut and that cut's LAL recomputed. The input batch is never modified.
//
// When the cut has segments they are the source of truth: the phase LAL
// becomes the segment sum and a patched LAL is ignored. Otherwise the LAL is
// resolved from the merged measurement, so a recorded LAL survives unless
// the patch clears it.
func ApplyLalOnCutUpdate(batch entities.Batch, key entities.CutKey, patch entities.MeasurementPatch) entities.Batch {
	next := batch.Clone()
	phase := next.Cuts.Phase(key)

	if phase.HasSegments() {
		patch.LAL = entities.Patch{}
		phase.Measurement = patch.Apply(phase.Measurement)
		phase.LAL = SumSegmentsLal(phase.Segments).Value
	} else {
		phase.Measurement = patch.Apply(phase.Measurement)
		phase.LAL = CalcMeasurementLal(phase.Measurement).Value
	}

	next.Cuts.SetPhase(key, phase)
	return next
}
