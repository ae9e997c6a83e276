package services

import (
	"fmt"
	"strings"

	"github.com/stillhouse/lalcalc/pkg/domain/entities"
)

// BatchValidator checks the data integrity of batch records
type BatchValidator struct{}

// NewBatchValidator creates a new batch validator
func NewBatchValidator() *BatchValidator {
	return &BatchValidator{}
}

// ValidationResult contains the results of batch validation
type ValidationResult struct {
	BatchID  entities.BatchID
	Errors   []string
	Warnings []string
}

// Valid reports whether no errors were found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// ValidateBatch checks readings for impossible values. Missing values are not
// errors: in-progress batches are expected to be incomplete.
func (v *BatchValidator) ValidateBatch(batch entities.Batch) *ValidationResult {
	result := &ValidationResult{
		BatchID:  batch.BatchID,
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
	}

	if strings.TrimSpace(string(batch.BatchID)) == "" {
		result.Errors = append(result.Errors, "batch id cannot be empty")
	}

	for i, c := range batch.Charge.Components {
		label := fmt.Sprintf("charge component %d (%s)", i+1, c.Source)
		v.checkReading(result, label, c.VolumeL, c.ABVPercent, c.LAL)
	}
	v.checkReading(result, "charge total", batch.Charge.Total.VolumeL, batch.Charge.Total.ABVPercent, batch.Charge.Total.LAL)
	v.checkChargeConsistency(result, batch.Charge)

	for _, key := range entities.AllCuts {
		phase := batch.Cuts.Phase(key)
		v.checkReading(result, key.String(), phase.VolumeL, phase.ABVPercent, phase.LAL)
		for i, seg := range phase.Segments {
			label := fmt.Sprintf("%s segment %d", key, i+1)
			v.checkReading(result, label, seg.VolumeL, seg.ABVPercent, seg.LAL)
		}
	}

	if batch.Dilution != nil {
		for _, step := range batch.Dilution.Steps {
			label := fmt.Sprintf("dilution step %s", step.StepID)
			if step.WaterAddedL.IsNegative() {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: water added cannot be negative, got %s", label, step.WaterAddedL))
			}
			v.checkReading(result, label, step.NewVolumeL, step.TargetABVPercent, step.LAL)
		}
	}

	return result
}

// ValidateBatches validates every batch and returns the results in order
func (v *BatchValidator) ValidateBatches(batches []entities.Batch) []*ValidationResult {
	results := make([]*ValidationResult, 0, len(batches))
	for _, b := range batches {
		results = append(results, v.ValidateBatch(b))
	}
	return results
}

// checkReading validates the ranges of one volume/ABV/LAL triple
func (v *BatchValidator) checkReading(result *ValidationResult, label string, volume, abv, lal entities.Quantity) {
	if volume.IsNegative() {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: volume cannot be negative, got %s", label, volume))
	}
	if abv.Valid() && (abv.IsNegative() || abv.Decimal().GreaterThan(hundred)) {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: ABV must be between 0 and 100, got %s", label, abv))
	}
	if lal.IsNegative() {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: LAL cannot be negative, got %s", label, lal))
	}
}

// checkChargeConsistency warns when the recorded charge LAL drifts from its components
func (v *BatchValidator) checkChargeConsistency(result *ValidationResult, charge entities.Charge) {
	if charge.Total.LAL.IsNull() || len(charge.Components) == 0 {
		return
	}
	derived, _ := ComputeChargeTotal(charge.Components)
	if derived.LAL.IsNull() {
		return
	}
	gap := charge.Total.LAL.Decimal().Sub(derived.LAL.Decimal()).Abs()
	if gap.GreaterThan(DilutionTolerance) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"charge total LAL %s differs from component sum %s by %s",
			charge.Total.LAL, derived.LAL, gap.StringFixed(1)))
	}
}
