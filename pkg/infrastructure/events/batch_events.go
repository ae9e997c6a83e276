package events

import (
	"github.com/stillhouse/lalcalc/pkg/domain/entities"
)

const (
	BatchEvaluatedEvent         = "batch.evaluated"
	BatchCutUpdatedEvent        = "batch.cut.updated"
	LalDiscrepancyDetectedEvent = "lal.discrepancy.detected"
	BatchValidationFailedEvent  = "batch.validation.failed"
)

type BatchEvaluated struct {
	Kpi entities.BatchKpi `json:"kpi"`
}

type BatchCutUpdated struct {
	BatchID entities.BatchID  `json:"batch_id"`
	Cut     string            `json:"cut"`
	OldLAL  entities.Quantity `json:"old_lal"`
	NewLAL  entities.Quantity `json:"new_lal"`
}

type LalDiscrepancyDetected struct {
	BatchID   entities.BatchID  `json:"batch_id"`
	HeartsLAL entities.Quantity `json:"hearts_lal"`
	FinalLAL  entities.Quantity `json:"final_lal"`
}

type BatchValidationFailed struct {
	BatchID entities.BatchID `json:"batch_id"`
	Errors  []string         `json:"errors"`
}
