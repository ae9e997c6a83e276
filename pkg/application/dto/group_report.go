package dto

import (
	"github.com/stillhouse/lalcalc/pkg/domain/entities"
)

// GroupAggregate totals the KPIs of the batches sharing a product or category.
// Sums and percentages cover complete batches only.
type GroupAggregate struct {
	Key                string            `json:"key"`
	Label              string            `json:"label"`
	BatchCount         int               `json:"batch_count"`
	CompleteCount      int               `json:"complete_count"`
	ChargeLALSum       entities.Quantity `json:"charge_lal_sum"`
	HeartsLALSum       entities.Quantity `json:"hearts_lal_sum"`
	HeadsLALSum        entities.Quantity `json:"heads_lal_sum"`
	TailsLALSum        entities.Quantity `json:"tails_lal_sum"`
	OutLALSum          entities.Quantity `json:"out_lal_sum"`
	LossesLALSum       entities.Quantity `json:"losses_lal_sum"`
	HeartsRecoveryPct  entities.Quantity `json:"hearts_recovery_pct"`
	TotalRecoveryPct   entities.Quantity `json:"total_recovery_pct"`
	LossesPct          entities.Quantity `json:"losses_pct"`
	StillMismatchCount int               `json:"still_mismatch_count"`
	Flags              entities.Flags    `json:"flags"`
}

// StillMismatch is a batch left out because it ran on another still
type StillMismatch struct {
	BatchID   entities.BatchID `json:"batch_id"`
	StillUsed string           `json:"still_used"`
	Group     string           `json:"group"`
}

// Message describes the mismatch for reports
func (m StillMismatch) Message(still string) string {
	used := m.StillUsed
	if used == "" {
		used = "no still recorded"
	}
	return string(m.BatchID) + " ran on " + used + ", not " + still
}

// AggregateReport is a grouped view of one year's batches
type AggregateReport struct {
	GroupBy    string           `json:"group_by"`
	Year       int              `json:"year,omitempty"`
	Still      string           `json:"still,omitempty"`
	Groups     []GroupAggregate `json:"groups"`
	Mismatches []StillMismatch  `json:"still_mismatches"`
}
