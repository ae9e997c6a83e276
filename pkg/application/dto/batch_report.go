package dto

import (
	"github.com/stillhouse/lalcalc/pkg/domain/entities"
)

// BatchReport is the evaluation of one batch
type BatchReport struct {
	BatchID  entities.BatchID   `json:"batch_id"`
	Month    string             `json:"month,omitempty"`
	Kpi      entities.BatchKpi  `json:"kpi"`
	Dilution entities.LalResult `json:"dilution"`
	Errors   []string           `json:"errors"`
	Warnings []string           `json:"warnings"`
}

// HasDiscrepancy reports whether dilution changed the LAL beyond tolerance
func (r BatchReport) HasDiscrepancy() bool {
	return r.Dilution.Flags.Contains(entities.FlagLalDiscrepancy)
}

// ReportSummary aggregates a set of batch reports
type ReportSummary struct {
	BatchCount          int               `json:"batch_count"`
	TotalChargeLAL      entities.Quantity `json:"total_charge_lal"`
	TotalOutLAL         entities.Quantity `json:"total_out_lal"`
	TotalHeartsLAL      entities.Quantity `json:"total_hearts_lal"`
	OverallRecoveryPct  entities.Quantity `json:"overall_recovery_pct"`
	DiscrepancyCount    int               `json:"discrepancy_count"`
	IncompleteDataCount int               `json:"incomplete_data_count"`
	InvalidCount        int               `json:"invalid_count"`
}

// ProductionReport contains the complete output of a report run
type ProductionReport struct {
	Batches       []BatchReport     `json:"batches"`
	Summary       ReportSummary     `json:"summary"`
	Discrepancies []DiscrepancyNote `json:"discrepancies,omitempty"`
	Groups        *AggregateReport  `json:"groups,omitempty"`
}

// DiscrepancyNote records a batch whose final LAL drifted from its hearts
type DiscrepancyNote struct {
	BatchID   entities.BatchID  `json:"batch_id"`
	HeartsLAL entities.Quantity `json:"hearts_lal"`
	FinalLAL  entities.Quantity `json:"final_lal"`
}

// Gap returns final minus hearts LAL
func (n DiscrepancyNote) Gap() entities.Quantity {
	if n.HeartsLAL.IsNull() || n.FinalLAL.IsNull() {
		return entities.Null()
	}
	return entities.QuantityFromDecimal(n.FinalLAL.Decimal().Sub(n.HeartsLAL.Decimal()))
}
