package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stillhouse/lalcalc/pkg/application/dto"
	"github.com/stillhouse/lalcalc/pkg/domain/entities"
	"github.com/stillhouse/lalcalc/pkg/infrastructure/events"
	"github.com/stillhouse/lalcalc/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/stillhouse/lalcalc/pkg/infrastructure/testing"
)

func TestReportService_Generate(t *testing.T) {
	store := events.NewInMemoryEventStore()
	service := NewReportServiceWithConfig(ReportConfig{Workers: 2}, store)
	repo := testhelpers.BuildBatchRepository()
	months := map[entities.BatchID]string{"SPIRIT-GIN-MM-002": "2025-03"}

	report, err := service.Generate(context.Background(), repo, months)
	if err != nil {
		t.Fatalf("Failed to generate report: %v", err)
	}

	expectedOrder := []entities.BatchID{"SPIRIT-GIN-MM-002", "SPIRIT-GIN-NS-018", "SPIRIT-GIN-MM-002-D"}
	if len(report.Batches) != len(expectedOrder) {
		t.Fatalf("Expected %d reports, got %d", len(expectedOrder), len(report.Batches))
	}
	for i, id := range expectedOrder {
		if report.Batches[i].BatchID != id {
			t.Errorf("Report %d: expected %s, got %s", i, id, report.Batches[i].BatchID)
		}
	}

	if report.Batches[0].Month != "2025-03" || report.Batches[1].Month != "" {
		t.Errorf("Unexpected months: %q, %q", report.Batches[0].Month, report.Batches[1].Month)
	}

	navy := report.Batches[1]
	if !navy.Kpi.HeartsLAL.Equal(entities.MustQuantity("252.8")) {
		t.Errorf("Expected navy strength hearts 252.8, got %s", navy.Kpi.HeartsLAL)
	}
	if !navy.Kpi.OutLAL.Equal(entities.MustQuantity("261.3")) {
		t.Errorf("Expected navy strength out 261.3, got %s", navy.Kpi.OutLAL)
	}

	if report.Batches[0].HasDiscrepancy() {
		t.Errorf("Pending dilution should not be a discrepancy")
	}
	if !report.Batches[2].HasDiscrepancy() {
		t.Errorf("Expected discrepancy for the diluted batch, got %v", report.Batches[2].Dilution.Flags)
	}

	summary := report.Summary
	if summary.BatchCount != 3 {
		t.Errorf("Expected 3 batches, got %d", summary.BatchCount)
	}
	if !summary.TotalChargeLAL.Equal(entities.MustQuantity("1573")) {
		t.Errorf("Expected total charge 1573, got %s", summary.TotalChargeLAL)
	}
	if !summary.TotalOutLAL.Equal(entities.MustQuantity("1332.5")) {
		t.Errorf("Expected total out 1332.5, got %s", summary.TotalOutLAL)
	}
	if !summary.TotalHeartsLAL.Equal(entities.MustQuantity("800")) {
		t.Errorf("Expected total hearts 800, got %s", summary.TotalHeartsLAL)
	}
	if got := summary.OverallRecoveryPct.StringFixed(2); got != "84.71" {
		t.Errorf("Expected overall recovery 84.71, got %s", got)
	}
	if summary.DiscrepancyCount != 1 || summary.IncompleteDataCount != 0 || summary.InvalidCount != 0 {
		t.Errorf("Unexpected counts: %+v", summary)
	}

	all, _ := store.ReadAllEvents(0)
	if len(all) != 4 {
		t.Fatalf("Expected 3 evaluations and 1 discrepancy event, got %d", len(all))
	}
	discrepancies, _ := store.ReadEvents("SPIRIT-GIN-MM-002-D", 1)
	if len(discrepancies) != 2 || discrepancies[1].Type() != events.LalDiscrepancyDetectedEvent {
		t.Fatalf("Expected a discrepancy event on the diluted batch stream, got %v", discrepancies)
	}
	payload, ok := discrepancies[1].Payload().(events.LalDiscrepancyDetected)
	if !ok || !payload.FinalLAL.Equal(entities.MustQuantity("270.0")) {
		t.Errorf("Unexpected discrepancy payload: %+v", discrepancies[1].Payload())
	}
}

func TestReportService_GenerateEmptyRepository(t *testing.T) {
	service := NewReportService(nil)
	report, err := service.Generate(context.Background(), memory.NewBatchRepository(0), nil)
	if err != nil {
		t.Fatalf("Failed to generate report: %v", err)
	}
	if len(report.Batches) != 0 {
		t.Errorf("Expected no reports, got %d", len(report.Batches))
	}
	if report.Summary.TotalChargeLAL.Valid() || report.Summary.OverallRecoveryPct.Valid() {
		t.Errorf("Expected null totals for an empty report, got %+v", report.Summary)
	}
}

func TestReportService_GenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := events.NewInMemoryEventStore()
	service := NewReportService(store)
	_, err := service.Generate(ctx, testhelpers.BuildBatchRepository(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if all, _ := store.ReadAllEvents(0); len(all) != 0 {
		t.Errorf("Expected no events after cancellation, got %d", len(all))
	}
}

func TestReportService_ValidationFailedEvent(t *testing.T) {
	store := events.NewInMemoryEventStore()
	service := NewReportService(store)

	b := testhelpers.BuildNavyStrengthBatch()
	b.Cuts.Heads.ABVPercent = entities.MustQuantity("120")
	repo := memory.NewBatchRepository(1)
	if err := repo.SaveBatch(&b); err != nil {
		t.Fatalf("Failed to save batch: %v", err)
	}

	report, err := service.Generate(context.Background(), repo, nil)
	if err != nil {
		t.Fatalf("Failed to generate report: %v", err)
	}
	if report.Summary.InvalidCount != 1 {
		t.Errorf("Expected 1 invalid batch, got %d", report.Summary.InvalidCount)
	}

	stream, _ := store.ReadEvents(string(b.BatchID), 1)
	if len(stream) != 2 || stream[1].Type() != events.BatchValidationFailedEvent {
		t.Errorf("Expected evaluation then validation failure, got %v", stream)
	}
}

func TestReportService_UpdateCut(t *testing.T) {
	store := events.NewInMemoryEventStore()
	service := NewReportService(store)
	repo := testhelpers.BuildBatchRepository()

	patch := entities.MeasurementPatch{ABVPercent: entities.SetFloat(86.0), LAL: entities.Clear()}
	updated, err := service.UpdateCut(context.Background(), repo, "SPIRIT-GIN-MM-002", entities.Heads, patch)
	if err != nil {
		t.Fatalf("Failed to update cut: %v", err)
	}

	// 12.0 * 86.0 / 100
	if !updated.Cuts.Heads.LAL.Equal(entities.MustQuantity("10.3")) {
		t.Errorf("Expected heads LAL 10.3, got %s", updated.Cuts.Heads.LAL)
	}

	stored, _ := repo.GetBatch("SPIRIT-GIN-MM-002")
	if !stored.Cuts.Heads.LAL.Equal(entities.MustQuantity("10.3")) {
		t.Errorf("Expected stored heads LAL 10.3, got %s", stored.Cuts.Heads.LAL)
	}

	stream, _ := store.ReadEvents("SPIRIT-GIN-MM-002", 1)
	if len(stream) != 1 || stream[0].Type() != events.BatchCutUpdatedEvent {
		t.Fatalf("Expected one cut update event, got %v", stream)
	}
	payload := stream[0].Payload().(events.BatchCutUpdated)
	if payload.Cut != "heads" || payload.OldLAL.Valid() || !payload.NewLAL.Equal(entities.MustQuantity("10.3")) {
		t.Errorf("Unexpected cut update payload: %+v", payload)
	}
}

func TestReportService_UpdateCutUnknownBatch(t *testing.T) {
	service := NewReportService(nil)
	_, err := service.UpdateCut(context.Background(), memory.NewBatchRepository(0), "MISSING", entities.Hearts, entities.MeasurementPatch{})
	if err == nil {
		t.Errorf("Expected error for unknown batch")
	}
}

func TestSummarize_RecoveryIgnoresIncompleteBatches(t *testing.T) {
	reports := []dto.BatchReport{
		{Kpi: entities.BatchKpi{ChargeLAL: entities.MustQuantity("100"), OutLAL: entities.MustQuantity("90")}},
		{Kpi: entities.BatchKpi{ChargeLAL: entities.MustQuantity("100"), Flags: entities.Flags{entities.FlagKpiIncompleteData}}},
	}

	summary := Summarize(reports)
	if !summary.TotalChargeLAL.Equal(entities.MustQuantity("200")) {
		t.Errorf("Expected total charge 200, got %s", summary.TotalChargeLAL)
	}
	if !summary.OverallRecoveryPct.Equal(entities.MustQuantity("90")) {
		t.Errorf("Expected recovery 90, got %s", summary.OverallRecoveryPct)
	}
	if summary.IncompleteDataCount != 1 {
		t.Errorf("Expected 1 incomplete batch, got %d", summary.IncompleteDataCount)
	}
}
