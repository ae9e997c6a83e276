package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/stillhouse/lalcalc/pkg/application/dto"
	"github.com/stillhouse/lalcalc/pkg/domain/entities"
	"github.com/stillhouse/lalcalc/pkg/domain/repositories"
	domainservices "github.com/stillhouse/lalcalc/pkg/domain/services"
	"github.com/stillhouse/lalcalc/pkg/infrastructure/events"
)

// ReportConfig holds configuration for report generation
type ReportConfig struct {
	// Workers bounds the number of batches evaluated concurrently (0 = GOMAXPROCS)
	Workers int
	Logger  *slog.Logger
}

// ReportService evaluates batches into production reports
type ReportService struct {
	config     ReportConfig
	validator  *domainservices.BatchValidator
	eventStore events.EventStore
	logger     *slog.Logger
}

// NewReportService creates a report service with default configuration.
// eventStore may be nil, in which case nothing is published.
func NewReportService(eventStore events.EventStore) *ReportService {
	return NewReportServiceWithConfig(ReportConfig{}, eventStore)
}

// NewReportServiceWithConfig creates a report service with custom configuration
func NewReportServiceWithConfig(config ReportConfig, eventStore events.EventStore) *ReportService {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		config:     config,
		validator:  domainservices.NewBatchValidator(),
		eventStore: eventStore,
		logger:     logger,
	}
}

func (s *ReportService) workers() int {
	if s.config.Workers > 0 {
		return s.config.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// EvaluateBatch computes the KPI, dilution check and validation of one batch
func (s *ReportService) EvaluateBatch(batch entities.Batch) dto.BatchReport {
	validation := s.validator.ValidateBatch(batch)
	return dto.BatchReport{
		BatchID:  batch.BatchID,
		Kpi:      domainservices.ComputeBatchKpi(batch),
		Dilution: domainservices.CheckDilutionInvariance(batch),
		Errors:   validation.Errors,
		Warnings: validation.Warnings,
	}
}

// Generate evaluates every batch in the repository. Reports keep repository
// order regardless of which worker finished first. months may be nil.
func (s *ReportService) Generate(
	ctx context.Context,
	repo repositories.BatchRepository,
	months map[entities.BatchID]string,
) (*dto.ProductionReport, error) {
	batches, err := repo.GetAllBatches()
	if err != nil {
		return nil, fmt.Errorf("failed to read batches: %w", err)
	}

	reports := make([]dto.BatchReport, len(batches))
	sem := make(chan struct{}, s.workers())
	var wg sync.WaitGroup

dispatch:
	for i, batch := range batches {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(index int, b *entities.Batch) {
			defer wg.Done()
			defer func() { <-sem }()

			report := s.EvaluateBatch(*b)
			report.Month = months[b.BatchID]
			reports[index] = report
		}(i, batch)
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("report generation cancelled: %w", err)
	}

	for _, report := range reports {
		if err := s.publishReport(report); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("production report generated", "batches", len(reports))

	return &dto.ProductionReport{
		Batches: reports,
		Summary: Summarize(reports),
	}, nil
}

// UpdateCut applies a measurement patch to one cut of a stored batch,
// recomputes that cut's LAL and saves the result.
func (s *ReportService) UpdateCut(
	ctx context.Context,
	repo repositories.BatchRepository,
	id entities.BatchID,
	key entities.CutKey,
	patch entities.MeasurementPatch,
) (*entities.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch, err := repo.GetBatch(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch %s: %w", id, err)
	}

	updated := domainservices.ApplyLalOnCutUpdate(*batch, key, patch)
	if err := repo.SaveBatch(&updated); err != nil {
		return nil, fmt.Errorf("failed to save batch %s: %w", id, err)
	}

	err = s.publish(events.NewEvent(events.BatchCutUpdatedEvent, string(id), events.BatchCutUpdated{
		BatchID: id,
		Cut:     key.String(),
		OldLAL:  batch.Cuts.Phase(key).LAL,
		NewLAL:  updated.Cuts.Phase(key).LAL,
	}))
	if err != nil {
		return nil, err
	}

	s.logger.Debug("cut updated",
		"batch_id", id,
		"cut", key.String(),
		"lal", updated.Cuts.Phase(key).LAL.String())

	return &updated, nil
}

func (s *ReportService) publishReport(report dto.BatchReport) error {
	streamID := string(report.BatchID)

	if err := s.publish(events.NewEvent(events.BatchEvaluatedEvent, streamID,
		events.BatchEvaluated{Kpi: report.Kpi})); err != nil {
		return err
	}

	if report.HasDiscrepancy() {
		s.logger.Warn("lal discrepancy after dilution",
			"batch_id", report.BatchID,
			"hearts_lal", report.Kpi.HeartsLAL.String(),
			"final_lal", report.Dilution.Value.String())
		if err := s.publish(events.NewEvent(events.LalDiscrepancyDetectedEvent, streamID, events.LalDiscrepancyDetected{
			BatchID:   report.BatchID,
			HeartsLAL: report.Kpi.HeartsLAL,
			FinalLAL:  report.Dilution.Value,
		})); err != nil {
			return err
		}
	}

	if len(report.Errors) > 0 {
		if err := s.publish(events.NewEvent(events.BatchValidationFailedEvent, streamID, events.BatchValidationFailed{
			BatchID: report.BatchID,
			Errors:  report.Errors,
		})); err != nil {
			return err
		}
	}

	return nil
}

func (s *ReportService) publish(event events.Event) error {
	if s.eventStore == nil {
		return nil
	}
	if err := s.eventStore.AppendEvent(event.StreamID(), event); err != nil {
		return fmt.Errorf("failed to publish %s for %s: %w", event.Type(), event.StreamID(), err)
	}
	return nil
}

// Summarize totals a set of batch reports. The overall recovery only counts
// batches where both the charge and the output are known.
func Summarize(reports []dto.BatchReport) dto.ReportSummary {
	summary := dto.ReportSummary{BatchCount: len(reports)}

	var charge, out, hearts decimal.Decimal
	var recoveryCharge, recoveryOut decimal.Decimal
	var hasCharge, hasOut, hasHearts, hasRecovery bool

	for _, r := range reports {
		if r.Kpi.ChargeLAL.Valid() {
			charge = charge.Add(r.Kpi.ChargeLAL.Decimal())
			hasCharge = true
		}
		if r.Kpi.OutLAL.Valid() {
			out = out.Add(r.Kpi.OutLAL.Decimal())
			hasOut = true
		}
		if r.Kpi.HeartsLAL.Valid() {
			hearts = hearts.Add(r.Kpi.HeartsLAL.Decimal())
			hasHearts = true
		}
		if r.Kpi.ChargeLAL.Valid() && r.Kpi.OutLAL.Valid() {
			recoveryCharge = recoveryCharge.Add(r.Kpi.ChargeLAL.Decimal())
			recoveryOut = recoveryOut.Add(r.Kpi.OutLAL.Decimal())
			hasRecovery = true
		}

		if r.HasDiscrepancy() {
			summary.DiscrepancyCount++
		}
		if r.Kpi.Flags.Contains(entities.FlagKpiIncompleteData) {
			summary.IncompleteDataCount++
		}
		if len(r.Errors) > 0 {
			summary.InvalidCount++
		}
	}

	summary.TotalChargeLAL = presentOrNull(charge, hasCharge)
	summary.TotalOutLAL = presentOrNull(out, hasOut)
	summary.TotalHeartsLAL = presentOrNull(hearts, hasHearts)
	if hasRecovery && !recoveryCharge.IsZero() {
		pct := recoveryOut.Div(recoveryCharge).Mul(decimal.NewFromInt(100))
		summary.OverallRecoveryPct = entities.QuantityFromDecimal(pct)
	}

	return summary
}

func presentOrNull(d decimal.Decimal, present bool) entities.Quantity {
	if !present {
		return entities.Null()
	}
	return entities.QuantityFromDecimal(d)
}
