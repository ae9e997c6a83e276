package services

import (
	"reflect"
	"testing"

	"github.com/stillhouse/lalcalc/pkg/domain/entities"
	testhelpers "github.com/stillhouse/lalcalc/pkg/infrastructure/testing"
)

func TestComputeBatchKpi_MerchantMae(t *testing.T) {
	b := testhelpers.BuildMerchantMaeBatch()
	k := ComputeBatchKpi(b)

	assertApprox(t, "charge_lal", k.ChargeLAL, 535, 0.05)
	assertApprox(t, "hearts_lal", k.HeartsLAL, 273.6, 0.05)
	assertApprox(t, "tails_lal", k.TailsLAL, 251.6, 0.05)
	assertApprox(t, "heads_lal", k.HeadsLAL, 10.4, 0.05)
	assertApprox(t, "foreshots_lal", k.ForeshotsLAL, 1.8, 0.05)
	assertApprox(t, "out_lal", k.OutLAL, 535.6, 0.05)
	assertApprox(t, "losses_lal", k.LossesLAL, -0.6, 0.05)
	assertApprox(t, "hearts_recovery_pct", k.HeartsRecoveryPct, 51.1, 0.05)
	assertApprox(t, "total_recovery_pct", k.TotalRecoveryPct, 100.1, 0.05)
	assertApprox(t, "losses_pct", k.LossesPct, -0.1, 0.05)
	assertApprox(t, "heads_ratio_pct", k.HeadsRatioPct, 1.94, 0.01)
	assertApprox(t, "tails_ratio_pct", k.TailsRatioPct, 47.03, 0.01)

	if k.Flags.Contains(entities.FlagKpiIncompleteData) {
		t.Errorf("Did not expect kpi_incomplete_data, got %v", k.Flags)
	}
	if !k.Flags.Contains(entities.FlagMissingABV) {
		t.Errorf("Expected the unresolved tails segment to surface missing_abv, got %v", k.Flags)
	}
}

func TestComputeBatchKpi_ForeshotsExcludedFromOutput(t *testing.T) {
	b := testhelpers.BuildMerchantMaeBatch()
	b.Cuts.Foreshots.LAL = q("50.0")

	k := ComputeBatchKpi(b)
	assertApprox(t, "out_lal", k.OutLAL, 535.6, 0.05)
}

func TestComputeBatchKpi_PercentagesAreNotRounded(t *testing.T) {
	k := ComputeBatchKpi(testhelpers.BuildMerchantMaeBatch())
	rounded := k.HeartsRecoveryPct.Round(1)
	if k.HeartsRecoveryPct.Equal(rounded) {
		t.Errorf("Expected unrounded hearts recovery, got %s", k.HeartsRecoveryPct)
	}
}

func TestComputeBatchKpi_IncompleteData(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*entities.Batch)
	}{
		{"missing charge", func(b *entities.Batch) { b.Charge.Total.LAL = entities.Null() }},
		{"missing hearts", func(b *entities.Batch) { b.Cuts.Hearts = entities.CutPhase{} }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := testhelpers.BuildMerchantMaeBatch()
			tc.mutate(&b)
			k := ComputeBatchKpi(b)
			if !k.Flags.Contains(entities.FlagKpiIncompleteData) {
				t.Errorf("Expected kpi_incomplete_data, got %v", k.Flags)
			}
		})
	}
}

func TestComputeBatchKpi_MissingHeadsAndTailsDoNotBlock(t *testing.T) {
	b := testhelpers.BuildMerchantMaeBatch()
	b.Cuts.Heads = entities.CutPhase{}
	b.Cuts.Tails = entities.CutPhase{}

	k := ComputeBatchKpi(b)
	if k.Flags.Contains(entities.FlagKpiIncompleteData) {
		t.Errorf("Did not expect kpi_incomplete_data, got %v", k.Flags)
	}
	assertApprox(t, "out_lal", k.OutLAL, 273.6, 0.05)
	assertApprox(t, "total_recovery_pct", k.TotalRecoveryPct, 51.14, 0.01)
	if k.HeadsRatioPct.Valid() || k.TailsRatioPct.Valid() {
		t.Errorf("Expected null heads/tails ratios, got %s / %s", k.HeadsRatioPct, k.TailsRatioPct)
	}
}

func TestComputeBatchKpi_ZeroChargeGuardsDivision(t *testing.T) {
	b := testhelpers.BuildMerchantMaeBatch()
	b.Charge.Total.LAL = q("0")

	k := ComputeBatchKpi(b)
	for name, v := range map[string]entities.Quantity{
		"hearts_recovery_pct": k.HeartsRecoveryPct,
		"total_recovery_pct":  k.TotalRecoveryPct,
		"losses_pct":          k.LossesPct,
	} {
		if v.Valid() {
			t.Errorf("%s: expected null for zero charge, got %s", name, v)
		}
	}
	assertApprox(t, "losses_lal", k.LossesLAL, -535.6, 0.05)
}

func TestComputeBatchKpi_NegativeLossesPassThrough(t *testing.T) {
	b := testhelpers.BuildMerchantMaeBatch()
	b.Charge.Total.LAL = q("500")

	k := ComputeBatchKpi(b)
	if !k.LossesLAL.IsNegative() || !k.LossesPct.IsNegative() {
		t.Errorf("Expected negative losses, got %s LAL / %s%%", k.LossesLAL, k.LossesPct)
	}
	if k.Flags.Contains(entities.FlagKpiIncompleteData) {
		t.Errorf("Negative losses are not incomplete data, got %v", k.Flags)
	}
}

func TestComputeBatchKpi_Idempotent(t *testing.T) {
	b := testhelpers.BuildMerchantMaeBatch()
	first := ComputeBatchKpi(b)
	second := ComputeBatchKpi(b)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical KPIs, got %+v and %+v", first, second)
	}
}
