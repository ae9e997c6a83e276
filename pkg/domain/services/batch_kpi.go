package services

import (
	"github.com/shopspring/decimal"

	"github.com/stillhouse/lalcalc/pkg/domain/entities"
)

// ComputeBatchKpi derives the recovery and loss figures of one batch.
//
// Foreshots are reported but never counted as output. Missing heads or tails
// do not block the computation; a missing charge or hearts LAL does and is
// flagged kpi_incomplete_data. Losses may be negative (apparent gain) and are
// passed through unclamped. Percentages are left unrounded.
func ComputeBatchKpi(batch entities.Batch) entities.BatchKpi {
	chargeLAL := batch.Charge.Total.LAL
	foreshots := ComputeForeshotsLal(batch.Cuts)
	heads := ComputeHeadsLal(batch.Cuts)
	hearts := ComputeHeartsLal(batch.Cuts)
	tails := ComputeTailsLal(batch.Cuts)

	kpi := entities.BatchKpi{
		BatchID:      batch.BatchID,
		ChargeLAL:    chargeLAL,
		ForeshotsLAL: foreshots.Value,
		HeadsLAL:     heads.Value,
		HeartsLAL:    hearts.Value,
		TailsLAL:     tails.Value,
	}

	flags := entities.Flags{}
	if chargeLAL.IsNull() || hearts.Value.IsNull() {
		flags = append(flags, entities.FlagKpiIncompleteData)
	}
	kpi.Flags = flags.Merge(hearts.Flags, heads.Flags, tails.Flags)

	out, anyOut := sumPresent(heads.Value, hearts.Value, tails.Value)
	if anyOut {
		kpi.OutLAL = entities.QuantityFromDecimal(out)
		if chargeLAL.Valid() {
			kpi.LossesLAL = entities.QuantityFromDecimal(chargeLAL.Decimal().Sub(out))
		}
	}

	kpi.HeartsRecoveryPct = percentOf(hearts.Value, chargeLAL)
	kpi.TotalRecoveryPct = percentOf(kpi.OutLAL, chargeLAL)
	kpi.HeadsRatioPct = percentOf(heads.Value, chargeLAL)
	kpi.TailsRatioPct = percentOf(tails.Value, chargeLAL)
	if kpi.TotalRecoveryPct.Valid() {
		kpi.LossesPct = entities.QuantityFromDecimal(hundred.Sub(kpi.TotalRecoveryPct.Decimal()))
	}

	return kpi
}

// percentOf returns 100*part/whole, null when either side is null or whole is zero
func percentOf(part, whole entities.Quantity) entities.Quantity {
	if part.IsNull() || whole.IsNull() || whole.Decimal().IsZero() {
		return entities.Null()
	}
	return entities.QuantityFromDecimal(part.Decimal().Mul(hundred).Div(whole.Decimal()))
}

// sumPresent adds the non-null quantities and reports whether any was present
func sumPresent(values ...entities.Quantity) (decimal.Decimal, bool) {
	total := decimal.Zero
	found := false
	for _, v := range values {
		if v.Valid() {
			total = total.Add(v.Decimal())
			found = true
		}
	}
	return total, found
}
