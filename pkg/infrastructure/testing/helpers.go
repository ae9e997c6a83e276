package testing

import (
	"github.com/stillhouse/lalcalc/pkg/domain/entities"
	"github.com/stillhouse/lalcalc/pkg/infrastructure/repositories/memory"
)

// q parses a fixture reading
func q(s string) entities.Quantity {
	return entities.MustQuantity(s)
}

// BuildMerchantMaeBatch builds the Merchant Mae Gin 002 run: 535 LAL charge,
// hearts recorded at 273.6 LAL, tails collected as three segments of which
// the last has no ABV reading, and a dilution still pending.
func BuildMerchantMaeBatch() entities.Batch {
	return entities.Batch{
		BatchID:     "SPIRIT-GIN-MM-002",
		ProductID:   "GIN-MM",
		SKU:         "Merchant Mae Gin",
		DisplayName: "Merchant Mae Gin 002",
		Date:        "2025-03-15",
		StillUsed:   "Carrie",
		Charge: entities.Charge{
			Components: []entities.ChargeComponent{
				{Source: "Ethanol (Manildra NC96)", VolumeL: q("500"), ABVPercent: q("96.0"), LAL: q("480.0")},
				{Source: "Filtered Water", VolumeL: q("500"), ABVPercent: q("0.0"), LAL: q("0.0")},
			},
			Total: entities.ChargeTotal{VolumeL: q("1000"), ABVPercent: q("53.5"), LAL: q("535.0")},
		},
		Cuts: entities.Cuts{
			Foreshots: entities.CutPhase{
				Measurement:     entities.Measurement{VolumeL: q("2.0"), ABVPercent: q("89.0"), Density: q("0.820")},
				ReceivingVessel: "Discarded 20L Waste",
				TimeStart:       "09:20",
			},
			Heads: entities.CutPhase{
				Measurement:     entities.Measurement{VolumeL: q("12.0"), ABVPercent: q("86.7"), Density: q("0.830")},
				ReceivingVessel: "FEINTS-GIN-MIX IBC-01",
				TimeStart:       "09:45",
			},
			Hearts: entities.CutPhase{
				Measurement:     entities.Measurement{VolumeL: q("332.0"), ABVPercent: q("82.4"), LAL: q("273.6")},
				ReceivingVessel: "GIN-NS-0017 VC-230",
				Notes:           "Collected over 2 days. Suggested add 397 L H2O",
			},
			Tails: entities.CutPhase{
				Measurement:     entities.Measurement{VolumeL: q("298.0")},
				ReceivingVessel: "FEINTS-GIN-MIX IBC-01",
				Notes:           "Collected over 2 days",
				Segments: []entities.Segment{
					{Measurement: entities.Measurement{VolumeL: q("135.0"), ABVPercent: q("89.0")}, Date: "2025-03-17", Notes: "Day 1 collection"},
					{Measurement: entities.Measurement{VolumeL: q("149.0"), ABVPercent: q("88.2")}, Date: "2025-03-18", Notes: "ABV dropping fast"},
					{Measurement: entities.Measurement{VolumeL: q("14.0")}, Date: "2025-03-18", Notes: "Final collection"},
				},
			},
		},
		Dilution: &entities.Dilution{
			InstructionsNote: "Suggested add 397 L H2O",
			Steps:            []entities.DilutionStep{},
			Combined: entities.DilutionCombined{
				Notes: "Pending dilution calculations",
			},
		},
	}
}

// BuildDilutedBatch returns the Merchant Mae run with a completed dilution
// whose final LAL is finalLAL.
func BuildDilutedBatch(finalLAL string) entities.Batch {
	b := BuildMerchantMaeBatch()
	b.Dilution = &entities.Dilution{
		Steps: []entities.DilutionStep{
			{
				StepID:           "D1",
				SourceVolumeL:    q("332.0"),
				WaterAddedL:      q("397.0"),
				NewVolumeL:       q("729.0"),
				TargetABVPercent: q("37.5"),
				LAL:              q(finalLAL),
			},
		},
		Combined: entities.DilutionCombined{
			FinalOutputRun: entities.FinalOutputRun{
				TotalVolumeL: q("729.0"),
				NewMakeL:     q("332.0"),
				LAL:          q(finalLAL),
			},
		},
	}
	return b
}

// BuildNavyStrengthBatch builds a run whose hearts are known only from two
// segments and whose consolidated hearts LAL was never recorded.
func BuildNavyStrengthBatch() entities.Batch {
	return entities.Batch{
		BatchID:   "SPIRIT-GIN-NS-018",
		ProductID: "GIN-NS",
		SKU:       "Navy Strength Gin",
		Date:      "2025-03-04",
		StillUsed: "Carrie",
		Charge: entities.Charge{
			Components: []entities.ChargeComponent{
				{Source: "Ethanol Manildra NC96", VolumeL: q("500"), ABVPercent: q("96.0"), LAL: q("480.0")},
				{Source: "Filtered Water", VolumeL: q("500"), ABVPercent: q("0.0")},
			},
			Total: entities.ChargeTotal{VolumeL: q("1000"), ABVPercent: q("50.3"), LAL: q("503.0")},
		},
		Cuts: entities.Cuts{
			Foreshots: entities.CutPhase{
				Measurement: entities.Measurement{VolumeL: q("2.0"), ABVPercent: q("85.0"), LAL: q("1.7")},
			},
			Heads: entities.CutPhase{
				Measurement: entities.Measurement{VolumeL: q("10.0"), ABVPercent: q("84.8"), LAL: q("8.5")},
			},
			Hearts: entities.CutPhase{
				Measurement: entities.Measurement{VolumeL: q("306.0")},
				Segments: []entities.Segment{
					{Measurement: entities.Measurement{VolumeL: q("185.0"), ABVPercent: q("83.0")}, TimeStart: "17:30"},
					{Measurement: entities.Measurement{VolumeL: q("121.0"), ABVPercent: q("82.0")}, TimeStart: "06:30"},
				},
			},
		},
	}
}

// BuildBatchRepository returns a repository holding the fixture batches
func BuildBatchRepository() *memory.BatchRepository {
	repo := memory.NewBatchRepository(3)
	mm := BuildMerchantMaeBatch()
	ns := BuildNavyStrengthBatch()
	diluted := BuildDilutedBatch("270.0")
	diluted.BatchID = "SPIRIT-GIN-MM-002-D"
	_ = repo.LoadBatches([]*entities.Batch{&mm, &ns, &diluted})
	return repo
}
