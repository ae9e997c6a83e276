package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stillhouse/lalcalc/pkg/domain/entities"
	"github.com/stillhouse/lalcalc/pkg/domain/services"
)

func TestLoader_LoadYAML(t *testing.T) {
	loader := NewLoader()
	ds, err := loader.LoadFile(filepath.Join("testdata", "batches.yaml"))
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}

	if len(ds.Products) != 1 || ds.Products[0].ProductID != "GIN-MM" {
		t.Errorf("Expected product GIN-MM, got %+v", ds.Products)
	}
	if len(ds.Batches) != 2 {
		t.Fatalf("Expected 2 batches, got %d", len(ds.Batches))
	}

	// months are sorted, so February comes first
	if ds.Batches[0].BatchID != "SPIRIT-GIN-RF-28" || ds.Batches[1].BatchID != "SPIRIT-GIN-MM-002" {
		t.Errorf("Unexpected batch order: %s, %s", ds.Batches[0].BatchID, ds.Batches[1].BatchID)
	}
	if ds.Months["SPIRIT-GIN-MM-002"] != "2025-03" {
		t.Errorf("Expected month 2025-03, got %q", ds.Months["SPIRIT-GIN-MM-002"])
	}

	mm := ds.Batches[1]
	if len(mm.Cuts.Tails.Segments) != 3 {
		t.Fatalf("Expected tails_segments folded into tails, got %d", len(mm.Cuts.Tails.Segments))
	}
	if mm.Cuts.Tails.Segments[2].Notes != "Final collection" {
		t.Errorf("Expected segment notes to survive, got %q", mm.Cuts.Tails.Segments[2].Notes)
	}
	if !mm.Cuts.Heads.Density.Equal(entities.MustQuantity("0.83")) {
		t.Errorf("Expected heads density 0.83, got %s", mm.Cuts.Heads.Density)
	}

	kpi := services.ComputeBatchKpi(*mm)
	if !kpi.TailsLAL.Equal(entities.MustQuantity("251.6")) {
		t.Errorf("Expected tails 251.6, got %s", kpi.TailsLAL)
	}
	if kpi.Flags.Contains(entities.FlagKpiIncompleteData) {
		t.Errorf("Did not expect kpi_incomplete_data, got %v", kpi.Flags)
	}
}

func TestLoader_FillChargeTotals(t *testing.T) {
	plain, err := NewLoader().LoadFile(filepath.Join("testdata", "batches.yaml"))
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}
	if plain.Batches[0].Charge.Total.LAL.Valid() {
		t.Errorf("Expected charge total to stay null without filling, got %s", plain.Batches[0].Charge.Total.LAL)
	}

	loader := &Loader{FillChargeTotals: true}
	filled, err := loader.LoadFile(filepath.Join("testdata", "batches.yaml"))
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}
	rf := filled.Batches[0]
	if !rf.Charge.Total.LAL.Equal(entities.MustQuantity("384")) {
		t.Errorf("Expected derived charge 384 LAL, got %s", rf.Charge.Total.LAL)
	}
	if !filled.Batches[1].Charge.Total.LAL.Equal(entities.MustQuantity("535")) {
		t.Errorf("Expected recorded charge 535 to be kept, got %s", filled.Batches[1].Charge.Total.LAL)
	}
}

func TestLoader_LoadJSON(t *testing.T) {
	ds, err := NewLoader().LoadFile(filepath.Join("testdata", "batches.json"))
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}
	if len(ds.Batches) != 1 {
		t.Fatalf("Expected 1 batch, got %d", len(ds.Batches))
	}

	vodka := ds.Batches[0]
	if _, listed := ds.Months[vodka.BatchID]; listed {
		t.Errorf("Expected a flat batch to have no month")
	}

	hearts := services.ComputeHeartsLal(vodka.Cuts)
	// 200 * 0.92 = 184.0, 150 * 0.905 = 135.8
	if !hearts.Value.Equal(entities.MustQuantity("319.8")) {
		t.Errorf("Expected hearts 319.8, got %s", hearts.Value)
	}

	check := services.CheckDilutionInvariance(*vodka)
	if check.Flags.Contains(entities.FlagLalDiscrepancy) {
		t.Errorf("Did not expect lal_discrepancy, got %v", check.Flags)
	}
}

func TestLoader_Errors(t *testing.T) {
	loader := NewLoader()

	testCases := []struct {
		name string
		load func() (*Dataset, error)
	}{
		{"missing file", func() (*Dataset, error) { return loader.LoadFile(filepath.Join("testdata", "missing.yaml")) }},
		{"unsupported extension", func() (*Dataset, error) { return loader.LoadFile(filepath.Join("testdata", "batches.csv")) }},
		{"malformed json", func() (*Dataset, error) { return loader.LoadJSON([]byte(`{"batches": [`)) }},
		{"bad quantity", func() (*Dataset, error) {
			return loader.LoadYAML([]byte("batches:\n  - batch_id: B1\n    cuts:\n      hearts: { volume_l: lots }\n"))
		}},
		{"empty batch id", func() (*Dataset, error) { return loader.LoadYAML([]byte("batches:\n  - product_id: GIN\n")) }},
		{"duplicate batch id", func() (*Dataset, error) {
			return loader.LoadYAML([]byte("batches:\n  - batch_id: B1\n  - batch_id: B1\n"))
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.load(); err == nil {
				t.Errorf("Expected error for %s", tc.name)
			}
		})
	}
}

func TestLoader_WrittenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.yml")
	content := "batches:\n  - batch_id: B1\n    charge:\n      total: { lal: 100 }\n    cuts:\n      hearts: { volume_l: 100, abv_percent: 60 }\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write dataset: %v", err)
	}

	ds, err := NewLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}
	kpi := services.ComputeBatchKpi(*ds.Batches[0])
	if !kpi.HeartsRecoveryPct.Equal(entities.MustQuantity("60")) {
		t.Errorf("Expected 60%% hearts recovery, got %s", kpi.HeartsRecoveryPct)
	}
}
