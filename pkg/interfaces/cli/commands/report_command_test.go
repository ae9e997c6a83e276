package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var testDataset = filepath.Join("..", "..", "..", "infrastructure", "repositories", "dataset", "testdata", "batches.yaml")

func runCommand(t *testing.T, config Config) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	config.Stdout = &buf
	config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	err := NewReportCommand(config).Execute(context.Background())
	return buf.String(), err
}

type jsonReport struct {
	Batches []struct {
		BatchID string `json:"batch_id"`
		Month   string `json:"month"`
		Kpi     struct {
			ChargeLAL *float64 `json:"charge_lal"`
			HeadsLAL  *float64 `json:"heads_lal"`
			Flags     []string `json:"flags"`
		} `json:"kpi"`
	} `json:"batches"`
	Summary struct {
		IncompleteDataCount int `json:"incomplete_data_count"`
	} `json:"summary"`
}

func decodeReport(t *testing.T, out string) jsonReport {
	t.Helper()
	var report jsonReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("Output is not valid JSON: %v\n%s", err, out)
	}
	return report
}

func TestReportCommand_Text(t *testing.T) {
	out, err := runCommand(t, Config{DatasetFile: testDataset, Format: "text", Workers: 2})
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	for _, want := range []string{"SPIRIT-GIN-MM-002", "SPIRIT-GIN-RF-28", "2025-03", "kpi_incomplete_data"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q\n%s", want, out)
		}
	}
}

func TestReportCommand_FillCharge(t *testing.T) {
	out, err := runCommand(t, Config{DatasetFile: testDataset, Format: "json"})
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if report := decodeReport(t, out); report.Summary.IncompleteDataCount != 1 {
		t.Errorf("Expected the charge-less batch to be incomplete, got %d", report.Summary.IncompleteDataCount)
	}

	out, err = runCommand(t, Config{DatasetFile: testDataset, Format: "json", FillCharge: true})
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	report := decodeReport(t, out)
	if report.Summary.IncompleteDataCount != 0 {
		t.Errorf("Expected no incomplete batches after filling charges, got %d", report.Summary.IncompleteDataCount)
	}
	if charge := report.Batches[0].Kpi.ChargeLAL; charge == nil || *charge != 384 {
		t.Errorf("Expected derived charge 384, got %v", charge)
	}
}

func TestReportCommand_CutUpdate(t *testing.T) {
	out, err := runCommand(t, Config{
		DatasetFile: testDataset,
		Format:      "json",
		UpdateBatch: "SPIRIT-GIN-MM-002",
		UpdateCut:   "heads",
		SetABV:      "86.0",
	})
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}

	report := decodeReport(t, out)
	mm := report.Batches[1]
	if mm.BatchID != "SPIRIT-GIN-MM-002" {
		t.Fatalf("Expected MM-002 second, got %s", mm.BatchID)
	}
	if mm.Kpi.HeadsLAL == nil || *mm.Kpi.HeadsLAL != 10.3 {
		t.Errorf("Expected corrected heads 10.3, got %v", mm.Kpi.HeadsLAL)
	}
}

func TestReportCommand_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		config Config
	}{
		{"no dataset", Config{Format: "text"}},
		{"missing dataset", Config{DatasetFile: "missing.yaml", Format: "text"}},
		{"negative workers", Config{DatasetFile: testDataset, Format: "text", Workers: -1}},
		{"batch without cut", Config{DatasetFile: testDataset, Format: "text", UpdateBatch: "SPIRIT-GIN-MM-002"}},
		{"unknown cut", Config{DatasetFile: testDataset, Format: "text", UpdateBatch: "SPIRIT-GIN-MM-002", UpdateCut: "middles"}},
		{"bad value", Config{DatasetFile: testDataset, Format: "text", UpdateBatch: "SPIRIT-GIN-MM-002", UpdateCut: "heads", SetABV: "strong"}},
		{"unknown batch", Config{DatasetFile: testDataset, Format: "text", UpdateBatch: "NOPE", UpdateCut: "heads"}},
		{"unknown format", Config{DatasetFile: testDataset, Format: "xml"}},
		{"unknown grouping", Config{DatasetFile: testDataset, Format: "text", GroupBy: "still"}},
		{"year without group", Config{DatasetFile: testDataset, Format: "text", Year: 2025}},
		{"still without group", Config{DatasetFile: testDataset, Format: "text", Still: "Carrie"}},
		{"negative year", Config{DatasetFile: testDataset, Format: "text", GroupBy: "product", Year: -1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := runCommand(t, tc.config); err == nil {
				t.Errorf("Expected error for %s", tc.name)
			}
		})
	}
}

func TestReportCommand_Help(t *testing.T) {
	out, err := runCommand(t, Config{Help: true})
	if err != nil {
		t.Fatalf("Help failed: %v", err)
	}
	if !strings.Contains(out, "USAGE") {
		t.Errorf("Expected usage text, got %s", out)
	}
}

func TestReportCommand_Groups(t *testing.T) {
	out, err := runCommand(t, Config{
		DatasetFile: testDataset,
		Format:      "json",
		GroupBy:     "category",
		Year:        2025,
		Still:       "carrie",
	})
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}

	var report struct {
		Groups struct {
			GroupBy string `json:"group_by"`
			Groups  []struct {
				Key        string `json:"key"`
				BatchCount int    `json:"batch_count"`
			} `json:"groups"`
			Mismatches []struct {
				BatchID string `json:"batch_id"`
				Group   string `json:"group"`
			} `json:"still_mismatches"`
		} `json:"groups"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("Output is not valid JSON: %v\n%s", err, out)
	}

	groups := report.Groups
	if groups.GroupBy != "category" || len(groups.Groups) != 1 {
		t.Fatalf("Expected one category group, got %+v", groups)
	}
	if groups.Groups[0].Key != "gin" || groups.Groups[0].BatchCount != 1 {
		t.Errorf("Expected MM-002 alone in gin, got %+v", groups.Groups[0])
	}
	// RF-28 records no still
	if len(groups.Mismatches) != 1 || groups.Mismatches[0].BatchID != "SPIRIT-GIN-RF-28" || groups.Mismatches[0].Group != "uncategorized" {
		t.Errorf("Expected RF-28 as the only mismatch, got %+v", groups.Mismatches)
	}

	out, err = runCommand(t, Config{DatasetFile: testDataset, Format: "text", GroupBy: "product"})
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	for _, want := range []string{"By product:", "Merchant Mae Gin", "GIN-RF"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q\n%s", want, out)
		}
	}
}

const dilutedDataset = `
products:
  - { product_id: GIN-MM, display_name: Merchant Mae Gin, category: gin }
batches:
  - batch_id: SPIRIT-GIN-MM-003
    product_id: GIN-MM
    date: "2025-04-02"
    still_used: Carrie
    charge:
      total: { volume_l: 1000, abv_percent: 53.5, lal: 535.0 }
    cuts:
      hearts: { volume_l: 332.0, abv_percent: 82.4, lal: 273.6 }
    dilution:
      steps: []
      combined:
        final_output_run: { new_make_l: 332, total_volume_l: 729, lal: 270.0 }
`

func TestReportCommand_ListsDiscrepancies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diluted.yaml")
	if err := os.WriteFile(path, []byte(dilutedDataset), 0644); err != nil {
		t.Fatalf("Failed to write dataset: %v", err)
	}

	out, err := runCommand(t, Config{DatasetFile: path, Format: "text"})
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	for _, want := range []string{"LAL Discrepancies", "SPIRIT-GIN-MM-003: hearts 273.6, final 270.0 (-3.6)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q\n%s", want, out)
		}
	}

	out, err = runCommand(t, Config{DatasetFile: testDataset, Format: "text"})
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if strings.Contains(out, "LAL Discrepancies") {
		t.Errorf("Expected no discrepancy section for a pending dilution\n%s", out)
	}
}
