package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/stillhouse/lalcalc/pkg/application/dto"
)

// Config holds configuration for output generation
type Config struct {
	Format     string
	OutputDir  string
	Verbose    bool
	ReportTime time.Duration
	// Writer receives console output; nil means os.Stdout
	Writer io.Writer
}

func (c Config) writer() io.Writer {
	if c.Writer == nil {
		return os.Stdout
	}
	return c.Writer
}

// Generate creates output in the specified format
func Generate(report *dto.ProductionReport, config Config) error {
	switch config.Format {
	case "text":
		return generateTextOutput(report, config)
	case "json":
		return generateJSONOutput(report, config)
	case "csv":
		return generateCSVOutput(report, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(report *dto.ProductionReport, config Config) error {
	var buf bytes.Buffer
	writeText(&buf, report, config)

	if _, err := config.writer().Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write text output: %w", err)
	}

	if config.OutputDir != "" {
		filename, err := saveFile(config.OutputDir, "lal_report.txt", buf.Bytes())
		if err != nil {
			return err
		}
		if config.Verbose {
			fmt.Fprintf(config.writer(), "💾 Results saved to: %s\n", filename)
		}
	}

	return nil
}

func writeText(w io.Writer, report *dto.ProductionReport, config Config) {
	s := report.Summary
	fmt.Fprintf(w, "📊 LAL Report Summary\n")
	fmt.Fprintf(w, "=====================\n\n")

	fmt.Fprintf(w, "Batches: %d\n", s.BatchCount)
	fmt.Fprintf(w, "Charge LAL: %s\n", s.TotalChargeLAL.StringFixed(1))
	fmt.Fprintf(w, "Out LAL: %s\n", s.TotalOutLAL.StringFixed(1))
	fmt.Fprintf(w, "Hearts LAL: %s\n", s.TotalHeartsLAL.StringFixed(1))
	fmt.Fprintf(w, "Overall Recovery: %s%%\n", s.OverallRecoveryPct.StringFixed(1))
	fmt.Fprintf(w, "Discrepancies: %d\n", s.DiscrepancyCount)
	fmt.Fprintf(w, "Incomplete: %d\n", s.IncompleteDataCount)
	if config.ReportTime > 0 {
		fmt.Fprintf(w, "Report Time: %v\n", config.ReportTime)
	}
	fmt.Fprintln(w)

	if len(report.Batches) == 0 {
		return
	}

	fmt.Fprintf(w, "🥃 Batches:\n")
	fmt.Fprintf(w, "%-24s %-8s %-9s %-9s %-9s %-9s %-9s %-9s %-10s %-s\n",
		"Batch", "Month", "Charge", "Hearts", "Out", "Losses", "Hearts%", "Total%", "Final", "Flags")
	fmt.Fprintf(w, "%-24s %-8s %-9s %-9s %-9s %-9s %-9s %-9s %-10s %-s\n",
		"------------------------", "--------", "---------", "---------", "---------",
		"---------", "---------", "---------", "----------", "-----")

	for _, b := range report.Batches {
		flags := b.Kpi.Flags.Merge(b.Dilution.Flags)
		fmt.Fprintf(w, "%-24s %-8s %-9s %-9s %-9s %-9s %-9s %-9s %-10s %-s\n",
			b.BatchID,
			b.Month,
			b.Kpi.ChargeLAL.StringFixed(1),
			b.Kpi.HeartsLAL.StringFixed(1),
			b.Kpi.OutLAL.StringFixed(1),
			b.Kpi.LossesLAL.StringFixed(1),
			b.Kpi.HeartsRecoveryPct.StringFixed(1),
			b.Kpi.TotalRecoveryPct.StringFixed(1),
			b.Dilution.Value.StringFixed(1),
			strings.Join(flags.Strings(), ","))
	}
	fmt.Fprintln(w)

	var issues []string
	for _, b := range report.Batches {
		for _, e := range b.Errors {
			issues = append(issues, fmt.Sprintf("  ❌ %s: %s", b.BatchID, e))
		}
		if config.Verbose {
			for _, warning := range b.Warnings {
				issues = append(issues, fmt.Sprintf("  ⚠️  %s: %s", b.BatchID, warning))
			}
		}
	}
	if len(issues) > 0 {
		fmt.Fprintf(w, "🔍 Validation:\n")
		for _, issue := range issues {
			fmt.Fprintln(w, issue)
		}
		fmt.Fprintln(w)
	}

	if len(report.Discrepancies) > 0 {
		fmt.Fprintf(w, "⚖️  LAL Discrepancies:\n")
		for _, d := range report.Discrepancies {
			fmt.Fprintf(w, "  %s: hearts %s, final %s (%s)\n",
				d.BatchID, d.HeartsLAL.StringFixed(1), d.FinalLAL.StringFixed(1), d.Gap().StringFixed(1))
		}
		fmt.Fprintln(w)
	}

	if report.Groups != nil {
		writeGroupsText(w, report.Groups)
	}
}

func writeGroupsText(w io.Writer, groups *dto.AggregateReport) {
	title := fmt.Sprintf("📦 By %s", groups.GroupBy)
	if groups.Year != 0 {
		title += fmt.Sprintf(" in %d", groups.Year)
	}
	if groups.Still != "" {
		title += fmt.Sprintf(" on %s", groups.Still)
	}
	fmt.Fprintf(w, "%s:\n", title)

	fmt.Fprintf(w, "%-24s %-7s %-8s %-9s %-9s %-9s %-9s %-9s %-9s %-9s %-s\n",
		"Group", "Batches", "Complete", "Charge", "Hearts", "Out", "Hearts%", "Total%", "Losses%", "Other", "Flags")
	fmt.Fprintf(w, "%-24s %-7s %-8s %-9s %-9s %-9s %-9s %-9s %-9s %-9s %-s\n",
		"------------------------", "-------", "--------", "---------", "---------", "---------",
		"---------", "---------", "---------", "---------", "-----")

	for _, g := range groups.Groups {
		fmt.Fprintf(w, "%-24s %-7d %-8d %-9s %-9s %-9s %-9s %-9s %-9s %-9d %-s\n",
			g.Label,
			g.BatchCount,
			g.CompleteCount,
			g.ChargeLALSum.StringFixed(1),
			g.HeartsLALSum.StringFixed(1),
			g.OutLALSum.StringFixed(1),
			g.HeartsRecoveryPct.StringFixed(1),
			g.TotalRecoveryPct.StringFixed(1),
			g.LossesPct.StringFixed(1),
			g.StillMismatchCount,
			strings.Join(g.Flags.Strings(), ","))
	}
	fmt.Fprintln(w)

	if len(groups.Mismatches) > 0 {
		fmt.Fprintf(w, "🚫 Excluded (%d on another still):\n", len(groups.Mismatches))
		for _, m := range groups.Mismatches {
			fmt.Fprintf(w, "  %s\n", m.Message(groups.Still))
		}
		fmt.Fprintln(w)
	}
}

// generateJSONOutput creates JSON output
func generateJSONOutput(report *dto.ProductionReport, config Config) error {
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.writer(), string(jsonData))
		return nil
	}

	filename, err := saveFile(config.OutputDir, "lal_report.json", jsonData)
	if err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes one table to the console: the group table when one
// was requested, batch KPIs otherwise. An output directory gets every table.
func generateCSVOutput(report *dto.ProductionReport, config Config) error {
	if config.OutputDir == "" {
		if report.Groups != nil {
			return writeGroupCSV(config.writer(), report.Groups)
		}
		return writeKpiCSV(config.writer(), report.Batches)
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	kpiFile := filepath.Join(config.OutputDir, "batch_kpis.csv")
	if err := writeCSVFile(kpiFile, func(w io.Writer) error { return writeKpiCSV(w, report.Batches) }); err != nil {
		return fmt.Errorf("failed to write batch KPI CSV: %w", err)
	}

	issuesFile := filepath.Join(config.OutputDir, "batch_issues.csv")
	if err := writeCSVFile(issuesFile, func(w io.Writer) error { return writeIssuesCSV(w, report.Batches) }); err != nil {
		return fmt.Errorf("failed to write batch issues CSV: %w", err)
	}

	var groupFile string
	if report.Groups != nil {
		groupFile = filepath.Join(config.OutputDir, "group_aggregates.csv")
		if err := writeCSVFile(groupFile, func(w io.Writer) error { return writeGroupCSV(w, report.Groups) }); err != nil {
			return fmt.Errorf("failed to write group CSV: %w", err)
		}
	}

	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 CSV results saved to:\n")
		fmt.Fprintf(config.writer(), "  Batch KPIs: %s\n", kpiFile)
		fmt.Fprintf(config.writer(), "  Batch Issues: %s\n", issuesFile)
		if groupFile != "" {
			fmt.Fprintf(config.writer(), "  Groups: %s\n", groupFile)
		}
	}

	return nil
}

var kpiHeader = []string{
	"batch_id", "month", "charge_lal", "foreshots_lal", "heads_lal", "hearts_lal", "tails_lal",
	"out_lal", "losses_lal", "hearts_recovery_pct", "total_recovery_pct", "losses_pct",
	"heads_ratio_pct", "tails_ratio_pct", "final_lal", "flags",
}

func writeKpiCSV(w io.Writer, batches []dto.BatchReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(kpiHeader); err != nil {
		return err
	}

	for _, b := range batches {
		k := b.Kpi
		flags := k.Flags.Merge(b.Dilution.Flags)
		record := []string{
			string(b.BatchID),
			b.Month,
			csvValue(k.ChargeLAL.String()),
			csvValue(k.ForeshotsLAL.String()),
			csvValue(k.HeadsLAL.String()),
			csvValue(k.HeartsLAL.String()),
			csvValue(k.TailsLAL.String()),
			csvValue(k.OutLAL.String()),
			csvValue(k.LossesLAL.String()),
			csvValue(k.HeartsRecoveryPct.StringFixed(2)),
			csvValue(k.TotalRecoveryPct.StringFixed(2)),
			csvValue(k.LossesPct.StringFixed(2)),
			csvValue(k.HeadsRatioPct.StringFixed(2)),
			csvValue(k.TailsRatioPct.StringFixed(2)),
			csvValue(b.Dilution.Value.String()),
			strings.Join(flags.Strings(), ";"),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

var groupHeader = []string{
	"group_by", "key", "label", "batches", "complete_batches", "charge_lal_sum", "heads_lal_sum",
	"hearts_lal_sum", "tails_lal_sum", "out_lal_sum", "losses_lal_sum", "hearts_recovery_pct",
	"total_recovery_pct", "losses_pct", "still_mismatches", "flags",
}

func writeGroupCSV(w io.Writer, groups *dto.AggregateReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(groupHeader); err != nil {
		return err
	}

	for _, g := range groups.Groups {
		record := []string{
			groups.GroupBy,
			g.Key,
			g.Label,
			strconv.Itoa(g.BatchCount),
			strconv.Itoa(g.CompleteCount),
			csvValue(g.ChargeLALSum.String()),
			csvValue(g.HeadsLALSum.String()),
			csvValue(g.HeartsLALSum.String()),
			csvValue(g.TailsLALSum.String()),
			csvValue(g.OutLALSum.String()),
			csvValue(g.LossesLALSum.String()),
			csvValue(g.HeartsRecoveryPct.String()),
			csvValue(g.TotalRecoveryPct.String()),
			csvValue(g.LossesPct.String()),
			strconv.Itoa(g.StillMismatchCount),
			strings.Join(g.Flags.Strings(), ";"),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeIssuesCSV(w io.Writer, batches []dto.BatchReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"batch_id", "severity", "message"}); err != nil {
		return err
	}

	for _, b := range batches {
		for _, e := range b.Errors {
			if err := cw.Write([]string{string(b.BatchID), "error", e}); err != nil {
				return err
			}
		}
		for _, warning := range b.Warnings {
			if err := cw.Write([]string{string(b.BatchID), "warning", warning}); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// csvValue leaves null cells empty
func csvValue(s string) string {
	if s == "null" || s == "-" {
		return ""
	}
	return s
}

func writeCSVFile(filename string, write func(io.Writer) error) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	return writeAndClose(file, write)
}

// writeAndClose reports a failed close unless the write already failed
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}

func saveFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(dir, name)
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return filename, nil
}
