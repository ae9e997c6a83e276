package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/stillhouse/lalcalc/pkg/application/dto"
	"github.com/stillhouse/lalcalc/pkg/application/services"
	"github.com/stillhouse/lalcalc/pkg/domain/entities"
	"github.com/stillhouse/lalcalc/pkg/infrastructure/events"
	"github.com/stillhouse/lalcalc/pkg/infrastructure/repositories/dataset"
	"github.com/stillhouse/lalcalc/pkg/infrastructure/repositories/memory"
	"github.com/stillhouse/lalcalc/pkg/interfaces/cli/output"
)

// Config holds configuration for the report command
type Config struct {
	DatasetFile string
	OutputDir   string
	Format      string
	Workers     int
	FillCharge  bool
	Verbose     bool
	Help        bool

	// Cut correction applied before reporting. Empty values leave a field
	// untouched and "null" clears it.
	UpdateBatch string
	UpdateCut   string
	SetVolume   string
	SetABV      string
	SetLAL      string
	SetDensity  string

	// Grouped totals by product or category, optionally narrowed to one
	// year and one still
	GroupBy string
	Year    int
	Still   string

	Stdout io.Writer
	Logger *slog.Logger
}

// ReportCommand loads a batch dataset and prints its LAL report
type ReportCommand struct {
	config Config
	out    io.Writer
	logger *slog.Logger
}

// NewReportCommand creates a new report command with the given configuration
func NewReportCommand(config Config) *ReportCommand {
	out := config.Stdout
	if out == nil {
		out = os.Stdout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportCommand{
		config: config,
		out:    out,
		logger: logger,
	}
}

// Execute runs the report command
func (c *ReportCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	c.logger.Info("loading dataset", "file", c.config.DatasetFile)

	loader := &dataset.Loader{FillChargeTotals: c.config.FillCharge}
	ds, err := loader.LoadFile(c.config.DatasetFile)
	if err != nil {
		return fmt.Errorf("error loading dataset: %w", err)
	}

	c.logger.Info("dataset loaded",
		"products", len(ds.Products),
		"batches", len(ds.Batches))

	repo := memory.NewBatchRepository(len(ds.Batches))
	if err := repo.LoadBatches(ds.Batches); err != nil {
		return fmt.Errorf("failed to load batches into repository: %w", err)
	}

	store := events.NewInMemoryEventStoreWithLogger(c.logger)
	collector := events.NewDiscrepancyCollector()
	if err := store.Subscribe([]string{events.LalDiscrepancyDetectedEvent}, collector); err != nil {
		return fmt.Errorf("failed to subscribe discrepancy collector: %w", err)
	}
	defer store.Unsubscribe(collector)

	service := services.NewReportServiceWithConfig(services.ReportConfig{
		Workers: c.config.Workers,
		Logger:  c.logger,
	}, store)

	if c.config.UpdateBatch != "" {
		if err := c.applyCutUpdate(ctx, service, repo, store); err != nil {
			return err
		}
	}

	startTime := time.Now()
	report, err := service.Generate(ctx, repo, ds.Months)
	reportTime := time.Since(startTime)
	if err != nil {
		return fmt.Errorf("error generating report: %w", err)
	}

	published, _ := store.ReadAllEvents(0)
	c.logger.Info("report generated",
		"batches", report.Summary.BatchCount,
		"discrepancies", report.Summary.DiscrepancyCount,
		"events", len(published),
		"duration", reportTime)

	for _, d := range collector.Discrepancies() {
		report.Discrepancies = append(report.Discrepancies, dto.DiscrepancyNote{
			BatchID:   d.BatchID,
			HeartsLAL: d.HeartsLAL,
			FinalLAL:  d.FinalLAL,
		})
	}

	if c.config.GroupBy != "" {
		groups, err := c.aggregate(ds, repo)
		if err != nil {
			return err
		}
		report.Groups = groups
	}

	err = output.Generate(report, output.Config{
		Format:     c.config.Format,
		OutputDir:  c.config.OutputDir,
		Verbose:    c.config.Verbose,
		ReportTime: reportTime,
		Writer:     c.out,
	})
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	return nil
}

// aggregate groups the repository's current batches, so a cut correction
// shows up in the totals
func (c *ReportCommand) aggregate(ds *dataset.Dataset, repo *memory.BatchRepository) (*dto.AggregateReport, error) {
	dim, err := services.ParseGroupDim(c.config.GroupBy)
	if err != nil {
		return nil, fmt.Errorf("invalid -group: %w", err)
	}

	current, err := repo.GetAllBatches()
	if err != nil {
		return nil, fmt.Errorf("failed to read batches: %w", err)
	}

	groups, err := services.Aggregate(&dataset.Dataset{
		Products: ds.Products,
		Batches:  current,
		Months:   ds.Months,
	}, c.config.Year, c.config.Still, dim)
	if err != nil {
		return nil, fmt.Errorf("error aggregating batches: %w", err)
	}

	c.logger.Info("batches grouped",
		"group_by", groups.GroupBy,
		"groups", len(groups.Groups),
		"still_mismatches", len(groups.Mismatches))
	return groups, nil
}

func (c *ReportCommand) applyCutUpdate(ctx context.Context, service *services.ReportService, repo *memory.BatchRepository, store events.EventStore) error {
	key, err := entities.ParseCutKey(c.config.UpdateCut)
	if err != nil {
		return fmt.Errorf("invalid -cut: %w", err)
	}

	var patch entities.MeasurementPatch
	fields := []struct {
		name  string
		value string
		into  *entities.Patch
	}{
		{"volume", c.config.SetVolume, &patch.VolumeL},
		{"abv", c.config.SetABV, &patch.ABVPercent},
		{"lal", c.config.SetLAL, &patch.LAL},
		{"density", c.config.SetDensity, &patch.Density},
	}
	for _, f := range fields {
		p, err := parsePatch(f.value)
		if err != nil {
			return fmt.Errorf("invalid -%s: %w", f.name, err)
		}
		*f.into = p
	}

	updated, err := service.UpdateCut(ctx, repo, entities.BatchID(c.config.UpdateBatch), key, patch)
	if err != nil {
		return fmt.Errorf("error updating cut: %w", err)
	}

	history, err := store.ReadEvents(string(updated.BatchID), 1)
	if err != nil {
		return fmt.Errorf("failed to read batch history: %w", err)
	}

	c.logger.Info("cut updated",
		"batch_id", updated.BatchID,
		"cut", key.String(),
		"lal", updated.Cuts.Phase(key).LAL.String(),
		"updates", len(history))
	return nil
}

// parsePatch leaves empty input unset; anything else sets the field
func parsePatch(s string) (entities.Patch, error) {
	if strings.TrimSpace(s) == "" {
		return entities.Patch{}, nil
	}
	q, err := entities.ParseQuantity(s)
	if err != nil {
		return entities.Patch{}, err
	}
	return entities.Set(q), nil
}

// validateInputs validates the command configuration
func (c *ReportCommand) validateInputs() error {
	if c.config.DatasetFile == "" {
		return fmt.Errorf("must specify a -dataset file")
	}
	if _, err := os.Stat(c.config.DatasetFile); os.IsNotExist(err) {
		return fmt.Errorf("dataset file not found: %s", c.config.DatasetFile)
	}
	if c.config.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", c.config.Workers)
	}
	if c.config.UpdateBatch != "" && c.config.UpdateCut == "" {
		return fmt.Errorf("-batch requires -cut")
	}
	if c.config.GroupBy == "" && (c.config.Year != 0 || c.config.Still != "") {
		return fmt.Errorf("-year and -still require -group")
	}
	if c.config.GroupBy != "" {
		if _, err := services.ParseGroupDim(c.config.GroupBy); err != nil {
			return err
		}
	}
	if c.config.Year < 0 {
		return fmt.Errorf("year cannot be negative, got %d", c.config.Year)
	}
	return nil
}

// showHelp displays the help message
func (c *ReportCommand) showHelp() {
	fmt.Fprintf(c.out, `lalcalc - LAL accounting for distillery batches

USAGE:
    lalcalc -dataset <file> [options]

OPTIONS:
    -dataset <file>     Batch dataset (.json, .yaml or .yml)
    -output <dir>       Output directory for results (optional)
    -format <fmt>       Output format: text, json, csv (default: text)
    -workers <n>        Batches evaluated concurrently (default: CPU count)
    -fill-charge        Derive missing charge totals from charge components
    -verbose            Enable verbose output
    -help               Show this help message

CUT CORRECTION:
    -batch <id>         Batch to correct before reporting
    -cut <name>         foreshots, heads, hearts or tails
    -volume <litres>    New volume ("null" clears it)
    -abv <percent>      New ABV ("null" clears it)
    -lal <litres>       New LAL ("null" clears it)
    -density <g/ml>     New density reading

GROUPED TOTALS:
    -group <dim>        Total complete batches by product or category
    -year <yyyy>        Only batches from this year (requires -group)
    -still <name>       Only batches run on this still (requires -group)

ENVIRONMENT (also read from .env):
    LALCALC_DATASET     Default for -dataset
    LALCALC_FORMAT      Default for -format
    LALCALC_WORKERS     Default for -workers

EXAMPLES:
    # Monthly report
    lalcalc -dataset data/batches.yaml

    # Recompute heads after a late ABV reading
    lalcalc -dataset data/batches.yaml -batch SPIRIT-GIN-MM-002 -cut heads -abv 86.0 -lal null

    # Yearly totals per product for one still
    lalcalc -dataset data/batches.yaml -group product -year 2025 -still Carrie

    # KPI spreadsheet
    lalcalc -dataset data/batches.yaml -format csv -output results/
`)
}
