package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/stillhouse/lalcalc/pkg/interfaces/cli/commands"
)

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	// Command line flags
	var (
		datasetFile = flag.String("dataset", getEnv("LALCALC_DATASET", ""), "Path to batch dataset (.json, .yaml, .yml)")
		outputDir   = flag.String("output", "", "Output directory for results (optional)")
		format      = flag.String("format", getEnv("LALCALC_FORMAT", "text"), "Output format: text, json, csv")
		workers     = flag.Int("workers", getEnvInt("LALCALC_WORKERS", 0), "Batches evaluated concurrently (0 = CPU count)")
		fillCharge  = flag.Bool("fill-charge", false, "Derive missing charge totals from components")
		verbose     = flag.Bool("verbose", false, "Enable verbose output")
		help        = flag.Bool("help", false, "Show help message")

		updateBatch = flag.String("batch", "", "Batch to correct before reporting")
		updateCut   = flag.String("cut", "", "Cut to correct: foreshots, heads, hearts, tails")
		setVolume   = flag.String("volume", "", "Corrected volume in litres")
		setABV      = flag.String("abv", "", "Corrected ABV percent")
		setLAL      = flag.String("lal", "", "Corrected LAL")
		setDensity  = flag.String("density", "", "Corrected density")

		groupBy = flag.String("group", "", "Total batches by product or category")
		year    = flag.Int("year", 0, "Only group batches from this year")
		still   = flag.String("still", "", "Only group batches run on this still")
	)

	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Create command configuration
	config := commands.Config{
		DatasetFile: *datasetFile,
		OutputDir:   *outputDir,
		Format:      *format,
		Workers:     *workers,
		FillCharge:  *fillCharge,
		Verbose:     *verbose,
		Help:        *help,
		UpdateBatch: *updateBatch,
		UpdateCut:   *updateCut,
		SetVolume:   *setVolume,
		SetABV:      *setABV,
		SetLAL:      *setLAL,
		SetDensity:  *setDensity,
		GroupBy:     *groupBy,
		Year:        *year,
		Still:       *still,
		Logger:      logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Create and execute command
	cmd := commands.NewReportCommand(config)
	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring invalid integer environment variable", "key", key, "value", v)
		return fallback
	}
	return n
}
