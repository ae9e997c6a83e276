package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stillhouse/lalcalc/pkg/domain/entities"
	"github.com/stillhouse/lalcalc/pkg/domain/services"
)

// Dataset is a loaded batch export
type Dataset struct {
	Products []entities.Product
	Batches  []*entities.Batch
	// Months maps each batch to the month bucket it was listed under
	Months map[entities.BatchID]string
}

// Loader reads batch datasets from JSON or YAML files
type Loader struct {
	// FillChargeTotals derives missing charge totals from the components
	FillChargeTotals bool
}

// NewLoader creates a new dataset loader
func NewLoader() *Loader {
	return &Loader{}
}

// rawDataset mirrors the export layout: batches grouped by month, or a flat list
type rawDataset struct {
	Products       []entities.Product    `json:"products" yaml:"products"`
	BatchesByMonth map[string][]rawBatch `json:"batches_by_month" yaml:"batches_by_month"`
	Batches        []rawBatch            `json:"batches" yaml:"batches"`
}

type rawBatch struct {
	BatchID     entities.BatchID   `json:"batch_id" yaml:"batch_id"`
	ProductID   string             `json:"product_id" yaml:"product_id"`
	SKU         string             `json:"sku" yaml:"sku"`
	DisplayName string             `json:"display_name" yaml:"display_name"`
	Date        string             `json:"date" yaml:"date"`
	StillUsed   string             `json:"still_used" yaml:"still_used"`
	Charge      entities.Charge    `json:"charge" yaml:"charge"`
	Cuts        rawCuts            `json:"cuts" yaml:"cuts"`
	Dilution    *entities.Dilution `json:"dilution" yaml:"dilution"`
}

// rawCuts accepts segments either nested in the phase or as sibling lists
type rawCuts struct {
	Foreshots      entities.CutPhase  `json:"foreshots" yaml:"foreshots"`
	Heads          entities.CutPhase  `json:"heads" yaml:"heads"`
	Hearts         entities.CutPhase  `json:"hearts" yaml:"hearts"`
	Tails          entities.CutPhase  `json:"tails" yaml:"tails"`
	HeartsSegments []entities.Segment `json:"hearts_segments" yaml:"hearts_segments"`
	TailsSegments  []entities.Segment `json:"tails_segments" yaml:"tails_segments"`
}

// LoadFile loads a dataset, choosing the decoder by file extension
func (l *Loader) LoadFile(filename string) (*Dataset, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file %s: %w", filename, err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return l.LoadJSON(data)
	case ".yaml", ".yml":
		return l.LoadYAML(data)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", filename)
	}
}

// LoadJSON decodes a JSON dataset
func (l *Loader) LoadJSON(data []byte) (*Dataset, error) {
	var raw rawDataset
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON dataset: %w", err)
	}
	return l.build(raw)
}

// LoadYAML decodes a YAML dataset
func (l *Loader) LoadYAML(data []byte) (*Dataset, error) {
	var raw rawDataset
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode YAML dataset: %w", err)
	}
	return l.build(raw)
}

// build converts the raw layout into batches ordered by month, then listing order
func (l *Loader) build(raw rawDataset) (*Dataset, error) {
	ds := &Dataset{
		Products: raw.Products,
		Batches:  make([]*entities.Batch, 0, len(raw.Batches)),
		Months:   make(map[entities.BatchID]string),
	}
	seen := make(map[entities.BatchID]bool)

	add := func(month string, index int, rb rawBatch) error {
		if strings.TrimSpace(string(rb.BatchID)) == "" {
			return fmt.Errorf("batch %d in %q: batch id cannot be empty", index+1, month)
		}
		if seen[rb.BatchID] {
			return fmt.Errorf("duplicate batch id: %s", rb.BatchID)
		}
		seen[rb.BatchID] = true

		batch := l.toBatch(rb)
		ds.Batches = append(ds.Batches, batch)
		if month != "" {
			ds.Months[batch.BatchID] = month
		}
		return nil
	}

	months := make([]string, 0, len(raw.BatchesByMonth))
	for month := range raw.BatchesByMonth {
		months = append(months, month)
	}
	sort.Strings(months)

	for _, month := range months {
		for i, rb := range raw.BatchesByMonth[month] {
			if err := add(month, i, rb); err != nil {
				return nil, err
			}
		}
	}
	for i, rb := range raw.Batches {
		if err := add("", i, rb); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

func (l *Loader) toBatch(rb rawBatch) *entities.Batch {
	cuts := entities.Cuts{
		Foreshots: rb.Cuts.Foreshots,
		Heads:     rb.Cuts.Heads,
		Hearts:    rb.Cuts.Hearts,
		Tails:     rb.Cuts.Tails,
	}
	cuts.Hearts.Segments = append(cuts.Hearts.Segments, rb.Cuts.HeartsSegments...)
	cuts.Tails.Segments = append(cuts.Tails.Segments, rb.Cuts.TailsSegments...)

	charge := rb.Charge
	if l.FillChargeTotals {
		charge = services.FillChargeTotal(charge)
	}

	return &entities.Batch{
		BatchID:     rb.BatchID,
		ProductID:   rb.ProductID,
		SKU:         rb.SKU,
		DisplayName: rb.DisplayName,
		Date:        rb.Date,
		StillUsed:   rb.StillUsed,
		Charge:      charge,
		Cuts:        cuts,
		Dilution:    rb.Dilution,
	}
}
