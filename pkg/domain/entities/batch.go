package entities

import (
	"fmt"
	"strings"
)

// BatchID represents a unique distillation batch identifier
type BatchID string

// CutKey names one of the four distillation cuts
type CutKey int

const (
	Foreshots CutKey = iota
	Heads
	Hearts
	Tails
)

// AllCuts lists the cuts in collection order
var AllCuts = []CutKey{Foreshots, Heads, Hearts, Tails}

// String method for CutKey enum
func (k CutKey) String() string {
	switch k {
	case Foreshots:
		return "foreshots"
	case Heads:
		return "heads"
	case Hearts:
		return "hearts"
	case Tails:
		return "tails"
	default:
		return "unknown"
	}
}

// ParseCutKey converts a cut name into a CutKey
func ParseCutKey(s string) (CutKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "foreshots":
		return Foreshots, nil
	case "heads":
		return Heads, nil
	case "hearts":
		return Hearts, nil
	case "tails":
		return Tails, nil
	default:
		return 0, fmt.Errorf("unknown cut: %q", s)
	}
}

// Measurement is a single physical reading. LAL, when present, is ground truth.
type Measurement struct {
	VolumeL    Quantity `json:"volume_l" yaml:"volume_l"`
	ABVPercent Quantity `json:"abv_percent" yaml:"abv_percent"`
	LAL        Quantity `json:"lal" yaml:"lal"`
	Density    Quantity `json:"density" yaml:"density"`
}

// Segment is a partial collection within a cut, e.g. tails collected over two days
type Segment struct {
	Measurement `yaml:",inline"`
	Date        string `json:"date,omitempty" yaml:"date,omitempty"`
	TimeStart   string `json:"time_start,omitempty" yaml:"time_start,omitempty"`
	Notes       string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// CutPhase holds the consolidated measurement of a cut and its optional segments
type CutPhase struct {
	Measurement     `yaml:",inline"`
	VolumePercent   Quantity  `json:"volume_percent" yaml:"volume_percent"`
	ReceivingVessel string    `json:"receiving_vessel,omitempty" yaml:"receiving_vessel,omitempty"`
	TimeStart       string    `json:"time_start,omitempty" yaml:"time_start,omitempty"`
	Notes           string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	Segments        []Segment `json:"segments,omitempty" yaml:"segments,omitempty"`
}

// HasSegments reports whether the phase is represented by segments
func (p CutPhase) HasSegments() bool {
	return len(p.Segments) > 0
}

// Cuts holds the four phases of one run
type Cuts struct {
	Foreshots CutPhase `json:"foreshots" yaml:"foreshots"`
	Heads     CutPhase `json:"heads" yaml:"heads"`
	Hearts    CutPhase `json:"hearts" yaml:"hearts"`
	Tails     CutPhase `json:"tails" yaml:"tails"`
}

// Phase returns the phase for a key
func (c Cuts) Phase(key CutKey) CutPhase {
	switch key {
	case Foreshots:
		return c.Foreshots
	case Heads:
		return c.Heads
	case Hearts:
		return c.Hearts
	default:
		return c.Tails
	}
}

// SetPhase replaces the phase for a key
func (c *Cuts) SetPhase(key CutKey, phase CutPhase) {
	switch key {
	case Foreshots:
		c.Foreshots = phase
	case Heads:
		c.Heads = phase
	case Hearts:
		c.Hearts = phase
	default:
		c.Tails = phase
	}
}

// ChargeComponent is one input loaded into the still
type ChargeComponent struct {
	Source     string   `json:"source" yaml:"source"`
	VolumeL    Quantity `json:"volume_l" yaml:"volume_l"`
	ABVPercent Quantity `json:"abv_percent" yaml:"abv_percent"`
	LAL        Quantity `json:"lal" yaml:"lal"`
}

// ChargeTotal is the precomputed still charge
type ChargeTotal struct {
	VolumeL    Quantity `json:"volume_l" yaml:"volume_l"`
	ABVPercent Quantity `json:"abv_percent" yaml:"abv_percent"`
	LAL        Quantity `json:"lal" yaml:"lal"`
}

// Charge is the still input
type Charge struct {
	Components []ChargeComponent `json:"components" yaml:"components"`
	Total      ChargeTotal       `json:"total" yaml:"total"`
	Notes      string            `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// DilutionStep records water added to reach a new strength
type DilutionStep struct {
	StepID           string   `json:"step_id" yaml:"step_id"`
	SourceVolumeL    Quantity `json:"source_volume_l" yaml:"source_volume_l"`
	WaterAddedL      Quantity `json:"water_added_l" yaml:"water_added_l"`
	NewVolumeL       Quantity `json:"new_volume_l" yaml:"new_volume_l"`
	TargetABVPercent Quantity `json:"target_abv_percent" yaml:"target_abv_percent"`
	LAL              Quantity `json:"lal" yaml:"lal"`
	Note             string   `json:"calculation_note,omitempty" yaml:"calculation_note,omitempty"`
}

// FinalOutputRun is the combined output after all dilution steps
type FinalOutputRun struct {
	TotalVolumeL Quantity `json:"total_volume_l" yaml:"total_volume_l"`
	NewMakeL     Quantity `json:"new_make_l" yaml:"new_make_l"`
	LAL          Quantity `json:"lal" yaml:"lal"`
	Notes        string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// DilutionCombined holds the combined dilution result
type DilutionCombined struct {
	FinalOutputRun FinalOutputRun `json:"final_output_run" yaml:"final_output_run"`
	Notes          string         `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Dilution is the proofing chain applied to the hearts
type Dilution struct {
	InstructionsNote string           `json:"instructions_note,omitempty" yaml:"instructions_note,omitempty"`
	Steps            []DilutionStep   `json:"steps" yaml:"steps"`
	Combined         DilutionCombined `json:"combined" yaml:"combined"`
}

// Batch is an immutable snapshot of one distillation run
type Batch struct {
	BatchID     BatchID   `json:"batch_id" yaml:"batch_id"`
	ProductID   string    `json:"product_id,omitempty" yaml:"product_id,omitempty"`
	SKU         string    `json:"sku,omitempty" yaml:"sku,omitempty"`
	DisplayName string    `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Date        string    `json:"date,omitempty" yaml:"date,omitempty"`
	StillUsed   string    `json:"still_used,omitempty" yaml:"still_used,omitempty"`
	Charge      Charge    `json:"charge" yaml:"charge"`
	Cuts        Cuts      `json:"cuts" yaml:"cuts"`
	Dilution    *Dilution `json:"dilution,omitempty" yaml:"dilution,omitempty"`
}

// NewBatch creates a validated Batch
func NewBatch(id BatchID, productID, date string, charge Charge, cuts Cuts, dilution *Dilution) (*Batch, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, fmt.Errorf("batch id cannot be empty")
	}
	return &Batch{
		BatchID:   id,
		ProductID: productID,
		Date:      date,
		Charge:    charge,
		Cuts:      cuts,
		Dilution:  dilution,
	}, nil
}

// Clone returns a deep copy of the batch
func (b Batch) Clone() Batch {
	out := b
	out.Charge.Components = append([]ChargeComponent(nil), b.Charge.Components...)
	for _, key := range AllCuts {
		phase := b.Cuts.Phase(key)
		phase.Segments = append([]Segment(nil), phase.Segments...)
		out.Cuts.SetPhase(key, phase)
	}
	if b.Dilution != nil {
		d := *b.Dilution
		d.Steps = append([]DilutionStep(nil), b.Dilution.Steps...)
		out.Dilution = &d
	}
	return out
}

// FinalOutputLAL returns the bottled LAL after dilution, null when absent
func (b Batch) FinalOutputLAL() Quantity {
	if b.Dilution == nil {
		return Null()
	}
	return b.Dilution.Combined.FinalOutputRun.LAL
}

// BatchKpi holds the derived recovery figures of one batch.
// Percentages are unrounded.
type BatchKpi struct {
	BatchID           BatchID  `json:"batch_id"`
	ChargeLAL         Quantity `json:"charge_lal"`
	OutLAL            Quantity `json:"out_lal"`
	LossesLAL         Quantity `json:"losses_lal"`
	ForeshotsLAL      Quantity `json:"foreshots_lal"`
	HeadsLAL          Quantity `json:"heads_lal"`
	HeartsLAL         Quantity `json:"hearts_lal"`
	TailsLAL          Quantity `json:"tails_lal"`
	HeartsRecoveryPct Quantity `json:"hearts_recovery_pct"`
	TotalRecoveryPct  Quantity `json:"total_recovery_pct"`
	LossesPct         Quantity `json:"losses_pct"`
	HeadsRatioPct     Quantity `json:"heads_ratio_pct"`
	TailsRatioPct     Quantity `json:"tails_ratio_pct"`
	Flags             Flags    `json:"flags"`
}
