package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stillhouse/lalcalc/pkg/application/dto"
	"github.com/stillhouse/lalcalc/pkg/domain/entities"
	domainservices "github.com/stillhouse/lalcalc/pkg/domain/services"
	"github.com/stillhouse/lalcalc/pkg/infrastructure/repositories/dataset"
)

// GroupDim selects how Aggregate buckets batches
type GroupDim string

const (
	GroupByProduct  GroupDim = "product"
	GroupByCategory GroupDim = "category"
)

const uncategorized = "uncategorized"

var hundred = decimal.NewFromInt(100)

// ParseGroupDim parses a grouping name
func ParseGroupDim(s string) (GroupDim, error) {
	switch GroupDim(strings.ToLower(strings.TrimSpace(s))) {
	case GroupByProduct:
		return GroupByProduct, nil
	case GroupByCategory:
		return GroupByCategory, nil
	default:
		return "", fmt.Errorf("unknown grouping %q (want product or category)", s)
	}
}

// FlattenBatchesForYear returns the batches listed under a month of year, in
// dataset order. Batches without a month bucket fall back to their run date.
// A year of zero keeps every batch.
func FlattenBatchesForYear(ds *dataset.Dataset, year int) []*entities.Batch {
	if year == 0 {
		return append([]*entities.Batch(nil), ds.Batches...)
	}

	prefix := fmt.Sprintf("%04d-", year)
	var batches []*entities.Batch
	for _, b := range ds.Batches {
		month, ok := ds.Months[b.BatchID]
		if !ok {
			month = b.Date
		}
		if strings.HasPrefix(month, prefix) {
			batches = append(batches, b)
		}
	}
	return batches
}

// FilterByStill splits batches into those run on still and the rest.
// Matching ignores case; an empty still matches everything.
func FilterByStill(batches []*entities.Batch, still string) (kept, mismatched []*entities.Batch) {
	still = strings.TrimSpace(still)
	if still == "" {
		return batches, nil
	}
	for _, b := range batches {
		if strings.EqualFold(strings.TrimSpace(b.StillUsed), still) {
			kept = append(kept, b)
		} else {
			mismatched = append(mismatched, b)
		}
	}
	return kept, mismatched
}

// groupTotals accumulates one group while batches are folded in
type groupTotals struct {
	agg dto.GroupAggregate

	charge, hearts, heads, tails, out, losses decimal.Decimal
}

// Aggregate groups a year's batches by product or category and totals their
// KPIs. Only batches with every KPI input present contribute to the sums;
// the others mark their group kpi_incomplete_data. Batches run on a still
// other than still are counted per group and listed, never summed.
func Aggregate(ds *dataset.Dataset, year int, still string, dim GroupDim) (*dto.AggregateReport, error) {
	if dim != GroupByProduct && dim != GroupByCategory {
		return nil, fmt.Errorf("unknown grouping %q", dim)
	}

	products := make(map[string]entities.Product, len(ds.Products))
	for _, p := range ds.Products {
		products[p.ProductID] = p
	}

	kept, mismatched := FilterByStill(FlattenBatchesForYear(ds, year), still)

	groups := make(map[string]*groupTotals)
	for _, b := range kept {
		key, label := groupOf(b, products, dim)
		g, ok := groups[key]
		if !ok {
			g = &groupTotals{agg: dto.GroupAggregate{Key: key, Label: label, Flags: entities.Flags{}}}
			groups[key] = g
		}
		g.add(domainservices.ComputeBatchKpi(*b))
	}

	report := &dto.AggregateReport{
		GroupBy:    string(dim),
		Year:       year,
		Still:      strings.TrimSpace(still),
		Mismatches: []dto.StillMismatch{},
	}

	for _, b := range mismatched {
		key, _ := groupOf(b, products, dim)
		if g, ok := groups[key]; ok {
			g.agg.StillMismatchCount++
		}
		report.Mismatches = append(report.Mismatches, dto.StillMismatch{
			BatchID:   b.BatchID,
			StillUsed: b.StillUsed,
			Group:     key,
		})
	}

	report.Groups = make([]dto.GroupAggregate, 0, len(groups))
	for _, g := range groups {
		report.Groups = append(report.Groups, g.finish())
	}
	sort.Slice(report.Groups, func(i, j int) bool {
		a, b := strings.ToLower(report.Groups[i].Label), strings.ToLower(report.Groups[j].Label)
		if a != b {
			return a < b
		}
		return report.Groups[i].Key < report.Groups[j].Key
	})

	return report, nil
}

// groupOf returns the bucket key and display label of a batch
func groupOf(b *entities.Batch, products map[string]entities.Product, dim GroupDim) (string, string) {
	p, known := products[b.ProductID]

	if dim == GroupByCategory {
		if known && p.Category != "" {
			return p.Category, p.Category
		}
		return uncategorized, "Uncategorized"
	}

	switch {
	case known && p.DisplayName != "":
		return b.ProductID, p.DisplayName
	case known && p.SKU != "":
		return b.ProductID, p.SKU
	default:
		return b.ProductID, b.ProductID
	}
}

func (g *groupTotals) add(kpi entities.BatchKpi) {
	g.agg.BatchCount++
	g.agg.Flags = g.agg.Flags.Merge(kpi.Flags)

	parts := []entities.Quantity{kpi.ChargeLAL, kpi.HeartsLAL, kpi.HeadsLAL, kpi.TailsLAL, kpi.OutLAL, kpi.LossesLAL}
	for _, p := range parts {
		if p.IsNull() {
			g.agg.Flags = g.agg.Flags.Merge(entities.Flags{entities.FlagKpiIncompleteData})
			return
		}
	}

	g.agg.CompleteCount++
	g.charge = g.charge.Add(kpi.ChargeLAL.Decimal())
	g.hearts = g.hearts.Add(kpi.HeartsLAL.Decimal())
	g.heads = g.heads.Add(kpi.HeadsLAL.Decimal())
	g.tails = g.tails.Add(kpi.TailsLAL.Decimal())
	g.out = g.out.Add(kpi.OutLAL.Decimal())
	g.losses = g.losses.Add(kpi.LossesLAL.Decimal())
}

// finish fills in sums and one-decimal percentages
func (g *groupTotals) finish() dto.GroupAggregate {
	agg := g.agg
	agg.ChargeLALSum = entities.QuantityFromDecimal(g.charge)
	agg.HeartsLALSum = entities.QuantityFromDecimal(g.hearts)
	agg.HeadsLALSum = entities.QuantityFromDecimal(g.heads)
	agg.TailsLALSum = entities.QuantityFromDecimal(g.tails)
	agg.OutLALSum = entities.QuantityFromDecimal(g.out)
	agg.LossesLALSum = entities.QuantityFromDecimal(g.losses)

	if !g.charge.IsPositive() {
		agg.Flags = agg.Flags.Merge(entities.Flags{entities.FlagKpiIncompleteData})
		return agg
	}

	pct := func(d decimal.Decimal) entities.Quantity {
		return entities.QuantityFromDecimal(d.Mul(hundred).Div(g.charge).Round(1))
	}
	agg.HeartsRecoveryPct = pct(g.hearts)
	agg.TotalRecoveryPct = pct(g.out)
	agg.LossesPct = pct(g.losses)
	return agg
}
