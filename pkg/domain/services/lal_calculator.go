package services

import (
	"github.com/shopspring/decimal"

	"github.com/stillhouse/lalcalc/pkg/domain/entities"
)

// LalPlaces is the precision derived LAL figures are rounded to
const LalPlaces = 1

var hundred = decimal.NewFromInt(100)

// CalcLal resolves the litres of absolute alcohol for one reading.
//
// Precedence, first match wins:
//  1. an existing LAL is returned unchanged
//  2. volume and ABV derive volume*abv/100, rounded to one decimal
//  3. volume without ABV is null with missing_abv, plus
//     needs_density_conversion when a density was read
//  4. otherwise null with missing_volume
func CalcLal(volume, abv, existing, density entities.Quantity) entities.LalResult {
	if existing.Valid() {
		return entities.LalResult{Value: existing, Flags: entities.Flags{}}
	}

	if volume.Valid() && abv.Valid() {
		lal := volume.Decimal().Mul(abv.Decimal()).Div(hundred).Round(LalPlaces)
		return entities.LalResult{Value: entities.QuantityFromDecimal(lal), Flags: entities.Flags{}}
	}

	if volume.Valid() {
		flags := entities.Flags{entities.FlagMissingABV}
		if density.Valid() {
			// density->ABV tables are supplied by the caller
			flags = append(flags, entities.FlagNeedsDensityConversion)
		}
		return entities.LalResult{Value: entities.Null(), Flags: flags}
	}

	return entities.LalResult{Value: entities.Null(), Flags: entities.Flags{entities.FlagMissingVolume}}
}

// CalcMeasurementLal applies CalcLal to a measurement
func CalcMeasurementLal(m entities.Measurement) entities.LalResult {
	return CalcLal(m.VolumeL, m.ABVPercent, m.LAL, m.Density)
}
