// Package valuation computes market and assessed values for the three
// property kinds. Everything here is pure and deterministic: no I/O, no
// clock, no configuration lookups. Monetary amounts are fixed-point
// decimals rounded to two places at computation boundaries; rates and
// percentages are decimals where 12.5 means 12.5%.
package valuation

import (
	"github.com/shopspring/decimal"

	"cadastre/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Result carries the figures produced by one appraisal computation.
// BaseMarketValue is the pre-adjustment (land) or pre-depreciation
// (building/machinery) figure; MarketValue is the final appraised value;
// AssessedValue is the taxable value after the assessment level.
type Result struct {
	BaseMarketValue decimal.Decimal
	MarketValue     decimal.Decimal
	AssessedValue   decimal.Decimal
}

// Land appraises a land parcel:
//
//	base     = area × unit_value
//	adjusted = base × (1 + Σ adjustment_pct/100)
//	market   = adjusted + Σ (improvement.qty × improvement.unit_value)
//	assessed = market × assessment_level/100
func Land(d models.LandDetail) Result {
	base := d.Area.Mul(d.UnitValue).Round(2)

	adjPct := decimal.Zero
	for _, adj := range d.Adjustments {
		adjPct = adjPct.Add(adj.Pct)
	}
	adjusted := base.Mul(decimal.NewFromInt(1).Add(adjPct.Div(hundred))).Round(2)

	improvements := decimal.Zero
	for _, imp := range d.Improvements {
		improvements = improvements.Add(imp.Qty.Mul(imp.UnitValue))
	}
	market := adjusted.Add(improvements.Round(2))

	return Result{
		BaseMarketValue: base,
		MarketValue:     market,
		AssessedValue:   assess(market, d.AssessmentLevel),
	}
}

// Building appraises a building:
//
//	base     = unit_cost × total_floor_area + Σ additional_item_costs
//	market   = base × (1 − depreciation_rate/100)
//	assessed = market × assessment_level/100
func Building(d models.BuildingDetail) Result {
	base := d.UnitCost.Mul(d.TotalFloorArea)
	for _, item := range d.AdditionalItems {
		base = base.Add(item.Cost)
	}
	base = base.Round(2)

	market := base.Mul(decimal.NewFromInt(1).Sub(d.DepreciationRate.Div(hundred))).Round(2)

	return Result{
		BaseMarketValue: base,
		MarketValue:     market,
		AssessedValue:   assess(market, d.AssessmentLevel),
	}
}

// Machinery appraises machinery:
//
//	base        = RCN × conversion_factor
//	depreciated = base − base × depreciation_rate/100 × years_used,
//	              floored at base × residual_pct/100
//	assessed    = depreciated × assessment_level/100
//
// residualPct is the configured residual-value floor percentage.
func Machinery(d models.MachineryDetail, residualPct decimal.Decimal) Result {
	base := d.RCN.Mul(d.ConversionFactor).Round(2)

	totalDep := base.Mul(d.DepreciationRate.Div(hundred)).Mul(decimal.NewFromInt(int64(d.YearsUsed)))
	depreciated := base.Sub(totalDep).Round(2)

	floor := base.Mul(residualPct.Div(hundred)).Round(2)
	if depreciated.LessThan(floor) {
		depreciated = floor
	}

	return Result{
		BaseMarketValue: base,
		MarketValue:     depreciated,
		AssessedValue:   assess(depreciated, d.AssessmentLevel),
	}
}

// Compute dispatches to the variant matching the detail's kind.
// residualPct only applies to machinery.
func Compute(d models.Detail, residualPct decimal.Decimal) Result {
	switch detail := d.(type) {
	case *models.LandDetail:
		return Land(*detail)
	case *models.BuildingDetail:
		return Building(*detail)
	case *models.MachineryDetail:
		return Machinery(*detail, residualPct)
	}
	return Result{BaseMarketValue: decimal.Zero, MarketValue: decimal.Zero, AssessedValue: decimal.Zero}
}

func assess(market, level decimal.Decimal) decimal.Decimal {
	return market.Mul(level.Div(hundred)).Round(2)
}
