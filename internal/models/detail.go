package models

import (
	"github.com/shopspring/decimal"

	"cadastre/internal/apperrors"
)

// Detail is the kind-specific appraisal sub-record attached to a valuation
// record. Exactly one variant exists per record, and its kind must equal the
// property's kind. Each variant knows how to validate its own inputs and how
// to produce a verbatim copy for operations that carry the appraisal forward
// unchanged (e.g. ownership transfer).
type Detail interface {
	Kind() PropertyKind
	Validate() error
	CopyForward() Detail
}

// LandAdjustment is one percentage adjustment applied to a land parcel's
// base market value. Percentages are stored as decimals (12.5 = 12.5%).
type LandAdjustment struct {
	FactorName string          `json:"factor_name"`
	Pct        decimal.Decimal `json:"pct"`
}

// LandImprovement is one plant/tree/other improvement item on a land parcel.
type LandImprovement struct {
	Description string          `json:"description"`
	Qty         decimal.Decimal `json:"qty"`
	UnitValue   decimal.Decimal `json:"unit_value"`
}

// LandDetail holds the appraisal inputs for a land parcel.
type LandDetail struct {
	ClassificationID int64             `json:"classification_id"`
	SubclassID       int64             `json:"subclass_id"`
	ActualUseID      int64             `json:"actual_use_id"`
	Area             decimal.Decimal   `json:"area"`
	UnitValue        decimal.Decimal   `json:"unit_value"`
	AssessmentLevel  decimal.Decimal   `json:"assessment_level"`
	Adjustments      []LandAdjustment  `json:"adjustments,omitempty"`
	Improvements     []LandImprovement `json:"improvements,omitempty"`
}

func (d *LandDetail) Kind() PropertyKind { return KindLand }

func (d *LandDetail) Validate() error {
	if d.ClassificationID == 0 {
		return apperrors.Validation("land detail: classification is required")
	}
	if d.ActualUseID == 0 {
		return apperrors.Validation("land detail: actual use is required")
	}
	if !d.Area.IsPositive() {
		return apperrors.Validation("land detail: area must be positive, got %s", d.Area)
	}
	if d.UnitValue.IsNegative() {
		return apperrors.Validation("land detail: unit value must not be negative, got %s", d.UnitValue)
	}
	if d.AssessmentLevel.IsNegative() || d.AssessmentLevel.GreaterThan(decimal.NewFromInt(100)) {
		return apperrors.Validation("land detail: assessment level must be between 0 and 100, got %s", d.AssessmentLevel)
	}
	for _, imp := range d.Improvements {
		if imp.Description == "" {
			return apperrors.Validation("land detail: improvement description is required")
		}
		if imp.Qty.IsNegative() || imp.UnitValue.IsNegative() {
			return apperrors.Validation("land detail: improvement %q has negative qty or unit value", imp.Description)
		}
	}
	return nil
}

func (d *LandDetail) CopyForward() Detail {
	cp := *d
	cp.Adjustments = append([]LandAdjustment(nil), d.Adjustments...)
	cp.Improvements = append([]LandImprovement(nil), d.Improvements...)
	return &cp
}

// BuildingFloor is one floor-area row of a building appraisal.
type BuildingFloor struct {
	FloorNo int             `json:"floor_no"`
	Area    decimal.Decimal `json:"area"`
}

// BuildingAdditionalItem is one extra-cost item (e.g. carport, mezzanine).
type BuildingAdditionalItem struct {
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
}

// BuildingMaterial records the material used for one structural component.
type BuildingMaterial struct {
	Component string `json:"component"`
	Material  string `json:"material"`
}

// BuildingDetail holds the appraisal inputs for a building.
type BuildingDetail struct {
	BuildingKindID   int64                    `json:"building_kind_id"`
	StructuralTypeID int64                    `json:"structural_type_id"`
	UnitCost         decimal.Decimal          `json:"unit_cost"`
	TotalFloorArea   decimal.Decimal          `json:"total_floor_area"`
	DepreciationRate decimal.Decimal          `json:"depreciation_rate"`
	AssessmentLevel  decimal.Decimal          `json:"assessment_level"`
	Floors           []BuildingFloor          `json:"floors,omitempty"`
	AdditionalItems  []BuildingAdditionalItem `json:"additional_items,omitempty"`
	Materials        []BuildingMaterial       `json:"materials,omitempty"`
}

func (d *BuildingDetail) Kind() PropertyKind { return KindBuilding }

func (d *BuildingDetail) Validate() error {
	if d.BuildingKindID == 0 {
		return apperrors.Validation("building detail: building kind is required")
	}
	if d.StructuralTypeID == 0 {
		return apperrors.Validation("building detail: structural type is required")
	}
	if !d.TotalFloorArea.IsPositive() {
		return apperrors.Validation("building detail: total floor area must be positive, got %s", d.TotalFloorArea)
	}
	if d.UnitCost.IsNegative() {
		return apperrors.Validation("building detail: unit cost must not be negative, got %s", d.UnitCost)
	}
	if d.DepreciationRate.IsNegative() || d.DepreciationRate.GreaterThan(decimal.NewFromInt(100)) {
		return apperrors.Validation("building detail: depreciation rate must be between 0 and 100, got %s", d.DepreciationRate)
	}
	if d.AssessmentLevel.IsNegative() || d.AssessmentLevel.GreaterThan(decimal.NewFromInt(100)) {
		return apperrors.Validation("building detail: assessment level must be between 0 and 100, got %s", d.AssessmentLevel)
	}
	return nil
}

func (d *BuildingDetail) CopyForward() Detail {
	cp := *d
	cp.Floors = append([]BuildingFloor(nil), d.Floors...)
	cp.AdditionalItems = append([]BuildingAdditionalItem(nil), d.AdditionalItems...)
	cp.Materials = append([]BuildingMaterial(nil), d.Materials...)
	return &cp
}

// MachineryDetail holds the appraisal inputs for machinery.
type MachineryDetail struct {
	MachineryTypeID  int64           `json:"machinery_type_id"`
	RCN              decimal.Decimal `json:"rcn"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
	YearsUsed        int             `json:"years_used"`
	EstimatedLife    int             `json:"estimated_life"`
	DepreciationRate decimal.Decimal `json:"depreciation_rate"`
	AssessmentLevel  decimal.Decimal `json:"assessment_level"`
	Capacity         string          `json:"capacity,omitempty"`
}

func (d *MachineryDetail) Kind() PropertyKind { return KindMachinery }

func (d *MachineryDetail) Validate() error {
	if d.MachineryTypeID == 0 {
		return apperrors.Validation("machinery detail: machinery type is required")
	}
	if d.RCN.IsNegative() {
		return apperrors.Validation("machinery detail: RCN must not be negative, got %s", d.RCN)
	}
	if !d.ConversionFactor.IsPositive() {
		return apperrors.Validation("machinery detail: conversion factor must be positive, got %s", d.ConversionFactor)
	}
	if d.YearsUsed < 0 {
		return apperrors.Validation("machinery detail: years used must not be negative, got %d", d.YearsUsed)
	}
	if d.DepreciationRate.IsNegative() || d.DepreciationRate.GreaterThan(decimal.NewFromInt(100)) {
		return apperrors.Validation("machinery detail: depreciation rate must be between 0 and 100, got %s", d.DepreciationRate)
	}
	if d.AssessmentLevel.IsNegative() || d.AssessmentLevel.GreaterThan(decimal.NewFromInt(100)) {
		return apperrors.Validation("machinery detail: assessment level must be between 0 and 100, got %s", d.AssessmentLevel)
	}
	return nil
}

func (d *MachineryDetail) CopyForward() Detail {
	cp := *d
	return &cp
}
