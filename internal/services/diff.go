package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"cadastre/internal/models"
)

// Field diffing for the audit log. Scalar fields are compared as normalized
// strings; composite child collections are compared whole and
// order-independent. When a collection differs, the entire old and new
// collections are logged as one paired row (full-collection replacement
// semantics), not per-item patches.

const dateLayout = "2006-01-02"

func normDecimal(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func normString(s string) string {
	return strings.TrimSpace(s)
}

func normBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// appendScalarDiff appends a change row when the normalized values differ.
func appendScalarDiff(changes []models.HistoryChange, field, oldVal, newVal string) []models.HistoryChange {
	if oldVal == newVal {
		return changes
	}
	return append(changes, models.HistoryChange{Field: field, OldValue: oldVal, NewValue: newVal})
}

// appendCollectionDiff renders both collections, compares them ignoring
// order, and appends one paired row holding the full collections if they
// differ.
func appendCollectionDiff(changes []models.HistoryChange, field string, oldItems, newItems []string) []models.HistoryChange {
	oldSorted := append([]string(nil), oldItems...)
	newSorted := append([]string(nil), newItems...)
	sort.Strings(oldSorted)
	sort.Strings(newSorted)

	if strings.Join(oldSorted, "; ") == strings.Join(newSorted, "; ") {
		return changes
	}
	return append(changes, models.HistoryChange{
		Field:    field,
		OldValue: strings.Join(oldItems, "; "),
		NewValue: strings.Join(newItems, "; "),
	})
}

// diffRecords compares the scalar fields of two record versions.
func diffRecords(old, new *models.ValuationRecord) []models.HistoryChange {
	var changes []models.HistoryChange
	changes = appendScalarDiff(changes, "valuation_period_id",
		fmt.Sprintf("%d", old.ValuationPeriodID), fmt.Sprintf("%d", new.ValuationPeriodID))
	changes = appendScalarDiff(changes, "effective_date",
		old.EffectiveDate.Format(dateLayout), new.EffectiveDate.Format(dateLayout))
	changes = appendScalarDiff(changes, "taxable", normBool(old.Taxable), normBool(new.Taxable))
	changes = appendScalarDiff(changes, "market_value", normDecimal(old.MarketValue), normDecimal(new.MarketValue))
	changes = appendScalarDiff(changes, "assessed_value", normDecimal(old.AssessedValue), normDecimal(new.AssessedValue))
	return changes
}

// diffDetails compares two same-kind detail sub-records, scalars first,
// then each child collection.
func diffDetails(old, new models.Detail) []models.HistoryChange {
	switch oldD := old.(type) {
	case *models.LandDetail:
		newD, ok := new.(*models.LandDetail)
		if !ok {
			return nil
		}
		return diffLandDetails(oldD, newD)
	case *models.BuildingDetail:
		newD, ok := new.(*models.BuildingDetail)
		if !ok {
			return nil
		}
		return diffBuildingDetails(oldD, newD)
	case *models.MachineryDetail:
		newD, ok := new.(*models.MachineryDetail)
		if !ok {
			return nil
		}
		return diffMachineryDetails(oldD, newD)
	}
	return nil
}

func diffLandDetails(old, new *models.LandDetail) []models.HistoryChange {
	var changes []models.HistoryChange
	changes = appendScalarDiff(changes, "classification_id",
		fmt.Sprintf("%d", old.ClassificationID), fmt.Sprintf("%d", new.ClassificationID))
	changes = appendScalarDiff(changes, "subclass_id",
		fmt.Sprintf("%d", old.SubclassID), fmt.Sprintf("%d", new.SubclassID))
	changes = appendScalarDiff(changes, "actual_use_id",
		fmt.Sprintf("%d", old.ActualUseID), fmt.Sprintf("%d", new.ActualUseID))
	changes = appendScalarDiff(changes, "area", normDecimal(old.Area), normDecimal(new.Area))
	changes = appendScalarDiff(changes, "unit_value", normDecimal(old.UnitValue), normDecimal(new.UnitValue))
	changes = appendScalarDiff(changes, "assessment_level",
		normDecimal(old.AssessmentLevel), normDecimal(new.AssessmentLevel))
	changes = appendCollectionDiff(changes, "adjustments",
		renderAdjustments(old.Adjustments), renderAdjustments(new.Adjustments))
	changes = appendCollectionDiff(changes, "improvements",
		renderImprovements(old.Improvements), renderImprovements(new.Improvements))
	return changes
}

func diffBuildingDetails(old, new *models.BuildingDetail) []models.HistoryChange {
	var changes []models.HistoryChange
	changes = appendScalarDiff(changes, "building_kind_id",
		fmt.Sprintf("%d", old.BuildingKindID), fmt.Sprintf("%d", new.BuildingKindID))
	changes = appendScalarDiff(changes, "structural_type_id",
		fmt.Sprintf("%d", old.StructuralTypeID), fmt.Sprintf("%d", new.StructuralTypeID))
	changes = appendScalarDiff(changes, "unit_cost", normDecimal(old.UnitCost), normDecimal(new.UnitCost))
	changes = appendScalarDiff(changes, "total_floor_area",
		normDecimal(old.TotalFloorArea), normDecimal(new.TotalFloorArea))
	changes = appendScalarDiff(changes, "depreciation_rate",
		normDecimal(old.DepreciationRate), normDecimal(new.DepreciationRate))
	changes = appendScalarDiff(changes, "assessment_level",
		normDecimal(old.AssessmentLevel), normDecimal(new.AssessmentLevel))
	changes = appendCollectionDiff(changes, "floors", renderFloors(old.Floors), renderFloors(new.Floors))
	changes = appendCollectionDiff(changes, "additional_items",
		renderAdditionalItems(old.AdditionalItems), renderAdditionalItems(new.AdditionalItems))
	changes = appendCollectionDiff(changes, "materials",
		renderMaterials(old.Materials), renderMaterials(new.Materials))
	return changes
}

func diffMachineryDetails(old, new *models.MachineryDetail) []models.HistoryChange {
	var changes []models.HistoryChange
	changes = appendScalarDiff(changes, "machinery_type_id",
		fmt.Sprintf("%d", old.MachineryTypeID), fmt.Sprintf("%d", new.MachineryTypeID))
	changes = appendScalarDiff(changes, "rcn", normDecimal(old.RCN), normDecimal(new.RCN))
	changes = appendScalarDiff(changes, "conversion_factor",
		normDecimal(old.ConversionFactor), normDecimal(new.ConversionFactor))
	changes = appendScalarDiff(changes, "years_used",
		fmt.Sprintf("%d", old.YearsUsed), fmt.Sprintf("%d", new.YearsUsed))
	changes = appendScalarDiff(changes, "estimated_life",
		fmt.Sprintf("%d", old.EstimatedLife), fmt.Sprintf("%d", new.EstimatedLife))
	changes = appendScalarDiff(changes, "depreciation_rate",
		normDecimal(old.DepreciationRate), normDecimal(new.DepreciationRate))
	changes = appendScalarDiff(changes, "assessment_level",
		normDecimal(old.AssessmentLevel), normDecimal(new.AssessmentLevel))
	changes = appendScalarDiff(changes, "capacity", normString(old.Capacity), normString(new.Capacity))
	return changes
}

// diffOwnerSnapshots compares two owner sets as whole collections.
func diffOwnerSnapshots(old, new []models.OwnerSnapshot) []models.HistoryChange {
	return appendCollectionDiff(nil, "owners", renderOwners(old), renderOwners(new))
}

func renderOwners(snaps []models.OwnerSnapshot) []string {
	out := make([]string, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, fmt.Sprintf("%d:%s", s.OwnerID, normString(s.Name)))
	}
	return out
}

func renderAdjustments(adjs []models.LandAdjustment) []string {
	out := make([]string, 0, len(adjs))
	for _, a := range adjs {
		out = append(out, fmt.Sprintf("%s=%s%%", normString(a.FactorName), normDecimal(a.Pct)))
	}
	return out
}

func renderImprovements(imps []models.LandImprovement) []string {
	out := make([]string, 0, len(imps))
	for _, imp := range imps {
		out = append(out, fmt.Sprintf("%s x%s @%s", normString(imp.Description), imp.Qty.String(), normDecimal(imp.UnitValue)))
	}
	return out
}

func renderFloors(floors []models.BuildingFloor) []string {
	out := make([]string, 0, len(floors))
	for _, f := range floors {
		out = append(out, fmt.Sprintf("floor %d: %s sqm", f.FloorNo, normDecimal(f.Area)))
	}
	return out
}

func renderAdditionalItems(items []models.BuildingAdditionalItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprintf("%s @%s", normString(item.Description), normDecimal(item.Cost)))
	}
	return out
}

func renderMaterials(mats []models.BuildingMaterial) []string {
	out := make([]string, 0, len(mats))
	for _, m := range mats {
		out = append(out, fmt.Sprintf("%s: %s", normString(m.Component), normString(m.Material)))
	}
	return out
}
