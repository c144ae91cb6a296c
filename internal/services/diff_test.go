package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cadastre/internal/models"
)

func TestDiffRecords_OnlyChangedFields(t *testing.T) {
	old := &models.ValuationRecord{
		ValuationPeriodID: 7,
		EffectiveDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Taxable:           true,
		MarketValue:       decimal.RequireFromString("50000.00"),
		AssessedValue:     decimal.RequireFromString("10000.00"),
	}
	new := &models.ValuationRecord{
		ValuationPeriodID: 7,
		EffectiveDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Taxable:           true,
		MarketValue:       decimal.RequireFromString("60000.00"),
		AssessedValue:     decimal.RequireFromString("12000.00"),
	}

	changes := diffRecords(old, new)

	require.Len(t, changes, 2)
	assert.Equal(t, "market_value", changes[0].Field)
	assert.Equal(t, "50000.00", changes[0].OldValue)
	assert.Equal(t, "60000.00", changes[0].NewValue)
	assert.Equal(t, "assessed_value", changes[1].Field)
}

func TestDiffRecords_NormalizesDecimalScale(t *testing.T) {
	old := &models.ValuationRecord{MarketValue: decimal.RequireFromString("50000")}
	new := &models.ValuationRecord{MarketValue: decimal.RequireFromString("50000.00")}

	// 50000 and 50000.00 are the same value; no diff row.
	assert.Empty(t, diffRecords(old, new))
}

func TestAppendCollectionDiff_OrderIndependent(t *testing.T) {
	changes := appendCollectionDiff(nil, "improvements",
		[]string{"a", "b"}, []string{"b", "a"})

	assert.Empty(t, changes, "reordered collections are not a change")
}

func TestAppendCollectionDiff_LogsWholeCollections(t *testing.T) {
	changes := appendCollectionDiff(nil, "improvements",
		[]string{"mango trees x10 @50.00"},
		[]string{"mango trees x10 @50.00", "coconut trees x4 @25.00"})

	require.Len(t, changes, 1)
	assert.Equal(t, "improvements", changes[0].Field)
	assert.Equal(t, "mango trees x10 @50.00", changes[0].OldValue)
	assert.Equal(t, "mango trees x10 @50.00; coconut trees x4 @25.00", changes[0].NewValue)
}

func TestDiffLandDetails_CollectionsAndScalars(t *testing.T) {
	old := &models.LandDetail{
		ClassificationID: 1,
		SubclassID:       2,
		ActualUseID:      3,
		Area:             decimal.NewFromInt(100),
		UnitValue:        decimal.NewFromInt(500),
		AssessmentLevel:  decimal.NewFromInt(20),
	}
	new := &models.LandDetail{
		ClassificationID: 4,
		SubclassID:       2,
		ActualUseID:      3,
		Area:             decimal.NewFromInt(100),
		UnitValue:        decimal.NewFromInt(500),
		AssessmentLevel:  decimal.NewFromInt(35),
		Adjustments: []models.LandAdjustment{
			{FactorName: "corner lot", Pct: decimal.RequireFromString("10")},
		},
	}

	changes := diffLandDetails(old, new)

	fields := make([]string, 0, len(changes))
	for _, ch := range changes {
		fields = append(fields, ch.Field)
	}
	assert.Equal(t, []string{"classification_id", "assessment_level", "adjustments"}, fields)
	assert.Equal(t, "corner lot=10.00%", changes[2].NewValue)
}

func TestDiffDetails_MismatchedKindsIgnored(t *testing.T) {
	land := &models.LandDetail{Area: decimal.NewFromInt(100)}
	building := &models.BuildingDetail{TotalFloorArea: decimal.NewFromInt(100)}

	assert.Nil(t, diffDetails(land, building))
}

func TestDiffOwnerSnapshots(t *testing.T) {
	old := []models.OwnerSnapshot{{OwnerID: 5, Name: "Juan Dela Cruz"}}
	new := []models.OwnerSnapshot{
		{OwnerID: 5, Name: "Juan Dela Cruz"},
		{OwnerID: 6, Name: "Maria Santos"},
	}

	changes := diffOwnerSnapshots(old, new)

	require.Len(t, changes, 1)
	assert.Equal(t, "owners", changes[0].Field)
	assert.Equal(t, "5:Juan Dela Cruz", changes[0].OldValue)
	assert.Equal(t, "5:Juan Dela Cruz; 6:Maria Santos", changes[0].NewValue)

	assert.Empty(t, diffOwnerSnapshots(new, new))
}

func TestDiffMachineryDetails(t *testing.T) {
	old := &models.MachineryDetail{
		MachineryTypeID:  1,
		RCN:              decimal.NewFromInt(100000),
		ConversionFactor: decimal.NewFromInt(1),
		YearsUsed:        2,
		DepreciationRate: decimal.NewFromInt(5),
		AssessmentLevel:  decimal.NewFromInt(80),
	}
	new := &models.MachineryDetail{
		MachineryTypeID:  1,
		RCN:              decimal.NewFromInt(100000),
		ConversionFactor: decimal.NewFromInt(1),
		YearsUsed:        3,
		DepreciationRate: decimal.NewFromInt(5),
		AssessmentLevel:  decimal.NewFromInt(80),
	}

	changes := diffMachineryDetails(old, new)

	require.Len(t, changes, 1)
	assert.Equal(t, "years_used", changes[0].Field)
	assert.Equal(t, "2", changes[0].OldValue)
	assert.Equal(t, "3", changes[0].NewValue)
}
