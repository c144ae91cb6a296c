package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cadastre/internal/apperrors"
)

func TestCanTransition_FromActive(t *testing.T) {
	terminal := []PropertyStatus{PropertyConsolidated, PropertySubdivided, PropertyCancelled, PropertyDestroyed}
	for _, to := range terminal {
		assert.True(t, CanTransition(PropertyActive, to), "ACTIVE -> %s should be allowed", to)
	}
	assert.False(t, CanTransition(PropertyActive, PropertyActive))
}

func TestCanTransition_TerminalStatesHaveNoExits(t *testing.T) {
	terminal := []PropertyStatus{PropertyConsolidated, PropertySubdivided, PropertyCancelled, PropertyDestroyed}
	all := append([]PropertyStatus{PropertyActive}, terminal...)
	for _, from := range terminal {
		for _, to := range all {
			assert.False(t, CanTransition(from, to), "%s -> %s should be rejected", from, to)
		}
	}
}

func TestDocumentNo_Format(t *testing.T) {
	assert.Equal(t, "FAAS-00001", DocumentNo(1))
	assert.Equal(t, "FAAS-00042", DocumentNo(42))
	assert.Equal(t, "FAAS-12345", DocumentNo(12345))
	// Ids beyond five digits keep their full width rather than truncating.
	assert.Equal(t, "FAAS-123456", DocumentNo(123456))
}

func TestLandDetail_Validate(t *testing.T) {
	valid := LandDetail{
		ClassificationID: 1,
		SubclassID:       1,
		ActualUseID:      1,
		Area:             decimal.NewFromInt(100),
		UnitValue:        decimal.NewFromInt(500),
		AssessmentLevel:  decimal.NewFromInt(20),
	}
	require.NoError(t, valid.Validate())

	missing := valid
	missing.ClassificationID = 0
	err := missing.Validate()
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	zeroArea := valid
	zeroArea.Area = decimal.Zero
	assert.Error(t, zeroArea.Validate())

	badLevel := valid
	badLevel.AssessmentLevel = decimal.NewFromInt(150)
	assert.Error(t, badLevel.Validate())
}

func TestBuildingDetail_Validate(t *testing.T) {
	valid := BuildingDetail{
		BuildingKindID:   1,
		StructuralTypeID: 1,
		UnitCost:         decimal.NewFromInt(8000),
		TotalFloorArea:   decimal.NewFromInt(120),
		DepreciationRate: decimal.NewFromInt(10),
		AssessmentLevel:  decimal.NewFromInt(25),
	}
	require.NoError(t, valid.Validate())

	badDep := valid
	badDep.DepreciationRate = decimal.NewFromInt(101)
	assert.Error(t, badDep.Validate())
}

func TestMachineryDetail_Validate(t *testing.T) {
	valid := MachineryDetail{
		MachineryTypeID:  1,
		RCN:              decimal.NewFromInt(1000000),
		ConversionFactor: decimal.NewFromFloat(1.0),
		YearsUsed:        3,
		EstimatedLife:    15,
		DepreciationRate: decimal.NewFromInt(5),
		AssessmentLevel:  decimal.NewFromInt(40),
	}
	require.NoError(t, valid.Validate())

	badFactor := valid
	badFactor.ConversionFactor = decimal.Zero
	assert.Error(t, badFactor.Validate())
}

func TestCopyForward_IsIndependent(t *testing.T) {
	orig := &LandDetail{
		ClassificationID: 1,
		SubclassID:       2,
		ActualUseID:      3,
		Area:             decimal.NewFromInt(100),
		UnitValue:        decimal.NewFromInt(500),
		AssessmentLevel:  decimal.NewFromInt(20),
		Improvements: []LandImprovement{
			{Description: "mango trees", Qty: decimal.NewFromInt(10), UnitValue: decimal.NewFromInt(250)},
		},
	}

	cp, ok := orig.CopyForward().(*LandDetail)
	require.True(t, ok)
	require.Len(t, cp.Improvements, 1)

	// Mutating the copy must not leak into the original.
	cp.Improvements[0].Description = "coconut trees"
	cp.Improvements = append(cp.Improvements, LandImprovement{Description: "fence"})
	assert.Equal(t, "mango trees", orig.Improvements[0].Description)
	assert.Len(t, orig.Improvements, 1)
}

func TestSnapshotOf_FreezesOwnerFields(t *testing.T) {
	o := Owner{ID: 7, Name: "Juan dela Cruz", Address: "Poblacion", TIN: "123-456-789", Contact: "0917-000-0000"}
	snap := SnapshotOf(55, o)
	assert.Equal(t, int64(55), snap.RecordID)
	assert.Equal(t, int64(7), snap.OwnerID)
	assert.Equal(t, o.Name, snap.Name)
	assert.Equal(t, o.TIN, snap.TIN)
}
