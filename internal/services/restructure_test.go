package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cadastre/internal/apperrors"
	"cadastre/internal/models"
)

func TestSubdivision_RequiresAtLeastTwoLots(t *testing.T) {
	engine, m := newTestEngine()

	results, err := engine.Subdivision(context.Background(), SubdivisionInput{
		RecordID:      50,
		PeriodID:      7,
		EffectiveDate: testDate,
		Lots: []LotSpec{
			{PIN: "L1", Area: decimal.NewFromInt(400), OwnerIDs: []int64{5}},
		},
		CreatedBy: "assessor1",
	})

	assert.Nil(t, results)
	assert.True(t, apperrors.IsKind(err, apperrors.KindDomain))
	assert.Equal(t, 0, m.tx.calls)
}

func TestSubdivision_LotWithoutOwnersRejected(t *testing.T) {
	engine, m := newTestEngine()

	results, err := engine.Subdivision(context.Background(), SubdivisionInput{
		RecordID:      50,
		PeriodID:      7,
		EffectiveDate: testDate,
		Lots: []LotSpec{
			{PIN: "L1", Area: decimal.NewFromInt(400), OwnerIDs: []int64{5}},
			{PIN: "L2", Area: decimal.NewFromInt(600)},
		},
		CreatedBy: "assessor1",
	})

	assert.Nil(t, results)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Equal(t, 0, m.tx.calls)
}

func TestSubdivision_NonLandRejected(t *testing.T) {
	engine, m := newTestEngine()
	ctx := context.Background()
	source := activeRecordFixture(50, 10)
	prop := activeLandProperty(10)
	prop.Kind = models.KindBuilding

	m.records.On("GetByID", ctx, mock.Anything, int64(50)).Return(source, nil)
	m.props.On("GetForUpdate", ctx, mock.Anything, int64(10)).Return(prop, nil)

	results, err := engine.Subdivision(ctx, SubdivisionInput{
		RecordID:      50,
		PeriodID:      7,
		EffectiveDate: testDate,
		Lots: []LotSpec{
			{PIN: "L1", Area: decimal.NewFromInt(400), OwnerIDs: []int64{5}},
			{PIN: "L2", Area: decimal.NewFromInt(600), OwnerIDs: []int64{6}},
		},
		CreatedBy: "assessor1",
	})

	assert.Nil(t, results)
	assert.True(t, apperrors.IsKind(err, apperrors.KindDomain))
}

func TestSubdivision_SplitsIntoLots(t *testing.T) {
	// Arrange: 1000 sqm at 100/sqm, split 400/600. The lots inherit the
	// source's classification and unit value; areas come from the lot specs.
	engine, m := newTestEngine()
	ctx := context.Background()
	source := activeRecordFixture(50, 10)
	sourceDetail := testLandDetail()
	sourceDetail.Area = decimal.NewFromInt(1000)
	sourceDetail.UnitValue = decimal.NewFromInt(100)
	sourceDetail.Adjustments = []models.LandAdjustment{
		{FactorName: "corner lot", Pct: decimal.NewFromInt(10)},
	}

	m.records.On("GetByID", ctx, mock.Anything, int64(50)).Return(source, nil)
	m.props.On("GetForUpdate", ctx, mock.Anything, int64(10)).Return(activeLandProperty(10), nil)
	expectPeriod(m.refs, ctx, 7, true)
	m.records.On("GetDetail", ctx, mock.Anything, int64(50), models.KindLand).Return(sourceDetail, nil)

	var events []string
	m.props.On("UpdateStatus", ctx, mock.Anything, int64(10), models.PropertySubdivided).
		Run(func(mock.Arguments) { events = append(events, "subdivide-source") }).Return(nil)
	m.records.On("SetStatus", ctx, mock.Anything, int64(50), models.RecordCancelled).
		Run(func(mock.Arguments) { events = append(events, "cancel-source") }).Return(nil)

	var lotProps []*models.Property
	m.props.On("Create", ctx, mock.Anything, mock.AnythingOfType("*models.Property")).
		Run(func(args mock.Arguments) {
			events = append(events, "create-property")
			lotProps = append(lotProps, args.Get(2).(*models.Property))
		}).Return(int64(11), nil).Once()
	m.props.On("Create", ctx, mock.Anything, mock.AnythingOfType("*models.Property")).
		Run(func(args mock.Arguments) {
			lotProps = append(lotProps, args.Get(2).(*models.Property))
		}).Return(int64(12), nil).Once()

	var lotRecords []*models.ValuationRecord
	m.records.On("Insert", ctx, mock.Anything, mock.AnythingOfType("*models.ValuationRecord")).
		Run(func(args mock.Arguments) {
			lotRecords = append(lotRecords, args.Get(2).(*models.ValuationRecord))
		}).Return(int64(51), nil).Once()
	m.records.On("Insert", ctx, mock.Anything, mock.AnythingOfType("*models.ValuationRecord")).
		Run(func(args mock.Arguments) {
			lotRecords = append(lotRecords, args.Get(2).(*models.ValuationRecord))
		}).Return(int64(52), nil).Once()
	var lotDetails []*models.LandDetail
	m.records.On("InsertDetail", ctx, mock.Anything, int64(51), mock.AnythingOfType("*models.LandDetail")).
		Run(func(args mock.Arguments) {
			lotDetails = append(lotDetails, args.Get(3).(*models.LandDetail))
		}).Return(nil)
	m.records.On("InsertDetail", ctx, mock.Anything, int64(52), mock.AnythingOfType("*models.LandDetail")).
		Run(func(args mock.Arguments) {
			lotDetails = append(lotDetails, args.Get(3).(*models.LandDetail))
		}).Return(nil)

	m.owners.On("GetOwner", ctx, mock.Anything, int64(5)).
		Return(&models.Owner{ID: 5, Name: "Juan Dela Cruz"}, nil)
	m.owners.On("GetOwner", ctx, mock.Anything, int64(6)).
		Return(&models.Owner{ID: 6, Name: "Maria Santos"}, nil)
	m.owners.On("ReplaceLinks", ctx, mock.Anything, int64(11), []int64{5}).Return(nil)
	m.owners.On("ReplaceLinks", ctx, mock.Anything, int64(12), []int64{6}).Return(nil)
	m.owners.On("InsertSnapshots", ctx, mock.Anything, mock.Anything).Return(nil)

	var entry *models.HistoryEntry
	var edges []models.LineageEdge
	m.history.On("InsertEntry", ctx, mock.Anything, mock.AnythingOfType("*models.HistoryEntry"),
		[]models.HistoryChange(nil), mock.AnythingOfType("[]models.LineageEdge")).
		Run(func(args mock.Arguments) {
			entry = args.Get(2).(*models.HistoryEntry)
			edges = args.Get(4).([]models.LineageEdge)
		}).Return(int64(5), nil)

	// Act
	results, err := engine.Subdivision(ctx, SubdivisionInput{
		RecordID:      50,
		PeriodID:      7,
		EffectiveDate: testDate,
		Lots: []LotSpec{
			{PIN: "001-01-001-010", Area: decimal.NewFromInt(400), OwnerIDs: []int64{5}},
			{PIN: "001-01-001-011", Area: decimal.NewFromInt(600), OwnerIDs: []int64{6}},
		},
		CreatedBy: "assessor1",
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(51), results[0].NewRecordID)
	assert.Equal(t, int64(52), results[1].NewRecordID)
	require.NotNil(t, results[0].PreviousRecordID)
	assert.Equal(t, int64(50), *results[0].PreviousRecordID)

	// Source goes terminal before any lot exists.
	assert.Equal(t, "subdivide-source", events[0])
	assert.Equal(t, "cancel-source", events[1])
	assert.Equal(t, "create-property", events[2])

	// Lots inherit location from the source property.
	require.Len(t, lotProps, 2)
	assert.Equal(t, "Poblacion", lotProps[0].Barangay)
	assert.Equal(t, "001-01-001-010", lotProps[0].PIN)

	// 400 sqm * 100 = 40000 at level 20; fan-out lineage lives on the
	// edges, not the previous-version pointer.
	require.Len(t, lotRecords, 2)
	assert.True(t, lotRecords[0].MarketValue.Equal(decimal.RequireFromString("40000.00")))
	assert.True(t, lotRecords[0].AssessedValue.Equal(decimal.RequireFromString("8000.00")))
	assert.True(t, lotRecords[1].MarketValue.Equal(decimal.RequireFromString("60000.00")))
	assert.Nil(t, lotRecords[0].PreviousVersionID)
	assert.Nil(t, lotRecords[1].PreviousVersionID)

	// The lots inherit the unit value but not the source's adjustments.
	require.Len(t, lotDetails, 2)
	assert.Empty(t, lotDetails[0].Adjustments)
	assert.Empty(t, lotDetails[1].Adjustments)

	assert.Equal(t, int64(10), entry.PropertyID)
	require.Len(t, edges, 2)
	assert.Equal(t, int64(50), edges[0].ParentRecordID)
	assert.Equal(t, int64(51), edges[0].ChildRecordID)
	assert.Equal(t, int64(52), edges[1].ChildRecordID)
	m.assertExpectations(t)
}

func TestConsolidation_RequiresAtLeastTwoRecords(t *testing.T) {
	engine, m := newTestEngine()

	result, err := engine.Consolidation(context.Background(), ConsolidationInput{
		RecordIDs:     []int64{51},
		PeriodID:      7,
		EffectiveDate: testDate,
		PIN:           "001-01-001-020",
		Barangay:      "Poblacion",
		City:          "San Fernando",
		CreatedBy:     "assessor1",
	})

	assert.Nil(t, result)
	assert.True(t, apperrors.IsKind(err, apperrors.KindDomain))
	assert.Equal(t, 0, m.tx.calls)
}

func TestConsolidation_DuplicateSourcesRejected(t *testing.T) {
	engine, m := newTestEngine()

	result, err := engine.Consolidation(context.Background(), ConsolidationInput{
		RecordIDs:     []int64{51, 51},
		PeriodID:      7,
		EffectiveDate: testDate,
		PIN:           "001-01-001-020",
		Barangay:      "Poblacion",
		City:          "San Fernando",
		CreatedBy:     "assessor1",
	})

	assert.Nil(t, result)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Equal(t, 0, m.tx.calls)
}

func TestConsolidation_NonActiveSourcePropertyConflicts(t *testing.T) {
	engine, m := newTestEngine()
	ctx := context.Background()
	recA := activeRecordFixture(51, 11)
	recB := activeRecordFixture(52, 12)
	propA := activeLandProperty(11)
	propB := activeLandProperty(12)
	propB.Status = models.PropertyConsolidated

	expectPeriod(m.refs, ctx, 7, true)
	m.records.On("GetByID", ctx, mock.Anything, int64(51)).Return(recA, nil)
	m.records.On("GetByID", ctx, mock.Anything, int64(52)).Return(recB, nil)
	m.props.On("GetForUpdate", ctx, mock.Anything, int64(11)).Return(propA, nil)
	m.props.On("GetForUpdate", ctx, mock.Anything, int64(12)).Return(propB, nil)

	result, err := engine.Consolidation(ctx, ConsolidationInput{
		RecordIDs:     []int64{51, 52},
		PeriodID:      7,
		EffectiveDate: testDate,
		PIN:           "001-01-001-020",
		Barangay:      "Poblacion",
		City:          "San Fernando",
		CreatedBy:     "assessor1",
	})

	assert.Nil(t, result)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestConsolidation_SourceSupersededUnderLocksConflicts(t *testing.T) {
	// Arrange: a revision of source record 51 commits between the initial
	// reads and the property locks. The locked re-check sees the superseded
	// version and the consolidation conflicts without touching any source.
	engine, m := newTestEngine()
	ctx := context.Background()
	recA := activeRecordFixture(51, 11)
	recB := activeRecordFixture(52, 12)
	staleA := activeRecordFixture(51, 11)
	staleA.Status = models.RecordInactive

	expectPeriod(m.refs, ctx, 7, true)
	m.records.On("GetByID", ctx, mock.Anything, int64(51)).Return(recA, nil).Once()
	m.records.On("GetByID", ctx, mock.Anything, int64(52)).Return(recB, nil)
	m.props.On("GetForUpdate", ctx, mock.Anything, int64(11)).Return(activeLandProperty(11), nil)
	m.props.On("GetForUpdate", ctx, mock.Anything, int64(12)).Return(activeLandProperty(12), nil)
	m.records.On("GetByID", ctx, mock.Anything, int64(51)).Return(staleA, nil).Once()

	// Act
	result, err := engine.Consolidation(ctx, ConsolidationInput{
		RecordIDs:     []int64{51, 52},
		PeriodID:      7,
		EffectiveDate: testDate,
		PIN:           "001-01-001-020",
		Barangay:      "Poblacion",
		City:          "San Fernando",
		CreatedBy:     "assessor1",
	})

	// Assert
	assert.Nil(t, result)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	m.records.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.props.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConsolidation_MergesParcels(t *testing.T) {
	// Arrange: 100 sqm @ 500 (base 50000) plus 50 sqm @ 600 (base 30000).
	// The merged base market value is the exact sum, 80000.00; the stored
	// unit value is the rounded quotient 80000/150 = 533.33.
	engine, m := newTestEngine()
	ctx := context.Background()
	recA := activeRecordFixture(51, 11)
	recB := activeRecordFixture(52, 12)
	detailA := testLandDetail()
	detailA.Adjustments = []models.LandAdjustment{
		{FactorName: "corner lot", Pct: decimal.NewFromInt(10)},
	}
	detailB := testLandDetail()
	detailB.Area = decimal.NewFromInt(50)
	detailB.UnitValue = decimal.NewFromInt(600)

	expectPeriod(m.refs, ctx, 7, true)
	m.records.On("GetByID", ctx, mock.Anything, int64(51)).Return(recA, nil)
	m.records.On("GetByID", ctx, mock.Anything, int64(52)).Return(recB, nil)
	m.props.On("GetForUpdate", ctx, mock.Anything, int64(11)).Return(activeLandProperty(11), nil)
	m.props.On("GetForUpdate", ctx, mock.Anything, int64(12)).Return(activeLandProperty(12), nil)
	m.records.On("GetDetail", ctx, mock.Anything, int64(51), models.KindLand).Return(detailA, nil)
	m.records.On("GetDetail", ctx, mock.Anything, int64(52), models.KindLand).Return(detailB, nil)

	// Owner union across the sources, deduplicated.
	m.owners.On("ListLinkedOwners", ctx, mock.Anything, int64(11)).
		Return([]models.Owner{{ID: 5, Name: "Juan Dela Cruz"}}, nil)
	m.owners.On("ListLinkedOwners", ctx, mock.Anything, int64(12)).
		Return([]models.Owner{{ID: 5, Name: "Juan Dela Cruz"}, {ID: 6, Name: "Maria Santos"}}, nil)

	m.props.On("UpdateStatus", ctx, mock.Anything, int64(11), models.PropertyConsolidated).Return(nil)
	m.props.On("UpdateStatus", ctx, mock.Anything, int64(12), models.PropertyConsolidated).Return(nil)
	m.records.On("SetStatus", ctx, mock.Anything, int64(51), models.RecordCancelled).Return(nil)
	m.records.On("SetStatus", ctx, mock.Anything, int64(52), models.RecordCancelled).Return(nil)

	m.props.On("Create", ctx, mock.Anything, mock.AnythingOfType("*models.Property")).Return(int64(13), nil)

	var inserted *models.ValuationRecord
	var insertedDetail *models.LandDetail
	m.records.On("Insert", ctx, mock.Anything, mock.AnythingOfType("*models.ValuationRecord")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(2).(*models.ValuationRecord)
		}).Return(int64(53), nil)
	m.records.On("InsertDetail", ctx, mock.Anything, int64(53), mock.AnythingOfType("*models.LandDetail")).
		Run(func(args mock.Arguments) {
			insertedDetail = args.Get(3).(*models.LandDetail)
		}).Return(nil)

	m.owners.On("GetOwner", ctx, mock.Anything, int64(5)).
		Return(&models.Owner{ID: 5, Name: "Juan Dela Cruz"}, nil)
	m.owners.On("GetOwner", ctx, mock.Anything, int64(6)).
		Return(&models.Owner{ID: 6, Name: "Maria Santos"}, nil)
	m.owners.On("ReplaceLinks", ctx, mock.Anything, int64(13), []int64{5, 6}).Return(nil)
	m.owners.On("InsertSnapshots", ctx, mock.Anything, mock.Anything).Return(nil)

	var entry *models.HistoryEntry
	var edges []models.LineageEdge
	m.history.On("InsertEntry", ctx, mock.Anything, mock.AnythingOfType("*models.HistoryEntry"),
		[]models.HistoryChange(nil), mock.AnythingOfType("[]models.LineageEdge")).
		Run(func(args mock.Arguments) {
			entry = args.Get(2).(*models.HistoryEntry)
			edges = args.Get(4).([]models.LineageEdge)
		}).Return(int64(6), nil)

	// Act
	result, err := engine.Consolidation(ctx, ConsolidationInput{
		RecordIDs:     []int64{51, 52},
		PeriodID:      7,
		EffectiveDate: testDate,
		PIN:           "001-01-001-020",
		Barangay:      "Poblacion",
		City:          "San Fernando",
		CreatedBy:     "assessor1",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(53), result.NewRecordID)
	assert.Equal(t, "FAAS-00053", result.DocumentNo)
	assert.Nil(t, result.PreviousRecordID, "fan-in lineage lives on the edges")

	assert.True(t, insertedDetail.Area.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, "533.33", insertedDetail.UnitValue.StringFixed(2))
	assert.Equal(t, detailA.ClassificationID, insertedDetail.ClassificationID)
	assert.Empty(t, insertedDetail.Adjustments, "source adjustments are not carried over")

	// Exact sum, not 150 * 533.33 = 79999.50.
	assert.Equal(t, "80000.00", inserted.MarketValue.StringFixed(2))
	assert.Equal(t, "16000.00", inserted.AssessedValue.StringFixed(2))
	assert.Equal(t, models.TxConsolidation, inserted.TransactionType)
	assert.Nil(t, inserted.PreviousVersionID)

	assert.Equal(t, int64(13), entry.PropertyID)
	require.Len(t, edges, 2)
	assert.Equal(t, int64(51), edges[0].ParentRecordID)
	assert.Equal(t, int64(52), edges[1].ParentRecordID)
	assert.Equal(t, int64(53), edges[0].ChildRecordID)
	m.assertExpectations(t)
}

func TestConsolidation_ExplicitOwnersOverrideUnion(t *testing.T) {
	// Arrange
	engine, m := newTestEngine()
	ctx := context.Background()
	recA := activeRecordFixture(51, 11)
	recB := activeRecordFixture(52, 12)

	expectPeriod(m.refs, ctx, 7, true)
	m.records.On("GetByID", ctx, mock.Anything, int64(51)).Return(recA, nil)
	m.records.On("GetByID", ctx, mock.Anything, int64(52)).Return(recB, nil)
	m.props.On("GetForUpdate", ctx, mock.Anything, int64(11)).Return(activeLandProperty(11), nil)
	m.props.On("GetForUpdate", ctx, mock.Anything, int64(12)).Return(activeLandProperty(12), nil)
	m.records.On("GetDetail", ctx, mock.Anything, int64(51), models.KindLand).Return(testLandDetail(), nil)
	m.records.On("GetDetail", ctx, mock.Anything, int64(52), models.KindLand).Return(testLandDetail(), nil)
	m.owners.On("ListLinkedOwners", ctx, mock.Anything, int64(11)).
		Return([]models.Owner{{ID: 5, Name: "Juan Dela Cruz"}}, nil)
	m.owners.On("ListLinkedOwners", ctx, mock.Anything, int64(12)).
		Return([]models.Owner{{ID: 6, Name: "Maria Santos"}}, nil)
	m.props.On("UpdateStatus", ctx, mock.Anything, mock.AnythingOfType("int64"), models.PropertyConsolidated).Return(nil)
	m.records.On("SetStatus", ctx, mock.Anything, mock.AnythingOfType("int64"), models.RecordCancelled).Return(nil)
	m.props.On("Create", ctx, mock.Anything, mock.AnythingOfType("*models.Property")).Return(int64(13), nil)
	m.records.On("Insert", ctx, mock.Anything, mock.AnythingOfType("*models.ValuationRecord")).Return(int64(53), nil)
	m.records.On("InsertDetail", ctx, mock.Anything, int64(53), mock.Anything).Return(nil)

	m.owners.On("GetOwner", ctx, mock.Anything, int64(9)).
		Return(&models.Owner{ID: 9, Name: "Pedro Reyes"}, nil)
	m.owners.On("ReplaceLinks", ctx, mock.Anything, int64(13), []int64{9}).Return(nil)
	m.owners.On("InsertSnapshots", ctx, mock.Anything, mock.Anything).Return(nil)
	m.history.On("InsertEntry", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(6), nil)

	// Act
	result, err := engine.Consolidation(ctx, ConsolidationInput{
		RecordIDs:     []int64{51, 52},
		PeriodID:      7,
		EffectiveDate: testDate,
		PIN:           "001-01-001-020",
		Barangay:      "Poblacion",
		City:          "San Fernando",
		OwnerIDs:      []int64{9},
		CreatedBy:     "assessor1",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(53), result.NewRecordID)
	m.owners.AssertNotCalled(t, "GetOwner", ctx, mock.Anything, int64(5))
	m.assertExpectations(t)
}
