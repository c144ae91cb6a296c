package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"cadastre/internal/apperrors"
	"cadastre/internal/database"
	"cadastre/internal/models"
	"cadastre/internal/valuation"
)

// Subdivision splits one active land parcel into two or more new parcels.
// Each lot takes its area, owners, and improvements from its lot spec;
// classification and unit value are inherited from the source. The source's
// percentage adjustments are not carried over: they describe conditions of
// the parcel they were appraised on (corner location, shape, frontage) and
// do not hold for its cut-up lots, so each lot starts without adjustments
// until its next revision. The source property becomes SUBDIVIDED (terminal)
// and its record is cancelled. Lot areas are caller-supplied and not
// cross-validated against the parent area.
//
// The one-to-many lineage cannot live in the single previous-version
// pointer; every parent→child edge is recorded on the audit entry instead.
func (e *Engine) Subdivision(ctx context.Context, in SubdivisionInput) ([]Result, error) {
	if in.CreatedBy == "" {
		return nil, apperrors.Validation("created_by is required")
	}
	if len(in.Lots) < 2 {
		return nil, apperrors.Domain("subdivision requires at least 2 lots, got %d", len(in.Lots))
	}
	for i, lot := range in.Lots {
		if lot.PIN == "" {
			return nil, apperrors.Validation("lot %d: PIN is required", i+1)
		}
		if !lot.Area.IsPositive() {
			return nil, apperrors.Validation("lot %d: area must be positive, got %s", i+1, lot.Area)
		}
		if len(lot.OwnerIDs) == 0 {
			return nil, apperrors.Validation("lot %d: at least one owner is required", i+1)
		}
	}

	var results []Result
	err := e.inTx(ctx, func(q database.Querier) error {
		source, prop, err := e.lockedActiveRecord(ctx, q, in.RecordID)
		if err != nil {
			return err
		}
		if prop.Kind != models.KindLand {
			return apperrors.Domain("only land can be subdivided; property %d is %s", prop.ID, prop.Kind)
		}
		if err := e.checkPeriod(ctx, q, in.PeriodID); err != nil {
			return err
		}

		sourceDetail, err := e.records.GetDetail(ctx, q, source.ID, models.KindLand)
		if err != nil {
			return err
		}
		sourceLand, ok := sourceDetail.(*models.LandDetail)
		if !ok || sourceLand == nil {
			return apperrors.Storage(nil, "record %d has no land detail", source.ID)
		}

		// Source goes terminal before any lot is created.
		if err := e.transitionProperty(ctx, q, prop, models.PropertySubdivided); err != nil {
			return err
		}
		if err := e.records.SetStatus(ctx, q, source.ID, models.RecordCancelled); err != nil {
			return err
		}

		var edges []models.LineageEdge
		results = make([]Result, 0, len(in.Lots))
		for _, lot := range in.Lots {
			lotProp := &models.Property{
				Kind:              models.KindLand,
				Status:            models.PropertyActive,
				PIN:               lot.PIN,
				Barangay:          prop.Barangay,
				Street:            prop.Street,
				City:              prop.City,
				LocationalGroupID: prop.LocationalGroupID,
			}
			if _, err := e.properties.Create(ctx, q, lotProp); err != nil {
				return err
			}

			lotDetail := &models.LandDetail{
				ClassificationID: sourceLand.ClassificationID,
				SubclassID:       sourceLand.SubclassID,
				ActualUseID:      sourceLand.ActualUseID,
				Area:             lot.Area,
				UnitValue:        sourceLand.UnitValue,
				AssessmentLevel:  sourceLand.AssessmentLevel,
				Improvements:     append([]models.LandImprovement(nil), lot.Improvements...),
			}

			val := valuation.Land(*lotDetail)
			rec := &models.ValuationRecord{
				PropertyID:        lotProp.ID,
				ValuationPeriodID: in.PeriodID,
				TransactionType:   models.TxSubdivision,
				EffectiveDate:     in.EffectiveDate,
				Status:            models.RecordActive,
				Taxable:           source.Taxable,
				MarketValue:       val.MarketValue,
				AssessedValue:     val.AssessedValue,
				Remarks:           in.Remarks,
				CreatedBy:         in.CreatedBy,
			}
			if _, err := e.records.Insert(ctx, q, rec); err != nil {
				return err
			}
			if err := e.records.InsertDetail(ctx, q, rec.ID, lotDetail); err != nil {
				return err
			}
			if _, err := e.snapshotNewOwners(ctx, q, lotProp.ID, rec.ID, lot.OwnerIDs); err != nil {
				return err
			}

			edges = append(edges, models.LineageEdge{ParentRecordID: source.ID, ChildRecordID: rec.ID})
			results = append(results, Result{NewRecordID: rec.ID, DocumentNo: rec.DocumentNo, PreviousRecordID: &source.ID})
		}

		entry := &models.HistoryEntry{
			PropertyID:      prop.ID,
			RecordID:        &source.ID,
			TransactionType: models.TxSubdivision,
			Remarks:         in.Remarks,
			CreatedBy:       in.CreatedBy,
		}
		if _, err := e.history.InsertEntry(ctx, q, entry, nil, edges); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("Parcel subdivided", map[string]interface{}{
		"source_record_id": in.RecordID,
		"lots":             len(results),
		"created_by":       in.CreatedBy,
	})
	return results, nil
}

// Consolidation merges two or more active land parcels into one new parcel:
// area and base market value are summed, the unit value is the quotient,
// improvements are the union of the sources'. Source percentage adjustments
// are not carried over: the summed figure is each source's unadjusted base,
// and the merged parcel starts without adjustments until its next revision.
// Every source property becomes CONSOLIDATED (terminal) and every source
// record is cancelled.
//
// The many-to-one lineage is recorded as parent→child edges on the audit
// entry; the new record's previous-version pointer stays empty.
func (e *Engine) Consolidation(ctx context.Context, in ConsolidationInput) (*Result, error) {
	if in.CreatedBy == "" {
		return nil, apperrors.Validation("created_by is required")
	}
	if len(in.RecordIDs) < 2 {
		return nil, apperrors.Domain("consolidation requires at least 2 records, got %d", len(in.RecordIDs))
	}
	seen := make(map[int64]bool, len(in.RecordIDs))
	for _, id := range in.RecordIDs {
		if seen[id] {
			return nil, apperrors.Validation("record %d listed more than once", id)
		}
		seen[id] = true
	}
	if in.PIN == "" || in.Barangay == "" || in.City == "" {
		return nil, apperrors.Validation("PIN, barangay, and city of the consolidated parcel are required")
	}

	var result *Result
	err := e.inTx(ctx, func(q database.Querier) error {
		if err := e.checkPeriod(ctx, q, in.PeriodID); err != nil {
			return err
		}

		sources := make([]*models.ValuationRecord, 0, len(in.RecordIDs))
		for _, id := range in.RecordIDs {
			rec, err := e.activeRecord(ctx, q, id)
			if err != nil {
				return err
			}
			sources = append(sources, rec)
		}

		// Lock source properties in id order so concurrent consolidations
		// sharing sources cannot deadlock.
		propIDs := make([]int64, 0, len(sources))
		for _, rec := range sources {
			propIDs = append(propIDs, rec.PropertyID)
		}
		sort.Slice(propIDs, func(i, j int) bool { return propIDs[i] < propIDs[j] })
		props := make(map[int64]*models.Property, len(propIDs))
		for _, id := range propIDs {
			p, err := e.lockProperty(ctx, q, id)
			if err != nil {
				return err
			}
			if p.Kind != models.KindLand {
				return apperrors.Domain("only land can be consolidated; property %d is %s", p.ID, p.Kind)
			}
			if p.Status != models.PropertyActive {
				return apperrors.Conflict("property %d is already %s", p.ID, p.Status)
			}
			props[id] = p
		}

		// The sources were read before the locks were taken; re-check them
		// now that concurrent operations on these properties are serialized.
		for i, rec := range sources {
			fresh, err := e.records.GetByID(ctx, q, rec.ID)
			if err != nil {
				return err
			}
			if fresh == nil || fresh.Status != models.RecordActive {
				return apperrors.Conflict("valuation record %d was superseded by a concurrent operation", rec.ID)
			}
			sources[i] = fresh
		}

		totalArea := decimal.Zero
		totalBMV := decimal.Zero
		var improvements []models.LandImprovement
		ownerSet := map[int64]bool{}
		var ownerIDs []int64
		var firstLand *models.LandDetail

		for _, rec := range sources {
			d, err := e.records.GetDetail(ctx, q, rec.ID, models.KindLand)
			if err != nil {
				return err
			}
			land, ok := d.(*models.LandDetail)
			if !ok || land == nil {
				return apperrors.Storage(nil, "record %d has no land detail", rec.ID)
			}
			if firstLand == nil {
				firstLand = land
			}
			totalArea = totalArea.Add(land.Area)
			totalBMV = totalBMV.Add(valuation.Land(*land).BaseMarketValue)
			improvements = append(improvements, land.Improvements...)

			linked, err := e.owners.ListLinkedOwners(ctx, q, rec.PropertyID)
			if err != nil {
				return err
			}
			for _, o := range linked {
				if !ownerSet[o.ID] {
					ownerSet[o.ID] = true
					ownerIDs = append(ownerIDs, o.ID)
				}
			}
		}
		if len(in.OwnerIDs) > 0 {
			ownerIDs = in.OwnerIDs
		}

		// Sources go terminal before the consolidated parcel is created.
		for _, rec := range sources {
			if err := e.transitionProperty(ctx, q, props[rec.PropertyID], models.PropertyConsolidated); err != nil {
				return err
			}
			if err := e.records.SetStatus(ctx, q, rec.ID, models.RecordCancelled); err != nil {
				return err
			}
		}

		newProp := &models.Property{
			Kind:              models.KindLand,
			Status:            models.PropertyActive,
			PIN:               in.PIN,
			Barangay:          in.Barangay,
			Street:            in.Street,
			City:              in.City,
			LocationalGroupID: in.LocationalGroupID,
		}
		if _, err := e.properties.Create(ctx, q, newProp); err != nil {
			return err
		}

		unitValue := totalBMV.Div(totalArea).Round(2)
		newDetail := &models.LandDetail{
			ClassificationID: firstLand.ClassificationID,
			SubclassID:       firstLand.SubclassID,
			ActualUseID:      firstLand.ActualUseID,
			Area:             totalArea,
			UnitValue:        unitValue,
			AssessmentLevel:  firstLand.AssessmentLevel,
			Improvements:     improvements,
		}

		// The base market value is the exact sum of the sources', not the
		// rounded unit value times the area; the quotient only drives the
		// stored unit value.
		improvementValue := decimal.Zero
		for _, imp := range improvements {
			improvementValue = improvementValue.Add(imp.Qty.Mul(imp.UnitValue))
		}
		marketValue := totalBMV.Add(improvementValue).Round(2)
		assessedValue := marketValue.Mul(firstLand.AssessmentLevel.Div(decimal.NewFromInt(100))).Round(2)

		rec := &models.ValuationRecord{
			PropertyID:        newProp.ID,
			ValuationPeriodID: in.PeriodID,
			TransactionType:   models.TxConsolidation,
			EffectiveDate:     in.EffectiveDate,
			Status:            models.RecordActive,
			Taxable:           sources[0].Taxable,
			MarketValue:       marketValue,
			AssessedValue:     assessedValue,
			Remarks:           in.Remarks,
			CreatedBy:         in.CreatedBy,
		}
		if _, err := e.records.Insert(ctx, q, rec); err != nil {
			return err
		}
		if err := e.records.InsertDetail(ctx, q, rec.ID, newDetail); err != nil {
			return err
		}
		if _, err := e.snapshotNewOwners(ctx, q, newProp.ID, rec.ID, ownerIDs); err != nil {
			return err
		}

		edges := make([]models.LineageEdge, 0, len(sources))
		for _, src := range sources {
			edges = append(edges, models.LineageEdge{ParentRecordID: src.ID, ChildRecordID: rec.ID})
		}
		entry := &models.HistoryEntry{
			PropertyID:      newProp.ID,
			RecordID:        &rec.ID,
			TransactionType: models.TxConsolidation,
			Remarks:         in.Remarks,
			CreatedBy:       in.CreatedBy,
		}
		if _, err := e.history.InsertEntry(ctx, q, entry, nil, edges); err != nil {
			return err
		}

		result = &Result{NewRecordID: rec.ID, DocumentNo: rec.DocumentNo}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("Parcels consolidated", map[string]interface{}{
		"source_records": in.RecordIDs,
		"record_id":      result.NewRecordID,
		"created_by":     in.CreatedBy,
	})
	return result, nil
}
