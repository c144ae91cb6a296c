package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"cadastre/internal/apperrors"
	"cadastre/internal/database"
	"cadastre/internal/logger"
	"cadastre/internal/models"
	"cadastre/internal/repository"
	"cadastre/internal/valuation"
)

// Engine orchestrates the nine valuation-record transactions. Each operation
// runs inside exactly one database transaction: it locks the property row,
// validates kind and status invariants, deactivates the old active version
// strictly before inserting its successor, recomputes valuation, snapshots
// owners, and appends one audit entry. Any failure rolls the whole operation
// back; no partial state is ever observable.
type Engine struct {
	tx          database.TxRunner
	properties  repository.PropertyRepository
	records     repository.RecordRepository
	owners      repository.OwnerRepository
	history     repository.HistoryRepository
	refs        repository.ReferenceRepository
	residualPct decimal.Decimal
	log         *logger.Logger
}

// NewEngine wires an Engine. residualPct is the machinery residual-value
// floor percentage from configuration.
func NewEngine(
	tx database.TxRunner,
	properties repository.PropertyRepository,
	records repository.RecordRepository,
	owners repository.OwnerRepository,
	history repository.HistoryRepository,
	refs repository.ReferenceRepository,
	residualPct decimal.Decimal,
	log *logger.Logger,
) *Engine {
	return &Engine{
		tx:          tx,
		properties:  properties,
		records:     records,
		owners:      owners,
		history:     history,
		refs:        refs,
		residualPct: residualPct,
		log:         log,
	}
}

// inTx runs fn in one transaction and classifies any non-domain failure as
// a storage error. Domain-classified errors pass through unchanged.
func (e *Engine) inTx(ctx context.Context, fn func(q database.Querier) error) error {
	err := e.tx.InTx(ctx, fn)
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Storage(err, "transaction failed")
}

// lockProperty loads a property under a row lock, serializing concurrent
// operations on the same property.
func (e *Engine) lockProperty(ctx context.Context, q database.Querier, id int64) (*models.Property, error) {
	prop, err := e.properties.GetForUpdate(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, apperrors.NotFound("property %d not found", id)
	}
	return prop, nil
}

// activeRecord loads a record that must currently be the active version.
func (e *Engine) activeRecord(ctx context.Context, q database.Querier, recordID int64) (*models.ValuationRecord, error) {
	rec, err := e.records.GetByID(ctx, q, recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Status != models.RecordActive {
		return nil, apperrors.NotFound("valuation record %d not found or not active", recordID)
	}
	return rec, nil
}

// lockedActiveRecord resolves a record to its property, locks the property
// row, and re-reads the record under the lock. The pre-lock read can race a
// concurrent operation on the same record; only the locked read decides. An
// operation that lost the race finds its record already superseded here and
// reports a conflict instead of tripping the single-active index on insert.
func (e *Engine) lockedActiveRecord(ctx context.Context, q database.Querier, recordID int64) (*models.ValuationRecord, *models.Property, error) {
	rec, err := e.activeRecord(ctx, q, recordID)
	if err != nil {
		return nil, nil, err
	}
	prop, err := e.lockProperty(ctx, q, rec.PropertyID)
	if err != nil {
		return nil, nil, err
	}
	rec, err = e.records.GetByID(ctx, q, recordID)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil || rec.Status != models.RecordActive {
		return nil, nil, apperrors.Conflict("valuation record %d was superseded by a concurrent operation", recordID)
	}
	return rec, prop, nil
}

// transitionProperty moves a property along the registry's status table.
// Disallowed transitions are invariant violations.
func (e *Engine) transitionProperty(ctx context.Context, q database.Querier, prop *models.Property, to models.PropertyStatus) error {
	if !models.CanTransition(prop.Status, to) {
		return apperrors.Conflict("property %d cannot move from %s to %s", prop.ID, prop.Status, to)
	}
	if err := e.properties.UpdateStatus(ctx, q, prop.ID, to); err != nil {
		return err
	}
	prop.Status = to
	return nil
}

// checkPeriod verifies the valuation period referenced by the caller exists.
// The active period is always resolved by the caller and passed in
// explicitly; the engine never looks it up on its own.
func (e *Engine) checkPeriod(ctx context.Context, q database.Querier, periodID int64) error {
	if periodID == 0 {
		return apperrors.Validation("valuation period is required")
	}
	ok, err := e.refs.Exists(ctx, q, repository.RefValuationPeriods, periodID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("valuation period %d not found", periodID)
	}
	return nil
}

// checkDetailRefs verifies referential presence of the detail's foreign
// keys. Only presence is checked, never business meaning.
func (e *Engine) checkDetailRefs(ctx context.Context, q database.Querier, d models.Detail) error {
	type ref struct {
		table repository.ReferenceTable
		id    int64
		name  string
	}
	var refsToCheck []ref

	switch detail := d.(type) {
	case *models.LandDetail:
		refsToCheck = []ref{
			{repository.RefClassifications, detail.ClassificationID, "classification"},
			{repository.RefSubclasses, detail.SubclassID, "subclass"},
			{repository.RefActualUses, detail.ActualUseID, "actual use"},
		}
	case *models.BuildingDetail:
		refsToCheck = []ref{
			{repository.RefBuildingKinds, detail.BuildingKindID, "building kind"},
			{repository.RefStructuralTypes, detail.StructuralTypeID, "structural type"},
		}
	case *models.MachineryDetail:
		refsToCheck = []ref{
			{repository.RefMachineryTypes, detail.MachineryTypeID, "machinery type"},
		}
	}

	for _, rc := range refsToCheck {
		if rc.id == 0 {
			continue
		}
		ok, err := e.refs.Exists(ctx, q, rc.table, rc.id)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.Validation("%s %d does not exist", rc.name, rc.id)
		}
	}
	return nil
}

// snapshotNewOwners replaces the property's owner links and freezes the
// owners onto the record. Every owner id must resolve to a master record.
func (e *Engine) snapshotNewOwners(ctx context.Context, q database.Querier, propertyID, recordID int64, ownerIDs []int64) ([]models.OwnerSnapshot, error) {
	if len(ownerIDs) == 0 {
		return nil, apperrors.Validation("at least one owner is required")
	}

	snaps := make([]models.OwnerSnapshot, 0, len(ownerIDs))
	for _, ownerID := range ownerIDs {
		owner, err := e.owners.GetOwner(ctx, q, ownerID)
		if err != nil {
			return nil, err
		}
		if owner == nil {
			return nil, apperrors.NotFound("owner %d not found", ownerID)
		}
		snaps = append(snaps, models.SnapshotOf(recordID, *owner))
	}

	if err := e.owners.ReplaceLinks(ctx, q, propertyID, ownerIDs); err != nil {
		return nil, err
	}
	if err := e.owners.InsertSnapshots(ctx, q, snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

// carryForwardOwners copies the previous version's owner snapshots onto the
// new version unchanged. Returns the carried snapshots.
func (e *Engine) carryForwardOwners(ctx context.Context, q database.Querier, oldRecordID, newRecordID int64) ([]models.OwnerSnapshot, error) {
	oldSnaps, err := e.owners.ListSnapshots(ctx, q, oldRecordID)
	if err != nil {
		return nil, err
	}
	carried := make([]models.OwnerSnapshot, 0, len(oldSnaps))
	for _, s := range oldSnaps {
		s.ID = 0
		s.RecordID = newRecordID
		carried = append(carried, s)
	}
	if err := e.owners.InsertSnapshots(ctx, q, carried); err != nil {
		return nil, err
	}
	return carried, nil
}

// CreateOriginal registers a property (or re-assesses an existing one) and
// issues its first valuation record for the given period.
func (e *Engine) CreateOriginal(ctx context.Context, in CreateOriginalInput) (*Result, error) {
	if in.CreatedBy == "" {
		return nil, apperrors.Validation("created_by is required")
	}
	if in.Detail == nil {
		return nil, apperrors.Validation("appraisal detail is required")
	}
	if err := in.Detail.Validate(); err != nil {
		return nil, err
	}
	if in.PropertyID == nil {
		if in.Property == nil {
			return nil, apperrors.Validation("property draft is required for a new property")
		}
		if !in.Property.Kind.Valid() {
			return nil, apperrors.Validation("unknown property kind %q", in.Property.Kind)
		}
		if in.Property.Kind != in.Detail.Kind() {
			return nil, apperrors.Domain("detail kind %s does not match property kind %s", in.Detail.Kind(), in.Property.Kind)
		}
		if in.Property.PIN == "" || in.Property.Barangay == "" || in.Property.City == "" {
			return nil, apperrors.Validation("property PIN, barangay, and city are required")
		}
	}

	var result *Result
	err := e.inTx(ctx, func(q database.Querier) error {
		if err := e.checkPeriod(ctx, q, in.PeriodID); err != nil {
			return err
		}
		if err := e.checkDetailRefs(ctx, q, in.Detail); err != nil {
			return err
		}
		if in.Property != nil && in.Property.LocationalGroupID != nil {
			ok, err := e.refs.Exists(ctx, q, repository.RefLocationalGroups, *in.Property.LocationalGroupID)
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.Validation("locational group %d does not exist", *in.Property.LocationalGroupID)
			}
		}

		var prop *models.Property
		var previousID *int64

		if in.PropertyID != nil {
			existing, err := e.lockProperty(ctx, q, *in.PropertyID)
			if err != nil {
				return err
			}
			if existing.Status != models.PropertyActive {
				return apperrors.Domain("property %d is %s; no new assessment may be created", existing.ID, existing.Status)
			}
			if existing.Kind != in.Detail.Kind() {
				return apperrors.Domain("detail kind %s does not match property kind %s", in.Detail.Kind(), existing.Kind)
			}
			// Re-assessment: the prior active version is deactivated, not
			// cancelled, before the replacement is inserted.
			active, err := e.records.GetActiveByProperty(ctx, q, existing.ID)
			if err != nil {
				return err
			}
			if active != nil {
				if err := e.records.SetStatus(ctx, q, active.ID, models.RecordInactive); err != nil {
					return err
				}
				previousID = &active.ID
			}
			prop = existing
		} else {
			prop = &models.Property{
				Kind:              in.Property.Kind,
				Status:            models.PropertyActive,
				PIN:               in.Property.PIN,
				Barangay:          in.Property.Barangay,
				Street:            in.Property.Street,
				City:              in.Property.City,
				LocationalGroupID: in.Property.LocationalGroupID,
			}
			if _, err := e.properties.Create(ctx, q, prop); err != nil {
				return err
			}
		}

		val := valuation.Compute(in.Detail, e.residualPct)
		rec := &models.ValuationRecord{
			PropertyID:        prop.ID,
			ValuationPeriodID: in.PeriodID,
			TransactionType:   models.TxOriginal,
			EffectiveDate:     in.EffectiveDate,
			PreviousVersionID: previousID,
			Status:            models.RecordActive,
			Taxable:           in.Taxable,
			MarketValue:       val.MarketValue,
			AssessedValue:     val.AssessedValue,
			Remarks:           in.Remarks,
			CreatedBy:         in.CreatedBy,
		}
		if _, err := e.records.Insert(ctx, q, rec); err != nil {
			return err
		}
		if err := e.records.InsertDetail(ctx, q, rec.ID, in.Detail); err != nil {
			return err
		}
		if _, err := e.snapshotNewOwners(ctx, q, prop.ID, rec.ID, in.OwnerIDs); err != nil {
			return err
		}

		entry := &models.HistoryEntry{
			PropertyID:      prop.ID,
			RecordID:        &rec.ID,
			TransactionType: models.TxOriginal,
			Remarks:         in.Remarks,
			CreatedBy:       in.CreatedBy,
		}
		if _, err := e.history.InsertEntry(ctx, q, entry, nil, nil); err != nil {
			return err
		}

		result = &Result{NewRecordID: rec.ID, DocumentNo: rec.DocumentNo, PreviousRecordID: previousID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("Original assessment created", map[string]interface{}{
		"record_id":   result.NewRecordID,
		"document_no": result.DocumentNo,
		"created_by":  in.CreatedBy,
	})
	return result, nil
}

// Transfer issues a new version under new ownership. The appraisal detail
// and valuation are copied verbatim from the superseded version.
func (e *Engine) Transfer(ctx context.Context, in TransferInput) (*Result, error) {
	if in.CreatedBy == "" {
		return nil, apperrors.Validation("created_by is required")
	}
	if len(in.NewOwnerIDs) == 0 {
		return nil, apperrors.Validation("at least one new owner is required")
	}

	var result *Result
	err := e.inTx(ctx, func(q database.Querier) error {
		old, prop, err := e.lockedActiveRecord(ctx, q, in.RecordID)
		if err != nil {
			return err
		}
		if prop.Status != models.PropertyActive {
			return apperrors.Domain("property %d is %s; transfer is not applicable", prop.ID, prop.Status)
		}
		if err := e.checkPeriod(ctx, q, in.PeriodID); err != nil {
			return err
		}

		detail, err := e.records.GetDetail(ctx, q, old.ID, prop.Kind)
		if err != nil {
			return err
		}
		if detail == nil {
			return apperrors.Storage(nil, "record %d has no %s detail", old.ID, prop.Kind)
		}
		oldSnaps, err := e.owners.ListSnapshots(ctx, q, old.ID)
		if err != nil {
			return err
		}

		// Old version goes first; the replacement is only inserted after.
		if err := e.records.SetStatus(ctx, q, old.ID, models.RecordCancelled); err != nil {
			return err
		}

		rec := &models.ValuationRecord{
			PropertyID:        prop.ID,
			ValuationPeriodID: in.PeriodID,
			TransactionType:   models.TxTransfer,
			EffectiveDate:     in.EffectiveDate,
			PreviousVersionID: &old.ID,
			Status:            models.RecordActive,
			Taxable:           old.Taxable,
			MarketValue:       old.MarketValue,
			AssessedValue:     old.AssessedValue,
			Remarks:           in.Remarks,
			CreatedBy:         in.CreatedBy,
		}
		if _, err := e.records.Insert(ctx, q, rec); err != nil {
			return err
		}
		if err := e.records.InsertDetail(ctx, q, rec.ID, detail.CopyForward()); err != nil {
			return err
		}
		newSnaps, err := e.snapshotNewOwners(ctx, q, prop.ID, rec.ID, in.NewOwnerIDs)
		if err != nil {
			return err
		}

		changes := diffRecords(old, rec)
		changes = append(changes, diffOwnerSnapshots(oldSnaps, newSnaps)...)
		entry := &models.HistoryEntry{
			PropertyID:      prop.ID,
			RecordID:        &rec.ID,
			TransactionType: models.TxTransfer,
			Remarks:         in.Remarks,
			CreatedBy:       in.CreatedBy,
		}
		if _, err := e.history.InsertEntry(ctx, q, entry, changes, nil); err != nil {
			return err
		}

		result = &Result{NewRecordID: rec.ID, DocumentNo: rec.DocumentNo, PreviousRecordID: &old.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("Ownership transferred", map[string]interface{}{
		"record_id":          result.NewRecordID,
		"previous_record_id": *result.PreviousRecordID,
		"created_by":         in.CreatedBy,
	})
	return result, nil
}

// Revision issues a new version with the valuation recomputed from the
// revised appraisal inputs.
func (e *Engine) Revision(ctx context.Context, in RevisionInput) (*Result, error) {
	if in.CreatedBy == "" {
		return nil, apperrors.Validation("created_by is required")
	}
	if in.Detail == nil {
		return nil, apperrors.Validation("revised appraisal detail is required")
	}
	if err := in.Detail.Validate(); err != nil {
		return nil, err
	}

	var result *Result
	err := e.inTx(ctx, func(q database.Querier) error {
		old, prop, err := e.lockedActiveRecord(ctx, q, in.RecordID)
		if err != nil {
			return err
		}
		if prop.Status != models.PropertyActive {
			return apperrors.Domain("property %d is %s; revision is not applicable", prop.ID, prop.Status)
		}
		if prop.Kind != in.Detail.Kind() {
			return apperrors.Domain("detail kind %s does not match property kind %s", in.Detail.Kind(), prop.Kind)
		}
		if err := e.checkPeriod(ctx, q, in.PeriodID); err != nil {
			return err
		}
		if err := e.checkDetailRefs(ctx, q, in.Detail); err != nil {
			return err
		}

		oldDetail, err := e.records.GetDetail(ctx, q, old.ID, prop.Kind)
		if err != nil {
			return err
		}

		if err := e.records.SetStatus(ctx, q, old.ID, models.RecordCancelled); err != nil {
			return err
		}

		val := valuation.Compute(in.Detail, e.residualPct)
		rec := &models.ValuationRecord{
			PropertyID:        prop.ID,
			ValuationPeriodID: in.PeriodID,
			TransactionType:   models.TxRevision,
			EffectiveDate:     in.EffectiveDate,
			PreviousVersionID: &old.ID,
			Status:            models.RecordActive,
			Taxable:           in.Taxable,
			MarketValue:       val.MarketValue,
			AssessedValue:     val.AssessedValue,
			Remarks:           in.Remarks,
			CreatedBy:         in.CreatedBy,
		}
		if _, err := e.records.Insert(ctx, q, rec); err != nil {
			return err
		}
		if err := e.records.InsertDetail(ctx, q, rec.ID, in.Detail); err != nil {
			return err
		}
		if _, err := e.carryForwardOwners(ctx, q, old.ID, rec.ID); err != nil {
			return err
		}

		changes := diffRecords(old, rec)
		if oldDetail != nil {
			changes = append(changes, diffDetails(oldDetail, in.Detail)...)
		}
		entry := &models.HistoryEntry{
			PropertyID:      prop.ID,
			RecordID:        &rec.ID,
			TransactionType: models.TxRevision,
			Remarks:         in.Remarks,
			CreatedBy:       in.CreatedBy,
		}
		if _, err := e.history.InsertEntry(ctx, q, entry, changes, nil); err != nil {
			return err
		}

		result = &Result{NewRecordID: rec.ID, DocumentNo: rec.DocumentNo, PreviousRecordID: &old.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("Valuation revised", map[string]interface{}{
		"record_id":          result.NewRecordID,
		"previous_record_id": *result.PreviousRecordID,
		"created_by":         in.CreatedBy,
	})
	return result, nil
}

// Reclassify issues a new version with updated classification and assessment
// level and a recomputed assessed value. The property kind never changes,
// and machinery records cannot be reclassified.
func (e *Engine) Reclassify(ctx context.Context, in ReclassifyInput) (*Result, error) {
	if in.CreatedBy == "" {
		return nil, apperrors.Validation("created_by is required")
	}

	var result *Result
	err := e.inTx(ctx, func(q database.Querier) error {
		old, prop, err := e.lockedActiveRecord(ctx, q, in.RecordID)
		if err != nil {
			return err
		}
		if prop.Kind == models.KindMachinery {
			return apperrors.Domain("machinery records cannot be reclassified")
		}
		if prop.Status != models.PropertyActive {
			return apperrors.Domain("property %d is %s; reclassification is not applicable", prop.ID, prop.Status)
		}
		if err := e.checkPeriod(ctx, q, in.PeriodID); err != nil {
			return err
		}

		oldDetail, err := e.records.GetDetail(ctx, q, old.ID, prop.Kind)
		if err != nil {
			return err
		}
		if oldDetail == nil {
			return apperrors.Storage(nil, "record %d has no %s detail", old.ID, prop.Kind)
		}

		newDetail := oldDetail.CopyForward()
		switch d := newDetail.(type) {
		case *models.LandDetail:
			if in.ClassificationID != nil {
				d.ClassificationID = *in.ClassificationID
			}
			if in.SubclassID != nil {
				d.SubclassID = *in.SubclassID
			}
			if in.ActualUseID != nil {
				d.ActualUseID = *in.ActualUseID
			}
			d.AssessmentLevel = in.AssessmentLevel
		case *models.BuildingDetail:
			if in.BuildingKindID != nil {
				d.BuildingKindID = *in.BuildingKindID
			}
			if in.StructuralTypeID != nil {
				d.StructuralTypeID = *in.StructuralTypeID
			}
			d.AssessmentLevel = in.AssessmentLevel
		}
		if err := newDetail.Validate(); err != nil {
			return err
		}
		if err := e.checkDetailRefs(ctx, q, newDetail); err != nil {
			return err
		}

		if err := e.records.SetStatus(ctx, q, old.ID, models.RecordCancelled); err != nil {
			return err
		}

		val := valuation.Compute(newDetail, e.residualPct)
		rec := &models.ValuationRecord{
			PropertyID:        prop.ID,
			ValuationPeriodID: in.PeriodID,
			TransactionType:   models.TxReclassify,
			EffectiveDate:     in.EffectiveDate,
			PreviousVersionID: &old.ID,
			Status:            models.RecordActive,
			Taxable:           old.Taxable,
			MarketValue:       val.MarketValue,
			AssessedValue:     val.AssessedValue,
			Remarks:           in.Remarks,
			CreatedBy:         in.CreatedBy,
		}
		if _, err := e.records.Insert(ctx, q, rec); err != nil {
			return err
		}
		if err := e.records.InsertDetail(ctx, q, rec.ID, newDetail); err != nil {
			return err
		}
		if _, err := e.carryForwardOwners(ctx, q, old.ID, rec.ID); err != nil {
			return err
		}

		changes := diffRecords(old, rec)
		changes = append(changes, diffDetails(oldDetail, newDetail)...)
		entry := &models.HistoryEntry{
			PropertyID:      prop.ID,
			RecordID:        &rec.ID,
			TransactionType: models.TxReclassify,
			Remarks:         in.Remarks,
			CreatedBy:       in.CreatedBy,
		}
		if _, err := e.history.InsertEntry(ctx, q, entry, changes, nil); err != nil {
			return err
		}

		result = &Result{NewRecordID: rec.ID, DocumentNo: rec.DocumentNo, PreviousRecordID: &old.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("Record reclassified", map[string]interface{}{
		"record_id":          result.NewRecordID,
		"previous_record_id": *result.PreviousRecordID,
		"created_by":         in.CreatedBy,
	})
	return result, nil
}

// Cancel retires a record and its property. Terminal: no new version is
// created and no further transaction may touch the property.
func (e *Engine) Cancel(ctx context.Context, in CancelInput) error {
	if in.CreatedBy == "" {
		return apperrors.Validation("created_by is required")
	}
	if in.Reason == "" {
		return apperrors.Validation("a cancellation reason is required")
	}

	err := e.inTx(ctx, func(q database.Querier) error {
		old, prop, err := e.lockedActiveRecord(ctx, q, in.RecordID)
		if err != nil {
			return err
		}
		if err := e.transitionProperty(ctx, q, prop, models.PropertyCancelled); err != nil {
			return err
		}
		if err := e.records.SetStatus(ctx, q, old.ID, models.RecordCancelled); err != nil {
			return err
		}

		changes := []models.HistoryChange{
			{Field: "record_status", OldValue: string(models.RecordActive), NewValue: string(models.RecordCancelled)},
			{Field: "property_status", OldValue: string(models.PropertyActive), NewValue: string(models.PropertyCancelled)},
		}
		entry := &models.HistoryEntry{
			PropertyID:      prop.ID,
			RecordID:        &old.ID,
			TransactionType: models.TxCancelled,
			Remarks:         in.Reason,
			CreatedBy:       in.CreatedBy,
		}
		if _, err := e.history.InsertEntry(ctx, q, entry, changes, nil); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.log.Info("Record cancelled", map[string]interface{}{
		"record_id":  in.RecordID,
		"reason":     in.Reason,
		"created_by": in.CreatedBy,
	})
	return nil
}

// Destroy records the physical destruction of a building or machinery.
// Terminal for the property; land cannot be destroyed.
func (e *Engine) Destroy(ctx context.Context, in DestroyInput) error {
	if in.CreatedBy == "" {
		return apperrors.Validation("created_by is required")
	}
	if in.Reason == "" {
		return apperrors.Validation("a destruction reason is required")
	}

	err := e.inTx(ctx, func(q database.Querier) error {
		old, prop, err := e.lockedActiveRecord(ctx, q, in.RecordID)
		if err != nil {
			return err
		}
		if prop.Kind != models.KindBuilding && prop.Kind != models.KindMachinery {
			return apperrors.Domain("only buildings and machinery can be destroyed; property %d is %s", prop.ID, prop.Kind)
		}
		if err := e.transitionProperty(ctx, q, prop, models.PropertyDestroyed); err != nil {
			return err
		}
		if err := e.records.SetStatus(ctx, q, old.ID, models.RecordCancelled); err != nil {
			return err
		}

		changes := []models.HistoryChange{
			{Field: "record_status", OldValue: string(models.RecordActive), NewValue: string(models.RecordCancelled)},
			{Field: "property_status", OldValue: string(models.PropertyActive), NewValue: string(models.PropertyDestroyed)},
		}
		entry := &models.HistoryEntry{
			PropertyID:      prop.ID,
			RecordID:        &old.ID,
			TransactionType: models.TxDestroyed,
			Remarks:         in.Reason,
			CreatedBy:       in.CreatedBy,
		}
		if _, err := e.history.InsertEntry(ctx, q, entry, changes, nil); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.log.Info("Property destroyed", map[string]interface{}{
		"record_id":  in.RecordID,
		"reason":     in.Reason,
		"created_by": in.CreatedBy,
	})
	return nil
}

// Improvement issues a new land version carrying all prior improvements
// forward plus the new items.
func (e *Engine) Improvement(ctx context.Context, in ImprovementInput) (*Result, error) {
	if in.CreatedBy == "" {
		return nil, apperrors.Validation("created_by is required")
	}
	if len(in.Items) == 0 {
		return nil, apperrors.Validation("at least one improvement item is required")
	}
	for _, item := range in.Items {
		if item.Description == "" {
			return nil, apperrors.Validation("improvement description is required")
		}
		if item.Qty.IsNegative() || item.UnitValue.IsNegative() {
			return nil, apperrors.Validation("improvement %q has negative qty or unit value", item.Description)
		}
	}

	var result *Result
	err := e.inTx(ctx, func(q database.Querier) error {
		old, prop, err := e.lockedActiveRecord(ctx, q, in.RecordID)
		if err != nil {
			return err
		}
		if prop.Kind != models.KindLand {
			return apperrors.Domain("improvements apply to land only; property %d is %s", prop.ID, prop.Kind)
		}
		if prop.Status != models.PropertyActive {
			return apperrors.Domain("property %d is %s; improvement is not applicable", prop.ID, prop.Status)
		}
		if err := e.checkPeriod(ctx, q, in.PeriodID); err != nil {
			return err
		}

		oldDetail, err := e.records.GetDetail(ctx, q, old.ID, models.KindLand)
		if err != nil {
			return err
		}
		oldLand, ok := oldDetail.(*models.LandDetail)
		if !ok || oldLand == nil {
			return apperrors.Storage(nil, "record %d has no land detail", old.ID)
		}

		newLand := oldLand.CopyForward().(*models.LandDetail)
		newLand.Improvements = append(newLand.Improvements, in.Items...)

		if err := e.records.SetStatus(ctx, q, old.ID, models.RecordCancelled); err != nil {
			return err
		}

		val := valuation.Land(*newLand)
		rec := &models.ValuationRecord{
			PropertyID:        prop.ID,
			ValuationPeriodID: in.PeriodID,
			TransactionType:   models.TxImprovement,
			EffectiveDate:     in.EffectiveDate,
			PreviousVersionID: &old.ID,
			Status:            models.RecordActive,
			Taxable:           old.Taxable,
			MarketValue:       val.MarketValue,
			AssessedValue:     val.AssessedValue,
			Remarks:           in.Remarks,
			CreatedBy:         in.CreatedBy,
		}
		if _, err := e.records.Insert(ctx, q, rec); err != nil {
			return err
		}
		if err := e.records.InsertDetail(ctx, q, rec.ID, newLand); err != nil {
			return err
		}
		if _, err := e.carryForwardOwners(ctx, q, old.ID, rec.ID); err != nil {
			return err
		}

		changes := diffRecords(old, rec)
		changes = append(changes, diffDetails(oldLand, newLand)...)
		entry := &models.HistoryEntry{
			PropertyID:      prop.ID,
			RecordID:        &rec.ID,
			TransactionType: models.TxImprovement,
			Remarks:         in.Remarks,
			CreatedBy:       in.CreatedBy,
		}
		if _, err := e.history.InsertEntry(ctx, q, entry, changes, nil); err != nil {
			return err
		}

		result = &Result{NewRecordID: rec.ID, DocumentNo: rec.DocumentNo, PreviousRecordID: &old.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("Improvements recorded", map[string]interface{}{
		"record_id":          result.NewRecordID,
		"previous_record_id": *result.PreviousRecordID,
		"items":              len(in.Items),
		"created_by":         in.CreatedBy,
	})
	return result, nil
}
