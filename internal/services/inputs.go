package services

import (
	"time"

	"github.com/shopspring/decimal"

	"cadastre/internal/models"
)

// Result is the outcome of an engine operation that produced one new record.
type Result struct {
	NewRecordID      int64  `json:"new_record_id"`
	DocumentNo       string `json:"document_no"`
	PreviousRecordID *int64 `json:"previous_record_id,omitempty"`
}

// PropertyDraft carries the identity fields for a property created by
// CreateOriginal or Subdivision.
type PropertyDraft struct {
	Kind              models.PropertyKind
	PIN               string
	Barangay          string
	Street            string
	City              string
	LocationalGroupID *int64
}

// CreateOriginalInput creates the first valuation record of a property.
// When PropertyID is set the property already exists (re-assessment) and any
// currently active record is deactivated first; otherwise Property describes
// the new property to register.
type CreateOriginalInput struct {
	PropertyID    *int64
	Property      *PropertyDraft
	Detail        models.Detail
	OwnerIDs      []int64
	PeriodID      int64
	EffectiveDate time.Time
	Taxable       bool
	Remarks       string
	CreatedBy     string
}

// TransferInput transfers ownership; the appraisal is carried forward verbatim.
type TransferInput struct {
	RecordID      int64
	PeriodID      int64
	EffectiveDate time.Time
	NewOwnerIDs   []int64
	Remarks       string
	CreatedBy     string
}

// RevisionInput supplies the full revised appraisal inputs for the record's kind.
type RevisionInput struct {
	RecordID      int64
	PeriodID      int64
	EffectiveDate time.Time
	Detail        models.Detail
	Taxable       bool
	Remarks       string
	CreatedBy     string
}

// ReclassifyInput updates classification/actual-use and the assessment level.
// Land fields and building fields are mutually exclusive; unset pointers
// leave the prior value in place. Machinery records cannot be reclassified.
type ReclassifyInput struct {
	RecordID         int64
	PeriodID         int64
	EffectiveDate    time.Time
	ClassificationID *int64
	SubclassID       *int64
	ActualUseID      *int64
	BuildingKindID   *int64
	StructuralTypeID *int64
	AssessmentLevel  decimal.Decimal
	Remarks          string
	CreatedBy        string
}

// CancelInput retires a record and its property.
type CancelInput struct {
	RecordID  int64
	Reason    string
	CreatedBy string
}

// DestroyInput records the physical destruction of a building or machinery.
type DestroyInput struct {
	RecordID  int64
	Reason    string
	CreatedBy string
}

// ImprovementInput adds improvement items to a land parcel, carrying all
// prior improvements forward.
type ImprovementInput struct {
	RecordID      int64
	PeriodID      int64
	EffectiveDate time.Time
	Items         []models.LandImprovement
	Remarks       string
	CreatedBy     string
}

// LotSpec describes one resulting lot of a subdivision. Area, owners, and
// improvements are caller-supplied; lot areas are not cross-validated
// against the parent area.
type LotSpec struct {
	PIN          string
	Area         decimal.Decimal
	OwnerIDs     []int64
	Improvements []models.LandImprovement
}

// SubdivisionInput splits one land parcel into two or more new parcels.
type SubdivisionInput struct {
	RecordID      int64
	PeriodID      int64
	EffectiveDate time.Time
	Lots          []LotSpec
	Remarks       string
	CreatedBy     string
}

// ConsolidationInput merges two or more active land parcels into one new
// parcel. When OwnerIDs is empty the union of the sources' current owners
// is used.
type ConsolidationInput struct {
	RecordIDs         []int64
	PeriodID          int64
	EffectiveDate     time.Time
	PIN               string
	Barangay          string
	Street            string
	City              string
	LocationalGroupID *int64
	OwnerIDs          []int64
	Remarks           string
	CreatedBy         string
}
