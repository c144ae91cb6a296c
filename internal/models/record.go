package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RecordStatus is the lifecycle status of a valuation record.
type RecordStatus string

const (
	RecordActive    RecordStatus = "ACTIVE"
	RecordInactive  RecordStatus = "INACTIVE"
	RecordCancelled RecordStatus = "CANCELLED"
)

// TransactionType labels the operation that produced a valuation record
// (or, for CANCELLED/DESTROYED, the operation that retired it).
type TransactionType string

const (
	TxOriginal      TransactionType = "ORIGINAL"
	TxTransfer      TransactionType = "TRANSFER"
	TxRevision      TransactionType = "REVISION"
	TxReclassify    TransactionType = "RECLASSIFY"
	TxImprovement   TransactionType = "IMPROVEMENT"
	TxSubdivision   TransactionType = "SUBDIVISION"
	TxConsolidation TransactionType = "CONSOLIDATION"
	TxCancelled     TransactionType = "CANCELLED"
	TxDestroyed     TransactionType = "DESTROYED"
)

// DocumentNoPrefix prefixes every FAAS document number.
const DocumentNoPrefix = "FAAS"

// DocumentNo derives the document number from a record's surrogate id.
// It is fixed at insert time and never reused; there is no counter table.
func DocumentNo(recordID int64) string {
	return fmt.Sprintf("%s-%05d", DocumentNoPrefix, recordID)
}

// ValuationRecord is one versioned FAAS snapshot of a property's appraised
// and assessed value. Records are append-only: a new version supersedes the
// previous one, which is deactivated in the same transaction.
type ValuationRecord struct {
	ID                int64           `json:"id"`
	PropertyID        int64           `json:"property_id"`
	ValuationPeriodID int64           `json:"valuation_period_id"`
	TransactionType   TransactionType `json:"transaction_type"`
	EffectiveDate     time.Time       `json:"effective_date"`
	PreviousVersionID *int64          `json:"previous_version_id,omitempty"`
	Status            RecordStatus    `json:"status"`
	Taxable           bool            `json:"taxable"`
	DocumentNo        string          `json:"document_no"`
	MarketValue       decimal.Decimal `json:"market_value"`
	AssessedValue     decimal.Decimal `json:"assessed_value"`
	Remarks           string          `json:"remarks,omitempty"`
	CreatedBy         string          `json:"created_by"`
	CreatedAt         time.Time       `json:"created_at"`
}
