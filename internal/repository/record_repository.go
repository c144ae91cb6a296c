package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"cadastre/internal/database"
	"cadastre/internal/models"
)

// RecordRepository defines data access for valuation records and their
// kind-specific detail rows.
type RecordRepository interface {
	// Insert writes a new valuation record and stamps its document number
	// from the generated surrogate id, all within the caller's transaction.
	// The record's ID and DocumentNo fields are filled in on success.
	Insert(ctx context.Context, q database.Querier, rec *models.ValuationRecord) (int64, error)

	// GetByID loads one record. Returns nil, nil if missing.
	GetByID(ctx context.Context, q database.Querier, id int64) (*models.ValuationRecord, error)

	// GetActiveByProperty loads the property's single ACTIVE record.
	// Returns nil, nil when the property has no active record.
	GetActiveByProperty(ctx context.Context, q database.Querier, propertyID int64) (*models.ValuationRecord, error)

	// SetStatus moves a record to the given status.
	SetStatus(ctx context.Context, q database.Querier, id int64, status models.RecordStatus) error

	// ListByProperty returns all records of a property, newest first.
	ListByProperty(ctx context.Context, q database.Querier, propertyID int64) ([]models.ValuationRecord, error)

	// InsertDetail writes the kind-specific detail rows for a record.
	InsertDetail(ctx context.Context, q database.Querier, recordID int64, d models.Detail) error

	// GetDetail loads the kind-specific detail rows for a record.
	GetDetail(ctx context.Context, q database.Querier, recordID int64, kind models.PropertyKind) (models.Detail, error)
}

type recordRepository struct{}

// NewRecordRepository creates a RecordRepository.
func NewRecordRepository() RecordRepository {
	return &recordRepository{}
}

const recordColumns = `id, property_id, valuation_period_id, transaction_type, effective_date,
	previous_version_id, status, taxable, document_no, market_value, assessed_value,
	remarks, created_by, created_at`

func (r *recordRepository) Insert(ctx context.Context, q database.Querier, rec *models.ValuationRecord) (int64, error) {
	query := `
		INSERT INTO valuation_records
			(property_id, valuation_period_id, transaction_type, effective_date,
			 previous_version_id, status, taxable, document_no, market_value,
			 assessed_value, remarks, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, '', $8, $9, $10, $11)
		RETURNING id
	`

	var id int64
	err := q.QueryRow(ctx, query,
		rec.PropertyID,
		rec.ValuationPeriodID,
		rec.TransactionType,
		rec.EffectiveDate,
		rec.PreviousVersionID,
		rec.Status,
		rec.Taxable,
		rec.MarketValue,
		rec.AssessedValue,
		rec.Remarks,
		rec.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert valuation record for property %d: %w", rec.PropertyID, err)
	}

	// The document number is derived from the surrogate id, so it can only
	// be stamped after the insert. Same transaction, so never observable
	// without it.
	docNo := models.DocumentNo(id)
	if _, err := q.Exec(ctx,
		`UPDATE valuation_records SET document_no = $1 WHERE id = $2`, docNo, id); err != nil {
		return 0, fmt.Errorf("failed to stamp document number on record %d: %w", id, err)
	}

	rec.ID = id
	rec.DocumentNo = docNo
	return id, nil
}

func (r *recordRepository) GetByID(ctx context.Context, q database.Querier, id int64) (*models.ValuationRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM valuation_records WHERE id = $1`
	return r.scanOne(ctx, q, query, id)
}

func (r *recordRepository) GetActiveByProperty(ctx context.Context, q database.Querier, propertyID int64) (*models.ValuationRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM valuation_records WHERE property_id = $1 AND status = 'ACTIVE'`
	return r.scanOne(ctx, q, query, propertyID)
}

func (r *recordRepository) scanOne(ctx context.Context, q database.Querier, query string, arg any) (*models.ValuationRecord, error) {
	var rec models.ValuationRecord
	err := q.QueryRow(ctx, query, arg).Scan(
		&rec.ID,
		&rec.PropertyID,
		&rec.ValuationPeriodID,
		&rec.TransactionType,
		&rec.EffectiveDate,
		&rec.PreviousVersionID,
		&rec.Status,
		&rec.Taxable,
		&rec.DocumentNo,
		&rec.MarketValue,
		&rec.AssessedValue,
		&rec.Remarks,
		&rec.CreatedBy,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query valuation record: %w", err)
	}
	return &rec, nil
}

func (r *recordRepository) SetStatus(ctx context.Context, q database.Querier, id int64, status models.RecordStatus) error {
	query := `UPDATE valuation_records SET status = $1 WHERE id = $2`

	tag, err := q.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to set status of record %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("valuation record %d not found for status update", id)
	}
	return nil
}

func (r *recordRepository) ListByProperty(ctx context.Context, q database.Querier, propertyID int64) ([]models.ValuationRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM valuation_records WHERE property_id = $1 ORDER BY id DESC`

	rows, err := q.Query(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records for property %d: %w", propertyID, err)
	}
	defer rows.Close()

	records := []models.ValuationRecord{}
	for rows.Next() {
		var rec models.ValuationRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.PropertyID,
			&rec.ValuationPeriodID,
			&rec.TransactionType,
			&rec.EffectiveDate,
			&rec.PreviousVersionID,
			&rec.Status,
			&rec.Taxable,
			&rec.DocumentNo,
			&rec.MarketValue,
			&rec.AssessedValue,
			&rec.Remarks,
			&rec.CreatedBy,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}
	return records, nil
}
