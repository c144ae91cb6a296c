package services

import (
	"context"

	"cadastre/internal/apperrors"
	"cadastre/internal/database"
	"cadastre/internal/logger"
	"cadastre/internal/models"
	"cadastre/internal/repository"
)

// RecordView is one fully-loaded valuation record: the version row, its
// kind-specific detail, and the owner snapshots frozen onto it.
type RecordView struct {
	Record   models.ValuationRecord `json:"record"`
	Detail   models.Detail          `json:"detail"`
	Owners   []models.OwnerSnapshot `json:"owners"`
	Property models.Property        `json:"property"`
}

// RecordService answers read-only record queries.
type RecordService interface {
	// GetRecord loads one record with its detail and owner snapshots.
	GetRecord(ctx context.Context, recordID int64) (*RecordView, error)

	// ListByProperty returns a property's full version lineage, newest first.
	ListByProperty(ctx context.Context, propertyID int64) ([]models.ValuationRecord, error)
}

type recordService struct {
	q          database.Querier
	properties repository.PropertyRepository
	records    repository.RecordRepository
	owners     repository.OwnerRepository
	log        *logger.Logger
}

// NewRecordService creates a RecordService reading through q.
func NewRecordService(q database.Querier, properties repository.PropertyRepository, records repository.RecordRepository, owners repository.OwnerRepository, log *logger.Logger) RecordService {
	return &recordService{q: q, properties: properties, records: records, owners: owners, log: log}
}

func (s *recordService) GetRecord(ctx context.Context, recordID int64) (*RecordView, error) {
	rec, err := s.records.GetByID(ctx, s.q, recordID)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to load record %d", recordID)
	}
	if rec == nil {
		return nil, apperrors.NotFound("valuation record %d not found", recordID)
	}

	prop, err := s.properties.Get(ctx, s.q, rec.PropertyID)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to load property %d", rec.PropertyID)
	}
	if prop == nil {
		return nil, apperrors.NotFound("property %d not found", rec.PropertyID)
	}

	detail, err := s.records.GetDetail(ctx, s.q, rec.ID, prop.Kind)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to load detail of record %d", rec.ID)
	}

	snaps, err := s.owners.ListSnapshots(ctx, s.q, rec.ID)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to load owners of record %d", rec.ID)
	}

	return &RecordView{Record: *rec, Detail: detail, Owners: snaps, Property: *prop}, nil
}

func (s *recordService) ListByProperty(ctx context.Context, propertyID int64) ([]models.ValuationRecord, error) {
	prop, err := s.properties.Get(ctx, s.q, propertyID)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to load property %d", propertyID)
	}
	if prop == nil {
		return nil, apperrors.NotFound("property %d not found", propertyID)
	}

	records, err := s.records.ListByProperty(ctx, s.q, propertyID)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list records of property %d", propertyID)
	}
	return records, nil
}
