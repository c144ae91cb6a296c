package services

import (
	"context"

	"cadastre/internal/apperrors"
	"cadastre/internal/database"
	"cadastre/internal/logger"
	"cadastre/internal/models"
	"cadastre/internal/repository"
)

// HistoryService answers read-only audit-log queries. Reads run outside any
// transaction; the log is append-only, so repeated reads between writes
// return identical results.
type HistoryService interface {
	// ListHistory returns a property's history headers, newest first.
	ListHistory(ctx context.Context, propertyID int64) ([]models.HistoryEntry, error)

	// GetHistoryDetail returns one entry with its diff rows and lineage edges.
	GetHistoryDetail(ctx context.Context, historyID int64) (*models.HistoryDetail, error)
}

type historyService struct {
	q          database.Querier
	properties repository.PropertyRepository
	history    repository.HistoryRepository
	log        *logger.Logger
}

// NewHistoryService creates a HistoryService reading through q.
func NewHistoryService(q database.Querier, properties repository.PropertyRepository, history repository.HistoryRepository, log *logger.Logger) HistoryService {
	return &historyService{q: q, properties: properties, history: history, log: log}
}

func (s *historyService) ListHistory(ctx context.Context, propertyID int64) ([]models.HistoryEntry, error) {
	prop, err := s.properties.Get(ctx, s.q, propertyID)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to load property %d", propertyID)
	}
	if prop == nil {
		return nil, apperrors.NotFound("property %d not found", propertyID)
	}

	entries, err := s.history.ListByProperty(ctx, s.q, propertyID)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list history of property %d", propertyID)
	}

	s.log.Debug("History listed", map[string]interface{}{
		"property_id": propertyID,
		"entries":     len(entries),
	})
	return entries, nil
}

func (s *historyService) GetHistoryDetail(ctx context.Context, historyID int64) (*models.HistoryDetail, error) {
	detail, err := s.history.GetDetail(ctx, s.q, historyID)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to load history entry %d", historyID)
	}
	if detail == nil {
		return nil, apperrors.NotFound("history entry %d not found", historyID)
	}
	return detail, nil
}
