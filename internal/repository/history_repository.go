package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"cadastre/internal/database"
	"cadastre/internal/models"
)

// HistoryRepository defines data access for the append-only audit log.
// Entries, diff rows, and lineage edges are insert-only; there are no
// update or delete operations here on purpose.
type HistoryRepository interface {
	// InsertEntry writes one history header with its diff rows and lineage
	// edges, returning the new entry id.
	InsertEntry(ctx context.Context, q database.Querier, entry *models.HistoryEntry,
		changes []models.HistoryChange, edges []models.LineageEdge) (int64, error)

	// ListByProperty returns a property's history headers, newest first.
	ListByProperty(ctx context.Context, q database.Querier, propertyID int64) ([]models.HistoryEntry, error)

	// GetDetail loads one entry with its diff rows and lineage edges.
	// Returns nil, nil if the entry does not exist.
	GetDetail(ctx context.Context, q database.Querier, historyID int64) (*models.HistoryDetail, error)
}

type historyRepository struct{}

// NewHistoryRepository creates a HistoryRepository.
func NewHistoryRepository() HistoryRepository {
	return &historyRepository{}
}

func (r *historyRepository) InsertEntry(ctx context.Context, q database.Querier, entry *models.HistoryEntry,
	changes []models.HistoryChange, edges []models.LineageEdge) (int64, error) {

	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO history_entries (property_id, record_id, transaction_type, remarks, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		entry.PropertyID, entry.RecordID, entry.TransactionType, entry.Remarks, entry.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert history entry for property %d: %w", entry.PropertyID, err)
	}
	entry.ID = id

	for _, ch := range changes {
		if _, err := q.Exec(ctx, `
			INSERT INTO history_changes (history_id, field, old_value, new_value)
			VALUES ($1, $2, $3, $4)`,
			id, ch.Field, ch.OldValue, ch.NewValue,
		); err != nil {
			return 0, fmt.Errorf("failed to insert history change %q: %w", ch.Field, err)
		}
	}

	for _, e := range edges {
		if _, err := q.Exec(ctx, `
			INSERT INTO lineage_edges (history_id, parent_record_id, child_record_id)
			VALUES ($1, $2, $3)`,
			id, e.ParentRecordID, e.ChildRecordID,
		); err != nil {
			return 0, fmt.Errorf("failed to insert lineage edge %d->%d: %w", e.ParentRecordID, e.ChildRecordID, err)
		}
	}

	return id, nil
}

func (r *historyRepository) ListByProperty(ctx context.Context, q database.Querier, propertyID int64) ([]models.HistoryEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, property_id, record_id, transaction_type, remarks, created_by, created_at
		FROM history_entries
		WHERE property_id = $1
		ORDER BY id DESC`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history of property %d: %w", propertyID, err)
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.PropertyID, &e.RecordID, &e.TransactionType, &e.Remarks, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history entry rows: %w", err)
	}
	return entries, nil
}

func (r *historyRepository) GetDetail(ctx context.Context, q database.Querier, historyID int64) (*models.HistoryDetail, error) {
	var entry models.HistoryEntry
	err := q.QueryRow(ctx, `
		SELECT id, property_id, record_id, transaction_type, remarks, created_by, created_at
		FROM history_entries WHERE id = $1`, historyID,
	).Scan(&entry.ID, &entry.PropertyID, &entry.RecordID, &entry.TransactionType, &entry.Remarks, &entry.CreatedBy, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query history entry %d: %w", historyID, err)
	}

	detail := &models.HistoryDetail{Entry: entry, Changes: []models.HistoryChange{}}

	rows, err := q.Query(ctx, `
		SELECT id, history_id, field, old_value, new_value
		FROM history_changes WHERE history_id = $1 ORDER BY id`, historyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history changes of entry %d: %w", historyID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var ch models.HistoryChange
		if err := rows.Scan(&ch.ID, &ch.HistoryID, &ch.Field, &ch.OldValue, &ch.NewValue); err != nil {
			return nil, fmt.Errorf("failed to scan history change row: %w", err)
		}
		detail.Changes = append(detail.Changes, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history change rows: %w", err)
	}

	rows, err = q.Query(ctx, `
		SELECT id, history_id, parent_record_id, child_record_id
		FROM lineage_edges WHERE history_id = $1 ORDER BY id`, historyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lineage edges of entry %d: %w", historyID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var e models.LineageEdge
		if err := rows.Scan(&e.ID, &e.HistoryID, &e.ParentRecordID, &e.ChildRecordID); err != nil {
			return nil, fmt.Errorf("failed to scan lineage edge row: %w", err)
		}
		detail.Edges = append(detail.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lineage edge rows: %w", err)
	}

	return detail, nil
}
