package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"cadastre/internal/database"
	"cadastre/internal/models"
)

// OwnerRepository defines data access for owner master records, the current
// property-owner links, and the frozen per-record owner snapshots.
type OwnerRepository interface {
	// GetOwner loads an owner master record. Returns nil, nil if missing.
	GetOwner(ctx context.Context, q database.Querier, id int64) (*models.Owner, error)

	// ReplaceLinks replaces the current owner links of a property.
	ReplaceLinks(ctx context.Context, q database.Querier, propertyID int64, ownerIDs []int64) error

	// ListLinkedOwners loads the owner master records currently linked to a property.
	ListLinkedOwners(ctx context.Context, q database.Querier, propertyID int64) ([]models.Owner, error)

	// InsertSnapshots freezes the given snapshots onto a record.
	InsertSnapshots(ctx context.Context, q database.Querier, snaps []models.OwnerSnapshot) error

	// ListSnapshots loads the snapshots frozen onto a record.
	ListSnapshots(ctx context.Context, q database.Querier, recordID int64) ([]models.OwnerSnapshot, error)
}

type ownerRepository struct{}

// NewOwnerRepository creates an OwnerRepository.
func NewOwnerRepository() OwnerRepository {
	return &ownerRepository{}
}

func (r *ownerRepository) GetOwner(ctx context.Context, q database.Querier, id int64) (*models.Owner, error) {
	var o models.Owner
	err := q.QueryRow(ctx, `
		SELECT id, name, address, tin, contact, created_at, updated_at
		FROM owners WHERE id = $1`, id,
	).Scan(&o.ID, &o.Name, &o.Address, &o.TIN, &o.Contact, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query owner %d: %w", id, err)
	}
	return &o, nil
}

func (r *ownerRepository) ReplaceLinks(ctx context.Context, q database.Querier, propertyID int64, ownerIDs []int64) error {
	if _, err := q.Exec(ctx,
		`DELETE FROM property_owners WHERE property_id = $1`, propertyID); err != nil {
		return fmt.Errorf("failed to clear owner links of property %d: %w", propertyID, err)
	}
	for _, ownerID := range ownerIDs {
		if _, err := q.Exec(ctx,
			`INSERT INTO property_owners (property_id, owner_id) VALUES ($1, $2)`,
			propertyID, ownerID,
		); err != nil {
			return fmt.Errorf("failed to link owner %d to property %d: %w", ownerID, propertyID, err)
		}
	}
	return nil
}

func (r *ownerRepository) ListLinkedOwners(ctx context.Context, q database.Querier, propertyID int64) ([]models.Owner, error) {
	rows, err := q.Query(ctx, `
		SELECT o.id, o.name, o.address, o.tin, o.contact, o.created_at, o.updated_at
		FROM owners o
		JOIN property_owners po ON po.owner_id = o.id
		WHERE po.property_id = $1
		ORDER BY o.id`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query owners of property %d: %w", propertyID, err)
	}
	defer rows.Close()

	owners := []models.Owner{}
	for rows.Next() {
		var o models.Owner
		if err := rows.Scan(&o.ID, &o.Name, &o.Address, &o.TIN, &o.Contact, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan owner row: %w", err)
		}
		owners = append(owners, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owner rows: %w", err)
	}
	return owners, nil
}

func (r *ownerRepository) InsertSnapshots(ctx context.Context, q database.Querier, snaps []models.OwnerSnapshot) error {
	for _, snap := range snaps {
		if _, err := q.Exec(ctx, `
			INSERT INTO record_owner_snapshots (record_id, owner_id, name, address, tin, contact)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			snap.RecordID, snap.OwnerID, snap.Name, snap.Address, snap.TIN, snap.Contact,
		); err != nil {
			return fmt.Errorf("failed to insert owner snapshot for record %d: %w", snap.RecordID, err)
		}
	}
	return nil
}

func (r *ownerRepository) ListSnapshots(ctx context.Context, q database.Querier, recordID int64) ([]models.OwnerSnapshot, error) {
	rows, err := q.Query(ctx, `
		SELECT id, record_id, owner_id, name, address, tin, contact
		FROM record_owner_snapshots
		WHERE record_id = $1
		ORDER BY id`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query owner snapshots of record %d: %w", recordID, err)
	}
	defer rows.Close()

	snaps := []models.OwnerSnapshot{}
	for rows.Next() {
		var s models.OwnerSnapshot
		if err := rows.Scan(&s.ID, &s.RecordID, &s.OwnerID, &s.Name, &s.Address, &s.TIN, &s.Contact); err != nil {
			return nil, fmt.Errorf("failed to scan owner snapshot row: %w", err)
		}
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owner snapshot rows: %w", err)
	}
	return snaps, nil
}
