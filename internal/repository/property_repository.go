package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"cadastre/internal/database"
	"cadastre/internal/models"
)

// PropertyRepository defines data access for the property registry.
// Every method takes a database.Querier so the same code runs against the
// pool or inside an engine transaction.
type PropertyRepository interface {
	// Create inserts a new property and returns its id.
	Create(ctx context.Context, q database.Querier, p *models.Property) (int64, error)

	// Get loads a property by id. Returns nil, nil if no property exists
	// (not an error); errors only for actual database failures.
	Get(ctx context.Context, q database.Querier, id int64) (*models.Property, error)

	// GetForUpdate loads a property by id and takes a row-level lock on it,
	// serializing concurrent engine calls against the same property.
	// Must be called inside a transaction. Returns nil, nil if missing.
	GetForUpdate(ctx context.Context, q database.Querier, id int64) (*models.Property, error)

	// UpdateStatus sets the property's status.
	UpdateStatus(ctx context.Context, q database.Querier, id int64, status models.PropertyStatus) error
}

type propertyRepository struct{}

// NewPropertyRepository creates a PropertyRepository.
func NewPropertyRepository() PropertyRepository {
	return &propertyRepository{}
}

const propertyColumns = `id, kind, status, pin, barangay, street, city, locational_group_id, created_at, updated_at`

func (r *propertyRepository) Create(ctx context.Context, q database.Querier, p *models.Property) (int64, error) {
	query := `
		INSERT INTO properties (kind, status, pin, barangay, street, city, locational_group_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := q.QueryRow(ctx, query,
		p.Kind, p.Status, p.PIN, p.Barangay, p.Street, p.City, p.LocationalGroupID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert property (pin=%s): %w", p.PIN, err)
	}

	p.ID = id
	return id, nil
}

func (r *propertyRepository) Get(ctx context.Context, q database.Querier, id int64) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`
	return r.scanOne(ctx, q, query, id)
}

func (r *propertyRepository) GetForUpdate(ctx context.Context, q database.Querier, id int64) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1 FOR UPDATE`
	return r.scanOne(ctx, q, query, id)
}

func (r *propertyRepository) scanOne(ctx context.Context, q database.Querier, query string, id int64) (*models.Property, error) {
	var p models.Property
	err := q.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Kind,
		&p.Status,
		&p.PIN,
		&p.Barangay,
		&p.Street,
		&p.City,
		&p.LocationalGroupID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property %d: %w", id, err)
	}
	return &p, nil
}

func (r *propertyRepository) UpdateStatus(ctx context.Context, q database.Querier, id int64, status models.PropertyStatus) error {
	query := `UPDATE properties SET status = $1, updated_at = now() WHERE id = $2`

	tag, err := q.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status of property %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("property %d not found for status update", id)
	}
	return nil
}
