package repository

import (
	"context"
	"fmt"

	"cadastre/internal/database"
)

// ReferenceTable names a read-only reference table whose rows the core only
// checks for presence, never interprets.
type ReferenceTable string

const (
	RefClassifications  ReferenceTable = "classifications"
	RefSubclasses       ReferenceTable = "subclasses"
	RefActualUses       ReferenceTable = "actual_uses"
	RefBuildingKinds    ReferenceTable = "building_kinds"
	RefStructuralTypes  ReferenceTable = "structural_types"
	RefMachineryTypes   ReferenceTable = "machinery_types"
	RefLocationalGroups ReferenceTable = "locational_groups"
	RefValuationPeriods ReferenceTable = "valuation_periods"
)

// knownReferenceTables whitelists the tables Exists may touch; the table
// name is interpolated into SQL, so it must never come from user input.
var knownReferenceTables = map[ReferenceTable]bool{
	RefClassifications:  true,
	RefSubclasses:       true,
	RefActualUses:       true,
	RefBuildingKinds:    true,
	RefStructuralTypes:  true,
	RefMachineryTypes:   true,
	RefLocationalGroups: true,
	RefValuationPeriods: true,
}

// ReferenceRepository checks referential presence of foreign keys into the
// static reference tables maintained outside the valuation core.
type ReferenceRepository interface {
	// Exists reports whether the reference table contains a row with the id.
	Exists(ctx context.Context, q database.Querier, table ReferenceTable, id int64) (bool, error)
}

type referenceRepository struct{}

// NewReferenceRepository creates a ReferenceRepository.
func NewReferenceRepository() ReferenceRepository {
	return &referenceRepository{}
}

func (r *referenceRepository) Exists(ctx context.Context, q database.Querier, table ReferenceTable, id int64) (bool, error) {
	if !knownReferenceTables[table] {
		return false, fmt.Errorf("unknown reference table %q", table)
	}

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table)

	var exists bool
	if err := q.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s id %d: %w", table, id, err)
	}
	return exists, nil
}
