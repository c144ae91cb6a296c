package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"cadastre/internal/database"
	"cadastre/internal/models"
)

// InsertDetail writes the detail sub-record matching the detail's kind,
// including its child collections.
func (r *recordRepository) InsertDetail(ctx context.Context, q database.Querier, recordID int64, d models.Detail) error {
	switch detail := d.(type) {
	case *models.LandDetail:
		return insertLandDetail(ctx, q, recordID, detail)
	case *models.BuildingDetail:
		return insertBuildingDetail(ctx, q, recordID, detail)
	case *models.MachineryDetail:
		return insertMachineryDetail(ctx, q, recordID, detail)
	}
	return fmt.Errorf("unknown detail kind %q for record %d", d.Kind(), recordID)
}

// GetDetail loads the detail sub-record of the given kind for a record.
func (r *recordRepository) GetDetail(ctx context.Context, q database.Querier, recordID int64, kind models.PropertyKind) (models.Detail, error) {
	switch kind {
	case models.KindLand:
		return loadLandDetail(ctx, q, recordID)
	case models.KindBuilding:
		return loadBuildingDetail(ctx, q, recordID)
	case models.KindMachinery:
		return loadMachineryDetail(ctx, q, recordID)
	}
	return nil, fmt.Errorf("unknown property kind %q for record %d", kind, recordID)
}

func insertLandDetail(ctx context.Context, q database.Querier, recordID int64, d *models.LandDetail) error {
	query := `
		INSERT INTO land_details
			(record_id, classification_id, subclass_id, actual_use_id, area, unit_value, assessment_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := q.Exec(ctx, query,
		recordID, d.ClassificationID, d.SubclassID, d.ActualUseID, d.Area, d.UnitValue, d.AssessmentLevel,
	); err != nil {
		return fmt.Errorf("failed to insert land detail for record %d: %w", recordID, err)
	}

	for _, adj := range d.Adjustments {
		if _, err := q.Exec(ctx,
			`INSERT INTO land_adjustments (record_id, factor_name, pct) VALUES ($1, $2, $3)`,
			recordID, adj.FactorName, adj.Pct,
		); err != nil {
			return fmt.Errorf("failed to insert land adjustment for record %d: %w", recordID, err)
		}
	}
	for _, imp := range d.Improvements {
		if _, err := q.Exec(ctx,
			`INSERT INTO land_improvements (record_id, description, qty, unit_value) VALUES ($1, $2, $3, $4)`,
			recordID, imp.Description, imp.Qty, imp.UnitValue,
		); err != nil {
			return fmt.Errorf("failed to insert land improvement for record %d: %w", recordID, err)
		}
	}
	return nil
}

func loadLandDetail(ctx context.Context, q database.Querier, recordID int64) (*models.LandDetail, error) {
	var d models.LandDetail
	err := q.QueryRow(ctx, `
		SELECT classification_id, subclass_id, actual_use_id, area, unit_value, assessment_level
		FROM land_details WHERE record_id = $1`, recordID,
	).Scan(&d.ClassificationID, &d.SubclassID, &d.ActualUseID, &d.Area, &d.UnitValue, &d.AssessmentLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query land detail for record %d: %w", recordID, err)
	}

	rows, err := q.Query(ctx,
		`SELECT factor_name, pct FROM land_adjustments WHERE record_id = $1 ORDER BY id`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query land adjustments for record %d: %w", recordID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var adj models.LandAdjustment
		if err := rows.Scan(&adj.FactorName, &adj.Pct); err != nil {
			return nil, fmt.Errorf("failed to scan land adjustment: %w", err)
		}
		d.Adjustments = append(d.Adjustments, adj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating land adjustments: %w", err)
	}

	rows, err = q.Query(ctx,
		`SELECT description, qty, unit_value FROM land_improvements WHERE record_id = $1 ORDER BY id`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query land improvements for record %d: %w", recordID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var imp models.LandImprovement
		if err := rows.Scan(&imp.Description, &imp.Qty, &imp.UnitValue); err != nil {
			return nil, fmt.Errorf("failed to scan land improvement: %w", err)
		}
		d.Improvements = append(d.Improvements, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating land improvements: %w", err)
	}

	return &d, nil
}

func insertBuildingDetail(ctx context.Context, q database.Querier, recordID int64, d *models.BuildingDetail) error {
	query := `
		INSERT INTO building_details
			(record_id, building_kind_id, structural_type_id, unit_cost, total_floor_area,
			 depreciation_rate, assessment_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := q.Exec(ctx, query,
		recordID, d.BuildingKindID, d.StructuralTypeID, d.UnitCost, d.TotalFloorArea,
		d.DepreciationRate, d.AssessmentLevel,
	); err != nil {
		return fmt.Errorf("failed to insert building detail for record %d: %w", recordID, err)
	}

	for _, f := range d.Floors {
		if _, err := q.Exec(ctx,
			`INSERT INTO building_floors (record_id, floor_no, area) VALUES ($1, $2, $3)`,
			recordID, f.FloorNo, f.Area,
		); err != nil {
			return fmt.Errorf("failed to insert building floor for record %d: %w", recordID, err)
		}
	}
	for _, item := range d.AdditionalItems {
		if _, err := q.Exec(ctx,
			`INSERT INTO building_additional_items (record_id, description, cost) VALUES ($1, $2, $3)`,
			recordID, item.Description, item.Cost,
		); err != nil {
			return fmt.Errorf("failed to insert building additional item for record %d: %w", recordID, err)
		}
	}
	for _, m := range d.Materials {
		if _, err := q.Exec(ctx,
			`INSERT INTO building_materials (record_id, component, material) VALUES ($1, $2, $3)`,
			recordID, m.Component, m.Material,
		); err != nil {
			return fmt.Errorf("failed to insert building material for record %d: %w", recordID, err)
		}
	}
	return nil
}

func loadBuildingDetail(ctx context.Context, q database.Querier, recordID int64) (*models.BuildingDetail, error) {
	var d models.BuildingDetail
	err := q.QueryRow(ctx, `
		SELECT building_kind_id, structural_type_id, unit_cost, total_floor_area,
		       depreciation_rate, assessment_level
		FROM building_details WHERE record_id = $1`, recordID,
	).Scan(&d.BuildingKindID, &d.StructuralTypeID, &d.UnitCost, &d.TotalFloorArea,
		&d.DepreciationRate, &d.AssessmentLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query building detail for record %d: %w", recordID, err)
	}

	rows, err := q.Query(ctx,
		`SELECT floor_no, area FROM building_floors WHERE record_id = $1 ORDER BY floor_no`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query building floors for record %d: %w", recordID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var f models.BuildingFloor
		if err := rows.Scan(&f.FloorNo, &f.Area); err != nil {
			return nil, fmt.Errorf("failed to scan building floor: %w", err)
		}
		d.Floors = append(d.Floors, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating building floors: %w", err)
	}

	rows, err = q.Query(ctx,
		`SELECT description, cost FROM building_additional_items WHERE record_id = $1 ORDER BY id`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query building additional items for record %d: %w", recordID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var item models.BuildingAdditionalItem
		if err := rows.Scan(&item.Description, &item.Cost); err != nil {
			return nil, fmt.Errorf("failed to scan building additional item: %w", err)
		}
		d.AdditionalItems = append(d.AdditionalItems, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating building additional items: %w", err)
	}

	rows, err = q.Query(ctx,
		`SELECT component, material FROM building_materials WHERE record_id = $1 ORDER BY id`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query building materials for record %d: %w", recordID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var m models.BuildingMaterial
		if err := rows.Scan(&m.Component, &m.Material); err != nil {
			return nil, fmt.Errorf("failed to scan building material: %w", err)
		}
		d.Materials = append(d.Materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating building materials: %w", err)
	}

	return &d, nil
}

func insertMachineryDetail(ctx context.Context, q database.Querier, recordID int64, d *models.MachineryDetail) error {
	query := `
		INSERT INTO machinery_details
			(record_id, machinery_type_id, rcn, conversion_factor, years_used,
			 estimated_life, depreciation_rate, assessment_level, capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := q.Exec(ctx, query,
		recordID, d.MachineryTypeID, d.RCN, d.ConversionFactor, d.YearsUsed,
		d.EstimatedLife, d.DepreciationRate, d.AssessmentLevel, d.Capacity,
	); err != nil {
		return fmt.Errorf("failed to insert machinery detail for record %d: %w", recordID, err)
	}
	return nil
}

func loadMachineryDetail(ctx context.Context, q database.Querier, recordID int64) (*models.MachineryDetail, error) {
	var d models.MachineryDetail
	err := q.QueryRow(ctx, `
		SELECT machinery_type_id, rcn, conversion_factor, years_used,
		       estimated_life, depreciation_rate, assessment_level, capacity
		FROM machinery_details WHERE record_id = $1`, recordID,
	).Scan(&d.MachineryTypeID, &d.RCN, &d.ConversionFactor, &d.YearsUsed,
		&d.EstimatedLife, &d.DepreciationRate, &d.AssessmentLevel, &d.Capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query machinery detail for record %d: %w", recordID, err)
	}
	return &d, nil
}
