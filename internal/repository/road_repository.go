package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/route-planner-go/internal/database"
	"github.com/jengzang/route-planner-go/internal/models"
)

// RoadRepository handles database operations for map roads
type RoadRepository struct {
	db     *sql.DB
	driver string
}

// NewRoadRepository creates a new road repository
func NewRoadRepository(db *sql.DB, driver string) *RoadRepository {
	return &RoadRepository{db: db, driver: driver}
}

// FindAll returns every stored road ordered by id
func (r *RoadRepository) FindAll(ctx context.Context) ([]models.MapRoad, error) {
	query := `SELECT id, name, road_type, start_point_id, end_point_id, path_points, description, crowd_level
		FROM map_road ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query roads: %w", err)
	}
	defer rows.Close()

	var roads []models.MapRoad
	for rows.Next() {
		var road models.MapRoad
		var roadType, description sql.NullString
		var startID, endID sql.NullInt64
		var crowd sql.NullFloat64

		err := rows.Scan(&road.ID, &road.Name, &roadType, &startID, &endID,
			&road.PathPoints, &description, &crowd)
		if err != nil {
			return nil, fmt.Errorf("failed to scan road: %w", err)
		}

		road.RoadType = roadType.String
		road.Description = description.String
		road.StartPointID = startID.Int64
		road.EndPointID = endID.Int64
		road.CrowdLevel = models.DefaultCrowdLevel
		if crowd.Valid {
			road.CrowdLevel = crowd.Float64
		}

		roads = append(roads, road)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roads: %w", err)
	}
	return roads, nil
}

// Insert stores a road, replacing any existing road with the same id
func (r *RoadRepository) Insert(ctx context.Context, road models.MapRoad) error {
	query := `INSERT INTO map_road (id, name, road_type, start_point_id, end_point_id, path_points, description, crowd_level)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			road_type = excluded.road_type,
			start_point_id = excluded.start_point_id,
			end_point_id = excluded.end_point_id,
			path_points = excluded.path_points,
			description = excluded.description,
			crowd_level = excluded.crowd_level`

	_, err := r.db.ExecContext(ctx, database.Rebind(r.driver, query),
		road.ID, road.Name, nullString(road.RoadType), road.StartPointID, road.EndPointID,
		road.PathPoints, nullString(road.Description), road.CrowdLevel)
	if err != nil {
		return fmt.Errorf("failed to insert road %d: %w", road.ID, err)
	}
	return nil
}

// UpdateCrowdLevels writes crowd levels for several roads in one transaction
func (r *RoadRepository) UpdateCrowdLevels(ctx context.Context, updates []models.CrowdUpdate) error {
	query := database.Rebind(r.driver, "UPDATE map_road SET crowd_level = ? WHERE id = ?")

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare crowd update: %w", err)
		}
		defer stmt.Close()

		for _, u := range updates {
			if _, err := stmt.ExecContext(ctx, u.CrowdLevel, u.RoadID); err != nil {
				return fmt.Errorf("failed to update crowd level of road %d: %w", u.RoadID, err)
			}
		}
		return nil
	})
}

// Count returns the number of stored roads
func (r *RoadRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM map_road").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count roads: %w", err)
	}
	return count, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
