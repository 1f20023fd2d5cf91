package postgres

import (
	"context"
	"fmt"
	"strings"
)

// schemaStatements bootstrap the tables for environments without migrations.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS buildings (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		timezone TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS amenities (
		id TEXT PRIMARY KEY,
		building_id TEXT NOT NULL REFERENCES buildings(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		capacity INTEGER NOT NULL DEFAULT 1,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS amenity_rules (
		id TEXT PRIMARY KEY,
		building_id TEXT NOT NULL REFERENCES buildings(id) ON DELETE CASCADE,
		amenity_id TEXT NOT NULL UNIQUE REFERENCES amenities(id) ON DELETE CASCADE,
		max_capacity INTEGER NOT NULL DEFAULT 1,
		max_duration_minutes INTEGER NOT NULL DEFAULT 60,
		slot_length_minutes INTEGER NOT NULL DEFAULT 30,
		advance_booking_limit_days INTEGER NOT NULL DEFAULT 7,
		operating_start_time TEXT NOT NULL DEFAULT '06:00',
		operating_end_time TEXT NOT NULL DEFAULT '22:00',
		allow_overlap BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		building_id TEXT NOT NULL REFERENCES buildings(id) ON DELETE CASCADE,
		amenity_id TEXT NOT NULL REFERENCES amenities(id) ON DELETE CASCADE,
		user_id TEXT,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL DEFAULT 'BOOKED',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_amenities_building ON amenities (building_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_amenity_start ON bookings (amenity_id, start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings (status)`,
}

// EnsureSchema bootstraps the schema for environments without migrations.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

var requiredColumns = map[string][]string{
	"amenity_rules": {"building_id", "created_at"},
}

// ValidateCompatibility verifies the tables and columns the service depends
// on exist, so a misconfigured database fails loudly at startup instead of
// mid-request.
func (s *Store) ValidateCompatibility(ctx context.Context) error {
	requiredTables := []string{"buildings", "amenities", "amenity_rules", "bookings"}

	rows, err := s.pool.Query(ctx, `SELECT table_name FROM information_schema.tables
	  WHERE table_schema='public' AND table_name = ANY($1)`, requiredTables)
	if err != nil {
		return fmt.Errorf("inspect tables: %w", err)
	}
	existing := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		existing[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	var missingTables []string
	for _, table := range requiredTables {
		if !existing[table] {
			missingTables = append(missingTables, table)
		}
	}

	var missingColumnMsgs []string
	for table, columns := range requiredColumns {
		if !existing[table] {
			continue
		}
		rows, err := s.pool.Query(ctx, `SELECT column_name FROM information_schema.columns
		  WHERE table_schema='public' AND table_name=$1`, table)
		if err != nil {
			return fmt.Errorf("inspect columns of %s: %w", table, err)
		}
		have := map[string]bool{}
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return err
			}
			have[name] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		var missing []string
		for _, col := range columns {
			if !have[col] {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			missingColumnMsgs = append(missingColumnMsgs, fmt.Sprintf("%s: %s", table, strings.Join(missing, ", ")))
		}
	}

	if len(missingTables) == 0 && len(missingColumnMsgs) == 0 {
		return nil
	}

	var details []string
	if len(missingTables) > 0 {
		details = append(details, fmt.Sprintf("missing tables [%s]", strings.Join(missingTables, ", ")))
	}
	if len(missingColumnMsgs) > 0 {
		details = append(details, fmt.Sprintf("missing columns [%s]", strings.Join(missingColumnMsgs, "; ")))
	}
	return fmt.Errorf("database compatibility check failed: %s; apply required migrations before starting the API",
		strings.Join(details, "; "))
}
