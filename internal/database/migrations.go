// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/larder/internal/logging"
)

// Migration represents a versioned database migration.
type Migration struct {
	Version     int       // Unique version number (monotonically increasing)
	Name        string    // Human-readable migration name
	Description string    // Description of what this migration does
	Statements  []string  // Executed in order inside one transaction
	AppliedAt   time.Time // When the migration was applied (populated on query)
}

// schemaMigrationsTable creates the migration tracking table
const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMP NOT NULL
)`

// migrations is append-only. Never edit or reorder a released entry.
var migrations = []Migration{
	{
		Version:     1,
		Name:        "catalog",
		Description: "Tags and ingredients",
		Statements: []string{
			`CREATE SEQUENCE IF NOT EXISTS tags_id_seq START 1`,
			`CREATE TABLE IF NOT EXISTS tags (
				id BIGINT PRIMARY KEY DEFAULT nextval('tags_id_seq'),
				name VARCHAR NOT NULL CHECK (length(name) BETWEEN 1 AND 32),
				slug VARCHAR NOT NULL UNIQUE CHECK (length(slug) BETWEEN 1 AND 32)
			)`,
			`CREATE SEQUENCE IF NOT EXISTS ingredients_id_seq START 1`,
			`CREATE TABLE IF NOT EXISTS ingredients (
				id BIGINT PRIMARY KEY DEFAULT nextval('ingredients_id_seq'),
				name VARCHAR NOT NULL UNIQUE CHECK (length(name) BETWEEN 1 AND 128),
				measurement_unit VARCHAR NOT NULL CHECK (length(measurement_unit) BETWEEN 1 AND 64)
			)`,
		},
	},
	{
		Version:     2,
		Name:        "users",
		Description: "Accounts and follows",
		Statements: []string{
			`CREATE SEQUENCE IF NOT EXISTS users_id_seq START 1`,
			`CREATE TABLE IF NOT EXISTS users (
				id BIGINT PRIMARY KEY DEFAULT nextval('users_id_seq'),
				email VARCHAR NOT NULL UNIQUE CHECK (length(email) <= 254),
				username VARCHAR NOT NULL UNIQUE CHECK (length(username) BETWEEN 1 AND 150),
				first_name VARCHAR NOT NULL CHECK (length(first_name) <= 150),
				last_name VARCHAR NOT NULL CHECK (length(last_name) <= 150),
				password_hash VARCHAR NOT NULL,
				avatar VARCHAR,
				date_joined TIMESTAMP NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS follows (
				user_id BIGINT NOT NULL,
				author_id BIGINT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				PRIMARY KEY (user_id, author_id),
				CHECK (user_id <> author_id)
			)`,
		},
	},
	{
		Version:     3,
		Name:        "recipes",
		Description: "Recipes with ingredient amounts and tags",
		Statements: []string{
			`CREATE SEQUENCE IF NOT EXISTS recipes_id_seq START 1`,
			`CREATE TABLE IF NOT EXISTS recipes (
				id BIGINT PRIMARY KEY DEFAULT nextval('recipes_id_seq'),
				author_id BIGINT NOT NULL,
				name VARCHAR NOT NULL CHECK (length(name) BETWEEN 1 AND 256),
				text VARCHAR NOT NULL,
				image VARCHAR NOT NULL,
				cooking_time INTEGER NOT NULL CHECK (cooking_time BETWEEN 1 AND 32000),
				short_link VARCHAR NOT NULL UNIQUE CHECK (length(short_link) = 8),
				pub_date TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_recipes_author ON recipes (author_id)`,
			`CREATE INDEX IF NOT EXISTS idx_recipes_pub_date ON recipes (pub_date)`,
			`CREATE TABLE IF NOT EXISTS recipe_ingredients (
				recipe_id BIGINT NOT NULL,
				ingredient_id BIGINT NOT NULL,
				amount INTEGER NOT NULL CHECK (amount BETWEEN 1 AND 32000),
				PRIMARY KEY (recipe_id, ingredient_id)
			)`,
			`CREATE TABLE IF NOT EXISTS recipe_tags (
				recipe_id BIGINT NOT NULL,
				tag_id BIGINT NOT NULL,
				PRIMARY KEY (recipe_id, tag_id)
			)`,
		},
	},
	{
		Version:     4,
		Name:        "user_recipe_relations",
		Description: "Favorites and shopping cart",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS favorites (
				user_id BIGINT NOT NULL,
				recipe_id BIGINT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				PRIMARY KEY (user_id, recipe_id)
			)`,
			`CREATE TABLE IF NOT EXISTS shopping_cart (
				user_id BIGINT NOT NULL,
				recipe_id BIGINT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				PRIMARY KEY (user_id, recipe_id)
			)`,
		},
	},
}

// schemaContext bounds migration work at startup.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// getAppliedMigrations returns a map of version -> Migration for all applied migrations
func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version, name, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[m.Version] = m
	}
	return applied, rows.Err()
}

// runVersionedMigrations applies every migration not yet recorded in
// schema_migrations, each in its own transaction.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	newMigrations := 0
	for _, m := range migrations {
		if _, exists := applied[m.Version]; exists {
			continue
		}

		m := m
		err := db.withTx(ctx, func(tx *sql.Tx) error {
			for i, stmt := range m.Statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to execute migration v%d (%s) statement %d: %w", m.Version, m.Name, i+1, err)
				}
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name, description, applied_at) VALUES (?, ?, ?, ?)`,
				m.Version, m.Name, m.Description, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("applied", newMigrations).Msg("Applied database migrations")
	}
	return nil
}

// GetCurrentSchemaVersion returns the highest applied migration version
func (db *DB) GetCurrentSchemaVersion(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// GetMigrationHistory returns all applied migrations in order
func (db *DB) GetMigrationHistory(ctx context.Context) ([]Migration, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	history, err := queryAndScan(ctx, db.conn,
		`SELECT version, name, description, applied_at FROM schema_migrations ORDER BY version`, nil,
		func(rows *sql.Rows) (Migration, error) {
			var m Migration
			err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt)
			return m, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to query migration history: %w", err)
	}
	return history, nil
}
