// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/larder/internal/models"
)

func scanIngredient(rows *sql.Rows) (models.Ingredient, error) {
	var i models.Ingredient
	err := rows.Scan(&i.ID, &i.Name, &i.MeasurementUnit)
	return i, err
}

// ListIngredients returns ingredients ordered by name. A non-empty
// namePrefix keeps only names starting with it, ignoring case.
func (db *DB) ListIngredients(ctx context.Context, namePrefix string) (ingredients []models.Ingredient, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "ingredients", time.Now(), &err)

	stmt := `SELECT id, name, measurement_unit FROM ingredients`
	var args []interface{}
	if prefix := strings.TrimSpace(namePrefix); prefix != "" {
		stmt += ` WHERE starts_with(lower(name), lower(?))`
		args = append(args, prefix)
	}
	stmt += ` ORDER BY name, id`

	ingredients, err = queryAndScan(ctx, db.conn, stmt, args, scanIngredient)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

// GetIngredient returns the ingredient with id, or nil if there is none.
func (db *DB) GetIngredient(ctx context.Context, id int64) (ingredient *models.Ingredient, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "ingredients", time.Now(), &err)

	var i models.Ingredient
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = ?`, id).
		Scan(&i.ID, &i.Name, &i.MeasurementUnit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return &i, nil
}

// GetOrCreateIngredient returns the ingredient named name, inserting it with
// unit first if needed. created reports whether a row was inserted. Names are
// unique, so a name already stored with another unit returns ErrAlreadyExists.
func (db *DB) GetOrCreateIngredient(ctx context.Context, name, unit string) (ingredient *models.Ingredient, created bool, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("upsert", "ingredients", time.Now(), &err)

	name = strings.TrimSpace(name)
	unit = strings.TrimSpace(unit)
	if name == "" || unit == "" {
		return nil, false, fmt.Errorf("ingredient name and measurement unit are required")
	}

	existing, err := db.ingredientByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if existing.MeasurementUnit != unit {
			return nil, false, fmt.Errorf("ingredient %q is measured in %q: %w", name, existing.MeasurementUnit, ErrAlreadyExists)
		}
		return existing, false, nil
	}

	i := models.Ingredient{Name: name, MeasurementUnit: unit}
	err = db.conn.QueryRowContext(ctx,
		`INSERT INTO ingredients (name, measurement_unit) VALUES (?, ?) RETURNING id`, name, unit).Scan(&i.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			// Lost a race with a concurrent insert of the same name.
			if winner, lookupErr := db.ingredientByName(ctx, name); lookupErr == nil && winner != nil && winner.MeasurementUnit == unit {
				return winner, false, nil
			}
			return nil, false, fmt.Errorf("ingredient %q: %w", name, ErrAlreadyExists)
		}
		return nil, false, fmt.Errorf("failed to create ingredient: %w", err)
	}
	return &i, true, nil
}

func (db *DB) ingredientByName(ctx context.Context, name string) (*models.Ingredient, error) {
	var i models.Ingredient
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE name = ?`, name).
		Scan(&i.ID, &i.Name, &i.MeasurementUnit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up ingredient: %w", err)
	}
	return &i, nil
}

// MissingIngredients returns the ids in ids that do not name an ingredient.
func (db *DB) MissingIngredients(ctx context.Context, ids []int64) (missing []int64, err error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "ingredients", time.Now(), &err)

	found, err := existingIDs(ctx, db.conn, "ingredients", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check ingredients: %w", err)
	}
	return missingIDs(ids, found), nil
}
