// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package database

import (
	"context"
	"fmt"
	"time"
)

// Relation tables linking a user to a recipe.
const (
	relationFavorites    = "favorites"
	relationShoppingCart = "shopping_cart"
)

// AddFavorite marks a recipe as a favorite of userID. ErrAlreadyExists if
// it already is.
func (db *DB) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	return db.addRelation(ctx, relationFavorites, userID, recipeID)
}

// RemoveFavorite unmarks a favorite. ErrNotFound if it was not one.
func (db *DB) RemoveFavorite(ctx context.Context, userID, recipeID int64) error {
	return db.removeRelation(ctx, relationFavorites, userID, recipeID)
}

// AddToCart puts a recipe in userID's shopping cart. ErrAlreadyExists if it
// is already there.
func (db *DB) AddToCart(ctx context.Context, userID, recipeID int64) error {
	return db.addRelation(ctx, relationShoppingCart, userID, recipeID)
}

// RemoveFromCart takes a recipe out of the shopping cart. ErrNotFound if it
// was not there.
func (db *DB) RemoveFromCart(ctx context.Context, userID, recipeID int64) error {
	return db.removeRelation(ctx, relationShoppingCart, userID, recipeID)
}

func (db *DB) addRelation(ctx context.Context, table string, userID, recipeID int64) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert", table, time.Now(), &err)

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO `+table+` (user_id, recipe_id, created_at) VALUES (?, ?, ?)`,
		userID, recipeID, time.Now().UTC())
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to add to %s: %w", table, err)
	}
	return nil
}

func (db *DB) removeRelation(ctx context.Context, table string, userID, recipeID int64) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("delete", table, time.Now(), &err)

	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE user_id = ? AND recipe_id = ?`, userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to remove from %s: %w", table, err)
	}
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
