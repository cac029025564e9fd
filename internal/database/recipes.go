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
	"time"

	"github.com/tomtom215/larder/internal/models"
)

// CreateRecipe inserts r with its ingredient amounts and tags in one
// transaction. It assigns r.ID, r.PubDate and a unique r.ShortLink.
//
// Ingredient and tag ids must already be known to exist; see
// MissingIngredients and MissingTags.
func (db *DB) CreateRecipe(ctx context.Context, r *models.Recipe, ingredients []models.IngredientAmountInput, tagIDs []int64) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert", "recipes", time.Now(), &err)

	return db.withTx(ctx, func(tx *sql.Tx) error {
		code, err := db.shortLinks.GenerateUnique(ctx, func(ctx context.Context, code string) (bool, error) {
			var taken bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM recipes WHERE short_link = ?)`, code).Scan(&taken)
			return taken, err
		})
		if err != nil {
			return fmt.Errorf("failed to generate short link: %w", err)
		}

		pubDate := time.Now().UTC()
		var id int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO recipes (author_id, name, text, image, cooking_time, short_link, pub_date)
			VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			r.AuthorID, r.Name, r.Text, r.Image, r.CookingTime, code, pubDate).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}

		if err := insertRecipeIngredients(ctx, tx, id, ingredients); err != nil {
			return err
		}
		if err := insertRecipeTags(ctx, tx, id, tagIDs); err != nil {
			return err
		}

		r.ID = id
		r.ShortLink = code
		r.PubDate = pubDate
		return nil
	})
}

// UpdateRecipe rewrites name, text and cooking time of r.ID and replaces its
// ingredients and tags. An empty r.Image keeps the stored image. When the
// image changes, the previous URL is returned so the caller can remove it.
func (db *DB) UpdateRecipe(ctx context.Context, r *models.Recipe, ingredients []models.IngredientAmountInput, tagIDs []int64) (replacedImage string, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("update", "recipes", time.Now(), &err)

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		var oldImage string
		err := tx.QueryRowContext(ctx, `SELECT image FROM recipes WHERE id = ?`, r.ID).Scan(&oldImage)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read recipe: %w", err)
		}

		image := oldImage
		if r.Image != "" && r.Image != oldImage {
			image = r.Image
			replacedImage = oldImage
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE recipes SET name = ?, text = ?, image = ?, cooking_time = ? WHERE id = ?`,
			r.Name, r.Text, image, r.CookingTime, r.ID)
		if err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		r.Image = image

		if err := replaceRecipeIngredients(ctx, tx, r.ID, ingredients); err != nil {
			return err
		}
		return replaceRecipeTags(ctx, tx, r.ID, tagIDs)
	})
	if err != nil {
		return "", err
	}
	return replacedImage, nil
}

// DeleteRecipe removes a recipe with its ingredient amounts, tags, favorites
// and cart entries. It returns the image URL of the deleted recipe.
func (db *DB) DeleteRecipe(ctx context.Context, id int64) (image string, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("delete", "recipes", time.Now(), &err)

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT image FROM recipes WHERE id = ?`, id).Scan(&image)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read recipe: %w", err)
		}
		return deleteRecipeRows(ctx, tx, id)
	})
	if err != nil {
		return "", err
	}
	return image, nil
}

// deleteRecipeRows removes a recipe and every row that references it.
func deleteRecipeRows(ctx context.Context, tx *sql.Tx, recipeID int64) error {
	for _, table := range []string{"recipe_ingredients", "recipe_tags", "favorites", "shopping_cart"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE recipe_id = ?`, recipeID); err != nil {
			return fmt.Errorf("failed to delete %s of recipe %d: %w", table, recipeID, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, recipeID); err != nil {
		return fmt.Errorf("failed to delete recipe %d: %w", recipeID, err)
	}
	return nil
}

func insertRecipeIngredients(ctx context.Context, tx *sql.Tx, recipeID int64, ingredients []models.IngredientAmountInput) error {
	if len(ingredients) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare ingredient insert: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for _, in := range ingredients {
		if _, err := stmt.ExecContext(ctx, recipeID, in.ID, in.Amount); err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("duplicate ingredient %d: %w", in.ID, ErrAlreadyExists)
			}
			return fmt.Errorf("failed to add ingredient %d: %w", in.ID, err)
		}
	}
	return nil
}

func insertRecipeTags(ctx context.Context, tx *sql.Tx, recipeID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare tag insert: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for _, tagID := range tagIDs {
		if _, err := stmt.ExecContext(ctx, recipeID, tagID); err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("duplicate tag %d: %w", tagID, ErrAlreadyExists)
			}
			return fmt.Errorf("failed to add tag %d: %w", tagID, err)
		}
	}
	return nil
}

// replaceRecipeIngredients applies the difference between the stored and the
// wanted ingredient set. Rows are never deleted and re-inserted with the
// same key inside the transaction.
func replaceRecipeIngredients(ctx context.Context, tx *sql.Tx, recipeID int64, ingredients []models.IngredientAmountInput) error {
	current, err := queryAndScan(ctx, tx,
		`SELECT ingredient_id, amount FROM recipe_ingredients WHERE recipe_id = ?`,
		[]interface{}{recipeID},
		func(rows *sql.Rows) (models.IngredientAmountInput, error) {
			var in models.IngredientAmountInput
			err := rows.Scan(&in.ID, &in.Amount)
			return in, err
		})
	if err != nil {
		return fmt.Errorf("failed to read recipe ingredients: %w", err)
	}

	stored := make(map[int64]int, len(current))
	for _, in := range current {
		stored[in.ID] = in.Amount
	}
	wanted := make(map[int64]struct{}, len(ingredients))
	var added []models.IngredientAmountInput

	for _, in := range ingredients {
		wanted[in.ID] = struct{}{}
		amount, ok := stored[in.ID]
		switch {
		case !ok:
			added = append(added, in)
		case amount != in.Amount:
			if _, err := tx.ExecContext(ctx,
				`UPDATE recipe_ingredients SET amount = ? WHERE recipe_id = ? AND ingredient_id = ?`,
				in.Amount, recipeID, in.ID); err != nil {
				return fmt.Errorf("failed to update ingredient %d: %w", in.ID, err)
			}
		}
	}
	for id := range stored {
		if _, keep := wanted[id]; keep {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recipe_ingredients WHERE recipe_id = ? AND ingredient_id = ?`, recipeID, id); err != nil {
			return fmt.Errorf("failed to remove ingredient %d: %w", id, err)
		}
	}
	return insertRecipeIngredients(ctx, tx, recipeID, added)
}

func replaceRecipeTags(ctx context.Context, tx *sql.Tx, recipeID int64, tagIDs []int64) error {
	stored, err := idSet(ctx, tx, `SELECT tag_id FROM recipe_tags WHERE recipe_id = ?`, recipeID)
	if err != nil {
		return fmt.Errorf("failed to read recipe tags: %w", err)
	}

	wanted := make(map[int64]struct{}, len(tagIDs))
	var added []int64
	for _, id := range tagIDs {
		wanted[id] = struct{}{}
		if _, ok := stored[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range stored {
		if _, keep := wanted[id]; keep {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recipe_tags WHERE recipe_id = ? AND tag_id = ?`, recipeID, id); err != nil {
			return fmt.Errorf("failed to remove tag %d: %w", id, err)
		}
	}
	return insertRecipeTags(ctx, tx, recipeID, added)
}

// idSet runs a single-column id query and returns the ids as a set.
func idSet(ctx context.Context, q querier, stmt string, args ...interface{}) (map[int64]struct{}, error) {
	ids, err := queryAndScan(ctx, q, stmt, args, func(rows *sql.Rows) (int64, error) {
		var id int64
		err := rows.Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
