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

	"github.com/tomtom215/larder/internal/database/query"
	"github.com/tomtom215/larder/internal/models"
)

const recipeColumns = `r.id, r.author_id, r.name, r.text, r.image, r.cooking_time, r.short_link, r.pub_date`

func scanRecipe(row rowScanner) (models.Recipe, error) {
	var r models.Recipe
	err := row.Scan(&r.ID, &r.AuthorID, &r.Name, &r.Text, &r.Image, &r.CookingTime, &r.ShortLink, &r.PubDate)
	return r, err
}

func scanRecipeRows(rows *sql.Rows) (models.Recipe, error) {
	return scanRecipe(rows)
}

// GetRecipeRow returns the stored recipe row, or nil if there is none.
func (db *DB) GetRecipeRow(ctx context.Context, id int64) (recipe *models.Recipe, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "recipes", time.Now(), &err)

	r, err := scanRecipe(db.conn.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &r, nil
}

// GetRecipe returns the full representation of a recipe as seen by
// viewerID (0 for anonymous), or nil if there is none.
func (db *DB) GetRecipe(ctx context.Context, id, viewerID int64) (*models.RecipeDetail, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row, err := db.GetRecipeRow(ctx, id)
	if err != nil || row == nil {
		return nil, err
	}
	details, err := db.hydrate(ctx, []models.Recipe{*row}, viewerID)
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// ListRecipes returns one page of recipes, newest first, plus the number of
// recipes matching filter.
func (db *DB) ListRecipes(ctx context.Context, filter models.RecipeFilter, limit, offset int) (recipes []models.RecipeDetail, total int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	// Viewer-relative flags mean nothing for an anonymous viewer.
	if filter.ViewerID == 0 && (filter.IsFavorited != nil || filter.IsInShoppingCart != nil) {
		return []models.RecipeDetail{}, 0, nil
	}

	where, args := recipeFilterClause(filter)

	start := time.Now()
	err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes r WHERE `+where, args...).Scan(&total)
	observe("count", "recipes", start, &err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	if total == 0 || offset >= total {
		return []models.RecipeDetail{}, total, nil
	}

	start = time.Now()
	pageArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := queryAndScan(ctx, db.conn,
		`SELECT `+recipeColumns+` FROM recipes r WHERE `+where+
			` ORDER BY r.pub_date DESC, r.id DESC LIMIT ? OFFSET ?`,
		pageArgs, scanRecipeRows)
	observe("select", "recipes", start, &err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes, err = db.hydrate(ctx, rows, filter.ViewerID)
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

func recipeFilterClause(filter models.RecipeFilter) (string, []interface{}) {
	wb := query.NewWhereBuilder()
	if filter.AuthorID != nil {
		wb.AddClause("r.author_id = ?", *filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		args := make([]interface{}, len(filter.TagSlugs))
		for i, s := range filter.TagSlugs {
			args[i] = s
		}
		wb.AddExists(`SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug IN (`+query.Placeholders(len(args))+`)`, false, args...)
	}
	if filter.IsFavorited != nil {
		wb.AddExists(`SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = ?`,
			!*filter.IsFavorited, filter.ViewerID)
	}
	if filter.IsInShoppingCart != nil {
		wb.AddExists(`SELECT 1 FROM shopping_cart c WHERE c.recipe_id = r.id AND c.user_id = ?`,
			!*filter.IsInShoppingCart, filter.ViewerID)
	}
	return wb.Build()
}

// hydrate loads tags, ingredients, authors and viewer flags for rows with
// one query per relation.
func (db *DB) hydrate(ctx context.Context, rows []models.Recipe, viewerID int64) (details []models.RecipeDetail, err error) {
	if len(rows) == 0 {
		return []models.RecipeDetail{}, nil
	}
	defer observe("select", "recipe_relations", time.Now(), &err)

	recipeIDs := make([]int64, len(rows))
	authorSeen := make(map[int64]struct{})
	authorIDs := make([]int64, 0, len(rows))
	for i, r := range rows {
		recipeIDs[i] = r.ID
		if _, ok := authorSeen[r.AuthorID]; !ok {
			authorSeen[r.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}
	in := query.Placeholders(len(recipeIDs))
	recipeArgs := query.Int64Args(recipeIDs)

	tags := make(map[int64][]models.Tag, len(rows))
	type recipeTag struct {
		recipeID int64
		tag      models.Tag
	}
	tagRows, err := queryAndScan(ctx, db.conn, `
		SELECT rt.recipe_id, t.id, t.name, t.slug
		FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id IN (`+in+`) ORDER BY t.name, t.id`, recipeArgs,
		func(rows *sql.Rows) (recipeTag, error) {
			var rt recipeTag
			err := rows.Scan(&rt.recipeID, &rt.tag.ID, &rt.tag.Name, &rt.tag.Slug)
			return rt, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe tags: %w", err)
	}
	for _, rt := range tagRows {
		tags[rt.recipeID] = append(tags[rt.recipeID], rt.tag)
	}

	ingredients := make(map[int64][]models.RecipeIngredient, len(rows))
	type recipeIngredient struct {
		recipeID   int64
		ingredient models.RecipeIngredient
	}
	ingredientRows, err := queryAndScan(ctx, db.conn, `
		SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id IN (`+in+`) ORDER BY i.name, i.id`, recipeArgs,
		func(rows *sql.Rows) (recipeIngredient, error) {
			var ri recipeIngredient
			err := rows.Scan(&ri.recipeID, &ri.ingredient.ID, &ri.ingredient.Name,
				&ri.ingredient.MeasurementUnit, &ri.ingredient.Amount)
			return ri, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe ingredients: %w", err)
	}
	for _, ri := range ingredientRows {
		ingredients[ri.recipeID] = append(ingredients[ri.recipeID], ri.ingredient)
	}

	authors, err := queryAndScan(ctx, db.conn,
		`SELECT `+userColumns+` FROM users WHERE id IN (`+query.Placeholders(len(authorIDs))+`)`,
		query.Int64Args(authorIDs),
		func(rows *sql.Rows) (*models.User, error) { return scanUser(rows) })
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe authors: %w", err)
	}
	authorByID := make(map[int64]*models.User, len(authors))
	for _, a := range authors {
		authorByID[a.ID] = a
	}

	favorited := map[int64]struct{}{}
	inCart := map[int64]struct{}{}
	subscribed := map[int64]struct{}{}
	if viewerID != 0 {
		viewerArgs := append([]interface{}{viewerID}, recipeArgs...)
		if favorited, err = idSet(ctx, db.conn,
			`SELECT recipe_id FROM favorites WHERE user_id = ? AND recipe_id IN (`+in+`)`, viewerArgs...); err != nil {
			return nil, fmt.Errorf("failed to load favorites: %w", err)
		}
		if inCart, err = idSet(ctx, db.conn,
			`SELECT recipe_id FROM shopping_cart WHERE user_id = ? AND recipe_id IN (`+in+`)`, viewerArgs...); err != nil {
			return nil, fmt.Errorf("failed to load shopping cart: %w", err)
		}
		if subscribed, err = db.followedAmong(ctx, viewerID, authorIDs); err != nil {
			return nil, err
		}
	}

	details = make([]models.RecipeDetail, len(rows))
	for i, r := range rows {
		d := models.RecipeDetail{
			ID:          r.ID,
			Tags:        tags[r.ID],
			Ingredients: ingredients[r.ID],
			Name:        r.Name,
			Image:       r.Image,
			Text:        r.Text,
			CookingTime: r.CookingTime,
		}
		if d.Tags == nil {
			d.Tags = []models.Tag{}
		}
		if d.Ingredients == nil {
			d.Ingredients = []models.RecipeIngredient{}
		}
		if author, ok := authorByID[r.AuthorID]; ok {
			_, sub := subscribed[r.AuthorID]
			d.Author = author.Profile(sub)
		}
		_, d.IsFavorited = favorited[r.ID]
		_, d.IsInShoppingCart = inCart[r.ID]
		details[i] = d
	}
	return details, nil
}

// GetRecipeIDByShortLink resolves a short link code. ok is false when no
// recipe carries the code.
func (db *DB) GetRecipeIDByShortLink(ctx context.Context, code string) (id int64, ok bool, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "recipes", time.Now(), &err)

	err = db.conn.QueryRowContext(ctx, `SELECT id FROM recipes WHERE short_link = ?`, code).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve short link: %w", err)
	}
	return id, true, nil
}

// ListRecipesShortByAuthor returns an author's recipes, newest first, in
// short form. limit <= 0 returns all of them.
func (db *DB) ListRecipesShortByAuthor(ctx context.Context, authorID int64, limit int) (recipes []models.RecipeShort, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "recipes", time.Now(), &err)

	stmt := `SELECT id, name, image, cooking_time FROM recipes WHERE author_id = ? ORDER BY pub_date DESC, id DESC`
	args := []interface{}{authorID}
	if limit > 0 {
		stmt += ` LIMIT ?`
		args = append(args, limit)
	}
	recipes, err = queryAndScan(ctx, db.conn, stmt, args, func(rows *sql.Rows) (models.RecipeShort, error) {
		var r models.RecipeShort
		err := rows.Scan(&r.ID, &r.Name, &r.Image, &r.CookingTime)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list author recipes: %w", err)
	}
	return recipes, nil
}

// CountRecipesByAuthor returns how many recipes an author has published.
func (db *DB) CountRecipesByAuthor(ctx context.Context, authorID int64) (count int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("count", "recipes", time.Now(), &err)

	if err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipes WHERE author_id = ?`, authorID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count author recipes: %w", err)
	}
	return count, nil
}
