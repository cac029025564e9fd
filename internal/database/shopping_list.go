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

	"github.com/tomtom215/larder/internal/models"
)

// shoppingListQuery sums ingredient amounts over every recipe in a cart.
// SUM over INTEGER yields HUGEINT in DuckDB, hence the cast.
const shoppingListQuery = `
SELECT i.name, i.measurement_unit, CAST(SUM(ri.amount) AS BIGINT) AS amount
FROM shopping_cart c
JOIN recipe_ingredients ri ON ri.recipe_id = c.recipe_id
JOIN ingredients i ON i.id = ri.ingredient_id
WHERE c.user_id = ?
GROUP BY i.name, i.measurement_unit
ORDER BY i.name, i.measurement_unit`

// ShoppingList aggregates the ingredients of every recipe in userID's cart
// per ingredient.
func (db *DB) ShoppingList(ctx context.Context, userID int64) (items []models.ShoppingListItem, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "shopping_cart", time.Now(), &err)

	items, err = queryAndScan(ctx, db.conn, shoppingListQuery, []interface{}{userID},
		func(rows *sql.Rows) (models.ShoppingListItem, error) {
			var item models.ShoppingListItem
			err := rows.Scan(&item.Name, &item.Unit, &item.Amount)
			return item, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to build shopping list: %w", err)
	}
	return items, nil
}
