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

func scanTag(rows *sql.Rows) (models.Tag, error) {
	var t models.Tag
	err := rows.Scan(&t.ID, &t.Name, &t.Slug)
	return t, err
}

// ListTags returns every tag ordered by name.
func (db *DB) ListTags(ctx context.Context) (tags []models.Tag, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "tags", time.Now(), &err)

	tags, err = queryAndScan(ctx, db.conn, `SELECT id, name, slug FROM tags ORDER BY name, id`, nil, scanTag)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// GetTag returns the tag with id, or nil if there is none.
func (db *DB) GetTag(ctx context.Context, id int64) (tag *models.Tag, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "tags", time.Now(), &err)

	var t models.Tag
	err = db.conn.QueryRowContext(ctx, `SELECT id, name, slug FROM tags WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &t, nil
}

// CreateTag inserts a tag and sets its ID. A taken slug returns
// ErrAlreadyExists.
func (db *DB) CreateTag(ctx context.Context, tag *models.Tag) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert", "tags", time.Now(), &err)

	err = db.conn.QueryRowContext(ctx,
		`INSERT INTO tags (name, slug) VALUES (?, ?) RETURNING id`,
		tag.Name, tag.Slug).Scan(&tag.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

// MissingTags returns the ids in ids that do not name a tag.
func (db *DB) MissingTags(ctx context.Context, ids []int64) (missing []int64, err error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "tags", time.Now(), &err)

	found, err := existingIDs(ctx, db.conn, "tags", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check tags: %w", err)
	}
	return missingIDs(ids, found), nil
}

// existingIDs returns which of ids exist in table. table is always a
// constant from this package.
func existingIDs(ctx context.Context, q querier, table string, ids []int64) (map[int64]struct{}, error) {
	stmt := fmt.Sprintf(`SELECT id FROM %s WHERE id IN (%s)`, table, query.Placeholders(len(ids)))
	return idSet(ctx, q, stmt, query.Int64Args(ids)...)
}
