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

	"github.com/tomtom215/larder/internal/database/query"
	"github.com/tomtom215/larder/internal/models"
)

// Follow subscribes userID to authorID.
func (db *DB) Follow(ctx context.Context, userID, authorID int64) (err error) {
	if userID == authorID {
		return ErrSelfFollow
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert", "follows", time.Now(), &err)

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO follows (user_id, author_id, created_at) VALUES (?, ?, ?)`,
		userID, authorID, time.Now().UTC())
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to follow user: %w", err)
	}
	return nil
}

// Unfollow removes a subscription. ErrNotFound if there was none.
func (db *DB) Unfollow(ctx context.Context, userID, authorID int64) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("delete", "follows", time.Now(), &err)

	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM follows WHERE user_id = ? AND author_id = ?`, userID, authorID)
	if err != nil {
		return fmt.Errorf("failed to unfollow user: %w", err)
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

// IsFollowing reports whether userID follows authorID. Anonymous viewers
// (userID 0) follow nobody.
func (db *DB) IsFollowing(ctx context.Context, userID, authorID int64) (following bool, err error) {
	if userID == 0 {
		return false, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "follows", time.Now(), &err)

	err = db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE user_id = ? AND author_id = ?)`,
		userID, authorID).Scan(&following)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return following, nil
}

// FollowedAmong returns which of authorIDs userID follows.
func (db *DB) FollowedAmong(ctx context.Context, userID int64, authorIDs []int64) (map[int64]struct{}, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return db.followedAmong(ctx, userID, authorIDs)
}

func (db *DB) followedAmong(ctx context.Context, userID int64, authorIDs []int64) (followed map[int64]struct{}, err error) {
	if userID == 0 || len(authorIDs) == 0 {
		return map[int64]struct{}{}, nil
	}
	defer observe("select", "follows", time.Now(), &err)

	args := append([]interface{}{userID}, query.Int64Args(authorIDs)...)
	followed, err = idSet(ctx, db.conn,
		`SELECT author_id FROM follows WHERE user_id = ? AND author_id IN (`+query.Placeholders(len(authorIDs))+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load follows: %w", err)
	}
	return followed, nil
}

// ListFollowing returns one page of the users userID follows, ordered by
// username, plus the total.
func (db *DB) ListFollowing(ctx context.Context, userID int64, limit, offset int) (users []models.User, total int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "follows", time.Now(), &err)

	if err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count follows: %w", err)
	}

	users, err = queryAndScan(ctx, db.conn, `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash, u.avatar, u.date_joined
		FROM follows f JOIN users u ON u.id = f.author_id
		WHERE f.user_id = ?
		ORDER BY u.username, u.id
		LIMIT ? OFFSET ?`,
		[]interface{}{userID, limit, offset},
		func(rows *sql.Rows) (models.User, error) {
			u, err := scanUser(rows)
			if err != nil {
				return models.User{}, err
			}
			return *u, nil
		})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list follows: %w", err)
	}
	return users, total, nil
}
