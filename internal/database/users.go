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

const userColumns = `id, email, username, first_name, last_name, password_hash, avatar, date_joined`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var avatar sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName,
		&u.PasswordHash, &avatar, &u.DateJoined); err != nil {
		return nil, err
	}
	if avatar.Valid && avatar.String != "" {
		u.Avatar = &avatar.String
	}
	return &u, nil
}

// CreateUser inserts u and sets its ID and DateJoined. A taken email or
// username returns ErrDuplicateEmail or ErrDuplicateUsername.
func (db *DB) CreateUser(ctx context.Context, u *models.User) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert", "users", time.Now(), &err)

	var emailTaken, usernameTaken bool
	err = db.conn.QueryRowContext(ctx, `
		SELECT
			COALESCE(bool_or(email = ?), false),
			COALESCE(bool_or(username = ?), false)
		FROM users WHERE email = ? OR username = ?`,
		u.Email, u.Username, u.Email, u.Username).Scan(&emailTaken, &usernameTaken)
	if err != nil {
		return fmt.Errorf("failed to check user uniqueness: %w", err)
	}
	if emailTaken {
		return ErrDuplicateEmail
	}
	if usernameTaken {
		return ErrDuplicateUsername
	}

	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO users (email, username, first_name, last_name, password_hash, avatar, date_joined)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		u.Email, u.Username, u.FirstName, u.LastName, u.PasswordHash, u.Avatar, u.DateJoined).Scan(&u.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			if strings.Contains(strings.ToLower(err.Error()), "username") {
				return ErrDuplicateUsername
			}
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID returns the user with id, or nil if there is none.
func (db *DB) GetUserByID(ctx context.Context, id int64) (user *models.User, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "users", time.Now(), &err)

	user, err = scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail returns the user with email, or nil if there is none.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (user *models.User, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "users", time.Now(), &err)

	user, err = scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// ListUsers returns one page of users ordered by username, plus the total.
func (db *DB) ListUsers(ctx context.Context, limit, offset int) (users []models.User, total int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "users", time.Now(), &err)

	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	users, err = queryAndScan(ctx, db.conn,
		`SELECT `+userColumns+` FROM users ORDER BY username, id LIMIT ? OFFSET ?`,
		[]interface{}{limit, offset},
		func(rows *sql.Rows) (models.User, error) {
			u, err := scanUser(rows)
			if err != nil {
				return models.User{}, err
			}
			return *u, nil
		})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// SetPassword replaces the stored password hash.
func (db *DB) SetPassword(ctx context.Context, userID int64, hash string) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("update", "users", time.Now(), &err)

	result, err := db.conn.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, userID)
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
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

// SetAvatar stores the avatar URL; nil clears it. It returns the previous
// URL so the caller can remove the old file.
func (db *DB) SetAvatar(ctx context.Context, userID int64, avatar *string) (previous *string, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("update", "users", time.Now(), &err)

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		var old sql.NullString
		if err := tx.QueryRowContext(ctx, `SELECT avatar FROM users WHERE id = ?`, userID).Scan(&old); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to read avatar: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET avatar = ? WHERE id = ?`, avatar, userID); err != nil {
			return fmt.Errorf("failed to set avatar: %w", err)
		}
		if old.Valid && old.String != "" {
			previous = &old.String
		}
		return nil
	})
	return previous, err
}

// DeleteUser removes a user with their recipes, follows in both directions,
// favorites and cart entries. It returns the image URLs of the deleted
// recipes and the avatar so the caller can remove the files.
func (db *DB) DeleteUser(ctx context.Context, userID int64) (files []string, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("delete", "users", time.Now(), &err)

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		var avatar sql.NullString
		if err := tx.QueryRowContext(ctx, `SELECT avatar FROM users WHERE id = ?`, userID).Scan(&avatar); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to read user: %w", err)
		}

		recipes, err := queryAndScan(ctx, tx, `SELECT id, image FROM recipes WHERE author_id = ?`,
			[]interface{}{userID}, func(rows *sql.Rows) (recipeFile, error) {
				var rf recipeFile
				err := rows.Scan(&rf.id, &rf.image)
				return rf, err
			})
		if err != nil {
			return fmt.Errorf("failed to list user recipes: %w", err)
		}
		for _, rf := range recipes {
			if err := deleteRecipeRows(ctx, tx, rf.id); err != nil {
				return err
			}
			files = append(files, rf.image)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM follows WHERE user_id = ? OR author_id = ?`, userID, userID); err != nil {
			return fmt.Errorf("failed to delete follows: %w", err)
		}
		for _, table := range []string{"favorites", "shopping_cart"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = ?`, userID); err != nil {
				return fmt.Errorf("failed to delete %s: %w", table, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if avatar.Valid && avatar.String != "" {
			files = append(files, avatar.String)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

type recipeFile struct {
	id    int64
	image string
}
