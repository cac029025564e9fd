// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/larder/internal/database"
	"github.com/tomtom215/larder/internal/logging"
	"github.com/tomtom215/larder/internal/models"
	"github.com/tomtom215/larder/internal/validation"
)

// catalogStore is the part of *database.DB the importer needs.
type catalogStore interface {
	GetOrCreateIngredient(ctx context.Context, name, unit string) (*models.Ingredient, bool, error)
	CreateTag(ctx context.Context, tag *models.Tag) error
}

type importResult struct {
	Created  int
	Existing int
	Failed   int
}

// rowFunc stores one CSV record. It reports whether a new row was created.
type rowFunc func(ctx context.Context, line int, record []string) (created bool, err error)

// importRows feeds every record of r to fn. Bad rows are logged and counted
// in Failed; only read errors and context cancellation stop the import early.
func importRows(ctx context.Context, r io.Reader, fn rowFunc) (importResult, error) {
	var result importResult

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Failed++
				logging.Warn().Err(err).Int("line", parseErr.Line).Msg("Skipping malformed CSV row")
				continue
			}
			return result, fmt.Errorf("read csv: %w", err)
		}

		line, _ := reader.FieldPos(0)
		created, err := fn(ctx, line, record)
		switch {
		case err != nil:
			result.Failed++
			logging.Warn().Err(err).Int("line", line).Strs("row", record).Msg("Skipping CSV row")
		case created:
			result.Created++
		default:
			result.Existing++
		}
	}
}

// importIngredients adds every name,measurement_unit row of r to the
// catalog. A name already stored with another unit counts as failed.
func importIngredients(ctx context.Context, store catalogStore, r io.Reader) (importResult, error) {
	return importRows(ctx, r, func(ctx context.Context, line int, record []string) (bool, error) {
		name, unit, err := parseIngredientRow(record)
		if err != nil {
			return false, err
		}
		ingredient, created, err := store.GetOrCreateIngredient(ctx, name, unit)
		if err != nil {
			return false, err
		}
		if created {
			logging.Debug().Int("line", line).Int64("id", ingredient.ID).Str("name", name).Msg("Ingredient created")
		}
		return created, nil
	})
}

// importTags adds every name,slug row of r. A slug that is already taken
// counts as existing.
func importTags(ctx context.Context, store catalogStore, r io.Reader) (importResult, error) {
	return importRows(ctx, r, func(ctx context.Context, line int, record []string) (bool, error) {
		req, err := parseTagRow(record)
		if err != nil {
			return false, err
		}
		tag := models.Tag{Name: req.Name, Slug: req.Slug}
		if err := store.CreateTag(ctx, &tag); err != nil {
			if errors.Is(err, database.ErrAlreadyExists) {
				return false, nil
			}
			return false, err
		}
		logging.Debug().Int("line", line).Int64("id", tag.ID).Str("slug", tag.Slug).Msg("Tag created")
		return true, nil
	})
}

func parseIngredientRow(record []string) (name, unit string, err error) {
	if len(record) != 2 {
		return "", "", fmt.Errorf("expected 2 fields, got %d", len(record))
	}
	name = strings.TrimSpace(record[0])
	unit = strings.TrimSpace(record[1])

	switch {
	case name == "":
		return "", "", errors.New("name is empty")
	case unit == "":
		return "", "", errors.New("measurement unit is empty")
	case utf8.RuneCountInString(name) > models.IngredientNameMaxLength:
		return "", "", fmt.Errorf("name longer than %d characters", models.IngredientNameMaxLength)
	case utf8.RuneCountInString(unit) > models.IngredientUnitMaxLength:
		return "", "", fmt.Errorf("measurement unit longer than %d characters", models.IngredientUnitMaxLength)
	}
	return name, unit, nil
}

func parseTagRow(record []string) (*models.TagWriteRequest, error) {
	if len(record) != 2 {
		return nil, fmt.Errorf("expected 2 fields, got %d", len(record))
	}
	req := &models.TagWriteRequest{
		Name: strings.TrimSpace(record[0]),
		Slug: strings.TrimSpace(record[1]),
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		return nil, verr
	}
	return req, nil
}
