// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tomtom215/larder/internal/config"
	"github.com/tomtom215/larder/internal/database"
	"github.com/tomtom215/larder/internal/logging"
)

const (
	defaultIngredientsFile = "ingredients.csv"
	defaultTagsFile        = "tags.csv"
)

// openStore is swapped in tests so the command can run without DuckDB.
var openStore = func(cfg *config.DatabaseConfig) (catalogStore, func() error, error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return db, db.Close, nil
}

// importFunc loads one kind of catalog row from r.
type importFunc func(ctx context.Context, store catalogStore, r io.Reader) (importResult, error)

func newRootCmd() *cobra.Command {
	var fileName string

	cmd := &cobra.Command{
		Use:   "importcsv <dir>",
		Short: "Import ingredients from a CSV file into the catalog",
		Long: `importcsv reads <dir>/ingredients.csv (or the file named by --file)
and adds every name,measurement_unit row to the ingredient catalog.
Existing ingredients are skipped and malformed rows are reported and skipped.
Ingredient names are unique; a name already stored with another unit fails.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), "ingredient", filepath.Join(args[0], fileName), importIngredients)
		},
	}
	cmd.Flags().StringVarP(&fileName, "file", "f", defaultIngredientsFile, "CSV file name inside <dir>")

	cmd.AddCommand(newTagsCmd())
	return cmd
}

func newTagsCmd() *cobra.Command {
	var fileName string

	cmd := &cobra.Command{
		Use:   "tags <dir>",
		Short: "Import recipe tags from a CSV file",
		Long: `tags reads <dir>/tags.csv (or the file named by --file) and creates a
tag for every name,slug row. Slugs must be unique and use only letters,
digits, hyphens and underscores. Tags whose slug already exists are skipped.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), "tag", filepath.Join(args[0], fileName), importTags)
		},
	}
	cmd.Flags().StringVarP(&fileName, "file", "f", defaultTagsFile, "CSV file name inside <dir>")

	return cmd
}

func runImport(ctx context.Context, kind, path string, load importFunc) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("data file %s does not exist", path)
		}
		return fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read .env file: %w", err)
	}
	cfg, err := config.LoadWithoutValidation()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	store, closeStore, err := openStore(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	result, err := load(ctx, store, f)
	logging.Info().
		Str("kind", kind).
		Str("file", path).
		Int("created", result.Created).
		Int("existing", result.Existing).
		Int("failed", result.Failed).
		Msg("Catalog import finished")
	return err
}
