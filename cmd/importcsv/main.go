// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

// Command importcsv loads the ingredient and tag catalogs from CSV files.
//
//	importcsv ./data
//	importcsv ./data --file pantry.csv
//	importcsv tags ./data
//
// Files have no header. Ingredient rows are name,measurement_unit and tag
// rows are name,slug. Rows that already exist are left alone, so the import
// can be re-run safely.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Cobra prints the error, so we just need to exit.
		os.Exit(1)
	}
}
