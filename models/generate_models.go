package models

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"gorm.io/gen"
	"gorm.io/gorm"
)

/*
Column Mismatch Report Usage:

This file contains the gorm/gen query generator and a report of database
columns that aren't accounted for as fields in the Go model structs.

To generate the report:

1. Set the environment variable: GENERATE_COLUMN_REPORT=true
2. Run the application: go run main.go

Example output:
=== COLUMN MISMATCH REPORT ===
--- Table: blog_posts ---
Found 1 columns not accounted for in model:
  - legacy_slug

--- Table: users ---
All columns are accounted for in the model.
*/

// All returns every persisted model, in dependency order.
func All() []any {
	return []any{&User{}, &BlogPost{}, &Comment{}}
}

// GenerateModels migrates the schema and writes typed query helpers for
// every model into outPath.
func GenerateModels(db *gorm.DB, outPath string) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	migrateDB := db.Session(&gorm.Session{
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
	})

	log.Info().Msg("Migrating models...")
	if err := migrateDB.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("models migration: %w", err)
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           outPath,
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(User{}, BlogPost{}, Comment{})

	if _, err := GenerateColumnMismatchReport(db); err != nil {
		return err
	}

	g.Execute()
	log.Info().Str("outPath", outPath).Msg("Model generation complete")
	return nil
}

// ColumnMismatch lists database columns with no matching model field.
type ColumnMismatch struct {
	Table   string
	Columns []string
}

// GenerateColumnMismatchReport logs, per table, the columns that exist in the
// database but not in the Go model, and returns the tables with mismatches.
func GenerateColumnMismatchReport(db *gorm.DB) ([]ColumnMismatch, error) {
	log.Info().Msg("=== COLUMN MISMATCH REPORT ===")

	var report []ColumnMismatch
	total := 0
	for _, model := range All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", model, err)
		}
		tableName := stmt.Schema.Table

		if !db.Migrator().HasTable(model) {
			log.Warn().Str("table", tableName).Msg("Table does not exist yet (will be created during migration)")
			continue
		}

		columnTypes, err := db.Migrator().ColumnTypes(model)
		if err != nil {
			return nil, fmt.Errorf("error getting columns for table %s: %w", tableName, err)
		}
		dbColumns := make([]string, 0, len(columnTypes))
		for _, ct := range columnTypes {
			dbColumns = append(dbColumns, ct.Name())
		}

		mismatches := findColumnMismatches(dbColumns, stmt.Schema.DBNames)
		if len(mismatches) > 0 {
			log.Warn().Str("table", tableName).Strs("columns", mismatches).Msgf("Found %d columns not accounted for in model", len(mismatches))
			report = append(report, ColumnMismatch{Table: tableName, Columns: mismatches})
			total += len(mismatches)
		} else {
			log.Info().Str("table", tableName).Msg("All columns are accounted for in the model.")
		}
	}

	log.Info().Int("total", total).Msg("Total mismatched columns across all tables")
	return report, nil
}

// findColumnMismatches finds columns that exist in the database but not in the model
func findColumnMismatches(dbColumns, modelFields []string) []string {
	modelFieldSet := make(map[string]bool, len(modelFields))
	for _, field := range modelFields {
		modelFieldSet[field] = true
	}

	var mismatches []string
	for _, col := range dbColumns {
		if !modelFieldSet[col] {
			mismatches = append(mismatches, col)
		}
	}
	sort.Strings(mismatches)
	return mismatches
}
