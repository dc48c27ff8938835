// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package testutil opens throwaway sqlite databases for package tests.
package testutil

import (
	"testing"

	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/pkg/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	TablePrefix  = "fb_"
	LegacyPrefix = "wp_"
)

// NewDB returns an empty in-memory database using the production naming
// strategy. The single connection keeps the memory database alive until cleanup.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), database.GormConfig(database.Database{
		Driver:      database.DriverSQLite,
		TablePrefix: TablePrefix,
	}))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// NewMigratedDB returns a database with every table created
func NewMigratedDB(t testing.TB) *gorm.DB {
	t.Helper()

	db := NewDB(t)
	if err := db.AutoMigrate(model.Models()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

// CreateLegacyTables creates the legacy content/attribute/comment/option tables
func CreateLegacyTables(t testing.TB, db *gorm.DB) {
	t.Helper()

	tables := map[string]any{
		model.LegacyContentTable:   &model.LegacyContent{},
		model.LegacyAttributeTable: &model.LegacyAttribute{},
		model.LegacyCommentTable:   &model.LegacyComment{},
		model.LegacyOptionTable:    &model.LegacyOption{},
	}
	for name, m := range tables {
		if err := db.Table(LegacyPrefix + name).AutoMigrate(m); err != nil {
			t.Fatalf("create legacy table %s: %v", name, err)
		}
	}
}

// SetLegacyOption inserts a legacy global option row
func SetLegacyOption(t testing.TB, db *gorm.DB, name, value string) {
	t.Helper()

	row := &model.LegacyOption{OptionName: name, OptionValue: value, Autoload: "yes"}
	if err := db.Table(LegacyPrefix + model.LegacyOptionTable).Create(row).Error; err != nil {
		t.Fatalf("insert legacy option %s: %v", name, err)
	}
}
