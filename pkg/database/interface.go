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

package database

import "gorm.io/gorm"

// IDatabase is what repositories depend on
type IDatabase interface {
	// Database returns the underlying *gorm.DB
	Database() *gorm.DB
}

// GormDB wraps a ready *gorm.DB, used by tests and tools that open their own connection
type GormDB struct {
	db *gorm.DB
}

// NewGormDB creates an IDatabase from an opened *gorm.DB
func NewGormDB(db *gorm.DB) IDatabase {
	return &GormDB{db: db}
}

func (g *GormDB) Database() *gorm.DB {
	return g.db
}

// databaseAdapter adapts Manager to IDatabase
type databaseAdapter struct {
	manager Manager
}

// NewDatabaseAdapter creates an IDatabase adapter from Manager
func NewDatabaseAdapter(manager Manager) IDatabase {
	return &databaseAdapter{manager: manager}
}

func (d *databaseAdapter) Database() *gorm.DB {
	return d.manager.Primary()
}

// IsMySQL reports whether db talks to a MySQL-compatible server.
func IsMySQL(db *gorm.DB) bool {
	return db.Dialector.Name() == DriverMySQL
}
