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

package migrate

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/internal/engine/repo"
	"github.com/go-arcade/feedback/internal/engine/testutil"
	"github.com/go-arcade/feedback/pkg/cache"
	"github.com/go-arcade/feedback/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// old table shapes, as created by releases before the columns they lack

type metadataTypeV1 struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	GroupName string `gorm:"type:varchar(64);not null"`
	Slug      string `gorm:"type:varchar(191);not null"`
	Label     string `gorm:"type:varchar(255);not null"`
	SortOrder int    `gorm:"not null;default:0"`
	Enabled   bool   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type metadataTypeV0 struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	GroupName string `gorm:"type:varchar(64);not null"`
	Slug      string `gorm:"type:varchar(191);not null"`
	Label     string `gorm:"type:varchar(255);not null"`
}

type feedbackV0 struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	Comment string `gorm:"type:text;not null"`
	URL     string `gorm:"type:varchar(2048);not null"`
}

type groupSettingsV1 struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	GroupSlug string `gorm:"type:varchar(191);not null;uniqueIndex"`
	Enabled   bool   `gorm:"not null"`
	Required  bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type fixture struct {
	db    *gorm.DB
	idb   database.IDatabase
	repos *repo.Repositories
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	idb := database.NewGormDB(db)
	c := cache.NewFastCache(cache.FastCacheConfig{MaxBytes: 1024 * 1024})
	return &fixture{db: db, idb: idb, repos: repo.NewRepositories(idb, c, testutil.LegacyPrefix)}
}

func (f *fixture) runner(steps ...Step) *Runner {
	if steps == nil {
		return NewRunner(f.idb, f.repos.Setting, f.repos.Legacy)
	}
	return NewRunnerWithSteps(f.idb, f.repos.Setting, f.repos.Legacy, steps)
}

func (f *fixture) createSettingTable(t *testing.T) {
	t.Helper()
	require.NoError(t, f.db.AutoMigrate(&model.Setting{}))
}

func (f *fixture) marker(t *testing.T) string {
	t.Helper()
	v, err := f.runner().InstalledVersion(context.Background())
	require.NoError(t, err)
	return v
}

// countWrites counts every create, update, delete and raw statement issued through db
func countWrites(t *testing.T, db *gorm.DB) *atomic.Int64 {
	t.Helper()
	var n atomic.Int64
	inc := func(*gorm.DB) { n.Add(1) }
	cb := db.Callback()
	require.NoError(t, cb.Create().Before("gorm:create").Register("test:count_create", inc))
	require.NoError(t, cb.Update().Before("gorm:update").Register("test:count_update", inc))
	require.NoError(t, cb.Delete().Before("gorm:delete").Register("test:count_delete", inc))
	require.NoError(t, cb.Raw().Before("gorm:raw").Register("test:count_raw", inc))
	return &n
}

// recorder returns steps that note their version when run
func recorder(ran *[]string, versions ...string) []Step {
	steps := make([]Step, 0, len(versions))
	for _, v := range versions {
		v := v
		steps = append(steps, Step{Version: v, Name: "record " + v, Up: func(context.Context, *Env) error {
			*ran = append(*ran, v)
			return nil
		}})
	}
	return steps
}

func (f *fixture) dbConf() database.Database {
	return database.Database{Driver: database.DriverSQLite, TablePrefix: testutil.TablePrefix}
}
