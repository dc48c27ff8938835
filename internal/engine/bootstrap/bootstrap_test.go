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

package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/go-arcade/feedback/internal/engine/config"
	"github.com/go-arcade/feedback/internal/engine/importer"
	"github.com/go-arcade/feedback/internal/engine/migrate"
	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/internal/engine/repo"
	"github.com/go-arcade/feedback/internal/engine/testutil"
	"github.com/go-arcade/feedback/pkg/cache"
	"github.com/go-arcade/feedback/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

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

func (f *fixture) setup(t *testing.T, conf config.SetupConfig) *Setup {
	t.Helper()
	schema := migrate.NewSchema(f.idb, database.Database{Driver: database.DriverSQLite, TablePrefix: testutil.TablePrefix})
	runner := migrate.NewRunner(f.idb, f.repos.Setting, f.repos.Legacy)
	lock := migrate.NewSetupLock(f.idb, f.repos.Setting, time.Minute)
	imp, err := importer.NewImporter(f.repos, config.LegacyConfig{TablePrefix: testutil.LegacyPrefix})
	require.NoError(t, err)
	s := NewSetup(conf, lock, schema, runner, imp)
	s.poll = 10 * time.Millisecond
	return s
}

func (f *fixture) seedLegacy(t *testing.T) {
	t.Helper()
	testutil.CreateLegacyTables(t, f.db)
	item := &model.LegacyContent{
		ContentType: importer.DefaultContentType,
		Body:        "Logo is blurry",
		CreatedAt:   time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.db.Table(testutil.LegacyPrefix+model.LegacyContentTable).Create(item).Error)
	require.NoError(t, f.db.Table(testutil.LegacyPrefix+model.LegacyAttributeTable).Create(&model.LegacyAttribute{
		ContentID: item.ID, AttrKey: "_feedback_url", AttrValue: "https://example.com/about?ref=nav",
	}).Error)
	testutil.SetLegacyOption(t, f.db, "feedback_hide_resolved", "1")
}

func target() config.SetupConfig {
	return config.SetupConfig{TargetVersion: "1.4.0", ImportLegacy: true}
}

func TestSetup_FreshInstallWithLegacyData(t *testing.T) {
	f := newFixture(t)
	f.seedLegacy(t)
	ctx := context.Background()

	out, err := f.setup(t, target()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.4.0", out.Migration.Marker)
	assert.Equal(t, []string{"1.1.0", "1.2.0", "1.3.0", "1.4.0"}, out.Migration.Applied)
	assert.Equal(t, 1, out.Import.Feedbacks)

	list, err := f.repos.Feedback.ListByPagePath(ctx, "/about", nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Logo is blurry", list[0].Comment)

	moved, ok, err := f.repos.Setting.GetUncached(ctx, "feedback_hide_resolved")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", moved)

	_, held, err := f.repos.Setting.GetUncached(ctx, migrate.SetupLockKey)
	require.NoError(t, err)
	assert.False(t, held, "lock released")
}

func TestSetup_SecondRunIsNoop(t *testing.T) {
	f := newFixture(t)
	f.seedLegacy(t)
	ctx := context.Background()

	_, err := f.setup(t, target()).Run(ctx)
	require.NoError(t, err)

	out, err := f.setup(t, target()).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, out.Migration.Applied)
	assert.True(t, out.Import.Skipped)

	n, err := f.repos.Feedback.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSetup_ImportDisabled(t *testing.T) {
	f := newFixture(t)
	f.seedLegacy(t)
	conf := target()
	conf.ImportLegacy = false

	out, err := f.setup(t, conf).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Import.Skipped)

	n, err := f.repos.Feedback.CountAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSetup_WaitsForHeldLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := migrate.NewSetupLock(f.idb, f.repos.Setting, time.Minute)
	require.NoError(t, other.Acquire(ctx))

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err := f.setup(t, target()).Run(waitCtx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, other.Release(ctx))
	out, err := f.setup(t, target()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.4.0", out.Migration.Marker)
}

func TestSetup_InvalidTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.setup(t, config.SetupConfig{TargetVersion: "latest"}).Run(ctx)
	require.Error(t, err)

	_, held, err := f.repos.Setting.GetUncached(ctx, migrate.SetupLockKey)
	require.NoError(t, err)
	assert.False(t, held, "lock released after a failed run")
}
