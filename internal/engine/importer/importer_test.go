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

package importer

import (
	"context"
	"testing"
	"time"

	"github.com/go-arcade/feedback/internal/engine/config"
	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/internal/engine/repo"
	"github.com/go-arcade/feedback/internal/engine/testutil"
	"github.com/go-arcade/feedback/pkg/cache"
	"github.com/go-arcade/feedback/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestImporter(t *testing.T) (*Importer, *repo.Repositories, *gorm.DB) {
	t.Helper()
	db := testutil.NewMigratedDB(t)
	testutil.CreateLegacyTables(t, db)
	c := cache.NewFastCache(cache.FastCacheConfig{MaxBytes: 1024 * 1024})
	repos := repo.NewRepositories(database.NewGormDB(db), c, testutil.LegacyPrefix)
	imp, err := NewImporter(repos, config.LegacyConfig{TablePrefix: testutil.LegacyPrefix})
	require.NoError(t, err)
	return imp, repos, db
}

func legacyTable(db *gorm.DB, name string) *gorm.DB {
	return db.Table(testutil.LegacyPrefix + name)
}

func addLegacyItem(t *testing.T, db *gorm.DB, item model.LegacyContent, attrs map[string]string, comments ...model.LegacyComment) uint64 {
	t.Helper()
	if item.ContentType == "" {
		item.ContentType = DefaultContentType
	}
	require.NoError(t, legacyTable(db, model.LegacyContentTable).Create(&item).Error)
	for k, v := range attrs {
		require.NoError(t, legacyTable(db, model.LegacyAttributeTable).Create(&model.LegacyAttribute{
			ContentID: item.ID, AttrKey: k, AttrValue: v,
		}).Error)
	}
	for _, c := range comments {
		c.ContentID = item.ID
		require.NoError(t, legacyTable(db, model.LegacyCommentTable).Create(&c).Error)
	}
	return item.ID
}

func TestImportContent_MapsAttributesAndTimestamps(t *testing.T) {
	imp, repos, db := newTestImporter(t)
	ctx := context.Background()

	created := time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)
	modified := time.Date(2023, 3, 2, 11, 0, 0, 0, time.UTC)
	replied := time.Date(2023, 3, 3, 12, 0, 0, 0, time.UTC)

	addLegacyItem(t, db, model.LegacyContent{AuthorID: 7, Body: "button is off", CreatedAt: created, ModifiedAt: modified},
		map[string]string{
			"_feedback_url":                "https://example.com/pricing/",
			"_feedback_position_x":         "12.5",
			"_feedback_position_y":         "40",
			"_feedback_scroll_y":           "300",
			"_feedback_viewport_width":     "1280",
			"_feedback_device_pixel_ratio": "2",
			"_feedback_screenshot_id":      "55",
			"_feedback_browser":            "Firefox",
			"_feedback_status":             "resolved",
		},
		model.LegacyComment{AuthorName: "Ana", Body: "fixed", CreatedAt: replied},
	)

	report, err := imp.ImportContent(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 1, report.Feedbacks)
	assert.Equal(t, 1, report.Replies)

	list, err := repos.Feedback.ListFeedbacks(ctx, &model.FeedbackQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	fb := list[0]

	assert.Equal(t, "button is off", fb.Comment)
	require.NotNil(t, fb.AuthorID)
	assert.Equal(t, uint64(7), *fb.AuthorID)
	assert.Equal(t, "https://example.com/pricing/", fb.URL)
	assert.Equal(t, "/pricing/", fb.PagePath)
	assert.InDelta(t, 12.5, fb.PositionX, 1e-9)
	assert.InDelta(t, 40.0, fb.PositionY, 1e-9)
	assert.Equal(t, 300, fb.ScrollY)
	require.NotNil(t, fb.ViewportWidth)
	assert.Equal(t, 1280, *fb.ViewportWidth)
	assert.Nil(t, fb.ViewportHeight)
	require.NotNil(t, fb.DevicePixelRatio)
	assert.InDelta(t, 2.0, *fb.DevicePixelRatio, 1e-9)
	require.NotNil(t, fb.ScreenshotID)
	assert.Equal(t, uint64(55), *fb.ScreenshotID)
	assert.Nil(t, fb.ElementOffsetX)
	assert.Equal(t, "Firefox", fb.Browser)
	assert.Equal(t, "resolved", fb.Status)
	assert.Equal(t, model.DefaultPriority, fb.Priority)
	assert.Equal(t, model.DefaultFeedbackType, fb.FeedbackType)
	assert.True(t, created.Equal(fb.CreatedAt), "created_at %s", fb.CreatedAt)
	assert.True(t, modified.Equal(fb.UpdatedAt), "updated_at %s", fb.UpdatedAt)

	replies, err := repos.Reply.ListReplies(ctx, fb.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "fixed", replies[0].Content)
	assert.Nil(t, replies[0].AuthorID)
	assert.True(t, replied.Equal(replies[0].CreatedAt))
}

func TestImportContent_BadAttributeFallsBackAndContinues(t *testing.T) {
	imp, repos, db := newTestImporter(t)
	ctx := context.Background()

	addLegacyItem(t, db, model.LegacyContent{Body: "one", CreatedAt: time.Now()},
		map[string]string{"_feedback_position_x": "left", "_feedback_url": "https://example.com/"})
	addLegacyItem(t, db, model.LegacyContent{Body: "two", CreatedAt: time.Now()},
		map[string]string{"_feedback_url": "https://example.com/b"})
	addLegacyItem(t, db, model.LegacyContent{ContentType: "post", Body: "not feedback"}, nil)

	report, err := imp.ImportContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Feedbacks)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "_feedback_position_x")

	n, err := repos.Feedback.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestImportContent_TitleFillsMissingPageTitle(t *testing.T) {
	imp, repos, db := newTestImporter(t)
	ctx := context.Background()

	addLegacyItem(t, db, model.LegacyContent{Title: " Pricing ", Body: "from title", CreatedAt: time.Now()},
		map[string]string{"_feedback_url": "https://example.com/pricing"})
	addLegacyItem(t, db, model.LegacyContent{Title: "ignored", Body: "from attribute", CreatedAt: time.Now()},
		map[string]string{"_feedback_url": "https://example.com/about", "_feedback_page_title": "About us"})

	report, err := imp.ImportContent(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Errors)

	list, err := repos.Feedback.ListFeedbacks(ctx, &model.FeedbackQuery{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	titles := map[string]string{}
	for _, fb := range list {
		titles[fb.Comment] = fb.PageTitle
	}
	assert.Equal(t, map[string]string{"from title": "Pricing", "from attribute": "About us"}, titles)
}

func TestImportContent_PagesThroughLargeStores(t *testing.T) {
	imp, repos, db := newTestImporter(t)
	ctx := context.Background()

	for i := 0; i < batchSize+5; i++ {
		addLegacyItem(t, db, model.LegacyContent{Body: "x", CreatedAt: time.Now()}, nil)
	}
	report, err := imp.ImportContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, batchSize+5, report.Feedbacks)

	n, err := repos.Feedback.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(batchSize+5), n)
}

func TestNeedsContentImport(t *testing.T) {
	imp, repos, db := newTestImporter(t)
	ctx := context.Background()

	need, err := imp.NeedsContentImport(ctx)
	require.NoError(t, err)
	assert.False(t, need, "no legacy data")

	addLegacyItem(t, db, model.LegacyContent{Body: "x", CreatedAt: time.Now()}, nil)
	need, err = imp.NeedsContentImport(ctx)
	require.NoError(t, err)
	assert.True(t, need)

	_, err = repos.Feedback.InsertFeedback(ctx, &model.Feedback{Comment: "new", URL: "https://example.com/"})
	require.NoError(t, err)
	need, err = imp.NeedsContentImport(ctx)
	require.NoError(t, err)
	assert.False(t, need, "target table is not empty")
}

func TestImportIfNeeded_RunsOnceAndSetsMarker(t *testing.T) {
	imp, repos, db := newTestImporter(t)
	ctx := context.Background()

	addLegacyItem(t, db, model.LegacyContent{Body: "x", CreatedAt: time.Now()}, nil)
	testutil.SetLegacyOption(t, db, "feedback_types", `[{"id":"bug","label":"Bug"}]`)

	report, err := imp.ImportIfNeeded(ctx)
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, 1, report.Feedbacks)
	assert.Equal(t, 1, report.Options)

	done, err := imp.Completed(ctx)
	require.NoError(t, err)
	assert.True(t, done)

	report, err = imp.ImportIfNeeded(ctx)
	require.NoError(t, err)
	assert.True(t, report.Skipped)

	n, err := repos.Feedback.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestImportIfNeeded_NothingToImport(t *testing.T) {
	imp, _, _ := newTestImporter(t)
	ctx := context.Background()

	report, err := imp.ImportIfNeeded(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Feedbacks)

	done, err := imp.Completed(ctx)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestImportIfNeeded_WithoutLegacyTables(t *testing.T) {
	db := testutil.NewMigratedDB(t)
	c := cache.NewFastCache(cache.FastCacheConfig{MaxBytes: 1024 * 1024})
	repos := repo.NewRepositories(database.NewGormDB(db), c, testutil.LegacyPrefix)
	imp, err := NewImporter(repos, config.LegacyConfig{})
	require.NoError(t, err)

	report, err := imp.ImportIfNeeded(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
}

func TestRunFullMigration_WritesMarker(t *testing.T) {
	imp, _, _ := newTestImporter(t)
	ctx := context.Background()

	_, err := imp.RunFullMigration(ctx)
	require.NoError(t, err)
	done, err := imp.Completed(ctx)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestNewMapper_RejectsUnknownColumn(t *testing.T) {
	_, err := NewMapper([]FieldMapping{{Key: "_x", Column: "nope", Coerce: asString}})
	assert.Error(t, err)
}

func TestPathOf(t *testing.T) {
	assert.Equal(t, "/a/b", pathOf("https://example.com/a/b?x=1"))
	assert.Equal(t, "/", pathOf("https://example.com"))
	assert.Equal(t, "", pathOf(""))
}
