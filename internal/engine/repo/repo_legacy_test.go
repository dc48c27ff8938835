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

package repo

import (
	"context"
	"testing"
	"time"

	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/internal/engine/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyRepo_MissingTablesReadAsEmpty(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	n, err := repos.Legacy.CountContent(ctx, "visual_feedback")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, ok, err := repos.Legacy.GetOption(ctx, "feedback_db_version")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, repos.Legacy.DeleteOption(ctx, "anything"))
}

func TestLegacyRepo_ReadsContentBag(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()
	testutil.CreateLegacyTables(t, db)

	created := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	items := []*model.LegacyContent{
		{ContentType: "visual_feedback", Body: "one", CreatedAt: created, ModifiedAt: created},
		{ContentType: "page", Body: "not feedback", CreatedAt: created, ModifiedAt: created},
		{ContentType: "visual_feedback", Body: "two", CreatedAt: created, ModifiedAt: created},
	}
	for _, it := range items {
		require.NoError(t, db.Table(testutil.LegacyPrefix+model.LegacyContentTable).Create(it).Error)
	}
	attrs := []*model.LegacyAttribute{
		{ContentID: items[0].ID, AttrKey: "status", AttrValue: "new"},
		{ContentID: items[0].ID, AttrKey: "status", AttrValue: "resolved"},
		{ContentID: items[0].ID, AttrKey: "position_x", AttrValue: "12.5"},
	}
	for _, a := range attrs {
		require.NoError(t, db.Table(testutil.LegacyPrefix+model.LegacyAttributeTable).Create(a).Error)
	}

	n, err := repos.Legacy.CountContent(ctx, "visual_feedback")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	page, err := repos.Legacy.ListContent(ctx, "visual_feedback", 0, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "one", page[0].Body)

	page, err = repos.Legacy.ListContent(ctx, "visual_feedback", page[0].ID, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "two", page[0].Body)

	bag, err := repos.Legacy.Attributes(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"status": "resolved", "position_x": "12.5"}, bag)
}

func TestLegacyRepo_Options(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()
	testutil.CreateLegacyTables(t, db)
	testutil.SetLegacyOption(t, db, "feedback_db_version", "1.2.0")

	val, ok, err := repos.Legacy.GetOption(ctx, "feedback_db_version")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1.2.0", val)

	require.NoError(t, repos.Legacy.DeleteOption(ctx, "feedback_db_version"))
	_, ok, err = repos.Legacy.GetOption(ctx, "feedback_db_version")
	require.NoError(t, err)
	assert.False(t, ok)
}
