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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFeedback(t *testing.T, r IFeedbackRepository, f model.Feedback) uint64 {
	t.Helper()
	if f.Comment == "" {
		f.Comment = "comment"
	}
	if f.URL == "" {
		f.URL = "https://site/x"
	}
	id, err := r.InsertFeedback(context.Background(), &f)
	require.NoError(t, err)
	return id
}

func TestFeedbackRepo_InsertAppliesDefaults(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	id, err := repos.Feedback.InsertFeedback(ctx, &model.Feedback{
		Comment:   "broken button",
		URL:       "https://site/x",
		PositionX: 50.0,
		PositionY: 12.5,
	})
	require.NoError(t, err)
	assert.Greater(t, id, uint64(0))

	got, err := repos.Feedback.GetFeedback(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Status)
	assert.Equal(t, "none", got.Priority)
	assert.Equal(t, "bug", got.FeedbackType)
	assert.Equal(t, 12.5, got.PositionY)
	assert.Nil(t, got.ViewportWidth)
	assert.Nil(t, got.ScreenshotID)
	assert.Nil(t, got.ElementOffsetX)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestFeedbackRepo_GetMissing(t *testing.T) {
	repos, _ := newTestRepos(t)

	_, err := repos.Feedback.GetFeedback(context.Background(), 404)
	assert.True(t, IsNotFound(err))
}

func TestFeedbackRepo_ListAndCountAgree(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	author := uint64(7)
	seedFeedback(t, repos.Feedback, model.Feedback{Status: "new", Comment: "alpha"})
	seedFeedback(t, repos.Feedback, model.Feedback{Status: "new", Comment: "beta", AuthorID: &author})
	seedFeedback(t, repos.Feedback, model.Feedback{Status: "resolved", Comment: "gamma", GuestEmail: "alpha@example.com"})

	tests := []struct {
		name  string
		query model.FeedbackQuery
		want  int
	}{
		{"no filter", model.FeedbackQuery{}, 3},
		{"status new", model.FeedbackQuery{Status: "new"}, 2},
		{"author", model.FeedbackQuery{AuthorID: &author}, 1},
		{"search comment or email", model.FeedbackQuery{Search: "alpha"}, 2},
		{"combined", model.FeedbackQuery{Status: "new", Search: "alpha"}, 1},
		{"no match", model.FeedbackQuery{Priority: "high"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := repos.Feedback.ListFeedbacks(ctx, &tt.query)
			require.NoError(t, err)
			n, err := repos.Feedback.CountFeedbacks(ctx, &tt.query)
			require.NoError(t, err)

			assert.Len(t, list, tt.want)
			assert.Equal(t, int64(len(list)), n)
			if tt.query.Status != "" {
				for _, f := range list {
					assert.Equal(t, tt.query.Status, f.Status)
				}
			}
		})
	}
}

func TestFeedbackRepo_SearchMatchesWildcardsLiterally(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	seedFeedback(t, repos.Feedback, model.Feedback{Comment: "discount is 50% off"})
	seedFeedback(t, repos.Feedback, model.Feedback{Comment: "500 error on checkout"})
	seedFeedback(t, repos.Feedback, model.Feedback{Comment: "see field user_name"})
	seedFeedback(t, repos.Feedback, model.Feedback{Comment: "see field username"})
	seedFeedback(t, repos.Feedback, model.Feedback{Comment: "wow! great"})

	tests := []struct {
		search string
		want   []string
	}{
		{"50%", []string{"discount is 50% off"}},
		{"user_name", []string{"see field user_name"}},
		{"wow!", []string{"wow! great"}},
		{"%", []string{"discount is 50% off"}},
		{"50", []string{"discount is 50% off", "500 error on checkout"}},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			list, err := repos.Feedback.ListFeedbacks(ctx, &model.FeedbackQuery{Search: tt.search})
			require.NoError(t, err)
			var comments []string
			for _, f := range list {
				comments = append(comments, f.Comment)
			}
			assert.ElementsMatch(t, tt.want, comments)

			n, err := repos.Feedback.CountFeedbacks(ctx, &model.FeedbackQuery{Search: tt.search})
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), n)
		})
	}
}

func TestFeedbackRepo_OrderAndPaging(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	a := seedFeedback(t, repos.Feedback, model.Feedback{Priority: "low"})
	b := seedFeedback(t, repos.Feedback, model.Feedback{Priority: "high"})
	c := seedFeedback(t, repos.Feedback, model.Feedback{Priority: "medium"})

	list, err := repos.Feedback.ListFeedbacks(ctx, &model.FeedbackQuery{OrderBy: "id", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []uint64{a, b, c}, []uint64{list[0].ID, list[1].ID, list[2].ID})

	// unknown column silently falls back to created_at, bad direction to DESC
	list, err = repos.Feedback.ListFeedbacks(ctx, &model.FeedbackQuery{OrderBy: "comment; DROP TABLE x", Order: "sideways"})
	require.NoError(t, err)
	assert.Equal(t, c, list[0].ID)

	list, err = repos.Feedback.ListFeedbacks(ctx, &model.FeedbackQuery{OrderBy: "id", Order: "ASC", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b, list[0].ID)
}

func TestFeedbackRepo_UpdatePartial(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	id := seedFeedback(t, repos.Feedback, model.Feedback{Comment: "keep me"})
	before, err := repos.Feedback.GetFeedback(ctx, id)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	ok, err := repos.Feedback.UpdateFeedback(ctx, id, map[string]any{"status": "resolved", "id": 999})
	require.NoError(t, err)
	assert.True(t, ok)

	after, err := repos.Feedback.GetFeedback(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "resolved", after.Status)
	assert.Equal(t, "keep me", after.Comment)
	assert.Equal(t, id, after.ID)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	ok, err = repos.Feedback.UpdateFeedback(ctx, 404, map[string]any{"status": "resolved"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repos.Feedback.UpdateFeedback(ctx, id, map[string]any{"created_at": time.Now()})
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestFeedbackRepo_DeleteCascadesReplies(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	id := seedFeedback(t, repos.Feedback, model.Feedback{})
	other := seedFeedback(t, repos.Feedback, model.Feedback{})
	for i := 0; i < 3; i++ {
		_, err := repos.Reply.InsertReply(ctx, &model.Reply{FeedbackID: id, Content: "r"})
		require.NoError(t, err)
	}
	_, err := repos.Reply.InsertReply(ctx, &model.Reply{FeedbackID: other, Content: "stays"})
	require.NoError(t, err)

	ok, err := repos.Feedback.DeleteFeedback(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := repos.Reply.CountReplies(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = repos.Reply.CountReplies(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err = repos.Feedback.DeleteFeedback(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFeedbackRepo_ListByPagePath(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	id := seedFeedback(t, repos.Feedback, model.Feedback{PagePath: "/contact"})
	slashed := seedFeedback(t, repos.Feedback, model.Feedback{PagePath: "/contact/", Status: "resolved"})
	seedFeedback(t, repos.Feedback, model.Feedback{PagePath: "/contact-us"})

	for _, p := range []string{"/contact", "/contact/"} {
		list, err := repos.Feedback.ListByPagePath(ctx, p, nil)
		require.NoError(t, err)
		require.Len(t, list, 2, p)
		assert.Equal(t, id, list[0].ID)
		assert.Equal(t, slashed, list[1].ID)
	}

	list, err := repos.Feedback.ListByPagePath(ctx, "/contact", []string{"resolved", "rejected"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
}

func TestReplyRepo_ListPreservesTimestamps(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	id := seedFeedback(t, repos.Feedback, model.Feedback{})
	old := time.Date(2020, 5, 1, 10, 0, 0, 0, time.UTC)
	_, err := repos.Reply.InsertReply(ctx, &model.Reply{FeedbackID: id, Content: "later"})
	require.NoError(t, err)
	first, err := repos.Reply.InsertReply(ctx, &model.Reply{FeedbackID: id, Content: "imported", CreatedAt: old})
	require.NoError(t, err)

	list, err := repos.Reply.ListReplies(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first, list[0].ID)
	assert.True(t, list[0].CreatedAt.Equal(old))

	ok, err := repos.Reply.DeleteReply(ctx, first)
	require.NoError(t, err)
	assert.True(t, ok)
}
