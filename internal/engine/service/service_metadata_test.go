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

package service

import (
	"context"
	"testing"

	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/pkg/datatype"
	"github.com/go-arcade/feedback/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slugsOf(items []model.Option) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Slug)
	}
	return out
}

func labelsOf(items []model.Option) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Label)
	}
	return out
}

func TestRegistry_SeedsEmptyBuiltInGroups(t *testing.T) {
	svc, repos, _ := newTestServices(t)
	ctx := context.Background()

	items, err := svc.Metadata.GetItems(ctx, BuiltIn(model.GroupStatuses))
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "in_progress", "resolved", "rejected"}, slugsOf(items))
	assert.True(t, items[2].IsTreated)
	assert.Equal(t, "#10b981", items[2].Color)
	assert.Equal(t, model.DisplayModeEmoji, items[0].DisplayMode)

	// a second read does not seed again
	_, err = svc.Metadata.GetItems(ctx, BuiltIn(model.GroupStatuses))
	require.NoError(t, err)
	n, err := repos.MetadataType.Count(ctx, model.GroupStatuses)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	priorities, err := svc.Metadata.GetItems(ctx, BuiltIn(model.GroupPriorities))
	require.NoError(t, err)
	assert.Equal(t, []string{"none", "low", "medium", "high"}, slugsOf(priorities))

	tags, err := svc.Metadata.GetItems(ctx, BuiltIn(model.GroupTags))
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestRegistry_UnknownGroups(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Metadata.GetItems(ctx, BuiltIn("colours"))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Metadata.GetItems(ctx, Custom(42))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Metadata.Ref(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_CustomGroupOrderAndReorder(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	group, err := svc.Metadata.CreateGroup(ctx, "Departments")
	require.NoError(t, err)
	assert.Equal(t, "departments", group.Slug)

	ref, err := svc.Metadata.Ref(ctx, "departments")
	require.NoError(t, err)
	assert.False(t, ref.IsBuiltIn())

	ids := map[string]uint64{}
	for _, label := range []string{"A", "B", "C"} {
		saved, err := svc.Metadata.SaveItem(ctx, ref, model.Option{OptionFields: model.OptionFields{Label: label, Enabled: util.Ptr(true)}})
		require.NoError(t, err)
		ids[label] = saved.ID
	}

	items, err := svc.Metadata.GetItems(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, labelsOf(items))

	require.NoError(t, svc.Metadata.Reorder(ctx, ref, []uint64{ids["C"], ids["A"], ids["B"]}))
	items, err = svc.Metadata.GetItems(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, labelsOf(items))
}

func TestRegistry_SaveItemBuiltInUpsertsBySlug(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()
	ref := BuiltIn(model.GroupTypes)

	seeded, err := svc.Metadata.GetItems(ctx, ref)
	require.NoError(t, err)
	bug := seeded[0]

	saved, err := svc.Metadata.SaveItem(ctx, ref, model.Option{OptionFields: model.OptionFields{
		Slug: "bug", Label: "Defect", Emoji: "🪲", Enabled: util.Ptr(true), SortOrder: 99,
	}})
	require.NoError(t, err)
	assert.Equal(t, bug.ID, saved.ID)
	assert.Equal(t, bug.SortOrder, saved.SortOrder)

	created, err := svc.Metadata.SaveItem(ctx, ref, model.Option{OptionFields: model.OptionFields{Label: "Feature Request", Enabled: util.Ptr(true)}})
	require.NoError(t, err)
	assert.Regexp(t, `^feature-request-[0-9a-z]+$`, created.Slug)
	assert.Equal(t, len(seeded), created.SortOrder)

	items, err := svc.Metadata.GetItems(ctx, ref)
	require.NoError(t, err)
	require.Len(t, items, len(seeded)+1)
	assert.Equal(t, "Defect", items[0].Label)
	assert.Equal(t, "Feature Request", items[len(items)-1].Label)
}

func TestRegistry_SaveItemValidation(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Metadata.SaveItem(ctx, BuiltIn(model.GroupTags), model.Option{})
	assert.True(t, IsValidation(err))

	_, err = svc.Metadata.SaveItem(ctx, BuiltIn(model.GroupTags), model.Option{OptionFields: model.OptionFields{Label: "x", DisplayMode: "neon"}})
	assert.True(t, IsValidation(err))

	group, err := svc.Metadata.CreateGroup(ctx, "Teams")
	require.NoError(t, err)
	_, err = svc.Metadata.SaveItem(ctx, Custom(group.ID), model.Option{ID: 999, OptionFields: model.OptionFields{Label: "x"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_DeleteItem(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()
	ref := BuiltIn(model.GroupTags)

	saved, err := svc.Metadata.SaveItem(ctx, ref, model.Option{OptionFields: model.OptionFields{Label: "UX", Enabled: util.Ptr(true)}})
	require.NoError(t, err)
	require.NoError(t, svc.Metadata.DeleteItem(ctx, ref, saved.ID))
	assert.ErrorIs(t, svc.Metadata.DeleteItem(ctx, ref, saved.ID), ErrNotFound)
}

func TestRegistry_GroupLifecycle(t *testing.T) {
	svc, repos, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Metadata.CreateGroup(ctx, "Statuses")
	assert.True(t, IsValidation(err), "reserved name")
	_, err = svc.Metadata.CreateGroup(ctx, "  ")
	assert.True(t, IsValidation(err), "empty name")

	group, err := svc.Metadata.CreateGroup(ctx, "Teams")
	require.NoError(t, err)
	_, err = svc.Metadata.CreateGroup(ctx, "teams")
	assert.True(t, IsValidation(err), "duplicate")

	_, err = svc.Metadata.SaveItem(ctx, Custom(group.ID), model.Option{OptionFields: model.OptionFields{Label: "Core", Enabled: util.Ptr(true)}})
	require.NoError(t, err)
	_, err = svc.Metadata.SaveGroupSettings(ctx, "teams", model.GroupSettings{Enabled: util.Ptr(true), Required: true})
	require.NoError(t, err)

	assert.True(t, IsValidation(svc.Metadata.DeleteGroup(ctx, model.GroupTypes)))
	require.NoError(t, svc.Metadata.DeleteGroup(ctx, "teams"))
	assert.ErrorIs(t, svc.Metadata.DeleteGroup(ctx, "teams"), ErrNotFound)

	n, err := repos.MetadataItem.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = repos.GroupSettings.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegistry_NonLatinGroupNames(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	departments, err := svc.Metadata.CreateGroup(ctx, "Отделы")
	require.NoError(t, err)
	teams, err := svc.Metadata.CreateGroup(ctx, "部门")
	require.NoError(t, err)

	assert.Equal(t, "отделы", departments.Slug)
	assert.Equal(t, "部门", teams.Slug)
	assert.NotEqual(t, departments.Slug, teams.Slug)

	_, err = svc.Metadata.CreateGroup(ctx, "ОТДЕЛЫ")
	assert.True(t, IsValidation(err), "same name in another case")

	groups, err := svc.Metadata.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 6)
	assert.Equal(t, "Отделы", groups[4].Name)
	assert.Equal(t, "部门", groups[5].Name)
}

func TestRegistry_SaveGroupSettingsSwitches(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	saved, err := svc.Metadata.SaveGroupSettings(ctx, model.GroupTags, model.GroupSettings{
		Enabled: util.Ptr(false), ShowInSidebar: util.Ptr(false),
	})
	require.NoError(t, err)
	assert.False(t, saved.IsEnabled())
	assert.False(t, saved.IsShownInSidebar())

	// switches left unset keep what is stored
	saved, err = svc.Metadata.SaveGroupSettings(ctx, model.GroupTags, model.GroupSettings{Required: true, SortOrder: 3})
	require.NoError(t, err)
	assert.False(t, saved.IsEnabled())
	assert.False(t, saved.IsShownInSidebar())
	assert.True(t, saved.Required)
	assert.Equal(t, 3, saved.SortOrder)

	saved, err = svc.Metadata.SaveGroupSettings(ctx, model.GroupTags, model.GroupSettings{Enabled: util.Ptr(true)})
	require.NoError(t, err)
	assert.True(t, saved.IsEnabled())
	assert.False(t, saved.IsShownInSidebar())

	editor := model.Actor{UserID: 5, Roles: []string{"editor"}}
	assert.True(t, GroupAccessible(*saved, editor))
}

func TestRegistry_ListGroupsAndSettings(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Metadata.CreateGroup(ctx, "Teams")
	require.NoError(t, err)

	groups, err := svc.Metadata.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 5)
	assert.Equal(t, "statuses", groups[0].Slug)
	assert.True(t, groups[0].BuiltIn)
	assert.Equal(t, "teams", groups[4].Slug)
	assert.True(t, groups[4].Settings.IsEnabled())
	assert.True(t, groups[4].Settings.IsShownInSidebar())

	saved, err := svc.Metadata.SaveGroupSettings(ctx, "teams", model.GroupSettings{
		Enabled: util.Ptr(true), ShowInSidebar: util.Ptr(true), HideEmptySections: true, SortOrder: -1,
	})
	assert.True(t, IsValidation(err))
	assert.Nil(t, saved)

	settings, err := svc.Metadata.GetGroupSettings(ctx, model.GroupStatuses)
	require.NoError(t, err)
	settings.SortOrder = 9
	_, err = svc.Metadata.SaveGroupSettings(ctx, model.GroupStatuses, *settings)
	require.NoError(t, err)

	groups, err = svc.Metadata.ListGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, "types", groups[0].Slug)
	assert.Equal(t, "statuses", groups[4].Slug)

	_, err = svc.Metadata.GetGroupSettings(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Metadata.SaveGroupSettings(ctx, "missing", model.GroupSettings{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_TreatedStatuses(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	treated, err := svc.Metadata.TreatedStatuses(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"resolved", "rejected"}, treated)
}

func TestUserCanAccess(t *testing.T) {
	editor := model.Actor{UserID: 5, Roles: []string{"editor"}}
	tests := []struct {
		name   string
		fields model.OptionFields
		actor  model.Actor
		want   bool
	}{
		{"disabled item", model.OptionFields{Enabled: util.Ptr(false)}, editor, false},
		{"no restrictions", model.OptionFields{Enabled: util.Ptr(true)}, editor, true},
		{"listed user", model.OptionFields{Enabled: util.Ptr(true), AllowedUsers: datatype.List[uint64]{5}}, editor, true},
		{"matching role", model.OptionFields{Enabled: util.Ptr(true), AllowedRoles: datatype.List[string]{"admin", "editor"}}, editor, true},
		{"neither", model.OptionFields{Enabled: util.Ptr(true), AllowedRoles: datatype.List[string]{"admin"}, AllowedUsers: datatype.List[uint64]{9}}, editor, false},
		{"disabled beats listed user", model.OptionFields{Enabled: util.Ptr(false), AllowedUsers: datatype.List[uint64]{5}}, editor, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserCanAccess(model.Option{OptionFields: tt.fields}, tt.actor))
		})
	}
}

func TestFilterAccessible(t *testing.T) {
	items := []model.Option{
		{ID: 1, OptionFields: model.OptionFields{Slug: "open", Enabled: util.Ptr(true)}},
		{ID: 2, OptionFields: model.OptionFields{Slug: "admins", Enabled: util.Ptr(true), AllowedRoles: datatype.List[string]{"admin"}}},
		{ID: 3, OptionFields: model.OptionFields{Slug: "off", Enabled: util.Ptr(false)}},
	}
	got := FilterAccessible(items, model.Actor{UserID: 1, Roles: []string{"subscriber"}})
	assert.Equal(t, []string{"open"}, slugsOf(got))

	got = FilterAccessible(items, model.Actor{UserID: 1, Roles: []string{"admin"}})
	assert.Equal(t, []string{"open", "admins"}, slugsOf(got))
}

func TestGroupAccessible(t *testing.T) {
	gs := model.DefaultGroupSettings("teams")
	assert.True(t, GroupAccessible(gs, model.Actor{UserID: 1}))
	gs.AllowedUsers = datatype.List[uint64]{2}
	assert.False(t, GroupAccessible(gs, model.Actor{UserID: 1}))

	// an unset switch reads as on
	assert.True(t, GroupAccessible(model.GroupSettings{GroupSlug: "teams"}, model.Actor{UserID: 1}))
	assert.False(t, GroupAccessible(model.GroupSettings{GroupSlug: "teams", Enabled: util.Ptr(false)}, model.Actor{UserID: 1}))
}
